package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"records-manager/core/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type mockSink struct {
	mock.Mock
}

func (m *mockSink) Append(ctx context.Context, e *Entry) error {
	return m.Called(ctx, e).Error(0)
}

func (m *mockSink) Recent(ctx context.Context, f Filter) ([]Entry, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]Entry), args.Error(1)
}

func TestRecorder_GormSink(t *testing.T) {
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	sink := NewGormSink(db)
	require.NoError(t, sink.Migrate())

	rec := NewRecorder(sink, zap.NewNop())
	base := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	rec.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	ctx := context.Background()
	rec.Success(ctx, ActionUpdate, "research_records", "r1", "alice", map[string]any{"changed": []string{"title"}})
	rec.Failure(ctx, ActionDelete, "research_records", "r2", "bob", nil, errors.New("not found"))
	rec.Success(ctx, ActionImport, "advisors", "", "alice", "new 3")

	all, err := sink.Recent(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, ActionImport, all[0].Action)

	research, err := sink.Recent(ctx, Filter{Collection: "research_records"})
	require.NoError(t, err)
	require.Len(t, research, 2)
	assert.Equal(t, StatusFailure, research[0].Status)
	assert.Equal(t, "not found", research[0].ErrorMessage)
	assert.JSONEq(t, `{"changed":["title"]}`, string(research[1].Details))

	deletes, err := sink.Recent(ctx, Filter{Action: ActionDelete, Limit: 5})
	require.NoError(t, err)
	assert.Len(t, deletes, 1)
}

func TestRecorder_BestEffort(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	sink := new(mockSink)
	sink.On("Append", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	rec := NewRecorder(sink, zap.New(core))
	assert.NotPanics(t, func() {
		rec.Success(context.Background(), ActionCreate, "advisors", "a1", "alice", nil)
	})

	sink.AssertNumberOfCalls(t, "Append", 1)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "Audit append failed", logs.All()[0].Message)
}

func TestRecorder_CancelledContextStillAppends(t *testing.T) {
	sink := new(mockSink)
	sink.On("Append", mock.MatchedBy(func(ctx context.Context) bool { return ctx.Err() == nil }), mock.Anything).Return(nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	NewRecorder(sink, zap.NewNop()).Success(ctx, ActionImport, "graduate_students", "", "alice", nil)
	sink.AssertExpectations(t)
}

func TestRecorder_Nil(t *testing.T) {
	var rec *Recorder
	assert.NotPanics(t, func() {
		rec.Success(context.Background(), ActionCreate, "x", "y", "z", nil)
	})
}
