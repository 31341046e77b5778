package audit

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// Recorder appends audit entries on a best-effort basis. A failed append is logged
// and swallowed; the caller's data mutation has already happened and stands.
// A nil *Recorder records nothing.
type Recorder struct {
	sink   Sink
	logger *zap.Logger
	now    func() time.Time
}

// NewRecorder wraps a sink.
func NewRecorder(sink Sink, logger *zap.Logger) *Recorder {
	return &Recorder{sink: sink, logger: logger, now: time.Now}
}

// Success records a successful operation.
func (r *Recorder) Success(ctx context.Context, action Action, collection, docID, actor string, details any) {
	r.record(ctx, Entry{
		Action:     action,
		Collection: collection,
		DocID:      docID,
		Actor:      actor,
		Status:     StatusSuccess,
	}, details)
}

// Failure records a failed operation together with its error.
func (r *Recorder) Failure(ctx context.Context, action Action, collection, docID, actor string, details any, cause error) {
	e := Entry{
		Action:     action,
		Collection: collection,
		DocID:      docID,
		Actor:      actor,
		Status:     StatusFailure,
	}
	if cause != nil {
		e.ErrorMessage = cause.Error()
	}
	r.record(ctx, e, details)
}

func (r *Recorder) record(ctx context.Context, e Entry, details any) {
	if r == nil || r.sink == nil {
		return
	}
	e.Timestamp = r.now()
	if details != nil {
		raw, err := json.Marshal(details)
		if err != nil {
			r.logger.Warn("Audit details not encodable", zap.String("action", string(e.Action)), zap.Error(err))
		} else {
			e.Details = datatypes.JSON(raw)
		}
	}

	// The data write already committed; a cancelled request must not drop its audit row.
	if err := r.sink.Append(context.WithoutCancel(ctx), &e); err != nil {
		r.logger.Warn("Audit append failed",
			zap.String("action", string(e.Action)),
			zap.String("collection", e.Collection),
			zap.String("doc_id", e.DocID),
			zap.Error(err),
		)
	}
}
