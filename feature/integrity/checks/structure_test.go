package checks

import (
	"context"
	"errors"
	"testing"

	"records-manager/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func TestCheckStructure(t *testing.T) {
	t.Run("Bucket Missing", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", mock.Anything, "records").Return(false, nil)

		_, err := CheckStructure(context.Background(), client, "records")
		assert.ErrorIs(t, err, ErrBucketMissing)
	})

	t.Run("All Missing", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", mock.Anything, "records").Return(true, nil)
		client.On("ListObjects", mock.Anything, "records", mock.Anything).Return(mocks.Listing())

		missing, err := CheckStructure(context.Background(), client, "records")
		assert.NoError(t, err)
		assert.Equal(t, RequiredFolders, missing)
	})

	t.Run("Backups Present", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", mock.Anything, "records").Return(true, nil)
		client.On("ListObjects", mock.Anything, "records", mock.MatchedBy(func(opts minio.ListObjectsOptions) bool {
			return opts.Prefix == "backups/"
		})).Return(mocks.Listing(minio.ObjectInfo{Key: "backups/academic_backup_2025-01-01_101500.json"}))
		client.On("ListObjects", mock.Anything, "records", mock.MatchedBy(func(opts minio.ListObjectsOptions) bool {
			return opts.Prefix == "diagnostics/"
		})).Return(mocks.Listing())

		missing, err := CheckStructure(context.Background(), client, "records")
		assert.NoError(t, err)
		assert.Equal(t, []string{"diagnostics"}, missing)
	})

	t.Run("Listing Error", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", mock.Anything, "records").Return(true, nil)
		client.On("ListObjects", mock.Anything, "records", mock.Anything).Return(mocks.Listing(minio.ObjectInfo{Err: errors.New("access denied")}))

		_, err := CheckStructure(context.Background(), client, "records")
		assert.ErrorContains(t, err, "failed to list backups")
	})
}

func TestFixStructure(t *testing.T) {
	client := new(mocks.Client)
	client.On("PutObject", mock.Anything, "records", "diagnostics/", mock.Anything, int64(0), minio.PutObjectOptions{}).Return(minio.UploadInfo{}, nil)

	err := FixStructure(context.Background(), client, "records", zap.NewNop(), []string{"diagnostics/"})
	assert.NoError(t, err)
	client.AssertNumberOfCalls(t, "PutObject", 1)
}

func TestFixStructure_StopsOnError(t *testing.T) {
	client := new(mocks.Client)
	client.On("PutObject", mock.Anything, "records", "backups/", mock.Anything, int64(0), minio.PutObjectOptions{}).
		Return(minio.UploadInfo{}, errors.New("read-only bucket"))

	err := FixStructure(context.Background(), client, "records", zap.NewNop(), []string{"backups", "diagnostics"})
	assert.ErrorContains(t, err, "failed to create backups/")
	client.AssertNumberOfCalls(t, "PutObject", 1)
}
