package checks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"records-manager/core/storage"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// ErrBucketMissing is returned when the configured bucket does not exist.
var ErrBucketMissing = errors.New("bucket does not exist")

// RequiredFolders lists the archive folders that must exist in the bucket:
// backup archives and failed-run diagnostics.
var RequiredFolders = []string{"backups", "diagnostics"}

// CheckStructure returns the required folders with no object under them, in
// RequiredFolders order.
func CheckStructure(ctx context.Context, client storage.Client, bucket string) ([]string, error) {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%s: %w", bucket, ErrBucketMissing)
	}

	var missing []string
	for _, folder := range RequiredFolders {
		ok, err := hasObjects(ctx, client, bucket, folderKey(folder))
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", folder, err)
		}
		if !ok {
			missing = append(missing, folder)
		}
	}
	return missing, nil
}

// hasObjects reports whether anything is stored under prefix. The listing is
// capped at one key; the context is cancelled on return so minio stops
// streaming.
func hasObjects(ctx context.Context, client storage.Client, bucket, prefix string) (bool, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for obj := range client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Prefix: prefix, MaxKeys: 1}) {
		if obj.Err != nil {
			return false, obj.Err
		}
		return true, nil
	}
	return false, nil
}

// FixStructure writes an empty marker object for each missing folder. It
// stops at the first failure.
func FixStructure(ctx context.Context, client storage.Client, bucket string, logger *zap.Logger, missing []string) error {
	for _, folder := range missing {
		key := folderKey(folder)
		if _, err := client.PutObject(ctx, bucket, key, bytes.NewReader(nil), 0, minio.PutObjectOptions{}); err != nil {
			logger.Error("Failed to create folder", zap.String("folder", folder), zap.Error(err))
			return fmt.Errorf("failed to create %s: %w", key, err)
		}
		logger.Info("Created missing folder", zap.String("folder", folder), zap.String("bucket", bucket))
	}
	return nil
}

func folderKey(folder string) string {
	return strings.TrimSuffix(folder, "/") + "/"
}
