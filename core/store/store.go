package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"records-manager/core/reconcile"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("document not found")

// Store is the document store used by the engine.
type Store interface {
	// GetAll returns the documents of a collection ordered by creation.
	GetAll(ctx context.Context, collection string, includeDeleted bool) ([]Document, error)
	// GetByKey returns one document or ErrNotFound.
	GetByKey(ctx context.Context, collection, id string) (*Document, error)
	// SetMany applies writes atomically: either every write that found its target is
	// applied or none is. Patches whose target is gone are reported in Missing.
	SetMany(ctx context.Context, collection, actor string, writes []Write) (WriteResult, error)
	// SoftDelete flags a document as deleted and returns it.
	SoftDelete(ctx context.Context, collection, id, actor string) (*Document, error)
	// PurgeAll hard-deletes every document of a collection.
	PurgeAll(ctx context.Context, collection string) (int64, error)
	// Count returns the number of live documents in a collection.
	Count(ctx context.Context, collection string) (int64, error)
}

// GormStore implements Store on a single gorm table.
type GormStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormStore creates the store. Call Migrate once before use.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db, now: time.Now}
}

// Migrate creates or updates the documents table.
func (s *GormStore) Migrate() error {
	return s.db.AutoMigrate(&Document{})
}

func (s *GormStore) GetAll(ctx context.Context, collection string, includeDeleted bool) ([]Document, error) {
	var docs []Document
	q := s.db.WithContext(ctx).Where("collection = ?", collection)
	if !includeDeleted {
		q = q.Where("is_deleted = ?", false)
	}
	if err := q.Order("created_at, id").Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", collection, err)
	}
	return docs, nil
}

func (s *GormStore) GetByKey(ctx context.Context, collection, id string) (*Document, error) {
	var doc Document
	err := s.db.WithContext(ctx).Where("collection = ? AND id = ?", collection, id).Take(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s/%s: %w", collection, id, err)
	}
	return &doc, nil
}

func (s *GormStore) SetMany(ctx context.Context, collection, actor string, writes []Write) (WriteResult, error) {
	var result WriteResult
	now := s.now()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result = WriteResult{}
		for _, w := range writes {
			if w.Patch {
				applied, err := patchDocument(tx, collection, actor, now, w)
				if err != nil {
					return err
				}
				if applied {
					result.IDs = append(result.IDs, w.Key)
				} else {
					result.Missing = append(result.Missing, w.Key)
				}
				continue
			}

			id, err := createDocument(tx, collection, actor, now, w)
			if err != nil {
				return err
			}
			result.IDs = append(result.IDs, id)
		}
		return nil
	})
	if err != nil {
		return WriteResult{}, fmt.Errorf("failed to write %d %s documents: %w", len(writes), collection, err)
	}
	return result, nil
}

func createDocument(tx *gorm.DB, collection, actor string, now time.Time, w Write) (string, error) {
	body, err := encodeBody(w.Fields)
	if err != nil {
		return "", err
	}

	doc := Document{
		Collection: collection,
		ID:         w.Key,
		Body:       body,
		Provenance: w.Provenance,
		CreatedAt:  now,
		CreatedBy:  actor,
		UpdatedAt:  now,
		UpdatedBy:  actor,
	}

	if doc.ID == "" {
		doc.ID = uuid.NewString()
		if err := tx.Create(&doc).Error; err != nil {
			return "", fmt.Errorf("failed to insert into %s: %w", collection, err)
		}
		return doc.ID, nil
	}

	// Natural keys are upserted so that re-importing the same entity converges.
	err = tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "collection"}, {Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"body", "is_deleted", "provenance", "updated_at", "updated_by"}),
	}).Create(&doc).Error
	if err != nil {
		return "", fmt.Errorf("failed to upsert %s/%s: %w", collection, doc.ID, err)
	}
	return doc.ID, nil
}

func patchDocument(tx *gorm.DB, collection, actor string, now time.Time, w Write) (bool, error) {
	var doc Document
	err := tx.Where("collection = ? AND id = ?", collection, w.Key).Take(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load %s/%s: %w", collection, w.Key, err)
	}

	fields, err := reconcile.DecodeFields(doc.Body)
	if err != nil {
		return false, err
	}
	for k, v := range w.Fields {
		if reconcile.IsSystemField(k) {
			continue
		}
		fields[k] = v
	}
	body, err := encodeBody(fields)
	if err != nil {
		return false, err
	}

	updates := map[string]any{
		"body":       body,
		"updated_at": now,
		"updated_by": actor,
	}
	if w.Restore {
		updates["is_deleted"] = false
	}
	err = tx.Model(&Document{}).
		Where("collection = ? AND id = ?", collection, w.Key).
		Updates(updates).Error
	if err != nil {
		return false, fmt.Errorf("failed to patch %s/%s: %w", collection, w.Key, err)
	}
	return true, nil
}

func (s *GormStore) SoftDelete(ctx context.Context, collection, id, actor string) (*Document, error) {
	doc, err := s.GetByKey(ctx, collection, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	err = s.db.WithContext(ctx).Model(&Document{}).
		Where("collection = ? AND id = ?", collection, id).
		Updates(map[string]any{"is_deleted": true, "updated_at": now, "updated_by": actor}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}
	doc.IsDeleted = true
	doc.UpdatedAt = now
	doc.UpdatedBy = actor
	return doc, nil
}

func (s *GormStore) PurgeAll(ctx context.Context, collection string) (int64, error) {
	res := s.db.WithContext(ctx).Where("collection = ?", collection).Delete(&Document{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to purge %s: %w", collection, res.Error)
	}
	return res.RowsAffected, nil
}

func (s *GormStore) Count(ctx context.Context, collection string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&Document{}).
		Where("collection = ? AND is_deleted = ?", collection, false).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", collection, err)
	}
	return n, nil
}

func encodeBody(fields map[string]any) (datatypes.JSON, error) {
	if fields == nil {
		fields = map[string]any{}
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document body: %w", err)
	}
	return datatypes.JSON(raw), nil
}
