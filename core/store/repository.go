package store

import (
	"context"
	"encoding/json"
	"fmt"

	"records-manager/core/reconcile"
)

// RecordPtr constrains PT to a pointer to an entity struct T.
type RecordPtr[T any] interface {
	*T
	reconcile.Record
}

// Decode turns a document into a typed record with its system fields filled from the columns.
func Decode[T any, PT RecordPtr[T]](doc Document) (PT, error) {
	rec := PT(new(T))
	if len(doc.Body) > 0 {
		if err := json.Unmarshal(doc.Body, rec); err != nil {
			return nil, fmt.Errorf("failed to decode %s/%s: %w", doc.Collection, doc.ID, err)
		}
	}
	*rec.System() = reconcile.SystemFields{
		ID:         doc.ID,
		IsDeleted:  doc.IsDeleted,
		CreatedAt:  doc.CreatedAt,
		CreatedBy:  doc.CreatedBy,
		UpdatedAt:  doc.UpdatedAt,
		UpdatedBy:  doc.UpdatedBy,
		Provenance: reconcile.Provenance(doc.Provenance),
	}
	return rec, nil
}

// Repository gives typed access to one entity kind.
type Repository[T any, PT RecordPtr[T]] struct {
	store Store
	kind  reconcile.EntityKind
}

// NewRepository binds a store to an entity kind.
func NewRepository[T any, PT RecordPtr[T]](s Store, kind reconcile.EntityKind) *Repository[T, PT] {
	return &Repository[T, PT]{store: s, kind: kind}
}

// Kind returns the entity kind.
func (r *Repository[T, PT]) Kind() reconcile.EntityKind {
	return r.kind
}

// Store returns the underlying store.
func (r *Repository[T, PT]) Store() Store {
	return r.store
}

// All loads every record. Soft-deleted records are included when includeDeleted is set,
// which the planner needs for kinds that resurrect.
func (r *Repository[T, PT]) All(ctx context.Context, includeDeleted bool) ([]PT, error) {
	docs, err := r.store.GetAll(ctx, r.kind.Collection(), includeDeleted)
	if err != nil {
		return nil, err
	}
	out := make([]PT, 0, len(docs))
	for _, d := range docs {
		rec, err := Decode[T, PT](d)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Get loads one record by id.
func (r *Repository[T, PT]) Get(ctx context.Context, id string) (PT, error) {
	doc, err := r.store.GetByKey(ctx, r.kind.Collection(), id)
	if err != nil {
		return nil, err
	}
	return Decode[T, PT](*doc)
}

// Create stores a new record under key ("" generates one) and returns it as stored.
func (r *Repository[T, PT]) Create(ctx context.Context, actor, key string, rec PT) (PT, error) {
	fields, err := reconcile.Fields(rec)
	if err != nil {
		return nil, err
	}
	res, err := r.store.SetMany(ctx, r.kind.Collection(), actor, []Write{{
		Key:        key,
		Fields:     fields,
		Provenance: string(rec.System().Provenance),
	}})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, res.IDs[0])
}

// Patch overwrites the given entity fields of an existing record.
func (r *Repository[T, PT]) Patch(ctx context.Context, actor, id string, fields map[string]any) (PT, error) {
	res, err := r.store.SetMany(ctx, r.kind.Collection(), actor, []Write{{Key: id, Fields: fields, Patch: true}})
	if err != nil {
		return nil, err
	}
	if len(res.Missing) > 0 {
		return nil, fmt.Errorf("%s/%s: %w", r.kind.Collection(), id, ErrNotFound)
	}
	return r.Get(ctx, id)
}

// Delete soft-deletes a record and returns its last state.
func (r *Repository[T, PT]) Delete(ctx context.Context, actor, id string) (PT, error) {
	doc, err := r.store.SoftDelete(ctx, r.kind.Collection(), id, actor)
	if err != nil {
		return nil, err
	}
	return Decode[T, PT](*doc)
}

// Count returns the number of live records.
func (r *Repository[T, PT]) Count(ctx context.Context) (int64, error) {
	return r.store.Count(ctx, r.kind.Collection())
}
