package reconcile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"time"
)

// SystemFields are owned by the store and never touched by a merge.
// Entity records embed it so that the fields flatten into the record's JSON.
type SystemFields struct {
	ID         string     `json:"id,omitempty"`
	IsDeleted  bool       `json:"is_deleted"`
	CreatedAt  time.Time  `json:"created_at"`
	CreatedBy  string     `json:"created_by,omitempty"`
	UpdatedAt  time.Time  `json:"updated_at"`
	UpdatedBy  string     `json:"updated_by,omitempty"`
	Provenance Provenance `json:"provenance,omitempty"`
}

// System gives generic code access to the embedded system fields.
func (s *SystemFields) System() *SystemFields {
	return s
}

// Record is implemented by pointers to entity structs embedding SystemFields.
type Record interface {
	System() *SystemFields
}

var systemFieldNames = map[string]struct{}{
	"id":         {},
	"is_deleted": {},
	"created_at": {},
	"created_by": {},
	"updated_at": {},
	"updated_by": {},
	"provenance": {},
}

// IsSystemField reports whether name is a store-owned field.
func IsSystemField(name string) bool {
	_, ok := systemFieldNames[name]
	return ok
}

// Fields flattens a record into its entity-owned fields, keyed by JSON name.
// Numbers are kept as json.Number so that values round-trip without float drift.
func Fields(rec any) (map[string]any, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	fields, err := DecodeFields(raw)
	if err != nil {
		return nil, err
	}
	for name := range systemFieldNames {
		delete(fields, name)
	}
	return fields, nil
}

// DecodeFields decodes a JSON object into a field map.
func DecodeFields(raw []byte) (map[string]any, error) {
	var fields map[string]any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("failed to decode record fields: %w", err)
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

// ChangedFields returns the sorted names whose values differ between before and after.
// A field present on one side only counts as changed.
func ChangedFields(before, after map[string]any) []string {
	var changed []string
	for name, av := range after {
		if !reflect.DeepEqual(normalizeValue(before[name]), normalizeValue(av)) {
			changed = append(changed, name)
		}
	}
	for name, bv := range before {
		if _, ok := after[name]; !ok && normalizeValue(bv) != nil {
			changed = append(changed, name)
		}
	}
	sort.Strings(changed)
	return changed
}

// normalizeValue treats absent, null and empty values alike so that a stored ""
// and an omitted field do not show up as a change.
func normalizeValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		if t == "" {
			return nil
		}
	case []any:
		if len(t) == 0 {
			return nil
		}
	case map[string]any:
		if len(t) == 0 {
			return nil
		}
	}
	return v
}
