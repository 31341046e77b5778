package reconcile

import "strings"

// Overlay returns incoming unless it is blank or the "-" placeholder used by
// spreadsheets, in which case existing is kept.
func Overlay(incoming, existing string) string {
	t := strings.TrimSpace(incoming)
	if t == "" || t == "-" {
		return existing
	}
	return incoming
}

// OverlayInt keeps existing when incoming is zero.
func OverlayInt(incoming, existing int) int {
	if incoming == 0 {
		return existing
	}
	return incoming
}

// OverlayFloat keeps existing when incoming is zero.
func OverlayFloat(incoming, existing float64) float64 {
	if incoming == 0 {
		return existing
	}
	return incoming
}

// OverlaySlice keeps existing when incoming is empty.
func OverlaySlice[E any](incoming, existing []E) []E {
	if len(incoming) == 0 {
		return existing
	}
	return incoming
}

// OverlayBool keeps existing when incoming is nil.
func OverlayBool(incoming, existing *bool) *bool {
	if incoming == nil {
		return existing
	}
	return incoming
}

// Default returns fallback when v is blank.
func Default(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

// ClearSystem resets dst's system fields for an insert. Only the provenance
// survives; id, timestamps, actors and the deleted flag belong to the store.
func ClearSystem(dst Record) {
	s := dst.System()
	*s = SystemFields{Provenance: s.Provenance}
}

// KeepSystem copies the existing record's system fields onto dst.
func KeepSystem(dst, existing Record) {
	*dst.System() = *existing.System()
}
