package reconcile

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAmbiguousMatch marks a key value shared by more than one existing record.
	ErrAmbiguousMatch = errors.New("ambiguous match")
	// ErrValidation marks an incoming record missing a required field.
	ErrValidation = errors.New("validation failed")
	// ErrUnknownKind is returned by ParseKind for names that are no entity kind.
	ErrUnknownKind = errors.New("unknown entity kind")
)

// AmbiguousMatchError describes an incoming record routed to insert because its key
// matched several existing records.
type AmbiguousMatchError struct {
	Kind       EntityKind `json:"kind"`
	Index      int        `json:"index"`
	Key        string     `json:"key"`
	Value      string     `json:"value"`
	Candidates []string   `json:"candidates"`
}

func (e *AmbiguousMatchError) Error() string {
	return fmt.Sprintf("%s #%d: %s %q matches %d records (%s)",
		e.Kind, e.Index, e.Key, DisplayKey(e.Value), len(e.Candidates), strings.Join(e.Candidates, ", "))
}

func (e *AmbiguousMatchError) Unwrap() error {
	return ErrAmbiguousMatch
}

// ValidationError describes an incoming record excluded from a plan.
type ValidationError struct {
	Kind    EntityKind `json:"kind"`
	Index   int        `json:"index"`
	Field   string     `json:"field"`
	Message string     `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s #%d: %s %s", e.Kind, e.Index, e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// IsValidationError reports whether err is or wraps a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
