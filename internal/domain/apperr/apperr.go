// Package apperr defines the error kinds shared by every domain package.
// Domain sentinels wrap one of these kinds so transport layers can map
// failures without knowing each domain's vocabulary.
package apperr

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidState = errors.New("invalid state")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation failed")
)

var kinds = []error{ErrNotFound, ErrUnauthorized, ErrInvalidState, ErrConflict, ErrValidation}

// Kind returns the kind wrapped by err, or nil when err is unclassified.
func Kind(err error) error {
	if err == nil {
		return nil
	}
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
