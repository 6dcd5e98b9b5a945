package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain operations
var (
	// ErrInvalidFormat indicates a document that is not an array of categories
	ErrInvalidFormat = errors.New("invalid document format")

	// ErrTransport indicates the document could not be fetched, read or written
	ErrTransport = errors.New("transport failure")

	// ErrPortalNotFound indicates the requested portal is not configured or not present in a document
	ErrPortalNotFound = errors.New("portal not found")

	// ErrNotFound indicates a missing category or link
	ErrNotFound = errors.New("not found")
)

// PersistError is the structured failure reported by load, import and save.
// It matches both its Kind and its underlying cause with errors.Is.
type PersistError struct {
	Op     string // "load", "import", "save", ...
	Source string // portal name or file description
	Kind   error  // ErrInvalidFormat or ErrTransport
	Err    error
}

func (e *PersistError) Error() string {
	msg := fmt.Sprint(e.Kind)
	if e.Err != nil {
		msg = e.Err.Error()
		if !errors.Is(e.Err, e.Kind) {
			msg = fmt.Sprintf("%v: %s", e.Kind, msg)
		}
	}
	if e.Source == "" {
		return e.Op + ": " + msg
	}
	return e.Op + " " + e.Source + ": " + msg
}

func (e *PersistError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}
