package store

import (
	"context"
	"errors"
	"fmt"
	"io"

	"git.sr.ht/~jakintosh/portal/internal/domain"
)

// Load replaces every category with the document fetched under name. The
// loaded state mirrors what is persisted, so the dirty flag is cleared
// silently. On failure the store is left untouched.
//
// Overlapping loads against one store are last-write-wins; callers that
// need ordering must serialise them.
func (s *EntityStore) Load(ctx context.Context, f domain.Fetcher, name string) error {
	data, err := f.Fetch(ctx, name)
	if err != nil {
		return &domain.PersistError{Op: "load", Source: name, Kind: kindOf(err), Err: err}
	}
	cats, err := DecodeDocument(data)
	if err != nil {
		return &domain.PersistError{Op: "load", Source: name, Kind: domain.ErrInvalidFormat, Err: err}
	}
	s.categories = cats
	s.hasUnsavedChanges = false
	return nil
}

// LoadFromFile replaces the categories with a user-supplied document
// without raising a dirty event.
func (s *EntityStore) LoadFromFile(r io.Reader) error {
	cats, err := readDocument("load", r)
	if err != nil {
		return err
	}
	s.categories = cats
	s.hasUnsavedChanges = false
	return nil
}

// ImportData replaces the categories with a user-supplied document. An
// import always counts as a change, even when the content is identical.
func (s *EntityStore) ImportData(r io.Reader) error {
	cats, err := readDocument("import", r)
	if err != nil {
		return err
	}
	s.categories = cats
	s.markDirty()
	return nil
}

// Export serializes the current categories.
func (s *EntityStore) Export() ([]byte, error) {
	return EncodeDocument(s.categories)
}

// Save writes the current categories to sink under name and marks the
// store clean once the write has completed.
func (s *EntityStore) Save(ctx context.Context, sink domain.Sink, name string) error {
	data, err := s.Export()
	if err != nil {
		return &domain.PersistError{Op: "save", Source: name, Kind: domain.ErrInvalidFormat, Err: err}
	}
	if err := sink.Write(ctx, name, data); err != nil {
		return &domain.PersistError{Op: "save", Source: name, Kind: kindOf(err), Err: err}
	}
	s.MarkClean()
	return nil
}

func readDocument(op string, r io.Reader) ([]domain.Category, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &domain.PersistError{Op: op, Kind: domain.ErrTransport, Err: fmt.Errorf("failed to read file: %w", err)}
	}
	cats, err := DecodeDocument(data)
	if err != nil {
		return nil, &domain.PersistError{Op: op, Kind: domain.ErrInvalidFormat, Err: err}
	}
	return cats, nil
}

// kindOf classifies collaborator errors; anything not already a format
// problem is a transport failure.
func kindOf(err error) error {
	if errors.Is(err, domain.ErrInvalidFormat) {
		return domain.ErrInvalidFormat
	}
	return domain.ErrTransport
}
