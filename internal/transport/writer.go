package transport

import (
	"context"
	"fmt"
	"io"

	"git.sr.ht/~jakintosh/portal/internal/domain"
)

// WriterSink hands a document to any writer, e.g. a download response.
type WriterSink struct {
	W io.Writer
}

func (s WriterSink) Write(_ context.Context, _ string, data []byte) error {
	if _, err := s.W.Write(data); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrTransport, err)
	}
	return nil
}
