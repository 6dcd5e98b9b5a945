package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"git.sr.ht/~jakintosh/portal/internal/domain"
)

// legacyDocument is the older multi-portal file shape:
//
//	{"portals": {"<name>": [ ...categories ]}}
type legacyDocument struct {
	Portals map[string]json.RawMessage `json:"portals"`
}

// Legacy wraps a Fetcher and converts legacy multi-portal documents to
// the canonical array by selecting the sub-collection for the requested
// portal. Array documents pass through untouched.
type Legacy struct {
	Next domain.Fetcher
}

func (l Legacy) Fetch(ctx context.Context, name string) ([]byte, error) {
	data, err := l.Next.Fetch(ctx, name)
	if err != nil {
		return nil, err
	}
	return SelectPortal(data, name)
}

// SelectPortal returns the canonical document for name out of data.
func SelectPortal(data []byte, name string) ([]byte, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return data, nil
	}

	var doc legacyDocument
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("%w: failed to parse legacy document: %w", domain.ErrInvalidFormat, err)
	}
	if doc.Portals == nil {
		return nil, fmt.Errorf("%w: object document has no \"portals\" collection", domain.ErrInvalidFormat)
	}
	sub, ok := doc.Portals[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q is not in the legacy document", domain.ErrPortalNotFound, name)
	}
	return sub, nil
}
