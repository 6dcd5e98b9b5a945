package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"git.sr.ht/~jakintosh/portal/internal/domain"
)

// DecodeDocument parses a portal document without touching any store.
//
// The top level must be a JSON array of categories. Category ids must be
// unique, as must link ids within a category. Null entries and entries
// with neither id nor title are rejected. Missing ids are generated and a
// null links list becomes empty.
func DecodeDocument(data []byte) ([]domain.Category, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("document is empty")
	}
	if trimmed[0] != '[' {
		return nil, fmt.Errorf("top level must be an array of categories, got %s", describeJSON(trimmed[0]))
	}

	var entries []*domain.Category
	if err := json.Unmarshal(trimmed, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse categories: %w", err)
	}
	cats := make([]domain.Category, len(entries))
	for i, c := range entries {
		switch {
		case c == nil:
			return nil, fmt.Errorf("category %d is null", i)
		case c.ID == "" && c.Title == "":
			return nil, fmt.Errorf("category %d has neither id nor title", i)
		}
		cats[i] = *c
	}
	if err := normalize(cats); err != nil {
		return nil, err
	}
	return cats, nil
}

// EncodeDocument renders categories as the canonical pretty-printed array.
func EncodeDocument(cats []domain.Category) ([]byte, error) {
	out := make([]domain.Category, len(cats))
	for i, c := range cats {
		out[i] = c.Clone()
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal categories: %w", err)
	}
	return data, nil
}

func normalize(cats []domain.Category) error {
	catIDs := make(map[string]struct{}, len(cats))
	for i := range cats {
		c := &cats[i]
		if c.ID == "" {
			c.ID = newID(categoryPrefix)
		}
		if _, dup := catIDs[c.ID]; dup {
			return fmt.Errorf("duplicate category id %q", c.ID)
		}
		catIDs[c.ID] = struct{}{}

		if c.Links == nil {
			c.Links = []domain.Link{}
		}
		linkIDs := make(map[string]struct{}, len(c.Links))
		for j := range c.Links {
			l := &c.Links[j]
			if l.ID == "" {
				l.ID = newID(linkPrefix)
			}
			if _, dup := linkIDs[l.ID]; dup {
				return fmt.Errorf("duplicate link id %q in category %q", l.ID, c.ID)
			}
			linkIDs[l.ID] = struct{}{}
		}
	}
	return nil
}

func describeJSON(b byte) string {
	switch b {
	case '{':
		return "object"
	case '"':
		return "string"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	default:
		return "scalar"
	}
}
