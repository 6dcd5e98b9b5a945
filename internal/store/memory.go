package store

import (
	"slices"

	"git.sr.ht/~jakintosh/portal/internal/domain"
)

// EntityStore owns the ordered categories of one portal and tracks whether
// they have changed since the last save.
//
// It is not safe for concurrent use; callers serialise access (see
// workspace.Workspace). Every read returns a copy, so the dirty flag can
// only change through the methods below.
type EntityStore struct {
	categories        []domain.Category
	hasUnsavedChanges bool
	onDirty           func()
}

// New returns an empty store. onDirty is invoked once for every mutation
// that changes stored state; it may be nil.
func New(onDirty func()) *EntityStore {
	return &EntityStore{
		categories: []domain.Category{},
		onDirty:    onDirty,
	}
}

func (s *EntityStore) GetAll() []domain.Category {
	return domain.CloneCategories(s.categories)
}

func (s *EntityStore) GetCategory(id string) (domain.Category, bool) {
	i := s.indexOf(id)
	if i < 0 {
		return domain.Category{}, false
	}
	return s.categories[i].Clone(), true
}

// GetLink reports false when either the category or the link is missing.
func (s *EntityStore) GetLink(catID, linkID string) (domain.Link, bool) {
	i := s.indexOf(catID)
	if i < 0 {
		return domain.Link{}, false
	}
	j, ok := s.categories[i].FindLink(linkID)
	if !ok {
		return domain.Link{}, false
	}
	return s.categories[i].Links[j], true
}

func (s *EntityStore) Len() int {
	return len(s.categories)
}

func (s *EntityStore) AddCategory(title string) domain.Category {
	id := newID(categoryPrefix)
	for s.indexOf(id) >= 0 {
		id = newID(categoryPrefix)
	}
	cat := domain.Category{
		ID:     id,
		Title:  title,
		IsOpen: true,
		Links:  []domain.Link{},
	}
	s.categories = append(s.categories, cat)
	s.markDirty()
	return cat.Clone()
}

func (s *EntityStore) UpdateCategory(id, title string) bool {
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.categories[i].Title = title
	s.markDirty()
	return true
}

// SetCategoryOpen records the collapse state, which is persisted with the category.
func (s *EntityStore) SetCategoryOpen(id string, open bool) bool {
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.categories[i].IsOpen = open
	s.markDirty()
	return true
}

func (s *EntityStore) DeleteCategory(id string) bool {
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.categories = slices.Delete(s.categories, i, i+1)
	s.markDirty()
	return true
}

// MoveCategory removes the category at from and reinserts it at to in the
// shortened sequence. from must be in [0, n) and to in [0, n]. A move with
// from == to still counts as a change.
func (s *EntityStore) MoveCategory(from, to int) bool {
	moved, ok := move(s.categories, from, to)
	if !ok {
		return false
	}
	s.categories = moved
	s.markDirty()
	return true
}

func (s *EntityStore) AddLink(catID string, data domain.LinkData) (domain.Link, bool) {
	i := s.indexOf(catID)
	if i < 0 {
		return domain.Link{}, false
	}
	link := data.Link(s.newLinkID(i))
	s.categories[i].Links = append(s.categories[i].Links, link)
	s.markDirty()
	return link, true
}

func (s *EntityStore) UpdateLink(catID, linkID string, patch domain.LinkPatch) bool {
	i := s.indexOf(catID)
	if i < 0 {
		return false
	}
	j, ok := s.categories[i].FindLink(linkID)
	if !ok {
		return false
	}
	patch.Apply(&s.categories[i].Links[j])
	s.markDirty()
	return true
}

func (s *EntityStore) DeleteLink(catID, linkID string) bool {
	i := s.indexOf(catID)
	if i < 0 {
		return false
	}
	j, ok := s.categories[i].FindLink(linkID)
	if !ok {
		return false
	}
	s.categories[i].Links = slices.Delete(s.categories[i].Links, j, j+1)
	s.markDirty()
	return true
}

// MoveLink reorders the links of the category at catIndex with the same
// bounds as MoveCategory.
func (s *EntityStore) MoveLink(catIndex, from, to int) bool {
	if catIndex < 0 || catIndex >= len(s.categories) {
		return false
	}
	cat := &s.categories[catIndex]
	moved, ok := move(cat.Links, from, to)
	if !ok {
		return false
	}
	cat.Links = moved
	s.markDirty()
	return true
}

// AddBulkLinks appends the links in input order and marks the store dirty
// once, even when data is empty.
func (s *EntityStore) AddBulkLinks(catID string, data []domain.LinkData) ([]domain.Link, bool) {
	i := s.indexOf(catID)
	if i < 0 {
		return nil, false
	}
	added := make([]domain.Link, 0, len(data))
	for _, d := range data {
		link := d.Link(s.newLinkID(i))
		s.categories[i].Links = append(s.categories[i].Links, link)
		added = append(added, link)
	}
	s.markDirty()
	return added, true
}

func (s *EntityStore) Dirty() bool {
	return s.hasUnsavedChanges
}

// MarkClean clears the dirty flag without notifying.
func (s *EntityStore) MarkClean() {
	s.hasUnsavedChanges = false
}

func (s *EntityStore) markDirty() {
	s.hasUnsavedChanges = true
	if s.onDirty != nil {
		s.onDirty()
	}
}

func (s *EntityStore) indexOf(id string) int {
	for i, c := range s.categories {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func (s *EntityStore) newLinkID(catIndex int) string {
	cat := s.categories[catIndex]
	for {
		id := newID(linkPrefix)
		if _, taken := cat.FindLink(id); !taken {
			return id
		}
	}
}

// move is remove-then-insert, matching splice composition rather than a swap.
func move[T any](items []T, from, to int) ([]T, bool) {
	n := len(items)
	if from < 0 || from >= n || to < 0 || to > n {
		return items, false
	}
	item := items[from]
	items = slices.Delete(items, from, from+1)
	if to > len(items) {
		to = len(items)
	}
	return slices.Insert(items, to, item), true
}
