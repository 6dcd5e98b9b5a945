package web

import (
	"io"

	"git.sr.ht/~jakintosh/portal/internal/domain"
)

// CategoryView is the view model for Category
type CategoryView struct {
	ID           string
	Index        int
	Title        string
	IsOpen       bool
	Links        []LinkView
	LinkCount    int
	Last         bool
	DeleteButton DeleteButtonView
}

// NewCategoryView creates a CategoryView from a domain Category. last
// marks the final category of the portal.
func NewCategoryView(c domain.Category, index int, last bool) CategoryView {
	view := CategoryView{
		ID:        c.ID,
		Index:     index,
		Title:     c.Title,
		IsOpen:    c.IsOpen,
		LinkCount: len(c.Links),
		Last:      last,
		DeleteButton: DeleteButtonView{
			URL:            "/categories/" + c.ID + "/delete",
			ConfirmMessage: "Delete this category and all its links?",
			ButtonText:     "Delete Category",
		},
	}
	if len(c.Links) > 0 {
		view.Links = make([]LinkView, len(c.Links))
		for i, l := range c.Links {
			view.Links[i] = NewLinkView(c.ID, index, i, l, i == len(c.Links)-1)
		}
	}
	return view
}

func NewCategoryViews(cats []domain.Category) []CategoryView {
	views := make([]CategoryView, len(cats))
	for i, c := range cats {
		views[i] = NewCategoryView(c, i, i == len(cats)-1)
	}
	return views
}

// RenderCategory renders a single category from its view model
func (p *Presentation) RenderCategory(w io.Writer, view CategoryView) error {
	return p.tmpl.ExecuteTemplate(w, "category", view)
}
