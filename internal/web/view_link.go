package web

import (
	"io"

	"git.sr.ht/~jakintosh/portal/internal/domain"
)

// LinkView is the view model for Link
type LinkView struct {
	CategoryID    string
	CategoryIndex int
	Index         int
	ID            string
	Title         string
	URL           string
	Icon          string
	IconGlyph     bool
	Badge         string
	Memo          string
	Last          bool // no move-down control on the final row
	DeleteButton  DeleteButtonView
}

// NewLinkView creates a LinkView from a domain Link
func NewLinkView(catID string, catIndex, index int, l domain.Link, last bool) LinkView {
	return LinkView{
		CategoryID:    catID,
		CategoryIndex: catIndex,
		Index:         index,
		ID:            l.ID,
		Title:         l.Title,
		URL:           l.URL,
		Icon:          l.Icon,
		IconGlyph:     isGlyph(l.Icon),
		Badge:         l.Badge,
		Memo:          l.Memo,
		Last:          last,
		DeleteButton: DeleteButtonView{
			URL:            "/categories/" + catID + "/links/" + l.ID + "/delete",
			ConfirmMessage: "Delete this link?",
			ButtonText:     "Delete",
		},
	}
}

// RenderLink renders a single link from its view model
func (p *Presentation) RenderLink(w io.Writer, view LinkView) error {
	return p.tmpl.ExecuteTemplate(w, "link", view)
}
