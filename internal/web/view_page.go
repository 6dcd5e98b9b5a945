package web

import (
	"io"

	"git.sr.ht/~jakintosh/portal/internal/portals"
	"git.sr.ht/~jakintosh/portal/internal/search"
	"git.sr.ht/~jakintosh/portal/internal/workspace"
)

// PortalView is one entry of the portal switcher
type PortalView struct {
	Name   string
	Title  string
	Active bool
}

// SearchResultView is one matched link
type SearchResultView struct {
	CategoryTitle string
	Link          LinkView
}

// StatusView drives the unsaved-changes marker
type StatusView struct {
	Dirty bool
	OOB   bool
}

type PageView struct {
	Portal     PortalView
	Portals    []PortalView
	Categories []CategoryView
	Status     StatusView
	Error      string
	Query      string
	Results    []SearchResultView
}

func NewPageView(snap workspace.Snapshot, list []portals.Portal) PageView {
	view := PageView{
		Portal:     PortalView{Name: snap.Portal, Title: snap.Portal, Active: true},
		Categories: NewCategoryViews(snap.Categories),
		Status:     StatusView{Dirty: snap.Dirty},
	}
	for _, p := range list {
		pv := PortalView{Name: p.Name, Title: p.DisplayTitle(), Active: p.Name == snap.Portal}
		if pv.Active {
			view.Portal = pv
		}
		view.Portals = append(view.Portals, pv)
	}
	return view
}

func NewSearchResultViews(results []search.Result) []SearchResultView {
	views := make([]SearchResultView, len(results))
	for i, r := range results {
		views[i] = SearchResultView{
			CategoryTitle: r.CategoryTitle,
			Link:          NewLinkView(r.CategoryID, -1, -1, r.Link, true),
		}
	}
	return views
}

func (p *Presentation) RenderIndex(w io.Writer, view PageView) error {
	return p.tmpl.ExecuteTemplate(w, "layout.html", view)
}

func (p *Presentation) RenderSearchResults(w io.Writer, view PageView) error {
	return p.tmpl.ExecuteTemplate(w, "search_results", view)
}

// RenderDirtyIndicator renders the out-of-band unsaved-changes marker
func (p *Presentation) RenderDirtyIndicator(w io.Writer, dirty bool) error {
	return p.tmpl.ExecuteTemplate(w, "dirty_indicator", StatusView{Dirty: dirty, OOB: true})
}
