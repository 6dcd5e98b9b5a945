package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"git.sr.ht/~jakintosh/portal/internal/domain"
	"git.sr.ht/~jakintosh/portal/internal/search"
	"git.sr.ht/~jakintosh/portal/internal/store"
)

const maxImportSize = 16 << 20

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	view, err := s.pageView()
	if err != nil {
		http.Error(w, "Failed to load portals", http.StatusInternalServerError)
		return
	}
	if err := s.presentation.RenderIndex(w, view); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := parseRequestContext(r)
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	view, err := s.pageView()
	if err != nil {
		http.Error(w, "Failed to load portals", http.StatusInternalServerError)
		return
	}
	view.Query = query
	view.Results = NewSearchResultViews(search.Links(s.workspace.Snapshot().Categories, query))

	if ctx.Fragment() {
		err = s.presentation.RenderSearchResults(w, view)
	} else {
		err = s.presentation.RenderIndex(w, view)
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// stateResponse is the JSON body of GET /state.
type stateResponse struct {
	Portal  string `json:"portal"`
	Dirty   bool   `json:"dirty"`
	Changes uint64 `json:"changes"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	snap := s.workspace.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(stateResponse{
		Portal:  snap.Portal,
		Dirty:   snap.Dirty,
		Changes: snap.Changes,
	}); err != nil {
		s.logger.Error("Failed to encode state", zap.Error(err))
	}
}

// Categories

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var cat domain.Category
	s.workspace.Update(func(st *store.EntityStore) {
		cat = st.AddCategory(strings.TrimSpace(r.FormValue("title")))
	})
	s.renderCategory(w, r, cat.ID)
}

func (s *Server) handleRenameCategory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var ok bool
	s.workspace.Update(func(st *store.EntityStore) {
		ok = st.UpdateCategory(id, strings.TrimSpace(r.FormValue("title")))
	})
	if !ok {
		s.fail(w, r, categoryNotFound(id))
		return
	}
	s.renderCategory(w, r, id)
}

func (s *Server) handleToggleCategory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var ok bool
	s.workspace.Update(func(st *store.EntityStore) {
		cat, found := st.GetCategory(id)
		if !found {
			return
		}
		ok = st.SetCategoryOpen(id, !cat.IsOpen)
	})
	if !ok {
		s.fail(w, r, categoryNotFound(id))
		return
	}
	s.renderCategory(w, r, id)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var ok bool
	s.workspace.Update(func(st *store.EntityStore) {
		ok = st.DeleteCategory(id)
	})
	if !ok {
		s.fail(w, r, categoryNotFound(id))
		return
	}
	s.done(w, r)
}

func (s *Server) handleMoveCategory(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseMove(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var ok bool
	s.workspace.Update(func(st *store.EntityStore) {
		ok = st.MoveCategory(from, to)
	})
	if !ok {
		s.fail(w, r, fmt.Errorf("%w: category position %d", domain.ErrNotFound, from))
		return
	}
	s.done(w, r)
}

// Links

func (s *Server) handleCreateLink(w http.ResponseWriter, r *http.Request) {
	catID := chi.URLParam(r, "id")
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	data := domain.LinkData{
		Title: strings.TrimSpace(r.FormValue("title")),
		URL:   strings.TrimSpace(r.FormValue("url")),
		Icon:  strings.TrimSpace(r.FormValue("icon")),
		Badge: strings.TrimSpace(r.FormValue("badge")),
		Memo:  strings.TrimSpace(r.FormValue("memo")),
	}
	var ok bool
	s.workspace.Update(func(st *store.EntityStore) {
		_, ok = st.AddLink(catID, data)
	})
	if !ok {
		s.fail(w, r, categoryNotFound(catID))
		return
	}
	s.renderCategory(w, r, catID)
}

func (s *Server) handleBulkLinks(w http.ResponseWriter, r *http.Request) {
	catID := chi.URLParam(r, "id")
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	data := ParseBulkLinks(r.FormValue("links"))
	var ok bool
	s.workspace.Update(func(st *store.EntityStore) {
		_, ok = st.AddBulkLinks(catID, data)
	})
	if !ok {
		s.fail(w, r, categoryNotFound(catID))
		return
	}
	s.renderCategory(w, r, catID)
}

func (s *Server) handleUpdateLink(w http.ResponseWriter, r *http.Request) {
	catID := chi.URLParam(r, "id")
	linkID := chi.URLParam(r, "linkID")
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	patch := linkPatchFromForm(r)
	var ok bool
	s.workspace.Update(func(st *store.EntityStore) {
		ok = st.UpdateLink(catID, linkID, patch)
	})
	if !ok {
		s.fail(w, r, linkNotFound(catID, linkID))
		return
	}
	s.renderLink(w, r, catID, linkID)
}

func (s *Server) handleDeleteLink(w http.ResponseWriter, r *http.Request) {
	catID := chi.URLParam(r, "id")
	linkID := chi.URLParam(r, "linkID")
	var ok bool
	s.workspace.Update(func(st *store.EntityStore) {
		ok = st.DeleteLink(catID, linkID)
	})
	if !ok {
		s.fail(w, r, linkNotFound(catID, linkID))
		return
	}
	s.renderCategory(w, r, catID)
}

func (s *Server) handleMoveLink(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseMove(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	catIndex, err := strconv.Atoi(r.FormValue("category"))
	if err != nil {
		http.Error(w, "Invalid category index", http.StatusBadRequest)
		return
	}
	var ok bool
	s.workspace.Update(func(st *store.EntityStore) {
		ok = st.MoveLink(catIndex, from, to)
	})
	if !ok {
		s.fail(w, r, fmt.Errorf("%w: link position %d in category %d", domain.ErrNotFound, from, catIndex))
		return
	}
	s.done(w, r)
}

// Persistence

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.json"`, s.workspace.Portal()))
	err := s.workspace.Download(r.Context(), w)
	if err == nil || errors.Is(err, domain.ErrTransport) {
		// a failed write means the client went away mid-download
		return
	}
	w.Header().Del("Content-Disposition")
	s.fail(w, r, err)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Missing file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if err := s.workspace.Import(file); err != nil {
		s.fail(w, r, err)
		return
	}
	s.done(w, r)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if err := s.workspace.Save(r.Context()); err != nil {
		s.fail(w, r, err)
		return
	}
	if parseRequestContext(r).Fragment() {
		if err := s.presentation.RenderDirtyIndicator(w, false); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Portals

func (s *Server) handleAddPortal(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	name := strings.TrimSpace(r.FormValue("name"))
	if _, err := s.portals.Add(name, strings.TrimSpace(r.FormValue("title"))); err != nil {
		s.fail(w, r, err)
		return
	}
	if _, err := s.workspace.OpenOrCreate(r.Context(), name); err != nil {
		// a portal that cannot be opened is not kept
		if rerr := s.portals.Remove(name); rerr != nil {
			s.logger.Error("Failed to roll back portal", zap.String("portal", name), zap.Error(rerr))
		}
		s.fail(w, r, err)
		return
	}
	if err := s.portals.SetActive(name); err != nil {
		s.fail(w, r, err)
		return
	}
	s.done(w, r)
}

func (s *Server) handleOpenPortal(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if _, err := s.portals.Get(name); err != nil {
		s.fail(w, r, err)
		return
	}
	s.openPortal(w, r, name)
}

// openPortal switches the workspace to name. Unsaved changes in the
// current portal are discarded; the previous portal stays open on failure.
func (s *Server) openPortal(w http.ResponseWriter, r *http.Request, name string) {
	if _, err := s.workspace.OpenOrCreate(r.Context(), name); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.portals.SetActive(name); err != nil {
		s.fail(w, r, err)
		return
	}
	s.done(w, r)
}

// renderCategory answers a category mutation with the category fragment
// and an out-of-band dirty indicator, or a redirect for full page requests.
func (s *Server) renderCategory(w http.ResponseWriter, r *http.Request, id string) {
	if !parseRequestContext(r).Fragment() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	var (
		view  CategoryView
		dirty bool
		found bool
	)
	s.workspace.View(func(st *store.EntityStore) {
		cats := st.GetAll()
		for i, c := range cats {
			if c.ID == id {
				view, found = NewCategoryView(c, i, i == len(cats)-1), true
				break
			}
		}
		dirty = st.Dirty()
	})
	if !found {
		s.fail(w, r, categoryNotFound(id))
		return
	}
	if err := s.presentation.RenderCategory(w, view); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.renderDirty(w, dirty)
}

// renderLink answers a link edit with just that link's row.
func (s *Server) renderLink(w http.ResponseWriter, r *http.Request, catID, linkID string) {
	if !parseRequestContext(r).Fragment() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	var (
		view  LinkView
		dirty bool
		found bool
	)
	s.workspace.View(func(st *store.EntityStore) {
		for i, c := range st.GetAll() {
			if c.ID != catID {
				continue
			}
			if j, ok := c.FindLink(linkID); ok {
				view, found = NewLinkView(c.ID, i, j, c.Links[j], j == len(c.Links)-1), true
			}
			break
		}
		dirty = st.Dirty()
	})
	if !found {
		s.fail(w, r, linkNotFound(catID, linkID))
		return
	}
	if err := s.presentation.RenderLink(w, view); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.renderDirty(w, dirty)
}

func (s *Server) renderDirty(w http.ResponseWriter, dirty bool) {
	if err := s.presentation.RenderDirtyIndicator(w, dirty); err != nil {
		s.logger.Error("Failed to render dirty indicator", zap.Error(err))
	}
}

func parseMove(r *http.Request) (from, to int, err error) {
	if err := r.ParseForm(); err != nil {
		return 0, 0, err
	}
	if from, err = strconv.Atoi(r.FormValue("from")); err != nil {
		return 0, 0, fmt.Errorf("invalid from index: %w", err)
	}
	if to, err = strconv.Atoi(r.FormValue("to")); err != nil {
		return 0, 0, fmt.Errorf("invalid to index: %w", err)
	}
	return from, to, nil
}

// linkPatchFromForm only patches fields present in the form, so a form
// that edits the title alone leaves the rest of the link untouched.
func linkPatchFromForm(r *http.Request) domain.LinkPatch {
	field := func(key string) *string {
		vals, ok := r.PostForm[key]
		if !ok || len(vals) == 0 {
			return nil
		}
		v := strings.TrimSpace(vals[0])
		return &v
	}
	return domain.LinkPatch{
		Title: field("title"),
		URL:   field("url"),
		Icon:  field("icon"),
		Badge: field("badge"),
		Memo:  field("memo"),
	}
}

func categoryNotFound(id string) error {
	return fmt.Errorf("%w: category %s", domain.ErrNotFound, id)
}

func linkNotFound(catID, linkID string) error {
	return fmt.Errorf("%w: link %s in category %s", domain.ErrNotFound, linkID, catID)
}
