package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"git.sr.ht/~jakintosh/portal/internal/domain"
	"git.sr.ht/~jakintosh/portal/internal/kv"
	"git.sr.ht/~jakintosh/portal/internal/portals"
	"git.sr.ht/~jakintosh/portal/internal/store"
	"git.sr.ht/~jakintosh/portal/internal/transport"
	"git.sr.ht/~jakintosh/portal/internal/workspace"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const seedDocument = `[
  {"id": "c1", "title": "Tools", "isOpen": true, "links": [
    {"id": "l1", "title": "Grep", "url": "https://grep.app", "icon": "🔍", "badge": "", "memo": "code search"},
    {"id": "l2", "title": "Go", "url": "https://go.dev", "icon": "", "badge": "new", "memo": ""}
  ]},
  {"id": "c2", "title": "News", "isOpen": false, "links": []}
]`

type fixture struct {
	server    *Server
	workspace *workspace.Workspace
	portals   *portals.Store
	dir       *transport.DirTransport
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	dir, err := transport.NewDirTransport(t.TempDir(), nil)
	require.NoError(t, err)
	require.NoError(t, dir.Write(ctx, portals.DefaultName, []byte(seedDocument)))

	ws := workspace.New(portals.DefaultName, dir, dir, nil)
	require.NoError(t, ws.Open(ctx, portals.DefaultName))

	ps := portals.New(kv.NewMemory(), nil)
	srv, err := NewServer(ws, ps, nil)
	require.NoError(t, err)

	return &fixture{server: srv, workspace: ws, portals: ps, dir: dir}
}

func (f *fixture) do(t *testing.T, method, target string, form url.Values, htmx bool) *httptest.ResponseRecorder {
	t.Helper()
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	return rec
}

func TestIndexRendersPortal(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Tools")
	assert.Contains(t, body, "https://grep.app")
	assert.Contains(t, body, "News")
	assert.Contains(t, body, "Saved")
	// Closed categories hide their links.
	assert.NotContains(t, body, `action="/categories/c2/links"`)
}

func TestCreateCategory(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/categories", url.Values{"title": {"Reading"}}, false)
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	snap := f.workspace.Snapshot()
	require.Len(t, snap.Categories, 3)
	assert.Equal(t, "Reading", snap.Categories[2].Title)
	assert.True(t, snap.Categories[2].IsOpen)
	assert.True(t, snap.Dirty)
}

func TestCreateLinkFragment(t *testing.T) {
	f := newFixture(t)

	form := url.Values{"title": {"Docs"}, "url": {"https://pkg.go.dev"}, "badge": {"ref"}}
	rec := f.do(t, http.MethodPost, "/categories/c1/links", form, true)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `id="category-c1"`)
	assert.Contains(t, body, "https://pkg.go.dev")
	assert.Contains(t, body, `id="dirty-indicator" hx-swap-oob="true"`)
	assert.Contains(t, body, "Unsaved changes")

	cat := f.workspace.Snapshot().Categories[0]
	require.Len(t, cat.Links, 3)
	assert.Equal(t, "Docs", cat.Links[2].Title)
	assert.Equal(t, "ref", cat.Links[2].Badge)
}

func TestUpdateLinkOnlyTouchesSubmittedFields(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/categories/c1/links/l1", url.Values{"title": {"grep.app"}}, false)
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	var link domain.Link
	f.workspace.View(func(s *store.EntityStore) {
		link, _ = s.GetLink("c1", "l1")
	})
	assert.Equal(t, "grep.app", link.Title)
	assert.Equal(t, "https://grep.app", link.URL)
	assert.Equal(t, "code search", link.Memo)
}

func TestBulkLinks(t *testing.T) {
	f := newFixture(t)

	text := "A | https://a.example\nhttps://b.example\n"
	rec := f.do(t, http.MethodPost, "/categories/c2/links/bulk", url.Values{"links": {text}}, true)
	require.Equal(t, http.StatusOK, rec.Code)

	snap := f.workspace.Snapshot()
	require.Len(t, snap.Categories[1].Links, 2)
	assert.Equal(t, "A", snap.Categories[1].Links[0].Title)
	assert.Equal(t, "https://b.example", snap.Categories[1].Links[1].Title)
	assert.Equal(t, uint64(1), snap.Changes)
}

func TestToggleCategory(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/categories/c2/toggle", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, f.workspace.Snapshot().Categories[1].IsOpen)
	assert.Contains(t, rec.Body.String(), `action="/categories/c2/links"`)
}

func TestMissingEntitiesAreNoOps(t *testing.T) {
	tests := []struct {
		name   string
		method string
		target string
		form   url.Values
	}{
		{"rename category", http.MethodPost, "/categories/nope", url.Values{"title": {"x"}}},
		{"delete category", http.MethodDelete, "/categories/nope", nil},
		{"toggle category", http.MethodPost, "/categories/nope/toggle", nil},
		{"add link", http.MethodPost, "/categories/nope/links", url.Values{"url": {"https://x"}}},
		{"update link", http.MethodPost, "/categories/c1/links/nope", url.Values{"title": {"x"}}},
		{"delete link", http.MethodPost, "/categories/c1/links/nope/delete", nil},
		{"move category", http.MethodPost, "/categories/move", url.Values{"from": {"5"}, "to": {"0"}}},
		{"move link", http.MethodPost, "/links/move", url.Values{"category": {"9"}, "from": {"0"}, "to": {"1"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			before := f.workspace.Snapshot()

			rec := f.do(t, tt.method, tt.target, tt.form, true)
			assert.Equal(t, http.StatusNotFound, rec.Code)

			after := f.workspace.Snapshot()
			assert.Equal(t, before.Categories, after.Categories)
			assert.False(t, after.Dirty)
			assert.Zero(t, after.Changes)
		})
	}
}

func TestMoves(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/categories/move", url.Values{"from": {"0"}, "to": {"2"}}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "true", rec.Header().Get("HX-Refresh"))

	snap := f.workspace.Snapshot()
	assert.Equal(t, "c2", snap.Categories[0].ID)
	assert.Equal(t, "c1", snap.Categories[1].ID)

	rec = f.do(t, http.MethodPost, "/links/move", url.Values{"category": {"1"}, "from": {"1"}, "to": {"0"}}, false)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	snap = f.workspace.Snapshot()
	assert.Equal(t, "l2", snap.Categories[1].Links[0].ID)
	assert.Equal(t, "l1", snap.Categories[1].Links[1].ID)

	rec = f.do(t, http.MethodPost, "/links/move", url.Values{"category": {"1"}, "from": {"x"}, "to": {"0"}}, false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteCategory(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/categories/c1/delete", nil, false)
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	snap := f.workspace.Snapshot()
	require.Len(t, snap.Categories, 1)
	assert.Equal(t, "c2", snap.Categories[0].ID)
}

func TestSearch(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/search?q=grep", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "https://grep.app")
	assert.NotContains(t, body, "https://go.dev")
	assert.NotContains(t, body, "<html")

	rec = f.do(t, http.MethodGet, "/search?q=zzzzzz", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No links match")
}

func TestState(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/categories", url.Values{"title": {"X"}}, false)

	rec := f.do(t, http.MethodGet, "/state", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)

	var got stateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, stateResponse{Portal: portals.DefaultName, Dirty: true, Changes: 1}, got)
}

func TestExportMarksClean(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/categories", url.Values{"title": {"Later"}}, false)
	require.True(t, f.workspace.Snapshot().Dirty)

	rec := f.do(t, http.MethodGet, "/export", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="default.json"`)

	cats, err := store.DecodeDocument(rec.Body.Bytes())
	require.NoError(t, err)
	require.Len(t, cats, 3)
	assert.Equal(t, "Later", cats[2].Title)
	assert.False(t, f.workspace.Snapshot().Dirty)
}

func TestSaveWritesDocument(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/categories/c2", url.Values{"title": {"Headlines"}}, false)

	rec := f.do(t, http.MethodPost, "/save", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Saved")
	assert.False(t, f.workspace.Snapshot().Dirty)

	data, err := f.dir.Fetch(context.Background(), portals.DefaultName)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Headlines")
}

func multipartImport(t *testing.T, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "portal.json")
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestImport(t *testing.T) {
	f := newFixture(t)

	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, multipartImport(t, `[{"id": "n1", "title": "Imported", "isOpen": true, "links": []}]`))
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	snap := f.workspace.Snapshot()
	require.Len(t, snap.Categories, 1)
	assert.Equal(t, "Imported", snap.Categories[0].Title)
	assert.True(t, snap.Dirty)
}

func TestImportInvalidKeepsState(t *testing.T) {
	f := newFixture(t)
	before := f.workspace.Snapshot()

	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, multipartImport(t, `{"not": "an array"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `role="alert"`)

	after := f.workspace.Snapshot()
	assert.Equal(t, before.Categories, after.Categories)
	assert.False(t, after.Dirty)
}

func TestAddAndOpenPortal(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/portals", url.Values{"name": {"work"}, "title": {"Work"}}, false)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	snap := f.workspace.Snapshot()
	assert.Equal(t, "work", snap.Portal)
	assert.Empty(t, snap.Categories)
	active, err := f.portals.Active()
	require.NoError(t, err)
	assert.Equal(t, "work", active.Name)

	rec = f.do(t, http.MethodPost, "/portals/"+portals.DefaultName+"/open", nil, false)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	snap = f.workspace.Snapshot()
	assert.Equal(t, portals.DefaultName, snap.Portal)
	assert.Len(t, snap.Categories, 2)

	rec = f.do(t, http.MethodPost, "/portals", url.Values{"name": {"work"}}, true)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestOpenUnknownPortal(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/portals/ghost/open", nil, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, portals.DefaultName, f.workspace.Portal())
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&domain.PersistError{Op: "import", Kind: domain.ErrInvalidFormat, Err: errors.New("bad")}, http.StatusBadRequest},
		{&domain.PersistError{Op: "load", Kind: domain.ErrTransport, Err: errors.New("down")}, http.StatusBadGateway},
		{fmt.Errorf("%w: missing", domain.ErrPortalNotFound), http.StatusNotFound},
		{fmt.Errorf("read: %w", fs.ErrNotExist), http.StatusNotFound},
		{categoryNotFound("c9"), http.StatusNotFound},
		{fmt.Errorf("%w: work", portals.ErrPortalExists), http.StatusConflict},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestUpdateLinkFragment(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/categories/c1/links/l2", url.Values{"memo": {"the language"}}, true)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `id="link-l2"`)
	assert.Contains(t, body, "the language")
	assert.NotContains(t, body, `id="category-c1"`)
	assert.Contains(t, body, `id="dirty-indicator" hx-swap-oob="true"`)
}

func TestLastRowsHaveNoMoveDown(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/categories/c2/toggle", nil, false)

	rec := f.do(t, http.MethodGet, "/", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	// c1 and l1 can move down to position 1; c2 and l2 are last.
	assert.Equal(t, 2, strings.Count(body, `value="1" title="Move down"`))
	assert.NotContains(t, body, `value="2" title="Move down"`)
}

type unreachable struct{}

func (unreachable) Fetch(context.Context, string) ([]byte, error) {
	return nil, fmt.Errorf("%w: connection refused", domain.ErrTransport)
}

func TestAddPortalRollsBackWhenOpenFails(t *testing.T) {
	f := newFixture(t)
	ws := workspace.New(portals.DefaultName, unreachable{}, f.dir, nil)
	srv, err := NewServer(ws, f.portals, nil)
	require.NoError(t, err)
	f.server, f.workspace = srv, ws

	rec := f.do(t, http.MethodPost, "/portals", url.Values{"name": {"work"}}, true)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	_, err = f.portals.Get("work")
	assert.ErrorIs(t, err, domain.ErrPortalNotFound)
	active, err := f.portals.Active()
	require.NoError(t, err)
	assert.Equal(t, portals.DefaultName, active.Name)
	assert.Equal(t, portals.DefaultName, ws.Portal())
}
