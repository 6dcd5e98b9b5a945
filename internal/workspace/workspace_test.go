package workspace

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.sr.ht/~jakintosh/portal/internal/domain"
	"git.sr.ht/~jakintosh/portal/internal/store"
	"git.sr.ht/~jakintosh/portal/internal/transport"
)

func newWorkspace(t *testing.T) (*Workspace, *transport.DirTransport) {
	t.Helper()
	dir, err := transport.NewDirTransport(t.TempDir(), nil)
	require.NoError(t, err)
	return New("home", dir, dir, nil), dir
}

func TestOpenSaveCycle(t *testing.T) {
	ctx := context.Background()
	w, dir := newWorkspace(t)
	require.NoError(t, dir.Write(ctx, "work", []byte(`[{"id": "c1", "title": "Tools", "isOpen": true, "links": []}]`)))

	require.NoError(t, w.Open(ctx, "work"))
	snap := w.Snapshot()
	assert.Equal(t, "work", snap.Portal)
	assert.False(t, snap.Dirty)
	require.Len(t, snap.Categories, 1)

	w.Update(func(s *store.EntityStore) {
		s.AddLink("c1", domain.LinkData{Title: "Grep", URL: "https://grep.app"})
	})
	snap = w.Snapshot()
	assert.True(t, snap.Dirty)
	assert.Equal(t, uint64(1), snap.Changes)

	require.NoError(t, w.Save(ctx))
	assert.False(t, w.Snapshot().Dirty)

	data, err := dir.Fetch(ctx, "work")
	require.NoError(t, err)
	assert.Contains(t, string(data), "https://grep.app")
}

func TestOpenFailureKeepsPortalAndState(t *testing.T) {
	ctx := context.Background()
	w, _ := newWorkspace(t)
	w.Update(func(s *store.EntityStore) { s.AddCategory("pending") })

	err := w.Open(ctx, "absent")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransport)

	snap := w.Snapshot()
	assert.Equal(t, "home", snap.Portal)
	assert.Len(t, snap.Categories, 1)
	assert.True(t, snap.Dirty)
}

func TestDownloadMarksClean(t *testing.T) {
	w, _ := newWorkspace(t)
	w.Update(func(s *store.EntityStore) { s.AddCategory("A") })

	var buf bytes.Buffer
	require.NoError(t, w.Download(context.Background(), &buf))
	assert.True(t, strings.HasPrefix(buf.String(), "["))
	assert.Contains(t, buf.String(), `"title": "A"`)
	assert.False(t, w.Snapshot().Dirty)
}

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestDownloadFailureKeepsDirty(t *testing.T) {
	w, _ := newWorkspace(t)
	w.Update(func(s *store.EntityStore) { s.AddCategory("A") })

	err := w.Download(context.Background(), brokenWriter{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.True(t, w.Snapshot().Dirty)
}

func TestImport(t *testing.T) {
	w, _ := newWorkspace(t)

	require.NoError(t, w.Import(strings.NewReader(`[{"id": "x", "title": "X"}]`)))
	snap := w.Snapshot()
	assert.True(t, snap.Dirty)
	assert.Equal(t, "X", snap.Categories[0].Title)

	err := w.Import(strings.NewReader(`{}`))
	assert.ErrorIs(t, err, domain.ErrInvalidFormat)
	assert.Equal(t, "X", w.Snapshot().Categories[0].Title)
}

func TestConcurrentUpdatesAreSerialised(t *testing.T) {
	w, _ := newWorkspace(t)
	var catID string
	w.Update(func(s *store.EntityStore) { catID = s.AddCategory("c").ID })

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Update(func(s *store.EntityStore) {
				s.AddLink(catID, domain.LinkData{Title: "l"})
			})
		}()
	}
	wg.Wait()

	snap := w.Snapshot()
	assert.Len(t, snap.Categories[0].Links, 50)
	assert.Equal(t, uint64(51), snap.Changes)
}

func TestOpenOrCreate(t *testing.T) {
	ctx := context.Background()
	w, dir := newWorkspace(t)
	w.Update(func(s *store.EntityStore) { s.AddCategory("discarded") })

	created, err := w.OpenOrCreate(ctx, "fresh")
	require.NoError(t, err)
	assert.True(t, created)
	snap := w.Snapshot()
	assert.Equal(t, "fresh", snap.Portal)
	assert.Empty(t, snap.Categories)
	assert.False(t, snap.Dirty)

	require.NoError(t, dir.Write(ctx, "existing", []byte(`[{"id": "a"}]`)))
	created, err = w.OpenOrCreate(ctx, "existing")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Len(t, w.Snapshot().Categories, 1)

	require.NoError(t, dir.Write(ctx, "broken", []byte(`{`)))
	_, err = w.OpenOrCreate(ctx, "broken")
	assert.ErrorIs(t, err, domain.ErrInvalidFormat)
	assert.Equal(t, "existing", w.Portal())
}

func TestOpenOrCreateOverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/published.json" {
			w.Write([]byte(`[{"id": "p", "title": "Published"}]`))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	ctx := context.Background()
	dir, err := transport.NewDirTransport(t.TempDir(), nil)
	require.NoError(t, err)
	w := New("default", transport.Legacy{Next: transport.NewHTTPTransport(srv.URL)}, dir, nil)

	created, err := w.OpenOrCreate(ctx, "fresh")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "fresh", w.Portal())
	assert.Empty(t, w.Snapshot().Categories)

	created, err = w.OpenOrCreate(ctx, "published")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "Published", w.Snapshot().Categories[0].Title)
}
