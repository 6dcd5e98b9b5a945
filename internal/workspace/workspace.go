package workspace

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"sync"

	"go.uber.org/zap"

	"git.sr.ht/~jakintosh/portal/internal/domain"
	"git.sr.ht/~jakintosh/portal/internal/store"
	"git.sr.ht/~jakintosh/portal/internal/transport"
)

// Workspace is the single owner of the active portal's EntityStore. Every
// call into the store goes through its lock, so concurrent callers (HTTP
// handlers) observe the single-threaded store they expect. Overlapping
// Open calls are serialised; the last one to finish wins.
type Workspace struct {
	mu      sync.Mutex
	store   *store.EntityStore
	portal  string
	fetcher domain.Fetcher
	sink    domain.Sink
	logger  *zap.Logger

	changes uint64 // dirty events since construction
}

// New creates a workspace for portal without loading it. Fetcher and sink
// may be the same value.
func New(portal string, fetcher domain.Fetcher, sink domain.Sink, logger *zap.Logger) *Workspace {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Workspace{
		portal:  portal,
		fetcher: fetcher,
		sink:    sink,
		logger:  logger,
	}
	w.store = store.New(w.onDirty)
	return w
}

// onDirty runs with w.mu held, from inside a store mutation.
func (w *Workspace) onDirty() {
	w.changes++
	w.logger.Debug("Portal has unsaved changes", zap.String("portal", w.portal), zap.Uint64("changes", w.changes))
}

// Open loads portal into the store. On failure both the previous state and
// the previous portal are kept.
func (w *Workspace) Open(ctx context.Context, portal string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.store.Load(ctx, w.fetcher, portal); err != nil {
		w.logger.Warn("Failed to load portal", zap.String("portal", portal), zap.Error(err))
		return err
	}
	w.portal = portal
	w.logger.Info("Loaded portal", zap.String("portal", portal), zap.Int("categories", w.store.Len()))
	return nil
}

// OpenOrCreate opens portal, starting it empty when it has no document
// yet. created reports the latter.
func (w *Workspace) OpenOrCreate(ctx context.Context, portal string) (created bool, err error) {
	err = w.Open(ctx, portal)
	if err == nil || !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.store.Load(ctx, emptyDocument{}, portal); err != nil {
		return false, err
	}
	w.portal = portal
	w.logger.Info("Started empty portal", zap.String("portal", portal))
	return true, nil
}

// emptyDocument fetches a portal with no categories.
type emptyDocument struct{}

func (emptyDocument) Fetch(context.Context, string) ([]byte, error) {
	return []byte("[]"), nil
}

// Save writes the active portal through the sink.
func (w *Workspace) Save(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.store.Save(ctx, w.sink, w.portal); err != nil {
		w.logger.Error("Failed to save portal", zap.String("portal", w.portal), zap.Error(err))
		return err
	}
	return nil
}

// Download writes the export to out and counts as a completed save once
// the write has succeeded. The lock is not held while writing, so edits
// made during a slow download keep the store dirty.
func (w *Workspace) Download(ctx context.Context, out io.Writer) error {
	w.mu.Lock()
	portal, changes := w.portal, w.changes
	data, err := w.store.Export()
	w.mu.Unlock()
	if err != nil {
		return &domain.PersistError{Op: "export", Source: portal, Kind: domain.ErrInvalidFormat, Err: err}
	}

	if err := (transport.WriterSink{W: out}).Write(ctx, portal, data); err != nil {
		w.logger.Warn("Download interrupted", zap.String("portal", portal), zap.Error(err))
		return &domain.PersistError{Op: "export", Source: portal, Kind: domain.ErrTransport, Err: err}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.portal == portal && w.changes == changes {
		w.store.MarkClean()
	}
	return nil
}

// Import replaces the active portal's content with a user-supplied document.
func (w *Workspace) Import(r io.Reader) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.store.ImportData(r); err != nil {
		w.logger.Warn("Rejected import", zap.String("portal", w.portal), zap.Error(err))
		return err
	}
	w.logger.Info("Imported portal document", zap.String("portal", w.portal), zap.Int("categories", w.store.Len()))
	return nil
}

// Update runs fn against the store under the workspace lock.
func (w *Workspace) Update(fn func(s *store.EntityStore)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fn(w.store)
}

// View runs a read-only fn against the store under the workspace lock.
// fn must not mutate.
func (w *Workspace) View(fn func(s *store.EntityStore)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fn(w.store)
}

// Snapshot is a consistent read of the workspace.
type Snapshot struct {
	Portal     string
	Categories []domain.Category
	Dirty      bool
	Changes    uint64
}

func (w *Workspace) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Snapshot{
		Portal:     w.portal,
		Categories: w.store.GetAll(),
		Dirty:      w.store.Dirty(),
		Changes:    w.changes,
	}
}

func (w *Workspace) Portal() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.portal
}
