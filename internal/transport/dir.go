package transport

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"git.sr.ht/~jakintosh/portal/internal/domain"
)

// DirTransport reads and writes portal documents as <Dir>/<name>.json.
type DirTransport struct {
	// Dir is the directory holding one JSON document per portal.
	Dir    string
	Logger *zap.Logger
}

// NewDirTransport creates a DirTransport, ensuring the directory exists.
func NewDirTransport(dir string, logger *zap.Logger) (*DirTransport, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory '%s': %w", dir, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirTransport{Dir: dir, Logger: logger}, nil
}

func (d *DirTransport) path(name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	return filepath.Join(d.Dir, name+".json"), nil
}

func (d *DirTransport) Fetch(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrTransport, err)
	}
	p, err := d.path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: portal %s has no document: %w", domain.ErrTransport, name, err)
		}
		return nil, fmt.Errorf("%w: failed to read %s: %w", domain.ErrTransport, p, err)
	}
	d.logger().Debug("Fetched document", zap.String("portal", name), zap.Int("bytes", len(data)))
	return data, nil
}

// Write replaces the document atomically via a temp file and rename.
func (d *DirTransport) Write(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrTransport, err)
	}
	p, err := d.path(name)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(d.Dir, "."+name+"-*.json")
	if err != nil {
		return fmt.Errorf("%w: failed to create temp file: %w", domain.ErrTransport, err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: failed to write %s: %w", domain.ErrTransport, tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: failed to close %s: %w", domain.ErrTransport, tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("%w: failed to replace %s: %w", domain.ErrTransport, p, err)
	}
	d.logger().Info("Saved document", zap.String("portal", name), zap.String("path", p))
	return nil
}

func (d *DirTransport) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

// ValidateName rejects portal names that cannot be used as a file name.
func ValidateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("%w: portal name cannot be empty", domain.ErrTransport)
	case name == "." || name == "..", strings.ContainsAny(name, `/\`):
		return fmt.Errorf("%w: invalid portal name %q", domain.ErrTransport, name)
	}
	return nil
}
