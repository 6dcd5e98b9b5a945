package portals

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"git.sr.ht/~jakintosh/portal/internal/domain"
	"git.sr.ht/~jakintosh/portal/internal/transport"
)

const (
	keyPortals = "portals"
	keyActive  = "active"

	// DefaultName is the portal seeded into an empty configuration.
	DefaultName = "default"
)

var ErrPortalExists = errors.New("portal already exists")

// Portal is a named collection of categories the user can switch to.
// Name doubles as the document key handed to the transport.
type Portal struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

// DisplayTitle falls back to the name when no title was set.
func (p Portal) DisplayTitle() string {
	if p.Title == "" {
		return p.Name
	}
	return p.Title
}

// Store keeps the portal list, the active portal and per-portal titles in
// a KeyValueStore.
type Store struct {
	kv     domain.KeyValueStore
	logger *zap.Logger
}

func New(kv domain.KeyValueStore, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{kv: kv, logger: logger}
}

// List returns the configured portals in insertion order, seeding the
// default portal on first use.
func (s *Store) List() ([]Portal, error) {
	raw, ok, err := s.kv.Get(keyPortals)
	if err != nil {
		return nil, fmt.Errorf("failed to read portal list: %w", err)
	}
	if !ok {
		seed := []Portal{{Name: DefaultName, Title: "Default"}}
		if err := s.write(seed); err != nil {
			return nil, err
		}
		if err := s.kv.Set(keyActive, DefaultName); err != nil {
			return nil, fmt.Errorf("failed to store active portal: %w", err)
		}
		s.logger.Info("Seeded default portal")
		return seed, nil
	}

	var list []Portal
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("failed to parse portal list: %w", err)
	}
	return list, nil
}

func (s *Store) Get(name string) (Portal, error) {
	list, err := s.List()
	if err != nil {
		return Portal{}, err
	}
	i := indexOf(list, name)
	if i < 0 {
		return Portal{}, fmt.Errorf("%w: %s", domain.ErrPortalNotFound, name)
	}
	return list[i], nil
}

// Add appends a portal. The first portal in an empty list becomes active.
func (s *Store) Add(name, title string) (Portal, error) {
	if err := transport.ValidateName(name); err != nil {
		return Portal{}, err
	}
	list, err := s.List()
	if err != nil {
		return Portal{}, err
	}
	if indexOf(list, name) >= 0 {
		return Portal{}, fmt.Errorf("%w: %s", ErrPortalExists, name)
	}

	p := Portal{Name: name, Title: title}
	list = append(list, p)
	if err := s.write(list); err != nil {
		return Portal{}, err
	}
	if len(list) == 1 {
		if err := s.kv.Set(keyActive, name); err != nil {
			return Portal{}, fmt.Errorf("failed to store active portal: %w", err)
		}
	}
	s.logger.Info("Added portal", zap.String("portal", name))
	return p, nil
}

// Remove deletes a portal. Removing the active portal activates the first
// remaining one.
func (s *Store) Remove(name string) error {
	list, err := s.List()
	if err != nil {
		return err
	}
	i := indexOf(list, name)
	if i < 0 {
		return fmt.Errorf("%w: %s", domain.ErrPortalNotFound, name)
	}
	list = slices.Delete(list, i, i+1)
	if err := s.write(list); err != nil {
		return err
	}

	active, _, err := s.kv.Get(keyActive)
	if err != nil {
		return fmt.Errorf("failed to read active portal: %w", err)
	}
	if active == name {
		if len(list) == 0 {
			err = s.kv.Delete(keyActive)
		} else {
			err = s.kv.Set(keyActive, list[0].Name)
		}
		if err != nil {
			return fmt.Errorf("failed to store active portal: %w", err)
		}
	}
	s.logger.Info("Removed portal", zap.String("portal", name))
	return nil
}

func (s *Store) SetActive(name string) error {
	if _, err := s.Get(name); err != nil {
		return err
	}
	if err := s.kv.Set(keyActive, name); err != nil {
		return fmt.Errorf("failed to store active portal: %w", err)
	}
	return nil
}

// Active returns the active portal, or ErrPortalNotFound when none is configured.
func (s *Store) Active() (Portal, error) {
	list, err := s.List()
	if err != nil {
		return Portal{}, err
	}
	name, ok, err := s.kv.Get(keyActive)
	if err != nil {
		return Portal{}, fmt.Errorf("failed to read active portal: %w", err)
	}
	if i := indexOf(list, name); ok && i >= 0 {
		return list[i], nil
	}
	if len(list) > 0 {
		return list[0], nil
	}
	return Portal{}, fmt.Errorf("%w: no portals configured", domain.ErrPortalNotFound)
}

func (s *Store) SetTitle(name, title string) error {
	list, err := s.List()
	if err != nil {
		return err
	}
	i := indexOf(list, name)
	if i < 0 {
		return fmt.Errorf("%w: %s", domain.ErrPortalNotFound, name)
	}
	list[i].Title = title
	return s.write(list)
}

func (s *Store) write(list []Portal) error {
	if list == nil {
		list = []Portal{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("failed to encode portal list: %w", err)
	}
	if err := s.kv.Set(keyPortals, string(data)); err != nil {
		return fmt.Errorf("failed to store portal list: %w", err)
	}
	return nil
}

func indexOf(list []Portal, name string) int {
	return slices.IndexFunc(list, func(p Portal) bool { return p.Name == name })
}
