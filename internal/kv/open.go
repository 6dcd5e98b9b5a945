package kv

import (
	"fmt"
	"strings"

	"git.sr.ht/~jakintosh/portal/internal/domain"
)

// Driver names accepted by Open.
const (
	DriverBolt   = "bolt"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Open returns the KeyValueStore for driver. path is ignored by the memory driver.
func Open(driver, path string) (domain.KeyValueStore, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverBolt, "":
		return NewBoltStore(path)
	case DriverSQLite:
		return NewSQLiteStore(path)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown config store driver %q", driver)
	}
}
