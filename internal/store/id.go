package store

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	categoryPrefix = "cat"
	linkPrefix     = "link"
)

// newID returns prefix_<unix millis, base36>_<9 random hex chars>.
// Unique within a session with overwhelming probability; not meant to be
// unguessable or unique across processes.
func newID(prefix string) string {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 36)
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return prefix + "_" + ts + "_" + random
}
