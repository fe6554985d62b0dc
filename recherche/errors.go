// CLAUDE:SUMMARY Sentinel errors for the research service: the two caller errors, a corrupt session file, and a missing archive.
package recherche

import (
	"errors"

	"github.com/hazyhaar/recherche/recherche/internal/store"
)

// ErrInvalidQuery is returned when the query is empty after trimming.
var ErrInvalidQuery = errors.New("recherche: invalid query")

// ErrInvalidConfiguration is returned for an unusable configuration or
// request parameters (unknown depth or backend, non-positive source count).
var ErrInvalidConfiguration = errors.New("recherche: invalid configuration")

// ErrCorruptStore is returned by LoadResearch for structurally invalid files.
var ErrCorruptStore = store.ErrCorruptStore

// ErrNoArchive is returned by archive queries when no archive is configured.
var ErrNoArchive = errors.New("recherche: no archive configured")
