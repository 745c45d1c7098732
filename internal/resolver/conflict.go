package resolver

import (
	"fmt"

	"github.com/anvil-platform/depstage/internal/deps"
)

// Conflict records one suppressed declaration and the declaration that won,
// so resolution can always be explained to the user. Overwrite marks the
// newcomer-replaces-survivor case; otherwise the first declaration won.
type Conflict struct {
	Key               string
	Winner            deps.Provenance
	WinnerVersion     string
	Suppressed        deps.Provenance
	SuppressedVersion string
	Overwrite         bool
}

func (c Conflict) String() string {
	if c.Overwrite {
		return fmt.Sprintf("%s: %s (version %q) replaced the declaration from %s (version %q)",
			c.Key, c.Winner, c.WinnerVersion, c.Suppressed, c.SuppressedVersion)
	}
	return fmt.Sprintf("%s: keeping the declaration from %s (version %q); ignoring %s (version %q)",
		c.Key, c.Winner, c.WinnerVersion, c.Suppressed, c.SuppressedVersion)
}

// MergeNote records one swift-package merge, for diagnostics only.
type MergeNote struct {
	Key      string
	Chosen   deps.Provenance
	Absorbed deps.Provenance
}

func (m MergeNote) String() string {
	return fmt.Sprintf("%s: merged the declaration from %s into the one from %s", m.Key, m.Absorbed, m.Chosen)
}

// Report enumerates everything resolution decided besides the surviving set.
type Report struct {
	Conflicts []Conflict
	Merges    []MergeNote
}

// Warnings renders the user-visible warning list, in decision order.
func (r Report) Warnings() []string {
	var out []string
	for _, c := range r.Conflicts {
		out = append(out, c.String())
	}
	return out
}
