package source

import (
	"github.com/anvil-platform/depstage/internal/deps"
)

// Provider supplies raw dependency declarations from one origin: a parsed
// declaration file or a programmatic registration surface. Implementations
// tag every declaration with its provenance.
type Provider interface {
	// Name identifies the provider in warnings and logs.
	Name() string
	// ReadAll returns every declaration the provider can supply, plus
	// human-readable warnings for entries it had to skip. The error is
	// reserved for failures that prevent reading the origin at all; the
	// aggregator downgrades it to a warning so sibling providers still run.
	ReadAll() ([]deps.Declaration, []string, error)
}
