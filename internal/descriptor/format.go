package descriptor

import (
	"strings"

	"github.com/anvil-platform/depstage/internal/deps"
	"github.com/anvil-platform/depstage/internal/semver"
)

// Format renders one descriptor kind from the in-memory model and parses
// prior content back into declarations. Rendering must be a pure function of
// its inputs: identical model, identical bytes.
type Format interface {
	// Ecosystem selects which declarations of a resolved set this format
	// projects.
	Ecosystem() deps.Ecosystem
	// Sentinel is the first line identifying a file as generated by this
	// tool. Matching is by prefix so trailing detail can evolve.
	Sentinel() string
	// Render produces the full descriptor text.
	Render(m Model) string
	// Parse recovers declarations and source URIs from descriptor content,
	// generated or hand-authored.
	Parse(content string) ([]deps.Declaration, []string)
}

// Model is the in-memory input to rendering: the declarations to project (in
// final output order), the source URIs, and the platform header version.
type Model struct {
	Declarations []deps.Declaration
	Sources      []string
	Platform     semver.PlatformVersion
}

// IsGenerated reports whether content starts with the format's sentinel.
func IsGenerated(f Format, content []byte) bool {
	text := string(content)
	line, _, _ := strings.Cut(text, "\n")
	return strings.HasPrefix(strings.TrimSpace(line), f.Sentinel())
}
