package semver

import (
	"fmt"
	"strings"
)

// SpecKind classifies a raw dependency version spec as written in a source file.
type SpecKind int

const (
	// SpecUnconstrained matches any version ("LATEST" or an empty spec).
	SpecUnconstrained SpecKind = iota
	// SpecExact pins one version ("1.2.3").
	SpecExact
	// SpecSameMajor means "this version or newer, within the same major"
	// ("1.2.3+"). The trailing '+' form is kept as written and only rewritten
	// into a target ecosystem's range syntax at descriptor-render time.
	SpecSameMajor
)

// Spec is a normalized dependency version spec. The raw text is retained so
// diagnostics and generated files can echo exactly what the user wrote.
type Spec struct {
	Kind SpecKind
	Raw  string
	// Base is the version with any trailing '+' stripped. Zero for
	// unconstrained specs.
	Base Version
}

// ParseSpec normalizes one of the accepted version-spec syntaxes. Specs that do
// not parse as a version are treated as unconstrained rather than rejected; the
// native toolchain is the final authority on exotic range syntax.
func ParseSpec(raw string) Spec {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.EqualFold(trimmed, "LATEST") {
		return Spec{Kind: SpecUnconstrained, Raw: trimmed}
	}
	if base, ok := strings.CutSuffix(trimmed, "+"); ok {
		if v, err := ParseVersion(base); err == nil {
			return Spec{Kind: SpecSameMajor, Raw: trimmed, Base: v}
		}
		return Spec{Kind: SpecUnconstrained, Raw: trimmed}
	}
	// CocoaPods optimistic-operator syntax, seen when re-absorbing entries
	// hand-added to a generated Podfile.
	if base, ok := strings.CutPrefix(trimmed, "~>"); ok {
		if v, err := ParseVersion(strings.TrimSpace(base)); err == nil {
			return Spec{Kind: SpecSameMajor, Raw: trimmed, Base: v}
		}
		return Spec{Kind: SpecUnconstrained, Raw: trimmed}
	}
	if v, err := ParseVersion(trimmed); err == nil {
		return Spec{Kind: SpecExact, Raw: trimmed, Base: v}
	}
	return Spec{Kind: SpecUnconstrained, Raw: trimmed}
}

// Unconstrained reports whether the spec matches any version. Unconstrained
// specs never participate in minimum-version bucketing.
func (s Spec) Unconstrained() bool {
	return s.Kind == SpecUnconstrained
}

// PodConstraint renders the spec in CocoaPods requirement syntax. The
// same-major form becomes an optimistic operator requirement.
func (s Spec) PodConstraint() string {
	switch s.Kind {
	case SpecExact:
		return s.Base.String()
	case SpecSameMajor:
		return "~> " + s.Base.String()
	default:
		return ""
	}
}

// GradleConstraint renders the spec in Gradle coordinate-suffix syntax. The
// same-major form maps to Gradle's own trailing '+' range.
func (s Spec) GradleConstraint() string {
	switch s.Kind {
	case SpecExact:
		return s.Base.String()
	case SpecSameMajor:
		return s.Base.String() + "+"
	default:
		return "+"
	}
}

// MavenConstraint renders the spec in Maven artifact-coordinate syntax, for
// dependency:get. Maven has no trailing-plus form: same-major becomes a
// bounded range and unconstrained resolves to the newest available release.
func (s Spec) MavenConstraint() string {
	switch s.Kind {
	case SpecExact:
		return s.Base.String()
	case SpecSameMajor:
		return fmt.Sprintf("[%s,%d.0.0)", s.Base.String(), s.Base.Major()+1)
	default:
		return "LATEST"
	}
}

// Constraint expresses the spec as a version constraint. Unconstrained specs
// have none.
func (s Spec) Constraint() (Constraint, bool) {
	switch s.Kind {
	case SpecExact:
		return MustParseConstraint(s.Base.String()), true
	case SpecSameMajor:
		return MustParseConstraint("^" + s.Base.String()), true
	default:
		return Constraint{}, false
	}
}

// Allows reports whether v falls inside the spec. Unconstrained specs allow
// everything; a zero Version has nothing to check against and is allowed.
func (s Spec) Allows(v Version) bool {
	c, ok := s.Constraint()
	if !ok || v.IsZero() {
		return true
	}
	return Satisfies(v, c)
}
