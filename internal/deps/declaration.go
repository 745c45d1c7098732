package deps

import (
	"fmt"

	"github.com/anvil-platform/depstage/internal/semver"
)

// Ecosystem identifies which native package ecosystem a declaration belongs to.
type Ecosystem string

const (
	EcosystemAndroid Ecosystem = "android"
	EcosystemPod     Ecosystem = "ios-pod"
	EcosystemSwift   Ecosystem = "swift-package"
)

// Provenance records where a declaration came from, for diagnostics. Either a
// file location or a caller-supplied tag for programmatic registrations.
type Provenance struct {
	File string
	Line int
	Tag  string
}

func FileProvenance(file string, line int) Provenance {
	return Provenance{File: file, Line: line}
}

func TagProvenance(tag string) Provenance {
	return Provenance{Tag: tag}
}

func (p Provenance) String() string {
	if p.Tag != "" {
		return p.Tag
	}
	if p.Line > 0 {
		return fmt.Sprintf("%s:%d", p.File, p.Line)
	}
	return p.File
}

// Property is one extra named attribute on a declaration (classifier,
// packaging type, linkage flag). Declarations carry properties as an ordered
// slice so generated output is stable.
type Property struct {
	Name  string
	Value string
}

// SwiftProduct is one framework product grouped under a Swift package
// declaration. Several plugins may reference different products of the same
// package; resolution merges them under one declaration.
type SwiftProduct struct {
	Name string
	// WeakLink restricts linkage; when duplicate products merge it is ANDed
	// (weakest link) across declarers.
	WeakLink bool
	// Replaces lists pod names this product supersedes; merged by union.
	Replaces []string
}

// Declaration is one dependency entry as read from a source, before conflict
// resolution.
type Declaration struct {
	Ecosystem   Ecosystem
	Key         string
	VersionSpec semver.Spec
	Properties  []Property
	// Sources are repository/search-location URIs, highest priority first.
	Sources    []string
	Provenance Provenance
	// OverwriteAllowed controls what happens when a later declaration reuses
	// this declaration's key: true means the later one replaces it, false
	// means first-wins and the later one is recorded as a conflict.
	OverwriteAllowed bool
	// MinPlatform is the minimum platform SDK version this dependency
	// requires; zero when unset.
	MinPlatform semver.PlatformVersion
	// Products is populated for swift-package declarations only.
	Products []SwiftProduct
}

// Property returns the named property value, or "".
func (d Declaration) Property(name string) string {
	for _, p := range d.Properties {
		if p.Name == name {
			return p.Value
		}
	}
	return ""
}

// Equivalent reports structural equality for conflict-warning suppression:
// same version spec and same property set means a repeated declaration is not
// worth surfacing even when overwrite is disallowed.
func (d Declaration) Equivalent(other Declaration) bool {
	if d.Key != other.Key || d.VersionSpec.Raw != other.VersionSpec.Raw {
		return false
	}
	if len(d.Properties) != len(other.Properties) {
		return false
	}
	for i, p := range d.Properties {
		if other.Properties[i] != p {
			return false
		}
	}
	return true
}
