package source

import (
	"strings"

	"github.com/anvil-platform/depstage/internal/deps"
	"github.com/anvil-platform/depstage/internal/semver"
)

// Registry accepts direct programmatic dependency registrations, the
// counterpart to file-based providers for plugins that compute their
// dependencies at runtime. Programmatic adds default to overwrite-allowed, so
// an explicit call replaces whatever a file declared for the same key.
//
// Every call takes a tag naming the caller; it becomes the declaration's
// provenance in conflict reports.
type Registry struct {
	decls []deps.Declaration
}

func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) Name() string {
	return "programmatic registrations"
}

func (r *Registry) ReadAll() ([]deps.Declaration, []string, error) {
	out := make([]deps.Declaration, len(r.decls))
	copy(out, r.decls)
	return out, nil, nil
}

// PodOption mutates an AddPod registration.
type PodOption func(*deps.Declaration)

func PodSources(uris ...string) PodOption {
	return func(d *deps.Declaration) {
		d.Sources = append(d.Sources, uris...)
	}
}

func PodProperty(name, value string) PodOption {
	return func(d *deps.Declaration) {
		d.Properties = append(d.Properties, deps.Property{Name: name, Value: value})
	}
}

func PodMinTargetSdk(v semver.PlatformVersion) PodOption {
	return func(d *deps.Declaration) {
		d.MinPlatform = v
	}
}

// FirstWins makes the registration respect an earlier declaration of the same
// key instead of replacing it.
func FirstWins() PodOption {
	return func(d *deps.Declaration) {
		d.OverwriteAllowed = false
	}
}

// AddPod registers a CocoaPods dependency.
func (r *Registry) AddPod(tag, name, version string, opts ...PodOption) {
	d := deps.Declaration{
		Ecosystem:        deps.EcosystemPod,
		Key:              name,
		VersionSpec:      semver.ParseSpec(version),
		Provenance:       deps.TagProvenance(tag),
		OverwriteAllowed: true,
	}
	for _, opt := range opts {
		opt(&d)
	}
	r.decls = append(r.decls, d)
}

// AddAndroidPackage registers a Maven artifact by group:artifact[:version]
// coordinate.
func (r *Registry) AddAndroidPackage(tag, spec string, repositories ...string) {
	parts := strings.SplitN(spec, ":", 3)
	key := spec
	version := ""
	if len(parts) >= 2 {
		key = parts[0] + ":" + parts[1]
	}
	if len(parts) == 3 {
		version = parts[2]
	}
	r.decls = append(r.decls, deps.Declaration{
		Ecosystem:        deps.EcosystemAndroid,
		Key:              key,
		VersionSpec:      semver.ParseSpec(version),
		Sources:          repositories,
		Provenance:       deps.TagProvenance(tag),
		OverwriteAllowed: true,
	})
}

// AddSwiftPackage registers a Swift package by URL with the products to link.
func (r *Registry) AddSwiftPackage(tag, url, version string, products ...deps.SwiftProduct) {
	r.decls = append(r.decls, deps.Declaration{
		Ecosystem:        deps.EcosystemSwift,
		Key:              url,
		VersionSpec:      semver.ParseSpec(version),
		Provenance:       deps.TagProvenance(tag),
		OverwriteAllowed: true,
		Products:         products,
	})
}
