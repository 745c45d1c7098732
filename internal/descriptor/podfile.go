package descriptor

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/anvil-platform/depstage/internal/deps"
	"github.com/anvil-platform/depstage/internal/semver"
)

// PodfileSentinel marks a Podfile as generated by this tool. Matched by
// prefix, so the trailing notice can change without orphaning old files.
const PodfileSentinel = "# depstage generated Podfile"

const defaultPodSource = "https://cdn.cocoapods.org/"

// PodfileFormat renders and parses CocoaPods Podfiles.
type PodfileFormat struct {
	// Target is the Xcode target the pods are declared for.
	Target string
}

func NewPodfileFormat(target string) *PodfileFormat {
	if target == "" {
		target = "Unity-iPhone"
	}
	return &PodfileFormat{Target: target}
}

func (f *PodfileFormat) Ecosystem() deps.Ecosystem {
	return deps.EcosystemPod
}

func (f *PodfileFormat) Sentinel() string {
	return PodfileSentinel
}

// podLineOptions are the declaration properties that translate to pod-line
// options. Anything else configures project generation, not the Podfile.
var podLineOptions = []string{"modular_headers", "configurations", "subspecs"}

func (f *PodfileFormat) Render(m Model) string {
	var b strings.Builder
	b.WriteString(PodfileSentinel + " - do not edit by hand.\n")

	sources := m.Sources
	if len(sources) == 0 {
		sources = []string{defaultPodSource}
	}
	for _, s := range sources {
		fmt.Fprintf(&b, "source '%s'\n", s)
	}

	if m.Platform.IsSet() {
		fmt.Fprintf(&b, "\nplatform :ios, '%s'\n", m.Platform)
	}

	fmt.Fprintf(&b, "\ntarget '%s' do\n", f.Target)
	for _, d := range m.Declarations {
		b.WriteString("  pod '" + d.Key + "'")
		if c := d.VersionSpec.PodConstraint(); c != "" {
			b.WriteString(", '" + c + "'")
		}
		for _, opt := range podLineOptions {
			if v := d.Property(opt); v != "" {
				b.WriteString(", :" + opt + " => " + podOptionLiteral(v))
			}
		}
		b.WriteString("\n")
	}
	b.WriteString("end\n")
	return b.String()
}

func podOptionLiteral(v string) string {
	if v == "true" || v == "false" {
		return v
	}
	return "'" + v + "'"
}

var (
	rePodLine     = regexp.MustCompile(`^\s*pod\s+'([^']+)'\s*(.*)$`)
	rePodSource   = regexp.MustCompile(`^\s*source\s+'([^']+)'`)
	rePodVersion  = regexp.MustCompile(`^,\s*'([^']+)'`)
	rePodOption   = regexp.MustCompile(`,\s*:(\w+)\s*=>\s*('([^']*)'|true|false)`)
	rePodPlatform = regexp.MustCompile(`^\s*platform\s+:ios\s*,\s*'([^']+)'`)
)

// Parse recovers pod declarations and source URIs from Podfile content, both
// tool-generated and hand-authored. Lines it does not understand are ignored;
// the patcher only needs the entries, not the full Ruby syntax.
func (f *PodfileFormat) Parse(content string) ([]deps.Declaration, []string) {
	var decls []deps.Declaration
	var sources []string
	for _, line := range strings.Split(content, "\n") {
		if m := rePodSource.FindStringSubmatch(line); m != nil {
			sources = append(sources, m[1])
			continue
		}
		m := rePodLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		d := deps.Declaration{
			Ecosystem: deps.EcosystemPod,
			Key:       m[1],
		}
		rest := m[2]
		if vm := rePodVersion.FindStringSubmatch(rest); vm != nil {
			d.VersionSpec = semver.ParseSpec(vm[1])
		}
		for _, om := range rePodOption.FindAllStringSubmatch(rest, -1) {
			value := om[2]
			if om[3] != "" || strings.HasPrefix(om[2], "'") {
				value = om[3]
			}
			d.Properties = append(d.Properties, deps.Property{Name: om[1], Value: value})
		}
		decls = append(decls, d)
	}
	return decls, sources
}

// ParsePlatform extracts the platform header version, if present.
func (f *PodfileFormat) ParsePlatform(content string) (semver.PlatformVersion, bool) {
	for _, line := range strings.Split(content, "\n") {
		if m := rePodPlatform.FindStringSubmatch(line); m != nil {
			v, err := semver.ParsePlatformVersion(m[1])
			if err != nil {
				return 0, false
			}
			return v, true
		}
	}
	return 0, false
}
