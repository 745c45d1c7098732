package descriptor

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/anvil-platform/depstage/internal/deps"
	"github.com/anvil-platform/depstage/internal/semver"
)

// SwiftSentinel marks the generated Swift package manifest list.
const SwiftSentinel = "# depstage generated Swift package manifest"

// SwiftFormat renders the flat manifest the Xcode project editor consumes to
// attach Swift package references:
//
//	package <url> version:<v>
//	  product <name> [weak] [replaces:<pod>,<pod>]
type SwiftFormat struct{}

func NewSwiftFormat() *SwiftFormat {
	return &SwiftFormat{}
}

func (f *SwiftFormat) Ecosystem() deps.Ecosystem {
	return deps.EcosystemSwift
}

func (f *SwiftFormat) Sentinel() string {
	return SwiftSentinel
}

func (f *SwiftFormat) Render(m Model) string {
	var b strings.Builder
	b.WriteString(SwiftSentinel + " - do not edit by hand.\n")
	if m.Platform.IsSet() {
		fmt.Fprintf(&b, "# platform ios %s\n", m.Platform)
	}
	for _, d := range m.Declarations {
		b.WriteString("package " + d.Key)
		if v := d.VersionSpec.Raw; v != "" {
			b.WriteString(" version:" + v)
		}
		b.WriteString("\n")
		for _, p := range d.Products {
			b.WriteString("  product " + p.Name)
			if p.WeakLink {
				b.WriteString(" weak")
			}
			if len(p.Replaces) > 0 {
				b.WriteString(" replaces:" + strings.Join(p.Replaces, ","))
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

var (
	reSwiftPackage = regexp.MustCompile(`^package\s+(\S+)(?:\s+version:(\S+))?`)
	reSwiftProduct = regexp.MustCompile(`^\s+product\s+(\S+)(.*)$`)
	reSwiftReplace = regexp.MustCompile(`replaces:(\S+)`)
)

func (f *SwiftFormat) Parse(content string) ([]deps.Declaration, []string) {
	var decls []deps.Declaration
	for _, line := range strings.Split(content, "\n") {
		if m := reSwiftPackage.FindStringSubmatch(line); m != nil {
			decls = append(decls, deps.Declaration{
				Ecosystem:   deps.EcosystemSwift,
				Key:         m[1],
				VersionSpec: semver.ParseSpec(m[2]),
			})
			continue
		}
		m := reSwiftProduct.FindStringSubmatch(line)
		if m == nil || len(decls) == 0 {
			continue
		}
		p := deps.SwiftProduct{
			Name:     m[1],
			WeakLink: strings.Contains(m[2], " weak"),
		}
		if rm := reSwiftReplace.FindStringSubmatch(m[2]); rm != nil {
			p.Replaces = strings.Split(rm[1], ",")
		}
		last := &decls[len(decls)-1]
		last.Products = append(last.Products, p)
	}
	return decls, nil
}
