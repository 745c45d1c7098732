package descriptor

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/anvil-platform/depstage/internal/deps"
	"github.com/anvil-platform/depstage/internal/semver"
)

// GradleSentinel marks a generated Gradle dependencies script.
const GradleSentinel = "// depstage generated Gradle dependencies"

const defaultMavenRepo = "https://maven.google.com"

// GradleFormat renders and parses the Gradle script that carries the resolved
// Android artifacts. The host build includes it via `apply from:`.
type GradleFormat struct{}

func NewGradleFormat() *GradleFormat {
	return &GradleFormat{}
}

func (f *GradleFormat) Ecosystem() deps.Ecosystem {
	return deps.EcosystemAndroid
}

func (f *GradleFormat) Sentinel() string {
	return GradleSentinel
}

func (f *GradleFormat) Render(m Model) string {
	var b strings.Builder
	b.WriteString(GradleSentinel + " - do not edit by hand.\n\n")

	repos := m.Sources
	if len(repos) == 0 {
		repos = []string{defaultMavenRepo}
	}
	b.WriteString("repositories {\n")
	for _, r := range repos {
		fmt.Fprintf(&b, "    maven { url \"%s\" }\n", r)
	}
	b.WriteString("    mavenCentral()\n")
	b.WriteString("}\n\n")

	b.WriteString("dependencies {\n")
	for _, d := range m.Declarations {
		coordinate := d.Key + ":" + d.VersionSpec.GradleConstraint()
		if cls := d.Property("classifier"); cls != "" {
			coordinate += ":" + cls
		}
		fmt.Fprintf(&b, "    implementation '%s'\n", coordinate)
	}
	b.WriteString("}\n")
	return b.String()
}

var (
	reGradleDep  = regexp.MustCompile(`^\s*(?:implementation|api|compile)\s+'([^']+)'`)
	reGradleRepo = regexp.MustCompile(`^\s*maven\s*\{\s*url\s+["']([^"']+)["']`)
)

func (f *GradleFormat) Parse(content string) ([]deps.Declaration, []string) {
	var decls []deps.Declaration
	var repos []string
	for _, line := range strings.Split(content, "\n") {
		if m := reGradleRepo.FindStringSubmatch(line); m != nil {
			repos = append(repos, m[1])
			continue
		}
		m := reGradleDep.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		parts := strings.Split(m[1], ":")
		if len(parts) < 2 {
			continue
		}
		d := deps.Declaration{
			Ecosystem: deps.EcosystemAndroid,
			Key:       parts[0] + ":" + parts[1],
		}
		if len(parts) >= 3 {
			d.VersionSpec = semver.ParseSpec(parts[2])
		}
		if len(parts) >= 4 {
			d.Properties = append(d.Properties, deps.Property{Name: "classifier", Value: parts[3]})
		}
		decls = append(decls, d)
	}
	return decls, repos
}
