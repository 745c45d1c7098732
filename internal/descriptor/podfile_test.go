package descriptor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anvil-platform/depstage/internal/deps"
	"github.com/anvil-platform/depstage/internal/semver"
)

func podDecl(key, version string, props ...deps.Property) deps.Declaration {
	return deps.Declaration{
		Ecosystem:   deps.EcosystemPod,
		Key:         key,
		VersionSpec: semver.ParseSpec(version),
		Properties:  props,
	}
}

func TestPodfileRender(t *testing.T) {
	f := NewPodfileFormat("Unity-iPhone")
	out := f.Render(Model{
		Declarations: []deps.Declaration{
			podDecl("Firebase/Core", "7.1.0"),
			podDecl("Firebase/Auth", "7.1.0+", deps.Property{Name: "modular_headers", Value: "true"}),
			podDecl("GoogleUtilities", ""),
		},
		Sources:  []string{"https://cdn.cocoapods.org/"},
		Platform: 130,
	})

	assert.True(t, strings.HasPrefix(out, PodfileSentinel), "first line must carry the sentinel")
	assert.Contains(t, out, "source 'https://cdn.cocoapods.org/'")
	assert.Contains(t, out, "platform :ios, '13.0'")
	assert.Contains(t, out, "target 'Unity-iPhone' do")
	assert.Contains(t, out, "  pod 'Firebase/Core', '7.1.0'\n")
	assert.Contains(t, out, "  pod 'Firebase/Auth', '~> 7.1.0', :modular_headers => true\n")
	assert.Contains(t, out, "  pod 'GoogleUtilities'\n", "unconstrained pods carry no requirement")
}

func TestPodfileRenderDefaultsSource(t *testing.T) {
	f := NewPodfileFormat("")
	out := f.Render(Model{})
	assert.Contains(t, out, "source '"+defaultPodSource+"'")
	assert.Contains(t, out, "target 'Unity-iPhone' do")
}

func TestPodfileParseRenderRoundTrip(t *testing.T) {
	f := NewPodfileFormat("Unity-iPhone")
	model := Model{
		Declarations: []deps.Declaration{
			podDecl("Firebase/Core", "7.1.0"),
			podDecl("Firebase/Auth", "~> 7.1.0", deps.Property{Name: "modular_headers", Value: "true"}),
		},
		Sources:  []string{"https://cdn.cocoapods.org/"},
		Platform: 130,
	}
	first := f.Render(model)

	decls, sources := f.Parse(first)
	require.Len(t, decls, 2)
	assert.Equal(t, []string{"https://cdn.cocoapods.org/"}, sources)

	second := f.Render(Model{Declarations: decls, Sources: sources, Platform: 130})
	assert.Equal(t, first, second, "render(parse(render(m))) must be byte-stable")
}

func TestPodfileParseHandAuthored(t *testing.T) {
	content := `# My hand-written Podfile
source 'https://example.test/specs'
platform :ios, '12.0'

target 'MyApp' do
  pod 'Alamofire', '~> 5.6'
  pod 'SwiftLint'
end
`
	f := NewPodfileFormat("Unity-iPhone")
	assert.False(t, IsGenerated(f, []byte(content)))

	decls, sources := f.Parse(content)
	require.Len(t, decls, 2)
	assert.Equal(t, "Alamofire", decls[0].Key)
	assert.Equal(t, semver.SpecSameMajor, decls[0].VersionSpec.Kind)
	assert.Equal(t, "SwiftLint", decls[1].Key)
	assert.True(t, decls[1].VersionSpec.Unconstrained())
	assert.Equal(t, []string{"https://example.test/specs"}, sources)

	v, ok := f.ParsePlatform(content)
	require.True(t, ok)
	assert.Equal(t, semver.PlatformVersion(120), v)
}

func TestPodfileSentinelDetection(t *testing.T) {
	f := NewPodfileFormat("")
	generated := f.Render(Model{})
	assert.True(t, IsGenerated(f, []byte(generated)))
	assert.False(t, IsGenerated(f, []byte("# Podfile\npod 'X'\n")))
	assert.False(t, IsGenerated(f, nil))
}
