package pass

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anvil-platform/depstage/internal/config"
	"github.com/anvil-platform/depstage/internal/deps"
	"github.com/anvil-platform/depstage/internal/execx"
	"github.com/anvil-platform/depstage/internal/semver"
)

const projectXML = `<dependencies>
  <androidPackages>
    <androidPackage spec="com.google.firebase:firebase-common:16.0.0">
      <repositories>
        <repository>https://maven.google.com</repository>
      </repositories>
    </androidPackage>
  </androidPackages>
  <iosPods>
    <iosPod name="Firebase/Core" version="7.1.0"/>
  </iosPods>
  <swiftPackages>
    <swiftPackage url="https://github.com/firebase/firebase-ios-sdk" version="10.0.0">
      <products>
        <product name="FirebaseCore"/>
      </products>
    </swiftPackage>
  </swiftPackages>
</dependencies>
`

func newTestProject(t *testing.T, files map[string]string) (config.Config, *execx.Fake, *Runner) {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	cfg, err := config.Load(dir)
	require.NoError(t, err)
	fake := execx.NewFake()
	return cfg, fake, NewRunner(Options{Config: cfg, Executor: fake})
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestResolveNowWritesAllDescriptors(t *testing.T) {
	cfg, fake, r := newTestProject(t, map[string]string{
		"Assets/AppDependencies.xml": projectXML,
	})

	outcome, err := r.ResolveNow(context.Background())
	require.NoError(t, err)
	assert.True(t, outcome.OK)
	assert.Empty(t, outcome.Warnings)
	assert.False(t, outcome.Superseded)

	podfile := readFile(t, cfg.PodfilePath())
	assert.Contains(t, podfile, "# depstage generated Podfile")
	assert.Contains(t, podfile, "pod 'Firebase/Core', '7.1.0'")
	assert.Contains(t, podfile, "platform :ios, '13.0'")

	gradle := readFile(t, cfg.Android.GradleFile)
	assert.Contains(t, gradle, "com.google.firebase:firebase-common:16.0.0")
	assert.Contains(t, gradle, "https://maven.google.com")

	swift := readFile(t, cfg.SwiftManifestPath())
	assert.Contains(t, swift, "https://github.com/firebase/firebase-ios-sdk")

	ran := fake.Ran()
	require.Len(t, ran, 2)
	assert.Contains(t, ran[0], "mvn")
	assert.Contains(t, ran[1], "pod install")
}

func TestResolveNowSecondPassSkipsCachedArtifacts(t *testing.T) {
	_, fake, r := newTestProject(t, map[string]string{
		"Assets/AppDependencies.xml": projectXML,
	})

	_, err := r.ResolveNow(context.Background())
	require.NoError(t, err)
	_, err = r.ResolveNow(context.Background())
	require.NoError(t, err)

	// The Maven artifact is cached after the first pass; pod install always
	// reruns against the Podfile.
	mvn := 0
	for _, c := range fake.Ran() {
		if strings.HasPrefix(c, "mvn") {
			mvn++
		}
	}
	assert.Equal(t, 1, mvn)
}

func TestResolveNowReportsConflicts(t *testing.T) {
	_, _, r := newTestProject(t, map[string]string{
		"Assets/ADependencies.xml": `<dependencies><iosPods><iosPod name="Shared" version="1.0.0"/></iosPods></dependencies>`,
		"Assets/BDependencies.xml": `<dependencies><iosPods><iosPod name="Shared" version="2.0.0"/></iosPods></dependencies>`,
	})

	outcome, err := r.ResolveNow(context.Background())
	require.NoError(t, err)
	assert.True(t, outcome.OK, "conflicts are warnings, not failures")
	require.Len(t, outcome.Warnings, 1)
	assert.Contains(t, outcome.Warnings[0], "Shared")
	assert.Contains(t, outcome.Warnings[0], "2.0.0")
}

func TestResolveNowRegistryOverwritesFileDeclaration(t *testing.T) {
	cfg, _, r := newTestProject(t, map[string]string{
		"Assets/AppDependencies.xml": `<dependencies><iosPods><iosPod name="Shared" version="1.0.0"/></iosPods></dependencies>`,
	})
	r.Registry().AddPod("EditorScript", "Shared", "3.0.0")

	outcome, err := r.ResolveNow(context.Background())
	require.NoError(t, err)
	assert.True(t, outcome.OK)

	podfile := readFile(t, cfg.PodfilePath())
	assert.Contains(t, podfile, "pod 'Shared', '3.0.0'")
	assert.NotContains(t, podfile, "1.0.0")
}

func TestResolveNowFetchFailureDegradesOutcome(t *testing.T) {
	cfg, fake, r := newTestProject(t, map[string]string{
		"Assets/AppDependencies.xml": projectXML,
	})
	fake.Script("mvn", execx.Result{ExitCode: 1, Stderr: "could not resolve"})

	outcome, err := r.ResolveNow(context.Background())
	require.NoError(t, err)
	assert.False(t, outcome.OK)
	require.NotEmpty(t, outcome.Warnings)
	assert.Contains(t, strings.Join(outcome.Warnings, "\n"), "com.google.firebase:firebase-common")

	// The descriptors are still written; only materialization failed.
	assert.FileExists(t, cfg.PodfilePath())
}

type recordingEditor struct {
	calls []semver.PlatformVersion
}

func (e *recordingEditor) SetMinimumPlatform(_ context.Context, _ deps.Ecosystem, v semver.PlatformVersion) error {
	e.calls = append(e.calls, v)
	return nil
}

func TestResolveNowRequestsPlatformBump(t *testing.T) {
	dir := t.TempDir()
	xml := `<dependencies><iosPods><iosPod name="NeedsNewOS" version="1.0.0" minTargetSdk="14.0"/></iosPods></dependencies>`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "AppDependencies.xml"), []byte(xml), 0o644))
	cfg, err := config.Load(dir)
	require.NoError(t, err)

	editor := &recordingEditor{}
	r := NewRunner(Options{Config: cfg, Executor: execx.NewFake(), ProjectEditor: editor})

	outcome, err := r.ResolveNow(context.Background())
	require.NoError(t, err)
	require.Len(t, outcome.PlatformBumps, 1)
	assert.Equal(t, semver.PlatformVersion(140), outcome.PlatformBumps[0].Version)
	assert.Equal(t, []string{"NeedsNewOS"}, outcome.PlatformBumps[0].Keys)
	assert.Equal(t, []semver.PlatformVersion{140}, editor.calls)

	assert.Contains(t, readFile(t, cfg.PodfilePath()), "platform :ios, '14.0'")
}

func TestClearAllRemovesGeneratedState(t *testing.T) {
	cfg, _, r := newTestProject(t, map[string]string{
		"Assets/AppDependencies.xml": projectXML,
	})

	_, err := r.ResolveNow(context.Background())
	require.NoError(t, err)
	require.FileExists(t, cfg.PodfilePath())

	outcome, err := r.ClearAll(context.Background())
	require.NoError(t, err)
	assert.True(t, outcome.OK)

	assert.NoFileExists(t, cfg.PodfilePath())
	assert.NoFileExists(t, cfg.Android.GradleFile)
	assert.NoFileExists(t, cfg.SwiftManifestPath())
	assert.NoDirExists(t, cfg.CacheDir)
}

func TestClearAllRestoresForeignPodfile(t *testing.T) {
	cfg, _, r := newTestProject(t, map[string]string{
		"Assets/AppDependencies.xml": projectXML,
		"ios/Podfile":                "# hand-written\ntarget 'MyApp' do\nend\n",
	})

	_, err := r.ResolveNow(context.Background())
	require.NoError(t, err)
	assert.Contains(t, readFile(t, cfg.PodfilePath()), "# depstage generated Podfile")

	_, err = r.ClearAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "# hand-written\ntarget 'MyApp' do\nend\n", readFile(t, cfg.PodfilePath()))
}

func TestResolveNowCleanupOnEmptySet(t *testing.T) {
	cfg, _, r := newTestProject(t, map[string]string{
		"Assets/AppDependencies.xml": projectXML,
	})
	_, err := r.ResolveNow(context.Background())
	require.NoError(t, err)

	// Drop the declarations; the next pass sees an empty set.
	require.NoError(t, os.Remove(filepath.Join(cfg.ProjectDir, "Assets", "AppDependencies.xml")))
	cfg.CleanupOnEmpty = true
	r2 := NewRunner(Options{Config: cfg, Executor: execx.NewFake()})

	outcome, err := r2.ResolveNow(context.Background())
	require.NoError(t, err)
	assert.True(t, outcome.OK)
	assert.NoFileExists(t, cfg.PodfilePath())
	assert.NoFileExists(t, cfg.Android.GradleFile)
}

func TestResolveNowConcurrentCallsShareOnePass(t *testing.T) {
	_, _, r := newTestProject(t, map[string]string{
		"Assets/AppDependencies.xml": projectXML,
	})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.ResolveNow(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}
