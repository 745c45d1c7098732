package materialize

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/anvil-platform/depstage/internal/deps"
	"github.com/anvil-platform/depstage/internal/execx"
)

// PackageInstaller is the optional collaborator that moves fetched artifacts
// into the host project. Hosts without one get the no-op implementation;
// feature detection happens at wiring time, never via reflection.
type PackageInstaller interface {
	Install(ctx context.Context, key, path string) error
}

// NoopInstaller leaves fetched artifacts in the cache directory.
type NoopInstaller struct{}

func (NoopInstaller) Install(context.Context, string, string) error { return nil }

// Materializer ensures every resolved artifact is physically present locally.
// Maven artifacts fetch one by one into CacheDir; CocoaPods are installed as
// one batch by the pod CLI against the generated Podfile. Swift packages are
// checked out by the Xcode toolchain itself and need no staging here.
type Materializer struct {
	exec execx.Executor
	log  *zap.Logger

	// CacheDir is where fetched Maven artifacts land.
	CacheDir string
	// MavenCommand and PodCommand allow tests and exotic hosts to substitute
	// the CLIs.
	MavenCommand string
	PodCommand   string
	// Installer receives each newly fetched Maven artifact.
	Installer PackageInstaller
}

func New(exec execx.Executor, cacheDir string, log *zap.Logger) *Materializer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Materializer{
		exec:         exec,
		log:          log,
		CacheDir:     cacheDir,
		MavenCommand: "mvn",
		PodCommand:   "pod",
		Installer:    NoopInstaller{},
	}
}

// Materialize fetches whatever is missing for the resolved set. workDir is the
// iOS project directory holding the generated Podfile. Individual fetch
// failures never abort the batch; the aggregate result enumerates them all.
func (m *Materializer) Materialize(ctx context.Context, set *deps.ResolvedSet, workDir string) Result {
	var res Result
	m.materializeMaven(ctx, set, &res)
	m.materializePods(ctx, set, workDir, &res)
	return res
}

func (m *Materializer) materializeMaven(ctx context.Context, set *deps.ResolvedSet, res *Result) {
	for _, d := range set.ByEcosystem(deps.EcosystemAndroid) {
		cached := m.artifactPath(d)
		if _, err := os.Stat(cached); err == nil {
			res.Artifacts = append(res.Artifacts, ArtifactResult{Key: d.Key, Outcome: OutcomeAlreadyPresent})
			continue
		}

		cmd := m.mavenFetchCmd(d)
		run, err := m.exec.Run(ctx, cmd)
		if err != nil {
			res.Artifacts = append(res.Artifacts, ArtifactResult{
				Key:     d.Key,
				Outcome: OutcomeFetchFailed,
				Command: cmd.String(),
				Reason:  err.Error(),
			})
			continue
		}
		if !run.OK() {
			res.Artifacts = append(res.Artifacts, ArtifactResult{
				Key:      d.Key,
				Outcome:  OutcomeFetchFailed,
				Command:  cmd.String(),
				ExitCode: run.ExitCode,
				Output:   run.Output(),
				Reason:   "fetch command failed",
			})
			continue
		}
		if err := m.markFetched(cached); err != nil {
			res.Artifacts = append(res.Artifacts, ArtifactResult{
				Key:     d.Key,
				Outcome: OutcomeFetchFailed,
				Reason:  fmt.Sprintf("record fetched artifact: %v", err),
			})
			continue
		}
		if err := m.Installer.Install(ctx, d.Key, cached); err != nil {
			res.Artifacts = append(res.Artifacts, ArtifactResult{
				Key:     d.Key,
				Outcome: OutcomeFetchFailed,
				Reason:  fmt.Sprintf("install fetched artifact: %v", err),
			})
			continue
		}
		m.log.Info("fetched artifact", zap.String("key", d.Key))
		res.Artifacts = append(res.Artifacts, ArtifactResult{Key: d.Key, Outcome: OutcomeFetched})
	}
}

// materializePods runs one pod install for all pod declarations. On first
// failure the spec repo index is refreshed and the install retried exactly
// once; a second failure is terminal and attributed to every pod in the batch.
func (m *Materializer) materializePods(ctx context.Context, set *deps.ResolvedSet, workDir string, res *Result) {
	pods := set.ByEcosystem(deps.EcosystemPod)
	if len(pods) == 0 {
		return
	}

	steps := []execx.Cmd{
		{Name: m.PodCommand, Args: []string{"install"}, Dir: workDir},
		{Name: m.PodCommand, Args: []string{"repo", "update"}, Dir: workDir},
	}
	retried := false
	cmd, run, err := execx.Sequence(ctx, m.exec, steps, func(step int, r execx.Result) execx.Decision {
		switch step {
		case 0:
			if r.OK() {
				return execx.Done()
			}
			if retried {
				return execx.Abort()
			}
			retried = true
			m.log.Warn("pod install failed, refreshing spec repos and retrying once",
				zap.String("output", r.Output()))
			return execx.Next(1)
		default:
			// Repo update failures are not terminal on their own; the retry
			// decides the overall outcome.
			return execx.Next(0)
		}
	})

	for _, d := range pods {
		if err == nil {
			res.Artifacts = append(res.Artifacts, ArtifactResult{Key: d.Key, Outcome: OutcomeFetched})
			continue
		}
		res.Artifacts = append(res.Artifacts, ArtifactResult{
			Key:      d.Key,
			Outcome:  OutcomeFetchFailed,
			Command:  cmd.String(),
			ExitCode: run.ExitCode,
			Output:   run.Output(),
			Reason:   "pod install failed after retry",
		})
	}
}

func (m *Materializer) mavenFetchCmd(d deps.Declaration) execx.Cmd {
	coordinate := d.Key + ":" + d.VersionSpec.MavenConstraint()
	return execx.Cmd{
		Name: m.MavenCommand,
		Args: []string{"-q", "dependency:get", "-Dartifact=" + coordinate},
		Dir:  m.CacheDir,
	}
}

// artifactPath derives the cache marker path for a Maven artifact.
func (m *Materializer) artifactPath(d deps.Declaration) string {
	name := strings.ReplaceAll(d.Key, ":", "_")
	if v := d.VersionSpec.Raw; v != "" {
		name += "_" + strings.ReplaceAll(v, "+", "plus")
	}
	return filepath.Join(m.CacheDir, name+".resolved")
}

func (m *Materializer) markFetched(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, nil, 0o644)
}
