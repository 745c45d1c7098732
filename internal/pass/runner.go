package pass

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/anvil-platform/depstage/internal/config"
	"github.com/anvil-platform/depstage/internal/deps"
	"github.com/anvil-platform/depstage/internal/descriptor"
	"github.com/anvil-platform/depstage/internal/execx"
	"github.com/anvil-platform/depstage/internal/materialize"
	"github.com/anvil-platform/depstage/internal/resolver"
	"github.com/anvil-platform/depstage/internal/semver"
	"github.com/anvil-platform/depstage/internal/source"
)

// PlatformProjectEditor is the optional collaborator that can raise the host
// project's minimum platform version when resolved dependencies demand it.
// Hosts without one get the no-op implementation; the bump request is still
// reported in the Outcome either way.
type PlatformProjectEditor interface {
	SetMinimumPlatform(ctx context.Context, eco deps.Ecosystem, v semver.PlatformVersion) error
}

// NoopProjectEditor acknowledges bump requests without touching anything.
type NoopProjectEditor struct{}

func (NoopProjectEditor) SetMinimumPlatform(context.Context, deps.Ecosystem, semver.PlatformVersion) error {
	return nil
}

// PlatformBump reports that resolved dependencies require a platform version
// above the configured default, and which ones require it.
type PlatformBump struct {
	Ecosystem deps.Ecosystem
	Version   semver.PlatformVersion
	Keys      []string
}

// Outcome is what the two public operations return: overall success plus the
// one ordered list of human-readable warnings and failures. Expected failure
// modes never surface as errors.
type Outcome struct {
	OK       bool
	Warnings []string
	// Superseded is set when a newer request arrived while this pass ran;
	// its on-disk effects stand but callers should not act on the outcome.
	Superseded bool

	PlatformBumps []PlatformBump
}

// Options wires a Runner. Zero values get working defaults except Config.
type Options struct {
	Config        config.Config
	Log           *zap.Logger
	Executor      execx.Executor
	Store         descriptor.Store
	Registry      *source.Registry
	ProjectEditor PlatformProjectEditor
	Installer     materialize.PackageInstaller
}

// Runner executes resolution passes. Passes against one project are
// single-flighted: a request arriving while a pass runs does not start a
// second pass, it shares the running pass's outcome.
type Runner struct {
	cfg     config.Config
	log     *zap.Logger
	exec    execx.Executor
	store   descriptor.Store
	reg     *source.Registry
	editor  PlatformProjectEditor
	mat     *materialize.Materializer
	patcher *descriptor.Patcher

	podfile *descriptor.PodfileFormat
	gradle  *descriptor.GradleFormat
	swift   *descriptor.SwiftFormat

	flight singleflight.Group
	// requests counts ResolveNow entries; a pass compares its ticket against
	// the counter when it finishes to detect supersession.
	requests atomic.Uint64
}

func NewRunner(opts Options) *Runner {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	exec := opts.Executor
	if exec == nil {
		exec = execx.NewOSExecutor(log)
	}
	store := opts.Store
	if store == nil {
		store = descriptor.FSStore{}
	}
	reg := opts.Registry
	if reg == nil {
		reg = source.NewRegistry()
	}
	editor := opts.ProjectEditor
	if editor == nil {
		editor = NoopProjectEditor{}
	}

	mat := materialize.New(exec, opts.Config.CacheDir, log)
	if opts.Installer != nil {
		mat.Installer = opts.Installer
	}

	patcher := descriptor.NewPatcher(store, log)

	return &Runner{
		cfg:     opts.Config,
		log:     log,
		exec:    exec,
		store:   store,
		reg:     reg,
		editor:  editor,
		mat:     mat,
		patcher: patcher,
		podfile: descriptor.NewPodfileFormat(opts.Config.IOS.Target),
		gradle:  descriptor.NewGradleFormat(),
		swift:   descriptor.NewSwiftFormat(),
	}
}

// Registry exposes the programmatic registration surface.
func (r *Runner) Registry() *source.Registry {
	return r.reg
}

// ResolveNow runs one full resolution pass: collect, resolve, patch,
// materialize. Concurrent calls for the same project share one pass.
func (r *Runner) ResolveNow(ctx context.Context) (Outcome, error) {
	ticket := r.requests.Add(1)
	v, err, _ := r.flight.Do(r.cfg.ProjectDir, func() (any, error) {
		return r.resolveOnce(ctx, ticket)
	})
	if err != nil {
		return Outcome{}, err
	}
	return v.(Outcome), nil
}

func (r *Runner) resolveOnce(ctx context.Context, ticket uint64) (Outcome, error) {
	start := time.Now()
	pc := newContext(r.log, r.discoverProviders())
	pc.Log.Info("resolution pass started", zap.Int("providers", len(pc.Providers)))

	// 1) Collect.
	pc.Batch = source.NewAggregator(pc.Log).Collect(pc.Providers)
	pc.Warn(pc.Batch.Warnings...)

	// 2) Resolve conflicts.
	set, report, err := resolver.New(pc.Log).Resolve(pc.Batch)
	if err != nil {
		resolvePassTotal.WithLabelValues("error").Inc()
		return Outcome{}, err
	}
	pc.Set, pc.Report = set, report
	pc.Warn(report.Warnings()...)
	resolveConflictTotal.Add(float64(len(report.Conflicts)))
	resolvedDependencies.Set(float64(set.Len()))

	outcome := Outcome{OK: true}
	floor := r.iosDefaultPlatform(pc)

	// 3) Platform bumps.
	r.checkPlatformBump(ctx, pc, deps.EcosystemPod, floor, &outcome)

	// 4) Project descriptors. The Podfile goes first so materialization has
	// it to install against.
	mode := descriptor.ModeUpdate
	if set.Len() == 0 && r.cfg.CleanupOnEmpty {
		mode = descriptor.ModeCleanup
	}
	if err := r.patchAll(pc, mode, floor); err != nil {
		resolvePassTotal.WithLabelValues("error").Inc()
		return Outcome{}, err
	}

	// 5) Materialize artifacts.
	if mode == descriptor.ModeUpdate {
		matRes := r.mat.Materialize(ctx, set, r.cfg.IOS.ProjectDir)
		for _, a := range matRes.Artifacts {
			artifactFetchTotal.WithLabelValues(a.Outcome.String()).Inc()
		}
		if !matRes.OK() {
			outcome.OK = false
		}
		pc.Warn(matRes.Warnings()...)
	}

	outcome.Warnings = pc.Warnings()
	outcome.Superseded = r.requests.Load() != ticket

	resolvePassDuration.Observe(time.Since(start).Seconds())
	if outcome.OK {
		resolvePassTotal.WithLabelValues("ok").Inc()
	} else {
		resolvePassTotal.WithLabelValues("failed").Inc()
	}
	pc.Log.Info("resolution pass finished",
		zap.Bool("ok", outcome.OK),
		zap.Bool("superseded", outcome.Superseded),
		zap.Int("dependencies", set.Len()),
		zap.Int("warnings", len(outcome.Warnings)),
		zap.Duration("took", time.Since(start)))
	return outcome, nil
}

// ClearAll removes every generated descriptor (restoring backed-up originals)
// and drops the artifact cache.
func (r *Runner) ClearAll(ctx context.Context) (Outcome, error) {
	ticket := r.requests.Add(1)
	v, err, _ := r.flight.Do(r.cfg.ProjectDir, func() (any, error) {
		pc := newContext(r.log, nil)
		pc.Set = deps.NewResolvedSet()
		outcome := Outcome{OK: true}
		if err := r.patchAll(pc, descriptor.ModeCleanup, r.iosDefaultPlatform(pc)); err != nil {
			return Outcome{}, err
		}
		if r.cfg.CacheDir != "" {
			if err := os.RemoveAll(r.cfg.CacheDir); err != nil {
				return Outcome{}, fmt.Errorf("clear artifact cache: %w", err)
			}
		}
		outcome.Warnings = pc.Warnings()
		outcome.Superseded = r.requests.Load() != ticket
		pc.Log.Info("resolved state cleared")
		return outcome, nil
	})
	if err != nil {
		return Outcome{}, err
	}
	return v.(Outcome), nil
}

func (r *Runner) patchAll(pc *Context, mode descriptor.Mode, floor semver.PlatformVersion) error {
	targets := []struct {
		path   string
		format descriptor.Format
	}{
		{r.cfg.PodfilePath(), r.podfile},
		{r.cfg.Android.GradleFile, r.gradle},
		{r.cfg.SwiftManifestPath(), r.swift},
	}
	r.patcher.DefaultPlatform = floor
	for _, t := range targets {
		res, err := r.patcher.Patch(t.path, t.format, pc.Set, mode)
		if err != nil {
			// Descriptor I/O failures are fatal for the pass: nothing was
			// written for this descriptor and we must not continue as if it
			// had been.
			return fmt.Errorf("patch %s: %w", t.path, err)
		}
		descriptorPatchTotal.WithLabelValues(res.State.String()).Inc()
		pc.Warn(res.Warnings...)
	}
	return nil
}

func (r *Runner) checkPlatformBump(ctx context.Context, pc *Context, eco deps.Ecosystem, floor semver.PlatformVersion, outcome *Outcome) {
	max, keys, ok := pc.Set.MaxRequiredPlatform(eco)
	if !ok || max <= floor {
		return
	}
	bump := PlatformBump{Ecosystem: eco, Version: max, Keys: keys}
	outcome.PlatformBumps = append(outcome.PlatformBumps, bump)
	pc.Warn(fmt.Sprintf("dependencies %s require minimum platform version %s (project default %s)",
		strings.Join(keys, ", "), max, floor))
	if err := r.editor.SetMinimumPlatform(ctx, eco, max); err != nil {
		pc.Warn(fmt.Sprintf("could not raise project platform version to %s: %v", max, err))
	}
}

// iosDefaultPlatform parses the configured default, falling back to 13.0 with
// a warning naming the bad value.
func (r *Runner) iosDefaultPlatform(pc *Context) semver.PlatformVersion {
	v, err := semver.ParsePlatformVersion(r.cfg.IOS.DefaultPlatform)
	if err != nil {
		pc.Warn(fmt.Sprintf("config: malformed ios.defaultPlatform %q, using 13.0", r.cfg.IOS.DefaultPlatform))
		return 130
	}
	return v
}

// discoverProviders scans the project tree for declaration files and appends
// the programmatic registry last, so explicit registrations can overwrite
// file declarations.
func (r *Runner) discoverProviders() []source.Provider {
	var files []string
	_ = filepath.WalkDir(r.cfg.ProjectDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if name := d.Name(); name == ".git" || name == ".depstage" {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(d.Name(), r.cfg.DependencyFileSuffix) {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)

	providers := make([]source.Provider, 0, len(files)+1)
	for _, f := range files {
		providers = append(providers, source.NewXMLFileProvider(f))
	}
	providers = append(providers, r.reg)
	return providers
}
