package descriptor

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/anvil-platform/depstage/internal/deps"
	"github.com/anvil-platform/depstage/internal/semver"
)

// Mode selects what a patch pass does with the descriptor.
type Mode int

const (
	// ModeUpdate regenerates the descriptor from the resolved set.
	ModeUpdate Mode = iota
	// ModeCleanup removes the generated descriptor, restoring a backed-up
	// original when one exists. Used when the resolved set went empty and the
	// caller asked for cleanup, and by the clear-all operation.
	ModeCleanup
)

// State describes what happened to the descriptor file.
type State int

const (
	StateGenerated State = iota
	StateUnchanged
	StateRemoved
	StateRestored
	StateAbsent
)

func (s State) String() string {
	switch s {
	case StateGenerated:
		return "generated"
	case StateUnchanged:
		return "unchanged"
	case StateRemoved:
		return "removed"
	case StateRestored:
		return "restored"
	default:
		return "absent"
	}
}

// PatchResult reports one descriptor patch.
type PatchResult struct {
	State    State
	BackedUp bool
	// Absorbed counts entries recovered from prior content that were not in
	// the resolved set (hand-added pods and entries from a foreign original).
	Absorbed int
	Warnings []string
}

// Patcher owns read/modify/write of descriptor files. The descriptor is
// always rewritten whole from an in-memory model, never string-patched in
// place: a patch either completes atomically or leaves prior on-disk state
// untouched. Callers must serialize passes per descriptor path; the runner's
// single-flight discipline does that.
type Patcher struct {
	store Store
	log   *zap.Logger

	// DefaultPlatform is the platform header used when no resolved
	// declaration requires a minimum (and the floor when one does).
	DefaultPlatform semver.PlatformVersion
}

func NewPatcher(store Store, log *zap.Logger) *Patcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Patcher{store: store, log: log}
}

// Patch drives the per-descriptor state machine:
//
//	Absent           -> Generated (fresh write)
//	ForeignPresent   -> back up original -> Generated
//	GeneratedPresent -> re-parse, re-absorb hand-added entries -> Generated
//	ModeCleanup      -> restore backup if present, else delete -> Absent
//
// Running Patch twice with an unchanged resolved set produces byte-stable
// output; the second run detects identical bytes and does not write.
func (p *Patcher) Patch(path string, f Format, set *deps.ResolvedSet, mode Mode) (PatchResult, error) {
	if mode == ModeCleanup {
		return p.cleanup(path, f)
	}

	content, exists, err := p.store.Read(path)
	if err != nil {
		return PatchResult{}, err
	}

	var res PatchResult
	model := Model{
		Declarations: set.ByEcosystem(f.Ecosystem()),
		Sources:      set.InterleavedSources(f.Ecosystem()),
	}
	model.Platform = p.DefaultPlatform
	if max, _, ok := set.MaxRequiredPlatform(f.Ecosystem()); ok && max > model.Platform {
		model.Platform = max
	}

	inSet := make(map[string]bool)
	for _, d := range model.Declarations {
		inSet[d.Key] = true
	}

	if exists && !IsGenerated(f, content) {
		// Foreign file: preserve it as the backup we restore from later.
		bak := backupPath(path)
		if p.store.Exists(bak) {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("%s: a backup already exists at %s; keeping the older one", path, bak))
			p.log.Warn("foreign descriptor present but backup slot taken",
				zap.String("path", path), zap.String("backup", bak))
		} else {
			if err := p.store.Rename(path, bak); err != nil {
				return PatchResult{}, err
			}
			res.BackedUp = true
		}
		p.absorb(f, string(content), path, set, inSet, &model, &res)
	} else if exists {
		// Our own prior output: recover anything the user hand-added to it.
		p.absorb(f, string(content), path, set, inSet, &model, &res)
	}

	// Entries from a backed-up original survive every regeneration cycle.
	if bak := backupPath(path); p.store.Exists(bak) {
		bakContent, _, err := p.store.Read(bak)
		if err != nil {
			return PatchResult{}, err
		}
		p.absorb(f, string(bakContent), bak, set, inSet, &model, &res)
	}

	rendered := []byte(f.Render(model))
	if exists && string(rendered) == string(content) {
		res.State = StateUnchanged
		return res, nil
	}
	if err := p.store.WriteAtomic(path, rendered); err != nil {
		return PatchResult{}, err
	}
	res.State = StateGenerated
	p.log.Info("descriptor written",
		zap.String("path", path),
		zap.Int("entries", len(model.Declarations)),
		zap.Int("absorbed", res.Absorbed))
	return res, nil
}

// absorb merges declarations parsed from prior content into the model, after
// the resolved set's own entries. The set always wins on key collision; a
// hand-written version the resolved spec does not allow is reported rather
// than silently replaced.
func (p *Patcher) absorb(f Format, content, origin string, set *deps.ResolvedSet, inSet map[string]bool, model *Model, res *PatchResult) {
	decls, sources := f.Parse(content)
	for _, d := range decls {
		if inSet[d.Key] {
			if r, ok := set.Get(d.Key); ok && !r.VersionSpec.Allows(d.VersionSpec.Base) {
				res.Warnings = append(res.Warnings, fmt.Sprintf(
					"%s: entry %s wants version %q but resolves to %q",
					origin, d.Key, d.VersionSpec.Raw, r.VersionSpec.Raw))
			}
			continue
		}
		inSet[d.Key] = true
		d.Provenance = deps.TagProvenance("hand-added in " + origin)
		model.Declarations = append(model.Declarations, d)
		res.Absorbed++
	}
	model.Sources = unionSources(model.Sources, sources)
}

func unionSources(a, b []string) []string {
	seen := make(map[string]bool, len(a))
	for _, s := range a {
		seen[s] = true
	}
	out := a
	for _, s := range b {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func (p *Patcher) cleanup(path string, f Format) (PatchResult, error) {
	content, exists, err := p.store.Read(path)
	if err != nil {
		return PatchResult{}, err
	}
	bak := backupPath(path)

	if exists && !IsGenerated(f, content) {
		// Never delete a file this tool did not generate.
		return PatchResult{
			State:    StateUnchanged,
			Warnings: []string{fmt.Sprintf("%s: not generated by this tool, leaving it in place", path)},
		}, nil
	}

	if exists {
		if err := p.store.Remove(path); err != nil {
			return PatchResult{}, err
		}
	}
	if p.store.Exists(bak) {
		if err := p.store.Rename(bak, path); err != nil {
			return PatchResult{}, err
		}
		p.log.Info("descriptor restored from backup", zap.String("path", path))
		return PatchResult{State: StateRestored}, nil
	}
	if exists {
		p.log.Info("descriptor removed", zap.String("path", path))
		return PatchResult{State: StateRemoved}, nil
	}
	return PatchResult{State: StateAbsent}, nil
}
