package resolver

import (
	"go.uber.org/zap"

	"github.com/anvil-platform/depstage/internal/deps"
	"github.com/anvil-platform/depstage/internal/source"
)

// Resolver folds an ordered declaration batch into a ResolvedSet, applying the
// deterministic precedence rules:
//
//   - first-seen order assigns positions; a later winner keeps the loser's slot
//   - a repeated key replaces the survivor only when the survivor allows
//     overwrite or the newcomer forces it (programmatic registrations do)
//   - otherwise first wins and the newcomer is recorded as suppressed
//   - swift packages never suppress: two declarations of the same package URL
//     merge, higher version winning and absorbing both product lists
//
// No step depends on map iteration order; identical input always yields an
// identical set.
type Resolver struct {
	log *zap.Logger
}

func New(log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{log: log}
}

func (r *Resolver) Resolve(batch source.Batch) (*deps.ResolvedSet, Report, error) {
	set := deps.NewResolvedSet()
	var report Report

	for _, d := range batch.Declarations {
		if d.Key == "" {
			return nil, Report{}, ErrMissingKey
		}

		existing, ok := set.Get(d.Key)
		if !ok {
			set.Put(d)
			continue
		}

		if d.Ecosystem == deps.EcosystemSwift && existing.Ecosystem == deps.EcosystemSwift {
			merged := mergeSwiftPackages(existing, d)
			set.Put(merged)
			report.Merges = append(report.Merges, MergeNote{
				Key:      d.Key,
				Chosen:   merged.Provenance,
				Absorbed: otherProvenance(merged, existing, d),
			})
			continue
		}

		// Identical redeclarations are never worth a warning, whatever the
		// overwrite policy says.
		if existing.Equivalent(d) {
			continue
		}

		if existing.OverwriteAllowed || d.OverwriteAllowed {
			set.Put(d)
			report.Conflicts = append(report.Conflicts, Conflict{
				Key:               d.Key,
				Winner:            d.Provenance,
				WinnerVersion:     d.VersionSpec.Raw,
				Suppressed:        existing.Provenance,
				SuppressedVersion: existing.VersionSpec.Raw,
				Overwrite:         true,
			})
			r.log.Debug("declaration overwritten",
				zap.String("key", d.Key),
				zap.String("winner", d.Provenance.String()),
				zap.String("suppressed", existing.Provenance.String()))
			continue
		}

		// First wins.
		report.Conflicts = append(report.Conflicts, Conflict{
			Key:               d.Key,
			Winner:            existing.Provenance,
			WinnerVersion:     existing.VersionSpec.Raw,
			Suppressed:        d.Provenance,
			SuppressedVersion: d.VersionSpec.Raw,
		})
		r.log.Debug("declaration suppressed, first wins",
			zap.String("key", d.Key),
			zap.String("winner", existing.Provenance.String()),
			zap.String("suppressed", d.Provenance.String()))
	}

	return set, report, nil
}

func otherProvenance(merged, a, b deps.Declaration) deps.Provenance {
	if merged.Provenance == a.Provenance {
		return b.Provenance
	}
	return a.Provenance
}
