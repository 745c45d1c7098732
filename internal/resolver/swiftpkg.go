package resolver

import (
	"github.com/anvil-platform/depstage/internal/deps"
	"github.com/anvil-platform/depstage/internal/semver"
)

// mergeSwiftPackages combines two declarations of the same swift package URL.
// Independent plugins routinely reference different products of one package,
// so neither declaration suppresses the other:
//
//   - the higher semantic version wins outright (unconstrained sorts lowest,
//     ties keep the earlier declaration) and supplies provenance and version
//   - product lists union, winner's first, duplicates collapsed by name
//   - a duplicated product merges WeakLink by AND (weakest link: the product
//     is only weak-linked if every declarer asked for it) and Replaces by
//     ordered union
//   - sources union preserving order, minimum platform takes the max
func mergeSwiftPackages(a, b deps.Declaration) deps.Declaration {
	winner, loser := a, b
	if semver.Compare(b.VersionSpec.Base, a.VersionSpec.Base) > 0 {
		winner, loser = b, a
	}

	merged := winner
	merged.Products = mergeProducts(winner.Products, loser.Products)
	merged.Sources = unionStrings(winner.Sources, loser.Sources)
	if loser.MinPlatform > merged.MinPlatform {
		merged.MinPlatform = loser.MinPlatform
	}
	// A merged package stays replaceable only if both declarers allowed it.
	merged.OverwriteAllowed = winner.OverwriteAllowed && loser.OverwriteAllowed
	return merged
}

func mergeProducts(primary, secondary []deps.SwiftProduct) []deps.SwiftProduct {
	out := make([]deps.SwiftProduct, 0, len(primary)+len(secondary))
	index := make(map[string]int)
	for _, lists := range [][]deps.SwiftProduct{primary, secondary} {
		for _, p := range lists {
			i, ok := index[p.Name]
			if !ok {
				index[p.Name] = len(out)
				out = append(out, p)
				continue
			}
			out[i].WeakLink = out[i].WeakLink && p.WeakLink
			out[i].Replaces = unionStrings(out[i].Replaces, p.Replaces)
		}
	}
	return out
}

func unionStrings(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	seen := make(map[string]bool)
	for _, list := range [][]string{a, b} {
		for _, s := range list {
			if seen[s] {
				continue
			}
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
