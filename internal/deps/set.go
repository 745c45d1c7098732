package deps

import (
	"github.com/anvil-platform/depstage/internal/semver"
)

// ResolvedSet is the deduplicated, conflict-resolved mapping that drives
// materialization and descriptor generation. Iteration order is insertion
// order, so repeated runs with identical inputs generate byte-identical files.
type ResolvedSet struct {
	keys  []string
	byKey map[string]Declaration
}

func NewResolvedSet() *ResolvedSet {
	return &ResolvedSet{byKey: make(map[string]Declaration)}
}

// Put inserts or replaces the declaration under its logical key. Replacing
// keeps the key's original position.
func (s *ResolvedSet) Put(d Declaration) {
	if _, ok := s.byKey[d.Key]; !ok {
		s.keys = append(s.keys, d.Key)
	}
	s.byKey[d.Key] = d
}

func (s *ResolvedSet) Get(key string) (Declaration, bool) {
	d, ok := s.byKey[key]
	return d, ok
}

func (s *ResolvedSet) Len() int {
	return len(s.keys)
}

// Keys returns the logical keys in insertion order.
func (s *ResolvedSet) Keys() []string {
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// Declarations returns all declarations in insertion order.
func (s *ResolvedSet) Declarations() []Declaration {
	out := make([]Declaration, 0, len(s.keys))
	for _, k := range s.keys {
		out = append(out, s.byKey[k])
	}
	return out
}

// ByEcosystem returns the declarations of one ecosystem, in insertion order.
func (s *ResolvedSet) ByEcosystem(eco Ecosystem) []Declaration {
	var out []Declaration
	for _, k := range s.keys {
		if d := s.byKey[k]; d.Ecosystem == eco {
			out = append(out, d)
		}
	}
	return out
}

// MaxRequiredPlatform returns the highest minimum platform version required by
// any declaration of the given ecosystem, with the keys requiring it.
// Declarations with an unset minimum are ignored.
func (s *ResolvedSet) MaxRequiredPlatform(eco Ecosystem) (semver.PlatformVersion, []string, bool) {
	var entries []semver.MinimumEntry
	for _, d := range s.ByEcosystem(eco) {
		entries = append(entries, semver.MinimumEntry{Key: d.Key, Minimum: d.MinPlatform})
	}
	return semver.BucketByMinimum(entries).Highest()
}

// InterleavedSources merges every declaration's source list into one ordered,
// duplicate-free list. Per-declaration relative order is preserved and lists
// are interleaved round-robin: source[0] of every declaration, then source[1],
// and so on. Duplicates keep their first occurrence, and a duplicate does not
// consume its declaration's turn — the declaration's next unseen source fills
// the slot, so [a,b] and [a,c] interleave to [a,c,b].
func (s *ResolvedSet) InterleavedSources(eco Ecosystem) []string {
	decls := s.ByEcosystem(eco)
	cursors := make([]int, len(decls))
	seen := make(map[string]bool)
	var out []string
	for {
		advanced := false
		for i, d := range decls {
			for cursors[i] < len(d.Sources) {
				src := d.Sources[cursors[i]]
				cursors[i]++
				advanced = true
				if seen[src] {
					continue
				}
				seen[src] = true
				out = append(out, src)
				break
			}
		}
		if !advanced {
			return out
		}
	}
}
