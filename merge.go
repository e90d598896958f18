package xkb

import "golang.org/x/exp/maps"

// effectiveMergeMode resolves a statement's own merge mode against the
// mode inherited from the include expression that pulled its file in:
// MergeDefault defers to the inherited mode, any explicit mode on the
// statement wins. Grounded on types.c's
// "type->merge = (merge == MERGE_DEFAULT ? type->merge : merge)".
func effectiveMergeMode(inherited, own MergeMode) MergeMode {
	if own == MergeDefault {
		return inherited
	}
	return own
}

// mergeTable is the add-or-replace-or-ignore conflict table shared by the
// four component compilers (keycodes names, key types, compat interprets,
// symbols keys): a later definition under MergeReplace/MergeOverride
// replaces the earlier one, otherwise the earlier definition wins and a
// conflict is reported through warn.
type mergeTable[K comparable, V any] struct {
	order []K
	byKey map[K]V
}

func newMergeTable[K comparable, V any]() *mergeTable[K, V] {
	return &mergeTable[K, V]{byKey: make(map[K]V)}
}

// put inserts or resolves a conflict for key. onConflict, when non-nil, is
// called on every conflict; sameFile is accepted but not consulted, so a
// conflict within one section body and one arriving via an included file
// are reported alike.
func (t *mergeTable[K, V]) put(key K, value V, mode MergeMode, sameFile bool, onConflict func(old, new V, replaced bool)) {
	old, exists := t.byKey[key]
	if !exists {
		t.order = append(t.order, key)
		t.byKey[key] = value
		return
	}
	replace := mode == MergeReplace || mode == MergeOverride
	if onConflict != nil {
		onConflict(old, value, replace)
	}
	if replace {
		t.byKey[key] = value
	}
	_ = sameFile
}

func (t *mergeTable[K, V]) get(key K) (V, bool) {
	v, ok := t.byKey[key]
	return v, ok
}

// values returns entries in first-inserted order, the way darray_foreach
// preserves declaration order in the original implementation.
func (t *mergeTable[K, V]) values() []V {
	out := make([]V, 0, len(t.order))
	for _, k := range t.order {
		out = append(out, t.byKey[k])
	}
	return out
}

func (t *mergeTable[K, V]) keys() []K {
	return append([]K(nil), t.order...)
}

func (t *mergeTable[K, V]) len() int { return len(t.order) }

// mergeMaps folds src into dst, applying mode the way MergeIncludedKeyTypes
// folds one file's whole table into another's: MergeAugment only fills
// gaps, everything else (including MergeDefault at the top level) lets src
// win on conflicting keys.
func mergeMaps[K comparable, V any](dst, src map[K]V, mode MergeMode) {
	for k, v := range src {
		if _, exists := dst[k]; exists && mode == MergeAugment {
			continue
		}
		dst[k] = v
	}
}

// mergedKeys returns the union of two maps' keys, a's keys first. Map
// iteration order is unspecified within each half, so this is only a
// dedup, not a stable sort.
func mergedKeys[K comparable, V any](a, b map[K]V) []K {
	seen := make(map[K]bool, len(a)+len(b))
	var out []K
	for _, m := range []map[K]V{a, b} {
		for _, k := range maps.Keys(m) {
			if !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		}
	}
	return out
}
