package xkb

// ModIndex is an index in 0..32 into a ModSet. The first 8 indices are the
// real modifiers (Shift, Lock, Control, Mod1..Mod5); the rest are virtual
// modifiers named by the keymap.
type ModIndex uint8

// ModMask is a 32-bit bitmask over modifier indices. Structurally this is
// the generalization of bubbletea's KeyMod — a closed bitmask with a
// Contains-style membership test — from 10 fixed UI modifiers to 32
// real-plus-virtual named slots (see DESIGN.md).
type ModMask uint32

// Real modifier bit positions, fixed by the X11 protocol.
const (
	ModShift ModMask = 1 << iota
	ModLock
	ModControl
	ModMod1
	ModMod2
	ModMod3
	ModMod4
	ModMod5
)

// NumRealMods is the fixed count of real modifiers (spec §3).
const NumRealMods = 8

// NumModsMax is the total number of modifier slots a ModSet may hold.
const NumModsMax = 32

// Contains reports whether m has every bit set that mods has set.
func (m ModMask) Contains(mods ModMask) bool { return m&mods == mods }

// Intersects reports whether m and mods share any set bit.
func (m ModMask) Intersects(mods ModMask) bool { return m&mods != 0 }

// ModType classifies a ModSet entry.
type ModType int

const (
	ModTypeReal ModType = iota
	ModTypeVirtual
)

// modEntry is one named slot in a ModSet: an index, whether it is real or
// virtual, and — for virtual modifiers — the real-mod mask it projects
// onto once resolved by the finalizer (spec §4.10 step 3).
type modEntry struct {
	name    Atom
	index   ModIndex
	kind    ModType
	mapping ModMask // virtual-to-real projection; zero for real mods
}

// ModSet is the ordered name -> (index, type, mapping) table from spec §3.
// The first NumRealMods entries are always the fixed real modifiers; new
// virtual modifiers are appended as declared.
type ModSet struct {
	entries []modEntry
	byName  map[Atom]ModIndex
}

var realModNames = [NumRealMods]string{
	"Shift", "Lock", "Control", "Mod1", "Mod2", "Mod3", "Mod4", "Mod5",
}

// newModSet returns a ModSet pre-populated with the 8 real modifiers.
func newModSet(ctx *Context) *ModSet {
	ms := &ModSet{byName: make(map[Atom]ModIndex, NumModsMax)}
	for i, name := range realModNames {
		a := ctx.internAtom(name)
		ms.entries = append(ms.entries, modEntry{name: a, index: ModIndex(i), kind: ModTypeReal})
		ms.byName[a] = ModIndex(i)
	}
	return ms
}

// declareVirtual appends a new virtual modifier if name isn't already
// declared (real or virtual), returning its index. If the set is already
// full (32 slots) it returns (0, false).
func (ms *ModSet) declareVirtual(name Atom) (ModIndex, bool) {
	if idx, ok := ms.byName[name]; ok {
		return idx, true
	}
	if len(ms.entries) >= NumModsMax {
		return 0, false
	}
	idx := ModIndex(len(ms.entries))
	ms.entries = append(ms.entries, modEntry{name: name, index: idx, kind: ModTypeVirtual})
	ms.byName[name] = idx
	return idx, true
}

// index returns the ModIndex for an atom name, and whether it is declared.
func (ms *ModSet) index(name Atom) (ModIndex, bool) {
	idx, ok := ms.byName[name]
	return idx, ok
}

// mask returns the single-bit ModMask for a declared modifier name.
func (ms *ModSet) mask(name Atom) (ModMask, bool) {
	idx, ok := ms.byName[name]
	if !ok {
		return 0, false
	}
	return 1 << idx, true
}

// name returns the declared name for an index, or AtomNone.
func (ms *ModSet) name(idx ModIndex) Atom {
	if int(idx) >= len(ms.entries) {
		return AtomNone
	}
	return ms.entries[idx].name
}

// isVirtual reports whether idx names a virtual (non-real) modifier.
func (ms *ModSet) isVirtual(idx ModIndex) bool {
	return int(idx) >= NumRealMods
}

// setMapping records the real-mod projection for a virtual modifier;
// called by the finalizer once interpretations are known to claim virtual
// modifiers (spec §4.10 step 1).
func (ms *ModSet) setMapping(idx ModIndex, real ModMask) {
	if int(idx) >= len(ms.entries) {
		return
	}
	ms.entries[idx].mapping |= real &^ ms.virtualMask() // only accumulate real bits
}

// virtualMask returns the mask of bits that are virtual modifier indices.
func (ms *ModSet) virtualMask() ModMask {
	var m ModMask
	for i := NumRealMods; i < len(ms.entries); i++ {
		m |= 1 << uint(i)
	}
	return m
}

// resolveToReal projects every virtual-modifier bit in mask to its mapped
// real-mod bits, ORing them into the result alongside any real bits
// already present in mask (spec §4.10 step 3). Unmapped virtual modifiers
// contribute no real bits.
func (ms *ModSet) resolveToReal(mask ModMask) ModMask {
	real := mask & (ModMask(1)<<NumRealMods - 1)
	for i := NumRealMods; i < len(ms.entries); i++ {
		bit := ModMask(1) << uint(i)
		if mask&bit != 0 {
			real |= ms.entries[i].mapping
		}
	}
	return real
}

// Len returns how many modifiers (real + virtual) are declared.
func (ms *ModSet) Len() int { return len(ms.entries) }
