package xkb

import "testing"

func newTestModSet() (*Context, *ModSet) {
	ctx := NewContext()
	return ctx, newModSet(ctx)
}

func TestModSetRealModifiersPreDeclared(t *testing.T) {
	_, mods := newTestModSet()
	if mods.Len() != NumRealMods {
		t.Fatalf("Len() = %d, want %d", mods.Len(), NumRealMods)
	}
	for i, name := range realModNames {
		if got := mods.name(ModIndex(i)); got == AtomNone {
			t.Fatalf("real modifier %d (%s) has no name", i, name)
		}
	}
}

func TestModSetDeclareVirtualAppendsAndIsIdempotent(t *testing.T) {
	ctx, mods := newTestModSet()
	numLock := ctx.internAtom("NumLock")

	idx1, ok := mods.declareVirtual(numLock)
	if !ok {
		t.Fatalf("declareVirtual failed")
	}
	if idx1 != NumRealMods {
		t.Fatalf("first virtual modifier got index %d, want %d", idx1, NumRealMods)
	}

	idx2, ok := mods.declareVirtual(numLock)
	if !ok || idx2 != idx1 {
		t.Fatalf("re-declaring the same virtual modifier changed its index: %d != %d", idx2, idx1)
	}
	if mods.Len() != NumRealMods+1 {
		t.Fatalf("Len() = %d, want %d", mods.Len(), NumRealMods+1)
	}
	if !mods.isVirtual(idx1) {
		t.Fatalf("declared virtual modifier not reported as virtual")
	}
}

func TestModSetDeclareVirtualFullTable(t *testing.T) {
	ctx, mods := newTestModSet()
	for i := 0; mods.Len() < NumModsMax; i++ {
		name := ctx.internAtom("V" + string(rune('a'+i)))
		if _, ok := mods.declareVirtual(name); !ok {
			t.Fatalf("declareVirtual failed before reaching NumModsMax (at Len()=%d)", mods.Len())
		}
	}
	if _, ok := mods.declareVirtual(ctx.internAtom("Overflow")); ok {
		t.Fatalf("declareVirtual succeeded past NumModsMax")
	}
}

func TestModSetMaskAndIndex(t *testing.T) {
	ctx, mods := newTestModSet()
	shift := ctx.internAtom("Shift")
	idx, ok := mods.index(shift)
	if !ok || idx != 0 {
		t.Fatalf("index(Shift) = (%d, %v), want (0, true)", idx, ok)
	}
	mask, ok := mods.mask(shift)
	if !ok || mask != ModShift {
		t.Fatalf("mask(Shift) = (%#x, %v), want (%#x, true)", mask, ok, ModShift)
	}
}

func TestModSetResolveToRealProjectsVirtualModifiers(t *testing.T) {
	ctx, mods := newTestModSet()
	numLock := ctx.internAtom("NumLock")
	idx, _ := mods.declareVirtual(numLock)
	mods.setMapping(idx, ModMod2)

	virtualMask := ModMask(1) << uint(idx)
	real := mods.resolveToReal(virtualMask | ModShift)
	if real != ModMod2|ModShift {
		t.Fatalf("resolveToReal = %#x, want %#x", real, ModMod2|ModShift)
	}
}

func TestModMaskContainsAndIntersects(t *testing.T) {
	m := ModShift | ModControl
	if !m.Contains(ModShift) {
		t.Fatalf("Contains(Shift) = false")
	}
	if m.Contains(ModLock) {
		t.Fatalf("Contains(Lock) = true")
	}
	if !m.Intersects(ModLock | ModShift) {
		t.Fatalf("Intersects(Lock|Shift) = false")
	}
	if m.Intersects(ModLock | ModMod1) {
		t.Fatalf("Intersects(Lock|Mod1) = true")
	}
}
