package xkb

import "testing"

func parseTypesSectionWithMods(t *testing.T, src string) (*Context, *Section, *ModSet) {
	t.Helper()
	ctx, mods := newTestModSet()
	xf, err := ParseFile(ctx, "(test)", []byte(src))
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	return ctx, xf.Section, mods
}

func TestCompileTypesBasicTwoLevel(t *testing.T) {
	ctx, sec, mods := parseTypesSectionWithMods(t, `
		xkb_types "x" {
			type "TWO_LEVEL" {
				modifiers = Shift;
				map[Shift] = 2;
				level_name[1] = "Base";
				level_name[2] = "Shift";
			};
		};
	`)
	info, err := compileTypes(ctx, sec, MergeDefault, mods)
	if err != nil {
		t.Fatalf("compileTypes: %v", err)
	}
	kt, ok := info.types.get(ctx.internAtom("TWO_LEVEL"))
	if !ok {
		t.Fatalf("type TWO_LEVEL not found")
	}
	if kt.Mods != ModShift {
		t.Errorf("Mods = %#x, want %#x", kt.Mods, ModShift)
	}
	if kt.NumLevels != 2 {
		t.Fatalf("NumLevels = %d, want 2", kt.NumLevels)
	}
	level, _ := kt.levelForMods(ModShift)
	if level != 1 {
		t.Errorf("levelForMods(Shift) = %d, want 1", level)
	}
	level, _ = kt.levelForMods(0)
	if level != 0 {
		t.Errorf("levelForMods(0) = %d, want 0", level)
	}
	if ctx.atomText(kt.LevelNames[0]) != "Base" || ctx.atomText(kt.LevelNames[1]) != "Shift" {
		t.Errorf("LevelNames = %v, want [Base Shift]", kt.LevelNames)
	}
}

func TestBuildKeyTypePreserveEntry(t *testing.T) {
	ctx, sec, mods := parseTypesSectionWithMods(t, `
		xkb_types "x" {
			type "X" {
				modifiers = Shift+Lock;
				map[Shift+Lock] = 1;
				preserve[Shift+Lock] = Lock;
			};
		};
	`)
	info, _ := compileTypes(ctx, sec, MergeDefault, mods)
	kt, _ := info.types.get(ctx.internAtom("X"))
	entry, ok := kt.findMapEntry(ModShift | ModLock)
	if !ok {
		t.Fatalf("no map entry for Shift+Lock")
	}
	if entry.Preserve != ModLock {
		t.Errorf("Preserve = %#x, want %#x", entry.Preserve, ModLock)
	}
}

func TestAddOrUpdateEntryConflictingLevelKeepsLatest(t *testing.T) {
	ctx, _ := newTestModSet()
	kt := &KeyType{NumLevels: 1, Mods: ModShift}
	addOrUpdateEntry(ctx, "x", kt, ModShift, 1, 0, false)
	addOrUpdateEntry(ctx, "x", kt, ModShift, 2, 0, false)
	if len(kt.Entries) != 1 {
		t.Fatalf("Entries = %d, want 1 (same mask should update in place)", len(kt.Entries))
	}
	if kt.Entries[0].Level != 2 {
		t.Errorf("Level = %d, want 2 (the later map entry should win)", kt.Entries[0].Level)
	}
}

func TestAddOrUpdateEntryClipsMaskToTypeModifiers(t *testing.T) {
	ctx, _ := newTestModSet()
	kt := &KeyType{NumLevels: 1, Mods: ModShift}
	addOrUpdateEntry(ctx, "x", kt, ModShift|ModControl, 1, 0, false)
	if len(kt.Entries) != 1 {
		t.Fatalf("Entries = %d, want 1", len(kt.Entries))
	}
	if kt.Entries[0].Mods != ModShift {
		t.Fatalf("Entries[0].Mods = %#x, want %#x (bits outside the type's modifiers dropped)", kt.Entries[0].Mods, ModShift)
	}
}

func TestMergeTypesAugmentPreservesExisting(t *testing.T) {
	ctx, _ := newTestModSet()
	dst := newTypesInfo()
	original := &KeyType{Name: ctx.internAtom("X"), NumLevels: 1}
	dst.types.put(ctx.internAtom("X"), original, MergeDefault, true, nil)

	src := newTypesInfo()
	replacement := &KeyType{Name: ctx.internAtom("X"), NumLevels: 4}
	src.types.put(ctx.internAtom("X"), replacement, MergeDefault, true, nil)

	mergeTypes(dst, src, MergeAugment)

	got, _ := dst.types.get(ctx.internAtom("X"))
	if got.NumLevels != 1 {
		t.Errorf("NumLevels = %d, want 1 (augment must not replace an existing type)", got.NumLevels)
	}
}

func TestCompileTypesVModStmtDeclaresVirtualModifier(t *testing.T) {
	ctx, sec, mods := parseTypesSectionWithMods(t, `
		xkb_types "x" {
			virtual_modifiers NumLock;
		};
	`)
	if _, err := compileTypes(ctx, sec, MergeDefault, mods); err != nil {
		t.Fatalf("compileTypes: %v", err)
	}
	if _, ok := mods.index(ctx.internAtom("NumLock")); !ok {
		t.Fatalf("virtual modifier NumLock was not declared")
	}
}
