package xkb

import "testing"

func TestBuildKeyShorthandSingleGroup(t *testing.T) {
	ctx, mods := newTestModSet()
	sec := parseSection(t, FileSymbols, `
		xkb_symbols "x" {
			key <AD01> { [ a, A ] };
		};
	`)
	info, err := compileSymbols(ctx, sec, MergeDefault, mods)
	if err != nil {
		t.Fatalf("compileSymbols: %v", err)
	}
	key, ok := info.keys.get(ctx.internAtom("AD01"))
	if !ok {
		t.Fatalf("key AD01 not found")
	}
	if len(key.Groups) != 1 || len(key.Groups[0].Levels) != 2 {
		t.Fatalf("Groups = %+v, want 1 group with 2 levels", key.Groups)
	}
}

func TestBuildKeyMultiGroupFullBody(t *testing.T) {
	ctx, mods := newTestModSet()
	sec := parseSection(t, FileSymbols, `
		xkb_symbols "x" {
			key <AD01> {
				type[Group1] = "TWO_LEVEL";
				symbols[Group1] = [ a, A ];
				symbols[Group2] = [ aacute, Aacute ];
			};
		};
	`)
	info, err := compileSymbols(ctx, sec, MergeDefault, mods)
	if err != nil {
		t.Fatalf("compileSymbols: %v", err)
	}
	key, _ := info.keys.get(ctx.internAtom("AD01"))
	if len(key.Groups) != 2 {
		t.Fatalf("Groups = %d, want 2", len(key.Groups))
	}
	if ctx.atomText(key.Groups[0].Type) != "TWO_LEVEL" {
		t.Errorf("Groups[0].Type = %q, want TWO_LEVEL", ctx.atomText(key.Groups[0].Type))
	}
}

func TestBuildKeyGroupsRedirectStoresZeroBasedTarget(t *testing.T) {
	ctx, mods := newTestModSet()
	sec := parseSection(t, FileSymbols, `
		xkb_symbols "x" {
			key <AD01> {
				symbols[Group1] = [ a ];
				groupsRedirect = 2;
			};
		};
	`)
	info, err := compileSymbols(ctx, sec, MergeDefault, mods)
	if err != nil {
		t.Fatalf("compileSymbols: %v", err)
	}
	key, _ := info.keys.get(ctx.internAtom("AD01"))
	if key.GroupsWrap != GroupsRedirect || key.RedirectGroup != 1 {
		t.Fatalf("key = %+v, want GroupsRedirect with RedirectGroup=1", key)
	}
}

func TestApplyModMapSetsModMapMods(t *testing.T) {
	ctx, mods := newTestModSet()
	sec := parseSection(t, FileSymbols, `
		xkb_symbols "x" {
			key <LFSH> { [ Shift_L ] };
			modifier_map Shift { <LFSH> };
		};
	`)
	info, err := compileSymbols(ctx, sec, MergeDefault, mods)
	if err != nil {
		t.Fatalf("compileSymbols: %v", err)
	}
	key, ok := info.keys.get(ctx.internAtom("LFSH"))
	if !ok || key.ModMapMods != ModShift {
		t.Fatalf("key LFSH ModMapMods = %#x, want %#x", key.ModMapMods, ModShift)
	}
}

func TestApplyModMapCreatesStubKeyForUndeclaredName(t *testing.T) {
	ctx, mods := newTestModSet()
	sec := parseSection(t, FileSymbols, `
		xkb_symbols "x" {
			modifier_map Control { <LCTL> };
		};
	`)
	info, err := compileSymbols(ctx, sec, MergeDefault, mods)
	if err != nil {
		t.Fatalf("compileSymbols: %v", err)
	}
	key, ok := info.keys.get(ctx.internAtom("LCTL"))
	if !ok {
		t.Fatalf("expected a stub key for LCTL created by modifier_map")
	}
	if key.ModMapMods != ModControl {
		t.Errorf("ModMapMods = %#x, want %#x", key.ModMapMods, ModControl)
	}
}

func TestMergeSymbolsUnionsModMapModsOnReplace(t *testing.T) {
	ctx, _ := newTestModSet()
	dst := newSymbolsInfo()
	oldKey := &Key{Name: ctx.internAtom("LFSH"), ModMapMods: ModShift}
	dst.keys.put(oldKey.Name, oldKey, MergeDefault, true, nil)

	src := newSymbolsInfo()
	newKey := &Key{Name: ctx.internAtom("LFSH"), ModMapMods: ModControl}
	src.keys.put(newKey.Name, newKey, MergeDefault, true, nil)

	mergeSymbols(dst, src, MergeOverride)

	got, _ := dst.keys.get(ctx.internAtom("LFSH"))
	want := ModShift | ModControl
	if got.ModMapMods != want {
		t.Fatalf("ModMapMods after override-merge = %#x, want %#x (union of both sides)", got.ModMapMods, want)
	}
}

func TestGroupIndexOfVariants(t *testing.T) {
	if n := groupIndexOf(nil); n != 1 {
		t.Errorf("groupIndexOf(nil) = %d, want 1", n)
	}
	if n := groupIndexOf(Ident{Name: "Group3"}); n != 3 {
		t.Errorf("groupIndexOf(Group3) = %d, want 3", n)
	}
	if n := groupIndexOf(IntLit{Value: 2}); n != 2 {
		t.Errorf("groupIndexOf(IntLit{2}) = %d, want 2", n)
	}
}
