package xkb

import "testing"

const basicKeymapSrc = `
xkb_keymap {
	xkb_keycodes "basic" {
		<AD01> = 24;
		<LFSH> = 50;
		indicator 1 = "Caps Lock";
	};
	xkb_types "basic" {
		type "TWO_LEVEL" {
			modifiers = Shift;
			map[Shift] = 2;
			level_name[1] = "Base";
			level_name[2] = "Shift";
		};
		type "ONE_LEVEL" {
			modifiers = None;
			level_name[1] = "Base";
		};
	};
	xkb_compat "basic" {
		interpret Shift_L+AnyOf(all) {
			action = SetMods(modifiers=modMapMods,clearLocks);
		};
	};
	xkb_symbols "basic" {
		key <AD01> {
			type[Group1] = "TWO_LEVEL";
			symbols[Group1] = [ a, A ];
		};
		key <LFSH> { [ Shift_L ] };
		modifier_map Shift { <LFSH> };
	};
};
`

func TestBuildFromStringEndToEnd(t *testing.T) {
	ctx := NewContext()
	km, err := BuildFromString(ctx, basicKeymapSrc, TextV1)
	if err != nil {
		t.Fatalf("BuildFromString: %v", err)
	}

	kc, ok := km.KeycodeByName("AD01")
	if !ok || kc != 24 {
		t.Fatalf("KeycodeByName(AD01) = (%d, %v), want (24, true)", kc, ok)
	}
	if km.KeyName(kc) != "AD01" {
		t.Errorf("KeyName(24) = %q, want AD01", km.KeyName(kc))
	}
	if km.MinKeycode() != 24 || km.MaxKeycode() != 50 {
		t.Errorf("Min/MaxKeycode = %d/%d, want 24/50", km.MinKeycode(), km.MaxKeycode())
	}

	syms := km.KeyGetSymsByLevel(kc, 0, 0)
	if len(syms) != 1 || syms[0] != Keysym('a') {
		t.Fatalf("KeyGetSymsByLevel(AD01, 0, 0) = %v, want [a]", syms)
	}
	syms = km.KeyGetSymsByLevel(kc, 0, 1)
	if len(syms) != 1 || syms[0] != Keysym('A') {
		t.Fatalf("KeyGetSymsByLevel(AD01, 0, 1) = %v, want [A]", syms)
	}

	if !km.KeyRepeats(kc) {
		t.Errorf("KeyRepeats(AD01) = false, want true (default)")
	}

	if km.NumLevelsForKeyGroup(kc, 0) != 2 {
		t.Errorf("NumLevelsForKeyGroup(AD01, 0) = %d, want 2", km.NumLevelsForKeyGroup(kc, 0))
	}

	if km.LedName(1) != "Caps Lock" {
		t.Errorf("LedName(1) = %q, want Caps Lock", km.LedName(1))
	}

	idx, ok := km.ModifierIndex("Shift")
	if !ok || idx != 0 {
		t.Fatalf("ModifierIndex(Shift) = (%d, %v), want (0, true)", idx, ok)
	}
	if km.ModifierName(idx) != "Shift" {
		t.Errorf("ModifierName(0) = %q, want Shift", km.ModifierName(idx))
	}
}

func TestBuildFromStringRejectsNonKeymapDocument(t *testing.T) {
	ctx := NewContext()
	if _, err := BuildFromString(ctx, `xkb_symbols "x" {};`, TextV1); err == nil {
		t.Fatalf("expected an error for a non xkb_keymap document")
	}
}

func TestBuildFromStringRejectsUnsupportedFormat(t *testing.T) {
	ctx := NewContext()
	if _, err := BuildFromString(ctx, basicKeymapSrc, KeymapFormat(99)); err == nil {
		t.Fatalf("expected an error for an unsupported KeymapFormat")
	}
}

func TestBuildFromStringMissingComponentErrors(t *testing.T) {
	ctx := NewContext()
	src := `
		xkb_keymap {
			xkb_keycodes "x" { <AD01> = 24; };
			xkb_types "x" { };
			xkb_compat "x" { };
		};
	`
	if _, err := BuildFromString(ctx, src, TextV1); err == nil {
		t.Fatalf("expected ErrMissingComponent for a keymap missing xkb_symbols")
	}
}

func TestKeycodeByNameUnknownNameFails(t *testing.T) {
	ctx := NewContext()
	km, err := BuildFromString(ctx, basicKeymapSrc, TextV1)
	if err != nil {
		t.Fatalf("BuildFromString: %v", err)
	}
	if _, ok := km.KeycodeByName("NOSUCHKEY"); ok {
		t.Fatalf("KeycodeByName(NOSUCHKEY) = true, want false")
	}
}
