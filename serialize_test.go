package xkb

import "testing"

func TestSerializeContainsExpectedSections(t *testing.T) {
	ctx := NewContext()
	km, err := BuildFromString(ctx, basicKeymapSrc, TextV1)
	if err != nil {
		t.Fatalf("BuildFromString: %v", err)
	}
	out := km.Serialize()

	for _, want := range []string{
		"xkb_keymap {",
		"xkb_keycodes {",
		"<AD01> = 24;",
		"<LFSH> = 50;",
		`indicator 1 = "Caps Lock";`,
		"xkb_types {",
		`type "TWO_LEVEL"`,
		"xkb_compat {",
		"xkb_symbols {",
		"key <AD01>",
	} {
		if !containsSubstring(out, want) {
			t.Errorf("Serialize() output missing %q\n---\n%s", want, out)
		}
	}
}

func TestSerializeRoundTripPreservesObservableState(t *testing.T) {
	ctx := NewContext()
	km, err := BuildFromString(ctx, basicKeymapSrc, TextV1)
	if err != nil {
		t.Fatalf("BuildFromString: %v", err)
	}
	out := km.Serialize()

	ctx2 := NewContext()
	km2, err := BuildFromString(ctx2, out, TextV1)
	if err != nil {
		t.Fatalf("BuildFromString(serialized output): %v\n---\n%s", err, out)
	}

	kc, ok := km2.KeycodeByName("AD01")
	if !ok || kc != 24 {
		t.Fatalf("round-tripped KeycodeByName(AD01) = (%d, %v), want (24, true)", kc, ok)
	}
	if got := km2.MinKeycode(); got != km.MinKeycode() {
		t.Errorf("MinKeycode = %d, want %d", got, km.MinKeycode())
	}
	if got := km2.MaxKeycode(); got != km.MaxKeycode() {
		t.Errorf("MaxKeycode = %d, want %d", got, km.MaxKeycode())
	}
}

func TestSerializeModMaskRendersNoneAndNamedBits(t *testing.T) {
	ctx, mods := newTestModSet()
	if got := serializeModMask(ctx, mods, 0); got != "None" {
		t.Fatalf("serializeModMask(0) = %q, want None", got)
	}
	if got := serializeModMask(ctx, mods, ModShift); got != "Shift" {
		t.Fatalf("serializeModMask(Shift) = %q, want Shift", got)
	}
}

func TestSerializeActionRendersSetModsAndGroup(t *testing.T) {
	ctx, mods := newTestModSet()
	got := serializeAction(ctx, mods, ModAction{Kind: ModActionSet, Mods: ModShift})
	if got != "SetMods(modifiers=Shift)" {
		t.Fatalf("serializeAction(SetMods) = %q, want SetMods(modifiers=Shift)", got)
	}
	got = serializeAction(ctx, mods, GroupAction{Kind: GroupActionSet, Relative: true, Group: 1})
	if got != "SetGroup(group=+1)" {
		t.Fatalf("serializeAction(SetGroup relative) = %q, want SetGroup(group=+1)", got)
	}
	got = serializeAction(ctx, mods, TerminateAction{})
	if got != "Terminate()" {
		t.Fatalf("serializeAction(Terminate) = %q, want Terminate()", got)
	}
	got = serializeAction(ctx, mods, nil)
	if got != "NoAction()" {
		t.Fatalf("serializeAction(nil) = %q, want NoAction()", got)
	}
}

func containsSubstring(haystack, needle string) bool {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}
