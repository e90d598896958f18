package xkb

import "testing"

func TestResolveRulesWildcardMatch(t *testing.T) {
	ctx := NewContext()
	text := "! model layout = keycodes types compat symbols\n  *     *      = qwerty   qwerty qwerty qwerty\n"
	kc, err := resolveRules(ctx, text, RMLVO{Model: "pc105", Layout: "us"})
	if err != nil {
		t.Fatalf("resolveRules: %v", err)
	}
	want := KcCGST{Keycodes: "qwerty", Types: "qwerty", Compat: "qwerty", Symbols: "qwerty"}
	if kc != want {
		t.Fatalf("resolveRules = %+v, want %+v", kc, want)
	}
}

func TestResolveRulesExactBeatsWildcard(t *testing.T) {
	ctx := NewContext()
	text := "! model = keycodes types compat\n" +
		"  *     = evdev    basic complete\n" +
		"! layout = symbols\n" +
		"  *      = generic\n" +
		"  dvorak  = dvorak\n"
	kc, err := resolveRules(ctx, text, RMLVO{Layout: "dvorak"})
	if err != nil {
		t.Fatalf("resolveRules: %v", err)
	}
	if kc.Symbols != "dvorak" {
		t.Fatalf("Symbols = %q, want dvorak (exact match should win over wildcard)", kc.Symbols)
	}
}

func TestResolveRulesAppendRuleConcatenates(t *testing.T) {
	ctx := NewContext()
	text := "! model = keycodes types compat\n" +
		"  *     = evdev    basic complete\n" +
		"! layout option = symbols\n" +
		"  us            = us(basic)\n" +
		"  *     compose:menu = +compose(menu)\n"
	kc, err := resolveRules(ctx, text, RMLVO{Layout: "us", Options: "compose:menu"})
	if err != nil {
		t.Fatalf("resolveRules: %v", err)
	}
	if kc.Symbols != "us(basic)+compose(menu)" {
		t.Fatalf("Symbols = %q, want us(basic)+compose(menu)", kc.Symbols)
	}
}

func TestResolveRulesMissingComponentErrors(t *testing.T) {
	ctx := NewContext()
	text := "! layout = symbols\n  us = us\n"
	if _, err := resolveRules(ctx, text, RMLVO{Layout: "de"}); err == nil {
		t.Fatalf("expected an error when no rule line matches")
	}
}

func TestSubstituteVarsLayoutAndModelTokens(t *testing.T) {
	values := newMLVOValues(RMLVO{Model: "pc105", Layout: "us,de"})
	got := substituteVars("pc+%l[2]+%m", values)
	want := "pc+de+pc105"
	if got != want {
		t.Fatalf("substituteVars = %q, want %q", got, want)
	}
}

func TestSubstituteVarsEmptyValueDropsToken(t *testing.T) {
	values := newMLVOValues(RMLVO{})
	got := substituteVars("base%+l", values)
	if got != "base" {
		t.Fatalf("substituteVars = %q, want %q (empty %%l contributes nothing)", got, "base")
	}
}

func TestBucketizeSeparatesNormalAppendOption(t *testing.T) {
	h := ruleHeader{
		mlvo:   []mlvoColumn{{name: "layout"}, {name: "option"}},
		kccgst: []kccgstColumn{{name: "symbols"}},
	}
	lines := []ruleLine{
		{mlvo: []string{"us", ""}, kccgst: []string{"us"}},
		{mlvo: []string{"", "compose:menu"}, kccgst: []string{"compose(menu)"}},
		{mlvo: []string{"", "compose:menu"}, kccgst: []string{"+compose(menu)"}},
	}
	buckets := bucketize(lines, h)
	if len(buckets[bucketNormal]) != 1 {
		t.Errorf("bucketNormal has %d lines, want 1", len(buckets[bucketNormal]))
	}
	if len(buckets[bucketAppend]) != 1 {
		t.Errorf("bucketAppend has %d lines, want 1", len(buckets[bucketAppend]))
	}
	if len(buckets[bucketOption]) != 1 {
		t.Errorf("bucketOption has %d lines, want 1", len(buckets[bucketOption]))
	}
}

func TestParseRulesFileGroupDefinitionExpandsInMatch(t *testing.T) {
	ctx := NewContext()
	text := "! model = keycodes types compat\n" +
		"  *     = evdev    basic complete\n" +
		"! $nordic = se no dk fi\n" +
		"! layout = symbols\n" +
		"  $nordic = nordic\n"
	kc, err := resolveRules(ctx, text, RMLVO{Layout: "no"})
	if err != nil {
		t.Fatalf("resolveRules: %v", err)
	}
	if kc.Symbols != "nordic" {
		t.Fatalf("Symbols = %q, want nordic (layout 'no' should match group $nordic)", kc.Symbols)
	}
}

func TestParseRulesFileRejectsRuleLineBeforeHeader(t *testing.T) {
	if _, err := parseRulesFile("  us = us\n"); err == nil {
		t.Fatalf("expected an error for a rule line with no preceding header")
	}
}

func TestSplitColumnIndex(t *testing.T) {
	name, idx := splitColumnIndex("layout[2]")
	if name != "layout" || idx != 2 {
		t.Fatalf("splitColumnIndex(layout[2]) = (%q, %d), want (layout, 2)", name, idx)
	}
	name, idx = splitColumnIndex("layout")
	if name != "layout" || idx != 0 {
		t.Fatalf("splitColumnIndex(layout) = (%q, %d), want (layout, 0)", name, idx)
	}
}
