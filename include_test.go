package xkb

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseIncludeExprSplitsOpsAndModifiers(t *testing.T) {
	parts, err := parseIncludeExpr("evdev+aliases(qwerty):2")
	if err != nil {
		t.Fatalf("parseIncludeExpr: %v", err)
	}
	if len(parts) != 2 {
		t.Fatalf("parts = %d, want 2", len(parts))
	}
	if parts[0].file != "evdev" || parts[0].op != 0 {
		t.Errorf("parts[0] = %+v, want {file: evdev, op: 0}", parts[0])
	}
	if parts[1].file != "aliases" || parts[1].mapName != "qwerty" || parts[1].extra != "2" || parts[1].op != '+' {
		t.Errorf("parts[1] = %+v, want {file: aliases, mapName: qwerty, extra: 2, op: '+'}", parts[1])
	}
}

func TestParseIncludeExprAugmentOperator(t *testing.T) {
	parts, err := parseIncludeExpr("us|de")
	if err != nil {
		t.Fatalf("parseIncludeExpr: %v", err)
	}
	if len(parts) != 2 || parts[1].op != '|' {
		t.Fatalf("parts = %+v, want second part op '|'", parts)
	}
}

func TestParseIncludeExprUnterminatedMapErrors(t *testing.T) {
	if _, err := parseIncludeExpr("evdev(qwerty"); err == nil {
		t.Fatalf("expected error for unterminated map designator")
	}
}

func TestParseIncludeExprEmptyFileNameErrors(t *testing.T) {
	if _, err := parseIncludeExpr("(qwerty)"); err == nil {
		t.Fatalf("expected error for a map designator with no file name")
	}
}

func TestMergeModeForOp(t *testing.T) {
	cases := map[byte]MergeMode{
		'+': MergeOverride,
		'|': MergeAugment,
		0:   MergeDefault,
	}
	for op, want := range cases {
		if got := mergeModeForOp(op); got != want {
			t.Errorf("mergeModeForOp(%q) = %v, want %v", op, got, want)
		}
	}
}

func TestTypeDirFor(t *testing.T) {
	cases := map[FileType]string{
		FileKeycodes: "keycodes",
		FileTypes:    "types",
		FileCompat:   "compat",
		FileSymbols:  "symbols",
		FileGeometry: "geometry",
		FileKeymap:   "keymap",
		FileRules:    "rules",
	}
	for ft, want := range cases {
		if got := typeDirFor(ft); got != want {
			t.Errorf("typeDirFor(%v) = %q, want %q", ft, got, want)
		}
	}
}

func TestFindInIncludePathSearchesSubdirByType(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "symbols"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "symbols", "qwerty"), []byte("xkb_symbols \"x\" {};"), 0o644); err != nil {
		t.Fatal(err)
	}
	ctx := NewContext(WithContextFlags(FlagNoDefaultIncludes), WithIncludePath(dir))
	path, ok := findInIncludePath(ctx, FileSymbols, "qwerty")
	if !ok {
		t.Fatalf("findInIncludePath: not found")
	}
	if path != filepath.Join(dir, "symbols", "qwerty") {
		t.Errorf("path = %q, want %s", path, filepath.Join(dir, "symbols", "qwerty"))
	}
	if _, ok := findInIncludePath(ctx, FileTypes, "qwerty"); ok {
		t.Errorf("expected no match for the wrong FileType's subdirectory")
	}
}

func TestResolveIncludeDetectsCycle(t *testing.T) {
	dir := t.TempDir()
	for _, sub := range []string{"keycodes", "types", "compat", "symbols"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	write := func(sub, name, content string) {
		if err := os.WriteFile(filepath.Join(dir, sub, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("keycodes", "a", `xkb_keycodes "x" { <AD01> = 24; };`)
	write("types", "a", `xkb_types "x" { };`)
	write("compat", "a", `xkb_compat "x" { };`)
	write("symbols", "a", `xkb_symbols "x" { include "b" };`)
	write("symbols", "b", `xkb_symbols "x" { include "a" };`)

	ctx := NewContext(WithContextFlags(FlagNoDefaultIncludes), WithIncludePath(dir))
	_, err := buildFromKcCGST(ctx, KcCGST{Keycodes: "a", Types: "a", Compat: "a", Symbols: "a"})
	if err == nil {
		t.Fatalf("expected an include-cycle error")
	}
}

func TestResolveIncludeNotFoundError(t *testing.T) {
	dir := t.TempDir()
	ctx := NewContext(WithContextFlags(FlagNoDefaultIncludes), WithIncludePath(dir))
	r := newIncludeResolver(ctx, FileSymbols)
	_, _, err := r.resolveInclude(IncludeStmt{Expr: "doesnotexist"})
	if err == nil {
		t.Fatalf("expected ErrIncludeNotFound")
	}
}

func TestApplyIncludeGroupIndexShiftsGroupNumbers(t *testing.T) {
	ctx := NewContext()
	xf, err := ParseFile(ctx, "(test)", []byte(`
		xkb_symbols "x" {
			key <AD01> { symbols[Group1] = [ a ] };
		};
	`))
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	applyIncludeGroupIndex(xf.Section, "2")
	ks := xf.Section.Stmts[0].(KeyStmt)
	vs := ks.Body[0].(VarStmt)
	ident, ok := vs.Index.(Ident)
	if !ok || ident.Name != "Group2" {
		t.Fatalf("Index = %#v, want Ident{Group2}", vs.Index)
	}
}

func TestApplyIncludeGroupIndexZeroOffsetIsNoop(t *testing.T) {
	ctx := NewContext()
	xf, err := ParseFile(ctx, "(test)", []byte(`
		xkb_symbols "x" {
			key <AD01> { symbols[Group1] = [ a ] };
		};
	`))
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	applyIncludeGroupIndex(xf.Section, "1")
	ks := xf.Section.Stmts[0].(KeyStmt)
	vs := ks.Body[0].(VarStmt)
	ident := vs.Index.(Ident)
	if ident.Name != "Group1" {
		t.Fatalf("Index = %#v, want unchanged Ident{Group1}", vs.Index)
	}
}
