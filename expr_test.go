package xkb

import "testing"

func TestEvalModMaskExprNamesAndCombinators(t *testing.T) {
	ctx, mods := newTestModSet()

	none, err := evalModMaskExpr(ctx, mods, nil)
	if err != nil || none != 0 {
		t.Fatalf("evalModMaskExpr(nil) = (%#x, %v)", none, err)
	}

	shift, err := evalModMaskExpr(ctx, mods, Ident{Name: "Shift"})
	if err != nil || shift != ModShift {
		t.Fatalf("evalModMaskExpr(Shift) = (%#x, %v), want (%#x, nil)", shift, err, ModShift)
	}

	noneLit, err := evalModMaskExpr(ctx, mods, Ident{Name: "None"})
	if err != nil || noneLit != 0 {
		t.Fatalf("evalModMaskExpr(None) = (%#x, %v), want (0, nil)", noneLit, err)
	}

	combined, err := evalModMaskExpr(ctx, mods, BinaryExpr{Op: '+', L: Ident{Name: "Shift"}, R: Ident{Name: "Control"}})
	if err != nil || combined != ModShift|ModControl {
		t.Fatalf("evalModMaskExpr(Shift+Control) = (%#x, %v), want (%#x, nil)", combined, err, ModShift|ModControl)
	}

	subtracted, err := evalModMaskExpr(ctx, mods, BinaryExpr{Op: '-', L: Ident{Name: "all"}, R: Ident{Name: "Shift"}})
	if err != nil {
		t.Fatalf("evalModMaskExpr(all-Shift) error: %v", err)
	}
	if subtracted&ModShift != 0 {
		t.Fatalf("evalModMaskExpr(all-Shift) still contains Shift: %#x", subtracted)
	}
}

func TestEvalModMaskExprUndeclaredNameErrors(t *testing.T) {
	ctx, mods := newTestModSet()
	_, err := evalModMaskExpr(ctx, mods, Ident{Name: "NeverDeclared"})
	if err == nil {
		t.Fatalf("expected an error for an undeclared modifier name")
	}
}

func TestEvalLevelExprOneBasedToZeroBased(t *testing.T) {
	lvl, err := evalLevelExpr(IntLit{Value: 1})
	if err != nil || lvl != 0 {
		t.Fatalf("evalLevelExpr(1) = (%d, %v), want (0, nil)", lvl, err)
	}
	lvl, err = evalLevelExpr(Ident{Name: "Level3"})
	if err != nil || lvl != 2 {
		t.Fatalf("evalLevelExpr(Level3) = (%d, %v), want (2, nil)", lvl, err)
	}
	if _, err := evalLevelExpr(IntLit{Value: 0}); err == nil {
		t.Fatalf("evalLevelExpr(0) should error (levels are 1-based)")
	}
}

func TestEvalBoolExprAcceptsKeywordSynonyms(t *testing.T) {
	cases := []struct {
		in   Expr
		want bool
	}{
		{BoolLit{Value: true}, true},
		{Ident{Name: "Yes"}, true},
		{Ident{Name: "True"}, true},
		{Ident{Name: "On"}, true},
		{Ident{Name: "No"}, false},
		{Ident{Name: "False"}, false},
		{Ident{Name: "Off"}, false},
	}
	for _, c := range cases {
		got, ok := evalBoolExpr(c.in)
		if !ok || got != c.want {
			t.Errorf("evalBoolExpr(%v) = (%v, %v), want (%v, true)", c.in, got, ok, c.want)
		}
	}
}

func TestEvalIntExprRejectsNonInteger(t *testing.T) {
	if _, ok := evalIntExpr(Ident{Name: "NotAnInt"}); ok {
		t.Fatalf("evalIntExpr accepted a non-integer expression")
	}
}
