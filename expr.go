package xkb

import (
	"fmt"
	"strings"
)

// evalModMaskExpr evaluates a modifier-mask expression: an Ident or
// BinaryExpr('+') chain of modifier names (real or virtual), the literal
// "None", or "all"/"Any" meaning every declared modifier. Declaring a
// virtual modifier on first reference, the way the parser defers
// virtual_modifiers declaration order, is NOT done here — an undeclared
// name is an error (spec §4.7's invariant that virtual modifiers must be
// declared before use).
func evalModMaskExpr(ctx *Context, mods *ModSet, e Expr) (ModMask, error) {
	switch v := e.(type) {
	case nil:
		return 0, nil
	case Ident:
		return modNameToMask(ctx, mods, v.Name)
	case BinaryExpr:
		if v.Op != '+' && v.Op != '-' {
			return 0, fmt.Errorf("%w: unsupported operator in modifier mask expression", ErrSyntax)
		}
		l, err := evalModMaskExpr(ctx, mods, v.L)
		if err != nil {
			return 0, err
		}
		r, err := evalModMaskExpr(ctx, mods, v.R)
		if err != nil {
			return 0, err
		}
		if v.Op == '-' {
			return l &^ r, nil
		}
		return l | r, nil
	case UnaryExpr:
		if v.Op != '~' {
			return 0, fmt.Errorf("%w: unsupported unary operator in modifier mask expression", ErrSyntax)
		}
		inner, err := evalModMaskExpr(ctx, mods, v.X)
		if err != nil {
			return 0, err
		}
		return ^inner, nil
	case IntLit:
		return ModMask(v.Value), nil
	default:
		return 0, fmt.Errorf("%w: modifier mask expression has unexpected shape", ErrSyntax)
	}
}

func modNameToMask(ctx *Context, mods *ModSet, name string) (ModMask, error) {
	switch name {
	case "None":
		return 0, nil
	case "all", "Any", "All":
		var m ModMask
		for i := 0; i < mods.Len(); i++ {
			m |= 1 << uint(i)
		}
		return m, nil
	}
	a := ctx.internAtom(name)
	if mask, ok := mods.mask(a); ok {
		return mask, nil
	}
	ctx.log.errorf(MsgUndeclaredVirtualModifier, "", 0, 0, "undeclared modifier %q", name)
	return 0, fmt.Errorf("%s: %w", name, ErrUndeclaredVirtualModifier)
}

// evalModMaskExprFromIndex evaluates the array index of a "map[...]=" or
// "preserve[...]=" VarStmt, which is itself a modifier-mask expression
// (e.g. "map[Shift+Lock]=2").
func evalModMaskExprFromIndex(ctx *Context, mods *ModSet, idx Expr) (ModMask, error) {
	if idx == nil {
		return 0, fmt.Errorf("%w: missing array index", ErrSyntax)
	}
	return evalModMaskExpr(ctx, mods, idx)
}

// evalLevelExpr evaluates an expression naming a shift level: either a
// bare integer (1-based as written, 0-based once returned) or an
// identifier of the form "Level3".
func evalLevelExpr(e Expr) (Level, error) {
	switch v := e.(type) {
	case IntLit:
		if v.Value < 1 {
			return 0, fmt.Errorf("%w: level numbers are 1-based", ErrSyntax)
		}
		return Level(v.Value - 1), nil
	case Ident:
		n := strings.TrimPrefix(v.Name, "Level")
		var lvl int
		if _, err := fmt.Sscanf(n, "%d", &lvl); err != nil || lvl < 1 {
			return 0, fmt.Errorf("%w: invalid level name %q", ErrSyntax, v.Name)
		}
		return Level(lvl - 1), nil
	default:
		return 0, fmt.Errorf("%w: expected a level expression", ErrSyntax)
	}
}

// evalStringExpr evaluates a string literal expression, used for
// level_name[...] and similar text-valued fields.
func evalStringExpr(e Expr) (string, bool) {
	if s, ok := e.(StringLit); ok {
		return s.Value, true
	}
	return "", false
}

// evalBoolExpr evaluates a boolean-ish expression: a BoolLit, or the
// identifiers Yes/True/On/No/False/Off the scanner keeps as keywords.
func evalBoolExpr(e Expr) (bool, bool) {
	switch v := e.(type) {
	case BoolLit:
		return v.Value, true
	case Ident:
		switch v.Name {
		case "Yes", "True", "On":
			return true, true
		case "No", "False", "Off":
			return false, true
		}
	}
	return false, false
}

// evalIntExpr evaluates an integer-valued expression.
func evalIntExpr(e Expr) (int64, bool) {
	switch v := e.(type) {
	case IntLit:
		return v.Value, true
	case UnaryExpr:
		if v.Op == '-' {
			if n, ok := evalIntExpr(v.X); ok {
				return -n, true
			}
		}
		if v.Op == '+' {
			return evalIntExpr(v.X)
		}
	}
	return 0, false
}
