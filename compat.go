package xkb

import (
	"math/bits"

	"golang.org/x/exp/slices"
)

// MatchKind is the modifier-predicate kind a SymInterpret's "+Kind(mods)"
// suffix names (spec §4.8).
type MatchKind int

const (
	MatchNone MatchKind = iota
	MatchAnyOfOrNone
	MatchAnyOf
	MatchAllOf
	MatchExactly
	MatchNoneOf
)

func matchKindFromName(name string) MatchKind {
	switch name {
	case "AnyOfOrNone":
		return MatchAnyOfOrNone
	case "AnyOf":
		return MatchAnyOf
	case "AllOf":
		return MatchAllOf
	case "Exactly":
		return MatchExactly
	case "NoneOf":
		return MatchNoneOf
	default:
		return MatchNone
	}
}

// matches reports whether active (the key's modifier-map mask, as the
// finalizer passes it) satisfies this predicate against mods.
func (k MatchKind) matches(mods, active ModMask) bool {
	switch k {
	case MatchAnyOfOrNone:
		return active == 0 || active&mods != 0
	case MatchAnyOf:
		return active&mods != 0
	case MatchAllOf:
		return active&mods == mods
	case MatchExactly:
		return active == mods
	case MatchNoneOf:
		return active&mods == 0
	default:
		return true
	}
}

// SymInterpret is one compiled `interpret` statement: a (keysym, modifier
// predicate) pattern plus the action and flags it contributes to any key
// level matching it (spec §3, §4.8).
type SymInterpret struct {
	Sym       Keysym // NoSymbol means "Any" (matches every keysym)
	MatchKind MatchKind
	Mods      ModMask
	Action    Action
	SetMods   ModMask // "virtualModifier = X" — which virtual mod this interp claims
	Repeat    *bool   // nil = unspecified, matching spec §4.10's "only set if declared"
	LevelOneOnly bool
}

// specificity ranks interpretations so the most specific is matched
// first, grounded on the general "later/more-specific definitions take
// priority on conflict" pattern from types.c's AddKeyType, applied to
// spec §4.8's explicit ordering: an exact keysym beats "Any", ties among
// those are broken by the number of mods required (more beats fewer)
// ahead of match-kind category, and any remaining tie is left to
// declaration order via a stable sort.
func (si *SymInterpret) specificity() int {
	score := 0
	if si.Sym != NoSymbol {
		score += 100000
	}
	score += bits.OnesCount32(uint32(si.Mods)) * 1000
	switch si.MatchKind {
	case MatchExactly:
		score += 50
	case MatchAllOf:
		score += 40
	case MatchAnyOf:
		score += 20
	case MatchNoneOf:
		score += 10
	case MatchAnyOfOrNone:
		score += 5
	}
	return score
}

// LedMap is a compiled `indicator "Name" { ... }` declaration: the
// predicate over modifiers/groups/controls that lights the LED, per spec
// §3/§4.8.
type LedMap struct {
	Name          Atom
	Index         int64 // 1-based LED index, bound by the finalizer
	Virtual       bool
	Mods          ModMask
	Groups        uint32 // bitmask of group indices
	Ctrls         uint32
	WhichModState MatchKind
	AllowExplicit bool
}

// compatInfo accumulates one xkb_compat section's declarations.
type compatInfo struct {
	name       string
	interps    []*SymInterpret
	leds       *mergeTable[Atom, *LedMap]
	errorCount int
}

func newCompatInfo() *compatInfo {
	return &compatInfo{leds: newMergeTable[Atom, *LedMap]()}
}

// compileCompat walks one xkb_compat section's statements into a
// compatInfo.
func compileCompat(ctx *Context, sec *Section, inherited MergeMode, mods *ModSet) (*compatInfo, error) {
	info := newCompatInfo()
	info.name = sec.Name

	for _, st := range sec.Stmts {
		switch s := st.(type) {
		case VModStmt:
			for _, name := range s.Names {
				mods.declareVirtual(ctx.internAtom(name))
			}
		case InterpStmt:
			si, err := buildSymInterpret(ctx, sec.Name, s, mods)
			if err != nil {
				info.errorCount++
				continue
			}
			info.interps = append(info.interps, si)
		case IndicatorNameStmt:
			// Bare name declarations inside xkb_compat (as opposed to
			// xkb_keycodes) are rare but legal; record as an empty LedMap
			// so the finalizer still has a name -> index binding to use.
			name := ctx.internAtom(s.Name)
			info.leds.put(name, &LedMap{Name: name, Index: s.Index, Virtual: s.Virtual}, MergeOverride, true, nil)
		case LedMapStmt:
			lm, err := buildLedMap(ctx, sec.Name, s, mods)
			if err != nil {
				info.errorCount++
				continue
			}
			nameAtom := ctx.internAtom(lm.nameStr)
			info.leds.put(nameAtom, lm.led, effectiveMergeMode(inherited, s.Merge), true, func(old, new *LedMap, replaced bool) {
				ctx.log.warnf(MsgDuplicateEntry, sec.Name, 0, 0, "multiple indicator maps for %q", lm.nameStr)
			})
		}
	}

	slices.SortStableFunc(info.interps, func(a, b *SymInterpret) bool {
		return a.specificity() > b.specificity()
	})
	return info, nil
}

// buildSymInterpret lowers one InterpStmt into a SymInterpret: the sym
// name (resolved via parseKeysym, "Any" maps to NoSymbol), the match kind
// and mask from the optional "+Kind(mods)" suffix, and the action/flags
// from its body.
func buildSymInterpret(ctx *Context, file string, s InterpStmt, mods *ModSet) (*SymInterpret, error) {
	si := &SymInterpret{}
	if s.SymName != "" && s.SymName != "Any" {
		sym, _ := ctx.parseKeysym(s.SymName)
		si.Sym = sym
	}
	if decl, ok := s.Mods.(ActionDecl); ok {
		si.MatchKind = matchKindFromName(decl.Name)
		for _, arg := range decl.Args {
			if arg.Field == "mods" {
				mask, err := evalModMaskExpr(ctx, mods, arg.Value)
				if err == nil {
					si.Mods = mask
				}
			}
		}
	}

	for _, bst := range s.Body {
		vs, ok := bst.(VarStmt)
		if !ok {
			continue
		}
		switch vs.Field {
		case "action":
			if decl, ok := vs.Value.(ActionDecl); ok {
				si.Action = lowerActionDecl(ctx, mods, decl)
			}
		case "virtualModifier":
			if ident, ok := vs.Value.(Ident); ok {
				a := ctx.internAtom(ident.Name)
				if mask, ok := mods.mask(a); ok {
					si.SetMods = mask
				}
			}
		case "repeat":
			if b, ok := evalBoolExpr(vs.Value); ok {
				si.Repeat = &b
			}
		case "useModMapMods":
			if ident, ok := vs.Value.(Ident); ok && ident.Name == "level1" {
				si.LevelOneOnly = true
			}
		}
	}
	return si, nil
}

type ledMapBuild struct {
	nameStr string
	led     *LedMap
}

// buildLedMap lowers an `indicator "Name" { ... }` body into a LedMap.
func buildLedMap(ctx *Context, file string, s LedMapStmt, mods *ModSet) (*ledMapBuild, error) {
	lm := &LedMap{Name: ctx.internAtom(s.Name)}
	for _, bst := range s.Body {
		vs, ok := bst.(VarStmt)
		if !ok {
			continue
		}
		switch vs.Field {
		case "modifiers":
			if mask, err := evalModMaskExpr(ctx, mods, vs.Value); err == nil {
				lm.Mods = mask
			}
		case "groups":
			if n, ok := evalIntExpr(vs.Value); ok {
				lm.Groups = uint32(n)
			}
		case "controls":
			if n, ok := evalIntExpr(vs.Value); ok {
				lm.Ctrls = uint32(n)
			}
		case "whichModState":
			if ident, ok := vs.Value.(Ident); ok {
				lm.WhichModState = matchKindFromName(ident.Name)
			}
		case "allowExplicit":
			if b, ok := evalBoolExpr(vs.Value); ok {
				lm.AllowExplicit = b
			}
		}
	}
	return &ledMapBuild{nameStr: s.Name, led: lm}, nil
}

// lowerActionDecl converts a parsed ActionDecl into an Action value (spec
// §4.9/§4.10), shared by the compat and symbols compilers.
func lowerActionDecl(ctx *Context, mods *ModSet, decl ActionDecl) Action {
	arg := func(field string) (Expr, bool) {
		for _, a := range decl.Args {
			if a.Field == field {
				return a.Value, true
			}
		}
		return nil, false
	}
	boolArg := func(field string) bool {
		if v, ok := arg(field); ok {
			b, _ := evalBoolExpr(v)
			return b
		}
		return false
	}
	intArg := func(field string) (int64, bool) {
		if v, ok := arg(field); ok {
			return evalIntExpr(v)
		}
		return 0, false
	}
	modsArg := func(field string) ModMask {
		if v, ok := arg(field); ok {
			if ident, isIdent := v.(Ident); isIdent && ident.Name == "modMapMods" {
				return 0
			}
			m, err := evalModMaskExpr(ctx, mods, v)
			if err == nil {
				return m
			}
		}
		return 0
	}
	// usesModMapMods reports "modifiers=modMapMods", which binds the
	// action's modifiers to whichever key applies it rather than to a
	// fixed mask resolved at compile time (spec's modMapMods keyword,
	// resolved by State.applyActionDown/Up against the key's own
	// ModMapMods).
	usesModMapMods := func(field string) bool {
		v, ok := arg(field)
		if !ok {
			return false
		}
		ident, isIdent := v.(Ident)
		return isIdent && ident.Name == "modMapMods"
	}

	switch decl.Name {
	case "SetMods":
		return ModAction{Kind: ModActionSet, Mods: modsArg("modifiers"), UseModMapMods: usesModMapMods("modifiers"), ClearLocks: boolArg("clearLocks")}
	case "LatchMods":
		return ModAction{Kind: ModActionLatch, Mods: modsArg("modifiers"), UseModMapMods: usesModMapMods("modifiers"), ClearLocks: boolArg("clearLocks"), LatchToLock: boolArg("latchToLock")}
	case "LockMods":
		return ModAction{Kind: ModActionLock, Mods: modsArg("modifiers"), UseModMapMods: usesModMapMods("modifiers")}
	case "SetGroup":
		n, _ := intArg("group")
		return GroupAction{Kind: GroupActionSet, Group: int32(n), Relative: hasPlusPrefix(decl, "group")}
	case "LatchGroup":
		n, _ := intArg("group")
		return GroupAction{Kind: GroupActionLatch, Group: int32(n), ClearLocks: boolArg("clearLocks"), LatchToLock: boolArg("latchToLock")}
	case "LockGroup":
		n, _ := intArg("group")
		return GroupAction{Kind: GroupActionLock, Group: int32(n), Relative: hasPlusPrefix(decl, "group")}
	case "Terminate":
		return TerminateAction{}
	case "MovePtr", "MovePointer":
		x, _ := intArg("x")
		y, _ := intArg("y")
		return PtrMoveAction{X: int32(x), Y: int32(y), Accelerate: boolArg("accelerate")}
	case "PtrBtn", "PointerButton":
		btn, _ := intArg("button")
		count, _ := intArg("count")
		return PtrButtonAction{Button: int32(btn), Count: int32(count)}
	case "LockPtrBtn", "LockPointerButton":
		btn, _ := intArg("button")
		return PtrLockAction{Button: int32(btn)}
	case "SetPtrDflt", "SetPointerDefault":
		v, _ := intArg("value")
		return PtrDefaultAction{Value: int32(v)}
	case "SwitchScreen":
		n, _ := intArg("screen")
		return SwitchScreenAction{Screen: int32(n)}
	case "SetControls":
		n, _ := intArg("controls")
		return CtrlAction{Kind: CtrlActionSet, Ctrls: uint32(n)}
	case "LockControls":
		n, _ := intArg("controls")
		return CtrlAction{Kind: CtrlActionLock, Ctrls: uint32(n)}
	default:
		return NoAction{}
	}
}

// hasPlusPrefix reports whether field's argument expression, as written,
// used relative ("+N"/"-N") rather than absolute group syntax. The parser
// keeps a leading sign as a UnaryExpr ('+' or '-') around the integer
// literal, so that wrapper (or a negative value) is the signal checked
// here; absolute group numbers are plain IntLits.
func hasPlusPrefix(decl ActionDecl, field string) bool {
	for _, a := range decl.Args {
		if a.Field != field {
			continue
		}
		if u, ok := a.Value.(UnaryExpr); ok && (u.Op == '+' || u.Op == '-') {
			return true
		}
		if n, ok := evalIntExpr(a.Value); ok && n < 0 {
			return true
		}
	}
	return false
}

// mergeCompat folds src into dst per mode.
func mergeCompat(dst, src *compatInfo, mode MergeMode) {
	if dst.name == "" {
		dst.name = src.name
	}
	dst.interps = append(dst.interps, src.interps...)
	slices.SortStableFunc(dst.interps, func(a, b *SymInterpret) bool {
		return a.specificity() > b.specificity()
	})
	for _, name := range src.leds.keys() {
		lm, _ := src.leds.get(name)
		dst.leds.put(name, lm, mode, false, nil)
	}
	dst.errorCount += src.errorCount
}
