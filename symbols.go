package xkb

import "github.com/samber/lo"

// MaxLayouts is the hard cap on groups (layouts) a Key may define, per
// the Open Question decision recorded in DESIGN.md: kept at 4, matching
// the historical X11 protocol limit the symbols grammar was designed
// around.
const MaxLayouts = 4

// KeyLevel is one shift level within a group: the keysyms it produces and
// the action bound to it, if any (spec §3).
type KeyLevel struct {
	Syms   []Keysym
	Action Action
}

// KeyGroup is one layout's worth of levels for a key, plus the (as yet
// unresolved) name of the KeyType governing it (spec §3, §4.9).
type KeyGroup struct {
	Type   Atom // key type name; "" defers to automatic inference
	Levels []KeyLevel
}

// GroupsWrapType selects how update_key resolves a layout index beyond a
// key's declared number of groups (spec §4.12 step 2).
type GroupsWrapType int

const (
	GroupsWrap GroupsWrapType = iota
	GroupsSaturate
	GroupsRedirect
)

// Key is a compiled key body: its declared groups, virtual modifiers, and
// repeat flag (spec §3). ModMapMods is folded in separately from
// `modifier_map` statements, which live at section scope rather than
// inside the key body.
type Key struct {
	Name          Atom
	Groups        []KeyGroup
	VirtualMods   ModMask
	Repeats       *bool
	ModMapMods    ModMask
	GroupsWrap    GroupsWrapType
	RedirectGroup int // only meaningful when GroupsWrap == GroupsRedirect

	// ownKeycode is bound by finalizeKeymap once the key is placed into
	// the Keymap's key table, so State can reverse-map a *Key to its
	// keycode without threading an extra parameter through every call.
	ownKeycode Keycode
}

// symbolsInfo accumulates one xkb_symbols section's declarations (spec
// §4.9).
type symbolsInfo struct {
	name        string
	keys        *mergeTable[Atom, *Key]
	groupNames  map[int]Atom
	errorCount  int
}

func newSymbolsInfo() *symbolsInfo {
	return &symbolsInfo{keys: newMergeTable[Atom, *Key](), groupNames: make(map[int]Atom)}
}

// compileSymbols walks one xkb_symbols section's statements into a
// symbolsInfo. `key <name> { ... }` bodies are lowered independently;
// `modifier_map` statements contribute ModMapMods to whichever keys they
// name, regardless of declaration order within the section (the original
// processes modifier_map as a second pass over the accumulated key table).
func compileSymbols(ctx *Context, sec *Section, inherited MergeMode, mods *ModSet) (*symbolsInfo, error) {
	info := newSymbolsInfo()
	info.name = sec.Name

	var modMaps []ModMapStmt
	for _, st := range sec.Stmts {
		switch s := st.(type) {
		case VModStmt:
			for _, name := range s.Names {
				mods.declareVirtual(ctx.internAtom(name))
			}
		case KeyStmt:
			mode := effectiveMergeMode(inherited, s.Merge)
			key, err := buildKey(ctx, sec.Name, s, mods)
			if err != nil {
				info.errorCount++
				continue
			}
			info.keys.put(key.Name, key, mode, true, func(old, new *Key, replaced bool) {
				ctx.log.warnf(MsgConflictingKeyFields, sec.Name, 0, 0,
					"multiple symbols definitions for %q; %s definition used",
					ctx.atomText(key.Name), lo.Ternary(replaced, "later", "earlier"))
			})
		case ModMapStmt:
			modMaps = append(modMaps, s)
		case VarStmt:
			if s.Field == "name" {
				if n := groupIndexOf(s.Index); n > 0 {
					if name, ok := evalStringExpr(s.Value); ok {
						info.groupNames[n] = ctx.internAtom(name)
					}
				}
			}
		}
	}

	for _, mm := range modMaps {
		applyModMap(ctx, info, mods, mm)
	}

	return info, nil
}

// buildKey lowers a KeyStmt into a Key, handling both the full
// `key <name> { symbols[Group1]=[...]; ... }` body form and the
// `key <name> { [a, b, c] };` Group-1-only shorthand.
func buildKey(ctx *Context, file string, ks KeyStmt, mods *ModSet) (*Key, error) {
	k := &Key{Name: ks.Name}

	if ks.Shorthand != nil {
		syms := lowerKeysymExprs(ctx, ks.Shorthand)
		levels := make([]KeyLevel, len(syms))
		for i, s := range syms {
			levels[i] = KeyLevel{Syms: []Keysym{s}}
		}
		k.Groups = []KeyGroup{{Levels: levels}}
		return k, nil
	}

	groupLevels := map[int][]KeyLevel{}
	groupActions := map[int][]Action{}
	groupTypes := map[int]Atom{}

	for _, st := range ks.Body {
		vs, ok := st.(VarStmt)
		if !ok {
			continue
		}
		gn := groupIndexOf(vs.Index)
		switch vs.Field {
		case "symbols":
			names := symbolListOf(vs.Value)
			levels := make([]KeyLevel, len(names))
			for i, n := range names {
				sym, _ := ctx.parseKeysym(n)
				levels[i] = KeyLevel{Syms: []Keysym{sym}}
			}
			groupLevels[gn] = levels
		case "actions":
			decls := actionListOf(vs.Value)
			acts := make([]Action, len(decls))
			for i, d := range decls {
				acts[i] = lowerActionDecl(ctx, mods, *d)
			}
			groupActions[gn] = acts
		case "type":
			if name, ok := evalStringExpr(vs.Value); ok {
				groupTypes[gn] = ctx.internAtom(name)
			} else if ident, ok := vs.Value.(Ident); ok {
				groupTypes[gn] = ctx.internAtom(ident.Name)
			}
		case "virtualMods":
			if mask, err := evalModMaskExpr(ctx, mods, vs.Value); err == nil {
				k.VirtualMods |= mask
			}
		case "repeat", "repeats":
			if b, ok := evalBoolExpr(vs.Value); ok {
				k.Repeats = &b
			}
		case "groupsWrap", "groupswrap":
			k.GroupsWrap = GroupsWrap
		case "groupsClamp", "groupsclamp", "groupsSaturate", "groupssaturate":
			k.GroupsWrap = GroupsSaturate
		case "groupsRedirect", "groupsredirect":
			k.GroupsWrap = GroupsRedirect
			if n, ok := evalIntExpr(vs.Value); ok {
				k.RedirectGroup = int(n) - 1
			}
		}
	}

	maxGroup := 0
	for gn := range groupLevels {
		if gn > maxGroup {
			maxGroup = gn
		}
	}
	for gn := range groupActions {
		if gn > maxGroup {
			maxGroup = gn
		}
	}
	if maxGroup == 0 {
		maxGroup = 1
	}
	if maxGroup > MaxLayouts {
		ctx.log.warnf(MsgUnsupportedGroupIndex, file, 0, 0, "key %q declares more than %d groups; extras ignored", ctx.atomText(ks.Name), MaxLayouts)
		maxGroup = MaxLayouts
	}

	k.Groups = make([]KeyGroup, maxGroup)
	for g := 1; g <= maxGroup; g++ {
		levels := groupLevels[g]
		acts := groupActions[g]
		n := len(levels)
		if len(acts) > n {
			n = len(acts)
		}
		levels = lo.Map(make([]int, n), func(_ int, i int) KeyLevel {
			lvl := KeyLevel{}
			if i < len(levels) {
				lvl.Syms = levels[i].Syms
			}
			if i < len(acts) {
				lvl.Action = acts[i]
			}
			return lvl
		})
		k.Groups[g-1] = KeyGroup{Type: groupTypes[g], Levels: levels}
	}
	return k, nil
}

// groupIndexOf extracts the 1-based group number from a "Group1"/"GroupN"
// style Ident array index, or from a plain IntLit index. A missing index,
// a name without digits, or any other expression yields 1 (Group1).
func groupIndexOf(idx Expr) int {
	switch v := idx.(type) {
	case nil:
		return 1
	case Ident:
		n := 0
		for _, c := range v.Name {
			if c >= '0' && c <= '9' {
				n = n*10 + int(c-'0')
			}
		}
		if n == 0 {
			return 1
		}
		return n
	case IntLit:
		return int(v.Value)
	default:
		return 1
	}
}

func symbolListOf(e Expr) []string {
	switch v := e.(type) {
	case KeysymList:
		return v.Names
	case EmptyList:
		return nil
	default:
		return nil
	}
}

func actionListOf(e Expr) []*ActionDecl {
	if v, ok := e.(ActionList); ok {
		return v.Actions
	}
	return nil
}

func lowerKeysymExprs(ctx *Context, exprs []Expr) []Keysym {
	var out []Keysym
	for _, e := range exprs {
		if ident, ok := e.(Ident); ok {
			sym, _ := ctx.parseKeysym(ident.Name)
			out = append(out, sym)
		}
	}
	return out
}

// applyModMap folds a `modifier_map ModName { <key1>, <key2>, ... };`
// statement's keys into their ModMapMods, creating a stub Key entry for
// any name not otherwise declared in this section (the original allows a
// modifier_map to reference keys defined only by an earlier included
// file).
func applyModMap(ctx *Context, info *symbolsInfo, mods *ModSet, mm ModMapStmt) {
	a := ctx.internAtom(mm.ModName)
	mask, ok := mods.mask(a)
	if !ok {
		ctx.log.errorf(MsgUndeclaredVirtualModifier, info.name, 0, 0, "undeclared modifier %q in modifier_map", mm.ModName)
		return
	}
	for _, keyName := range mm.Keys {
		key, exists := info.keys.get(keyName)
		if !exists {
			key = &Key{Name: keyName}
			info.keys.put(keyName, key, MergeOverride, true, nil)
		}
		key.ModMapMods |= mask
	}
}

// mergeSymbols folds src into dst per mode. modifier_map membership is
// always a union regardless of merge mode (spec §4.9's merge table), so a
// replacing key's ModMapMods is OR'd with whatever the definition it
// displaces had already accumulated, rather than letting MergeReplace or
// MergeOverride silently drop it.
func mergeSymbols(dst, src *symbolsInfo, mode MergeMode) {
	if dst.name == "" {
		dst.name = src.name
	}
	for _, name := range src.keys.keys() {
		k, _ := src.keys.get(name)
		dst.keys.put(name, k, mode, false, func(old, new *Key, replaced bool) {
			if replaced {
				new.ModMapMods |= old.ModMapMods
			} else {
				old.ModMapMods |= new.ModMapMods
			}
		})
	}
	for g, name := range src.groupNames {
		if _, exists := dst.groupNames[g]; !exists || mode != MergeAugment {
			dst.groupNames[g] = name
		}
	}
	dst.errorCount += src.errorCount
}
