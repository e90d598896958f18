package xkb

import (
	"github.com/samber/lo"
)

// Level is a 0-based index into a KeyType's shift levels (spec §3).
type Level int

// TypeMapEntry maps one active-modifier mask to a level, optionally
// preserving a subset of that mask past the type's own consumption (spec
// §4.7, grounded on xkb_key_type_entry).
type TypeMapEntry struct {
	Mods     ModMask
	Level    Level
	Preserve ModMask
}

// KeyType is a compiled `type "Name" { ... }` declaration: the modifiers
// it inspects, its map from modifier combination to level, and the names
// of its levels (spec §3, §4.7).
type KeyType struct {
	Name       Atom
	Mods       ModMask // the subset of modifiers this type actually looks at
	NumLevels  int
	Entries    []TypeMapEntry
	LevelNames []Atom // len == NumLevels; AtomNone for unnamed levels
}

// findMapEntry returns the entry (if any) whose Mods exactly match mods,
// grounded on FindMatchingMapEntry.
func (t *KeyType) findMapEntry(mods ModMask) (*TypeMapEntry, bool) {
	for i := range t.Entries {
		if t.Entries[i].Mods == mods {
			return &t.Entries[i], true
		}
	}
	return nil, false
}

// levelForMods resolves an active modifier mask to a level index: the
// type's Mods are first masked in, then matched against Entries; an
// unmatched mask falls back to level 0 (spec §4.7, §4.12's "no entry
// matches the masked modifiers" case).
func (t *KeyType) levelForMods(mask ModMask) (Level, ModMask) {
	masked := mask & t.Mods
	if e, ok := t.findMapEntry(masked); ok {
		return e.Level, e.Preserve
	}
	return 0, 0
}

// typesInfo accumulates one xkb_types section's declarations (spec §4.7).
type typesInfo struct {
	name       string
	types      *mergeTable[Atom, *KeyType]
	errorCount int
}

func newTypesInfo() *typesInfo {
	return &typesInfo{types: newMergeTable[Atom, *KeyType]()}
}

// compileTypes walks one xkb_types section's statements into a typesInfo.
// Each `type "Name" { ... }` TypeStmt is lowered independently; conflicts
// between same-named types follow AddKeyType's replace-or-ignore rule.
func compileTypes(ctx *Context, sec *Section, inherited MergeMode, mods *ModSet) (*typesInfo, error) {
	info := newTypesInfo()
	info.name = sec.Name

	for _, st := range sec.Stmts {
		if vm, ok := st.(VModStmt); ok {
			for _, name := range vm.Names {
				mods.declareVirtual(ctx.internAtom(name))
			}
			continue
		}
		ts, ok := st.(TypeStmt)
		if !ok {
			continue
		}
		mode := effectiveMergeMode(inherited, ts.Merge)
		kt, err := buildKeyType(ctx, sec.Name, ts, mods)
		if err != nil {
			info.errorCount++
			continue
		}
		nameAtom := ctx.internAtom(ts.Name)
		info.types.put(nameAtom, kt, mode, true, func(old, new *KeyType, replaced bool) {
			ctx.log.warnf(MsgConflictingTypeDefinitions, sec.Name, 0, 0,
				"multiple definitions of the %s key type; %s definition used",
				ts.Name, lo.Ternary(replaced, "later", "earlier"))
		})
	}
	return info, nil
}

// buildKeyType lowers one `type { modifiers=...; map[...]=...;
// preserve[...]=...; level_name[...]=...; }` body into a KeyType.
func buildKeyType(ctx *Context, file string, ts TypeStmt, mods *ModSet) (*KeyType, error) {
	kt := &KeyType{Name: ctx.internAtom(ts.Name), NumLevels: 1}
	levelNames := map[Level]Atom{}

	for _, st := range ts.Body {
		vs, ok := st.(VarStmt)
		if !ok {
			continue
		}
		switch vs.Field {
		case "modifiers":
			mask, err := evalModMaskExpr(ctx, mods, vs.Value)
			if err != nil {
				ctx.log.warnf(MsgUnsupportedModifierMask, file, 0, 0, "invalid modifiers expression in type %q", ts.Name)
				continue
			}
			kt.Mods = mask
		case "map":
			entryMods, err := evalModMaskExprFromIndex(ctx, mods, vs.Index)
			if err != nil {
				continue
			}
			level, err := evalLevelExpr(vs.Value)
			if err != nil {
				ctx.log.warnf(MsgConflictingTypeMapEntry, file, 0, 0, "invalid level in map entry of type %q", ts.Name)
				continue
			}
			addOrUpdateEntry(ctx, file, kt, entryMods, level, 0, false)
			if int(level)+1 > kt.NumLevels {
				kt.NumLevels = int(level) + 1
			}
		case "preserve":
			entryMods, err := evalModMaskExprFromIndex(ctx, mods, vs.Index)
			if err != nil {
				continue
			}
			preserveMods, err := evalModMaskExpr(ctx, mods, vs.Value)
			if err != nil {
				ctx.log.warnf(MsgConflictingTypePreserve, file, 0, 0, "invalid preserve expression in type %q", ts.Name)
				continue
			}
			addOrUpdateEntry(ctx, file, kt, entryMods, 0, preserveMods, true)
		case "level_name":
			level, err := evalLevelExpr(vs.Index)
			if err != nil {
				continue
			}
			name, _ := evalStringExpr(vs.Value)
			levelNames[level] = ctx.internAtom(name)
			if int(level)+1 > kt.NumLevels {
				kt.NumLevels = int(level) + 1
			}
		}
	}

	kt.LevelNames = make([]Atom, kt.NumLevels)
	for lvl, name := range levelNames {
		if int(lvl) < kt.NumLevels {
			kt.LevelNames[lvl] = name
		}
	}
	return kt, nil
}

// addOrUpdateEntry inserts a map/preserve entry, matching AddMapEntry's
// "entry exists: preserve-only update keeps level, map update only warns
// on an actual level conflict" behavior.
func addOrUpdateEntry(ctx *Context, file string, kt *KeyType, mods ModMask, level Level, preserve ModMask, preserveOnly bool) {
	if outside := mods &^ kt.Mods; outside != 0 {
		ctx.log.warnf(MsgMapEntryMaskOutsideType, file, 0, 0,
			"map entry mask %#x has bits outside the type's modifiers %#x; dropping them", mods, kt.Mods)
		mods &= kt.Mods
	}
	if e, ok := kt.findMapEntry(mods); ok {
		if preserveOnly {
			if e.Preserve != 0 && e.Preserve != preserve {
				ctx.log.warnf(MsgConflictingTypePreserve, file, 0, 0, "conflicting preserve entries for the same modifier mask")
			}
			e.Preserve = preserve
			return
		}
		if e.Level != level {
			ctx.log.warnf(MsgConflictingTypeMapEntry, file, 0, 0, "conflicting map entries for the same modifier mask")
		}
		e.Level = level
		return
	}
	kt.Entries = append(kt.Entries, TypeMapEntry{Mods: mods, Level: level, Preserve: preserve})
}

// mergeTypes folds src's types into dst per mode.
func mergeTypes(dst, src *typesInfo, mode MergeMode) {
	if dst.name == "" {
		dst.name = src.name
	}
	for _, name := range src.types.keys() {
		kt, _ := src.types.get(name)
		dst.types.put(name, kt, mode, false, nil)
	}
	dst.errorCount += src.errorCount
}

// builtin level-1..4 type names, interned lazily the first time a symbols
// body needs an automatic type fallback (spec §4.9).
const (
	TypeNameOneLevel               = "ONE_LEVEL"
	TypeNameTwoLevelAlphabetic     = "TWO_LEVEL"
	TypeNameAlphabetic             = "ALPHABETIC"
	TypeNameKeypad                 = "KEYPAD"
	TypeNameFourLevel              = "FOUR_LEVEL"
	TypeNameFourLevelAlphabetic    = "FOUR_LEVEL_ALPHABETIC"
	TypeNameFourLevelSemialphabetic = "FOUR_LEVEL_SEMIALPHABETIC"
)
