package xkb

import (
	"math/bits"
	"strings"
)

// finalizeKeymap assembles the four compiled component tables into an
// immutable Keymap: binding keycodes (following aliases), resolving
// virtual modifiers to the real modifiers they project onto, applying
// symbol interpretations to any (key, group, level) the symbols compiler
// left without an explicit action, and binding indicator names to LED
// indices (spec §4.10, grounded on keymap.c's
// CompileKeymap/UpdateDerivedKeymapFields pass).
func finalizeKeymap(ctx *Context, mods *ModSet, st buildState) (*Keymap, error) {
	km := &Keymap{
		ctx:       ctx,
		mods:      mods,
		keyNames:  make(map[Atom]Keycode),
		keycodeOf: make(map[Keycode]Atom),
		types:     make(map[Atom]*KeyType),
		interps:   st.compat.interps,
		keys:      make(map[Keycode]*Key),
	}

	for _, name := range st.keycodes.keyNames() {
		kc, _ := st.keycodes.nameTable.get(name)
		km.keyNames[name] = kc
		km.keycodeOf[kc] = name
		if km.minKeycode == 0 || kc < km.minKeycode {
			km.minKeycode = kc
		}
		if kc > km.maxKeycode {
			km.maxKeycode = kc
		}
	}
	for _, alias := range st.keycodes.aliases.keys() {
		kc, ok := st.keycodes.keycodeFor(ctx, alias)
		if ok {
			km.keyNames[alias] = kc
		}
	}

	for _, name := range st.types.types.keys() {
		kt, _ := st.types.types.get(name)
		km.types[name] = kt
	}

	bindIndicators(ctx, st, km)

	resolveVirtualModifiers(mods, st.compat.interps)

	for _, keyName := range st.symbols.keys.keys() {
		key, _ := st.symbols.keys.get(keyName)
		kc, ok := st.keycodes.keycodeFor(ctx, keyName)
		if !ok {
			continue // symbols may legitimately define keys the active keycodes component doesn't bind
		}
		inferGroupTypes(ctx, km.types, key)
		applyInterpretations(st.compat.interps, key)
		key.ownKeycode = kc
		km.keys[kc] = key
	}

	km.groupNames = make([]Atom, MaxLayouts+1)
	for g, name := range st.symbols.groupNames {
		if g >= 1 && g <= MaxLayouts {
			km.groupNames[g] = name
		}
	}

	return km, nil
}

// bindIndicators assigns each compat-declared LedMap a 1-based index:
// first honoring any index the keycodes component declared for that
// name, then auto-assigning the remaining names sequentially (spec
// §4.10's "bind indicators" step).
func bindIndicators(ctx *Context, st buildState, km *Keymap) {
	const maxLeds = 32
	byIndex := make(map[int64]Atom, len(st.keycodes.indicators))
	for idx, name := range st.keycodes.indicators {
		byIndex[idx] = ctx.internAtom(name)
	}

	assigned := make(map[Atom]int64)
	for idx, name := range byIndex {
		assigned[name] = idx
	}

	next := int64(1)
	nextFree := func() int64 {
		for {
			if _, used := byIndex[next]; !used {
				idx := next
				next++
				return idx
			}
			next++
		}
	}

	maxIdx := int64(0)
	for _, ledName := range st.compat.leds.keys() {
		lm, _ := st.compat.leds.get(ledName)
		idx, ok := assigned[lm.Name]
		if !ok {
			if lm.Index > 0 {
				idx = lm.Index
			} else {
				idx = nextFree()
			}
			assigned[lm.Name] = idx
			byIndex[idx] = lm.Name
		}
		lm.Index = idx
		if idx > maxIdx {
			maxIdx = idx
		}
	}
	for idx, name := range byIndex {
		if idx > maxIdx {
			maxIdx = idx
		}
		if _, ok := st.compat.leds.get(name); !ok {
			// A keycodes-declared indicator name with no compat indicator
			// block still reserves its index (spec §4.6/§4.8 interaction).
			lm := &LedMap{Name: name, Index: idx}
			st.compat.leds.put(name, lm, MergeOverride, true, nil)
		}
	}
	if maxIdx > maxLeds {
		maxIdx = maxLeds
	}

	km.leds = make([]*LedMap, maxIdx+1)
	for _, name := range st.compat.leds.keys() {
		lm, _ := st.compat.leds.get(name)
		if lm.Index >= 1 && int(lm.Index) < len(km.leds) {
			km.leds[lm.Index] = lm
		}
	}
}

// resolveVirtualModifiers projects each SymInterpret's claimed virtual
// modifier onto the real modifiers its own predicate matched against,
// accumulating the mapping in mods (spec §4.10 step 1, consumed by
// ModSet.resolveToReal at state-update time).
func resolveVirtualModifiers(mods *ModSet, interps []*SymInterpret) {
	realMask := ModMask(1)<<NumRealMods - 1
	for _, si := range interps {
		if si.SetMods == 0 {
			continue
		}
		idx := ModIndex(bits.TrailingZeros32(uint32(si.SetMods)))
		mods.setMapping(idx, si.Mods&realMask)
	}
}

// inferGroupTypes fills in the KeyType name for every group of key that
// declared no explicit `type[GroupN]`, per spec §4.9's automatic type
// inference rule: narrow down to the builtin type name matching the
// highest populated level, falling back to the next-narrower candidate
// whenever the keymap's types component never declared that name, and
// finally to a bare one-level type with a logged warning.
func inferGroupTypes(ctx *Context, types map[Atom]*KeyType, key *Key) {
	for gi := range key.Groups {
		g := &key.Groups[gi]
		if g.Type != AtomNone {
			if _, ok := types[g.Type]; ok {
				continue
			}
		}
		g.Type = inferOneGroupType(ctx, types, g)
	}
}

// inferOneGroupType picks the narrowest declared builtin type for g,
// trying candidates from most to least specific (spec §4.9).
func inferOneGroupType(ctx *Context, types map[Atom]*KeyType, g *KeyGroup) Atom {
	highest := -1
	for i, lvl := range g.Levels {
		if len(lvl.Syms) > 0 && lvl.Syms[0] != NoSymbol {
			highest = i
		}
	}
	n := highest + 1

	for _, name := range candidateTypeNames(n, g) {
		a := ctx.internAtom(name)
		if _, ok := types[a]; ok {
			return a
		}
	}
	ctx.log.warnf(MsgCannotInferKeyType, "", 0, 0,
		"could not infer a key type for a %d-level group; falling back to one level", n)
	return AtomNone
}

// candidateTypeNames orders the builtin type names worth trying for a
// group that populates n levels, most specific first (spec §4.9's
// "ONE_LEVEL, TWO_LEVEL, ALPHABETIC, KEYPAD, etc." list).
func candidateTypeNames(n int, g *KeyGroup) []string {
	switch {
	case n <= 1:
		return []string{TypeNameOneLevel}
	case n == 2:
		if isCaseAlphabeticPair(g.Levels[0].Syms, g.Levels[1].Syms) {
			return []string{TypeNameAlphabetic, TypeNameTwoLevelAlphabetic, TypeNameOneLevel}
		}
		if isKeypadGroup(g) {
			return []string{TypeNameKeypad, TypeNameTwoLevelAlphabetic, TypeNameOneLevel}
		}
		return []string{TypeNameTwoLevelAlphabetic, TypeNameOneLevel}
	case n == 3:
		return []string{TypeNameFourLevelSemialphabetic, TypeNameFourLevel, TypeNameTwoLevelAlphabetic, TypeNameOneLevel}
	default:
		if isKeypadGroup(g) {
			return []string{TypeNameKeypad, TypeNameFourLevel, TypeNameTwoLevelAlphabetic, TypeNameOneLevel}
		}
		return []string{TypeNameFourLevelAlphabetic, TypeNameFourLevel, TypeNameTwoLevelAlphabetic, TypeNameOneLevel}
	}
}

// isCaseAlphabeticPair reports whether the two levels are a lower/upper
// case pair of the same Latin letter, the signal the original uses to
// prefer ALPHABETIC over the plain TWO_LEVEL type.
func isCaseAlphabeticPair(lower, upper []Keysym) bool {
	if len(lower) == 0 || len(upper) == 0 {
		return false
	}
	lowerVal, upperVal := uint32(lower[0]), uint32(upper[0])
	return lowerVal >= 'a' && lowerVal <= 'z' && upperVal == lowerVal-('a'-'A')
}

// isKeypadGroup reports whether every populated level of g carries a
// KP_-prefixed keysym name.
func isKeypadGroup(g *KeyGroup) bool {
	seen := false
	for _, lvl := range g.Levels {
		if len(lvl.Syms) == 0 || lvl.Syms[0] == NoSymbol {
			continue
		}
		seen = true
		if !strings.HasPrefix(lvl.Syms[0].String(), "KP_") {
			return false
		}
	}
	return seen
}

// applyInterpretations fills in any (group, level) of key that the
// symbols compiler left with no explicit action, matching against interps
// in specificity order (spec §4.8/§4.10). The predicate mask an
// interpretation's mods are matched against is the key's own modmap
// (spec §4.10 step 1: "mods match the per-key modmap per match_kind"),
// not the type's level-selecting mask — a key carries its modmap via
// `modifier_map` statements independently of which type governs its
// groups.
func applyInterpretations(interps []*SymInterpret, key *Key) {
	for gi := range key.Groups {
		g := &key.Groups[gi]
		for li := range g.Levels {
			lvl := &g.Levels[li]
			if lvl.Action != nil {
				continue
			}
			for _, sym := range lvl.Syms {
				if match := findInterpretation(interps, sym, key.ModMapMods, li); match != nil {
					lvl.Action = match.Action
					key.VirtualMods |= match.SetMods
					if key.Repeats == nil && match.Repeat != nil {
						key.Repeats = match.Repeat
					}
					break
				}
			}
		}
	}
}

// findInterpretation returns the highest-specificity SymInterpret
// matching (sym, active), trying an exact-keysym match before falling
// back to an "Any" entry, per spec §4.8. level is the 0-based level index
// being resolved; an interpretation declaring level_one_only only
// matches level 0 (spec §4.10 step 1).
func findInterpretation(interps []*SymInterpret, sym Keysym, active ModMask, level int) *SymInterpret {
	var anyMatch *SymInterpret
	for _, si := range interps {
		if si.Sym != NoSymbol && si.Sym != sym {
			continue
		}
		if si.LevelOneOnly && level != 0 {
			continue
		}
		if !si.MatchKind.matches(si.Mods, active) {
			continue
		}
		if si.Sym == sym {
			return si
		}
		if anyMatch == nil {
			anyMatch = si
		}
	}
	return anyMatch
}
