package xkb

import (
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
)

// Serialize renders km back to the xkb_keymap textual format, grounded on
// keymap-dump.c's per-section dump functions. Round-tripping is best
// effort: spec §9's Open Question on FOUR_LEVEL_SEMIALPHABETIC notes the
// canonical serialization of an automatically-inferred type may not be
// byte-identical to hand-written source that produced the same Keymap.
func (km *Keymap) Serialize() string {
	var b strings.Builder
	b.WriteString("xkb_keymap {\n\n")
	km.serializeKeycodes(&b)
	km.serializeTypes(&b)
	km.serializeCompat(&b)
	km.serializeSymbols(&b)
	b.WriteString("};\n")
	return b.String()
}

func (km *Keymap) serializeKeycodes(b *strings.Builder) {
	fmt.Fprintf(b, "\txkb_keycodes {\n")
	names := sortedAtoms(km.keyNames, km.ctx)
	for _, name := range names {
		kc := km.keyNames[name]
		fmt.Fprintf(b, "\t\t<%s> = %d;\n", km.ctx.atomText(name), kc)
	}
	for i, lm := range km.leds {
		if i == 0 || lm == nil {
			continue
		}
		fmt.Fprintf(b, "\t\tindicator %d = %q;\n", i, km.ctx.atomText(lm.Name))
	}
	b.WriteString("\t};\n\n")
}

func (km *Keymap) serializeTypes(b *strings.Builder) {
	fmt.Fprintf(b, "\txkb_types {\n")
	names := make([]Atom, 0, len(km.types))
	for name := range km.types {
		names = append(names, name)
	}
	sortAtomsByText(names, km.ctx)
	for _, name := range names {
		kt := km.types[name]
		fmt.Fprintf(b, "\t\ttype %q {\n", km.ctx.atomText(name))
		fmt.Fprintf(b, "\t\t\tmodifiers = %s;\n", serializeModMask(km.ctx, km.mods, kt.Mods))
		for _, e := range kt.Entries {
			fmt.Fprintf(b, "\t\t\tmap[%s] = %d;\n", serializeModMask(km.ctx, km.mods, e.Mods), int(e.Level)+1)
			if e.Preserve != 0 {
				fmt.Fprintf(b, "\t\t\tpreserve[%s] = %s;\n", serializeModMask(km.ctx, km.mods, e.Mods), serializeModMask(km.ctx, km.mods, e.Preserve))
			}
		}
		for i, ln := range kt.LevelNames {
			if ln != AtomNone {
				fmt.Fprintf(b, "\t\t\tlevel_name[%d] = %q;\n", i+1, km.ctx.atomText(ln))
			}
		}
		b.WriteString("\t\t};\n")
	}
	b.WriteString("\t};\n\n")
}

func (km *Keymap) serializeCompat(b *strings.Builder) {
	fmt.Fprintf(b, "\txkb_compat {\n")
	for _, si := range km.interps {
		symName := "Any"
		if si.Sym != NoSymbol {
			symName = si.Sym.String()
		}
		fmt.Fprintf(b, "\t\tinterpret %s {\n", symName)
		fmt.Fprintf(b, "\t\t\taction = %s;\n", serializeAction(km.ctx, km.mods, si.Action))
		b.WriteString("\t\t};\n")
	}
	for i, lm := range km.leds {
		if i == 0 || lm == nil {
			continue
		}
		fmt.Fprintf(b, "\t\tindicator %q {\n", km.ctx.atomText(lm.Name))
		if lm.Mods != 0 {
			fmt.Fprintf(b, "\t\t\tmodifiers = %s;\n", serializeModMask(km.ctx, km.mods, lm.Mods))
		}
		b.WriteString("\t\t};\n")
	}
	b.WriteString("\t};\n\n")
}

func (km *Keymap) serializeSymbols(b *strings.Builder) {
	fmt.Fprintf(b, "\txkb_symbols {\n")
	kcs := make([]Keycode, 0, len(km.keys))
	for kc := range km.keys {
		kcs = append(kcs, kc)
	}
	slices.Sort(kcs)
	for _, kc := range kcs {
		key := km.keys[kc]
		fmt.Fprintf(b, "\t\tkey <%s> {\n", km.ctx.atomText(km.keycodeOf[kc]))
		for gi, g := range key.Groups {
			if g.Type != AtomNone {
				fmt.Fprintf(b, "\t\t\ttype[Group%d] = %q;\n", gi+1, km.ctx.atomText(g.Type))
			}
			syms := make([]string, len(g.Levels))
			for li, lvl := range g.Levels {
				if len(lvl.Syms) > 0 {
					syms[li] = lvl.Syms[0].String()
				} else {
					syms[li] = "NoSymbol"
				}
			}
			fmt.Fprintf(b, "\t\t\tsymbols[Group%d] = [ %s ];\n", gi+1, strings.Join(syms, ", "))
		}
		if key.Repeats != nil {
			fmt.Fprintf(b, "\t\t\trepeat = %s;\n", yesNo(*key.Repeats))
		}
		b.WriteString("\t\t};\n")
	}
	b.WriteString("\t};\n\n")
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func sortedAtoms(m map[Atom]Keycode, ctx *Context) []Atom {
	out := make([]Atom, 0, len(m))
	for a := range m {
		out = append(out, a)
	}
	sortAtomsByText(out, ctx)
	return out
}

func sortAtomsByText(atoms []Atom, ctx *Context) {
	slices.SortFunc(atoms, func(a, b Atom) bool {
		return ctx.atomText(a) < ctx.atomText(b)
	})
}

// serializeModMask renders a mask as "Mod1+Shift+...", "None" for zero,
// or a hex fallback for bits with no declared name (spec §4.11).
func serializeModMask(ctx *Context, mods *ModSet, mask ModMask) string {
	if mask == 0 {
		return "None"
	}
	var parts []string
	for i := 0; i < mods.Len(); i++ {
		bit := ModMask(1) << uint(i)
		if mask&bit != 0 {
			parts = append(parts, ctx.atomText(mods.name(ModIndex(i))))
		}
	}
	unnamed := mask &^ (ModMask(1)<<uint(mods.Len()) - 1)
	if unnamed != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", uint32(unnamed)))
	}
	if len(parts) == 0 {
		return "None"
	}
	return strings.Join(parts, "+")
}

// serializeAction renders an Action using the textual action-call syntax
// (spec §4.11), falling back to the raw type/data dump for an
// unrecognized PrivateAction.
func serializeAction(ctx *Context, mods *ModSet, a Action) string {
	switch v := a.(type) {
	case nil, NoAction:
		return "NoAction()"
	case ModAction:
		name := map[ModActionKind]string{ModActionSet: "SetMods", ModActionLatch: "LatchMods", ModActionLock: "LockMods"}[v.Kind]
		return fmt.Sprintf("%s(modifiers=%s)", name, serializeModMask(ctx, mods, v.Mods))
	case GroupAction:
		name := map[GroupActionKind]string{GroupActionSet: "SetGroup", GroupActionLatch: "LatchGroup", GroupActionLock: "LockGroup"}[v.Kind]
		sign := ""
		if v.Relative {
			sign = "+"
		}
		return fmt.Sprintf("%s(group=%s%d)", name, sign, v.Group)
	case TerminateAction:
		return "Terminate()"
	case PtrMoveAction:
		return fmt.Sprintf("MovePtr(x=%d,y=%d)", v.X, v.Y)
	case PtrButtonAction:
		return fmt.Sprintf("PtrBtn(button=%d,count=%d)", v.Button, v.Count)
	case PtrLockAction:
		return fmt.Sprintf("LockPtrBtn(button=%d)", v.Button)
	case PtrDefaultAction:
		return fmt.Sprintf("SetPtrDflt(value=%d)", v.Value)
	case SwitchScreenAction:
		return fmt.Sprintf("SwitchScreen(screen=%d)", v.Screen)
	case CtrlAction:
		name := map[CtrlActionKind]string{CtrlActionSet: "SetControls", CtrlActionLock: "LockControls"}[v.Kind]
		return fmt.Sprintf("%s(controls=0x%x)", name, v.Ctrls)
	case PrivateAction:
		return fmt.Sprintf("type=0x%02x,data[0..6]=%x", v.Type, v.Data)
	default:
		return "NoAction()"
	}
}
