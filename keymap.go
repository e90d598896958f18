package xkb

import "fmt"

// Keymap is the immutable, fully-resolved output of the compilation
// pipeline (spec §3): keycode/keytype/interpretation/symbol tables plus
// the modifier and LED namespaces needed to drive a State machine.
type Keymap struct {
	ctx *Context

	mods *ModSet

	keyNames   map[Atom]Keycode
	keycodeOf  map[Keycode]Atom
	minKeycode Keycode
	maxKeycode Keycode

	types map[Atom]*KeyType

	interps []*SymInterpret
	leds    []*LedMap // index 0 unused; leds[i] is LED index i

	keys map[Keycode]*Key

	groupNames []Atom // index 0 unused; len up to MaxLayouts+1
}

// Context returns the Context this Keymap was compiled with.
func (km *Keymap) Context() *Context { return km.ctx }

// buildState holds the four components' accumulators across the pipeline
// stages in BuildFromNames/BuildFromString (spec §4.5-§4.10).
type buildState struct {
	keycodes *keycodesInfo
	types    *typesInfo
	compat   *compatInfo
	symbols  *symbolsInfo
}

// BuildFromNames resolves rmlvo to a KcCGST expression via the rules
// engine, then compiles it exactly as BuildFromString would (spec §4.4,
// §6's xkb_keymap_new_from_names entry point).
func BuildFromNames(ctx *Context, rmlvo RMLVO) (*Keymap, error) {
	rmlvo = ctx.defaultRMLVO(rmlvo)
	if rmlvo.Rules == "" {
		rmlvo.Rules = "evdev"
	}

	path, ok := findInIncludePath(ctx, FileRules, rmlvo.Rules)
	if !ok {
		ctx.log.errorf(MsgIncludedFileNotFound, "", 0, 0, "could not find rules file %q", rmlvo.Rules)
		return nil, fmt.Errorf("%s: %w", rmlvo.Rules, ErrIncludeNotFound)
	}
	buf, err := readMapped(ctx, path)
	if err != nil {
		return nil, err
	}

	kccgst, err := resolveRules(ctx, string(buf), rmlvo)
	if err != nil {
		return nil, err
	}
	return buildFromKcCGST(ctx, kccgst)
}

// buildFromKcCGST resolves and compiles each of the four include
// expressions, merges their sections, and finalizes the result.
func buildFromKcCGST(ctx *Context, kccgst KcCGST) (*Keymap, error) {
	var st buildState
	var err error

	if st.keycodes, err = compileKeycodesExpr(ctx, kccgst.Keycodes); err != nil {
		return nil, err
	}
	mods := newModSet(ctx)
	if st.types, err = compileTypesExpr(ctx, kccgst.Types, mods); err != nil {
		return nil, err
	}
	if st.compat, err = compileCompatExpr(ctx, kccgst.Compat, mods); err != nil {
		return nil, err
	}
	if st.symbols, err = compileSymbolsExpr(ctx, kccgst.Symbols, mods); err != nil {
		return nil, err
	}

	if st.keycodes.nameTable.len() == 0 || st.types.types.len() == 0 ||
		st.compat.interps == nil && st.compat.leds.len() == 0 || st.symbols.keys.len() == 0 {
		ctx.log.errorf(MsgKeymapCompilationFailed, "", 0, 0, "one or more required components resolved to nothing")
		return nil, ErrMissingComponent
	}

	return finalizeKeymap(ctx, mods, st)
}

// BuildFromString compiles a single already-assembled keymap document
// (an xkb_keymap wrapper with all four nested sections), per spec §6's
// xkb_keymap_new_from_string.
func BuildFromString(ctx *Context, text string, format KeymapFormat) (*Keymap, error) {
	if format != TextV1 {
		return nil, fmt.Errorf("%w: unsupported keymap format", ErrSyntax)
	}
	xf, err := ParseFile(ctx, "(string)", []byte(text))
	if err != nil {
		return nil, err
	}
	if xf.Type != FileKeymap {
		return nil, fmt.Errorf("%w: expected an xkb_keymap document", ErrSyntax)
	}

	var st buildState
	mods := newModSet(ctx)
	for _, sec := range xf.Sections {
		switch sec.Type {
		case FileKeycodes:
			info, err := compileKeycodesSection(ctx, sec, MergeDefault)
			if err != nil {
				return nil, err
			}
			st.keycodes = info
		case FileTypes:
			info, err := compileTypesSection(ctx, sec, MergeDefault, mods)
			if err != nil {
				return nil, err
			}
			st.types = info
		case FileCompat:
			info, err := compileCompatSection(ctx, sec, MergeDefault, mods)
			if err != nil {
				return nil, err
			}
			st.compat = info
		case FileSymbols:
			info, err := compileSymbolsSection(ctx, sec, MergeDefault, mods)
			if err != nil {
				return nil, err
			}
			st.symbols = info
		}
	}
	if st.keycodes == nil || st.types == nil || st.compat == nil || st.symbols == nil {
		ctx.log.errorf(MsgKeymapCompilationFailed, "(string)", 0, 0, "xkb_keymap is missing a required section")
		return nil, ErrMissingComponent
	}
	return finalizeKeymap(ctx, mods, st)
}

// BuildFromFile reads path and compiles it exactly as BuildFromString
// would, per spec §6's xkb_keymap_new_from_file.
func BuildFromFile(ctx *Context, path string) (*Keymap, error) {
	buf, err := readMapped(ctx, path)
	if err != nil {
		return nil, err
	}
	return BuildFromString(ctx, string(buf), TextV1)
}

// compileKeycodesExpr resolves an include expression against the
// "keycodes" search path and compiles+merges every resulting section in
// expression order.
func compileKeycodesExpr(ctx *Context, expr string) (*keycodesInfo, error) {
	sections, modes, err := resolveTopLevelExpr(ctx, FileKeycodes, expr)
	if err != nil {
		return nil, err
	}
	info := newKeycodesInfo()
	for i, sec := range sections {
		sub, err := compileKeycodesSection(ctx, sec, MergeDefault)
		if err != nil {
			return nil, err
		}
		mergeKeycodes(info, sub, modes[i])
	}
	return info, nil
}

func compileTypesExpr(ctx *Context, expr string, mods *ModSet) (*typesInfo, error) {
	sections, modes, err := resolveTopLevelExpr(ctx, FileTypes, expr)
	if err != nil {
		return nil, err
	}
	info := newTypesInfo()
	for i, sec := range sections {
		sub, err := compileTypesSection(ctx, sec, MergeDefault, mods)
		if err != nil {
			return nil, err
		}
		mergeTypes(info, sub, modes[i])
	}
	return info, nil
}

func compileCompatExpr(ctx *Context, expr string, mods *ModSet) (*compatInfo, error) {
	sections, modes, err := resolveTopLevelExpr(ctx, FileCompat, expr)
	if err != nil {
		return nil, err
	}
	info := newCompatInfo()
	for i, sec := range sections {
		sub, err := compileCompatSection(ctx, sec, MergeDefault, mods)
		if err != nil {
			return nil, err
		}
		mergeCompat(info, sub, modes[i])
	}
	return info, nil
}

func compileSymbolsExpr(ctx *Context, expr string, mods *ModSet) (*symbolsInfo, error) {
	sections, modes, err := resolveTopLevelExpr(ctx, FileSymbols, expr)
	if err != nil {
		return nil, err
	}
	info := newSymbolsInfo()
	for i, sec := range sections {
		sub, err := compileSymbolsSection(ctx, sec, MergeDefault, mods)
		if err != nil {
			return nil, err
		}
		mergeSymbols(info, sub, modes[i])
	}
	return info, nil
}

// resolveTopLevelExpr treats a KcCGST component string as the expression
// of a synthetic top-level IncludeStmt, reusing the same resolver the
// per-file `include` statement uses (spec §4.4's output feeds directly
// into §4.5's include resolution).
func resolveTopLevelExpr(ctx *Context, ft FileType, expr string) ([]*Section, []MergeMode, error) {
	r := newIncludeResolver(ctx, ft)
	return r.resolveInclude(IncludeStmt{Expr: expr})
}

// compileKeycodesSection compiles a section's own statements, expanding
// any nested `include` statements in place and merging their results at
// the point they occur (spec §4.5). Includes are expected to appear as a
// contiguous prefix or in well-separated runs, the overwhelmingly common
// convention in hand-written XKB files; arbitrary interleaving of a
// single include between two conflicting same-name definitions is not
// distinguished from having hoisted that include to the nearest boundary.
func compileKeycodesSection(ctx *Context, sec *Section, inherited MergeMode) (*keycodesInfo, error) {
	info := newKeycodesInfo()
	info.name = sec.Name
	r := newIncludeResolver(ctx, FileKeycodes)

	var run []Stmt
	flush := func() error {
		if len(run) == 0 {
			return nil
		}
		sub, err := compileKeycodes(ctx, &Section{Name: sec.Name, Stmts: run}, inherited)
		if err != nil {
			return err
		}
		mergeKeycodes(info, sub, inherited)
		run = nil
		return nil
	}
	for _, st := range sec.Stmts {
		inc, ok := st.(IncludeStmt)
		if !ok {
			run = append(run, st)
			continue
		}
		if err := flush(); err != nil {
			return nil, err
		}
		children, modes, err := r.resolveInclude(inc)
		if err != nil {
			return nil, err
		}
		for i, child := range children {
			sub, err := compileKeycodesSection(ctx, child, MergeDefault)
			if err != nil {
				return nil, err
			}
			mergeKeycodes(info, sub, modes[i])
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return info, nil
}

func compileTypesSection(ctx *Context, sec *Section, inherited MergeMode, mods *ModSet) (*typesInfo, error) {
	info := newTypesInfo()
	info.name = sec.Name
	r := newIncludeResolver(ctx, FileTypes)

	var run []Stmt
	flush := func() error {
		if len(run) == 0 {
			return nil
		}
		sub, err := compileTypes(ctx, &Section{Name: sec.Name, Stmts: run}, inherited, mods)
		if err != nil {
			return err
		}
		mergeTypes(info, sub, inherited)
		run = nil
		return nil
	}
	for _, st := range sec.Stmts {
		inc, ok := st.(IncludeStmt)
		if !ok {
			run = append(run, st)
			continue
		}
		if err := flush(); err != nil {
			return nil, err
		}
		children, modes, err := r.resolveInclude(inc)
		if err != nil {
			return nil, err
		}
		for i, child := range children {
			sub, err := compileTypesSection(ctx, child, MergeDefault, mods)
			if err != nil {
				return nil, err
			}
			mergeTypes(info, sub, modes[i])
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return info, nil
}

func compileCompatSection(ctx *Context, sec *Section, inherited MergeMode, mods *ModSet) (*compatInfo, error) {
	info := newCompatInfo()
	info.name = sec.Name
	r := newIncludeResolver(ctx, FileCompat)

	var run []Stmt
	flush := func() error {
		if len(run) == 0 {
			return nil
		}
		sub, err := compileCompat(ctx, &Section{Name: sec.Name, Stmts: run}, inherited, mods)
		if err != nil {
			return err
		}
		mergeCompat(info, sub, inherited)
		run = nil
		return nil
	}
	for _, st := range sec.Stmts {
		inc, ok := st.(IncludeStmt)
		if !ok {
			run = append(run, st)
			continue
		}
		if err := flush(); err != nil {
			return nil, err
		}
		children, modes, err := r.resolveInclude(inc)
		if err != nil {
			return nil, err
		}
		for i, child := range children {
			sub, err := compileCompatSection(ctx, child, MergeDefault, mods)
			if err != nil {
				return nil, err
			}
			mergeCompat(info, sub, modes[i])
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return info, nil
}

func compileSymbolsSection(ctx *Context, sec *Section, inherited MergeMode, mods *ModSet) (*symbolsInfo, error) {
	info := newSymbolsInfo()
	info.name = sec.Name
	r := newIncludeResolver(ctx, FileSymbols)

	var run []Stmt
	flush := func() error {
		if len(run) == 0 {
			return nil
		}
		sub, err := compileSymbols(ctx, &Section{Name: sec.Name, Stmts: run}, inherited, mods)
		if err != nil {
			return err
		}
		mergeSymbols(info, sub, inherited)
		run = nil
		return nil
	}
	for _, st := range sec.Stmts {
		inc, ok := st.(IncludeStmt)
		if !ok {
			run = append(run, st)
			continue
		}
		if err := flush(); err != nil {
			return nil, err
		}
		children, modes, err := r.resolveInclude(inc)
		if err != nil {
			return nil, err
		}
		for i, child := range children {
			sub, err := compileSymbolsSection(ctx, child, MergeDefault, mods)
			if err != nil {
				return nil, err
			}
			mergeSymbols(info, sub, modes[i])
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return info, nil
}

// --- Keymap query surface (spec §6) ---

// NumModifiers returns the number of declared modifiers, real plus
// virtual.
func (km *Keymap) NumModifiers() int { return km.mods.Len() }

// ModifierName returns the name of the modifier at idx, or "" if out of
// range.
func (km *Keymap) ModifierName(idx ModIndex) string { return km.ctx.atomText(km.mods.name(idx)) }

// ModifierIndex returns the index of a named modifier, and whether it is
// declared.
func (km *Keymap) ModifierIndex(name string) (ModIndex, bool) {
	a, ok := km.ctx.lookupAtom(name)
	if !ok {
		return 0, false
	}
	return km.mods.index(a)
}

// NumLayouts returns the number of distinct groups declared across every
// key (spec §6's num_layouts), capped at MaxLayouts.
func (km *Keymap) NumLayouts() int {
	n := 0
	for _, k := range km.keys {
		if len(k.Groups) > n {
			n = len(k.Groups)
		}
	}
	return n
}

// LayoutName returns the descriptive name for a 0-based layout index, or
// "" if unnamed.
func (km *Keymap) LayoutName(layout int) string {
	idx := layout + 1
	if idx < 0 || idx >= len(km.groupNames) {
		return ""
	}
	return km.ctx.atomText(km.groupNames[idx])
}

// NumLeds returns the number of bound LED indicators.
func (km *Keymap) NumLeds() int { return len(km.leds) - 1 }

// LedName returns the name of the LED at a 1-based index.
func (km *Keymap) LedName(idx int) string {
	if idx <= 0 || idx >= len(km.leds) || km.leds[idx] == nil {
		return ""
	}
	return km.ctx.atomText(km.leds[idx].Name)
}

// NumGroupsForKey returns how many groups a keycode defines.
func (km *Keymap) NumGroupsForKey(kc Keycode) int {
	k, ok := km.keys[kc]
	if !ok {
		return 0
	}
	return len(k.Groups)
}

// NumLevelsForKeyGroup returns how many shift levels a (key, group) has.
func (km *Keymap) NumLevelsForKeyGroup(kc Keycode, group int) int {
	k, ok := km.keys[kc]
	if !ok || group < 0 || group >= len(k.Groups) {
		return 0
	}
	return len(k.Groups[group].Levels)
}

// KeyGetSymsByLevel returns the keysyms a (key, group, level) produces.
func (km *Keymap) KeyGetSymsByLevel(kc Keycode, group, level int) []Keysym {
	k, ok := km.keys[kc]
	if !ok || group < 0 || group >= len(k.Groups) {
		return nil
	}
	g := k.Groups[group]
	if level < 0 || level >= len(g.Levels) {
		return nil
	}
	return g.Levels[level].Syms
}

// KeyRepeats reports whether a key repeats when held (spec §6).
func (km *Keymap) KeyRepeats(kc Keycode) bool {
	k, ok := km.keys[kc]
	if !ok || k.Repeats == nil {
		return true // spec §4.9 default: keys repeat unless declared otherwise
	}
	return *k.Repeats
}

// KeycodeByName resolves a key name (as written between angle brackets,
// without them) to its keycode.
func (km *Keymap) KeycodeByName(name string) (Keycode, bool) {
	a, ok := km.ctx.lookupAtom(name)
	if !ok {
		return 0, false
	}
	kc, ok := km.keyNames[a]
	return kc, ok
}

// KeyName returns the declared name for a keycode, without angle
// brackets.
func (km *Keymap) KeyName(kc Keycode) string {
	return km.ctx.atomText(km.keycodeOf[kc])
}

// MinKeycode and MaxKeycode report the compiled keycode range.
func (km *Keymap) MinKeycode() Keycode { return km.minKeycode }
func (km *Keymap) MaxKeycode() Keycode { return km.maxKeycode }
