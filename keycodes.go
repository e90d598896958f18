package xkb

import (
	"github.com/samber/lo"
	"golang.org/x/exp/maps"
)

// Keycode is a physical key code, spec §3's base unit for indexing into a
// Keymap's key table. 0 is reserved (invalid); the legal range mirrors the
// X11 protocol's 8..255.
type Keycode uint32

const (
	MinKeycode Keycode = 8
	MaxKeycode Keycode = 255
)

// keycodesInfo accumulates one xkb_keycodes section's declarations before
// they're folded into the Keymap by the finalizer (spec §4.6).
type keycodesInfo struct {
	name      string
	nameTable *mergeTable[Atom, Keycode] // key name atom -> keycode
	aliases   *mergeTable[Atom, Atom]    // alias atom -> real name atom
	indicators map[int64]string
	virtualIndicators map[int64]bool
	errorCount int
}

func newKeycodesInfo() *keycodesInfo {
	return &keycodesInfo{
		nameTable:  newMergeTable[Atom, Keycode](),
		aliases:    newMergeTable[Atom, Atom](),
		indicators: make(map[int64]string),
		virtualIndicators: make(map[int64]bool),
	}
}

// compileKeycodes walks one xkb_keycodes section's statements, producing a
// keycodesInfo. Conflicting keycode_defs for the same name follow the
// MergeReplace/MergeOverride-wins, otherwise-first-wins rule from
// AddKeyType (spec §4.6, §4.5).
func compileKeycodes(ctx *Context, sec *Section, inherited MergeMode) (*keycodesInfo, error) {
	info := newKeycodesInfo()
	info.name = sec.Name

	for _, st := range sec.Stmts {
		switch s := st.(type) {
		case KeycodeStmt:
			mode := effectiveMergeMode(inherited, s.Merge)
			if s.Value < int64(MinKeycode) || s.Value > int64(MaxKeycode) {
				ctx.log.errorf(MsgUnsupportedGroupIndex, sec.Name, 0, 0,
					"keycode %d for %q out of range [%d,%d]", s.Value, ctx.atomText(s.Name), MinKeycode, MaxKeycode)
				info.errorCount++
				continue
			}
			info.nameTable.put(s.Name, Keycode(s.Value), mode, true, func(old, new Keycode, replaced bool) {
				ctx.log.warnf(MsgDuplicateEntry, sec.Name, 0, 0,
					"multiple keycodes for %q; %s definition used", ctx.atomText(s.Name), lo.Ternary(replaced, "later", "earlier"))
			})
		case AliasStmt:
			mode := effectiveMergeMode(inherited, s.Merge)
			info.aliases.put(s.Alias, s.Real, mode, true, func(old, new Atom, replaced bool) {
				ctx.log.warnf(MsgIllegalKeycodeAlias, sec.Name, 0, 0,
					"multiple definitions of alias %q; %s definition used", ctx.atomText(s.Alias), lo.Ternary(replaced, "later", "earlier"))
			})
		case IndicatorNameStmt:
			if s.Virtual {
				info.virtualIndicators[s.Index] = true
			}
			info.indicators[s.Index] = s.Name
		case IncludeStmt:
			// Resolved by the caller before compileKeycodes runs; see
			// compileKeycodesSection in keymap.go.
		}
	}
	return info, nil
}

// mergeKeycodes folds src into dst per mode, the way MergeIncludedKeyTypes
// folds one included file's table into the accumulating one.
func mergeKeycodes(dst, src *keycodesInfo, mode MergeMode) {
	if dst.name == "" {
		dst.name = src.name
	}
	for _, name := range src.nameTable.keys() {
		kc, _ := src.nameTable.get(name)
		dst.nameTable.put(name, kc, mode, false, nil)
	}
	for _, alias := range src.aliases.keys() {
		real, _ := src.aliases.get(alias)
		dst.aliases.put(alias, real, mode, false, nil)
	}
	for idx, name := range src.indicators {
		if _, exists := dst.indicators[idx]; !exists || mode != MergeAugment {
			dst.indicators[idx] = name
		}
	}
	for idx := range src.virtualIndicators {
		dst.virtualIndicators[idx] = true
	}
	dst.errorCount += src.errorCount
}

// resolveAlias follows an alias chain to its real key name atom, stopping
// after NumRealMods-independent bound of len(aliases)+1 hops to tolerate
// (and report) an alias cycle rather than looping forever.
func (info *keycodesInfo) resolveAlias(ctx *Context, name Atom) Atom {
	seen := map[Atom]bool{}
	cur := name
	for i := 0; i <= info.aliases.len(); i++ {
		real, ok := info.aliases.get(cur)
		if !ok {
			return cur
		}
		if seen[real] {
			ctx.log.warnf(MsgIllegalKeycodeAlias, info.name, 0, 0, "alias cycle involving %q", ctx.atomText(name))
			return cur
		}
		seen[cur] = true
		cur = real
	}
	return cur
}

// keycodeFor resolves a key name atom (following aliases) to its declared
// keycode, reporting whether one was found.
func (info *keycodesInfo) keycodeFor(ctx *Context, name Atom) (Keycode, bool) {
	real := info.resolveAlias(ctx, name)
	kc, ok := info.nameTable.get(real)
	return kc, ok
}

// keyNames returns every declared key name atom, in declaration order.
func (info *keycodesInfo) keyNames() []Atom { return info.nameTable.keys() }

// sortedIndicatorIndices returns the declared indicator indices in
// ascending order.
func (info *keycodesInfo) sortedIndicatorIndices() []int64 {
	idxs := maps.Keys(info.indicators)
	for i := 1; i < len(idxs); i++ {
		for j := i; j > 0 && idxs[j-1] > idxs[j]; j-- {
			idxs[j-1], idxs[j] = idxs[j], idxs[j-1]
		}
	}
	return idxs
}
