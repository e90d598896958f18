package xkb

// Direction is a key transition passed to State.UpdateKey.
type Direction int

const (
	KeyUp Direction = iota
	KeyDown
)

// StateComponent selects which mod/layout triple a query or
// serialization targets (spec §4.12's "component" parameter).
type StateComponent int

const (
	StateDepressed StateComponent = iota
	StateLatched
	StateLocked
	StateEffective
)

// modTriple is the (depressed, latched, locked) state shared by mods and
// layout, plus the derived effective value (spec §4.12).
type modTriple struct {
	depressed ModMask
	latched   ModMask
	locked    ModMask
}

func (t *modTriple) effective() ModMask { return t.depressed | t.latched | t.locked }

type layoutTriple struct {
	depressed int32
	latched   int32
	locked    int32
}

// latchState tracks an armed latch between the key-down that set it and
// the next other key's down, which breaks it (spec §4.12 step 6, §8
// scenario E2).
type latchState struct {
	active bool
	mods   ModMask
	toLock bool
}

// State is the mutable per-seat runtime half of the compiled Keymap: the
// depressed/latched/locked modifier and layout triples, derived effective
// values, and LED activity, updated by key events or externally
// serialized masks (spec §3, §4.12).
type State struct {
	km *Keymap

	mods   modTriple
	layout layoutTriple

	keyModMap map[Keycode]ModMask // modmap bits currently asserted by a held key

	latch latchState

	ledMask uint32 // bit i set means leds[i+1] active
}

// NewState constructs a State bound to km, all triples zeroed (spec §3's
// "State owns a shared reference to Keymap").
func NewState(km *Keymap) (*State, error) {
	if km == nil {
		return nil, ErrNoKeymap
	}
	st := &State{km: km, keyModMap: make(map[Keycode]ModMask)}
	st.recompute()
	return st, nil
}

// Keymap returns the Keymap this State was constructed from.
func (s *State) Keymap() *Keymap { return s.km }

// UpdateKey processes one key transition, following spec §4.12's
// resolve/act/recompute ordering. Unknown keycodes are silent no-ops, per
// spec §7's "the state machine never returns errors."
func (s *State) UpdateKey(kc Keycode, dir Direction) {
	key, ok := s.km.keys[kc]
	if !ok {
		return
	}

	group := s.resolveGroup(key)
	gi := int(group)
	if gi < 0 || gi >= len(key.Groups) {
		return
	}
	g := key.Groups[gi]
	kt := s.km.types[g.Type]
	level, _ := s.levelForKey(kt)
	if int(level) >= len(g.Levels) {
		level = 0
	}
	var action Action
	if int(level) < len(g.Levels) {
		action = g.Levels[level].Action
	}

	switch dir {
	case KeyDown:
		s.applyActionDown(key, action)
	case KeyUp:
		s.applyActionUp(key, action)
	}

	s.recompute()
}

// resolveGroup maps the current effective layout onto one of key's
// declared groups per its GroupsWrap policy (spec §4.12 step 2).
func (s *State) resolveGroup(key *Key) int32 {
	n := int32(len(key.Groups))
	if n == 0 {
		return 0
	}
	eff := s.layout.effective()
	if eff >= 0 && eff < n {
		return eff
	}
	switch key.GroupsWrap {
	case GroupsSaturate:
		if eff < 0 {
			return 0
		}
		return n - 1
	case GroupsRedirect:
		r := int32(key.RedirectGroup)
		if r < 0 || r >= n {
			return 0
		}
		return r
	default: // GroupsWrap
		m := eff % n
		if m < 0 {
			m += n
		}
		return m
	}
}

// levelForKey finds the type map entry matching the effective modifiers
// masked by the type's own mods, returning level 0 and an empty preserve
// mask when nothing matches (spec §4.12 step 3, §4.7).
func (s *State) levelForKey(kt *KeyType) (Level, ModMask) {
	if kt == nil {
		return 0, 0
	}
	return kt.levelForMods(s.mods.effective())
}

func (s *State) applyActionDown(key *Key, a Action) {
	if key.ModMapMods != 0 {
		s.mods.depressed |= key.ModMapMods
		s.keyModMap[key.keycode()] = key.ModMapMods
	}
	armsLatch := false
	switch v := a.(type) {
	case ModAction:
		real := s.km.mods.resolveToReal(v.Mods)
		if v.UseModMapMods {
			real = key.ModMapMods
		}
		switch v.Kind {
		case ModActionSet:
			s.mods.depressed |= real
		case ModActionLatch:
			s.mods.latched |= real
			s.latch.active = true
			s.latch.mods |= real
			s.latch.toLock = v.LatchToLock
			armsLatch = true
		case ModActionLock:
			s.mods.locked ^= real
		}
	case GroupAction:
		s.applyGroupAction(v)
	}
	// Any key-down other than the one that just armed the latch breaks
	// it: the breaking key's own keysym is still resolved against the
	// latched modifiers (UpdateKey computes level before calling this),
	// but the latch itself clears, or locks, right here rather than
	// waiting on an up event that may never name it (spec §8 E2).
	if s.latch.active && !armsLatch {
		if s.latch.toLock {
			s.mods.locked |= s.latch.mods
		}
		s.mods.latched &^= s.latch.mods
		s.latch.active = false
	}
}

func (s *State) applyActionUp(key *Key, a Action) {
	if bits, ok := s.keyModMap[key.keycode()]; ok {
		s.mods.depressed &^= bits
		delete(s.keyModMap, key.keycode())
	}
	switch v := a.(type) {
	case ModAction:
		if v.Kind == ModActionSet {
			real := s.km.mods.resolveToReal(v.Mods)
			if v.UseModMapMods {
				real = key.ModMapMods
			}
			s.mods.depressed &^= real
		}
	}
}

func (s *State) applyGroupAction(v GroupAction) {
	switch v.Kind {
	case GroupActionSet:
		if v.Relative {
			s.layout.depressed += v.Group
		} else {
			s.layout.depressed = v.Group
		}
	case GroupActionLatch:
		if v.Relative {
			s.layout.latched += v.Group
		} else {
			s.layout.latched = v.Group
		}
	case GroupActionLock:
		if v.Relative {
			s.layout.locked += v.Group
		} else {
			s.layout.locked = v.Group
		}
	}
}

// keycode returns a Key's own keycode, bound by finalizeKeymap.
func (k *Key) keycode() Keycode { return k.ownKeycode }

// UpdateMask overwrites the state triples directly, the lossy
// serialization path used by display servers relaying a remote client's
// last-known state (spec §4.12's update_mask).
func (s *State) UpdateMask(baseMods, latchedMods, lockedMods ModMask, baseGroup, latchedGroup, lockedGroup int32) {
	s.mods.depressed = baseMods
	s.mods.latched = latchedMods
	s.mods.locked = lockedMods
	s.layout.depressed = baseGroup
	s.layout.latched = latchedGroup
	s.layout.locked = lockedGroup
	s.latch.active = false
	s.recompute()
}

// recompute derives effective mods/layout and LED activity from the
// current triples (spec §4.12 step 7).
func (s *State) recompute() {
	eff := s.mods.effective()
	s.ledMask = 0
	for i, lm := range s.km.leds {
		if lm == nil {
			continue
		}
		if s.ledSatisfied(lm, eff) {
			s.ledMask |= 1 << uint(i-1)
		}
	}
}

func (s *State) ledSatisfied(lm *LedMap, effMods ModMask) bool {
	if lm.Mods != 0 && !lm.WhichModState.matches(lm.Mods, effMods) {
		return false
	}
	if lm.Groups != 0 {
		g := uint32(1) << uint(s.layout.effective())
		if lm.Groups&g == 0 {
			return false
		}
	}
	return true
}

// KeyGetSyms returns the keysyms the key currently produces at its
// resolved group and level (spec §4.12's key_get_syms).
func (s *State) KeyGetSyms(kc Keycode) []Keysym {
	key, ok := s.km.keys[kc]
	if !ok {
		return nil
	}
	gi := int(s.resolveGroup(key))
	if gi < 0 || gi >= len(key.Groups) {
		return nil
	}
	g := key.Groups[gi]
	level, _ := s.levelForKey(s.km.types[g.Type])
	if int(level) >= len(g.Levels) {
		return nil
	}
	return g.Levels[level].Syms
}

// KeyGetOneSym returns the first keysym KeyGetSyms would report, or
// NoSymbol.
func (s *State) KeyGetOneSym(kc Keycode) Keysym {
	syms := s.KeyGetSyms(kc)
	if len(syms) == 0 {
		return NoSymbol
	}
	return syms[0]
}

// ModIndexIsConsumed reports whether mod participated in level selection
// for kc: it is consumed iff it is in the resolved type's mods minus the
// entry's preserve mask (spec §4.12's consumed-modifiers computation).
func (s *State) ModIndexIsConsumed(kc Keycode, mod ModIndex) bool {
	return s.consumedMask(kc)&(1<<mod) != 0
}

func (s *State) consumedMask(kc Keycode) ModMask {
	key, ok := s.km.keys[kc]
	if !ok {
		return 0
	}
	gi := int(s.resolveGroup(key))
	if gi < 0 || gi >= len(key.Groups) {
		return 0
	}
	g := key.Groups[gi]
	kt := s.km.types[g.Type]
	if kt == nil {
		return 0
	}
	_, preserve := s.levelForKey(kt)
	return kt.Mods &^ preserve
}

// ModMaskRemoveConsumed returns mask with kc's consumed modifier bits
// cleared (spec §4.12's mod_mask_remove_consumed).
func (s *State) ModMaskRemoveConsumed(kc Keycode, mask ModMask) ModMask {
	return mask &^ s.consumedMask(kc)
}

// SerializeMods reports the requested component of the modifier state.
func (s *State) SerializeMods(component StateComponent) ModMask {
	switch component {
	case StateDepressed:
		return s.mods.depressed
	case StateLatched:
		return s.mods.latched
	case StateLocked:
		return s.mods.locked
	default:
		return s.mods.effective()
	}
}

// SerializeLayout reports the requested component of the layout state.
func (s *State) SerializeLayout(component StateComponent) int32 {
	switch component {
	case StateDepressed:
		return s.layout.depressed
	case StateLatched:
		return s.layout.latched
	case StateLocked:
		return s.layout.locked
	default:
		return s.layout.effective()
	}
}

func (t *layoutTriple) effective() int32 { return t.depressed + t.latched + t.locked }

// ModNameIsActive reports whether a named modifier is set in component.
func (s *State) ModNameIsActive(name string, component StateComponent) bool {
	a, ok := s.km.ctx.lookupAtom(name)
	if !ok {
		return false
	}
	idx, ok := s.km.mods.index(a)
	if !ok {
		return false
	}
	return s.SerializeMods(component)&(1<<idx) != 0
}

// LedIsActive reports whether the LED at a 1-based index is lit.
func (s *State) LedIsActive(idx int) bool {
	if idx <= 0 {
		return false
	}
	return s.ledMask&(1<<uint(idx-1)) != 0
}

// LedNameIsActive reports whether the named LED is lit.
func (s *State) LedNameIsActive(name string) bool {
	for i, lm := range s.km.leds {
		if lm != nil && s.km.ctx.atomText(lm.Name) == name {
			return s.LedIsActive(i)
		}
	}
	return false
}
