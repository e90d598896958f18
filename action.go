package xkb

// Action is the sum type over key-action kinds (spec §3 "polymorphic
// actions as sum types, not inheritance" per Design Notes §9 — the same
// closed-interface pattern ast.go uses for Stmt/Expr).
type Action interface{ actionNode() }

// NoAction is the absent action, bound to a (key, group, level) that has a
// symbol but no behavior beyond producing it.
type NoAction struct{}

// ModAction sets, latches, or locks a set of modifiers.
type ModAction struct {
	Kind    ModActionKind
	Mods    ModMask
	UseModMapMods bool // "modifiers=modMapMods" — resolved per key at run time by State
	ClearLocks bool
	LatchToLock bool
}

// ModActionKind distinguishes SetMods/LatchMods/LockMods.
type ModActionKind int

const (
	ModActionSet ModActionKind = iota
	ModActionLatch
	ModActionLock
)

// GroupAction sets, latches, or locks the effective group, either to an
// absolute index or relative to the current one.
type GroupAction struct {
	Kind        GroupActionKind
	Group       int32
	Relative    bool
	ClearLocks  bool
	LatchToLock bool
}

type GroupActionKind int

const (
	GroupActionSet GroupActionKind = iota
	GroupActionLatch
	GroupActionLock
)

// TerminateAction ends the server / keyboard control session (e.g.
// LockDevice grab release). Carries no parameters.
type TerminateAction struct{}

// PtrMoveAction moves the virtual pointer, absolutely or relative to its
// current position.
type PtrMoveAction struct {
	X, Y       int32
	Relative   bool
	Accelerate bool
}

// PtrButtonAction presses, releases, or clicks a pointer button a given
// number of times.
type PtrButtonAction struct {
	Button int32
	Count  int32
}

// PtrLockAction locks or unlocks a pointer button as if held down.
type PtrLockAction struct {
	Button int32
}

// PtrDefaultAction changes which button PtrButtonAction's default (button 0)
// refers to.
type PtrDefaultAction struct {
	Value    int32
	Relative bool
}

// SwitchScreenAction switches to another logical screen.
type SwitchScreenAction struct {
	Screen   int32
	Relative bool
}

// CtrlAction sets or locks one of the boolean keyboard controls (e.g.
// RepeatKeys, StickyKeys).
type CtrlAction struct {
	Kind  CtrlActionKind
	Ctrls uint32
}

type CtrlActionKind int

const (
	CtrlActionSet CtrlActionKind = iota
	CtrlActionLock
)

// PrivateAction is an unrecognized action type, preserved verbatim (spec
// §4.11's "unknown actions as type=0xNN,data[0..6]=..." serialization
// fallback).
type PrivateAction struct {
	Type byte
	Data [7]byte
}

func (NoAction) actionNode()           {}
func (ModAction) actionNode()          {}
func (GroupAction) actionNode()        {}
func (TerminateAction) actionNode()    {}
func (PtrMoveAction) actionNode()      {}
func (PtrButtonAction) actionNode()    {}
func (PtrLockAction) actionNode()      {}
func (PtrDefaultAction) actionNode()   {}
func (SwitchScreenAction) actionNode() {}
func (CtrlAction) actionNode()         {}
func (PrivateAction) actionNode()      {}

// actionKindNames is the set of textual action names the symbols grammar
// uses (spec §4.9, e.g. "SetMods(modifiers=Shift)"). lowerActionDecl
// dispatches on the name directly and does not consult this set.
var actionKindNames = map[string]bool{
	"SetMods": true, "LatchMods": true, "LockMods": true,
	"SetGroup": true, "LatchGroup": true, "LockGroup": true,
	"Terminate": true,
	"MovePtr": true, "MovePointer": true,
	"PtrBtn": true, "PointerButton": true,
	"LockPtrBtn": true, "LockPointerButton": true,
	"SetPtrDflt": true, "SetPointerDefault": true,
	"SwitchScreen": true,
	"SetControls": true, "LockControls": true,
	"Private": true,
}
