// Package keysymdb holds the static keysym name/value tables the core
// keysym lookup in the parent xkb package needs. Structurally this file
// mirrors how charmbracelet/bubbletea's table.go builds its sequence table
// once at init time as a package-level map (buildKeysTable), generalized
// here from terminal escape sequences to X11 keysym names.
//
// This is a representative subset of the X11 keysymdef.h + XF86 namespace,
// not a full transcription: ASCII letters/digits/punctuation, the standard
// modifier and navigation keys, and F1-F24. It is intentionally extensible
// — adding an entry to nameToValue/valueToName is sufficient to recognize a
// new name.
package keysymdb

import "fmt"

// NoSymbol is the reserved "no symbol" keysym value.
const NoSymbol uint32 = 0

// UnicodeOffset is added to a Unicode code point to form the keysym value
// for codepoints not otherwise named (spec §3).
const UnicodeOffset uint32 = 0x01000000

// MaxUnicodeCodepoint bounds the Unicode range a keysym may encode.
const MaxUnicodeCodepoint uint32 = 0x0010FFFF

// MaxKeysym is the largest legal raw keysym value (spec §3).
const MaxKeysym uint32 = 0x1FFFFFFF

var nameToValue = map[string]uint32{
	"NoSymbol": NoSymbol,
	"VoidSymbol": 0x00FFFFFF,

	"space": 0x0020, "exclam": 0x0021, "quotedbl": 0x0022, "numbersign": 0x0023,
	"dollar": 0x0024, "percent": 0x0025, "ampersand": 0x0026, "apostrophe": 0x0027,
	"parenleft": 0x0028, "parenright": 0x0029, "asterisk": 0x002a, "plus": 0x002b,
	"comma": 0x002c, "minus": 0x002d, "period": 0x002e, "slash": 0x002f,
	"0": 0x0030, "1": 0x0031, "2": 0x0032, "3": 0x0033, "4": 0x0034,
	"5": 0x0035, "6": 0x0036, "7": 0x0037, "8": 0x0038, "9": 0x0039,
	"colon": 0x003a, "semicolon": 0x003b, "less": 0x003c, "equal": 0x003d,
	"greater": 0x003e, "question": 0x003f, "at": 0x0040,

	"bracketleft": 0x005b, "backslash": 0x005c, "bracketright": 0x005d,
	"asciicircum": 0x005e, "underscore": 0x005f, "grave": 0x0060,
	"braceleft": 0x007b, "bar": 0x007c, "braceright": 0x007d, "asciitilde": 0x007e,

	"BackSpace": 0xff08, "Tab": 0xff09, "Linefeed": 0xff0a, "Clear": 0xff0b,
	"Return": 0xff0d, "Pause": 0xff13, "Scroll_Lock": 0xff14, "Sys_Req": 0xff15,
	"Escape": 0xff1b, "Delete": 0xffff,

	"Home": 0xff50, "Left": 0xff51, "Up": 0xff52, "Right": 0xff53, "Down": 0xff54,
	"Prior": 0xff55, "Page_Up": 0xff55, "Next": 0xff56, "Page_Down": 0xff56,
	"End": 0xff57, "Begin": 0xff58,

	"Select": 0xff60, "Print": 0xff61, "Execute": 0xff62, "Insert": 0xff63,
	"Undo": 0xff65, "Redo": 0xff66, "Menu": 0xff67, "Find": 0xff68,
	"Cancel": 0xff69, "Help": 0xff6a, "Break": 0xff6b, "Mode_switch": 0xff7e,
	"Num_Lock": 0xff7f,

	"KP_Space": 0xff80, "KP_Tab": 0xff89, "KP_Enter": 0xff8d,
	"KP_F1": 0xff91, "KP_F2": 0xff92, "KP_F3": 0xff93, "KP_F4": 0xff94,
	"KP_Home": 0xff95, "KP_Left": 0xff96, "KP_Up": 0xff97, "KP_Right": 0xff98,
	"KP_Down": 0xff99, "KP_Prior": 0xff9a, "KP_Page_Up": 0xff9a,
	"KP_Next": 0xff9b, "KP_Page_Down": 0xff9b, "KP_End": 0xff9c,
	"KP_Begin": 0xff9d, "KP_Insert": 0xff9e, "KP_Delete": 0xff9f,
	"KP_Equal": 0xffbd, "KP_Multiply": 0xffaa, "KP_Add": 0xffab,
	"KP_Separator": 0xffac, "KP_Subtract": 0xffad, "KP_Decimal": 0xffae,
	"KP_Divide": 0xffaf,
	"KP_0": 0xffb0, "KP_1": 0xffb1, "KP_2": 0xffb2, "KP_3": 0xffb3,
	"KP_4": 0xffb4, "KP_5": 0xffb5, "KP_6": 0xffb6, "KP_7": 0xffb7,
	"KP_8": 0xffb8, "KP_9": 0xffb9,

	"Shift_L": 0xffe1, "Shift_R": 0xffe2, "Control_L": 0xffe3, "Control_R": 0xffe4,
	"Caps_Lock": 0xffe5, "Shift_Lock": 0xffe6,
	"Meta_L": 0xffe7, "Meta_R": 0xffe8, "Alt_L": 0xffe9, "Alt_R": 0xffea,
	"Super_L": 0xffeb, "Super_R": 0xffec, "Hyper_L": 0xffed, "Hyper_R": 0xffee,

	"leftshoe": 0xfe60, // deprecated, grounded on original test fixture 0x301 warning
}

func init() {
	for i := 0; i < 24; i++ {
		nameToValue[fmt.Sprintf("F%d", i+1)] = 0xffbe + uint32(i)
	}
	for r := 'a'; r <= 'z'; r++ {
		nameToValue[string(r)] = uint32(r)
	}
	for r := 'A'; r <= 'Z'; r++ {
		nameToValue[string(r)] = uint32(r)
	}
}

// deprecatedNames are keysym names the original flags with
// XKB_WARNING_DEPRECATED_KEYSYM on lookup (non-exhaustive).
var deprecatedNames = map[string]bool{
	"leftshoe": true,
}

var valueToName map[uint32]string

func buildReverse() {
	valueToName = make(map[uint32]string, len(nameToValue))
	// Prefer the first-seen (canonical) name for values with aliases by
	// iterating a stable, explicit preference list before the rest.
	preferred := []string{
		"NoSymbol", "BackSpace", "Tab", "Return", "Escape", "Delete",
		"Home", "Left", "Up", "Right", "Down", "Page_Up", "Page_Down", "End",
	}
	for _, n := range preferred {
		if v, ok := nameToValue[n]; ok {
			if _, taken := valueToName[v]; !taken {
				valueToName[v] = n
			}
		}
	}
	for n, v := range nameToValue {
		if _, ok := valueToName[v]; !ok {
			valueToName[v] = n
		}
	}
}

// Lookup returns the keysym value for an exact name match.
func Lookup(name string) (uint32, bool) {
	if valueToName == nil {
		buildReverse()
	}
	v, ok := nameToValue[name]
	return v, ok
}

// IsDeprecated reports whether name is a deprecated alias that should be
// accepted but logged with MsgDeprecatedKeysym.
func IsDeprecated(name string) bool { return deprecatedNames[name] }

// Name returns the canonical name for a keysym value, or "" if unnamed.
func Name(value uint32) string {
	if valueToName == nil {
		buildReverse()
	}
	return valueToName[value]
}

// Names returns every known keysym name, used by keysym.go to build the
// fuzzy "did you mean" candidate list.
func Names() []string {
	names := make([]string, 0, len(nameToValue))
	for n := range nameToValue {
		names = append(names, n)
	}
	return names
}
