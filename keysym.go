package xkb

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/xkbcommon/goxkbcomp/internal/keysymdb"
)

// Keysym is a 32-bit tagged value identifying a symbolic key output: a
// named X11/XF86 symbol, a Unicode code point offset by
// keysymdb.UnicodeOffset, or a raw hex value (spec §3).
type Keysym uint32

// NoSymbol is the absence of a keysym.
const NoSymbol Keysym = Keysym(keysymdb.NoSymbol)

// IsUnicode reports whether k falls in the Unicode-encoded range.
func (k Keysym) IsUnicode() bool {
	return uint32(k) >= keysymdb.UnicodeOffset &&
		uint32(k) <= keysymdb.UnicodeOffset+keysymdb.MaxUnicodeCodepoint
}

// Rune returns the Unicode code point k encodes, and whether k was in fact
// a Unicode-encoded keysym.
func (k Keysym) Rune() (rune, bool) {
	if !k.IsUnicode() {
		return 0, false
	}
	return rune(uint32(k) - keysymdb.UnicodeOffset), true
}

// Valid reports whether k is within the legal keysym range (spec §3).
func (k Keysym) Valid() bool {
	return uint32(k) <= keysymdb.MaxKeysym
}

// String renders k using its canonical name if known, its Unicode rune if
// it encodes one, or a "0xNNNN" fallback — matching the serializer's
// fallback rule (spec §4.11).
func (k Keysym) String() string {
	if k == NoSymbol {
		return "NoSymbol"
	}
	if name := keysymdb.Name(uint32(k)); name != "" {
		return name
	}
	if r, ok := k.Rune(); ok {
		return fmt.Sprintf("U%04X", r)
	}
	return fmt.Sprintf("0x%x", uint32(k))
}

// ParseKeysym resolves a keysym source token to a value: an exact,
// case-sensitive name match (no case-insensitive alias lookup is done), a
// "0x..." or decimal numeric literal, or — failing all of those — NoSymbol
// plus a warning logged
// through ctx (spec §4.2/§7: "unrecognized keysym (emitted as NoSymbol)").
// It returns the resolved keysym and whether resolution found an exact or
// numeric match (false for the NoSymbol fallback).
func (ctx *Context) parseKeysym(tok string) (Keysym, bool) {
	if tok == "" {
		return NoSymbol, false
	}
	if v, ok := keysymdb.Lookup(tok); ok {
		if keysymdb.IsDeprecated(tok) {
			ctx.log.warnf(MsgDeprecatedKeysym, "", 0, 0, "deprecated keysym %q", tok)
		}
		return Keysym(v), true
	}
	if strings.HasPrefix(tok, "0x") || strings.HasPrefix(tok, "0X") {
		if v, err := strconv.ParseUint(tok[2:], 16, 32); err == nil {
			if v > uint64(keysymdb.MaxKeysym) {
				ctx.log.errorf(MsgInvalidNumericKeysym, "", 0, 0, "invalid numeric keysym %q", tok)
				return NoSymbol, false
			}
			ctx.log.warnf(MsgNumericKeysym, "", 0, 0, "numeric keysym %q (%d)", tok, v)
			return Keysym(v), true
		}
	}
	if v, err := strconv.ParseUint(tok, 10, 32); err == nil {
		ctx.log.warnf(MsgNumericKeysym, "", 0, 0, "numeric keysym %q (%d)", tok, v)
		return Keysym(v), true
	}

	suggestion := suggestKeysymName(tok)
	if suggestion != "" {
		ctx.log.warnf(MsgUnrecognizedKeysym, "", 0, 0, "unrecognized keysym %q; did you mean %q?", tok, suggestion)
	} else {
		ctx.log.warnf(MsgUnrecognizedKeysym, "", 0, 0, "unrecognized keysym %q", tok)
	}
	return NoSymbol, false
}

// suggestKeysymName fuzzy-matches tok against the known keysym name table,
// returning the best candidate or "" if nothing scores reasonably. This is
// a diagnostic aid only: it never changes compiled output (SPEC_FULL.md §B).
func suggestKeysymName(tok string) string {
	names := keysymdb.Names()
	matches := fuzzy.Find(tok, names)
	if len(matches) == 0 {
		return ""
	}
	return names[matches[0].Index]
}
