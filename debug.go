package xkb

import (
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// DebugTable renders a human-readable dump of km's key table: one row per
// bound keycode, its name, declared groups, and the first level's
// keysyms — useful for `xkbcli`-style introspection tooling without
// round-tripping through Serialize (spec §6's query surface, intended for
// diagnostic consumers rather than the wire format itself).
func (km *Keymap) DebugTable() string {
	var b strings.Builder
	table := tablewriter.NewWriter(&b)
	table.SetHeader([]string{"Keycode", "Name", "Groups", "Group1 Level1"})
	table.SetAutoWrapText(false)

	kcs := make([]Keycode, 0, len(km.keys))
	for kc := range km.keys {
		kcs = append(kcs, kc)
	}
	for i := 1; i < len(kcs); i++ {
		for j := i; j > 0 && kcs[j-1] > kcs[j]; j-- {
			kcs[j-1], kcs[j] = kcs[j], kcs[j-1]
		}
	}

	for _, kc := range kcs {
		key := km.keys[kc]
		first := "NoSymbol"
		if len(key.Groups) > 0 && len(key.Groups[0].Levels) > 0 && len(key.Groups[0].Levels[0].Syms) > 0 {
			first = key.Groups[0].Levels[0].Syms[0].String()
		}
		table.Append([]string{
			strconv.Itoa(int(kc)),
			km.ctx.atomText(km.keycodeOf[kc]),
			strconv.Itoa(len(key.Groups)),
			first,
		})
	}
	table.Render()
	return b.String()
}

// DebugModifiers renders the declared modifier namespace: index, name,
// and whether it is a real or a virtual modifier.
func (km *Keymap) DebugModifiers() string {
	var b strings.Builder
	table := tablewriter.NewWriter(&b)
	table.SetHeader([]string{"Index", "Name", "Kind"})
	for i := 0; i < km.mods.Len(); i++ {
		kind := "real"
		if km.mods.isVirtual(ModIndex(i)) {
			kind = "virtual"
		}
		table.Append([]string{strconv.Itoa(i), km.ctx.atomText(km.mods.name(ModIndex(i))), kind})
	}
	table.Render()
	return b.String()
}
