package xkb

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/samber/lo"
)

// RMLVO is the Rules+Model+Layout+Variant+Options tuple callers supply to
// select a keymap (spec §6, GLOSSARY).
type RMLVO struct {
	Rules   string
	Model   string
	Layout  string
	Variant string
	Options string
}

// KcCGST is the four-component include-expression tuple the rules engine
// produces from an RMLVO (GLOSSARY). Geometry is intentionally absent —
// spec §1 treats geometry as out of scope.
type KcCGST struct {
	Keycodes string
	Types    string
	Compat   string
	Symbols  string
}

// mlvoColumn identifies one of the four MLVO columns a rule header can
// reference, optionally restricted to a specific layout index.
type mlvoColumn struct {
	name  string // model, layout, variant, option
	index int    // 0 = unrestricted, else the 1-based layout index from "[N]"
}

// kccgstColumn identifies one of the four output columns a rule header can
// target.
type kccgstColumn struct {
	name string // keycodes, types, compat, symbols, geometry
}

type ruleHeader struct {
	mlvo   []mlvoColumn
	kccgst []kccgstColumn
}

type ruleLine struct {
	mlvo   []string // same length/order as the header's mlvo columns; "" = absent
	kccgst []string // same length/order as the header's kccgst columns; "" = absent
	number int      // 1-based declaration order, used for tie-breaking pending rules
}

// ruleBucket is one of the three passes spec §4.4 defines.
type ruleBucket int

const (
	bucketNormal ruleBucket = iota
	bucketAppend
	bucketOption
)

// rulesFile is a parsed rules document: group definitions plus an ordered
// list of (header, lines) blocks, matching the line-oriented grammar of
// spec §4.4.
type rulesFile struct {
	groups map[string][]string
	blocks []ruleBlock
}

type ruleBlock struct {
	header ruleHeader
	lines  []ruleLine
}

// parseRulesFile parses the line-oriented rules grammar (spec §4.4): a
// mapping header, group definitions, and rule lines matching the most
// recent header's columns.
func parseRulesFile(text string) (*rulesFile, error) {
	rf := &rulesFile{groups: make(map[string][]string)}
	var cur *ruleBlock
	scan := bufio.NewScanner(strings.NewReader(text))
	lineNo := 0
	ruleNo := 0
	for scan.Scan() {
		lineNo++
		line := stripComment(scan.Text())
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "!") {
			rest := strings.TrimSpace(line[1:])
			if strings.HasPrefix(rest, "$") {
				name, words, err := parseGroupDef(rest)
				if err != nil {
					return nil, fmt.Errorf("rules:%d: %w", lineNo, err)
				}
				rf.groups[name] = words
				continue
			}
			header, err := parseRuleHeader(rest)
			if err != nil {
				return nil, fmt.Errorf("rules:%d: %w", lineNo, err)
			}
			rf.blocks = append(rf.blocks, ruleBlock{header: *header})
			cur = &rf.blocks[len(rf.blocks)-1]
			continue
		}
		if cur == nil {
			return nil, fmt.Errorf("rules:%d: rule line before any header", lineNo)
		}
		ruleNo++
		rl, err := parseRuleLine(line, cur.header, ruleNo)
		if err != nil {
			return nil, fmt.Errorf("rules:%d: %w", lineNo, err)
		}
		cur.lines = append(cur.lines, *rl)
	}
	return rf, scan.Err()
}

func stripComment(line string) string {
	if i := strings.Index(line, "//"); i >= 0 {
		return line[:i]
	}
	return line
}

func parseGroupDef(rest string) (string, []string, error) {
	eq := strings.IndexByte(rest, '=')
	if eq < 0 {
		return "", nil, fmt.Errorf("malformed group definition %q", rest)
	}
	name := strings.TrimPrefix(strings.TrimSpace(rest[:eq]), "$")
	words := strings.Fields(rest[eq+1:])
	return name, words, nil
}

func parseRuleHeader(rest string) (*ruleHeader, error) {
	eq := strings.IndexByte(rest, '=')
	if eq < 0 {
		return nil, fmt.Errorf("malformed mapping header %q", rest)
	}
	lhs := strings.Fields(rest[:eq])
	rhs := strings.Fields(rest[eq+1:])
	h := &ruleHeader{}
	for _, tok := range lhs {
		name, idx := splitColumnIndex(tok)
		h.mlvo = append(h.mlvo, mlvoColumn{name: name, index: idx})
	}
	for _, tok := range rhs {
		h.kccgst = append(h.kccgst, kccgstColumn{name: tok})
	}
	return h, nil
}

// splitColumnIndex parses "layout[2]" into ("layout", 2); plain "layout"
// yields index 0 (unrestricted).
func splitColumnIndex(tok string) (string, int) {
	ob := strings.IndexByte(tok, '[')
	if ob < 0 || !strings.HasSuffix(tok, "]") {
		return tok, 0
	}
	name := tok[:ob]
	n, err := strconv.Atoi(tok[ob+1 : len(tok)-1])
	if err != nil {
		return tok, 0
	}
	return name, n
}

// parseRuleLine splits a rule line at its '=' into MLVO and KcCGST cells;
// cells missing from the end of either side are absent ("").
func parseRuleLine(line string, h ruleHeader, number int) (*ruleLine, error) {
	eq := strings.IndexByte(line, '=')
	if eq < 0 {
		return nil, fmt.Errorf("malformed rule line %q", line)
	}
	lhs, rhs := strings.Fields(line[:eq]), strings.Fields(line[eq+1:])
	if len(lhs) > len(h.mlvo) || len(rhs) > len(h.kccgst) {
		return nil, fmt.Errorf("rule line has %d+%d fields, header wants %d+%d", len(lhs), len(rhs), len(h.mlvo), len(h.kccgst))
	}
	rl := &ruleLine{number: number}
	for i := range h.mlvo {
		v := ""
		if i < len(lhs) {
			v = lhs[i]
		}
		if v == "<empty>" {
			v = ""
		}
		rl.mlvo = append(rl.mlvo, v)
	}
	for i := range h.kccgst {
		v := ""
		if i < len(rhs) {
			v = rhs[i]
		}
		if v == "<empty>" {
			v = ""
		}
		rl.kccgst = append(rl.kccgst, v)
	}
	return rl, nil
}

// mlvoValues is the current tuple a rule line is matched against, split
// into per-index layout/variant/option lists the way the C engine
// processes one "block" of layouts at a time (%l[2] etc).
type mlvoValues struct {
	model    string
	layouts  []string // index 0 = layout[1]
	variants []string
	options  []string
}

func splitCommaList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func newMLVOValues(r RMLVO) mlvoValues {
	return mlvoValues{
		model:    r.Model,
		layouts:  splitCommaList(r.Layout),
		variants: splitCommaList(r.Variant),
		options:  splitCommaList(r.Options),
	}
}

func (v mlvoValues) at(name string, index int) string {
	idx := index - 1
	switch name {
	case "model":
		return v.model
	case "layout":
		if index == 0 {
			if len(v.layouts) > 0 {
				return v.layouts[0]
			}
			return ""
		}
		if idx >= 0 && idx < len(v.layouts) {
			return v.layouts[idx]
		}
		return ""
	case "variant":
		if index == 0 {
			if len(v.variants) > 0 {
				return v.variants[0]
			}
			return ""
		}
		if idx >= 0 && idx < len(v.variants) {
			return v.variants[idx]
		}
		return ""
	case "option":
		return strings.Join(v.options, ",")
	}
	return ""
}

// resolveRules expands an RMLVO tuple into a KcCGST expression tuple
// (spec §4.4). It implements the three-bucket, three-pass algorithm:
// Normal rules (no wildcard) are applied first, then Append rules
// (+/|-prefixed values), then Option rules; within the Normal and Append
// passes, exact matches win before the pending (wildcard) matches
// deferred from that same pass are applied, while the Option pass applies
// wildcard matches as it meets them.
func resolveRules(ctx *Context, text string, rmlvo RMLVO) (KcCGST, error) {
	rf, err := parseRulesFile(text)
	if err != nil {
		return KcCGST{}, err
	}

	out := map[string]string{}
	values := newMLVOValues(rmlvo)

	for _, block := range rf.blocks {
		buckets := bucketize(block.lines, block.header)
		for _, pass := range []ruleBucket{bucketNormal, bucketAppend, bucketOption} {
			lines := buckets[pass]
			var pending []ruleLine
			for _, rl := range lines {
				matched, isPending := matchRule(block.header, rl, values, rf.groups, pass)
				if !matched {
					continue
				}
				if isPending && pass != bucketOption {
					pending = append(pending, rl)
					continue
				}
				applyRule(block.header, rl, out)
			}
			for _, rl := range pending {
				applyRule(block.header, rl, out)
			}
		}
	}

	for k, v := range out {
		out[k] = substituteVars(v, values)
	}

	result := KcCGST{
		Keycodes: out["keycodes"],
		Types:    out["types"],
		Compat:   out["compat"],
		Symbols:  out["symbols"],
	}
	if result.Keycodes == "" || result.Types == "" || result.Compat == "" || result.Symbols == "" {
		suggestion := suggestRuleToken(rmlvo, rf)
		if suggestion != "" {
			ctx.log.errorf(MsgCannotResolveRMLVO, "", 0, 0, "cannot resolve rules for %+v; did you mean %q?", rmlvo, suggestion)
		} else {
			ctx.log.errorf(MsgCannotResolveRMLVO, "", 0, 0, "cannot resolve rules for %+v", rmlvo)
		}
		return KcCGST{}, ErrUnresolvedRMLVO
	}
	return result, nil
}

func bucketize(lines []ruleLine, h ruleHeader) map[ruleBucket][]ruleLine {
	out := map[ruleBucket][]ruleLine{}
	optionColIdx := -1
	for i, c := range h.mlvo {
		if c.name == "option" {
			optionColIdx = i
		}
	}
	out[bucketNormal] = lo.Filter(lines, func(rl ruleLine, _ int) bool {
		return !isAppendRule(h, rl) && !(optionColIdx >= 0 && rl.mlvo[optionColIdx] != "")
	})
	out[bucketAppend] = lo.Filter(lines, func(rl ruleLine, _ int) bool {
		return isAppendRule(h, rl)
	})
	out[bucketOption] = lo.Filter(lines, func(rl ruleLine, _ int) bool {
		return optionColIdx >= 0 && rl.mlvo[optionColIdx] != "" && !isAppendRule(h, rl)
	})
	return out
}

func isAppendRule(h ruleHeader, rl ruleLine) bool {
	for _, v := range rl.kccgst {
		if strings.HasPrefix(v, "+") || strings.HasPrefix(v, "|") {
			return true
		}
	}
	return false
}

// matchRule reports whether rl matches the current MLVO values, and
// whether the match relied on a "*" wildcard (so the caller should defer
// application to the end of this bucket's pass).
func matchRule(h ruleHeader, rl ruleLine, values mlvoValues, groups map[string][]string, pass ruleBucket) (matched bool, pending bool) {
	for i, col := range h.mlvo {
		cell := rl.mlvo[i]
		if cell == "" {
			continue
		}
		actual := values.at(col.name, col.index)
		switch {
		case cell == "*":
			pending = true
		case strings.HasPrefix(cell, "$"):
			words := groups[cell[1:]]
			if pass == bucketOption {
				if !containsToken(actual, words) {
					return false, false
				}
			} else if !lo.Contains(words, actual) {
				return false, false
			}
		default:
			if pass == bucketOption {
				if !containsToken(actual, splitCommaList(cell)) {
					return false, false
				}
			} else if cell != actual {
				return false, false
			}
		}
	}
	return true, pending
}

// containsToken reports whether any comma-separated token of actual is in
// candidates — used for the options column, which is itself comma-joined.
func containsToken(actual string, candidates []string) bool {
	for _, tok := range splitCommaList(actual) {
		if lo.Contains(candidates, tok) {
			return true
		}
	}
	return false
}

func applyRule(h ruleHeader, rl ruleLine, out map[string]string) {
	for i, col := range h.kccgst {
		v := rl.kccgst[i]
		if v == "" {
			continue
		}
		if strings.HasPrefix(v, "+") || strings.HasPrefix(v, "|") {
			v = v[1:]
			if out[col.name] == "" {
				out[col.name] = v
			} else {
				out[col.name] = out[col.name] + "+" + v
			}
			continue
		}
		if out[col.name] == "" {
			out[col.name] = v
		}
	}
}

// substituteVars expands %l/%m/%v tokens (with optional [N] index and
// surrounding prefix character) in a resolved KcCGST cell value, per spec
// §4.4's final expansion step.
func substituteVars(v string, values mlvoValues) string {
	var b strings.Builder
	i := 0
	for i < len(v) {
		c := v[i]
		if c != '%' {
			b.WriteByte(c)
			i++
			continue
		}
		i++
		if i >= len(v) {
			break
		}
		prefix := byte(0)
		if v[i] == '+' || v[i] == '|' || v[i] == '_' || v[i] == '-' {
			prefix = v[i]
			i++
		}
		paren := false
		if i < len(v) && v[i] == '(' {
			paren = true
			i++
		}
		if i >= len(v) {
			break
		}
		varCh := v[i]
		i++
		index := 0
		if i < len(v) && v[i] == '[' {
			j := strings.IndexByte(v[i:], ']')
			if j > 0 {
				if n, err := strconv.Atoi(v[i+1 : i+j]); err == nil {
					index = n
				}
				i += j + 1
			}
		}
		if paren && i < len(v) && v[i] == ')' {
			i++
		}

		var val string
		switch varCh {
		case 'l':
			val = values.at("layout", index)
		case 'm':
			val = values.at("model", index)
		case 'v':
			val = values.at("variant", index)
		}
		if val == "" {
			continue
		}
		if prefix != 0 {
			b.WriteByte(prefix)
		}
		b.WriteString(val)
	}
	return b.String()
}

// suggestRuleToken fuzzy-matches the RMLVO model/layout/variant against
// every literal token seen across the rules file's rule lines, to offer a
// "did you mean" hint when resolution fails entirely. Diagnostic aid only.
func suggestRuleToken(r RMLVO, rf *rulesFile) string {
	var tokens []string
	seen := map[string]bool{}
	for _, b := range rf.blocks {
		for ci, col := range b.header.mlvo {
			if col.name != "model" && col.name != "layout" && col.name != "variant" {
				continue
			}
			for _, rl := range b.lines {
				v := rl.mlvo[ci]
				if v != "" && v != "*" && !strings.HasPrefix(v, "$") && !seen[v] {
					seen[v] = true
					tokens = append(tokens, v)
				}
			}
		}
	}
	target := r.Layout
	if target == "" {
		target = r.Model
	}
	if target == "" {
		return ""
	}
	matches := fuzzy.Find(target, tokens)
	if len(matches) == 0 {
		return ""
	}
	return tokens[matches[0].Index]
}
