package xkb

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// MaxIncludeDepth bounds the include chain length (spec §4.5, §7): beyond
// this an include cycle is assumed even if no literal repeat was seen.
const MaxIncludeDepth = 15

// includePart is one "file[(map)][:extra]" token parsed out of an include
// expression, paired with the operator that preceded it (zero for the
// first token in the expression).
type includePart struct {
	file  string
	mapName string
	extra string
	op    byte // 0, '+' (override), or '|' (augment)
}

// parseIncludeExpr splits a raw include expression into its parts, per the
// grammar ParseIncludeMap in the original implementation documents:
// "evdev+aliases(qwerty):2" -> [{evdev, "", "", 0}, {aliases, qwerty, "2", '+'}].
func parseIncludeExpr(expr string) ([]includePart, error) {
	var parts []includePart
	op := byte(0)
	rest := expr
	for rest != "" {
		var tok string
		if i := strings.IndexAny(rest, "|+"); i >= 0 {
			tok = rest[:i]
			nextOp := rest[i]
			rest = rest[i+1:]
			p, err := parseOneIncludeToken(tok, op)
			if err != nil {
				return nil, err
			}
			parts = append(parts, p)
			op = nextOp
			continue
		}
		p, err := parseOneIncludeToken(rest, op)
		if err != nil {
			return nil, err
		}
		parts = append(parts, p)
		break
	}
	return parts, nil
}

func parseOneIncludeToken(tok string, op byte) (includePart, error) {
	extra := ""
	if i := strings.IndexByte(tok, ':'); i >= 0 {
		extra = tok[i+1:]
		tok = tok[:i]
	}
	mapName := ""
	if i := strings.IndexByte(tok, '('); i >= 0 {
		if i == 0 {
			return includePart{}, fmt.Errorf("%w: map without file name in %q", ErrSyntax, tok)
		}
		if !strings.HasSuffix(tok, ")") {
			return includePart{}, fmt.Errorf("%w: unterminated map designator in %q", ErrSyntax, tok)
		}
		mapName = tok[i+1 : len(tok)-1]
		tok = tok[:i]
	}
	if tok == "" {
		return includePart{}, fmt.Errorf("%w: empty include file name", ErrSyntax)
	}
	return includePart{file: tok, mapName: mapName, extra: extra, op: op}, nil
}

// mergeModeForOp translates an include-expression separator into the merge
// mode applied to that part's statements, per spec §4.5: '+' overrides the
// accumulated result, '|' augments it.
func mergeModeForOp(op byte) MergeMode {
	switch op {
	case '+':
		return MergeOverride
	case '|':
		return MergeAugment
	default:
		return MergeDefault
	}
}

// typeDirFor maps a FileType to the subdirectory name searched under each
// include path entry (spec §6), mirroring xkb_file_type_include_dirs.
func typeDirFor(ft FileType) string {
	switch ft {
	case FileKeycodes:
		return "keycodes"
	case FileTypes:
		return "types"
	case FileCompat:
		return "compat"
	case FileSymbols:
		return "symbols"
	case FileGeometry:
		return "geometry"
	case FileKeymap:
		return "keymap"
	case FileRules:
		return "rules"
	default:
		return ""
	}
}

// findInIncludePath searches ctx's include path for name under ft's
// subdirectory, returning the first match's full path.
func findInIncludePath(ctx *Context, ft FileType, name string) (string, bool) {
	dir := typeDirFor(ft)
	for _, root := range ctx.includePaths {
		candidate := filepath.Join(root, dir, name)
		if fileExists(candidate) {
			return candidate, true
		}
	}
	return "", false
}

// includeResolver tracks the in-progress include chain for one top-level
// parse, so it can detect cycles and enforce MaxIncludeDepth (spec §4.5,
// §7's "recursive include" and "include depth exceeded" diagnostics).
type includeResolver struct {
	ctx      *Context
	ft       FileType
	stack    []string // paths currently being expanded, for cycle detection
}

func newIncludeResolver(ctx *Context, ft FileType) *includeResolver {
	return &includeResolver{ctx: ctx, ft: ft}
}

// resolveInclude loads and parses every section an IncludeStmt pulls in,
// returning them in expression order with each Section's Flags left
// untouched and the caller responsible for assigning the expression's
// merge mode (from parseIncludeExpr's op) when folding them into the
// enclosing file.
func (r *includeResolver) resolveInclude(stmt IncludeStmt) ([]*Section, []MergeMode, error) {
	if len(r.stack) >= MaxIncludeDepth {
		r.ctx.log.errorf(MsgRecursiveInclude, "", stmt.Line, 0, "include depth exceeded (%d)", MaxIncludeDepth)
		return nil, nil, ErrIncludeDepth
	}

	parts, err := parseIncludeExpr(stmt.Expr)
	if err != nil {
		r.ctx.log.errorf(MsgInvalidIncludeStatement, "", stmt.Line, 0, "malformed include expression %q: %v", stmt.Expr, err)
		return nil, nil, err
	}

	var sections []*Section
	var modes []MergeMode
	for _, part := range parts {
		path, ok := findInIncludePath(r.ctx, r.ft, part.file)
		if !ok {
			r.ctx.log.errorf(MsgIncludedFileNotFound, "", stmt.Line, 0, "could not find %q in include path (type %s)", part.file, r.ft)
			return nil, nil, fmt.Errorf("%s: %w", part.file, ErrIncludeNotFound)
		}
		for _, seen := range r.stack {
			if seen == path {
				r.ctx.log.errorf(MsgRecursiveInclude, path, stmt.Line, 0, "recursive include of %q", path)
				return nil, nil, fmt.Errorf("%s: %w", path, ErrIncludeCycle)
			}
		}

		buf, err := readMapped(r.ctx, path)
		if err != nil {
			return nil, nil, err
		}

		r.stack = append(r.stack, path)
		xf, err := ParseFile(r.ctx, path, buf)
		if err != nil {
			r.stack = r.stack[:len(r.stack)-1]
			return nil, nil, err
		}

		sec, err := selectSection(xf, part.mapName)
		if err != nil {
			r.stack = r.stack[:len(r.stack)-1]
			r.ctx.log.errorf(MsgIncludedFileNotFound, path, stmt.Line, 0, "no map %q in %q", part.mapName, path)
			return nil, nil, err
		}
		// Walk the section's own includes while path is still on the
		// stack, so a chain leading back to it is reported as a cycle.
		for _, st := range sec.Stmts {
			if inc, ok := st.(IncludeStmt); ok {
				if _, _, err := r.resolveInclude(inc); err != nil {
					r.stack = r.stack[:len(r.stack)-1]
					return nil, nil, err
				}
			}
		}
		r.stack = r.stack[:len(r.stack)-1]
		if part.extra != "" {
			applyIncludeGroupIndex(sec, part.extra)
		}

		sections = append(sections, sec)
		modes = append(modes, mergeModeForOp(part.op))
	}
	return sections, modes, nil
}

// selectSection picks the Section an include's optional "(name)" map
// designator refers to: the named section if given, else the one flagged
// default, else the first section in the file.
func selectSection(xf *XkbFile, mapName string) (*Section, error) {
	if xf.Type != FileKeymap {
		return xf.Section, nil
	}
	if mapName != "" {
		for _, s := range xf.Sections {
			if s.Name == mapName {
				return s, nil
			}
		}
		return nil, fmt.Errorf("%w: map %q", ErrIncludeNotFound, mapName)
	}
	for _, s := range xf.Sections {
		if s.Flags&FlagDefault != 0 {
			return s, nil
		}
	}
	if len(xf.Sections) > 0 {
		return xf.Sections[0], nil
	}
	return nil, fmt.Errorf("%w: empty file", ErrIncludeNotFound)
}

// applyIncludeGroupIndex handles the "...:N" extra-data suffix, which for
// symbols files redirects every included group to layout index N (spec
// §4.9's group-offset rule for merged includes).
func applyIncludeGroupIndex(sec *Section, extra string) {
	n, err := strconv.Atoi(extra)
	if err != nil || n < 1 {
		return
	}
	offset := n - 1
	for i, st := range sec.Stmts {
		ks, ok := st.(KeyStmt)
		if !ok {
			continue
		}
		shiftKeyGroups(&ks, offset)
		sec.Stmts[i] = ks
	}
}

// shiftKeyGroups renumbers a KeyStmt's group-indexed VarStmt fields
// ("symbols[Group1]" etc.) by offset groups. It does not clamp: an index
// shifted beyond MaxLayouts is kept here, and buildKey later ignores such
// groups with a warning.
func shiftKeyGroups(ks *KeyStmt, offset int) {
	if offset == 0 {
		return
	}
	for i, st := range ks.Body {
		vs, ok := st.(VarStmt)
		if !ok || vs.Index == nil {
			continue
		}
		if ident, ok := vs.Index.(Ident); ok {
			if n, err := strconv.Atoi(strings.TrimPrefix(ident.Name, "Group")); err == nil {
				vs.Index = Ident{Name: fmt.Sprintf("Group%d", n+offset)}
				ks.Body[i] = vs
			}
		}
	}
}
