package xkb

import (
	"fmt"
	"strconv"
)

// parser is a hand-written recursive-descent parser over the token stream
// produced by scanner.go. Design Notes §9 explicitly sanctions
// recursive descent over an LALR generator for this grammar ("small and
// has no right-recursion hazards"); no example repo in the corpus pulls in
// a parser-generator dependency either.
//
// Error recovery is terminate-and-report (spec §4.3): the first syntax
// error abandons the parse for this file.
type parser struct {
	ctx  *Context
	file string
	sc   *scanner
	cur  Token
}

func newParser(ctx *Context, file string, buf []byte) (*parser, error) {
	sc, err := newScanner(ctx, file, buf)
	if err != nil {
		return nil, err
	}
	p := &parser{ctx: ctx, file: file, sc: sc}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *parser) advance() error {
	tok, err := p.sc.Next()
	if err != nil {
		return err
	}
	p.cur = tok
	return nil
}

func (p *parser) syntaxErrorf(format string, args ...interface{}) error {
	p.ctx.log.errorf(MsgInvalidXKBSyntax, p.file, p.cur.Line, p.cur.Column, format, args...)
	return fmt.Errorf("%s:%d:%d: %w: %s", p.file, p.cur.Line, p.cur.Column, ErrSyntax, fmt.Sprintf(format, args...))
}

func (p *parser) expectPunct(text string) error {
	if p.cur.Kind != TokPunct || p.cur.Text != text {
		return p.syntaxErrorf("expected %q, got %q", text, p.cur.Text)
	}
	return p.advance()
}

func (p *parser) expectKeyword(text string) error {
	if p.cur.Kind != TokKeyword || p.cur.Text != text {
		return p.syntaxErrorf("expected keyword %q, got %q", text, p.cur.Text)
	}
	return p.advance()
}

func (p *parser) isPunct(text string) bool {
	return p.cur.Kind == TokPunct && p.cur.Text == text
}

// ParseFile parses one complete buffer into an XkbFile (spec §4.3).
func ParseFile(ctx *Context, file string, buf []byte) (*XkbFile, error) {
	p, err := newParser(ctx, file, buf)
	if err != nil {
		return nil, err
	}
	return p.parseFile()
}

func (p *parser) parseFile() (*XkbFile, error) {
	flags, err := p.parseSectionFlags()
	if err != nil {
		return nil, err
	}

	ft, err := p.parseSectionTypeKeyword()
	if err != nil {
		return nil, err
	}

	name := ""
	if p.cur.Kind == TokString {
		name = p.cur.Text
		if err := p.advance(); err != nil {
			return nil, err
		}
	}

	if ft == FileKeymap {
		if err := p.expectPunct("{"); err != nil {
			return nil, err
		}
		xf := &XkbFile{Type: FileKeymap, Name: name}
		for !p.isPunct("}") {
			if p.cur.Kind == TokEOF {
				return nil, p.syntaxErrorf("unexpected end of file in xkb_keymap")
			}
			sec, err := p.parseNestedSection()
			if err != nil {
				return nil, err
			}
			xf.Sections = append(xf.Sections, sec)
		}
		if err := p.expectPunct("}"); err != nil {
			return nil, err
		}
		p.maybeSemicolon()
		return xf, nil
	}

	sec := &Section{Type: ft, Name: name, Flags: flags}
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	stmts, err := p.parseStmts(ft, "}")
	if err != nil {
		return nil, err
	}
	sec.Stmts = stmts
	if err := p.expectPunct("}"); err != nil {
		return nil, err
	}
	p.maybeSemicolon()
	return &XkbFile{Type: ft, Name: name, Section: sec}, nil
}

func (p *parser) parseNestedSection() (*Section, error) {
	flags, err := p.parseSectionFlags()
	if err != nil {
		return nil, err
	}
	ft, err := p.parseSectionTypeKeyword()
	if err != nil {
		return nil, err
	}
	name := ""
	if p.cur.Kind == TokString {
		name = p.cur.Text
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	stmts, err := p.parseStmts(ft, "}")
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct("}"); err != nil {
		return nil, err
	}
	p.maybeSemicolon()
	return &Section{Type: ft, Name: name, Flags: flags, Stmts: stmts}, nil
}

func (p *parser) maybeSemicolon() {
	if p.isPunct(";") {
		_ = p.advance()
	}
}

var sectionFlagKeywords = map[string]SectionFlags{
	"partial":            FlagPartial,
	"default":            FlagDefault,
	"hidden":             FlagHidden,
	"alphanumeric_keys":  FlagAlphanumericKeys,
	"keypad_keys":        FlagKeypadKeys,
	"function_keys":      FlagFunctionKeys,
	"modifier_keys":      FlagModifierKeys,
	"alternate_group":    FlagAlternateGroup,
}

func (p *parser) parseSectionFlags() (SectionFlags, error) {
	var flags SectionFlags
	for p.cur.Kind == TokKeyword {
		f, ok := sectionFlagKeywords[p.cur.Text]
		if !ok {
			break
		}
		flags |= f
		if err := p.advance(); err != nil {
			return 0, err
		}
	}
	return flags, nil
}

func (p *parser) parseSectionTypeKeyword() (FileType, error) {
	if p.cur.Kind != TokKeyword {
		return 0, p.syntaxErrorf("expected a section type, got %q", p.cur.Text)
	}
	switch p.cur.Text {
	case "xkb_keymap":
		_ = p.advance()
		return FileKeymap, nil
	case "xkb_keycodes":
		_ = p.advance()
		return FileKeycodes, nil
	case "xkb_types":
		_ = p.advance()
		return FileTypes, nil
	case "xkb_compat", "xkb_compatibility":
		_ = p.advance()
		return FileCompat, nil
	case "xkb_symbols":
		_ = p.advance()
		return FileSymbols, nil
	case "xkb_geometry":
		_ = p.advance()
		p.ctx.log.warnf(0, p.file, p.cur.Line, p.cur.Column, "geometry sections are not supported")
		return FileGeometry, nil
	default:
		return 0, p.syntaxErrorf("expected a section type, got %q", p.cur.Text)
	}
}

// parseStmts parses statements until the closing punctuation is seen.
func (p *parser) parseStmts(ft FileType, closing string) ([]Stmt, error) {
	var stmts []Stmt
	for !p.isPunct(closing) {
		if p.cur.Kind == TokEOF {
			return nil, p.syntaxErrorf("unexpected end of file, expected %q", closing)
		}
		st, err := p.parseStmt(ft)
		if err != nil {
			return nil, err
		}
		if st != nil {
			stmts = append(stmts, st)
		}
	}
	return stmts, nil
}

func (p *parser) parseStmt(ft FileType) (Stmt, error) {
	if p.cur.Kind == TokKeyword {
		switch p.cur.Text {
		case "override", "augment", "replace":
			mode := map[string]MergeMode{"override": MergeOverride, "augment": MergeAugment, "replace": MergeReplace}[p.cur.Text]
			if err := p.advance(); err != nil {
				return nil, err
			}
			st, err := p.parseStmt(ft)
			if err != nil {
				return nil, err
			}
			return applyMerge(st, mode), nil
		case "include":
			return p.parseInclude()
		case "alias":
			return p.parseAlias()
		case "indicator":
			return p.parseIndicator()
		case "type":
			return p.parseType()
		case "interpret":
			return p.parseInterp()
		case "virtual_modifiers":
			return p.parseVMod()
		case "key", "keys":
			return p.parseKey()
		case "modifier_map":
			return p.parseModMap()
		}
	}
	if p.cur.Kind == TokKeyName {
		return p.parseKeycode()
	}
	// Generic field = value statement, used both at section top level
	// (e.g. symbols default `key.type[Group1] = "..."`) and inside bodies.
	return p.parseVar()
}

// applyMerge rewrites a statement's Merge field; used after consuming a
// leading override/augment/replace keyword.
func applyMerge(st Stmt, mode MergeMode) Stmt {
	switch s := st.(type) {
	case IncludeStmt:
		s.Merge = mode
		return s
	case KeycodeStmt:
		s.Merge = mode
		return s
	case AliasStmt:
		s.Merge = mode
		return s
	case TypeStmt:
		s.Merge = mode
		return s
	case InterpStmt:
		s.Merge = mode
		return s
	case KeyStmt:
		s.Merge = mode
		return s
	case ModMapStmt:
		s.Merge = mode
		return s
	case LedMapStmt:
		s.Merge = mode
		return s
	case VarStmt:
		s.Merge = mode
		return s
	default:
		return st
	}
}

func (p *parser) parseInclude() (Stmt, error) {
	line := p.cur.Line
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.cur.Kind != TokString {
		return nil, p.syntaxErrorf("expected include expression string")
	}
	expr := p.cur.Text
	if err := p.advance(); err != nil {
		return nil, err
	}
	p.maybeSemicolon()
	return IncludeStmt{Expr: expr, Line: line}, nil
}

func (p *parser) parseAlias() (Stmt, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.cur.Kind != TokKeyName {
		return nil, p.syntaxErrorf("expected a key name after 'alias'")
	}
	alias := p.ctx.internAtom(p.cur.Text)
	if err := p.advance(); err != nil {
		return nil, err
	}
	if err := p.expectPunct("="); err != nil {
		return nil, err
	}
	if p.cur.Kind != TokKeyName {
		return nil, p.syntaxErrorf("expected a key name after '='")
	}
	real := p.ctx.internAtom(p.cur.Text)
	if err := p.advance(); err != nil {
		return nil, err
	}
	p.maybeSemicolon()
	return AliasStmt{Alias: alias, Real: real}, nil
}

func (p *parser) parseKeycode() (Stmt, error) {
	name := p.ctx.internAtom(p.cur.Text)
	if err := p.advance(); err != nil {
		return nil, err
	}
	if err := p.expectPunct("="); err != nil {
		return nil, err
	}
	if p.cur.Kind != TokInteger {
		return nil, p.syntaxErrorf("expected an integer keycode value")
	}
	v := p.cur.Int
	if err := p.advance(); err != nil {
		return nil, err
	}
	p.maybeSemicolon()
	return KeycodeStmt{Name: name, Value: v}, nil
}

// parseIndicator disambiguates `indicator N = "name";` (keycodes section)
// from `indicator "Name" { ... };` (compat section) by the next token.
func (p *parser) parseIndicator() (Stmt, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.cur.Kind == TokInteger {
		idx := p.cur.Int
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.expectPunct("="); err != nil {
			return nil, err
		}
		virtual := false
		if p.cur.Kind == TokIdent && p.cur.Text == "Virtual" {
			virtual = true
			if err := p.advance(); err != nil {
				return nil, err
			}
			if err := p.expectPunct("("); err != nil {
				return nil, err
			}
		}
		if p.cur.Kind != TokString {
			return nil, p.syntaxErrorf("expected indicator name string")
		}
		name := p.cur.Text
		if err := p.advance(); err != nil {
			return nil, err
		}
		if virtual {
			if err := p.expectPunct(")"); err != nil {
				return nil, err
			}
		}
		p.maybeSemicolon()
		return IndicatorNameStmt{Index: idx, Name: name, Virtual: virtual}, nil
	}

	if p.cur.Kind != TokString {
		return nil, p.syntaxErrorf("expected indicator name or index")
	}
	name := p.cur.Text
	if err := p.advance(); err != nil {
		return nil, err
	}
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	body, err := p.parseStmts(FileCompat, "}")
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct("}"); err != nil {
		return nil, err
	}
	p.maybeSemicolon()
	return LedMapStmt{Name: name, Body: body}, nil
}

func (p *parser) parseType() (Stmt, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.cur.Kind != TokString {
		return nil, p.syntaxErrorf("expected a quoted type name")
	}
	name := p.cur.Text
	if err := p.advance(); err != nil {
		return nil, err
	}
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	body, err := p.parseStmts(FileTypes, "}")
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct("}"); err != nil {
		return nil, err
	}
	p.maybeSemicolon()
	return TypeStmt{Name: name, Body: body}, nil
}

var matchKindKeywords = map[string]bool{
	"AnyOfOrNone": true, "AnyOf": true, "NoneOf": true, "AllOf": true, "Exactly": true,
}

func (p *parser) parseInterp() (Stmt, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	symName := ""
	if p.cur.Kind == TokIdent || p.cur.Kind == TokKeyword {
		symName = p.cur.Text
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	var mods Expr
	if p.isPunct("+") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.cur.Kind != TokIdent {
			return nil, p.syntaxErrorf("expected a match-kind identifier")
		}
		matchKind := p.cur.Text
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.expectPunct("("); err != nil {
			return nil, err
		}
		modsExpr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		mods = ActionDecl{Name: matchKind, Args: []ActionArg{{Field: "mods", Value: modsExpr}}}
	}
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	body, err := p.parseStmts(FileCompat, "}")
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct("}"); err != nil {
		return nil, err
	}
	p.maybeSemicolon()
	return InterpStmt{SymName: symName, Mods: mods, Body: body}, nil
}

func (p *parser) parseVMod() (Stmt, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	var names []string
	for {
		if p.cur.Kind != TokIdent {
			return nil, p.syntaxErrorf("expected a virtual modifier name")
		}
		names = append(names, p.cur.Text)
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.isPunct("=") {
			// `virtual_modifiers NumLock = 0x80;` style initializer; skip value.
			if err := p.advance(); err != nil {
				return nil, err
			}
			if _, err := p.parseExpr(); err != nil {
				return nil, err
			}
		}
		if p.isPunct(",") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	p.maybeSemicolon()
	return VModStmt{Names: names}, nil
}

func (p *parser) parseKey() (Stmt, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.cur.Kind != TokKeyName {
		return nil, p.syntaxErrorf("expected a key name after 'key'")
	}
	name := p.ctx.internAtom(p.cur.Text)
	if err := p.advance(); err != nil {
		return nil, err
	}
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	// Shorthand: `key <name> { [ sym, sym, ... ] };`
	if p.isPunct("[") {
		list, err := p.parseBracketList()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct("}"); err != nil {
			return nil, err
		}
		p.maybeSemicolon()
		return KeyStmt{Name: name, Shorthand: []Expr{list}}, nil
	}
	body, err := p.parseStmts(FileSymbols, "}")
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct("}"); err != nil {
		return nil, err
	}
	p.maybeSemicolon()
	return KeyStmt{Name: name, Body: body}, nil
}

func (p *parser) parseModMap() (Stmt, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.cur.Kind != TokIdent && p.cur.Kind != TokKeyword {
		return nil, p.syntaxErrorf("expected a modifier name after 'modifier_map'")
	}
	modName := p.cur.Text
	if err := p.advance(); err != nil {
		return nil, err
	}
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	var keys []Atom
	for !p.isPunct("}") {
		if p.cur.Kind != TokKeyName {
			return nil, p.syntaxErrorf("expected a key name in modifier_map body")
		}
		keys = append(keys, p.ctx.internAtom(p.cur.Text))
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.isPunct(",") {
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
	}
	if err := p.expectPunct("}"); err != nil {
		return nil, err
	}
	p.maybeSemicolon()
	return ModMapStmt{ModName: modName, Keys: keys}, nil
}

// parseFieldName accepts an identifier or a keyword used as a bare field
// name (e.g. "type", "action", "group", "map", "preserve", "level_name",
// "default" inside a VarStmt context).
func (p *parser) parseFieldName() (string, error) {
	if p.cur.Kind != TokIdent && p.cur.Kind != TokKeyword {
		return "", p.syntaxErrorf("expected a field name, got %q", p.cur.Text)
	}
	name := p.cur.Text
	return name, p.advance()
}

func (p *parser) parseVar() (Stmt, error) {
	field, err := p.parseFieldName()
	if err != nil {
		return nil, err
	}
	// Allow `.field` selectors, e.g. `key.type[Group1] = "...";`.
	for p.isPunct(".") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		sub, err := p.parseFieldName()
		if err != nil {
			return nil, err
		}
		field = field + "." + sub
	}
	var index Expr
	if p.isPunct("[") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		index, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct("]"); err != nil {
			return nil, err
		}
	}
	if err := p.expectPunct("="); err != nil {
		return nil, err
	}
	var value Expr
	if p.isPunct("[") {
		value, err = p.parseBracketList()
	} else {
		value, err = p.parseExpr()
	}
	if err != nil {
		return nil, err
	}
	p.maybeSemicolon()
	return VarStmt{Field: field, Index: index, Value: value}, nil
}

// parseBracketList parses `[ elem, elem, ... ]`, producing a KeysymList for
// bare-name elements or an ActionList when elements are `Name(args)` action
// calls. Mixing the two forms in one list is not supported (spec grammar
// never mixes them in practice).
func (p *parser) parseBracketList() (Expr, error) {
	if err := p.expectPunct("["); err != nil {
		return nil, err
	}
	if p.isPunct("]") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		return EmptyList{}, nil
	}

	var names []string
	var actions []*ActionDecl
	isAction := false

	for {
		if p.cur.Kind == TokIdent {
			savedName := p.cur.Text
			if err := p.advance(); err != nil {
				return nil, err
			}
			if p.isPunct("(") {
				isAction = true
				decl, err := p.parseActionArgs(savedName)
				if err != nil {
					return nil, err
				}
				actions = append(actions, decl)
			} else {
				names = append(names, savedName)
			}
		} else {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if id, ok := e.(Ident); ok {
				names = append(names, id.Name)
			} else {
				names = append(names, p.literalKeysymName(e))
			}
		}
		if p.isPunct(",") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	if err := p.expectPunct("]"); err != nil {
		return nil, err
	}
	if isAction {
		return ActionList{Actions: actions}, nil
	}
	return KeysymList{Names: names}, nil
}

// literalKeysymName renders a non-identifier expression appearing in a
// bracket-list symbol slot (e.g. the bare digit in `[ 1, 2 ]`) back to the
// textual keysym name a keysym lookup expects, rather than the struct's Go
// representation.
func (p *parser) literalKeysymName(e Expr) string {
	switch v := e.(type) {
	case IntLit:
		return strconv.FormatInt(v.Value, 10)
	case FloatLit:
		return v.Text
	case StringLit:
		return v.Value
	case KeyNameLit:
		return p.ctx.atomText(v.Name)
	default:
		return fmt.Sprintf("%v", e)
	}
}

func (p *parser) parseActionArgs(name string) (*ActionDecl, error) {
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	decl := &ActionDecl{Name: name}
	if p.isPunct(")") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		return decl, nil
	}
	for {
		field, err := p.parseFieldName()
		if err != nil {
			return nil, err
		}
		var value Expr = BoolLit{Value: true} // bare flag, e.g. `clearLocks`
		if p.isPunct("=") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			value, err = p.parseExpr()
			if err != nil {
				return nil, err
			}
		}
		decl.Args = append(decl.Args, ActionArg{Field: field, Value: value})
		if p.isPunct(",") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return decl, nil
}

// --- expression grammar: additive -> multiplicative -> unary -> primary ---

func (p *parser) parseExpr() (Expr, error) { return p.parseAdditive() }

func (p *parser) parseAdditive() (Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.isPunct("+") || p.isPunct("-") {
		op := p.cur.Text[0]
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = BinaryExpr{Op: op, L: left, R: right}
	}
	return left, nil
}

func (p *parser) parseMultiplicative() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.isPunct("*") || p.isPunct("/") {
		op := p.cur.Text[0]
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = BinaryExpr{Op: op, L: left, R: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (Expr, error) {
	if p.isPunct("!") || p.isPunct("-") || p.isPunct("~") || p.isPunct("+") {
		op := p.cur.Text[0]
		if err := p.advance(); err != nil {
			return nil, err
		}
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return UnaryExpr{Op: op, X: x}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Expr, error) {
	switch p.cur.Kind {
	case TokInteger:
		v := p.cur.Int
		if err := p.advance(); err != nil {
			return nil, err
		}
		return IntLit{Value: v}, nil
	case TokFloat:
		v := p.cur.Text
		if err := p.advance(); err != nil {
			return nil, err
		}
		return FloatLit{Text: v}, nil
	case TokString:
		v := p.cur.Text
		if err := p.advance(); err != nil {
			return nil, err
		}
		return StringLit{Value: v}, nil
	case TokKeyName:
		name := p.ctx.internAtom(p.cur.Text)
		if err := p.advance(); err != nil {
			return nil, err
		}
		return KeyNameLit{Name: name}, nil
	case TokKeyword:
		switch p.cur.Text {
		case "Yes", "True":
			_ = p.advance()
			return BoolLit{Value: true}, nil
		case "No", "False":
			_ = p.advance()
			return BoolLit{Value: false}, nil
		default:
			name := p.cur.Text
			if err := p.advance(); err != nil {
				return nil, err
			}
			return Ident{Name: name}, nil
		}
	case TokIdent:
		name := p.cur.Text
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.isPunct(".") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			field, err := p.parseFieldName()
			if err != nil {
				return nil, err
			}
			return FieldRef{Base: name, Field: field}, nil
		}
		if p.isPunct("[") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			idx, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct("]"); err != nil {
				return nil, err
			}
			return ArrayRef{Base: name, Index: idx}, nil
		}
		return Ident{Name: name}, nil
	case TokPunct:
		if p.cur.Text == "(" {
			if err := p.advance(); err != nil {
				return nil, err
			}
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct(")"); err != nil {
				return nil, err
			}
			return e, nil
		}
	}
	return nil, p.syntaxErrorf("unexpected token %q", p.cur.Text)
}
