package xkb

import "errors"

// Sentinel errors for the fatal conditions enumerated in spec §7. Wrap with
// fmt.Errorf("...: %w", err) so callers can errors.Is/errors.As against
// these, the way bubbletea declares ErrProgramKilled/ErrProgramPanic at
// package scope and wraps them deeper in the call stack.
var (
	// ErrEncoding is returned when the first byte of an input buffer is NUL
	// or non-ASCII after an optional UTF-8 BOM.
	ErrEncoding = errors.New("xkb: invalid file encoding")

	// ErrSyntax is returned when a file fails to parse; the parse is
	// abandoned for that file (terminate-and-report, spec §4.3).
	ErrSyntax = errors.New("xkb: syntax error")

	// ErrIncludeNotFound is returned when an include expression names a
	// file that cannot be located on the include path.
	ErrIncludeNotFound = errors.New("xkb: included file not found")

	// ErrIncludeCycle is returned when a file (transitively) includes
	// itself.
	ErrIncludeCycle = errors.New("xkb: recursive include")

	// ErrIncludeDepth is returned when the include chain exceeds
	// MaxIncludeDepth.
	ErrIncludeDepth = errors.New("xkb: include depth exceeded")

	// ErrMissingComponent is returned when composing a keymap from RMLVO
	// and one of the four KcCGST components resolves to an empty string.
	ErrMissingComponent = errors.New("xkb: missing required component")

	// ErrUndeclaredVirtualModifier is returned when a modifier mask
	// expression references a virtual modifier that was never declared.
	ErrUndeclaredVirtualModifier = errors.New("xkb: undeclared virtual modifier")

	// ErrNumberOverflow is returned when a numeric literal does not fit in
	// 64 bits.
	ErrNumberOverflow = errors.New("xkb: numeric literal overflow")

	// ErrTooManyErrors is returned once a single file's compiler error
	// count exceeds errorCountThreshold (spec §7).
	ErrTooManyErrors = errors.New("xkb: too many errors, aborting file")

	// ErrNoKeymap is returned by State construction when given a nil
	// Keymap.
	ErrNoKeymap = errors.New("xkb: no keymap")

	// ErrUnresolvedRMLVO is returned when the rules engine cannot produce
	// a KcCGST expression for an RMLVO tuple.
	ErrUnresolvedRMLVO = errors.New("xkb: cannot resolve rules for given RMLVO")
)

// errorCountThreshold is the per-file fatal-abort threshold from spec §7.
const errorCountThreshold = 10

// Severity classifies a Diagnostic per spec §7.
type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityError
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Diagnostic is one located log message, carrying the stable numeric
// message id from the registry in log.go.
type Diagnostic struct {
	Severity Severity
	Code     MessageCode
	File     string
	Line     int
	Column   int
	Message  string
}
