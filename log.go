package xkb

import (
	"fmt"
	"io"

	charmlog "github.com/charmbracelet/log"
)

// MessageCode is a stable numeric diagnostic identifier, e.g. 822 for
// "[XKB-822] Failed to parse input xkb string". The registry below is a
// representative subset of the one enumerated in
// _examples/original_source/src/messages-codes.h, covering every
// diagnostic this package actually emits.
type MessageCode int

const (
	MsgMalformedNumberLiteral       MessageCode = 34
	MsgConflictingTypePreserve      MessageCode = 43
	MsgUnsupportedModifierMask      MessageCode = 60
	MsgInvalidNumericKeysym         MessageCode = 82
	MsgIllegalKeycodeAlias          MessageCode = 101
	MsgUnrecognizedKeysym           MessageCode = 107
	MsgUndeclaredVirtualModifier    MessageCode = 123
	MsgInvalidIncludeStatement      MessageCode = 203
	MsgUnsupportedGroupIndex        MessageCode = 237
	MsgConflictingTypeLevelNames    MessageCode = 239
	MsgConflictingTypeMapEntry      MessageCode = 266
	MsgUndefinedKeyType             MessageCode = 286
	MsgDeprecatedKeysym             MessageCode = 301
	MsgIncludedFileNotFound         MessageCode = 338
	MsgDuplicateEntry               MessageCode = 378
	MsgRecursiveInclude             MessageCode = 386
	MsgConflictingTypeDefinitions   MessageCode = 407
	MsgMissingDefaultSection        MessageCode = 433
	MsgConflictingKeySymbol         MessageCode = 461
	MsgNumericKeysym                MessageCode = 489
	MsgExtraSymbolsIgnored          MessageCode = 516
	MsgConflictingKeyName           MessageCode = 523
	MsgInvalidFileEncoding          MessageCode = 542
	MsgCannotResolveRMLVO           MessageCode = 595
	MsgUnknownCharEscapeSequence    MessageCode = 645
	MsgInvalidXKBSyntax             MessageCode = 769
	MsgUndefinedKeycode             MessageCode = 770
	MsgConflictingModmap            MessageCode = 800
	MsgKeymapCompilationFailed      MessageCode = 822
	MsgConflictingKeyAction         MessageCode = 883
	MsgConflictingKeyFields         MessageCode = 935
	MsgCannotInferKeyType           MessageCode = 183
	MsgInvalidDepthExceeded         MessageCode = 987 // package-local extension, not in upstream registry
	MsgMapEntryMaskOutsideType      MessageCode = 988 // package-local extension, not in upstream registry
)

// Log mirrors the format the original emits: "[XKB-%03d] " followed by the
// human-readable text, e.g. "[XKB-822] Failed to parse input xkb string".
func formatLogMessage(code MessageCode, format string, args ...interface{}) string {
	msg := fmt.Sprintf(format, args...)
	if code == 0 {
		return msg
	}
	return fmt.Sprintf("[XKB-%03d] %s", int(code), msg)
}

// LogLevel is the spec §6 Critical/Error/Warning/Info/Debug scale.
type LogLevel int

const (
	LogCritical LogLevel = iota
	LogError
	LogWarning
	LogInfo
	LogDebug
)

func (l LogLevel) charmLevel() charmlog.Level {
	switch l {
	case LogCritical, LogError:
		return charmlog.ErrorLevel
	case LogWarning:
		return charmlog.WarnLevel
	case LogInfo:
		return charmlog.InfoLevel
	default:
		return charmlog.DebugLevel
	}
}

// logger wraps a *charmlog.Logger with the spec's level gate and
// located-diagnostic formatting. The verbosity value is stored (clamped to
// 0..10) but no message is filtered by it.
type logger struct {
	out       *charmlog.Logger
	level     LogLevel
	verbosity int
}

func newLogger(w io.Writer) *logger {
	l := charmlog.NewWithOptions(w, charmlog.Options{
		ReportTimestamp: false,
		Level:           charmlog.InfoLevel,
	})
	return &logger{out: l, level: LogWarning, verbosity: 0}
}

func (l *logger) setLevel(level LogLevel) {
	l.level = level
	l.out.SetLevel(level.charmLevel())
}

func (l *logger) setVerbosity(v int) {
	if v < 0 {
		v = 0
	}
	if v > 10 {
		v = 10
	}
	l.verbosity = v
}

func (l *logger) setOutput(w io.Writer) {
	l.out.SetOutput(w)
}

// emit logs a located diagnostic at the given severity if the current level
// permits it.
func (l *logger) emit(d Diagnostic) {
	if l == nil || l.out == nil {
		return
	}
	var levelOK bool
	switch d.Severity {
	case SeverityCritical, SeverityError:
		levelOK = l.level >= LogError
	case SeverityWarning:
		levelOK = l.level >= LogWarning
	case SeverityInfo:
		levelOK = l.level >= LogInfo
	default:
		levelOK = l.level >= LogDebug
	}
	if !levelOK {
		return
	}

	text := formatLogMessage(d.Code, "%s", d.Message)
	if d.File != "" {
		text = fmt.Sprintf("%s:%d:%d: %s", d.File, d.Line, d.Column, text)
	}

	switch d.Severity {
	case SeverityCritical, SeverityError:
		l.out.Error(text)
	case SeverityWarning:
		l.out.Warn(text)
	case SeverityInfo:
		l.out.Info(text)
	default:
		l.out.Debug(text)
	}
}

func (l *logger) warnf(code MessageCode, file string, line, col int, format string, args ...interface{}) {
	l.emit(Diagnostic{Severity: SeverityWarning, Code: code, File: file, Line: line, Column: col, Message: fmt.Sprintf(format, args...)})
}

func (l *logger) errorf(code MessageCode, file string, line, col int, format string, args ...interface{}) {
	l.emit(Diagnostic{Severity: SeverityError, Code: code, File: file, Line: line, Column: col, Message: fmt.Sprintf(format, args...)})
}

func (l *logger) debugf(format string, args ...interface{}) {
	l.emit(Diagnostic{Severity: SeverityDebug, Message: fmt.Sprintf(format, args...)})
}
