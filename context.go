package xkb

import (
	"io"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
)

// ContextFlags gate optional Context behavior, mirroring the "NoXxx" style
// of bubbletea's ProgramOption predicates (WithInput(nil) disabling input,
// etc.) but expressed as a bitmask per spec §6.
type ContextFlags int

const (
	// FlagNoDefaultIncludes skips every entry defaultIncludePaths would
	// add, the HOME/XDG entries included.
	FlagNoDefaultIncludes ContextFlags = 1 << iota
	// FlagNoEnvironmentNames disables reading XKB_DEFAULT_* for RMLVO
	// defaults.
	FlagNoEnvironmentNames
	// FlagNoSecureGetenv makes every environment lookup return "",
	// whatever the process's privilege (Go has no secure_getenv
	// equivalent, so privilege is not checked).
	FlagNoSecureGetenv
)

// CompileFlags controls Keymap-build-time behavior. Reserved for parity
// with the public API surface (§6); no flags are currently defined beyond
// the zero value.
type CompileFlags int

// KeymapFormat selects the textual grammar used for a Keymap's source. Only
// TextV1 is defined; the enum exists so a future format can be added
// without breaking the Build* signatures.
type KeymapFormat int

// TextV1 is the only currently supported KeymapFormat.
const TextV1 KeymapFormat = 1

// Context owns the atom table, include search path, and logging
// configuration shared by every Keymap compiled from it. Build a Context
// with NewContext and functional ContextOptions, the same pattern
// bubbletea's Program uses for ProgramOption (WithOutput, WithInput, ...).
type Context struct {
	flags        ContextFlags
	atoms        *atomTable
	includePaths []string
	log          *logger
}

// ContextOption configures a Context at construction time.
type ContextOption func(*Context)

// WithContextFlags sets the Context's behavior flags.
func WithContextFlags(flags ContextFlags) ContextOption {
	return func(c *Context) { c.flags = flags }
}

// WithIncludePath appends a directory to the include search path, ahead of
// any default entries added afterward.
func WithIncludePath(dir string) ContextOption {
	return func(c *Context) { c.includePaths = append(c.includePaths, dir) }
}

// WithLogLevel sets the initial log level.
func WithLogLevel(level LogLevel) ContextOption {
	return func(c *Context) { c.log.setLevel(level) }
}

// WithVerbosity sets the initial verbosity, clamped to 0..10.
func WithVerbosity(v int) ContextOption {
	return func(c *Context) { c.log.setVerbosity(v) }
}

// WithLogWriter redirects the Context's logger output.
func WithLogWriter(w io.Writer) ContextOption {
	return func(c *Context) { c.log.setOutput(w) }
}

// NewContext creates a Context, applying options in order. Environment
// variables are read here (and nowhere else), honoring FlagNoEnvironmentNames
// and FlagNoSecureGetenv, matching spec §5's "environment variable lookups
// happen only during Context construction".
func NewContext(opts ...ContextOption) *Context {
	c := &Context{
		atoms: newAtomTable(),
		log:   newLogger(os.Stderr),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.flags&FlagNoDefaultIncludes == 0 {
		c.includePaths = append(c.includePaths, c.defaultIncludePaths()...)
	}
	return c
}

// defaultIncludePaths implements the order from spec §6:
// $XDG_CONFIG_HOME/xkb (else $HOME/.config/xkb), $HOME/.xkb,
// $XKB_CONFIG_EXTRA_PATH (else compiled-in extra path), $XKB_CONFIG_ROOT
// (else compiled-in root).
func (c *Context) defaultIncludePaths() []string {
	var paths []string
	getenv := c.getenv

	if xdg := getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, "xkb"))
	} else if home := getenv("HOME"); home != "" {
		paths = append(paths, filepath.Join(home, ".config", "xkb"))
	}
	if home := getenv("HOME"); home != "" {
		paths = append(paths, filepath.Join(home, ".xkb"))
	}
	if extra := getenv("XKB_CONFIG_EXTRA_PATH"); extra != "" {
		paths = append(paths, extra)
	} else {
		paths = append(paths, defaultExtraPath)
	}
	if root := getenv("XKB_CONFIG_ROOT"); root != "" {
		paths = append(paths, root)
	} else {
		paths = append(paths, defaultConfigRoot)
	}
	return paths
}

// defaultConfigRoot and defaultExtraPath are the compiled-in fallbacks used
// when the corresponding environment variable is unset; real deployments
// point these at an installed xkeyboard-config tree.
const (
	defaultConfigRoot = "/usr/share/X11/xkb"
	defaultExtraPath  = "/usr/share/X11/xkb/extra"
)

// getenv reads an environment variable subject to the Context's flags. It
// is the single choke point spec §5 requires ("environment variable
// lookups happen only during Context construction and only if the caller
// permits it").
func (c *Context) getenv(key string) string {
	if c.flags&(FlagNoEnvironmentNames|FlagNoSecureGetenv) != 0 {
		switch key {
		case "XKB_DEFAULT_RULES", "XKB_DEFAULT_MODEL", "XKB_DEFAULT_LAYOUT",
			"XKB_DEFAULT_VARIANT", "XKB_DEFAULT_OPTIONS":
			if c.flags&FlagNoEnvironmentNames != 0 {
				return ""
			}
		}
		if c.flags&FlagNoSecureGetenv != 0 {
			return ""
		}
	}
	return os.Getenv(key)
}

// defaultRMLVO reads XKB_DEFAULT_{RULES,MODEL,LAYOUT,VARIANT,OPTIONS},
// returning the zero-valued fields the caller didn't already supply.
func (c *Context) defaultRMLVO(rmlvo RMLVO) RMLVO {
	if rmlvo.Rules == "" {
		rmlvo.Rules = c.getenv("XKB_DEFAULT_RULES")
	}
	if rmlvo.Model == "" {
		rmlvo.Model = c.getenv("XKB_DEFAULT_MODEL")
	}
	if rmlvo.Layout == "" {
		rmlvo.Layout = c.getenv("XKB_DEFAULT_LAYOUT")
	}
	if rmlvo.Variant == "" {
		rmlvo.Variant = c.getenv("XKB_DEFAULT_VARIANT")
	}
	if rmlvo.Options == "" {
		rmlvo.Options = c.getenv("XKB_DEFAULT_OPTIONS")
	}
	return rmlvo
}

// AppendIncludePath appends dir to the end of the include search path.
func (c *Context) AppendIncludePath(dir string) { c.includePaths = append(c.includePaths, dir) }

// ResetIncludePath clears all include paths and re-adds the default set
// unless FlagNoDefaultIncludes was set at construction.
func (c *Context) ResetIncludePath() {
	c.includePaths = nil
	if c.flags&FlagNoDefaultIncludes == 0 {
		c.includePaths = append(c.includePaths, c.defaultIncludePaths()...)
	}
}

// ClearIncludePath removes every entry from the include search path.
func (c *Context) ClearIncludePath() { c.includePaths = nil }

// IncludePaths returns a copy of the current include search path.
func (c *Context) IncludePaths() []string {
	out := make([]string, len(c.includePaths))
	copy(out, c.includePaths)
	return out
}

// SetLogLevel changes the minimum severity the Context's logger reports.
func (c *Context) SetLogLevel(level LogLevel) { c.log.setLevel(level) }

// SetLogVerbosity changes the stored 0..10 verbosity value; the logger
// does not filter any message by it.
func (c *Context) SetLogVerbosity(v int) { c.log.setVerbosity(v) }

// SetLogWriter redirects where the Context's logger writes, the
// "log callback" surface from spec §6.
func (c *Context) SetLogWriter(w io.Writer) { c.log.setOutput(w) }

// debugBufferSize logs a human-readable size, e.g. when a file is mapped
// into memory by the include resolver.
func (c *Context) debugBufferSize(path string, n int) {
	c.log.debugf("mapped %s from %s", humanize.Bytes(uint64(n)), path)
}

func (c *Context) internAtom(s string) Atom          { return c.atoms.intern(s) }
func (c *Context) lookupAtom(s string) (Atom, bool)  { return c.atoms.lookup(s) }
func (c *Context) atomText(a Atom) string             { return c.atoms.text(a) }
