package xkb

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func withEnv(t *testing.T, key, value string) {
	t.Helper()
	old, had := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("Setenv(%s): %v", key, err)
	}
	t.Cleanup(func() {
		if had {
			os.Setenv(key, old)
		} else {
			os.Unsetenv(key)
		}
	})
}

func TestContextGetenvHonorsNoEnvironmentNames(t *testing.T) {
	withEnv(t, "XKB_DEFAULT_LAYOUT", "de")
	ctx := NewContext(WithContextFlags(FlagNoEnvironmentNames))
	if got := ctx.getenv("XKB_DEFAULT_LAYOUT"); got != "" {
		t.Fatalf("getenv(XKB_DEFAULT_LAYOUT) with FlagNoEnvironmentNames = %q, want empty", got)
	}
}

func TestContextGetenvHonorsNoSecureGetenv(t *testing.T) {
	withEnv(t, "HOME", "/home/someone")
	ctx := NewContext(WithContextFlags(FlagNoSecureGetenv))
	if got := ctx.getenv("HOME"); got != "" {
		t.Fatalf("getenv(HOME) with FlagNoSecureGetenv = %q, want empty", got)
	}
}

func TestContextGetenvReadsByDefault(t *testing.T) {
	withEnv(t, "XKB_DEFAULT_MODEL", "pc105")
	ctx := NewContext()
	if got := ctx.getenv("XKB_DEFAULT_MODEL"); got != "pc105" {
		t.Fatalf("getenv(XKB_DEFAULT_MODEL) = %q, want pc105", got)
	}
}

func TestDefaultRMLVOFillsOnlyEmptyFields(t *testing.T) {
	withEnv(t, "XKB_DEFAULT_LAYOUT", "de")
	withEnv(t, "XKB_DEFAULT_MODEL", "pc105")
	ctx := NewContext()
	got := ctx.defaultRMLVO(RMLVO{Layout: "us"})
	if got.Layout != "us" {
		t.Errorf("Layout = %q, want unchanged us", got.Layout)
	}
	if got.Model != "pc105" {
		t.Errorf("Model = %q, want pc105 from the environment", got.Model)
	}
}

func TestDefaultIncludePathsOrderAndXDGPreference(t *testing.T) {
	withEnv(t, "XDG_CONFIG_HOME", "/xdg")
	withEnv(t, "HOME", "/home/someone")
	withEnv(t, "XKB_CONFIG_EXTRA_PATH", "")
	os.Unsetenv("XKB_CONFIG_EXTRA_PATH")
	withEnv(t, "XKB_CONFIG_ROOT", "")
	os.Unsetenv("XKB_CONFIG_ROOT")

	ctx := NewContext(WithContextFlags(FlagNoDefaultIncludes))
	paths := ctx.defaultIncludePaths()
	want := []string{
		filepath.Join("/xdg", "xkb"),
		filepath.Join("/home/someone", ".xkb"),
		defaultExtraPath,
		defaultConfigRoot,
	}
	if len(paths) != len(want) {
		t.Fatalf("defaultIncludePaths = %v, want %v", paths, want)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("paths[%d] = %q, want %q", i, paths[i], want[i])
		}
	}
}

func TestNewContextAppliesDefaultIncludesUnlessFlagged(t *testing.T) {
	withEnv(t, "XKB_CONFIG_ROOT", "")
	os.Unsetenv("XKB_CONFIG_ROOT")
	with := NewContext()
	if len(with.IncludePaths()) == 0 {
		t.Fatalf("IncludePaths() with defaults enabled = empty, want at least the compiled-in fallback")
	}

	without := NewContext(WithContextFlags(FlagNoDefaultIncludes))
	if len(without.IncludePaths()) != 0 {
		t.Fatalf("IncludePaths() with FlagNoDefaultIncludes = %v, want empty", without.IncludePaths())
	}
}

func TestWithIncludePathPrependsBeforeDefaults(t *testing.T) {
	ctx := NewContext(WithIncludePath("/custom"))
	paths := ctx.IncludePaths()
	if len(paths) == 0 || paths[0] != "/custom" {
		t.Fatalf("IncludePaths()[0] = %v, want /custom first", paths)
	}
}

func TestAppendAndResetAndClearIncludePath(t *testing.T) {
	ctx := NewContext(WithContextFlags(FlagNoDefaultIncludes))
	ctx.AppendIncludePath("/a")
	ctx.AppendIncludePath("/b")
	if paths := ctx.IncludePaths(); len(paths) != 2 || paths[0] != "/a" || paths[1] != "/b" {
		t.Fatalf("IncludePaths() = %v, want [/a /b]", paths)
	}

	ctx.ClearIncludePath()
	if paths := ctx.IncludePaths(); len(paths) != 0 {
		t.Fatalf("IncludePaths() after ClearIncludePath = %v, want empty", paths)
	}

	ctx.ResetIncludePath()
	if paths := ctx.IncludePaths(); len(paths) != 0 {
		t.Fatalf("IncludePaths() after ResetIncludePath with FlagNoDefaultIncludes = %v, want empty", paths)
	}
}

func TestIncludePathsReturnsACopy(t *testing.T) {
	ctx := NewContext(WithContextFlags(FlagNoDefaultIncludes))
	ctx.AppendIncludePath("/a")
	paths := ctx.IncludePaths()
	paths[0] = "/mutated"
	if got := ctx.IncludePaths(); got[0] != "/a" {
		t.Fatalf("mutating the returned slice leaked into the Context: got %v", got)
	}
}

func TestWithLogWriterRedirectsOutput(t *testing.T) {
	var buf bytes.Buffer
	ctx := NewContext(WithLogWriter(&buf), WithLogLevel(LogDebug))
	ctx.log.debugf("hello %s", "world")
	if buf.Len() == 0 {
		t.Fatalf("expected debug output to be written to the redirected writer")
	}
}

func TestSetLogLevelAndVerbosityClamp(t *testing.T) {
	ctx := NewContext()
	ctx.SetLogVerbosity(-5)
	if ctx.log.verbosity != 0 {
		t.Errorf("verbosity = %d, want clamped to 0", ctx.log.verbosity)
	}
	ctx.SetLogVerbosity(99)
	if ctx.log.verbosity != 10 {
		t.Errorf("verbosity = %d, want clamped to 10", ctx.log.verbosity)
	}
	ctx.SetLogLevel(LogCritical)
	if ctx.log.level != LogCritical {
		t.Errorf("level = %v, want LogCritical", ctx.log.level)
	}
}

func TestInternAtomAndLookupAtomRoundTrip(t *testing.T) {
	ctx := NewContext()
	a := ctx.internAtom("AD01")
	got, ok := ctx.lookupAtom("AD01")
	if !ok || got != a {
		t.Fatalf("lookupAtom(AD01) = (%v, %v), want (%v, true)", got, ok, a)
	}
	if ctx.atomText(a) != "AD01" {
		t.Errorf("atomText = %q, want AD01", ctx.atomText(a))
	}
	if _, ok := ctx.lookupAtom("NeverInterned"); ok {
		t.Errorf("lookupAtom(NeverInterned) = true, want false")
	}
}
