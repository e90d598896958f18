//go:build !unix

package xkb

import (
	"fmt"
	"os"
)

// fileExists reports whether path names a regular, readable file.
func fileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}

// readMapped loads path's contents with a plain read; non-unix platforms
// have no portable mmap path through golang.org/x/sys.
func readMapped(ctx *Context, path string) ([]byte, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, ErrIncludeNotFound)
	}
	ctx.debugBufferSize(path, len(buf))
	return buf, nil
}
