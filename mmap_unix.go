//go:build unix

package xkb

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// fileExists reports whether path names a regular, readable file.
func fileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}

// readMapped loads path's contents via mmap, the way the include resolver
// avoids a read()-sized copy for every file pulled into a keymap build.
// Falling back to a plain read on mmap failure keeps unusual include files
// working; a zero-length file is returned as nil before any mapping.
func readMapped(ctx *Context, path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, ErrIncludeNotFound)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, ErrIncludeNotFound)
	}
	if st.Size() == 0 {
		ctx.debugBufferSize(path, 0)
		return nil, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(st.Size()), unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		buf, rerr := os.ReadFile(path)
		if rerr != nil {
			return nil, fmt.Errorf("%s: %w", path, ErrIncludeNotFound)
		}
		ctx.debugBufferSize(path, len(buf))
		return buf, nil
	}
	ctx.debugBufferSize(path, len(data))

	// Copy out of the mapping before unmapping: the AST keeps string slices
	// referencing this buffer well past this function's return.
	out := make([]byte, len(data))
	copy(out, data)
	_ = unix.Munmap(data)
	return out, nil
}
