package fragments

import (
	"embed"
	"io/fs"
)

//go:embed defaults
var defaultsFS embed.FS

// NewBuiltinFS returns the read-only tree of fragments shipped with the
// binary, laid out like any other origin directory.
func NewBuiltinFS() fs.FS {
	sub, err := fs.Sub(defaultsFS, "defaults")
	if err != nil {
		// fs.Sub only fails on an invalid path literal.
		panic(err)
	}
	return sub
}
