// Package shim writes the top-level Makefile that forwards make targets to
// the generated build.
package shim

import (
	_ "embed"
	"os"
	"path/filepath"
	"strings"
)

//go:embed Makefile.in
var template string

// Render substitutes the source root and target OS into the template.
func Render(sourceRoot, targetOS string) string {
	r := strings.NewReplacer(
		"@SOURCE_ROOT@", filepath.ToSlash(sourceRoot),
		"@TARGET_OS@", targetOS,
	)
	return r.Replace(template)
}

// Write renders the shim into dir/Makefile.
func Write(dir, sourceRoot, targetOS string) error {
	return os.WriteFile(filepath.Join(dir, "Makefile"), []byte(Render(sourceRoot, targetOS)), 0o644)
}
