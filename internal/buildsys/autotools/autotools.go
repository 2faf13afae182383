// Package autotools drives configure scripts and reads back the make
// database they generate.
package autotools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/goplus/tpconf/internal/buildsys"
	"github.com/goplus/tpconf/internal/descriptor"
	"github.com/goplus/tpconf/internal/makedb"
	"github.com/goplus/tpconf/internal/toolexec"
)

// AutoTools wraps configure and make with chainable configuration.
type AutoTools struct {
	runner    *toolexec.Runner
	SourceDir string
	buildDir  string
	host      string
	env       map[string]string
}

var _ buildsys.BuildSystem = (*AutoTools)(nil)

// New returns a helper configuring sourceDir out of tree in buildDir.
func New(runner *toolexec.Runner, sourceDir, buildDir string) *AutoTools {
	return &AutoTools{
		runner:    runner,
		SourceDir: sourceDir,
		buildDir:  buildDir,
		env:       map[string]string{},
	}
}

// Cross targets d: it sets --host and points the compiler and pkg-config at
// the descriptor's sysroot.
func (a *AutoTools) Cross(d descriptor.Descriptor) error {
	triple, ok := buildsys.Triple(d)
	if !ok {
		return fmt.Errorf("autotools: no host triple for %s", d)
	}
	a.host = triple
	a.sysroot(d.Sysroot)
	return nil
}

func (a *AutoTools) sysroot(dir string) {
	if dir == "" {
		return
	}
	for _, key := range []string{"CFLAGS", "CXXFLAGS", "LDFLAGS"} {
		buildsys.AppendFlag(a.env, key, "--sysroot="+dir)
	}
	a.env["PKG_CONFIG_SYSROOT_DIR"] = dir
	for _, sub := range []string{"usr/share/pkgconfig", "usr/lib/pkgconfig"} {
		buildsys.PrependPath(a.env, string(os.PathListSeparator), "PKG_CONFIG_LIBDIR", filepath.Join(dir, sub))
	}
}

func (a *AutoTools) Env(key, value string) {
	if a.env == nil {
		a.env = map[string]string{}
	}
	a.env[key] = value
}

// ConfigureArgs returns the arguments Configure passes to the script.
func (a *AutoTools) ConfigureArgs(args ...string) []string {
	var out []string
	if a.host != "" {
		out = append(out, "--host="+a.host)
	}
	return append(out, args...)
}

// Configure runs the configure script in the build directory.
func (a *AutoTools) Configure(ctx context.Context, args ...string) error {
	if err := os.MkdirAll(a.buildDir, 0o755); err != nil {
		return err
	}
	exe := filepath.Join(a.SourceDir, "configure")
	if _, err := os.Stat(exe); err != nil {
		return &toolexec.NotFoundError{Tool: exe, Err: err}
	}
	_, err := a.runner.Run(ctx, toolexec.Cmd{
		Name: exe,
		Args: a.ConfigureArgs(args...),
		Dir:  a.buildDir,
		Env:  a.env,
	})
	return err
}

// Database prints make's database for the configured build without running
// any recipe ("make -pnq") and parses it.
func (a *AutoTools) Database(ctx context.Context, targets ...string) (*makedb.Database, error) {
	args := append([]string{"-pnq"}, targets...)
	res, err := a.runner.Run(ctx, toolexec.Cmd{
		Name: "make",
		Args: args,
		Dir:  a.buildDir,
		Env:  a.env,
	})
	var out []byte
	if err == nil {
		out = res.Stdout
	} else if stdout, ok := questionExit(err); ok {
		// -q exits 1 when the goal is out of date, the database is complete
		out = stdout
	} else {
		return nil, err
	}
	db, err := makedb.ParseMakeDB(bytes.NewReader(out))
	if err != nil {
		return nil, fmt.Errorf("parse make database of %s: %w", a.buildDir, err)
	}
	return db, nil
}

func questionExit(err error) ([]byte, bool) {
	var execErr *toolexec.ExecError
	if errors.As(err, &execErr) && execErr.ExitCode == 1 && len(execErr.Stdout) > 0 {
		return execErr.Stdout, true
	}
	return nil, false
}

// Enable returns "--enable-<feature>" or "--disable-<feature>".
func Enable(feature string, on bool) string {
	if on {
		return "--enable-" + feature
	}
	return "--disable-" + feature
}

// EnableEach returns one "--enable-<kind>=<name>" per name, sorted and
// deduplicated.
func EnableEach(kind string, names []string) []string {
	names = slices.Clone(names)
	slices.Sort(names)
	names = slices.Compact(names)
	out := make([]string, 0, len(names))
	for _, n := range names {
		out = append(out, "--enable-"+kind+"="+n)
	}
	return out
}
