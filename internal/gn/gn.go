package gn

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goplus/tpconf/internal/descriptor"
	"github.com/goplus/tpconf/internal/settings"
	"github.com/goplus/tpconf/internal/toolexec"
)

// GN runs the gn executable.
type GN struct {
	Runner *toolexec.Runner
	// Exe defaults to "gn".
	Exe string
	// Root is the source root, passed as --root.
	Root string
}

func (g *GN) exe() string {
	if g.Exe == "" {
		return "gn"
	}
	return g.Exe
}

func (g *GN) run(ctx context.Context, args ...string) (*toolexec.Result, error) {
	if g.Root != "" {
		args = append(args, "--root="+g.Root)
	}
	return g.Runner.Run(ctx, toolexec.Cmd{Name: g.exe(), Args: args})
}

// BootstrapArgs returns the --args value of the bootstrap build: just the
// target platform plus the user's raw assignments.
func BootstrapArgs(s settings.View, extra []Arg) string {
	parts := []string{
		settings.TargetCPU + "=" + Quote(s.String(settings.TargetCPU)),
		settings.TargetOS + "=" + Quote(s.String(settings.TargetOS)),
	}
	for _, a := range extra {
		parts = append(parts, a.Name+"="+a.Value)
	}
	return strings.Join(parts, " ")
}

// Bootstrap generates a build in dir with only the platform arguments set,
// so the descriptor can be read back before the third-party steps run.
func (g *GN) Bootstrap(ctx context.Context, dir string, s settings.View, extra []Arg) error {
	_, err := g.run(ctx, "gen", dir, "--args="+BootstrapArgs(s, extra))
	return err
}

// Gen regenerates dir from its args.gn.
func (g *GN) Gen(ctx context.Context, dir string, extra ...string) error {
	if _, err := os.Stat(filepath.Join(dir, ArgsFile)); err != nil {
		return fmt.Errorf("gn: %s is not a configured build directory: %w", dir, err)
	}
	_, err := g.run(ctx, append([]string{"gen", dir}, extra...)...)
	return err
}

type argValue struct {
	Value string `json:"value"`
}

type argEntry struct {
	Name    string    `json:"name"`
	Current *argValue `json:"current"`
	Default *argValue `json:"default"`
}

func (e argEntry) value() string {
	if e.Current != nil {
		return Unquote(e.Current.Value)
	}
	if e.Default != nil {
		return Unquote(e.Default.Value)
	}
	return ""
}

// ParseArgList parses the output of "gn args <dir> --list --json" into
// name/value pairs with string literals unquoted.
func ParseArgList(data []byte) (map[string]string, error) {
	var entries []argEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("gn: parse argument list: %w", err)
	}
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		out[e.Name] = e.value()
	}
	return out, nil
}

// Resolve reads the descriptor of the generated build in dir.
func (g *GN) Resolve(ctx context.Context, dir string) (descriptor.Descriptor, error) {
	res, err := g.run(ctx, "args", dir, "--list", "--json")
	if err != nil {
		return descriptor.Descriptor{}, err
	}
	args, err := ParseArgList(res.Stdout)
	if err != nil {
		return descriptor.Descriptor{}, err
	}
	return descriptor.Descriptor{
		CPU:      args["target_cpu"],
		TargetOS: args["target_os"],
		Sysroot:  args["target_sysroot"],
	}, nil
}

var _ descriptor.Resolver = (*GN)(nil)
