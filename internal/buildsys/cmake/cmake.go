// Package cmake configures CMake projects and reads back their compile
// database.
package cmake

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/goplus/tpconf/internal/buildsys"
	"github.com/goplus/tpconf/internal/descriptor"
	"github.com/goplus/tpconf/internal/makedb"
	"github.com/goplus/tpconf/internal/toolexec"
)

// MinVersion is the oldest cmake able to export a compile database for
// every generator used here.
const MinVersion = "v3.16"

type defineValue struct {
	value    string
	typeName string
}

// CMake wraps cmake configuration with chainable setters.
type CMake struct {
	runner    *toolexec.Runner
	SourceDir string
	buildDir  string
	buildType string
	Defines   map[string]defineValue
	env       map[string]string
}

var _ buildsys.BuildSystem = (*CMake)(nil)

// New returns a helper configuring sourceDir in buildDir.
func New(runner *toolexec.Runner, sourceDir, buildDir string) *CMake {
	return &CMake{
		runner:    runner,
		SourceDir: sourceDir,
		buildDir:  buildDir,
		Defines:   map[string]defineValue{},
		env:       map[string]string{},
	}
}

// BuildType sets CMAKE_BUILD_TYPE.
func (c *CMake) BuildType(name string) *CMake {
	c.buildType = name
	return c
}

func (c *CMake) Define(key, value string) *CMake {
	if c.Defines == nil {
		c.Defines = map[string]defineValue{}
	}
	c.Defines[key] = defineValue{value: value, typeName: "STRING"}
	return c
}

func (c *CMake) DefineBool(key string, value bool) *CMake {
	if c.Defines == nil {
		c.Defines = map[string]defineValue{}
	}
	if value {
		c.Defines[key] = defineValue{value: "ON", typeName: "BOOL"}
		return c
	}
	c.Defines[key] = defineValue{value: "OFF", typeName: "BOOL"}
	return c
}

// Cross defines the target system of d.
func (c *CMake) Cross(d descriptor.Descriptor) *CMake {
	c.Define("CMAKE_SYSTEM_NAME", buildsys.SystemName(d.TargetOS))
	c.Define("CMAKE_SYSTEM_PROCESSOR", buildsys.Processor(d.CPU))
	if d.Sysroot != "" {
		c.Define("CMAKE_SYSROOT", d.Sysroot)
	}
	return c
}

func (c *CMake) Env(key, value string) {
	if c.env == nil {
		c.env = map[string]string{}
	}
	c.env[key] = value
}

// ConfigureArgs returns the full cmake command line Configure runs.
// It does not change c.
func (c *CMake) ConfigureArgs(args ...string) []string {
	defs := make(map[string]defineValue, len(c.Defines)+2)
	for k, v := range c.Defines {
		defs[k] = v
	}
	if c.buildType != "" {
		defs["CMAKE_BUILD_TYPE"] = defineValue{value: c.buildType, typeName: "STRING"}
	}
	defs["CMAKE_EXPORT_COMPILE_COMMANDS"] = defineValue{value: "ON", typeName: "BOOL"}

	cmakeArgs := append([]string{"-S", c.SourceDir, "-B", c.buildDir}, definesArgs(defs)...)
	return append(cmakeArgs, args...)
}

// Configure checks the cmake version and generates the build.
func (c *CMake) Configure(ctx context.Context, args ...string) error {
	if err := os.MkdirAll(c.buildDir, 0o755); err != nil {
		return err
	}
	if _, err := c.runner.RequireVersion(ctx, "cmake", MinVersion); err != nil {
		return err
	}
	_, err := c.runner.Run(ctx, toolexec.Cmd{
		Name: "cmake",
		Args: c.ConfigureArgs(args...),
		Env:  c.env,
	})
	return err
}

// CompileCommands returns the path of the exported compile database.
func (c *CMake) CompileCommands() string {
	return filepath.Join(c.buildDir, "compile_commands.json")
}

// Database reads the compile database, listing every object under objectVar.
func (c *CMake) Database(objectVar string) (*makedb.Database, error) {
	f, err := os.Open(c.CompileCommands())
	if err != nil {
		return nil, err
	}
	defer f.Close()
	db, err := makedb.ParseCompileCommands(f, objectVar)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", c.CompileCommands(), err)
	}
	return db, nil
}

func definesArgs(defs map[string]defineValue) []string {
	if len(defs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(defs))
	for k := range defs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	args := make([]string, 0, len(keys))
	for _, k := range keys {
		def := defs[k]
		if def.typeName != "" {
			args = append(args, "-D"+k+":"+def.typeName+"="+def.value)
			continue
		}
		args = append(args, "-D"+k+"="+def.value)
	}
	return args
}
