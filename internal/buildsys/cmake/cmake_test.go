package cmake

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"testing"

	"github.com/goplus/tpconf/internal/descriptor"
	"github.com/goplus/tpconf/internal/toolexec"
)

func TestConfigureArgs(t *testing.T) {
	c := New(toolexec.New(nil), "/src/libwebp", "/out/webp")
	c.BuildType("Release")
	c.Define("FOO", "BAR").DefineBool("WEBP_BUILD_CWEBP", false)
	c.Cross(descriptor.Descriptor{CPU: "arm64", TargetOS: "android", Sysroot: "/ndk/sysroot"})

	got := c.ConfigureArgs("--log-level=WARNING")
	want := []string{
		"-S", "/src/libwebp", "-B", "/out/webp",
		"-DCMAKE_BUILD_TYPE:STRING=Release",
		"-DCMAKE_EXPORT_COMPILE_COMMANDS:BOOL=ON",
		"-DCMAKE_SYSROOT:STRING=/ndk/sysroot",
		"-DCMAKE_SYSTEM_NAME:STRING=Android",
		"-DCMAKE_SYSTEM_PROCESSOR:STRING=aarch64",
		"-DFOO:STRING=BAR",
		"-DWEBP_BUILD_CWEBP:BOOL=OFF",
		"--log-level=WARNING",
	}
	if !slices.Equal(got, want) {
		t.Errorf("ConfigureArgs() =\n%v\nwant\n%v", got, want)
	}
}

func TestConfigureArgsLeavesDefines(t *testing.T) {
	c := New(toolexec.New(nil), "src", "build").BuildType("Debug").Define("FOO", "BAR")
	first := c.ConfigureArgs()
	if len(c.Defines) != 1 {
		t.Errorf("Defines = %v, want only FOO", c.Defines)
	}
	if second := c.ConfigureArgs(); !slices.Equal(first, second) {
		t.Errorf("ConfigureArgs() changed between calls:\n%v\n%v", first, second)
	}
	c.BuildType("Release")
	if got := c.ConfigureArgs(); slices.Contains(got, "-DCMAKE_BUILD_TYPE:STRING=Debug") {
		t.Errorf("ConfigureArgs() = %v, kept the old build type", got)
	}
}

func TestCrossWithoutSysroot(t *testing.T) {
	c := New(toolexec.New(nil), "src", "build").Cross(descriptor.Descriptor{CPU: "x64", TargetOS: "mac"})
	if _, ok := c.Defines["CMAKE_SYSROOT"]; ok {
		t.Error("CMAKE_SYSROOT should not be defined without a sysroot")
	}
	if got := c.Defines["CMAKE_SYSTEM_NAME"].value; got != "Darwin" {
		t.Errorf("CMAKE_SYSTEM_NAME = %q", got)
	}
}

// fakeCMake puts a cmake script on PATH that reports version and writes a
// compile database into the -B directory.
func fakeCMake(t *testing.T, version string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script tools are not supported on windows")
	}
	bin := t.TempDir()
	script := `#!/bin/sh
if [ "$1" = "--version" ]; then echo "cmake version ` + version + `"; exit 0; fi
while [ $# -gt 0 ]; do
  if [ "$1" = "-B" ]; then out="$2"; fi
  if [ "$1" = "-S" ]; then src="$2"; fi
  shift
done
cat > "$out/compile_commands.json" <<EOF
[{"directory": "$out", "file": "$src/src/dsp/cpu.c", "command": "cc -o CMakeFiles/webp.dir/src/dsp/cpu.c.o -c $src/src/dsp/cpu.c"}]
EOF
`
	if err := os.WriteFile(filepath.Join(bin, "cmake"), []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PATH", bin+string(os.PathListSeparator)+os.Getenv("PATH"))
}

func TestConfigureAndDatabase(t *testing.T) {
	fakeCMake(t, "3.28.1")
	tmp := t.TempDir()
	src := filepath.Join(tmp, "libwebp")
	build := filepath.Join(tmp, "out", "webp")

	c := New(toolexec.New(nil), src, build)
	if err := c.Configure(context.Background()); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
	db, err := c.Database("OBJECTS")
	if err != nil {
		t.Fatalf("Database() error = %v", err)
	}
	objs, ok, _ := db.List("OBJECTS")
	if !ok || len(objs) != 1 || !strings.HasSuffix(objs[0], "cpu.c.o") {
		t.Fatalf("OBJECTS = %v", objs)
	}
}

func TestConfigureTooOld(t *testing.T) {
	fakeCMake(t, "3.10.2")
	c := New(toolexec.New(nil), t.TempDir(), filepath.Join(t.TempDir(), "b"))
	err := c.Configure(context.Background())
	var verr *toolexec.VersionError
	if !errors.As(err, &verr) {
		t.Fatalf("Configure() error = %v, want *VersionError", err)
	}
}

func TestDatabaseMissing(t *testing.T) {
	c := New(toolexec.New(nil), "src", t.TempDir())
	if _, err := c.Database("OBJECTS"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Database() error = %v, want not exist", err)
	}
}

func TestDefinesArgsSorted(t *testing.T) {
	c := New(toolexec.New(nil), "src", "build")
	c.Define("B", "2").Define("A", "1").DefineBool("C", true)
	got := definesArgs(c.Defines)
	want := []string{"-DA:STRING=1", "-DB:STRING=2", "-DC:BOOL=ON"}
	if !slices.Equal(got, want) {
		t.Errorf("definesArgs() = %v, want %v", got, want)
	}
}
