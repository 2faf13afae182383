package gn

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/goplus/tpconf/internal/descriptor"
	"github.com/goplus/tpconf/internal/settings"
	"github.com/goplus/tpconf/internal/toolexec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func view(t *testing.T, p settings.Patch) *settings.Settings {
	t.Helper()
	s := settings.New()
	require.NoError(t, s.Apply(settings.DeriveStage, p))
	return s
}

func TestQuoteUnquote(t *testing.T) {
	tests := []struct{ raw, quoted string }{
		{"x64", `"x64"`},
		{`a"b`, `"a\"b"`},
		{`C:\sdk`, `"C:\\sdk"`},
		{"$HOME", `"\$HOME"`},
		{"", `""`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.quoted, Quote(tt.raw))
		assert.Equal(t, tt.raw, Unquote(tt.quoted))
	}
	assert.Equal(t, "true", Unquote("true"))
	assert.Equal(t, "42", Unquote(" 42 "))
}

func TestValue(t *testing.T) {
	for in, want := range map[any]string{true: "true", false: "false", "v8": `"v8"`} {
		got, err := Value(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	got, err := Value([]string{"mov", "ogg"})
	require.NoError(t, err)
	assert.Equal(t, `[ "mov", "ogg" ]`, got)
	got, err = Value([]string{})
	require.NoError(t, err)
	assert.Equal(t, "[]", got)
	_, err = Value(3)
	assert.Error(t, err)
}

func TestFormatArgs(t *testing.T) {
	s := view(t, settings.Patch{
		settings.IsDebug:    false,
		settings.JSEngine:   "v8",
		settings.Containers: []string{"mov"},
		settings.HostOS:     "linux",
		settings.HostCPU:    "x64",
		settings.TargetOS:   "linux",
	})
	extra, err := ParseArgs([]string{"use_lld=true", "target_os=\"android\""})
	require.NoError(t, err)
	data, err := FormatArgs(s, extra)
	require.NoError(t, err)
	want := `# Generated by tpconf. Edits are lost on the next configure.
ffmpeg_containers = [ "mov" ]
is_debug = false
js_engine = "v8"
target_os = "android"
use_lld = true
`
	assert.Equal(t, want, string(data))
}

func TestParseArgsInvalid(t *testing.T) {
	for _, raw := range []string{"use_lld", "=true", "use_lld="} {
		_, err := ParseArgs([]string{raw})
		assert.Error(t, err, raw)
	}
}

func TestWriteArgs(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out", "Default")
	require.NoError(t, WriteArgs(dir, view(t, settings.Patch{settings.IsDebug: true}), nil))
	data, err := os.ReadFile(filepath.Join(dir, ArgsFile))
	require.NoError(t, err)
	assert.Contains(t, string(data), "is_debug = true\n")
}

const argList = `[
 {"name": "is_debug", "current": {"value": "false", "file": "//out/args.gn", "line": 1}, "default": {"value": "true"}},
 {"name": "target_cpu", "current": {"value": "\"arm64\""}, "default": {"value": "\"\""}},
 {"name": "target_os", "default": {"value": "\"android\""}},
 {"name": "target_sysroot", "default": {"value": "\"/ndk/sysroot\""}},
 {"name": "use_lld"}
]`

func TestParseArgList(t *testing.T) {
	args, err := ParseArgList([]byte(argList))
	require.NoError(t, err)
	assert.Equal(t, "false", args["is_debug"])
	assert.Equal(t, "arm64", args["target_cpu"])
	assert.Equal(t, "android", args["target_os"])
	assert.Equal(t, "/ndk/sysroot", args["target_sysroot"])
	assert.Equal(t, "", args["use_lld"])

	_, err = ParseArgList([]byte("not json"))
	assert.Error(t, err)
}

func TestBootstrapArgs(t *testing.T) {
	s := view(t, settings.Patch{settings.TargetCPU: "arm64", settings.TargetOS: "android", settings.IsDebug: true})
	got := BootstrapArgs(s, []Arg{{Name: "use_lld", Value: "true"}})
	assert.Equal(t, `target_cpu="arm64" target_os="android" use_lld=true`, got)
}

// fakeGN puts a gn script on PATH answering "args --list --json" with
// argList and logging every invocation.
func fakeGN(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script tools are not supported on windows")
	}
	bin := t.TempDir()
	log := filepath.Join(bin, "gn.log")
	script := "#!/bin/sh\necho \"$@\" >> " + log + "\nif [ \"$1\" = args ]; then cat <<'EOF'\n" + argList + "\nEOF\nfi\n"
	require.NoError(t, os.WriteFile(filepath.Join(bin, "gn"), []byte(script), 0o755))
	t.Setenv("PATH", bin+string(os.PathListSeparator)+os.Getenv("PATH"))
	return log
}

func TestBootstrapAndResolve(t *testing.T) {
	log := fakeGN(t)
	g := &GN{Runner: toolexec.New(nil), Root: "/src"}
	s := view(t, settings.Patch{settings.TargetCPU: "arm64", settings.TargetOS: "android"})

	require.NoError(t, g.Bootstrap(context.Background(), "/out", s, nil))
	d, err := g.Resolve(context.Background(), "/out")
	require.NoError(t, err)
	assert.Equal(t, descriptor.Descriptor{CPU: "arm64", TargetOS: "android", Sysroot: "/ndk/sysroot"}, d)

	data, err := os.ReadFile(log)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `gen /out --args=target_cpu="arm64" target_os="android" --root=/src`, lines[0])
	assert.Equal(t, "args /out --list --json --root=/src", lines[1])
}

func TestGenRequiresArgs(t *testing.T) {
	log := fakeGN(t)
	g := &GN{Runner: toolexec.New(nil)}
	dir := t.TempDir()
	assert.Error(t, g.Gen(context.Background(), dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, ArgsFile), nil, 0o644))
	require.NoError(t, g.Gen(context.Background(), dir, "--ide=vs"))
	data, err := os.ReadFile(log)
	require.NoError(t, err)
	assert.Equal(t, "gen "+dir+" --ide=vs\n", string(data))
}
