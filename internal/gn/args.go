// Package gn drives the GN build-graph generator: the bootstrap build that
// reports the cross-compile descriptor, the args.gn file carrying the final
// settings, and regeneration.
package gn

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goplus/tpconf/internal/settings"
)

// ArgsFile is the name of the arguments file in a build directory.
const ArgsFile = "args.gn"

// skipped keys are GN builtins describing the machine running GN.
var skipped = map[string]bool{
	settings.HostOS:  true,
	settings.HostCPU: true,
}

// Quote returns s as a GN string literal.
func Quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"', '\\', '$':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return b.String()
}

// Unquote parses a GN literal as reported by "gn args --json". Anything
// that is not a string literal is returned unchanged.
func Unquote(v string) string {
	v = strings.TrimSpace(v)
	if len(v) < 2 || v[0] != '"' || v[len(v)-1] != '"' {
		return v
	}
	var b strings.Builder
	body := v[1 : len(v)-1]
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c == '\\' && i+1 < len(body) {
			switch body[i+1] {
			case '"', '\\', '$':
				i++
				c = body[i]
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

// Value renders a settings value as a GN expression.
func Value(v any) (string, error) {
	switch v := v.(type) {
	case bool:
		if v {
			return "true", nil
		}
		return "false", nil
	case string:
		return Quote(v), nil
	case []string:
		if len(v) == 0 {
			return "[]", nil
		}
		items := make([]string, len(v))
		for i, s := range v {
			items[i] = Quote(s)
		}
		return "[ " + strings.Join(items, ", ") + " ]", nil
	}
	return "", fmt.Errorf("gn: cannot render %T", v)
}

// Arg is a raw "name=value" GN assignment given on the command line.
type Arg struct {
	Name  string
	Value string
}

// ParseArgs splits raw assignments. The value is kept verbatim.
func ParseArgs(raw []string) ([]Arg, error) {
	args := make([]Arg, 0, len(raw))
	for _, a := range raw {
		name, value, ok := strings.Cut(a, "=")
		name, value = strings.TrimSpace(name), strings.TrimSpace(value)
		if !ok || name == "" || value == "" {
			return nil, fmt.Errorf("gn: invalid argument %q, want name=value", a)
		}
		args = append(args, Arg{Name: name, Value: value})
	}
	return args, nil
}

// FormatArgs renders the settings sorted by key, with extra assignments
// replacing settings of the same name.
func FormatArgs(s settings.View, extra []Arg) ([]byte, error) {
	lines := map[string]string{}
	for _, k := range s.Keys() {
		if skipped[k] {
			continue
		}
		v, _ := s.Get(k)
		expr, err := Value(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		lines[k] = expr
	}
	for _, a := range extra {
		lines[a.Name] = a.Value
	}
	keys := make([]string, 0, len(lines))
	for k := range lines {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteString("# Generated by tpconf. Edits are lost on the next configure.\n")
	for _, k := range keys {
		fmt.Fprintf(&buf, "%s = %s\n", k, lines[k])
	}
	return buf.Bytes(), nil
}

// WriteArgs writes dir/args.gn.
func WriteArgs(dir string, s settings.View, extra []Arg) error {
	data, err := FormatArgs(s, extra)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, ArgsFile), data, 0o644)
}
