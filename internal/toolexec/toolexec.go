// Package toolexec runs external tools and classifies their failures.
//
// Every configure step and the GN integration go through Runner, so a missing
// executable always surfaces as *NotFoundError and a failing process always
// surfaces as *ExecError carrying the captured output.
package toolexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/qiniu/x/log"
	"golang.org/x/sys/execabs"
)

// NotFoundError reports a required executable that cannot be found.
type NotFoundError struct {
	Tool string
	Err  error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("tool %s not found: %v", e.Tool, e.Err)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// ExecError reports a tool process that did not exit successfully.
type ExecError struct {
	Tool     string
	Args     []string
	ExitCode int
	Stdout   []byte
	Stderr   []byte
	Err      error
}

func (e *ExecError) Error() string {
	msg := fmt.Sprintf("%s exited with status %d", e.Tool, e.ExitCode)
	if out := tail(e.Stderr, 20); out != "" {
		msg += ":\n" + out
	} else if out := tail(e.Stdout, 20); out != "" {
		msg += ":\n" + out
	}
	return msg
}

func (e *ExecError) Unwrap() error { return e.Err }

// Cmd describes one tool invocation.
type Cmd struct {
	Name string
	Args []string
	Dir  string
	Env  map[string]string
}

func (c Cmd) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Result holds the captured output of a successful invocation.
type Result struct {
	Stdout []byte
	Stderr []byte
}

// Runner executes tools with a shared environment overlay.
type Runner struct {
	// Env is merged over the process environment for every command.
	Env map[string]string

	// Stdout and Stderr, when set, receive tool output as it is produced.
	// Output is captured either way.
	Stdout io.Writer
	Stderr io.Writer

	lookPath func(file string) (string, error)
}

// New returns a Runner with the given environment overlay.
func New(env map[string]string) *Runner {
	return &Runner{Env: env}
}

// Verbose makes the runner stream tool output to w in addition to capturing it.
func (r *Runner) Verbose(w io.Writer) *Runner {
	r.Stdout = w
	r.Stderr = w
	return r
}

// LookPath resolves name the same way Run does.
func (r *Runner) LookPath(name string) (string, error) {
	lookPath := r.lookPath
	if lookPath == nil {
		lookPath = execabs.LookPath
	}
	path, err := lookPath(name)
	if err != nil {
		return "", &NotFoundError{Tool: name, Err: err}
	}
	return path, nil
}

// Run executes c and waits for it to finish.
func (r *Runner) Run(ctx context.Context, c Cmd) (*Result, error) {
	path, err := r.LookPath(c.Name)
	if err != nil {
		return nil, err
	}
	log.Debugf("run: %s (dir %s)", c, c.Dir)

	cmd := execabs.CommandContext(ctx, path, c.Args...)
	cmd.Dir = c.Dir
	if len(r.Env) > 0 || len(c.Env) > 0 {
		cmd.Env = mergeEnv(os.Environ(), r.Env, c.Env)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = writer(&stdout, r.Stdout)
	cmd.Stderr = writer(&stderr, r.Stderr)

	if err := cmd.Run(); err != nil {
		code := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		return nil, &ExecError{
			Tool:     c.Name,
			Args:     c.Args,
			ExitCode: code,
			Stdout:   stdout.Bytes(),
			Stderr:   stderr.Bytes(),
			Err:      err,
		}
	}
	return &Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}, nil
}

func writer(buf *bytes.Buffer, stream io.Writer) io.Writer {
	if stream == nil {
		return buf
	}
	return io.MultiWriter(buf, stream)
}

// mergeEnv returns base with every key in overrides replaced or appended.
// Later overrides win. The result is sorted so command lines are reproducible.
func mergeEnv(base []string, overrides ...map[string]string) []string {
	envMap := make(map[string]string, len(base))
	for _, kv := range base {
		if k, v, ok := strings.Cut(kv, "="); ok {
			envMap[k] = v
		}
	}
	for _, o := range overrides {
		for k, v := range o {
			envMap[k] = v
		}
	}
	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+envMap[k])
	}
	return out
}

// tail returns the last n lines of out, trimmed.
func tail(out []byte, n int) string {
	s := strings.TrimSpace(string(out))
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
