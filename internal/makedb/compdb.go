package makedb

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// compileCommand is one entry of a JSON compilation database.
type compileCommand struct {
	Directory string   `json:"directory"`
	File      string   `json:"file"`
	Output    string   `json:"output"`
	Command   string   `json:"command"`
	Arguments []string `json:"arguments"`
}

// ParseCompileCommands reads a compile_commands.json into a Database.
// Every object file is listed in objectVar and gets a rule whose only
// prerequisite is its source file, matching the shape "make -p" produces.
// Relative paths are resolved against each entry's directory.
func ParseCompileCommands(r io.Reader, objectVar string) (*Database, error) {
	var entries []compileCommand
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("makedb: compile commands: %w", err)
	}
	db := New()
	var objects []string
	for i, e := range entries {
		if e.File == "" {
			return nil, fmt.Errorf("makedb: compile commands: entry %d has no file", i)
		}
		out := e.Output
		if out == "" {
			out = outputFromArgs(e.args())
		}
		if out == "" {
			return nil, fmt.Errorf("makedb: compile commands: entry %d (%s) has no output", i, e.File)
		}
		out = e.abs(out)
		objects = append(objects, filepath.ToSlash(out))
		db.AddRule(filepath.ToSlash(out), filepath.ToSlash(e.abs(e.File)))
	}
	db.SetList(objectVar, objects)
	return db, nil
}

func (e compileCommand) args() []string {
	if len(e.Arguments) > 0 {
		return e.Arguments
	}
	return strings.Fields(e.Command)
}

func (e compileCommand) abs(p string) string {
	if filepath.IsAbs(p) || e.Directory == "" {
		return filepath.Clean(p)
	}
	return filepath.Join(e.Directory, p)
}

func outputFromArgs(args []string) string {
	for i, a := range args {
		switch {
		case a == "-o" && i+1 < len(args):
			return args[i+1]
		case strings.HasPrefix(a, "/Fo"):
			return strings.TrimPrefix(a, "/Fo")
		}
	}
	return ""
}
