// Package extract recovers canonical source-file lists from a third-party
// tool's generated build descriptor.
package extract

import (
	"fmt"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/goplus/tpconf/internal/settings"
)

// Descriptor is the variable/target-dependency model of a generated build.
// *makedb.Database implements it.
type Descriptor interface {
	List(name string) ([]string, bool, error)
	Prereqs(target string) ([]string, bool, error)
}

// Error reports a variable or target missing from a build descriptor.
type Error struct {
	Var    string
	Target string
	Reason string
}

func (e *Error) Error() string {
	switch {
	case e.Var == "":
		return fmt.Sprintf("extract %s: %s", e.Target, e.Reason)
	case e.Target != "":
		return fmt.Sprintf("extract %s: target %s: %s", e.Var, e.Target, e.Reason)
	}
	return fmt.Sprintf("extract %s: %s", e.Var, e.Reason)
}

// Query names the object list to extract and how to rewrite its sources.
type Query struct {
	// ObjectVar is the variable holding the object list.
	ObjectVar string
	// ObjectTarget, when set instead of ObjectVar, is a target (usually a
	// library archive) whose object prerequisites form the list.
	ObjectTarget string
	// Base is the directory extracted paths are made relative to.
	Base string
	// Dir resolves relative prerequisites; empty means they are taken as is.
	Dir string
}

// Result is the outcome of one extraction.
type Result struct {
	// Sources is sorted and free of duplicates.
	Sources []string
	// Flags holds one entry per patch table flag.
	Flags map[string]bool
}

// Patch returns the settings patch writing the result under sourcesKey.
func (r *Result) Patch(sourcesKey string) settings.Patch {
	p := settings.Patch{sourcesKey: slices.Clone(r.Sources)}
	for flag, v := range r.Flags {
		p[flag] = v
	}
	return p
}

func (q Query) name() string {
	if q.ObjectTarget != "" {
		return q.ObjectTarget
	}
	return q.ObjectVar
}

var (
	sourceExts = []string{".c", ".cc", ".cpp", ".cxx", ".m", ".mm", ".S", ".s", ".asm"}
	objectExts = []string{".o", ".lo", ".obj"}
)

// IsSource reports whether p has a compilable source extension.
func IsSource(p string) bool {
	return slices.Contains(sourceExts, path.Ext(p))
}

// Extract resolves every object in q.ObjectVar to its source file, rewrites
// the paths relative to q.Base and applies table.
func Extract(db Descriptor, q Query, table PatchTable) (*Result, error) {
	objects, err := objectsOf(db, q)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(objects))
	sources := make([]string, 0, len(objects))
	for _, obj := range objects {
		src, err := sourceOf(db, q, obj)
		if err != nil {
			return nil, err
		}
		rel, err := relative(q, src)
		if err != nil {
			return nil, &Error{Var: q.name(), Target: obj, Reason: err.Error()}
		}
		if !seen[rel] {
			seen[rel] = true
			sources = append(sources, rel)
		}
	}
	slices.Sort(sources)

	sources, flags := table.Apply(sources)
	return &Result{Sources: sources, Flags: flags}, nil
}

func objectsOf(db Descriptor, q Query) ([]string, error) {
	if q.ObjectTarget == "" {
		objects, ok, err := db.List(q.ObjectVar)
		if err != nil {
			return nil, &Error{Var: q.ObjectVar, Reason: err.Error()}
		}
		if !ok {
			return nil, &Error{Var: q.ObjectVar, Reason: "variable not defined"}
		}
		return objects, nil
	}
	deps, ok, err := db.Prereqs(q.ObjectTarget)
	if err != nil {
		return nil, &Error{Target: q.ObjectTarget, Reason: err.Error()}
	}
	if !ok {
		return nil, &Error{Target: q.ObjectTarget, Reason: "target not defined"}
	}
	objects := make([]string, 0, len(deps))
	for _, d := range deps {
		if slices.Contains(objectExts, path.Ext(d)) {
			objects = append(objects, d)
		}
	}
	return objects, nil
}

func sourceOf(db Descriptor, q Query, obj string) (string, error) {
	deps, ok, err := db.Prereqs(obj)
	if err != nil {
		return "", &Error{Var: q.name(), Target: obj, Reason: err.Error()}
	}
	if !ok {
		return "", &Error{Var: q.name(), Target: obj, Reason: "no rule for object"}
	}
	for _, d := range deps {
		if IsSource(d) {
			return d, nil
		}
	}
	return "", &Error{Var: q.name(), Target: obj, Reason: "no source prerequisite"}
}

func relative(q Query, src string) (string, error) {
	if q.Dir != "" && !filepath.IsAbs(src) {
		src = filepath.Join(q.Dir, src)
	}
	if q.Base == "" {
		return filepath.ToSlash(filepath.Clean(src)), nil
	}
	rel, err := filepath.Rel(q.Base, src)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("%s is outside %s", src, q.Base)
	}
	return rel, nil
}
