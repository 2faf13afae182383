// Package settings holds the derived configuration shared by every stage of
// a configure run.
//
// Keys are append-only: a stage may add keys and overwrite the keys it wrote
// itself, but it can never remove a key or take over one written by another
// stage.
package settings

import (
	"fmt"
	"slices"
	"sort"
)

// Patch is a set of key/value writes produced by one stage.
// Values must be bool, string or []string.
type Patch map[string]any

// View is a read-only view of the settings handed to configure steps.
type View interface {
	Has(key string) bool
	Bool(key string) bool
	String(key string) string
	List(key string) []string
	Keys() []string
	Get(key string) (any, bool)
}

// OwnershipError reports a write to a key owned by another stage.
type OwnershipError struct {
	Key   string
	Owner string
	Stage string
}

func (e *OwnershipError) Error() string {
	return fmt.Sprintf("settings: %s cannot overwrite %q owned by %s", e.Stage, e.Key, e.Owner)
}

// Settings is the derived settings map of one invocation.
type Settings struct {
	values map[string]any
	owners map[string]string
}

// New returns an empty Settings.
func New() *Settings {
	return &Settings{
		values: make(map[string]any),
		owners: make(map[string]string),
	}
}

// Apply merges patch into s on behalf of stage. The patch is checked as a
// whole before anything is written, so a rejected patch leaves s unchanged.
func (s *Settings) Apply(stage string, patch Patch) error {
	if stage == "" {
		return fmt.Errorf("settings: empty stage name")
	}
	for k, v := range patch {
		if k == "" {
			return fmt.Errorf("settings: %s wrote an empty key", stage)
		}
		if err := checkValue(v); err != nil {
			return fmt.Errorf("settings: %s: key %q: %w", stage, k, err)
		}
		if owner, ok := s.owners[k]; ok && owner != stage {
			return &OwnershipError{Key: k, Owner: owner, Stage: stage}
		}
	}
	for k, v := range patch {
		if l, ok := v.([]string); ok {
			v = slices.Clone(l)
		}
		s.values[k] = v
		s.owners[k] = stage
	}
	return nil
}

// Owner returns the stage that wrote key.
func (s *Settings) Owner(key string) (string, bool) {
	owner, ok := s.owners[key]
	return owner, ok
}

func (s *Settings) Has(key string) bool {
	_, ok := s.values[key]
	return ok
}

func (s *Settings) Get(key string) (any, bool) {
	v, ok := s.values[key]
	if l, isList := v.([]string); isList {
		return slices.Clone(l), ok
	}
	return v, ok
}

// Bool returns the bool stored under key, or false.
func (s *Settings) Bool(key string) bool {
	b, _ := s.values[key].(bool)
	return b
}

// String returns the string stored under key, or "".
func (s *Settings) String(key string) string {
	str, _ := s.values[key].(string)
	return str
}

// List returns a copy of the list stored under key, or nil.
func (s *Settings) List(key string) []string {
	l, _ := s.values[key].([]string)
	return slices.Clone(l)
}

// Keys returns all keys in sorted order.
func (s *Settings) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func checkValue(v any) error {
	switch v.(type) {
	case bool, string, []string:
		return nil
	}
	return fmt.Errorf("unsupported value type %T", v)
}
