package extract

import "slices"

// PatchTable maps a relative source path to the flag signalling that a
// hand-maintained replacement is used instead of the extracted file.
type PatchTable map[string]string

// Flags returns the table's flag names in sorted order.
func (t PatchTable) Flags() []string {
	flags := make([]string, 0, len(t))
	for _, f := range t {
		if !slices.Contains(flags, f) {
			flags = append(flags, f)
		}
	}
	slices.Sort(flags)
	return flags
}

// Apply removes every table path from sources and reports which flags
// matched. Every flag of the table is present in the returned map.
func (t PatchTable) Apply(sources []string) ([]string, map[string]bool) {
	flags := make(map[string]bool, len(t))
	for _, f := range t {
		flags[f] = false
	}
	out := make([]string, 0, len(sources))
	for _, s := range sources {
		if f, ok := t[s]; ok {
			flags[f] = true
			continue
		}
		out = append(out, s)
	}
	return out, flags
}

// MergeFlags ORs src into dst.
func MergeFlags(dst, src map[string]bool) {
	for k, v := range src {
		dst[k] = dst[k] || v
	}
}
