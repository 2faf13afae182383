package makedb

import (
	"fmt"
	"path"
	"slices"
	"strings"
)

const maxDepth = 64

// skipRef returns the index of the last byte of the variable reference that
// starts at s[i] ('$'), or i when s[i] does not start a reference.
func skipRef(s string, i int) int {
	if i+1 >= len(s) {
		return i
	}
	switch s[i+1] {
	case '(', '{':
		if end := matchClose(s, i+1); end > 0 {
			return end
		}
		return i
	}
	return i + 1
}

// matchClose returns the index of the bracket closing s[open].
func matchClose(s string, open int) int {
	o, c := s[open], byte(')')
	if o == '{' {
		c = '}'
	}
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case o:
			depth++
		case c:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func (db *Database) lookup(name string, depth int) (string, error) {
	v, ok := db.vars[name]
	if !ok {
		return "", nil
	}
	if v.flavor == simple {
		return v.value, nil
	}
	return db.expand(v.value, depth+1)
}

// expand performs make-style variable expansion of s.
func (db *Database) expand(s string, depth int) (string, error) {
	if depth > maxDepth {
		return "", fmt.Errorf("variable expansion too deep (recursive reference?)")
	}
	if !strings.Contains(s, "$") {
		return s, nil
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '$' || i+1 >= len(s) {
			b.WriteByte(s[i])
			continue
		}
		switch s[i+1] {
		case '$':
			b.WriteByte('$')
			i++
		case '(', '{':
			end := matchClose(s, i+1)
			if end < 0 {
				b.WriteString(s[i:])
				return b.String(), nil
			}
			val, err := db.expandRef(s[i+2:end], depth)
			if err != nil {
				return "", err
			}
			b.WriteString(val)
			i = end
		default:
			val, err := db.lookup(s[i+1:i+2], depth)
			if err != nil {
				return "", err
			}
			b.WriteString(val)
			i++
		}
	}
	return b.String(), nil
}

type makeFunc func(db *Database, args []string, depth int) (string, error)

var funcs map[string]makeFunc

func init() {
	funcs = map[string]makeFunc{
		"addprefix": func(db *Database, args []string, depth int) (string, error) {
			return mapWords(db, args, depth, 2, func(w string, a []string) string { return a[0] + w })
		},
		"addsuffix": func(db *Database, args []string, depth int) (string, error) {
			return mapWords(db, args, depth, 2, func(w string, a []string) string { return w + a[0] })
		},
		"patsubst": func(db *Database, args []string, depth int) (string, error) {
			return mapWords(db, args, depth, 3, func(w string, a []string) string { return patsubst(a[0], a[1], w) })
		},
		"notdir": func(db *Database, args []string, depth int) (string, error) {
			return mapWords(db, args, depth, 1, func(w string, _ []string) string { return path.Base(w) })
		},
		"strip": func(db *Database, args []string, depth int) (string, error) {
			return mapWords(db, args, depth, 1, func(w string, _ []string) string { return w })
		},
		"sort": func(db *Database, args []string, depth int) (string, error) {
			s, err := mapWords(db, args, depth, 1, func(w string, _ []string) string { return w })
			if err != nil {
				return "", err
			}
			words := strings.Fields(s)
			slices.Sort(words)
			return strings.Join(slices.Compact(words), " "), nil
		},
		"dir": func(db *Database, args []string, depth int) (string, error) {
			return mapWords(db, args, depth, 1, func(w string, _ []string) string {
				if i := strings.LastIndexByte(w, '/'); i >= 0 {
					return w[:i+1]
				}
				return "./"
			})
		},
		"basename": func(db *Database, args []string, depth int) (string, error) {
			return mapWords(db, args, depth, 1, func(w string, _ []string) string {
				return strings.TrimSuffix(w, path.Ext(w))
			})
		},
		"subst": func(db *Database, args []string, depth int) (string, error) {
			exp, err := expandArgs(db, args, depth, 3)
			if err != nil {
				return "", fmt.Errorf("subst: %w", err)
			}
			return strings.ReplaceAll(exp[2], exp[0], exp[1]), nil
		},
		"filter": func(db *Database, args []string, depth int) (string, error) {
			return filterWords(db, args, depth, true)
		},
		"filter-out": func(db *Database, args []string, depth int) (string, error) {
			return filterWords(db, args, depth, false)
		},
	}
}

// filterWords keeps the words matching one of the patterns when keep is
// set, and the others otherwise.
func filterWords(db *Database, args []string, depth int, keep bool) (string, error) {
	exp, err := expandArgs(db, args, depth, 2)
	if err != nil {
		return "", err
	}
	var out []string
	for _, w := range strings.Fields(exp[1]) {
		matched := false
		for _, p := range strings.Fields(exp[0]) {
			if _, ok := matchPattern(p, w); ok {
				matched = true
				break
			}
		}
		if matched == keep {
			out = append(out, w)
		}
	}
	return strings.Join(out, " "), nil
}

func expandArgs(db *Database, args []string, depth, want int) ([]string, error) {
	if len(args) != want {
		return nil, fmt.Errorf("want %d arguments, got %d", want, len(args))
	}
	exp := make([]string, len(args))
	for i, a := range args {
		v, err := db.expand(a, depth+1)
		if err != nil {
			return nil, err
		}
		exp[i] = v
	}
	return exp, nil
}

// expandRef expands the inside of "$(...)".
func (db *Database) expandRef(ref string, depth int) (string, error) {
	if i := strings.IndexAny(ref, " \t"); i > 0 {
		name, rest := ref[:i], strings.TrimLeft(ref[i:], " \t")
		if fn, known := funcs[name]; known {
			return fn(db, splitArgs(rest), depth)
		}
		if !strings.Contains(name, "$") {
			return "", fmt.Errorf("unsupported make function %q", name)
		}
	}
	name, err := db.expand(ref, depth+1)
	if err != nil {
		return "", err
	}
	// substitution reference: $(VAR:from=to)
	if v, subst, ok := strings.Cut(name, ":"); ok {
		if from, to, ok := strings.Cut(subst, "="); ok {
			val, err := db.lookup(v, depth)
			if err != nil {
				return "", err
			}
			if !strings.Contains(from, "%") {
				from, to = "%"+from, "%"+to
			}
			words := strings.Fields(val)
			for i, w := range words {
				words[i] = patsubst(from, to, w)
			}
			return strings.Join(words, " "), nil
		}
	}
	return db.lookup(name, depth)
}

func mapWords(db *Database, args []string, depth, want int, f func(w string, a []string) string) (string, error) {
	exp, err := expandArgs(db, args, depth, want)
	if err != nil {
		return "", err
	}
	words := strings.Fields(exp[len(exp)-1])
	for i, w := range words {
		words[i] = f(w, exp[:len(exp)-1])
	}
	return strings.Join(words, " "), nil
}

// splitArgs splits function arguments on top-level commas.
func splitArgs(s string) []string {
	var args []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '{':
			depth++
		case ')', '}':
			depth--
		case ',':
			if depth == 0 {
				args = append(args, s[start:i])
				start = i + 1
			}
		}
	}
	return append(args, s[start:])
}

func matchPattern(pattern, word string) (stem string, ok bool) {
	prefix, suffix, hasPct := strings.Cut(pattern, "%")
	if !hasPct {
		return "", pattern == word
	}
	if len(word) < len(prefix)+len(suffix) || !strings.HasPrefix(word, prefix) || !strings.HasSuffix(word, suffix) {
		return "", false
	}
	return word[len(prefix) : len(word)-len(suffix)], true
}

func patsubst(pattern, replacement, word string) string {
	stem, ok := matchPattern(pattern, word)
	if !ok {
		return word
	}
	if !strings.Contains(pattern, "%") {
		return replacement
	}
	return strings.Replace(replacement, "%", stem, 1)
}
