// Package makedb reads the build descriptors generated by third-party build
// systems into a small variable/target-dependency model.
//
// Two sources are supported: the database GNU make prints with "make -p"
// (ParseMakeDB) and the compile_commands.json CMake exports
// (ParseCompileCommands).
package makedb

import (
	"bufio"
	"fmt"
	"io"
	"slices"
	"strings"
)

type flavor int

const (
	recursive flavor = iota
	simple
)

type variable struct {
	value  string
	flavor flavor
	// words, when set, is the exact word list of a variable defined with
	// SetList. Words may contain spaces.
	words []string
}

// Database is a parsed build descriptor.
type Database struct {
	vars  map[string]variable
	rules map[string][]string
}

// New returns an empty Database.
func New() *Database {
	return &Database{
		vars:  make(map[string]variable),
		rules: make(map[string][]string),
	}
}

// SetVar defines a recursively expanded variable.
func (db *Database) SetVar(name, value string) {
	db.vars[name] = variable{value: value, flavor: recursive}
}

// AddRule appends prerequisites to target, skipping duplicates.
func (db *Database) AddRule(target string, prereqs ...string) {
	cur := db.rules[target]
	for _, p := range prereqs {
		if !slices.Contains(cur, p) {
			cur = append(cur, p)
		}
	}
	db.rules[target] = cur
}

// Var returns the expanded value of name.
func (db *Database) Var(name string) (string, bool, error) {
	if _, ok := db.vars[name]; !ok {
		return "", false, nil
	}
	v, err := db.lookup(name, 0)
	if err != nil {
		return "", true, err
	}
	return v, true, nil
}

// SetList defines name as a list of words kept verbatim.
func (db *Database) SetList(name string, words []string) {
	db.vars[name] = variable{value: strings.Join(words, " "), flavor: simple, words: slices.Clone(words)}
}

// List returns the expanded value of name split into words.
func (db *Database) List(name string) ([]string, bool, error) {
	if v, ok := db.vars[name]; ok && v.words != nil {
		return slices.Clone(v.words), true, nil
	}
	v, ok, err := db.Var(name)
	if !ok || err != nil {
		return nil, ok, err
	}
	return strings.Fields(v), true, nil
}

// Prereqs returns the expanded prerequisites of target.
func (db *Database) Prereqs(target string) ([]string, bool, error) {
	deps, ok := db.rules[target]
	if !ok {
		return nil, false, nil
	}
	var out []string
	for _, d := range deps {
		if !strings.Contains(d, "$") {
			out = append(out, d)
			continue
		}
		exp, err := db.expand(d, 0)
		if err != nil {
			return nil, true, err
		}
		out = append(out, strings.Fields(exp)...)
	}
	return out, true, nil
}

// ParseMakeDB parses the output of "make -p".
//
// Only the subset needed to recover object lists is understood: variable
// assignments (=, :=, ::=, +=, ?=), define/endef blocks and explicit rules.
// Recipe lines, comments, pattern rules with order-only prerequisites and
// target-specific variables are accepted and ignored where they carry no
// dependency information.
func ParseMakeDB(r io.Reader) (*Database, error) {
	db := New()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	lineNo := 0
	next := func() (string, bool) {
		if !sc.Scan() {
			return "", false
		}
		lineNo++
		return sc.Text(), true
	}

	for {
		line, ok := next()
		if !ok {
			break
		}
		if strings.HasPrefix(line, "\t") {
			continue
		}
		for strings.HasSuffix(line, "\\") {
			cont, ok := next()
			if !ok {
				break
			}
			line = strings.TrimSuffix(line, "\\") + " " + strings.TrimSpace(cont)
		}
		line = stripComment(line)
		if strings.TrimSpace(line) == "" {
			continue
		}

		if name, ok := strings.CutPrefix(line, "define "); ok {
			name, op := defineName(name)
			var body []string
			closed := false
			for {
				l, ok := next()
				if !ok {
					break
				}
				if strings.TrimSpace(l) == "endef" {
					closed = true
					break
				}
				body = append(body, l)
			}
			if !closed {
				return nil, fmt.Errorf("makedb: line %d: define %s without endef", lineNo, name)
			}
			if err := db.assign(name, op, strings.Join(body, "\n")); err != nil {
				return nil, fmt.Errorf("makedb: line %d: %w", lineNo, err)
			}
			continue
		}

		if name, op, value, ok := splitAssign(line); ok {
			if err := db.assign(name, op, value); err != nil {
				return nil, fmt.Errorf("makedb: line %d: %w", lineNo, err)
			}
			continue
		}

		targets, prereqs, ok := splitRule(line)
		if !ok {
			// e.g. "vpath" directives and other lines without dependency info
			continue
		}
		for _, t := range targets {
			db.AddRule(t, prereqs...)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("makedb: %w", err)
	}
	return db, nil
}

func (db *Database) assign(name, op, value string) error {
	if name == "" {
		return fmt.Errorf("empty variable name")
	}
	if strings.ContainsAny(name, " \t") {
		// "override FOO = x" and "export FOO = x"
		fields := strings.Fields(name)
		name = fields[len(fields)-1]
	}
	switch op {
	case "=":
		db.vars[name] = variable{value: value, flavor: recursive}
	case ":=", "::=":
		exp, err := db.expand(value, 0)
		if err != nil {
			// kept unexpanded so the error surfaces only if name is read
			db.vars[name] = variable{value: value, flavor: recursive}
			return nil
		}
		db.vars[name] = variable{value: exp, flavor: simple}
	case "?=":
		if _, ok := db.vars[name]; !ok {
			db.vars[name] = variable{value: value, flavor: recursive}
		}
	case "+=":
		cur, ok := db.vars[name]
		if !ok {
			db.vars[name] = variable{value: value, flavor: recursive}
			return nil
		}
		if cur.flavor == simple {
			exp, err := db.expand(value, 0)
			if err != nil {
				cur.flavor = recursive
			} else {
				value = exp
			}
		}
		if cur.value != "" {
			value = cur.value + " " + value
		}
		db.vars[name] = variable{value: value, flavor: cur.flavor}
	default:
		return fmt.Errorf("unknown assignment operator %q", op)
	}
	return nil
}

// splitAssign recognizes "NAME op value" where the operator comes before any
// rule colon.
func splitAssign(line string) (name, op, value string, ok bool) {
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '=':
			op = "="
			if i > 0 {
				switch line[i-1] {
				case '+', '?':
					op = line[i-1 : i+1]
					i--
				case ':':
					op = ":="
					i--
					if i > 0 && line[i-1] == ':' {
						op = "::="
						i--
					}
				}
			}
			name = strings.TrimSpace(line[:i])
			value = strings.TrimSpace(line[i+len(op):])
			return name, op, value, true
		case ':':
			if strings.HasPrefix(line[i:], ":=") || strings.HasPrefix(line[i:], "::=") {
				continue
			}
			return "", "", "", false
		case '$':
			// skip references so "$(A:.c=.o)" is not mistaken for an operator
			if end := skipRef(line, i); end > i {
				i = end
			}
		}
	}
	return "", "", "", false
}

// splitRule splits "targets: prereqs" ignoring order-only prerequisites,
// inline recipes and target-specific variable assignments.
func splitRule(line string) (targets, prereqs []string, ok bool) {
	colon := -1
	for i := 0; i < len(line); i++ {
		if line[i] == '$' {
			if end := skipRef(line, i); end > i {
				i = end
				continue
			}
		}
		if line[i] == ':' {
			colon = i
			break
		}
	}
	if colon <= 0 {
		return nil, nil, false
	}
	targets = strings.Fields(line[:colon])
	rest := strings.TrimPrefix(line[colon+1:], ":")
	if _, _, _, isAssign := splitAssign(rest); isAssign {
		return nil, nil, false
	}
	if i := strings.IndexByte(rest, ';'); i >= 0 {
		rest = rest[:i]
	}
	if i := strings.IndexByte(rest, '|'); i >= 0 {
		rest = rest[:i]
	}
	return targets, strings.Fields(rest), len(targets) > 0
}

func defineName(s string) (name, op string) {
	s = strings.TrimSpace(s)
	for _, o := range []string{"::=", ":=", "+=", "?=", "="} {
		if n, ok := strings.CutSuffix(s, o); ok {
			return strings.TrimSpace(n), o
		}
	}
	return s, "="
}

func stripComment(line string) string {
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '\\':
			i++
		case '#':
			return line[:i]
		}
	}
	return line
}
