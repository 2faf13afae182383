package extract

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/goplus/tpconf/internal/makedb"
)

func newDB(objects string, rules map[string][]string) *makedb.Database {
	db := makedb.New()
	db.SetVar("OBJECTS", objects)
	for target, deps := range rules {
		db.AddRule(target, deps...)
	}
	return db
}

func TestExtractRelativeToBase(t *testing.T) {
	db := newDB("Foo.lo Bar.lo", map[string][]string{
		"Foo.lo": {"src/audio/Foo.c", "include/Foo.h"},
		"Bar.lo": {"src/audio/Bar.c"},
	})
	res, err := Extract(db, Query{ObjectVar: "OBJECTS", Base: "src"}, nil)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	got := slices.Clone(res.Sources)
	slices.Sort(got)
	if want := []string{"audio/Bar.c", "audio/Foo.c"}; !slices.Equal(got, want) {
		t.Errorf("Sources = %v, want %v", got, want)
	}
}

func TestExtractDeduplicates(t *testing.T) {
	db := newDB("a.o b.o a.o", map[string][]string{
		"a.o": {"src/x.c"},
		"b.o": {"src/x.c"},
	})
	res, err := Extract(db, Query{ObjectVar: "OBJECTS", Base: "src"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(res.Sources, []string{"x.c"}) {
		t.Errorf("Sources = %v", res.Sources)
	}
}

func TestExtractSkipsNonSourcePrereqs(t *testing.T) {
	db := newDB("a.o", map[string][]string{
		"a.o": {"config.h", "gen/version.h", "src/dsp/a.S"},
	})
	res, err := Extract(db, Query{ObjectVar: "OBJECTS", Base: "src"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(res.Sources, []string{"dsp/a.S"}) {
		t.Errorf("Sources = %v", res.Sources)
	}
}

func TestExtractDir(t *testing.T) {
	db := newDB("a.o", map[string][]string{"a.o": {"../../src/lib/a.c"}})
	res, err := Extract(db, Query{ObjectVar: "OBJECTS", Base: "/work/src/lib", Dir: "/work/out/lib"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(res.Sources, []string{"a.c"}) {
		t.Errorf("Sources = %v", res.Sources)
	}
}

func TestExtractErrors(t *testing.T) {
	tests := []struct {
		name string
		db   *makedb.Database
		want string
	}{
		{"missing var", makedb.New(), "variable not defined"},
		{"missing rule", newDB("a.o", nil), "no rule for object"},
		{"no source", newDB("a.o", map[string][]string{"a.o": {"a.h"}}), "no source prerequisite"},
		{"outside base", newDB("a.o", map[string][]string{"a.o": {"other/a.c"}}), "outside"},
		{"unsupported function", func() *makedb.Database {
			db := makedb.New()
			db.SetVar("OBJECTS", "$(foreach s,a b,$(s).o)")
			return db
		}(), "unsupported make function"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Extract(tt.db, Query{ObjectVar: "OBJECTS", Base: "src"}, nil)
			var eerr *Error
			if !errors.As(err, &eerr) {
				t.Fatalf("Extract() error = %v, want *Error", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestPatchTableApply(t *testing.T) {
	table := PatchTable{
		"audio/Foo.c": "patch_foo",
		"video/Baz.c": "patch_baz",
	}

	db := newDB("Foo.lo Bar.lo", map[string][]string{
		"Foo.lo": {"src/audio/Foo.c"},
		"Bar.lo": {"src/audio/Bar.c"},
	})
	res, err := Extract(db, Query{ObjectVar: "OBJECTS", Base: "src"}, table)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(res.Sources, []string{"audio/Bar.c"}) {
		t.Errorf("Sources = %v, patched file should be removed", res.Sources)
	}
	if !res.Flags["patch_foo"] {
		t.Error("patch_foo should be true")
	}
	v, ok := res.Flags["patch_baz"]
	if !ok || v {
		t.Errorf("patch_baz = %v, %v, want present and false", v, ok)
	}
}

func TestPatchTableFlags(t *testing.T) {
	table := PatchTable{"b.c": "y", "a.c": "x", "c.c": "x"}
	if got := table.Flags(); !slices.Equal(got, []string{"x", "y"}) {
		t.Errorf("Flags() = %v", got)
	}
}

func TestMergeFlags(t *testing.T) {
	dst := map[string]bool{"a": false, "b": true}
	MergeFlags(dst, map[string]bool{"a": true, "b": false, "c": false})
	if !dst["a"] || !dst["b"] || dst["c"] {
		t.Errorf("MergeFlags = %v", dst)
	}
	if _, ok := dst["c"]; !ok {
		t.Error("c should be present")
	}
}

func TestResultPatch(t *testing.T) {
	r := &Result{Sources: []string{"a.c"}, Flags: map[string]bool{"p": true}}
	p := r.Patch("lib_sources")
	if l, _ := p["lib_sources"].([]string); !slices.Equal(l, []string{"a.c"}) {
		t.Errorf("lib_sources = %v", p["lib_sources"])
	}
	if p["p"] != true {
		t.Errorf("p = %v", p["p"])
	}
}

func TestExtractObjectTarget(t *testing.T) {
	db := makedb.New()
	db.AddRule("libavformat/libavformat.a", "libavformat/mov.o", "libavformat/utils.o", "config.h")
	db.AddRule("libavformat/mov.o", "src/libavformat/mov.c", "src/libavformat/isom.h")
	db.AddRule("libavformat/utils.o", "src/libavformat/utils.c")

	table := PatchTable{"libavformat/mov.c": "ffmpeg_patch_mov_demuxer"}
	res, err := Extract(db, Query{ObjectTarget: "libavformat/libavformat.a", Base: "/w/src", Dir: "/w"}, table)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(res.Sources, []string{"libavformat/utils.c"}) {
		t.Errorf("Sources = %v", res.Sources)
	}
	if !res.Flags["ffmpeg_patch_mov_demuxer"] {
		t.Errorf("Flags = %v", res.Flags)
	}

	_, err = Extract(db, Query{ObjectTarget: "libavcodec/libavcodec.a"}, nil)
	var eerr *Error
	if !errors.As(err, &eerr) || !strings.Contains(err.Error(), "target not defined") {
		t.Fatalf("Extract() error = %v", err)
	}
}
