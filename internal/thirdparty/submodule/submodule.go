// Package submodule fetches the third-party sources tracked as git submodules.
package submodule

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goplus/tpconf/internal/pipeline"
	"github.com/goplus/tpconf/internal/settings"
	"github.com/goplus/tpconf/internal/toolexec"
	"github.com/qiniu/x/log"
)

// Name is the step name.
const Name = "submodules"

// Module is a submodule path relative to the source root. Needed, when set,
// reports whether the configuration uses the module at all.
type Module struct {
	Path   string
	Needed func(s settings.View) bool
}

// Modules are the submodules the configure steps read.
var Modules = []Module{
	{Path: "third_party/ffmpeg", Needed: func(s settings.View) bool { return s.String(settings.Decoder) == "ffmpeg" }},
	{Path: "third_party/sdl", Needed: func(s settings.View) bool { return s.Bool(settings.SDLAudio) || s.Bool(settings.SDLVideo) }},
	{Path: "third_party/libwebp"},
}

// Step returns a step fetching every needed module that is not checked out.
// It writes no settings.
func Step(modules ...Module) pipeline.Step {
	return pipeline.Step{Name: Name, Action: func(ctx context.Context, env pipeline.Env) (settings.Patch, error) {
		for _, m := range modules {
			if m.Needed != nil && !m.Needed(env.Settings) {
				continue
			}
			if err := Ensure(ctx, env.Runner, env.SourceDir, m.Path); err != nil {
				return nil, err
			}
		}
		return nil, nil
	}}
}

// Ensure runs "git submodule update" for path unless it is already checked
// out, which is taken to mean the directory has any entry.
func Ensure(ctx context.Context, r *toolexec.Runner, root, path string) error {
	if checkedOut(filepath.Join(root, path)) {
		return nil
	}
	log.Infof("fetching submodule %s", path)
	_, err := r.Run(ctx, toolexec.Cmd{
		Name: "git",
		Args: []string{"submodule", "update", "--init", "--depth", "1", path},
		Dir:  root,
	})
	if err != nil {
		return fmt.Errorf("fetch submodule %s: %w", path, err)
	}
	if !checkedOut(filepath.Join(root, path)) {
		return fmt.Errorf("fetch submodule %s: still missing after update", path)
	}
	return nil
}

func checkedOut(dir string) bool {
	entries, err := os.ReadDir(dir)
	return err == nil && len(entries) > 0
}
