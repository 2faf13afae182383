// Package sdl configures SDL, the UI toolkit of the demo applications.
package sdl

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/goplus/tpconf/internal/buildsys"
	"github.com/goplus/tpconf/internal/buildsys/autotools"
	"github.com/goplus/tpconf/internal/extract"
	"github.com/goplus/tpconf/internal/pipeline"
	"github.com/goplus/tpconf/internal/settings"
	"github.com/qiniu/x/log"
)

const (
	Name       = "sdl"
	SourcesKey = "sdl_sources"
	ObjectVar  = "OBJECTS"
)

// Patches lists the sources replaced by hand-maintained copies.
var Patches = extract.PatchTable{
	"dynapi/SDL_dynapi.c": "sdl_patch_dynapi",
}

// Flags translates the derived settings into configure flags. The host
// triple and sysroot come from the descriptor through the autotools helper.
func Flags(s settings.View) []string {
	flags := []string{
		autotools.Enable("audio", s.Bool(settings.SDLAudio)),
		autotools.Enable("video", s.Bool(settings.SDLVideo)),
	}
	if s.Bool(settings.IsDebug) {
		flags = append(flags, "--enable-assertions=enabled")
	} else {
		flags = append(flags, "--enable-assertions=release")
	}
	return append(flags,
		autotools.Enable("shared", s.Bool(settings.BuildShared)),
		autotools.Enable("static", s.Bool(settings.BuildStatic)),
	)
}

// Step returns the SDL configure step.
func Step() pipeline.Step {
	return pipeline.Step{Name: Name, Action: configure}
}

func configure(ctx context.Context, env pipeline.Env) (settings.Patch, error) {
	if !env.Settings.Bool(settings.SDLAudio) && !env.Settings.Bool(settings.SDLVideo) {
		log.Warnf("sdl: skipped, audio and video are disabled")
		return nil, nil
	}
	src := filepath.Join(env.SourceDir, "third_party", "sdl")
	build := filepath.Join(env.DestDir, "third_party", "sdl")

	at := autotools.New(env.Runner, src, build)
	if err := at.Cross(env.Descriptor); err != nil {
		return nil, fmt.Errorf("sdl: %w", err)
	}
	buildsys.CompilerWrapper(at, env.Settings.String(settings.CCWrapper))
	if err := at.Configure(ctx, Flags(env.Settings)...); err != nil {
		return nil, err
	}
	db, err := at.Database(ctx)
	if err != nil {
		return nil, err
	}
	res, err := extract.Extract(db, extract.Query{
		ObjectVar: ObjectVar,
		Base:      filepath.Join(src, "src"),
		Dir:       build,
	}, Patches)
	if err != nil {
		return nil, err
	}
	log.Debugf("sdl: %d sources", len(res.Sources))
	return res.Patch(SourcesKey), nil
}
