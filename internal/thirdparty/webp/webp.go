// Package webp configures libwebp through its CMake build.
package webp

import (
	"context"
	"path/filepath"

	"github.com/goplus/tpconf/internal/buildsys/cmake"
	"github.com/goplus/tpconf/internal/extract"
	"github.com/goplus/tpconf/internal/pipeline"
	"github.com/goplus/tpconf/internal/settings"
	"github.com/qiniu/x/log"
)

const (
	Name       = "libwebp"
	SourcesKey = "webp_sources"
	objectVar  = "WEBP_OBJECTS"
)

// Patches lists the sources replaced by hand-maintained copies.
var Patches = extract.PatchTable{
	"dsp/cpu.c": "webp_patch_cpu",
}

// BuildType returns the CMAKE_BUILD_TYPE of the settings.
func BuildType(s settings.View) string {
	if s.Bool(settings.IsDebug) {
		return "Debug"
	}
	return "Release"
}

// Defines returns the libwebp cache entries for the settings. The target
// system comes from the descriptor through the cmake helper.
func Defines(s settings.View) map[string]string {
	defs := map[string]string{
		"BUILD_SHARED_LIBS":     "OFF",
		"WEBP_BUILD_ANIM_UTILS": "OFF",
		"WEBP_BUILD_CWEBP":      "OFF",
		"WEBP_BUILD_DWEBP":      "OFF",
		"WEBP_BUILD_GIF2WEBP":   "OFF",
		"WEBP_BUILD_IMG2WEBP":   "OFF",
		"WEBP_BUILD_VWEBP":      "OFF",
		"WEBP_BUILD_WEBPINFO":   "OFF",
		"WEBP_BUILD_WEBPMUX":    "OFF",
		"WEBP_BUILD_EXTRAS":     "OFF",
	}
	if s.Bool(settings.BuildShared) {
		defs["BUILD_SHARED_LIBS"] = "ON"
	}
	if cc := s.String(settings.CCWrapper); cc != "" {
		defs["CMAKE_C_COMPILER_LAUNCHER"] = cc
	}
	return defs
}

// Step returns the libwebp configure step.
func Step() pipeline.Step {
	return pipeline.Step{Name: Name, Action: configure}
}

func configure(ctx context.Context, env pipeline.Env) (settings.Patch, error) {
	src := filepath.Join(env.SourceDir, "third_party", "libwebp")
	build := filepath.Join(env.DestDir, "third_party", "libwebp")

	c := cmake.New(env.Runner, src, build).
		Cross(env.Descriptor).
		BuildType(BuildType(env.Settings))
	for k, v := range Defines(env.Settings) {
		c.Define(k, v)
	}
	if err := c.Configure(ctx); err != nil {
		return nil, err
	}
	db, err := c.Database(objectVar)
	if err != nil {
		return nil, err
	}
	res, err := extract.Extract(db, extract.Query{
		ObjectVar: objectVar,
		Base:      filepath.Join(src, "src"),
	}, Patches)
	if err != nil {
		return nil, err
	}
	log.Debugf("libwebp: %d sources", len(res.Sources))
	return res.Patch(SourcesKey), nil
}
