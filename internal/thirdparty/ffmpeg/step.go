package ffmpeg

import (
	"context"
	"path/filepath"

	"github.com/goplus/tpconf/internal/buildsys/autotools"
	"github.com/goplus/tpconf/internal/extract"
	"github.com/goplus/tpconf/internal/pipeline"
	"github.com/goplus/tpconf/internal/settings"
	"github.com/qiniu/x/log"
)

// Name is the step name, and the owner of every key the step writes.
const Name = "ffmpeg"

// Enabled is set to whether the step configured FFmpeg.
const Enabled = "ffmpeg_enabled"

// Libraries are the FFmpeg libraries the media player links.
var Libraries = []string{"libavcodec", "libavformat", "libavutil", "libswresample"}

// Patches lists the sources replaced by hand-maintained copies.
var Patches = extract.PatchTable{
	"libavformat/mov.c":              "ffmpeg_patch_mov_demuxer",
	"libavcodec/mpeg4video_parser.c": "ffmpeg_patch_mpeg4video_parser",
	"libavutil/log.c":                "ffmpeg_patch_av_log",
}

// SourcesKey returns the settings key holding the sources of lib.
func SourcesKey(lib string) string {
	return "ffmpeg_" + lib + "_sources"
}

// Step returns the FFmpeg configure step.
func Step() pipeline.Step {
	return pipeline.Step{Name: Name, Action: configure}
}

func configure(ctx context.Context, env pipeline.Env) (settings.Patch, error) {
	if decoder := env.Settings.String(settings.Decoder); decoder != "ffmpeg" {
		log.Warnf("ffmpeg: skipped, decoder is %s", decoder)
		return settings.Patch{Enabled: false}, nil
	}
	src := filepath.Join(env.SourceDir, "third_party", "ffmpeg")
	build := filepath.Join(env.DestDir, "third_party", "ffmpeg")

	at := autotools.New(env.Runner, src, build)
	if err := at.Configure(ctx, Flags(env.Descriptor, env.Settings)...); err != nil {
		return nil, err
	}
	db, err := at.Database(ctx)
	if err != nil {
		return nil, err
	}

	patch := settings.Patch{Enabled: true}
	flags := make(map[string]bool, len(Patches))
	for _, lib := range Libraries {
		res, err := extract.Extract(db, extract.Query{
			ObjectTarget: lib + "/" + lib + ".a",
			Base:         src,
			Dir:          build,
		}, Patches)
		if err != nil {
			return nil, err
		}
		patch[SourcesKey(lib)] = res.Sources
		extract.MergeFlags(flags, res.Flags)
		log.Debugf("ffmpeg: %s has %d sources", lib, len(res.Sources))
	}
	for flag, v := range flags {
		patch[flag] = v
	}
	return patch, nil
}
