package config

import (
	"slices"

	"github.com/goplus/tpconf/internal/settings"
)

// Derivation fills part of the derived settings. Rules run in order on the
// same patch, so a rule may read what earlier rules wrote.
type Derivation struct {
	Name  string
	Apply func(in *Input, p settings.Patch)
}

// Derivations is the ordered list of derivation rules.
var Derivations = []Derivation{
	{"build-type", deriveBuildType},
	{"library-output", deriveLibraryOutput},
	{"platform", derivePlatform},
	{"js-engine", deriveJSEngine},
	{"sdl", deriveSDL},
	{"decoder", deriveDecoder},
	{"demo", deriveDemo},
	{"ffmpeg-lists", deriveFFmpegLists},
	{"hw-decode", deriveHWDecode},
	// must stay after every rule it overrides
	{"media-player", deriveMediaPlayer},
	{"toolchain", deriveToolchain},
}

var (
	desktopContainers = []string{"mov", "matroska", "mp3", "ogg", "wav", "flac", "aac"}
	desktopCodecs     = []string{"h264", "hevc", "vp8", "vp9", "aac", "mp3", "opus", "vorbis", "flac"}
	mobileContainers  = []string{"mov", "mp3", "aac"}
	mobileCodecs      = []string{"h264", "aac", "mp3"}
)

// Derive validates opts on host and returns the derived settings.
// A *ValidationError is returned when any validation rule fails.
func Derive(opts Options, host Host) (*settings.Settings, error) {
	in := &Input{Options: opts, Host: host}
	if err := Validate(in); err != nil {
		return nil, err
	}
	s := settings.New()
	if err := s.Apply(settings.DeriveStage, DerivePatch(in)); err != nil {
		return nil, err
	}
	return s, nil
}

// DerivePatch runs every derivation rule without validating in first.
func DerivePatch(in *Input) settings.Patch {
	p := settings.Patch{}
	for _, d := range Derivations {
		d.Apply(in, p)
	}
	return p
}

func orDefault(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func deriveBuildType(in *Input, p settings.Patch) {
	p[settings.IsDebug] = !in.Release
	p[settings.IsASan] = in.ASan
	p[settings.IsTSan] = in.TSan
	p[settings.IsUBSan] = in.UBSan
	p[settings.EnableUnitTest] = in.UnitTests
}

func deriveLibraryOutput(in *Input, p settings.Patch) {
	p[settings.BuildShared] = orDefault(in.Shared, true)
	p[settings.BuildStatic] = orDefault(in.Static, true)
}

func derivePlatform(in *Input, p settings.Patch) {
	p[settings.TargetOS] = in.TargetOS()
	p[settings.TargetCPU] = in.TargetCPU()
	p[settings.HostOS] = in.Host.OS
	p[settings.HostCPU] = in.Host.CPU
}

func deriveJSEngine(in *Input, p settings.Patch) {
	p[settings.JSEngine] = in.Engine()
	p[settings.V8HWDebug] = in.V8HWDebug
	p[settings.JSCHWDebug] = in.JSCHWDebug
}

func deriveSDL(in *Input, p settings.Patch) {
	def := !in.Mobile() || in.AltDemo || in.WithAltDemo
	p[settings.SDLAudio] = orDefault(in.SDLAudio, def)
	p[settings.SDLVideo] = orDefault(in.SDLVideo, def)
}

func deriveDecoder(in *Input, p settings.Patch) {
	if in.Decoder != "" {
		p[settings.Decoder] = in.Decoder
		return
	}
	target := in.TargetOS()
	if native, ok := nativeDecoders[target]; ok && target == in.Host.OS {
		p[settings.Decoder] = native
		return
	}
	p[settings.Decoder] = DecoderFFmpeg
}

func deriveDemo(in *Input, p settings.Patch) {
	demo := orDefault(in.Demo, true)
	if in.WithDemo || in.WithAltDemo {
		demo = true
	}
	p[settings.EnableDemo] = demo
	p[settings.EnableAltDemo] = in.AltDemo || in.WithAltDemo
}

func deriveFFmpegLists(in *Input, p settings.Patch) {
	containers, codecs := desktopContainers, desktopCodecs
	if in.Mobile() {
		containers, codecs = mobileContainers, mobileCodecs
	}
	if in.Containers != nil {
		containers = SplitList(*in.Containers)
	}
	if in.Codecs != nil {
		codecs = SplitList(*in.Codecs)
	}
	p[settings.Containers] = slices.Clone(containers)
	p[settings.Codecs] = slices.Clone(codecs)
	p[settings.HWAccels] = SplitList(in.HWAccels)
	p[settings.ExtraDecoders] = SplitList(in.ExtraDecoders)
}

func deriveHWDecode(in *Input, p settings.Patch) {
	p[settings.HWDecode] = orDefault(in.HWDecode, true) && p[settings.Decoder] == DecoderFFmpeg
}

// deriveMediaPlayer overrides, rather than defaults, everything the media
// player needs.
func deriveMediaPlayer(in *Input, p settings.Patch) {
	has := !in.MediaPlayerDisabled()
	p[settings.HasMediaPlayer] = has
	if has {
		return
	}
	p[settings.Decoder] = DecoderNone
	p[settings.SDLAudio] = false
	p[settings.SDLVideo] = false
	p[settings.EnableDemo] = false
	p[settings.HWDecode] = false
}

func deriveToolchain(in *Input, p settings.Patch) {
	wrapper := ""
	if in.CCache {
		wrapper = "ccache"
	}
	p[settings.CCWrapper] = wrapper
	p[settings.PluginPaths] = slices.Clone(in.Plugins)
	if in.Plugins == nil {
		p[settings.PluginPaths] = []string{}
	}
	p[settings.CodeSign] = in.CodeSign
}
