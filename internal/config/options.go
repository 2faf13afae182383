// Package config turns raw user options into validated, fully derived
// settings.
//
// Validation and derivation are both tables of small named rules. Every
// validation rule is evaluated and all violations are reported together;
// derivation rules run in order, later rules seeing the values written by
// earlier ones.
package config

import (
	"runtime"
	"strings"

	"github.com/goplus/tpconf/internal/descriptor"
)

// Options are the raw user options. Pointer fields distinguish "unset" from
// an explicit false or empty value.
type Options struct {
	SourceRoot string `hcl:"source_root,optional"`
	OutDir     string `hcl:"out_dir,optional"`

	Release   bool  `hcl:"release,optional"`
	UnitTests bool  `hcl:"unittests,optional"`
	Shared    *bool `hcl:"shared,optional"`
	Static    *bool `hcl:"static,optional"`

	Demo        *bool `hcl:"demo,optional"`
	AltDemo     bool  `hcl:"alt_demo,optional"`
	WithDemo    bool  `hcl:"with_demo,optional"`
	WithAltDemo bool  `hcl:"with_alt_demo,optional"`

	JSEngine   string `hcl:"js_engine,optional"`
	V8HWDebug  bool   `hcl:"v8_hw_debug,optional"`
	JSCHWDebug bool   `hcl:"jsc_hw_debug,optional"`

	MediaPlayer   *bool   `hcl:"media_player,optional"`
	Decoder       string  `hcl:"decoder,optional"`
	Containers    *string `hcl:"containers,optional"`
	Codecs        *string `hcl:"codecs,optional"`
	HWDecode      *bool   `hcl:"hw_decode,optional"`
	HWAccels      string  `hcl:"hwaccels,optional"`
	ExtraDecoders string  `hcl:"extra_decoders,optional"`

	SDLAudio *bool `hcl:"sdl_audio,optional"`
	SDLVideo *bool `hcl:"sdl_video,optional"`

	ASan  bool `hcl:"asan,optional"`
	TSan  bool `hcl:"tsan,optional"`
	UBSan bool `hcl:"ubsan,optional"`

	TargetCPU string `hcl:"target_cpu,optional"`
	TargetOS  string `hcl:"target_os,optional"`

	Plugins  []string `hcl:"plugins,optional"`
	CCache   bool     `hcl:"ccache,optional"`
	GNArgs   []string `hcl:"gn_args,optional"`
	Makefile bool     `hcl:"makefile,optional"`
	CodeSign bool     `hcl:"code_sign,optional"`
}

// Host identifies the machine running the configuration.
type Host struct {
	OS  string
	CPU string
}

// CurrentHost returns the host of the running process in GN names.
func CurrentHost() Host {
	return Host{
		OS:  descriptor.HostOS(runtime.GOOS),
		CPU: descriptor.HostCPU(runtime.GOARCH),
	}
}

// Bool returns a pointer to v, for filling tri-state options.
func Bool(v bool) *bool { return &v }

// String returns a pointer to v.
func String(v string) *string { return &v }

// Known values.
const (
	EngineV8      = "v8"
	EngineJSC     = "jsc"
	EngineQuickJS = "quickjs"

	DecoderNone            = "none"
	DecoderFFmpeg          = "ffmpeg"
	DecoderVideoToolbox    = "videotoolbox"
	DecoderMediaCodec      = "mediacodec"
	DecoderMediaFoundation = "mediafoundation"
)

var (
	knownEngines  = []string{EngineV8, EngineJSC, EngineQuickJS}
	knownDecoders = []string{DecoderNone, DecoderFFmpeg, DecoderVideoToolbox, DecoderMediaCodec, DecoderMediaFoundation}

	// nativeDecoders maps a target OS to its platform decoder.
	nativeDecoders = map[string]string{
		descriptor.OSMac:     DecoderVideoToolbox,
		descriptor.OSIOS:     DecoderVideoToolbox,
		descriptor.OSAndroid: DecoderMediaCodec,
		descriptor.OSWin:     DecoderMediaFoundation,
	}
)

// Input is what validation and derivation rules look at: the raw options
// plus the host they are evaluated on.
type Input struct {
	Options
	Host Host
}

// TargetOS returns the requested target OS, defaulting to the host OS.
func (in *Input) TargetOS() string {
	if in.Options.TargetOS != "" {
		return in.Options.TargetOS
	}
	return in.Host.OS
}

// TargetCPU returns the requested target CPU, defaulting to the host CPU.
func (in *Input) TargetCPU() string {
	if in.Options.TargetCPU != "" {
		return in.Options.TargetCPU
	}
	return in.Host.CPU
}

// Mobile reports whether the target OS is a mobile platform.
func (in *Input) Mobile() bool {
	return descriptor.IsMobileOS(in.TargetOS())
}

// Engine returns the selected JavaScript engine, choosing jsc for Apple
// targets and v8 everywhere else when none was requested.
func (in *Input) Engine() string {
	if in.JSEngine != "" {
		return in.JSEngine
	}
	if descriptor.IsApple(in.TargetOS()) {
		return EngineJSC
	}
	return EngineV8
}

// MediaPlayerDisabled reports an explicit "no media player" choice.
func (in *Input) MediaPlayerDisabled() bool {
	return in.MediaPlayer != nil && !*in.MediaPlayer
}

// DemoExplicitlyDisabled reports an explicit demo=false.
func (in *Input) DemoExplicitlyDisabled() bool {
	return in.Demo != nil && !*in.Demo
}

// DemoRequested reports any explicit demo enablement.
func (in *Input) DemoRequested() bool {
	return (in.Demo != nil && *in.Demo) || in.WithDemo || in.WithAltDemo
}

// SplitList splits a comma-separated list. Items are trimmed and empty items
// dropped, so "" and "  " both yield an empty list.
func SplitList(s string) []string {
	out := []string{}
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
