package config

import (
	"errors"
	"path/filepath"
	"slices"
	"testing"

	"github.com/goplus/tpconf/internal/settings"
)

var linuxHost = Host{OS: "linux", CPU: "x64"}
var macHost = Host{OS: "mac", CPU: "arm64"}

// base returns options that pass validation on any host.
func base(t *testing.T) Options {
	root := t.TempDir()
	return Options{
		SourceRoot: root,
		OutDir:     filepath.Join(root, "out", "Default"),
	}
}

func derive(t *testing.T, opts Options, host Host) *settings.Settings {
	t.Helper()
	s, err := Derive(opts, host)
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}
	return s
}

func TestDeriveEndToEnd(t *testing.T) {
	opts := base(t)
	opts.Release = true
	opts.SDLAudio = Bool(false)
	opts.SDLVideo = Bool(false)
	opts.Demo = Bool(false)

	s := derive(t, opts, linuxHost)
	for key, want := range map[string]bool{
		settings.IsDebug:    false,
		settings.SDLAudio:   false,
		settings.SDLVideo:   false,
		settings.EnableDemo: false,
	} {
		if got := s.Bool(key); got != want {
			t.Errorf("%s = %v, want %v", key, got, want)
		}
	}
	if owner, _ := s.Owner(settings.IsDebug); owner != settings.DeriveStage {
		t.Errorf("owner = %q", owner)
	}
}

func TestDeriveDefaults(t *testing.T) {
	s := derive(t, base(t), linuxHost)

	if !s.Bool(settings.IsDebug) {
		t.Error("debug should be the default build type")
	}
	if !s.Bool(settings.BuildShared) || !s.Bool(settings.BuildStatic) {
		t.Error("shared and static should default to enabled")
	}
	if got := s.String(settings.JSEngine); got != EngineV8 {
		t.Errorf("js_engine = %q, want v8", got)
	}
	if got := s.String(settings.Decoder); got != DecoderFFmpeg {
		t.Errorf("decoder = %q, want ffmpeg", got)
	}
	if !s.Bool(settings.SDLAudio) || !s.Bool(settings.SDLVideo) {
		t.Error("sdl should default to enabled on desktop")
	}
	if !s.Bool(settings.EnableDemo) || !s.Bool(settings.HasMediaPlayer) {
		t.Error("demo and media player should default to enabled")
	}
	if got := s.String(settings.TargetOS); got != "linux" {
		t.Errorf("target_os = %q", got)
	}
	if got := s.String(settings.TargetCPU); got != "x64" {
		t.Errorf("target_cpu = %q", got)
	}
	if !slices.Equal(s.List(settings.Containers), desktopContainers) {
		t.Errorf("containers = %v", s.List(settings.Containers))
	}
	if !s.Bool(settings.HWDecode) {
		t.Error("hardware decoding should default to on with the ffmpeg decoder")
	}
	if !s.Has(settings.PluginPaths) || len(s.List(settings.PluginPaths)) != 0 {
		t.Errorf("plugin_paths = %v, want empty", s.List(settings.PluginPaths))
	}
}

func TestDeriveJSEngine(t *testing.T) {
	tests := []struct {
		name   string
		host   Host
		target string
		engine string
		want   string
	}{
		{"linux default", linuxHost, "", "", EngineV8},
		{"mac default", macHost, "", "", EngineJSC},
		{"ios default", macHost, "ios", "", EngineJSC},
		{"android from mac", macHost, "android", "", EngineV8},
		{"explicit", macHost, "", EngineQuickJS, EngineQuickJS},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := base(t)
			opts.TargetOS = tt.target
			opts.JSEngine = tt.engine
			s := derive(t, opts, tt.host)
			if got := s.String(settings.JSEngine); got != tt.want {
				t.Errorf("js_engine = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDeriveSDLDefaults(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		altDemo bool
		want    bool
	}{
		{"desktop", "", false, true},
		{"mobile", "android", false, false},
		{"mobile alt demo", "android", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := base(t)
			opts.TargetOS = tt.target
			opts.AltDemo = tt.altDemo
			s := derive(t, opts, linuxHost)
			if s.Bool(settings.SDLAudio) != tt.want || s.Bool(settings.SDLVideo) != tt.want {
				t.Errorf("sdl audio/video = %v/%v, want %v", s.Bool(settings.SDLAudio), s.Bool(settings.SDLVideo), tt.want)
			}
		})
	}
}

func TestDeriveDecoder(t *testing.T) {
	tests := []struct {
		name   string
		host   Host
		target string
		want   string
	}{
		{"linux", linuxHost, "", DecoderFFmpeg},
		{"mac native", macHost, "", DecoderVideoToolbox},
		{"ios cross", macHost, "ios", DecoderFFmpeg},
		{"android cross", linuxHost, "android", DecoderFFmpeg},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := base(t)
			opts.TargetOS = tt.target
			s := derive(t, opts, tt.host)
			if got := s.String(settings.Decoder); got != tt.want {
				t.Errorf("decoder = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDeriveMobileLists(t *testing.T) {
	opts := base(t)
	opts.TargetOS = "android"
	opts.TargetCPU = "arm64"
	s := derive(t, opts, linuxHost)
	if !slices.Equal(s.List(settings.Containers), mobileContainers) {
		t.Errorf("containers = %v", s.List(settings.Containers))
	}
	if !slices.Equal(s.List(settings.Codecs), mobileCodecs) {
		t.Errorf("codecs = %v", s.List(settings.Codecs))
	}
}

func TestDeriveExplicitLists(t *testing.T) {
	opts := base(t)
	opts.Containers = String(" mov , ogg,,")
	opts.Codecs = String("   ")
	opts.HWAccels = "vaapi, vdpau"
	s := derive(t, opts, linuxHost)
	if got := s.List(settings.Containers); !slices.Equal(got, []string{"mov", "ogg"}) {
		t.Errorf("containers = %v", got)
	}
	if got := s.List(settings.Codecs); len(got) != 0 {
		t.Errorf("codecs = %v, want empty", got)
	}
	if got := s.List(settings.HWAccels); !slices.Equal(got, []string{"vaapi", "vdpau"}) {
		t.Errorf("hwaccels = %v", got)
	}
}

func TestDeriveHWDecodeGatedByDecoder(t *testing.T) {
	opts := base(t)
	opts.HWDecode = Bool(true)
	if s := derive(t, opts, linuxHost); !s.Bool(settings.HWDecode) {
		t.Error("hw decode should be enabled with the ffmpeg decoder")
	}
	opts.Decoder = DecoderNone
	if s := derive(t, opts, linuxHost); s.Bool(settings.HWDecode) {
		t.Error("hw decode should be disabled without the ffmpeg decoder")
	}
}

func TestDeriveNoMediaPlayerOverrides(t *testing.T) {
	hosts := []Host{linuxHost, macHost}
	targets := []string{"", "android"}
	for _, host := range hosts {
		for _, target := range targets {
			for _, sdl := range []*bool{nil, Bool(true)} {
				opts := base(t)
				opts.TargetOS = target
				opts.MediaPlayer = Bool(false)
				opts.SDLAudio = sdl
				opts.SDLVideo = sdl
				opts.HWDecode = Bool(true)
				s := derive(t, opts, host)
				if got := s.String(settings.Decoder); got != DecoderNone {
					t.Errorf("%v/%s: decoder = %q, want none", host, target, got)
				}
				if s.Bool(settings.SDLAudio) || s.Bool(settings.SDLVideo) {
					t.Errorf("%v/%s: sdl should be forced off", host, target)
				}
				if s.Bool(settings.EnableDemo) || s.Bool(settings.HWDecode) {
					t.Errorf("%v/%s: demo and hw decode should be forced off", host, target)
				}
				if s.Bool(settings.HasMediaPlayer) {
					t.Errorf("%v/%s: has_media_player should be false", host, target)
				}
			}
		}
	}
}

func TestDeriveDemoShortcuts(t *testing.T) {
	opts := base(t)
	opts.TargetOS = "android"
	opts.WithAltDemo = true
	s := derive(t, opts, linuxHost)
	if !s.Bool(settings.EnableDemo) || !s.Bool(settings.EnableAltDemo) {
		t.Error("with-alt-demo should enable the demo and the alternate demo")
	}
	if !s.Bool(settings.SDLAudio) {
		t.Error("the alternate demo keeps sdl enabled on mobile")
	}
}

func TestDeriveToolchain(t *testing.T) {
	opts := base(t)
	opts.CCache = true
	opts.Plugins = []string{"/plugins/a"}
	opts.CodeSign = true
	s := derive(t, opts, linuxHost)
	if got := s.String(settings.CCWrapper); got != "ccache" {
		t.Errorf("cc_wrapper = %q", got)
	}
	if got := s.List(settings.PluginPaths); !slices.Equal(got, []string{"/plugins/a"}) {
		t.Errorf("plugin_paths = %v", got)
	}
	if !s.Bool(settings.CodeSign) {
		t.Error("code signing should be enabled")
	}
}

func TestDeriveRejectsInvalid(t *testing.T) {
	opts := base(t)
	opts.Shared = Bool(false)
	opts.Static = Bool(false)
	_, err := Derive(opts, linuxHost)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Derive() error = %v, want *ValidationError", err)
	}
	if !verr.Has("library-output") {
		t.Errorf("violations = %v", verr.Violations)
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{}},
		{"   ", []string{}},
		{"mov", []string{"mov"}},
		{"mov,h264", []string{"mov", "h264"}},
		{" mov ,, h264 ,", []string{"mov", "h264"}},
	}
	for _, tt := range tests {
		got := SplitList(tt.in)
		if got == nil || !slices.Equal(got, tt.want) {
			t.Errorf("SplitList(%q) = %#v, want %#v", tt.in, got, tt.want)
		}
	}
}
