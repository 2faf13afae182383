package internal

import (
	"os"
	"path/filepath"

	"github.com/goplus/tpconf/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Flag values. They only reach the options when the flag was given, so an
// options file is not overridden by flag defaults.
var (
	optionsFile string
	sourceRoot  string
	outDir      string
	makefile    bool

	release, unitTests, shared, static   bool
	demo, altDemo, withDemo, withAltDemo bool

	jsEngine, decoder       string
	containers, codecs      string
	hwAccels, extraDecoders string
	v8HWDebug, jscHWDebug   bool
	mediaPlayer, hwDecode   bool
	sdlAudio, sdlVideo      bool
	asan, tsan, ubsan       bool

	targetCPU, targetOS string
	plugins, gnArgs     []string
	ccache, codeSign    bool
)

// addDirFlags registers the flags shared by configure and recover.
func addDirFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&sourceRoot, "source", "s", "", "Source root (default: current directory)")
	fs.StringVarP(&outDir, "out", "o", "", "Build directory (default: <source>/out/Default)")
	fs.BoolVar(&makefile, "makefile", false, "Write a Makefile forwarding to ninja into the build directory")
}

func addOptionFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&optionsFile, "options-file", "f", "", "HCL file with default options")

	fs.BoolVar(&release, "release", false, "Release build")
	fs.BoolVar(&unitTests, "unittests", false, "Build unit tests")
	fs.BoolVar(&shared, "shared", true, "Build shared libraries")
	fs.BoolVar(&static, "static", true, "Build static libraries")

	fs.BoolVar(&demo, "demo", true, "Build the demo application")
	fs.BoolVar(&altDemo, "alt-demo", false, "Build the alternate demo application")
	fs.BoolVar(&withDemo, "with-demo", false, "Enable the demo and every feature it needs")
	fs.BoolVar(&withAltDemo, "with-alt-demo", false, "Enable the alternate demo and every feature it needs")

	fs.StringVar(&jsEngine, "js-engine", "", "JavaScript engine: v8, jsc or quickjs")
	fs.BoolVar(&v8HWDebug, "v8-hw-debug", false, "Enable V8 debugging in release builds")
	fs.BoolVar(&jscHWDebug, "jsc-hw-debug", false, "Enable JavaScriptCore debugging in release builds")

	fs.BoolVar(&mediaPlayer, "media-player", true, "Build the media player")
	fs.StringVar(&decoder, "decoder", "", "Media decoder: none, ffmpeg, videotoolbox, mediacodec or mediafoundation")
	fs.StringVar(&containers, "containers", "", "Comma-separated FFmpeg demuxers")
	fs.StringVar(&codecs, "codecs", "", "Comma-separated FFmpeg decoders")
	fs.BoolVar(&hwDecode, "hw-decode", true, "Enable FFmpeg hardware decoding (ffmpeg decoder only)")
	fs.StringVar(&hwAccels, "hwaccels", "", "Comma-separated FFmpeg hardware accelerators")
	fs.StringVar(&extraDecoders, "extra-decoders", "", "Comma-separated FFmpeg hardware decoders")

	fs.BoolVar(&sdlAudio, "sdl-audio", true, "Enable SDL audio (off by default on android and ios unless the alternate demo is built)")
	fs.BoolVar(&sdlVideo, "sdl-video", true, "Enable SDL video (off by default on android and ios unless the alternate demo is built)")

	fs.BoolVar(&asan, "asan", false, "Build with AddressSanitizer")
	fs.BoolVar(&tsan, "tsan", false, "Build with ThreadSanitizer")
	fs.BoolVar(&ubsan, "ubsan", false, "Build with UndefinedBehaviorSanitizer")

	fs.StringVar(&targetCPU, "target-cpu", "", "Target CPU: x86, x64, arm or arm64")
	fs.StringVar(&targetOS, "target-os", "", "Target OS: linux, android, mac, ios or win")

	fs.StringArrayVar(&plugins, "plugin", nil, "Plugin directory (repeatable)")
	fs.BoolVar(&ccache, "ccache", false, "Compile through ccache")
	fs.StringArrayVar(&gnArgs, "gn-arg", nil, "Raw GN assignment name=value (repeatable)")
	fs.BoolVar(&codeSign, "code-sign", false, "Enable code signing")
}

// loadOptions builds the options of cmd: defaults, then the options file,
// then every flag given explicitly.
func loadOptions(cmd *cobra.Command, host config.Host) (config.Options, error) {
	var opts config.Options
	if optionsFile != "" {
		var err error
		if opts, err = config.LoadFile(optionsFile, host); err != nil {
			return opts, err
		}
	}
	fs := cmd.Flags()
	set := func(name string, apply func()) {
		if f := fs.Lookup(name); f != nil && f.Changed {
			apply()
		}
	}
	set("source", func() { opts.SourceRoot = sourceRoot })
	set("out", func() { opts.OutDir = outDir })
	set("makefile", func() { opts.Makefile = makefile })

	set("release", func() { opts.Release = release })
	set("unittests", func() { opts.UnitTests = unitTests })
	set("shared", func() { opts.Shared = config.Bool(shared) })
	set("static", func() { opts.Static = config.Bool(static) })

	set("demo", func() { opts.Demo = config.Bool(demo) })
	set("alt-demo", func() { opts.AltDemo = altDemo })
	set("with-demo", func() { opts.WithDemo = withDemo })
	set("with-alt-demo", func() { opts.WithAltDemo = withAltDemo })

	set("js-engine", func() { opts.JSEngine = jsEngine })
	set("v8-hw-debug", func() { opts.V8HWDebug = v8HWDebug })
	set("jsc-hw-debug", func() { opts.JSCHWDebug = jscHWDebug })

	set("media-player", func() { opts.MediaPlayer = config.Bool(mediaPlayer) })
	set("decoder", func() { opts.Decoder = decoder })
	set("containers", func() { opts.Containers = config.String(containers) })
	set("codecs", func() { opts.Codecs = config.String(codecs) })
	set("hw-decode", func() { opts.HWDecode = config.Bool(hwDecode) })
	set("hwaccels", func() { opts.HWAccels = hwAccels })
	set("extra-decoders", func() { opts.ExtraDecoders = extraDecoders })

	set("sdl-audio", func() { opts.SDLAudio = config.Bool(sdlAudio) })
	set("sdl-video", func() { opts.SDLVideo = config.Bool(sdlVideo) })

	set("asan", func() { opts.ASan = asan })
	set("tsan", func() { opts.TSan = tsan })
	set("ubsan", func() { opts.UBSan = ubsan })

	set("target-cpu", func() { opts.TargetCPU = targetCPU })
	set("target-os", func() { opts.TargetOS = targetOS })

	set("plugin", func() { opts.Plugins = append(opts.Plugins, plugins...) })
	set("ccache", func() { opts.CCache = ccache })
	set("gn-arg", func() { opts.GNArgs = append(opts.GNArgs, gnArgs...) })
	set("code-sign", func() { opts.CodeSign = codeSign })

	return opts, resolveDirs(&opts)
}

// resolveDirs fills in the default directories and makes both absolute.
func resolveDirs(opts *config.Options) error {
	if opts.SourceRoot == "" {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		opts.SourceRoot = wd
	}
	src, err := filepath.Abs(opts.SourceRoot)
	if err != nil {
		return err
	}
	opts.SourceRoot = src
	if opts.OutDir == "" {
		opts.OutDir = filepath.Join(src, "out", "Default")
	}
	out, err := filepath.Abs(opts.OutDir)
	if err != nil {
		return err
	}
	opts.OutDir = out
	return nil
}
