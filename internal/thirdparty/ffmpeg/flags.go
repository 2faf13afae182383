// Package ffmpeg configures the FFmpeg libraries for the media player.
package ffmpeg

import (
	"slices"

	"github.com/goplus/tpconf/internal/buildsys/autotools"
	"github.com/goplus/tpconf/internal/descriptor"
	"github.com/goplus/tpconf/internal/settings"
)

var baseline = []string{
	"--disable-everything",
	"--disable-programs",
	"--disable-doc",
	"--disable-autodetect",
}

// Flags translates the descriptor and derived settings into configure flags.
// Flags come in fixed groups; names within a group are sorted and
// deduplicated, so the output only depends on its inputs.
func Flags(d descriptor.Descriptor, s settings.View) []string {
	flags := slices.Clone(baseline)
	flags = append(flags, crossFlags(d, s)...)

	containers := s.List(settings.Containers)
	codecs := s.List(settings.Codecs)
	parsers := slices.Clone(codecs)
	// the mov demuxer reads mpeg4 part 2 streams through this parser
	if slices.Contains(containers, "mov") && !slices.Contains(parsers, "mpeg4video") {
		parsers = append(parsers, "mpeg4video")
	}
	flags = append(flags, autotools.EnableEach("demuxer", containers)...)
	flags = append(flags, autotools.EnableEach("parser", parsers)...)
	flags = append(flags, autotools.EnableEach("decoder", codecs)...)

	if s.Bool(settings.HWDecode) {
		flags = append(flags, autotools.EnableEach("hwaccel", s.List(settings.HWAccels))...)
		flags = append(flags, autotools.EnableEach("decoder", s.List(settings.ExtraDecoders))...)
	}

	if s.Bool(settings.IsDebug) {
		flags = append(flags, "--enable-debug", "--disable-optimizations")
	} else {
		flags = append(flags, "--disable-debug", "--enable-optimizations")
	}
	flags = append(flags,
		autotools.Enable("shared", s.Bool(settings.BuildShared)),
		autotools.Enable("static", s.Bool(settings.BuildStatic)),
	)

	switch {
	case s.Bool(settings.IsASan):
		flags = append(flags, "--toolchain=clang-asan")
	case s.Bool(settings.IsTSan):
		flags = append(flags, "--toolchain=clang-tsan")
	case s.Bool(settings.IsUBSan):
		flags = append(flags, "--toolchain=clang-usan")
	}
	if cc := s.String(settings.CCWrapper); cc != "" {
		flags = append(flags, "--cc="+cc+" cc", "--cxx="+cc+" c++")
	}
	return flags
}

func crossFlags(d descriptor.Descriptor, s settings.View) []string {
	flags := []string{"--arch=" + arch(d.CPU), "--target-os=" + targetOS(d.TargetOS)}
	cross := d.TargetOS != s.String(settings.HostOS) || d.CPU != s.String(settings.HostCPU) || d.Sysroot != ""
	if !cross {
		return flags
	}
	flags = append([]string{"--enable-cross-compile"}, flags...)
	if d.Sysroot != "" {
		flags = append(flags, "--sysroot="+d.Sysroot)
	}
	return flags
}

func arch(cpu string) string {
	switch cpu {
	case descriptor.CPUx64:
		return "x86_64"
	case descriptor.CPUArm64:
		return "aarch64"
	}
	return cpu
}

func targetOS(os string) string {
	switch os {
	case descriptor.OSMac, descriptor.OSIOS:
		return "darwin"
	case descriptor.OSWin:
		return "mingw32"
	}
	return os
}
