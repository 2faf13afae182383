// Package buildsys holds what the configure helpers (CMake, Autotools) share:
// the configure lifecycle, cross-compile triples and environment helpers.
package buildsys

import (
	"context"
	"strings"

	"github.com/goplus/tpconf/internal/descriptor"
)

// BuildSystem captures the shared capabilities of the configure helpers.
// Implementations add their own extras.
type BuildSystem interface {
	// Env sets a variable of the configure environment.
	Env(key, val string)

	// Configure generates the build.
	Configure(ctx context.Context, args ...string) error
}

// CompilerWrapper makes b compile through wrapper (ccache, for example) by
// setting CC and CXX. An empty wrapper leaves b unchanged.
func CompilerWrapper(b BuildSystem, wrapper string) {
	if wrapper == "" {
		return
	}
	b.Env("CC", wrapper+" cc")
	b.Env("CXX", wrapper+" c++")
}

var triples = map[string]map[string]string{
	descriptor.OSLinux: {
		descriptor.CPUx86:   "i686-linux-gnu",
		descriptor.CPUx64:   "x86_64-linux-gnu",
		descriptor.CPUArm:   "arm-linux-gnueabihf",
		descriptor.CPUArm64: "aarch64-linux-gnu",
	},
	descriptor.OSAndroid: {
		descriptor.CPUx86:   "i686-linux-android",
		descriptor.CPUx64:   "x86_64-linux-android",
		descriptor.CPUArm:   "armv7a-linux-androideabi",
		descriptor.CPUArm64: "aarch64-linux-android",
	},
	descriptor.OSMac: {
		descriptor.CPUx64:   "x86_64-apple-darwin",
		descriptor.CPUArm64: "aarch64-apple-darwin",
	},
	descriptor.OSIOS: {
		descriptor.CPUx64:   "x86_64-apple-ios-simulator",
		descriptor.CPUArm64: "aarch64-apple-ios",
	},
	descriptor.OSWin: {
		descriptor.CPUx86:   "i686-w64-mingw32",
		descriptor.CPUx64:   "x86_64-w64-mingw32",
		descriptor.CPUArm64: "aarch64-w64-mingw32",
	},
}

// Triple returns the GNU host triple of d, and false for unsupported pairs.
func Triple(d descriptor.Descriptor) (string, bool) {
	t, ok := triples[d.TargetOS][d.CPU]
	return t, ok
}

// SystemName returns the CMAKE_SYSTEM_NAME of a GN target OS.
func SystemName(os string) string {
	switch os {
	case descriptor.OSLinux:
		return "Linux"
	case descriptor.OSAndroid:
		return "Android"
	case descriptor.OSMac:
		return "Darwin"
	case descriptor.OSIOS:
		return "iOS"
	case descriptor.OSWin:
		return "Windows"
	}
	return os
}

// Processor returns the CMAKE_SYSTEM_PROCESSOR of a GN target CPU.
func Processor(cpu string) string {
	switch cpu {
	case descriptor.CPUx86:
		return "i686"
	case descriptor.CPUx64:
		return "x86_64"
	case descriptor.CPUArm:
		return "armv7"
	case descriptor.CPUArm64:
		return "aarch64"
	}
	return cpu
}

// PrependPath prepends value to the list variable key of env.
func PrependPath(env map[string]string, sep, key, value string) {
	if current := env[key]; current != "" {
		env[key] = value + sep + current
		return
	}
	env[key] = value
}

// AppendFlag appends a flag to the space separated variable key of env.
func AppendFlag(env map[string]string, key, flag string) {
	env[key] = strings.TrimSpace(env[key] + " " + flag)
}
