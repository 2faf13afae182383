// Package descriptor defines the cross-compile descriptor shared by every
// third-party configure step.
package descriptor

import (
	"context"
	"errors"
	"fmt"
)

// Descriptor is the target triple resolved from the primary build.
type Descriptor struct {
	CPU      string
	TargetOS string
	Sysroot  string
}

// Resolver queries the primary build for the descriptor of dir.
type Resolver interface {
	Resolve(ctx context.Context, dir string) (Descriptor, error)
}

// Validate reports whether d is complete enough to configure a tool.
func (d Descriptor) Validate() error {
	var errs []error
	if d.CPU == "" {
		errs = append(errs, errors.New("target cpu is empty"))
	}
	if d.TargetOS == "" {
		errs = append(errs, errors.New("target os is empty"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("incomplete cross-compile descriptor: %w", errors.Join(errs...))
	}
	return nil
}

func (d Descriptor) String() string {
	if d.Sysroot == "" {
		return d.TargetOS + "-" + d.CPU
	}
	return d.TargetOS + "-" + d.CPU + " (sysroot " + d.Sysroot + ")"
}

// GN platform names.
const (
	OSLinux   = "linux"
	OSAndroid = "android"
	OSMac     = "mac"
	OSIOS     = "ios"
	OSWin     = "win"

	CPUx86   = "x86"
	CPUx64   = "x64"
	CPUArm   = "arm"
	CPUArm64 = "arm64"
)

// KnownOS lists the target OS names understood by every step.
var KnownOS = []string{OSLinux, OSAndroid, OSMac, OSIOS, OSWin}

// KnownCPU lists the target CPU names understood by every step.
var KnownCPU = []string{CPUx86, CPUx64, CPUArm, CPUArm64}

// IsMobileOS reports whether os is android or ios.
func IsMobileOS(os string) bool {
	return os == OSAndroid || os == OSIOS
}

// IsApple reports whether os is mac or ios.
func IsApple(os string) bool {
	return os == OSMac || os == OSIOS
}

// HostOS maps a GOOS value to its GN name. Unknown values are returned as is.
func HostOS(goos string) string {
	switch goos {
	case "darwin":
		return OSMac
	case "windows":
		return OSWin
	}
	return goos
}

// HostCPU maps a GOARCH value to its GN name. Unknown values are returned as is.
func HostCPU(goarch string) string {
	switch goarch {
	case "amd64":
		return CPUx64
	case "386":
		return CPUx86
	}
	return goarch
}
