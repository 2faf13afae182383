package config

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/goplus/tpconf/internal/descriptor"
)

// Violation is one failed validation rule.
type Violation struct {
	Rule    string
	Message string
}

// ValidationError reports every rule the options violate.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 1 {
		return "invalid options: " + e.Violations[0].Message
	}
	var b strings.Builder
	fmt.Fprintf(&b, "invalid options (%d problems):", len(e.Violations))
	for _, v := range e.Violations {
		b.WriteString("\n  - ")
		b.WriteString(v.Message)
	}
	return b.String()
}

// Has reports whether rule is among the violations.
func (e *ValidationError) Has(rule string) bool {
	return slices.ContainsFunc(e.Violations, func(v Violation) bool { return v.Rule == rule })
}

// Rule is a named validation check. Check returns a non-empty message when
// the input violates the rule.
type Rule struct {
	Name  string
	Check func(in *Input) string
}

// Rules is the ordered list of validation rules.
var Rules = []Rule{
	{"js-engine-debug", checkEngineDebug},
	{"mobile-host", checkMobileHost},
	{"ubsan-release", checkUBSanRelease},
	{"library-output", checkLibraryOutput},
	{"out-of-tree", checkOutOfTree},
	{"ui-toolkit-demo", checkUIToolkitDemo},
	{"demo-shortcuts", checkDemoShortcuts},
	{"media-player", checkMediaPlayer},
	{"sanitizer-combination", checkSanitizers},
	{"known-platform", checkKnownPlatform},
	{"known-js-engine", checkKnownEngine},
	{"known-decoder", checkKnownDecoder},
}

// Validate evaluates every rule against in.
func Validate(in *Input) error {
	var vs []Violation
	for _, r := range Rules {
		if msg := r.Check(in); msg != "" {
			vs = append(vs, Violation{Rule: r.Name, Message: msg})
		}
	}
	if len(vs) > 0 {
		return &ValidationError{Violations: vs}
	}
	return nil
}

func checkEngineDebug(in *Input) string {
	engine := in.Engine()
	switch {
	case in.V8HWDebug && engine != EngineV8:
		return fmt.Sprintf("v8 hardware debugging requires the v8 engine, %s is selected", engine)
	case in.JSCHWDebug && engine != EngineJSC:
		return fmt.Sprintf("jsc hardware debugging requires the jsc engine, %s is selected", engine)
	}
	return ""
}

func checkMobileHost(in *Input) string {
	host := in.Host.OS
	switch in.TargetOS() {
	case descriptor.OSIOS:
		if host != descriptor.OSMac {
			return fmt.Sprintf("ios targets can only be built on a mac host, not %s", host)
		}
	case descriptor.OSAndroid:
		if host != descriptor.OSLinux && host != descriptor.OSMac {
			return fmt.Sprintf("android targets can only be built on a linux or mac host, not %s", host)
		}
	}
	return ""
}

func checkUBSanRelease(in *Input) string {
	if in.UBSan && !in.Release {
		return "the undefined behavior sanitizer requires a release build"
	}
	return ""
}

func checkLibraryOutput(in *Input) string {
	if in.Shared != nil && !*in.Shared && in.Static != nil && !*in.Static {
		return "at least one of shared or static library output must be enabled"
	}
	return ""
}

func checkOutOfTree(in *Input) string {
	if in.OutDir == "" {
		return "no output directory given"
	}
	src, err := filepath.Abs(in.SourceRoot)
	if err != nil {
		return fmt.Sprintf("cannot resolve source root %q: %v", in.SourceRoot, err)
	}
	out, err := filepath.Abs(in.OutDir)
	if err != nil {
		return fmt.Sprintf("cannot resolve output directory %q: %v", in.OutDir, err)
	}
	if src == out {
		return fmt.Sprintf("in-place configuration is not supported, choose an output directory other than %s", src)
	}
	return ""
}

func checkUIToolkitDemo(in *Input) string {
	disabled := (in.SDLAudio != nil && !*in.SDLAudio) || (in.SDLVideo != nil && !*in.SDLVideo)
	if disabled && !in.DemoExplicitlyDisabled() && !in.MediaPlayerDisabled() {
		return "SDL audio and video are required by the demo application, disable the demo to turn them off"
	}
	return ""
}

func checkDemoShortcuts(in *Input) string {
	if in.WithDemo && in.WithAltDemo {
		return "with-demo and with-alt-demo are mutually exclusive"
	}
	return ""
}

func checkMediaPlayer(in *Input) string {
	if !in.MediaPlayerDisabled() {
		return ""
	}
	if in.Decoder != "" && in.Decoder != DecoderNone {
		return fmt.Sprintf("decoder %s cannot be used without the media player", in.Decoder)
	}
	if in.DemoRequested() {
		return "the demo application cannot be built without the media player"
	}
	return ""
}

func checkSanitizers(in *Input) string {
	if in.ASan && in.TSan {
		return "the address and thread sanitizers cannot be combined"
	}
	return ""
}

func checkKnownPlatform(in *Input) string {
	var bad []string
	if os := in.TargetOS(); !slices.Contains(descriptor.KnownOS, os) {
		bad = append(bad, fmt.Sprintf("target os %q (want one of %s)", os, strings.Join(descriptor.KnownOS, ", ")))
	}
	if cpu := in.TargetCPU(); !slices.Contains(descriptor.KnownCPU, cpu) {
		bad = append(bad, fmt.Sprintf("target cpu %q (want one of %s)", cpu, strings.Join(descriptor.KnownCPU, ", ")))
	}
	if len(bad) > 0 {
		return "unknown " + strings.Join(bad, " and ")
	}
	return ""
}

func checkKnownEngine(in *Input) string {
	if !slices.Contains(knownEngines, in.Engine()) {
		return fmt.Sprintf("unknown js engine %q (want one of %s)", in.JSEngine, strings.Join(knownEngines, ", "))
	}
	return ""
}

func checkKnownDecoder(in *Input) string {
	if in.Decoder == "" {
		return ""
	}
	if !slices.Contains(knownDecoders, in.Decoder) {
		return fmt.Sprintf("unknown decoder %q (want one of %s)", in.Decoder, strings.Join(knownDecoders, ", "))
	}
	switch in.Decoder {
	case DecoderNone, DecoderFFmpeg:
		return ""
	}
	if nativeDecoders[in.TargetOS()] != in.Decoder {
		return fmt.Sprintf("decoder %s is not available on %s", in.Decoder, in.TargetOS())
	}
	return ""
}
