package config

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// LoadFile reads options from an HCL file such as
//
//	release    = true
//	decoder    = host_os == "mac" ? "videotoolbox" : "ffmpeg"
//	containers = "mov,ogg"
//	gn_args    = ["use_lld=true"]
//
// The variables host_os and host_cpu are available to expressions.
func LoadFile(path string, host Host) (Options, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return Options{}, fmt.Errorf("failed to parse options file %s: %w", path, diags)
	}
	return decode(file.Body, host, path)
}

// ParseFile is LoadFile for in-memory content.
func ParseFile(src []byte, filename string, host Host) (Options, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return Options{}, fmt.Errorf("failed to parse options file %s: %w", filename, diags)
	}
	return decode(file.Body, host, filename)
}

func decode(body hcl.Body, host Host, filename string) (Options, error) {
	ctx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"host_os":  cty.StringVal(host.OS),
			"host_cpu": cty.StringVal(host.CPU),
		},
	}
	var opts Options
	if diags := gohcl.DecodeBody(body, ctx, &opts); diags.HasErrors() {
		return Options{}, fmt.Errorf("failed to decode options file %s: %w", filename, diags)
	}
	return opts, nil
}
