// Package thirdparty assembles the configure steps of the third-party
// libraries into the pipeline registry.
package thirdparty

import (
	"github.com/goplus/tpconf/internal/pipeline"
	"github.com/goplus/tpconf/internal/thirdparty/ffmpeg"
	"github.com/goplus/tpconf/internal/thirdparty/sdl"
	"github.com/goplus/tpconf/internal/thirdparty/submodule"
	"github.com/goplus/tpconf/internal/thirdparty/webp"
)

// Steps returns the registry of every configure step, in run order.
func Steps() (*pipeline.Registry, error) {
	return pipeline.NewRegistry(
		submodule.Step(submodule.Modules...),
		ffmpeg.Step(),
		sdl.Step(),
		webp.Step(),
	)
}
