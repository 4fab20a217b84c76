package pipeline

import (
	"errors"
	"fmt"

	bverrors "github.com/matzehuels/binvis/pkg/errors"
	"github.com/matzehuels/binvis/pkg/render"
)

// RenderScene generates output artifacts for scene in the requested formats.
func RenderScene(scene render.Scene, opts Options) (map[string][]byte, error) {
	renderOpts, err := opts.RenderOptions()
	if err != nil {
		return nil, err
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, name := range opts.Formats {
		format, err := render.ParseFormat(name)
		if err != nil {
			return nil, bverrors.Wrap(bverrors.ErrCodeInvalidFormat, err, "invalid format %q", name)
		}
		data, err := render.Render(format, scene, renderOpts...)
		if errors.Is(err, render.ErrNeeds3D) {
			return nil, bverrors.Wrap(bverrors.ErrCodeUnsupported, err, "format %s needs --dims 3", name)
		}
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", name, err)
		}
		artifacts[name] = data
	}
	return artifacts, nil
}
