package loader

import (
	"github.com/Carmen-Shannon/oxy-mesh/common"
	"github.com/Carmen-Shannon/oxy-mesh/engine/model"
)

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithModel is an option builder that pre-populates the model cache with a model.
//
// Parameters:
//   - key: the cache key for the model
//   - model: the model to cache
//
// Returns:
//   - LoaderBuilderOption: a function that applies the model option to a loader
func WithModel(key string, model model.Model) LoaderBuilderOption {
	return func(l *loader) {
		l.modelCache[key] = model
	}
}

// WithDefaultColor sets the color given to vertices of primitives without a COLOR_0 attribute.
// Alpha is ignored. Defaults to white.
//
// Parameters:
//   - c: the vertex color
//
// Returns:
//   - LoaderBuilderOption: a function that applies the color option to a loader
func WithDefaultColor(c common.Color) LoaderBuilderOption {
	return func(l *loader) {
		l.defaultColor = c
	}
}
