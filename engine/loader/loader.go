// Package loader imports static colored triangle meshes from glTF 2.0 and GLB files into models.
package loader

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-mesh/common"
	"github.com/Carmen-Shannon/oxy-mesh/engine/logger"
	"github.com/Carmen-Shannon/oxy-mesh/engine/model"
)

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	modelCache map[string]model.Model

	defaultColor common.Color
}

// Loader imports models and caches them by name.
type Loader interface {
	// Load imports a .gltf or .glb file and caches the result under its path.
	// If the path is already cached, the cached model is returned.
	//
	// Parameters:
	//   - path: the file path to the model file
	//
	// Returns:
	//   - model.Model: the loaded model
	//   - error: error if reading or decoding fails
	Load(path string) (model.Model, error)

	// LoadReader imports a glTF JSON document or GLB container from a stream and caches it under
	// name. The container kind is detected from the data. External buffer URIs are not resolved.
	//
	// Parameters:
	//   - name: the cache key and model name
	//   - r: the reader providing model data
	//
	// Returns:
	//   - model.Model: the loaded model
	//   - error: error if reading or decoding fails
	LoadReader(name string, r io.Reader) (model.Model, error)

	// Get retrieves a cached model by name. Returns nil if not found.
	//
	// Parameters:
	//   - name: the cache key to look up
	//
	// Returns:
	//   - model.Model: the cached model or nil
	Get(name string) model.Model

	// Models returns a copy of the model cache.
	//
	// Returns:
	//   - map[string]model.Model: all cached models keyed by name
	Models() map[string]model.Model
}

var _ Loader = &loader{}

// NewLoader creates a new Loader with the given options applied.
//
// Parameters:
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new Loader
func NewLoader(options ...LoaderBuilderOption) Loader {
	l := &loader{
		modelCache:   make(map[string]model.Model),
		defaultColor: common.Color{R: 1, G: 1, B: 1, A: 1},
	}
	for _, option := range options {
		option(l)
	}
	return l
}

func (l *loader) Load(path string) (model.Model, error) {
	if m := l.Get(path); m != nil {
		return m, nil
	}

	p := newGLTFParser(filepath.Dir(path))
	if err := p.parseFile(path); err != nil {
		return nil, fmt.Errorf("failed to load %q: %w", path, err)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	m, err := l.build(name, p)
	if err != nil {
		return nil, fmt.Errorf("failed to load %q: %w", path, err)
	}
	return l.store(path, m), nil
}

func (l *loader) LoadReader(name string, r io.Reader) (model.Model, error) {
	if m := l.Get(name); m != nil {
		return m, nil
	}

	p := newGLTFParser("")
	if err := p.parseReader(r); err != nil {
		return nil, fmt.Errorf("failed to load %q: %w", name, err)
	}

	m, err := l.build(name, p)
	if err != nil {
		return nil, fmt.Errorf("failed to load %q: %w", name, err)
	}
	return l.store(name, m), nil
}

func (l *loader) Get(name string) model.Model {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.modelCache[name]
}

func (l *loader) Models() map[string]model.Model {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]model.Model, len(l.modelCache))
	for k, v := range l.modelCache {
		out[k] = v
	}
	return out
}

// build converts a parsed document into a validated model.
func (l *loader) build(name string, p *gltfParser) (model.Model, error) {
	c := l.defaultColor
	g, err := extractGeometry(p, [3]float32{c.R, c.G, c.B})
	if err != nil {
		return nil, err
	}

	m := model.NewModel(
		model.WithName(name),
		model.WithPositions(g.positions),
		model.WithColors(g.colors),
		model.WithIndices(g.indices),
	)
	if err := m.Validate(); err != nil {
		return nil, err
	}

	logger.Logger().Debug("model imported",
		"name", name,
		"vertices", m.VertexCount(),
		"triangles", m.TriangleCount(),
	)
	return m, nil
}

// store caches m under key unless a concurrent load got there first, and returns the cached model.
func (l *loader) store(key string, m model.Model) model.Model {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cached, ok := l.modelCache[key]; ok {
		return cached
	}
	l.modelCache[key] = m
	return m
}
