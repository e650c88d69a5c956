// Package surface resolves the opaque drawable identifiers handed to context acquisition.
package surface

import (
	"errors"
	"fmt"
	"sync"
)

// ErrUnknownSurface is returned by Registry.Resolve when no surface is registered under an identifier.
var ErrUnknownSurface = errors.New("unknown surface")

// Surface is a drawable that a rendering context can be bound to.
type Surface interface {
	// ID returns the identifier the surface was registered under.
	ID() string

	// Width returns the drawable width in pixels.
	Width() int

	// Height returns the drawable height in pixels.
	Height() int
}

// Registry maps surface identifiers to drawables. It is the lookup used during context
// acquisition and is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	surfaces map[string]Surface
}

// NewRegistry creates a Registry pre-populated with the given surfaces.
//
// Parameters:
//   - surfaces: drawables to register under their own IDs
//
// Returns:
//   - *Registry: the new registry
func NewRegistry(surfaces ...Surface) *Registry {
	r := &Registry{surfaces: make(map[string]Surface, len(surfaces))}
	for _, s := range surfaces {
		r.Register(s)
	}
	return r
}

// Register adds or replaces a surface under its ID.
//
// Parameters:
//   - s: the surface to register
func (r *Registry) Register(s Surface) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.surfaces[s.ID()] = s
}

// Unregister removes the surface registered under id, if any.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.surfaces, id)
}

// Resolve looks up the surface registered under id.
//
// Parameters:
//   - id: the surface identifier
//
// Returns:
//   - Surface: the registered surface
//   - error: an error wrapping ErrUnknownSurface when nothing is registered under id
func (r *Registry) Resolve(id string) (Surface, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.surfaces[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSurface, id)
	}
	return s, nil
}

// offscreen is an in-memory drawable with a fixed size.
type offscreen struct {
	id            string
	width, height int
}

var _ Surface = &offscreen{}

// NewOffscreen creates a drawable that exists only in memory, for devices that render without a window.
//
// Parameters:
//   - id: the identifier to register the surface under
//   - width: the drawable width in pixels
//   - height: the drawable height in pixels
//
// Returns:
//   - Surface: the offscreen surface
func NewOffscreen(id string, width, height int) Surface {
	return &offscreen{id: id, width: width, height: height}
}

func (o *offscreen) ID() string  { return o.id }
func (o *offscreen) Width() int  { return o.width }
func (o *offscreen) Height() int { return o.height }
