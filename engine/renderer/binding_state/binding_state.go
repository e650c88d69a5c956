// Package binding_state records which vertex buffers feed which attribute locations, and which index
// buffer is used, into a single object that can be bound before a draw.
package binding_state

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/Carmen-Shannon/oxy-mesh/engine/logger"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/buffer"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/device"
)

var (
	// ErrSealed is returned when a binding state is modified after End.
	ErrSealed = errors.New("binding state is sealed")

	// ErrNotSealed is returned when an unsealed binding state is used for drawing.
	ErrNotSealed = errors.New("binding state is not sealed")
)

// Attribute is one recorded attribute binding.
type Attribute struct {
	Location   uint32
	Components int
	Buffer     buffer.VertexBuffer
	Stride     int
	Offset     int
	Normalized bool
}

// BindingState aggregates attribute bindings and an index buffer. It is recorded between Begin and
// End, after which it is sealed and immutable. Recording does not affect whichever state is bound
// on the device.
type BindingState interface {
	// Label returns the debug label given at Begin.
	//
	// Returns:
	//   - string: the label
	Label() string

	// BindAttribute feeds an attribute location from a vertex buffer. Binding a location that is
	// already bound replaces the earlier binding. A negative location, as returned for an attribute
	// the program does not use, is skipped without error.
	//
	// Parameters:
	//   - location: the attribute location
	//   - components: floats per vertex, 1 to 4
	//   - vb: the source vertex buffer
	//   - options: stride, offset and normalization, all defaulting to zero values
	//
	// Returns:
	//   - error: ErrSealed after End, or an error for an invalid component count or buffer
	BindAttribute(location int32, components int, vb buffer.VertexBuffer, options ...AttributeOption) error

	// SetIndexBuffer records the index buffer used by indexed draws. Setting it again replaces it.
	//
	// Parameters:
	//   - ib: the index buffer
	//
	// Returns:
	//   - error: ErrSealed after End, or an error for a nil buffer
	SetIndexBuffer(ib buffer.IndexBuffer) error

	// End seals the state and realizes it on the device.
	//
	// Returns:
	//   - error: ErrSealed if already sealed, or the device error
	End() error

	// Sealed reports whether End has completed.
	//
	// Returns:
	//   - bool: true once sealed
	Sealed() bool

	// ID returns the device vertex array handle, valid once sealed.
	//
	// Returns:
	//   - device.VertexArrayID: the handle, 0 before End
	ID() device.VertexArrayID

	// IndexBuffer returns the recorded index buffer.
	//
	// Returns:
	//   - buffer.IndexBuffer: the index buffer, or nil if none was set
	IndexBuffer() buffer.IndexBuffer

	// Attributes returns the recorded bindings ordered by location.
	//
	// Returns:
	//   - []Attribute: a copy of the bindings
	Attributes() []Attribute
}

type bindingState struct {
	dev         device.Device
	label       string
	mu          sync.Mutex
	attributes  map[uint32]Attribute
	indexBuffer buffer.IndexBuffer
	sealed      bool
	id          device.VertexArrayID
}

var _ BindingState = &bindingState{}

// Begin starts recording a new binding state.
//
// Parameters:
//   - dev: the device the state will be realized on
//   - label: a debug label
//
// Returns:
//   - BindingState: the recording state
func Begin(dev device.Device, label string) BindingState {
	return &bindingState{
		dev:        dev,
		label:      label,
		attributes: make(map[uint32]Attribute),
	}
}

func (b *bindingState) Label() string {
	return b.label
}

func (b *bindingState) BindAttribute(location int32, components int, vb buffer.VertexBuffer, options ...AttributeOption) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.sealed {
		return ErrSealed
	}
	if location < 0 {
		logger.Logger().Warn("skipping attribute binding for missing location", "state", b.label, "location", location)
		return nil
	}
	if components < 1 || components > 4 {
		return fmt.Errorf("attribute %d: component count %d outside 1..4", location, components)
	}
	if vb == nil {
		return fmt.Errorf("attribute %d: nil vertex buffer", location)
	}

	opts := attributeOptions{}
	for _, opt := range options {
		opt(&opts)
	}
	if opts.stride < 0 || opts.offset < 0 {
		return fmt.Errorf("attribute %d: negative stride %d or offset %d", location, opts.stride, opts.offset)
	}

	loc := uint32(location)
	if _, ok := b.attributes[loc]; ok {
		logger.Logger().Debug("replacing attribute binding", "state", b.label, "location", loc)
	}
	b.attributes[loc] = Attribute{
		Location:   loc,
		Components: components,
		Buffer:     vb,
		Stride:     opts.stride,
		Offset:     opts.offset,
		Normalized: opts.normalized,
	}
	return nil
}

func (b *bindingState) SetIndexBuffer(ib buffer.IndexBuffer) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.sealed {
		return ErrSealed
	}
	if ib == nil {
		return errors.New("nil index buffer")
	}
	b.indexBuffer = ib
	return nil
}

func (b *bindingState) End() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.sealed {
		return ErrSealed
	}

	layout := device.VertexArrayLayout{Label: b.label}
	for _, a := range b.sortedAttributes() {
		layout.Attributes = append(layout.Attributes, device.AttributeLayout{
			Location:   a.Location,
			Components: a.Components,
			Buffer:     a.Buffer.ID(),
			Stride:     a.Stride,
			Offset:     a.Offset,
			Normalized: a.Normalized,
		})
	}
	if b.indexBuffer != nil {
		layout.IndexBuffer = b.indexBuffer.ID()
		layout.IndexFormat = b.indexBuffer.Format()
	}

	id, err := b.dev.CreateVertexArray(layout)
	if err != nil {
		return fmt.Errorf("failed to seal binding state %q: %w", b.label, err)
	}
	b.id = id
	b.sealed = true
	logger.Logger().Debug("binding state sealed", "state", b.label, "vertex_array", id, "attributes", len(layout.Attributes))
	return nil
}

func (b *bindingState) Sealed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sealed
}

func (b *bindingState) ID() device.VertexArrayID {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.id
}

func (b *bindingState) IndexBuffer() buffer.IndexBuffer {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.indexBuffer
}

func (b *bindingState) Attributes() []Attribute {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sortedAttributes()
}

// sortedAttributes must be called with mu held.
func (b *bindingState) sortedAttributes() []Attribute {
	out := make([]Attribute, 0, len(b.attributes))
	for _, a := range b.attributes {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Location < out[j].Location })
	return out
}
