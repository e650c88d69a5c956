package engine

import (
	"errors"
	"fmt"
)

// State is a stage of the one-shot setup sequence. States only ever advance, one at a time, in
// declaration order.
type State int

const (
	StateUninitialized State = iota
	StateContextReady
	StateProgramLinked
	StateBuffersUploaded
	StateBindingStateSealed
	StateSceneConfigured
	StateRenderable
)

var stateNames = [...]string{
	StateUninitialized:      "uninitialized",
	StateContextReady:       "context ready",
	StateProgramLinked:      "program linked",
	StateBuffersUploaded:    "buffers uploaded",
	StateBindingStateSealed: "binding state sealed",
	StateSceneConfigured:    "scene configured",
	StateRenderable:         "renderable",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

var (
	// ErrSetupAborted wraps the failure that stopped Setup. Setup cannot be retried afterwards.
	ErrSetupAborted = errors.New("setup aborted")

	// ErrNotRenderable is returned by Render before Setup has completed.
	ErrNotRenderable = errors.New("engine is not renderable")
)
