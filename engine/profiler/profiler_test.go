package profiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStages(t *testing.T) {
	p := NewProfiler()
	p.End()
	assert.Empty(t, p.Stages())

	p.Begin("context")
	p.Begin("program")
	p.End()
	p.End()

	stages := p.Stages()
	require.Len(t, stages, 2)
	assert.Equal(t, "context", stages[0].Stage)
	assert.Equal(t, "program", stages[1].Stage)
	assert.GreaterOrEqual(t, stages[1].Duration, time.Duration(0))
}

func TestTick(t *testing.T) {
	p := NewProfiler()
	p.SetUpdateInterval(time.Hour)
	assert.False(t, p.Tick())

	p.SetUpdateInterval(time.Nanosecond)
	time.Sleep(time.Millisecond)
	assert.True(t, p.Tick())
}
