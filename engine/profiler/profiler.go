package profiler

import (
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-mesh/engine/logger"
)

// StageTiming is the measured duration of one named setup stage.
type StageTiming struct {
	Stage    string
	Duration time.Duration
	// HeapDelta is the change in live heap bytes across the stage.
	HeapDelta int64
}

// Profiler records setup stage durations and tracks frame rate and memory statistics.
// Frame statistics are logged at a configurable interval.
type Profiler struct {
	mu sync.Mutex

	stages     []StageTiming
	stageName  string
	stageStart time.Time
	stageHeap  uint64

	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
}

// NewProfiler creates a new Profiler with default settings.
// Update interval defaults to 1 second.
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler() *Profiler {
	return &Profiler{
		lastTime:       time.Now(),
		updateInterval: time.Second,
	}
}

// SetUpdateInterval changes how often Tick logs frame statistics.
//
// Parameters:
//   - d: the interval, ignored when not positive
func (p *Profiler) SetUpdateInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updateInterval = d
}

// Begin starts timing a setup stage, ending the previous stage if one is open.
//
// Parameters:
//   - stage: the stage name
func (p *Profiler) Begin(stage string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.endLocked()
	runtime.ReadMemStats(&p.memStats)
	p.stageName = stage
	p.stageStart = time.Now()
	p.stageHeap = p.memStats.HeapAlloc
}

// End stops timing the open stage and logs its duration. It does nothing when no stage is open.
func (p *Profiler) End() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.endLocked()
}

// Stages returns the completed stage timings in the order they ran.
//
// Returns:
//   - []StageTiming: a copy of the timings
func (p *Profiler) Stages() []StageTiming {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]StageTiming(nil), p.stages...)
}

// Tick should be called once per frame to track frame timing.
// Logs performance statistics when the update interval has elapsed.
// Statistics include: FPS, heap usage, allocation rate, GC count/pause times, total memory.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.frameCount++
	currentTime := time.Now()
	elapsed := currentTime.Sub(p.lastTime)

	if elapsed < p.updateInterval {
		return false
	}

	fps := float64(p.frameCount) / elapsed.Seconds()

	runtime.ReadMemStats(&p.memStats)
	// Alloc: live heap bytes, TotalAlloc: cumulative bytes allocated, Sys: bytes obtained from the OS
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	sysMB := float64(p.memStats.Sys) / 1024 / 1024
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	allocRateMB := float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	gcCount := p.memStats.NumGC
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		// PauseNs is a circular buffer of the last 256 GC pauses
		lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000

		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			pause := p.memStats.PauseNs[i%256] / 1000
			if pause > maxPauseUs {
				maxPauseUs = pause
			}
		}
	}

	logger.Logger().Info("profiler",
		"fps", fps,
		"heap_mb", allocMB,
		"alloc_rate_mb_s", allocRateMB,
		"gc", gcCount,
		"gc_last_pause_us", lastPauseUs,
		"gc_max_pause_us", maxPauseUs,
		"sys_mb", sysMB,
	)

	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}

// endLocked must be called with mu held.
func (p *Profiler) endLocked() {
	if p.stageName == "" {
		return
	}
	runtime.ReadMemStats(&p.memStats)
	timing := StageTiming{
		Stage:     p.stageName,
		Duration:  time.Since(p.stageStart),
		HeapDelta: int64(p.memStats.HeapAlloc) - int64(p.stageHeap),
	}
	p.stages = append(p.stages, timing)
	p.stageName = ""
	logger.Logger().Info("setup stage", "stage", timing.Stage, "duration", timing.Duration, "heap_delta", timing.HeapDelta)
}
