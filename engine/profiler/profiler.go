package profiler

import (
	"log"
	"runtime"
	"time"
)

// Profiler tracks frame rate, motion tick cost and memory statistics.
// Outputs one stats line to the log per interval.
type Profiler struct {
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	tickTotal time.Duration
	tickMax   time.Duration

	now    func() time.Time
	logf   func(format string, args ...any)
	readMS func(*runtime.MemStats)
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
		now:            time.Now,
		logf:           log.Printf,
		readMS:         runtime.ReadMemStats,
	}
}

// Tick should be called once per frame with the time spent ticking motion that frame.
// Logs statistics when the update interval has elapsed: FPS, average and worst
// motion tick cost, heap usage, allocation rate and GC pauses.
//
// Parameters:
//   - cost: duration of this frame's motion tick
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick(cost time.Duration) bool {
	p.frameCount++
	p.tickTotal += cost
	if cost > p.tickMax {
		p.tickMax = cost
	}

	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	fps := float64(p.frameCount) / elapsed.Seconds()
	avgTick := p.tickTotal / time.Duration(p.frameCount)

	p.readMS(&p.memStats)
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	sysMB := float64(p.memStats.Sys) / 1024 / 1024
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	allocRateMB := float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	// PauseNs is a circular buffer of the last 256 GC pauses.
	gcCount := p.memStats.NumGC
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000
		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			if pause := p.memStats.PauseNs[i%256] / 1000; pause > maxPauseUs {
				maxPauseUs = pause
			}
		}
	}

	p.logf("[Profiler] FPS: %.2f | Motion: avg %d µs, max %d µs | Heap: %.2f MB | Alloc Rate: %.2f MB/s | GC: %d (last: %d µs, max: %d µs) | Sys: %.2f MB",
		fps, avgTick.Microseconds(), p.tickMax.Microseconds(), allocMB, allocRateMB, gcCount, lastPauseUs, maxPauseUs, sysMB)

	p.frameCount = 0
	p.tickTotal = 0
	p.tickMax = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}
