package profiler

import (
	"fmt"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTickLogsOncePerInterval(t *testing.T) {
	start := time.Unix(0, 0)
	clock := start
	var lines []string

	p := NewProfiler()
	p.lastTime = start
	p.now = func() time.Time { return clock }
	p.logf = func(format string, args ...any) { lines = append(lines, fmt.Sprintf(format, args...)) }
	p.readMS = func(ms *runtime.MemStats) {}

	for i := 0; i < 49; i++ {
		clock = clock.Add(20 * time.Millisecond)
		assert.False(t, p.Tick(100*time.Microsecond))
	}
	clock = clock.Add(20 * time.Millisecond)
	assert.True(t, p.Tick(700*time.Microsecond))

	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "FPS: 50.00")
	assert.Contains(t, lines[0], "Motion: avg 112 µs, max 700 µs")

	clock = clock.Add(20 * time.Millisecond)
	assert.False(t, p.Tick(0), "counters restart after logging")
	assert.Equal(t, 1, p.frameCount)
	assert.Equal(t, time.Duration(0), p.tickMax)
}
