package bench

import (
	"fmt"
	"time"

	"validator-bench/internal/service/resource"
)

// Counts are the tallies a run accumulates inside its window.
type Counts struct {
	Received   uint64
	Processed  uint64
	Dispatched uint64
	Errors     uint64
}

// Collect derives a Result from the snapshots taken at window start and
// end. It has no side effects. A window that did not advance the wall
// clock is a configuration error.
func Collect(library string, start, end resource.Snapshot, c Counts) (Result, error) {
	elapsed := end.Wall.Sub(start.Wall)
	if elapsed <= 0 {
		return Result{}, fmt.Errorf("%w: elapsed time %v", ErrConfiguration, elapsed)
	}
	secs := elapsed.Seconds()

	return Result{
		Library:           library,
		StartedAt:         start.Wall,
		ElapsedSeconds:    secs,
		MessagesReceived:  c.Received,
		MessagesProcessed: c.Processed,
		RecordsDispatched: c.Dispatched,
		ValidationErrors:  c.Errors,
		MessagesPerSecond: float64(c.Processed) / secs,
		CPUUserMs:         millis(end.CPUUser - start.CPUUser),
		CPUSystemMs:       millis(end.CPUSystem - start.CPUSystem),
		MemoryUsed:        end.HeapBytes - start.HeapBytes,
		RSSDelta:          end.RSSBytes - start.RSSBytes,
	}, nil
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
