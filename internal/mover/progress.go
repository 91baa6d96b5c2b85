package mover

import (
	"math"
	"time"
)

// Progress is what gets persisted on a job after each copied file.
type Progress struct {
	Bytes int64
	Speed int64
	ETA   int64
}

// computeProgress clamps copied to total and derives throughput in bytes per
// second over elapsed, and the remaining seconds at that rate.
func computeProgress(copied, total int64, elapsed time.Duration) Progress {
	total = max(total, 0)
	p := Progress{Bytes: min(max(copied, 0), total)}

	if secs := elapsed.Seconds(); secs > 0 {
		p.Speed = int64(float64(max(copied, 0)) / secs)
	}
	if p.Speed > 0 {
		p.ETA = int64(math.Round(float64(total-p.Bytes) / float64(p.Speed)))
	}
	return p
}
