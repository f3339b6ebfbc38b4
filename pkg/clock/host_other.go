//go:build !linux || baremetal

package clock

import "time"

var epoch = time.Now()

// Host reads the runtime monotonic clock.
type Host struct{}

func (Host) Now() Ticks {
	return FromDuration(time.Since(epoch))
}
