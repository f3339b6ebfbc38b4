//go:build linux && !baremetal

package clock

import "golang.org/x/sys/unix"

// Host reads CLOCK_MONOTONIC, the same base the kernel uses for gpio line
// event timestamps, so ticks from Now and from edge events are comparable.
type Host struct{}

func (Host) Now() Ticks {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return 0
	}
	return Ticks(uint64(ts.Sec)*1e6 + uint64(ts.Nsec)/1e3)
}
