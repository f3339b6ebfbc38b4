package hosttimed

import (
	"sort"

	"logicprobe/pkg/clock"
)

// FilterIQR sorts samples in place and returns the middle half of them.
// Sets too small to have a middle half are returned whole.
func FilterIQR(samples []clock.Ticks) []clock.Ticks {
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })

	n := len(samples)
	mid := samples[n/4 : 3*n/4]
	if len(mid) == 0 {
		return samples
	}
	return mid
}

// Median sorts samples in place and returns the upper median.
func Median(samples []clock.Ticks) clock.Ticks {
	if len(samples) == 0 {
		return 0
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return samples[len(samples)/2]
}

// MeanInt returns the truncated integer mean of samples.
func MeanInt(samples []clock.Ticks) clock.Ticks {
	if len(samples) == 0 {
		return 0
	}
	var sum uint64
	for _, s := range samples {
		sum += uint64(s)
	}
	return clock.Ticks(sum / uint64(len(samples)))
}
