package app

import "fmt"

// Mode is what the refresh task shows.
type Mode int

const (
	ModeLogic Mode = iota
	ModeFrequency
	ModePulse
	ModeDuty
	ModeEdgeTime
	ModeEdgeCounter
	modeCount
)

var modeNames = [modeCount]string{
	ModeLogic:       "logic",
	ModeFrequency:   "frequency",
	ModePulse:       "pulse",
	ModeDuty:        "duty",
	ModeEdgeTime:    "edge_time",
	ModeEdgeCounter: "edge_counter",
}

func (m Mode) String() string {
	if m < 0 || m >= modeCount {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modeNames[m]
}

// Next returns the mode after m, wrapping around.
func (m Mode) Next() Mode {
	return (m + 1) % modeCount
}

func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if name == s {
			return Mode(m), nil
		}
	}
	return 0, fmt.Errorf("unknown mode %q", s)
}
