package hosttimed

// EdgeCounter counts signal level changes while a push button is held.
// The button is active low.
//
//	idle         --press-->   counting
//	counting     --release--> result ready
//	result ready --press-->   counting (previous result dropped)
type EdgeCounter struct {
	signal Input
	button Input

	counting    bool
	resultReady bool
	edgeCount   int
	lastSignal  bool
	lastButton  bool
}

func NewEdgeCounter(signal, button Input) *EdgeCounter {
	c := &EdgeCounter{signal: signal}
	c.SetButton(button)
	c.Reset()
	return c
}

// SetButton replaces the gating button.
func (c *EdgeCounter) SetButton(button Input) {
	c.button = button
	c.lastButton = true
	if button != nil {
		c.lastButton = button.Read()
	}
}

// Reset drops any count and result and returns to idle.
func (c *EdgeCounter) Reset() {
	c.edgeCount = 0
	c.lastSignal = c.signal.Read()
	c.counting = false
	c.resultReady = false
}

// Update polls the button and the signal once.
func (c *EdgeCounter) Update() {
	if c.button == nil {
		return
	}
	button := c.button.Read()

	switch {
	case c.lastButton && !button:
		if c.resultReady {
			c.Reset()
		}
		if !c.counting {
			c.lastSignal = c.signal.Read()
		}
		c.counting = true
	case !c.lastButton && button && c.counting:
		c.counting = false
		c.resultReady = true
	}
	c.lastButton = button

	if c.counting {
		if s := c.signal.Read(); s != c.lastSignal {
			c.edgeCount++
			c.lastSignal = s
		}
	}
}

// Result returns the count of the last completed press.
func (c *EdgeCounter) Result() (int, bool) {
	if !c.resultReady {
		return 0, false
	}
	return c.edgeCount, true
}

// Count returns the running count.
func (c *EdgeCounter) Count() int { return c.edgeCount }

func (c *EdgeCounter) Counting() bool { return c.counting }
