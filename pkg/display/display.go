// Package display renders measurement results. Panel draws the 128x160 TFT
// layout on any tinygo drivers.Displayer, Console prints the same screens to
// a terminal.
package display

import (
	"fmt"
	"image/color"
	"strings"
)

// Display is the render side of the instrument. Every call redraws one
// screen and returns without waiting for the user.
type Display interface {
	ShowLogic(level bool)
	ShowFrequency(hz float64)
	ShowPulse(us float64)
	ShowDutyCycle(percent, hz float64)
	ShowRiseFall(riseNs, fallNs float64)
	ShowEdgeCount(n int)
	ShowNumber(n int)
	ShowMode(name string)
	Clear()
}

// Palette holds the screen colours as RGB565 words.
type Palette struct {
	Text       uint16
	Background uint16
	Highlight  uint16
	Green      uint16
	Red        uint16
}

func DefaultPalette() Palette {
	return Palette{
		Text:       0xFFFF,
		Background: 0x0000,
		Highlight:  0x001F,
		Green:      0x07E0,
		Red:        0xF800,
	}
}

// RGBA expands an RGB565 word.
func RGBA(c uint16) color.RGBA {
	r := uint8(c>>11) & 0x1F
	g := uint8(c>>5) & 0x3F
	b := uint8(c) & 0x1F
	return color.RGBA{R: r<<3 | r>>2, G: g<<2 | g>>4, B: b<<3 | b>>2, A: 0xff}
}

// Hex formats an RGB565 word as #rrggbb.
func Hex(c uint16) string {
	rgba := RGBA(c)
	return fmt.Sprintf("#%02x%02x%02x", rgba.R, rgba.G, rgba.B)
}

func rgb565From888(r, g, b uint8) uint16 {
	return uint16((uint16(r>>3)&0x1F)<<11 | (uint16(g>>2)&0x3F)<<5 | (uint16(b>>3) & 0x1F))
}

// screen titles
const (
	titleMode      = "MODE"
	titleLogic     = "LOGIC PROBE"
	titleFrequency = "FREQUENCY"
	titlePulse     = "PULSE WIDTH"
	titleDuty      = "DUTY CYCLE"
	titleEdges     = "EDGE TIMES"
	titleCount     = "EDGE COUNT"
	titleNumber    = "NUMBER"
)

func levelText(level bool) string {
	if level {
		return "HIGH"
	}
	return "LOW"
}

func frequencyText(hz float64) string {
	if hz >= 1000 {
		return fmt.Sprintf("%.2f kHz", hz/1000)
	}
	return fmt.Sprintf("%d Hz", int(hz))
}

func pulseText(us float64) string { return fmt.Sprintf("%d us", int(us)) }

func dutyText(percent float64) string { return fmt.Sprintf("%.1f%%", percent) }

func dutyHzText(hz float64) string { return fmt.Sprintf("%.0fHz", hz) }

func riseText(ns float64) string { return fmt.Sprintf("Rise: %dns", int(ns)) }

func fallText(ns float64) string { return fmt.Sprintf("Fall: %dns", int(ns)) }

func edgesText(n int) string { return fmt.Sprintf("%d edges/s", n) }

func modeText(name string) string { return strings.ToUpper(name) }
