//go:build !tinygo

package display

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	consoleWidth = 24
	consoleBar   = 20
	clearScreen  = "\x1b[H\x1b[2J"
)

// Console prints each screen as a bordered card.
type Console struct {
	w io.Writer
	// Refresh clears the terminal before every screen.
	Refresh bool

	header lipgloss.Style
	value  lipgloss.Style
	high   lipgloss.Style
	low    lipgloss.Style
	bar    lipgloss.Style
	card   lipgloss.Style
}

func NewConsole(w io.Writer, p Palette) *Console {
	r := lipgloss.NewRenderer(w)
	return &Console{
		w: w,
		header: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(Hex(p.Background))).
			Background(lipgloss.Color(Hex(p.Highlight))).
			Width(consoleWidth).
			Padding(0, 1),
		value: r.NewStyle().Foreground(lipgloss.Color(Hex(p.Text))).Bold(true),
		high:  r.NewStyle().Foreground(lipgloss.Color(Hex(p.Green))).Bold(true),
		low:   r.NewStyle().Foreground(lipgloss.Color(Hex(p.Red))).Bold(true),
		bar:   r.NewStyle().Foreground(lipgloss.Color(Hex(p.Highlight))),
		card: r.NewStyle().
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color(Hex(p.Highlight))),
	}
}

func (c *Console) screen(title string, lines ...string) {
	body := lipgloss.Place(consoleWidth, 3, lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center, lines...))
	out := c.card.Render(lipgloss.JoinVertical(lipgloss.Left, c.header.Render(title), body))
	if c.Refresh {
		out = clearScreen + out
	}
	_, _ = fmt.Fprintln(c.w, out)
}

func (c *Console) Clear() {
	if c.Refresh {
		_, _ = io.WriteString(c.w, clearScreen)
	}
}

func (c *Console) ShowMode(name string) {
	c.screen(titleMode, c.value.Render(modeText(name)))
}

func (c *Console) ShowLogic(level bool) {
	s := c.low
	if level {
		s = c.high
	}
	c.screen(titleLogic, s.Render(levelText(level)))
}

func (c *Console) ShowFrequency(hz float64) {
	c.screen(titleFrequency, c.value.Render(frequencyText(hz)))
}

func (c *Console) ShowPulse(us float64) {
	c.screen(titlePulse, c.value.Render(pulseText(us)))
}

func (c *Console) ShowDutyCycle(percent, hz float64) {
	n := int(percent / 100 * consoleBar)
	if n < 0 {
		n = 0
	} else if n > consoleBar {
		n = consoleBar
	}
	bar := strings.Repeat("█", n) + strings.Repeat("░", consoleBar-n)
	c.screen(titleDuty, c.bar.Render(bar), c.value.Render(dutyText(percent)), dutyHzText(hz))
}

func (c *Console) ShowRiseFall(riseNs, fallNs float64) {
	c.screen(titleEdges, riseText(riseNs), fallText(fallNs))
}

func (c *Console) ShowEdgeCount(n int) {
	c.screen(titleCount, c.value.Render(edgesText(n)))
}

func (c *Console) ShowNumber(n int) {
	c.screen(titleNumber, c.value.Render(strconv.Itoa(n)))
}
