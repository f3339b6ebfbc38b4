package display

import (
	"image/color"
	"strconv"

	"github.com/womat/debug"
	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"
)

const (
	PanelWidth  = 128
	PanelHeight = 160

	headerHeight = 20
	// distance from the top of a text line to its baseline
	ascent = 9
	valueY = 70
)

// Canvas is a display that can also fill rectangles quickly.
type Canvas interface {
	drivers.Displayer
	FillRectangle(x, y, width, height int16, c color.RGBA) error
}

// Panel draws the instrument screens on a 128x160 canvas.
type Panel struct {
	c    Canvas
	font tinyfont.Fonter

	text, bg, highlight, green, red color.RGBA
}

func NewPanel(c Canvas, p Palette) *Panel {
	return &Panel{
		c:         c,
		font:      &proggy.TinySZ8pt7b,
		text:      RGBA(p.Text),
		bg:        RGBA(p.Background),
		highlight: RGBA(p.Highlight),
		green:     RGBA(p.Green),
		red:       RGBA(p.Red),
	}
}

func (p *Panel) fill(x, y, w, h int16, c color.RGBA) {
	if err := p.c.FillRectangle(x, y, w, h, c); err != nil {
		debug.ErrorLog.Printf("display: fill: %v", err)
	}
}

func (p *Panel) show() {
	if err := p.c.Display(); err != nil {
		debug.ErrorLog.Printf("display: %v", err)
	}
}

// write draws s with its top left corner at x, y.
func (p *Panel) write(s string, x, y int16, c color.RGBA) {
	tinyfont.WriteLine(p.c, p.font, x, y+ascent, s, c)
}

func (p *Panel) center(s string, y int16, c color.RGBA) {
	w, _ := tinyfont.LineWidth(p.font, s)
	x := (PanelWidth - int16(w)) / 2
	if x < 0 {
		x = 0
	}
	p.write(s, x, y, c)
}

func (p *Panel) header(title string) {
	p.fill(0, 0, PanelWidth, headerHeight, p.highlight)
	p.write(title, 5, 5, p.bg)
}

func (p *Panel) rule(y int16) {
	p.fill(0, y, PanelWidth, 1, p.text)
}

// content clears everything below the header and starts a new screen.
func (p *Panel) content(title string) {
	p.fill(0, headerHeight, PanelWidth, PanelHeight-headerHeight, p.bg)
	p.header(title)
	p.rule(25)
}

func (p *Panel) Clear() {
	p.fill(0, 0, PanelWidth, PanelHeight, p.bg)
	p.show()
}

func (p *Panel) ShowMode(name string) {
	p.fill(0, 0, PanelWidth, PanelHeight, p.bg)
	p.header(titleMode)
	p.center(modeText(name), 60, p.text)
	p.show()
}

func (p *Panel) ShowLogic(level bool) {
	p.fill(0, headerHeight, PanelWidth, PanelHeight-headerHeight, p.bg)
	p.header(titleLogic)
	c := p.red
	if level {
		c = p.green
	}
	p.center(levelText(level), valueY, c)
	p.show()
}

func (p *Panel) ShowFrequency(hz float64) {
	p.content(titleFrequency)
	p.center(frequencyText(hz), valueY, p.text)
	p.show()
}

func (p *Panel) ShowPulse(us float64) {
	p.content(titlePulse)
	p.center(pulseText(us), valueY, p.text)
	p.show()
}

// duty bar geometry
const (
	barX      = 14
	barY      = 70
	barWidth  = 100
	barHeight = 15
)

func (p *Panel) ShowDutyCycle(percent, hz float64) {
	p.content(titleDuty)

	w := int16(percent / 100 * barWidth)
	if w < 0 {
		w = 0
	} else if w > barWidth {
		w = barWidth
	}
	p.fill(barX, barY, w, barHeight, p.highlight)
	p.fill(barX, barY, barWidth, 1, p.text)
	p.fill(barX, barY+barHeight-1, barWidth, 1, p.text)
	p.fill(barX, barY, 1, barHeight, p.text)
	p.fill(barX+barWidth-1, barY, 1, barHeight, p.text)

	p.write(dutyText(percent), 50, 90, p.text)
	p.write(dutyHzText(hz), 40, 110, p.text)
	p.show()
}

func (p *Panel) ShowRiseFall(riseNs, fallNs float64) {
	p.content(titleEdges)
	p.write(riseText(riseNs), 10, 60, p.text)
	p.write(fallText(fallNs), 10, 80, p.text)
	p.show()
}

func (p *Panel) ShowEdgeCount(n int) {
	p.content(titleCount)
	p.center(edgesText(n), valueY, p.text)
	p.show()
}

func (p *Panel) ShowNumber(n int) {
	p.fill(0, headerHeight, PanelWidth, PanelHeight-headerHeight, p.bg)
	p.header(titleNumber)
	p.center(strconv.Itoa(n), valueY, p.text)
	p.show()
}
