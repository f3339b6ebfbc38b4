package display

import "testing"

func newTestPanel() (*Panel, *Framebuffer, Palette) {
	pal := DefaultPalette()
	fb := NewFramebuffer(PanelWidth, PanelHeight)
	return NewPanel(fb, pal), fb, pal
}

func countColor(fb *Framebuffer, c uint16, x0, y0, x1, y1 int) int {
	n := 0
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			if fb.Pixel(x, y) == c {
				n++
			}
		}
	}
	return n
}

func TestRGB565RoundTrip(t *testing.T) {
	for _, c := range []uint16{0xFFFF, 0x0000, 0x001F, 0x07E0, 0xF800, 0x1234} {
		rgba := RGBA(c)
		if got := rgb565From888(rgba.R, rgba.G, rgba.B); got != c {
			t.Fatalf("round trip %#04x -> %#04x", c, got)
		}
	}
	if got := Hex(0xF800); got != "#ff0000" {
		t.Fatalf("Hex(0xF800) = %s", got)
	}
}

func TestValueText(t *testing.T) {
	cases := [][2]string{
		{frequencyText(5000), "5.00 kHz"},
		{frequencyText(999.7), "999 Hz"},
		{pulseText(100.6), "100 us"},
		{dutyText(49.96), "50.0%"},
		{dutyHzText(4999.6), "5000Hz"},
		{riseText(1234.9), "Rise: 1234ns"},
		{edgesText(7), "7 edges/s"},
		{modeText("edge_time"), "EDGE_TIME"},
	}
	for _, c := range cases {
		if c[0] != c[1] {
			t.Fatalf("got %q, want %q", c[0], c[1])
		}
	}
}

func TestPanelLogic(t *testing.T) {
	p, fb, pal := newTestPanel()

	p.ShowLogic(true)
	if fb.Pixel(0, 0) != pal.Highlight || fb.Pixel(127, 19) != pal.Highlight {
		t.Fatalf("header not drawn")
	}
	if countColor(fb, pal.Green, 0, 60, PanelWidth, 90) == 0 {
		t.Fatalf("HIGH not drawn in green")
	}
	if countColor(fb, pal.Red, 0, 20, PanelWidth, PanelHeight) != 0 {
		t.Fatalf("red pixels on a HIGH screen")
	}

	p.ShowLogic(false)
	if countColor(fb, pal.Green, 0, 20, PanelWidth, PanelHeight) != 0 {
		t.Fatalf("previous level not cleared")
	}
	if countColor(fb, pal.Red, 0, 60, PanelWidth, 90) == 0 {
		t.Fatalf("LOW not drawn in red")
	}
	if fb.Frames != 2 {
		t.Fatalf("frames = %d, want 2", fb.Frames)
	}
}

func TestPanelDutyBar(t *testing.T) {
	p, fb, pal := newTestPanel()

	p.ShowDutyCycle(50, 5000)
	if fb.Pixel(40, 77) != pal.Highlight {
		t.Fatalf("bar not filled at 40,77")
	}
	if fb.Pixel(90, 77) != pal.Background {
		t.Fatalf("bar overfilled at 90,77")
	}
	for _, pt := range [][2]int{{14, 70}, {113, 77}, {60, 84}} {
		if fb.Pixel(pt[0], pt[1]) != pal.Text {
			t.Fatalf("bar outline missing at %v", pt)
		}
	}

	p.ShowDutyCycle(150, 5000)
	if fb.Pixel(112, 77) != pal.Highlight || fb.Pixel(115, 77) != pal.Background {
		t.Fatalf("bar not clamped to its frame")
	}
}

func TestPanelClear(t *testing.T) {
	p, fb, pal := newTestPanel()
	p.ShowNumber(42)
	p.Clear()
	if n := countColor(fb, pal.Background, 0, 0, PanelWidth, PanelHeight); n != PanelWidth*PanelHeight {
		t.Fatalf("%d pixels left after Clear", PanelWidth*PanelHeight-n)
	}
}
