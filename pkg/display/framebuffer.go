package display

import "image/color"

// Framebuffer is an in-memory RGB565 canvas, little endian, without padding.
// Display hands the buffer to Flush if one is set.
type Framebuffer struct {
	width, height int
	buf           []byte

	Flush func(buf []byte) error
	// Frames counts calls to Display.
	Frames int
}

func NewFramebuffer(width, height int) *Framebuffer {
	return &Framebuffer{width: width, height: height, buf: make([]byte, width*height*2)}
}

func (f *Framebuffer) Size() (x, y int16) { return int16(f.width), int16(f.height) }

func (f *Framebuffer) SetPixel(x, y int16, c color.RGBA) {
	ix, iy := int(x), int(y)
	if ix < 0 || ix >= f.width || iy < 0 || iy >= f.height {
		return
	}
	pixel := rgb565From888(c.R, c.G, c.B)
	off := (iy*f.width + ix) * 2
	f.buf[off] = byte(pixel)
	f.buf[off+1] = byte(pixel >> 8)
}

func (f *Framebuffer) FillRectangle(x, y, width, height int16, c color.RGBA) error {
	x0 := clampInt(int(x), 0, f.width)
	y0 := clampInt(int(y), 0, f.height)
	x1 := clampInt(int(x)+int(width), 0, f.width)
	y1 := clampInt(int(y)+int(height), 0, f.height)
	if x0 >= x1 || y0 >= y1 {
		return nil
	}

	pixel := rgb565From888(c.R, c.G, c.B)
	lo, hi := byte(pixel), byte(pixel>>8)
	for py := y0; py < y1; py++ {
		row := py * f.width * 2
		for px := x0; px < x1; px++ {
			f.buf[row+px*2] = lo
			f.buf[row+px*2+1] = hi
		}
	}
	return nil
}

func (f *Framebuffer) Display() error {
	f.Frames++
	if f.Flush == nil {
		return nil
	}
	return f.Flush(f.buf)
}

// Pixel returns the RGB565 word at x, y.
func (f *Framebuffer) Pixel(x, y int) uint16 {
	if x < 0 || x >= f.width || y < 0 || y >= f.height {
		return 0
	}
	off := (y*f.width + x) * 2
	return uint16(f.buf[off]) | uint16(f.buf[off+1])<<8
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
