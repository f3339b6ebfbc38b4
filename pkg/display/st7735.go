//go:build tinygo && rp2040

package display

import (
	"machine"

	"tinygo.org/x/drivers/st7735"
)

// TFTPins is the SPI wiring of the ST7735 panel.
type TFTPins struct {
	SCK, MOSI, RST, DC, CS int
	// Frequency of the SPI clock in Hz.
	Frequency uint32
}

// NewST7735 brings up the panel on SPI1 and returns a Panel drawing on it.
func NewST7735(pins TFTPins, p Palette) (*Panel, error) {
	if pins.Frequency == 0 {
		pins.Frequency = 30_000_000
	}

	spi := machine.SPI1
	err := spi.Configure(machine.SPIConfig{
		Frequency: pins.Frequency,
		SCK:       machine.Pin(pins.SCK),
		SDO:       machine.Pin(pins.MOSI),
		Mode:      0,
	})
	if err != nil {
		return nil, err
	}

	dev := st7735.New(spi, machine.Pin(pins.RST), machine.Pin(pins.DC), machine.Pin(pins.CS), machine.NoPin)
	dev.Configure(st7735.Config{Width: PanelWidth, Height: PanelHeight})

	panel := NewPanel(&dev, p)
	panel.Clear()
	return panel, nil
}
