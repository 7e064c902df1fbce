package ssd1306

import (
	"fmt"

	"github.com/FabianRolfMatthiasNoll/arduboyemu/internal/mcu"
)

// PinRef names a GPIO line by port letter and bit.
type PinRef struct {
	Port byte
	Bit  uint8
}

// Wiring lists the control lines besides the SPI bus.
type Wiring struct {
	ChipSelect      PinRef
	DataInstruction PinRef
	Reset           PinRef
}

// ArduboyWiring is the fixed wiring of the Arduboy board.
var ArduboyWiring = Wiring{
	ChipSelect:      PinRef{'D', 6},
	DataInstruction: PinRef{'D', 4},
	Reset:           PinRef{'D', 7},
}

// Connect attaches the controller to the MCU's SPI bus and control lines.
func (c *Controller) Connect(m *mcu.MCU, w Wiring) error {
	cs, err := m.OutputPin(w.ChipSelect.Port, w.ChipSelect.Bit)
	if err != nil {
		return fmt.Errorf("ssd1306: chip select: %w", err)
	}
	dc, err := m.OutputPin(w.DataInstruction.Port, w.DataInstruction.Bit)
	if err != nil {
		return fmt.Errorf("ssd1306: data/instruction: %w", err)
	}
	rst, err := m.OutputPin(w.Reset.Port, w.Reset.Bit)
	if err != nil {
		return fmt.Errorf("ssd1306: reset: %w", err)
	}

	inReset := !bool(rst.Read())
	update := func() {
		c.selected = !bool(cs.Read())
		c.dataMode = bool(dc.Read())
		low := !bool(rst.Read())
		if low && !inReset {
			c.Reset()
		}
		inReset = low
	}
	update()
	hooked := map[uint16]bool{}
	for _, p := range []mcu.Pin{cs, dc, rst} {
		if addr := p.Regbit().Addr; !hooked[addr] {
			hooked[addr] = true
			m.OnWrite(addr, func(uint16, byte) { update() })
		}
	}
	m.SPI.Notify(c.SPIByteIn)
	return nil
}

// ConnectTWI attaches the controller to the MCU's TWI bus. Every start
// condition begins a new transfer.
func (c *Controller) ConnectTWI(m *mcu.MCU) {
	m.TWIStart.Notify(func(byte) { c.TWIStart() })
	m.TWI.Notify(c.TWIByteIn)
}
