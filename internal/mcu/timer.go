package mcu

import "periph.io/x/conn/v3/gpio"

// Compare channel indices.
const (
	CompA = iota
	CompB
	CompC
)

// PwmChannel is a timer compare output driving a pin.
type PwmChannel interface {
	// Enabled reports whether the compare output mode connects the timer to the pin.
	Enabled() bool
	// Duty is the 8-bit compare register value.
	Duty() uint8
	// Override is the static pin level used while the compare output is disconnected.
	Override() gpio.Level
}

// Comparator is one output-compare unit of a timer.
type Comparator struct {
	m *MCU

	COM    Regbit // compare output mode field
	ComPin Regbit // output latch bit of the OCnx pin
	OCR    uint16 // compare register (low byte)
	Vector uint8  // interrupt vector, 0 when disabled
}

var _ PwmChannel = (*Comparator)(nil)

func (c *Comparator) Enabled() bool { return c.COM.Get(c.m) != 0 }

func (c *Comparator) Duty() uint8 { return c.m.Read(c.OCR) }

func (c *Comparator) Override() gpio.Level { return gpio.Level(c.ComPin.Get(c.m) != 0) }

// Pin returns the OCnx output latch as a DigitalPin.
func (c *Comparator) Pin() Pin { return c.m.Bind(c.ComPin) }

// Timer is a timer/counter peripheral. Only the parts the bridges and cores
// need are modelled: interrupt vectors and compare outputs.
type Timer struct {
	Name     string
	Overflow uint8 // overflow vector
	Capture  uint8 // input capture vector, 0 when absent
	Comp     []*Comparator
}

// DisableInterrupts detaches every interrupt vector of the timer so the core
// never raises them.
func (t *Timer) DisableInterrupts() {
	t.Overflow = 0
	t.Capture = 0
	for _, c := range t.Comp {
		c.Vector = 0
	}
}
