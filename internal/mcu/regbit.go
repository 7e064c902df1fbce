package mcu

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
)

// Regbit addresses a bit field inside a data-space register.
type Regbit struct {
	Addr uint16
	Bit  uint8
	Mask uint8 // field mask before shifting; 1 for a single bit
}

// IOBit returns a single-bit Regbit.
func IOBit(addr uint16, bit uint8) Regbit { return Regbit{Addr: addr, Bit: bit, Mask: 1} }

// Valid reports whether the regbit points at a register.
func (r Regbit) Valid() bool { return r.Mask != 0 }

// Get returns the field value shifted down to bit 0.
func (r Regbit) Get(m *MCU) uint8 {
	if !r.Valid() {
		return 0
	}
	return (m.Read(r.Addr) >> r.Bit) & r.Mask
}

// Set sets every bit of the field.
func (r Regbit) Set(m *MCU) { r.SetTo(m, r.Mask) }

// Clear clears every bit of the field.
func (r Regbit) Clear(m *MCU) { r.SetTo(m, 0) }

// SetTo stores v in the field. The register is modified in place without
// running IO hooks, like an external level change on the pin.
func (r Regbit) SetTo(m *MCU, v uint8) {
	if !r.Valid() || int(r.Addr) >= len(m.Data) {
		return
	}
	m.Data[r.Addr] = m.Data[r.Addr]&^(r.Mask<<r.Bit) | (v&r.Mask)<<r.Bit
}

func (r Regbit) String() string {
	return fmt.Sprintf("%#04x.%d", r.Addr, r.Bit)
}

// DigitalPin is a single logic line.
type DigitalPin interface {
	Read() gpio.Level
	Out(l gpio.Level) error
}

// Pin binds a single-bit Regbit to an MCU as a DigitalPin.
type Pin struct {
	m  *MCU
	rb Regbit
}

var _ DigitalPin = Pin{}

func (p Pin) Read() gpio.Level { return gpio.Level(p.rb.Get(p.m) != 0) }

func (p Pin) Out(l gpio.Level) error {
	if p.m == nil {
		return fmt.Errorf("mcu: pin %s not bound", p.rb)
	}
	if l {
		p.rb.Set(p.m)
	} else {
		p.rb.Clear(p.m)
	}
	return nil
}

// Regbit returns the register bit behind the pin.
func (p Pin) Regbit() Regbit { return p.rb }

// Bind returns r as a DigitalPin of m.
func (m *MCU) Bind(r Regbit) Pin { return Pin{m: m, rb: r} }
