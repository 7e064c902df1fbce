package mcu

import "fmt"

// Port describes one GPIO port's register triplet.
type Port struct {
	Name byte   // 'B'..'F'
	PIN  uint16 // input levels
	DDR  uint16 // direction
	PORT uint16 // output latch / pull-ups
}

// Port looks up a GPIO port by letter.
func (m *MCU) Port(name byte) (*Port, error) {
	for _, p := range m.Ports {
		if p.Name == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("mcu: %s has no port %c", m.Kind, name)
}

// InputPin returns bit of the port's PIN register as a DigitalPin.
func (m *MCU) InputPin(port byte, bit uint8) (Pin, error) {
	p, err := m.Port(port)
	if err != nil {
		return Pin{}, err
	}
	if bit > 7 {
		return Pin{}, fmt.Errorf("mcu: port %c has no bit %d", port, bit)
	}
	return m.Bind(IOBit(p.PIN, bit)), nil
}

// OutputPin returns bit of the port's PORT (output latch) register as a DigitalPin.
func (m *MCU) OutputPin(port byte, bit uint8) (Pin, error) {
	p, err := m.Port(port)
	if err != nil {
		return Pin{}, err
	}
	if bit > 7 {
		return Pin{}, fmt.Errorf("mcu: port %c has no bit %d", port, bit)
	}
	return m.Bind(IOBit(p.PORT, bit)), nil
}

// ExtInt holds the external interrupt trigger configuration consumed by cores.
type ExtInt struct {
	// StrictLevelTrigger makes a level-triggered INTn fire continuously while
	// the level holds. Cores may relax it to fire once per level change.
	StrictLevelTrigger [8]bool
}

// SetStrictLevelTrigger configures the level-trigger mode of INTn.
func (e *ExtInt) SetStrictLevelTrigger(n int, strict bool) {
	if n < 0 || n >= len(e.StrictLevelTrigger) {
		return
	}
	e.StrictLevelTrigger[n] = strict
}

// EEPROM is the data EEPROM peripheral store.
type EEPROM struct {
	data []byte
}

func newEEPROM(size int) *EEPROM {
	e := &EEPROM{data: make([]byte, size)}
	for i := range e.data {
		e.data[i] = 0xFF
	}
	return e
}

// Size returns the EEPROM size in bytes.
func (e *EEPROM) Size() int { return len(e.data) }

// Bytes exposes the backing store. Cores access it through EEAR/EEDR emulation.
func (e *EEPROM) Bytes() []byte { return e.data }
