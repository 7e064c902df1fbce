package mcu

import (
	"errors"
	"fmt"
)

var ErrUnknownKind = errors.New("mcu: unknown kind")

var kinds = map[string]func() *MCU{
	"atmega32u4": newATmega32u4,
}

// New builds an MCU of the given kind driven by core.
func New(kind string, core Core) (*MCU, error) {
	mk, ok := kinds[kind]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownKind, kind)
	}
	if core == nil {
		return nil, errors.New("mcu: nil core")
	}
	m := mk()
	m.core = core
	return m, nil
}

// ATmega32u4 register addresses used outside the package.
const (
	SPDR = 0x4E
	TWDR = 0xBB
	TWCR = 0xBC

	// TWCR bits
	TWINT = 1 << 7
	TWSTA = 1 << 5

	TCCR0A = 0x44
	OCR0A  = 0x47
	OCR0B  = 0x48
	TCCR1A = 0x80
	OCR1AL = 0x88
	OCR1BL = 0x8A
	OCR1CL = 0x8C
	TCCR3A = 0x90
	OCR3AL = 0x98
	OCR3BL = 0x9A
	OCR3CL = 0x9C
)

func newATmega32u4() *MCU {
	m := &MCU{
		Kind:   "atmega32u4",
		Data:   make([]byte, 0x0B00),
		Flash:  make([]byte, 32*1024),
		EEPROM: newEEPROM(1024),
		spdr:   SPDR,
		twdr:   TWDR,
		twcr:   TWCR,
	}
	m.FlashEnd = uint32(len(m.Flash) - 1)
	m.CodeEnd = m.FlashEnd
	for i := range m.ExtInt.StrictLevelTrigger {
		m.ExtInt.StrictLevelTrigger[i] = true
	}
	m.Ports = []*Port{
		{Name: 'B', PIN: 0x23, DDR: 0x24, PORT: 0x25},
		{Name: 'C', PIN: 0x26, DDR: 0x27, PORT: 0x28},
		{Name: 'D', PIN: 0x29, DDR: 0x2A, PORT: 0x2B},
		{Name: 'E', PIN: 0x2C, DDR: 0x2D, PORT: 0x2E},
		{Name: 'F', PIN: 0x2F, DDR: 0x30, PORT: 0x31},
	}
	const portB, portC, portD = 0x25, 0x28, 0x2B
	comp := func(com Regbit, pin Regbit, ocr uint16, vec uint8) *Comparator {
		return &Comparator{m: m, COM: com, ComPin: pin, OCR: ocr, Vector: vec}
	}
	m.Timers = map[int]*Timer{
		0: {
			Name: "timer0", Overflow: 23,
			Comp: []*Comparator{
				comp(Regbit{TCCR0A, 6, 3}, IOBit(portB, 7), OCR0A, 21),
				comp(Regbit{TCCR0A, 4, 3}, IOBit(portD, 0), OCR0B, 22),
			},
		},
		1: {
			Name: "timer1", Overflow: 20, Capture: 16,
			Comp: []*Comparator{
				comp(Regbit{TCCR1A, 6, 3}, IOBit(portB, 5), OCR1AL, 17),
				comp(Regbit{TCCR1A, 4, 3}, IOBit(portB, 6), OCR1BL, 18),
				comp(Regbit{TCCR1A, 2, 3}, IOBit(portB, 7), OCR1CL, 19),
			},
		},
		3: {
			Name: "timer3", Overflow: 36, Capture: 32,
			Comp: []*Comparator{
				comp(Regbit{TCCR3A, 6, 3}, IOBit(portC, 6), OCR3AL, 33),
				comp(Regbit{TCCR3A, 4, 3}, Regbit{}, OCR3BL, 34),
				comp(Regbit{TCCR3A, 2, 3}, Regbit{}, OCR3CL, 35),
			},
		},
	}
	return m
}
