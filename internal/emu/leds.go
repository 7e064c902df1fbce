package emu

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"

	"github.com/FabianRolfMatthiasNoll/arduboyemu/internal/mcu"
)

// LED is one of the board's indicator LEDs.
type LED int

const (
	LEDRed LED = iota
	LEDGreen
	LEDBlue
	LEDRx
	LEDTx
	LEDCount
)

var ledNames = [LEDCount]string{"red", "green", "blue", "rx", "tx"}

func (l LED) String() string {
	if l < 0 || l >= LEDCount {
		return fmt.Sprintf("LED(%d)", int(l))
	}
	return ledNames[l]
}

// ParseLED looks an LED up by name.
func ParseLED(name string) (LED, error) {
	for i, n := range ledNames {
		if n == name {
			return LED(i), nil
		}
	}
	return 0, fmt.Errorf("emu: unknown led %q", name)
}

// LEDs holds a brightness of 0..255 per LED.
type LEDs struct {
	Red, Green, Blue uint8
	Rx, Tx           uint8
}

// Get returns the brightness of l.
func (v LEDs) Get(l LED) uint8 {
	switch l {
	case LEDRed:
		return v.Red
	case LEDGreen:
		return v.Green
	case LEDBlue:
		return v.Blue
	case LEDRx:
		return v.Rx
	case LEDTx:
		return v.Tx
	}
	return 0
}

// The RGB LED is common-anode: each color is lit while its pin is low.
func (s *Session) bindLEDs(m *mcu.MCU) error {
	t0, t1 := m.Timers[0], m.Timers[1]
	s.pwm = [3]mcu.PwmChannel{
		t1.Comp[mcu.CompB], // red, PB6
		t0.Comp[mcu.CompA], // green, PB7
		t1.Comp[mcu.CompA], // blue, PB5
	}
	rx, err := m.OutputPin('B', 0)
	if err != nil {
		return err
	}
	tx, err := m.OutputPin('D', 5)
	if err != nil {
		return err
	}
	s.rx, s.tx = rx, tx
	return nil
}

// idleOutputs turns every LED off and releases every button.
func (s *Session) idleOutputs() error {
	for _, ch := range s.pwm {
		if c, ok := ch.(*mcu.Comparator); ok {
			if err := c.Pin().Out(gpio.High); err != nil {
				return err
			}
		}
	}
	for _, p := range []mcu.DigitalPin{s.rx, s.tx} {
		if err := p.Out(gpio.High); err != nil {
			return err
		}
	}
	for _, p := range s.buttons {
		if err := p.Out(gpio.High); err != nil {
			return err
		}
	}
	return nil
}

func pwmLevel(ch mcu.PwmChannel) uint8 {
	if !ch.Enabled() {
		return pinLevel(ch.Override())
	}
	return ^ch.Duty()
}

func pinLevel(l gpio.Level) uint8 {
	if l == gpio.Low {
		return 255
	}
	return 0
}

// LEDs reads the current LED brightness.
func (s *Session) LEDs() (LEDs, error) {
	if s.state != Running {
		return LEDs{}, ErrNotInitialized
	}
	return LEDs{
		Red:   pwmLevel(s.pwm[0]),
		Green: pwmLevel(s.pwm[1]),
		Blue:  pwmLevel(s.pwm[2]),
		Rx:    pinLevel(s.rx.Read()),
		Tx:    pinLevel(s.tx.Read()),
	}, nil
}

// ReadLEDs stores the brightness of every LED in dst, indexed by LED.
func (s *Session) ReadLEDs(dst []uint8) error {
	if len(dst) < int(LEDCount) {
		return fmt.Errorf("%w: %d leds, need %d", ErrBufferSize, len(dst), LEDCount)
	}
	v, err := s.LEDs()
	if err != nil {
		return err
	}
	for l := LEDRed; l < LEDCount; l++ {
		dst[l] = v.Get(l)
	}
	return nil
}
