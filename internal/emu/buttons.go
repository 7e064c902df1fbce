package emu

import (
	"fmt"
	"strings"

	"periph.io/x/conn/v3/gpio"

	"github.com/FabianRolfMatthiasNoll/arduboyemu/internal/mcu"
)

// Button is a logical Arduboy button.
type Button int

const (
	ButtonUp Button = iota
	ButtonDown
	ButtonLeft
	ButtonRight
	ButtonA
	ButtonB
	ButtonCount
)

var buttonNames = [ButtonCount]string{"up", "down", "left", "right", "a", "b"}

func (b Button) String() string {
	if b < 0 || b >= ButtonCount {
		return fmt.Sprintf("Button(%d)", int(b))
	}
	return buttonNames[b]
}

// ParseButton looks a button up by name, ignoring case.
func ParseButton(name string) (Button, error) {
	for i, n := range buttonNames {
		if strings.EqualFold(n, name) {
			return Button(i), nil
		}
	}
	return 0, fmt.Errorf("%w %q", ErrInvalidButton, name)
}

// buttonPins wires each button to a PIN register bit. The switches pull the
// line to ground.
var buttonPins = [ButtonCount]struct {
	port byte
	bit  uint8
}{
	ButtonUp:    {'F', 7},
	ButtonDown:  {'F', 4},
	ButtonLeft:  {'F', 5},
	ButtonRight: {'F', 6},
	ButtonA:     {'E', 6},
	ButtonB:     {'B', 4},
}

// Buttons is the pressed state of every button.
type Buttons struct {
	Up, Down, Left, Right bool
	A, B                  bool
}

func (b Buttons) pressed() [ButtonCount]bool {
	return [ButtonCount]bool{b.Up, b.Down, b.Left, b.Right, b.A, b.B}
}

// Set presses or releases btn. Unknown buttons are ignored.
func (b *Buttons) Set(btn Button, pressed bool) {
	switch btn {
	case ButtonUp:
		b.Up = pressed
	case ButtonDown:
		b.Down = pressed
	case ButtonLeft:
		b.Left = pressed
	case ButtonRight:
		b.Right = pressed
	case ButtonA:
		b.A = pressed
	case ButtonB:
		b.B = pressed
	}
}

// Or returns the buttons pressed in either b or o.
func (b Buttons) Or(o Buttons) Buttons {
	return Buttons{
		Up:    b.Up || o.Up,
		Down:  b.Down || o.Down,
		Left:  b.Left || o.Left,
		Right: b.Right || o.Right,
		A:     b.A || o.A,
		B:     b.B || o.B,
	}
}

func (s *Session) bindButtons(m *mcu.MCU) error {
	for i, w := range buttonPins {
		p, err := m.InputPin(w.port, w.bit)
		if err != nil {
			return fmt.Errorf("button %v: %w", Button(i), err)
		}
		s.buttons[i] = p
	}
	return nil
}

// SetButton drives the button's pin: low while pressed, high when released.
// The level changes immediately, not at the next Step.
func (s *Session) SetButton(b Button, pressed bool) error {
	if s.state != Running {
		return ErrNotInitialized
	}
	if b < 0 || b >= ButtonCount {
		return fmt.Errorf("%w: %d", ErrInvalidButton, int(b))
	}
	return s.buttons[b].Out(gpio.Level(!pressed))
}

// SetButtons applies the state of all buttons at once.
func (s *Session) SetButtons(b Buttons) error {
	for i, p := range b.pressed() {
		if err := s.SetButton(Button(i), p); err != nil {
			return err
		}
	}
	return nil
}
