// Package termui shows a session in a terminal. Two display rows share one
// character cell through the upper half block glyph.
package termui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gdamore/tcell"

	"github.com/FabianRolfMatthiasNoll/arduboyemu/internal/display"
	"github.com/FabianRolfMatthiasNoll/arduboyemu/internal/emu"
)

const (
	halfBlock = '▀'
	rows      = display.Height / 2

	// DefaultHoldFrames is how long a key press keeps its button down.
	// Terminals report key repeats but no releases.
	DefaultHoldFrames = 6
)

type Terminal struct {
	s      *emu.Session
	screen tcell.Screen

	FPS        int
	HoldFrames int

	hold   [emu.ButtonCount]int
	paused bool
	step   bool
	halted bool
	status string

	events chan tcell.Event
	done   chan struct{}
}

// New wraps an initialized screen.
func New(s *emu.Session, screen tcell.Screen) *Terminal {
	return &Terminal{
		s:          s,
		screen:     screen,
		FPS:        60,
		HoldFrames: DefaultHoldFrames,
		events:     make(chan tcell.Event, 16),
		done:       make(chan struct{}),
	}
}

// Open initializes the terminal screen. Callers must Fini it.
func Open() (tcell.Screen, error) {
	tcell.SetEncodingFallback(tcell.EncodingFallbackASCII)
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	screen.HideCursor()
	screen.DisableMouse()
	screen.Clear()
	return screen, nil
}

// Run drives the session until the user quits or ctx is done.
func (t *Terminal) Run(ctx context.Context) error {
	defer close(t.done)
	go t.poll()

	fps := t.FPS
	if fps <= 0 {
		fps = 60
	}
	tick := time.NewTicker(time.Second / time.Duration(fps))
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-t.events:
			if t.handle(ev) {
				return nil
			}
		case <-tick.C:
			if err := t.frame(); err != nil {
				return err
			}
		}
	}
}

func (t *Terminal) poll() {
	for {
		ev := t.screen.PollEvent()
		if ev == nil {
			return
		}
		select {
		case t.events <- ev:
		case <-t.done:
			return
		}
	}
}

// handle processes one event and reports whether the user asked to quit.
func (t *Terminal) handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch {
		case ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC || ev.Rune() == 'q':
			return true
		case ev.Rune() == 'p':
			t.paused = !t.paused
		case ev.Rune() == 'n':
			t.step = t.paused
		default:
			if b, ok := keyButton(ev); ok {
				t.hold[b] = t.HoldFrames
			}
		}
	case *tcell.EventResize:
		t.screen.Sync()
	}
	return false
}

// keyButton maps a key to the button it presses.
func keyButton(ev *tcell.EventKey) (emu.Button, bool) {
	switch ev.Key() {
	case tcell.KeyUp:
		return emu.ButtonUp, true
	case tcell.KeyDown:
		return emu.ButtonDown, true
	case tcell.KeyLeft:
		return emu.ButtonLeft, true
	case tcell.KeyRight:
		return emu.ButtonRight, true
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'z', 'Z':
			return emu.ButtonA, true
		case 'x', 'X':
			return emu.ButtonB, true
		}
	}
	return 0, false
}

// buttons returns the held buttons and ages every hold by one frame.
func (t *Terminal) buttons() emu.Buttons {
	var down [emu.ButtonCount]bool
	for i := range t.hold {
		if t.hold[i] > 0 {
			down[i] = true
			t.hold[i]--
		}
	}
	return emu.Buttons{
		Up: down[emu.ButtonUp], Down: down[emu.ButtonDown],
		Left: down[emu.ButtonLeft], Right: down[emu.ButtonRight],
		A: down[emu.ButtonA], B: down[emu.ButtonB],
	}
}

func (t *Terminal) frame() error {
	run := !t.halted && (!t.paused || t.step)
	t.step = false
	if run {
		if err := t.s.SetButtons(t.buttons()); err != nil {
			return err
		}
		if err := t.s.StepFrame(); err != nil {
			if !errors.Is(err, emu.ErrHalted) {
				return err
			}
			t.halted = true
			t.status = err.Error()
		}
	}
	t.draw()
	return nil
}

func pixelColor(p uint32) tcell.Color {
	return tcell.NewRGBColor(int32(p>>16&0xFF), int32(p>>8&0xFF), int32(p&0xFF))
}

func (t *Terminal) draw() {
	fb := t.s.Framebuffer()
	for y := 0; y < rows; y++ {
		top := fb[2*y*display.Width:]
		bottom := fb[(2*y+1)*display.Width:]
		for x := 0; x < display.Width; x++ {
			st := tcell.StyleDefault.Foreground(pixelColor(top[x])).Background(pixelColor(bottom[x]))
			t.screen.SetContent(x, y, halfBlock, nil, st)
		}
	}
	t.drawStatus(rows)
	t.screen.Show()
}

var ledRGB = [emu.LEDCount][3]int32{
	emu.LEDRed:   {1, 0, 0},
	emu.LEDGreen: {0, 1, 0},
	emu.LEDBlue:  {0, 0, 1},
	emu.LEDRx:    {1, 1, 0},
	emu.LEDTx:    {1, 1, 0},
}

func (t *Terminal) drawStatus(y int) {
	x := 0
	if leds, err := t.s.LEDs(); err == nil {
		for l := emu.LED(0); l < emu.LEDCount; l++ {
			v := int32(leds.Get(l))
			c := ledRGB[l]
			st := tcell.StyleDefault.Foreground(tcell.NewRGBColor(c[0]*v, c[1]*v, c[2]*v))
			if v == 0 {
				st = tcell.StyleDefault.Foreground(tcell.ColorGray)
			}
			t.screen.SetContent(x, y, '●', nil, st)
			x += 2
		}
	}
	msg := fmt.Sprintf("frame %d", t.s.Frames())
	switch {
	case t.halted:
		msg = t.status
	case t.paused:
		msg += " paused"
	}
	msg += "  q:quit p:pause n:step z/x:A/B"
	for _, r := range msg {
		t.screen.SetContent(x, y, r, nil, tcell.StyleDefault)
		x++
	}
	w, _ := t.screen.Size()
	for ; x < w; x++ {
		t.screen.SetContent(x, y, ' ', nil, tcell.StyleDefault)
	}
}
