package termui

import (
	"testing"

	"github.com/gdamore/tcell"

	"github.com/FabianRolfMatthiasNoll/arduboyemu/internal/cart"
	"github.com/FabianRolfMatthiasNoll/arduboyemu/internal/display"
	"github.com/FabianRolfMatthiasNoll/arduboyemu/internal/emu"
)

func newTerminal(t *testing.T) (*Terminal, tcell.SimulationScreen) {
	t.Helper()
	s := emu.New(emu.Config{})
	if err := s.Setup(&cart.Image{Data: []byte{0x0C, 0x94, 0x00, 0x00}}); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	t.Cleanup(s.Teardown)
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(screen.Fini)
	screen.SetSize(display.Width, rows+1)
	return New(s, screen), screen
}

func TestKeyButton(t *testing.T) {
	cases := []struct {
		ev   *tcell.EventKey
		want emu.Button
		ok   bool
	}{
		{tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModNone), emu.ButtonUp, true},
		{tcell.NewEventKey(tcell.KeyRight, 0, tcell.ModNone), emu.ButtonRight, true},
		{tcell.NewEventKey(tcell.KeyRune, 'z', tcell.ModNone), emu.ButtonA, true},
		{tcell.NewEventKey(tcell.KeyRune, 'X', tcell.ModNone), emu.ButtonB, true},
		{tcell.NewEventKey(tcell.KeyRune, 'k', tcell.ModNone), 0, false},
	}
	for _, tc := range cases {
		got, ok := keyButton(tc.ev)
		if ok != tc.ok || (ok && got != tc.want) {
			t.Fatalf("keyButton(%v) got %v,%v want %v,%v", tc.ev.Name(), got, ok, tc.want, tc.ok)
		}
	}
}

func TestHoldExpires(t *testing.T) {
	term, _ := newTerminal(t)
	term.HoldFrames = 2
	if term.handle(tcell.NewEventKey(tcell.KeyRune, 'z', tcell.ModNone)) {
		t.Fatalf("z quit")
	}
	for i := 0; i < 2; i++ {
		if !term.buttons().A {
			t.Fatalf("frame %d: A released early", i)
		}
	}
	if term.buttons().A {
		t.Fatalf("A still held after hold expired")
	}
}

func TestQuitKeys(t *testing.T) {
	term, _ := newTerminal(t)
	for _, ev := range []*tcell.EventKey{
		tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone),
		tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone),
		tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModCtrl),
	} {
		if !term.handle(ev) {
			t.Fatalf("%s did not quit", ev.Name())
		}
	}
}

func TestPauseAndStep(t *testing.T) {
	term, _ := newTerminal(t)
	term.handle(tcell.NewEventKey(tcell.KeyRune, 'p', tcell.ModNone))
	if err := term.frame(); err != nil {
		t.Fatalf("frame: %v", err)
	}
	if term.s.Frames() != 0 {
		t.Fatalf("paused frame ran: %d", term.s.Frames())
	}
	term.handle(tcell.NewEventKey(tcell.KeyRune, 'n', tcell.ModNone))
	if err := term.frame(); err != nil {
		t.Fatalf("frame: %v", err)
	}
	if term.s.Frames() != 1 {
		t.Fatalf("step ran %d frames want 1", term.s.Frames())
	}
}

func TestDrawHalfBlocks(t *testing.T) {
	term, screen := newTerminal(t)
	fb := term.s.Framebuffer()
	fb[0] = display.Gray(0xFF)               // (0,0) top half of cell 0,0
	fb[display.Width+1] = display.Gray(0x80) // (1,1) bottom half of cell 1,0
	term.draw()

	r, _, st, _ := screen.GetContent(0, 0)
	fg, bg, _ := st.Decompose()
	if r != halfBlock || fg != tcell.NewRGBColor(0xFF, 0xFF, 0xFF) || bg != tcell.NewRGBColor(0, 0, 0) {
		t.Fatalf("cell 0,0 got %q fg=%v bg=%v", r, fg, bg)
	}
	_, _, st, _ = screen.GetContent(1, 0)
	fg, bg, _ = st.Decompose()
	if fg != tcell.NewRGBColor(0, 0, 0) || bg != tcell.NewRGBColor(0x80, 0x80, 0x80) {
		t.Fatalf("cell 1,0 fg=%v bg=%v", fg, bg)
	}
	if r, _, _, _ := screen.GetContent(0, rows); r != '●' {
		t.Fatalf("status row starts with %q", r)
	}
}
