// Package emu runs an Arduboy program: it owns the simulated MCU and display
// controller and bridges them to frame, button, LED and EEPROM interfaces.
//
// A Session is single-threaded. Step, the input and output bridges and the
// EEPROM accessors must not be called concurrently.
package emu

import (
	"fmt"
	"log"

	"github.com/spf13/afero"

	"github.com/FabianRolfMatthiasNoll/arduboyemu/internal/cart"
	"github.com/FabianRolfMatthiasNoll/arduboyemu/internal/display"
	"github.com/FabianRolfMatthiasNoll/arduboyemu/internal/mcu"
	"github.com/FabianRolfMatthiasNoll/arduboyemu/internal/ssd1306"
)

// MCUKind is the micro-controller on the Arduboy board.
const MCUKind = "atmega32u4"

// State is the session lifecycle state.
type State int

const (
	Uninitialized State = iota
	Running
	Terminated
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Running:
		return "running"
	case Terminated:
		return "terminated"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

type Session struct {
	cfg   Config
	log   *log.Logger
	state State

	mcu   *mcu.MCU
	ctrl  *ssd1306.Controller
	luma  display.LumaMap
	latch *display.Latch
	img   *cart.Image

	buttons [ButtonCount]mcu.DigitalPin
	pwm     [3]mcu.PwmChannel // red, green, blue
	rx, tx  mcu.DigitalPin

	refresh
	frames uint64

	fb   []uint32
	rgba []byte
}

// New returns an uninitialized session.
func New(cfg Config) *Session {
	return &Session{
		cfg:  cfg,
		log:  cfg.logger(),
		fb:   make([]uint32, display.Pixels),
		rgba: make([]byte, display.Pixels*4),
	}
}

func (s *Session) State() State { return s.state }

// Image returns the loaded program, nil before Setup.
func (s *Session) Image() *cart.Image { return s.img }

// MCU exposes the simulated micro-controller, nil unless running.
func (s *Session) MCU() *mcu.MCU { return s.mcu }

// Controller exposes the display controller, nil unless running.
func (s *Session) Controller() *ssd1306.Controller { return s.ctrl }

// Frames counts frame boundaries reached since Setup.
func (s *Session) Frames() uint64 { return s.frames }

// LumaRebuilds counts completed display passes since Setup.
func (s *Session) LumaRebuilds() uint64 {
	if s.latch == nil {
		return 0
	}
	return s.latch.Rebuilds()
}

// SetupFile loads a .hex or .arduboy file from fs and calls Setup.
func (s *Session) SetupFile(fs afero.Fs, path string) error {
	img, err := cart.Load(fs, path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSetup, err)
	}
	return s.Setup(img)
}

// Setup builds a fresh MCU running img. It is allowed before the first run and
// after Teardown. On failure nothing is left allocated and the state is unchanged.
func (s *Session) Setup(img *cart.Image) error {
	if s.state == Running {
		return fmt.Errorf("%w: session already running", ErrSetup)
	}
	if img == nil {
		return fmt.Errorf("%w: no program image", ErrSetup)
	}
	core, err := s.cfg.newCore()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSetup, err)
	}
	m, err := mcu.New(MCUKind, core)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSetup, err)
	}
	if err := s.build(m, img); err != nil {
		m.Terminate()
		s.reset()
		s.img = nil
		return fmt.Errorf("%w: %w", ErrSetup, err)
	}
	s.state = Running
	s.log.Printf("emu: %s loaded, %d bytes at %#04x, %v, tuned=%v postpone=%v",
		img.Title(), len(img.Data), img.Base, m.Frequency, s.cfg.Tuned, s.postpone)
	return nil
}

func (s *Session) build(m *mcu.MCU, img *cart.Image) error {
	// INT6 fires once per level change instead of continuously while held.
	m.ExtInt.SetStrictLevelTrigger(6, false)

	if err := m.LoadFlash(img.Base, img.Data); err != nil {
		return err
	}
	m.Frequency = s.cfg.frequency()
	m.RunCycleLimit = m.UsecToCycles(RefreshPeriod)
	if m.RunCycleLimit == 0 {
		return fmt.Errorf("%w: %v is too slow for a %d µs refresh period", ErrFrequency, m.Frequency, RefreshPeriod)
	}

	ctrl := ssd1306.New()
	if err := ctrl.Connect(m, ssd1306.ArduboyWiring); err != nil {
		return err
	}
	ctrl.ConnectTWI(m)

	s.mcu, s.ctrl, s.img = m, ctrl, img
	s.luma.Clear()
	s.latch = display.NewLatch(ctrl, &s.luma)
	s.latch.OnRebuild = s.passComplete
	ctrl.OnSPICommit(s.latch.NotifyByteCommitted)
	ctrl.OnTWICommit(s.latch.NotifyByteCommitted)

	s.startRefresh(m, s.cfg.PostponeRefresh)

	if s.cfg.Tuned {
		m.Timers[1].DisableInterrupts()
		m.Timers[3].DisableInterrupts()
	}
	if err := s.bindButtons(m); err != nil {
		return err
	}
	if err := s.bindLEDs(m); err != nil {
		return err
	}
	s.frames = 0
	return s.idleOutputs()
}

// Step runs the program until the next frame boundary and decodes the display
// into pixels. If the CPU halts or crashes first, Step fails with ErrHalted and
// pixels is not written; the session stays running until Teardown.
func (s *Session) Step(pixels []uint32) error {
	if s.state != Running {
		return ErrNotInitialized
	}
	if len(pixels) < display.Pixels {
		return fmt.Errorf("%w: %d pixels, need %d", ErrBufferSize, len(pixels), display.Pixels)
	}
	s.frame = false
	for !s.frame {
		if st := s.mcu.Run(); st.Terminal() {
			return fmt.Errorf("%w: cpu %v at cycle %d", ErrHalted, st, s.mcu.Cycle)
		}
	}
	s.frames++
	if s.cfg.Trace {
		s.log.Printf("emu: frame %d cycle %d pc %#04x rebuilds %d", s.frames, s.mcu.Cycle, s.mcu.PC, s.latch.Rebuilds())
	}
	return display.Decode(pixels, &s.luma, s.flags())
}

// StepFrame steps into the session's own frame buffer.
func (s *Session) StepFrame() error {
	if err := s.Step(s.fb); err != nil {
		return err
	}
	return display.ToRGBA(s.rgba, s.fb)
}

// Framebuffer returns the ARGB pixels of the last StepFrame.
func (s *Session) Framebuffer() []uint32 { return s.fb }

// FramebufferRGBA returns the last StepFrame as RGBA bytes.
func (s *Session) FramebufferRGBA() []byte { return s.rgba }

// Teardown releases the MCU. Calling it on a session that is not running is a no-op.
func (s *Session) Teardown() {
	if s.state != Running {
		return
	}
	s.mcu.Terminate()
	s.reset()
	s.state = Terminated
}

func (s *Session) reset() {
	s.mcu, s.ctrl, s.latch = nil, nil, nil
	s.buttons = [ButtonCount]mcu.DigitalPin{}
	s.pwm = [3]mcu.PwmChannel{}
	s.rx, s.tx = nil, nil
	s.refresh = refresh{}
}

func (s *Session) flags() display.Flags {
	c := s.ctrl
	return display.Flags{
		DisplayOn:            c.Flag(ssd1306.FlagDisplayOn),
		SegmentRemapReversed: c.Flag(ssd1306.FlagSegmentRemapReversed),
		ComScanReversed:      c.Flag(ssd1306.FlagComScanReversed),
		Inverted:             c.Flag(ssd1306.FlagInverted),
		Contrast:             c.Contrast,
	}
}

// EEPROM copies the EEPROM contents into dst, which must hold EEPROMSize bytes.
func (s *Session) EEPROM(dst []byte) error {
	if s.state != Running {
		return ErrNotInitialized
	}
	src := s.mcu.EEPROM.Bytes()
	if len(dst) < len(src) {
		return fmt.Errorf("%w: %d bytes, need %d", ErrBufferSize, len(dst), len(src))
	}
	copy(dst, src)
	return nil
}

// SetEEPROM replaces the EEPROM contents with src, which must hold EEPROMSize bytes.
func (s *Session) SetEEPROM(src []byte) error {
	if s.state != Running {
		return ErrNotInitialized
	}
	dst := s.mcu.EEPROM.Bytes()
	if len(src) < len(dst) {
		return fmt.Errorf("%w: %d bytes, need %d", ErrBufferSize, len(src), len(dst))
	}
	copy(dst, src)
	return nil
}

// EEPROMSize is the size of the Arduboy EEPROM.
const EEPROMSize = 1024
