package mcu

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/physic"
)

// State is the execution state of the simulated CPU.
type State int

const (
	Running  State = iota
	Sleeping       // waiting for a timer or peripheral to wake the core
	Done           // program terminated normally (e.g. sleep with interrupts off)
	Crashed        // invalid opcode, stack underflow or any other fault
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Sleeping:
		return "sleeping"
	case Done:
		return "done"
	case Crashed:
		return "crashed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether the state can no longer make progress.
func (s State) Terminal() bool { return s == Done || s == Crashed }

var ErrImageTooLarge = errors.New("mcu: image does not fit in flash")

// WriteHook observes a data-space write after it has been stored.
type WriteHook func(addr uint16, v byte)

// ByteSignal fans a byte out to every registered observer, in registration order.
type ByteSignal struct {
	hooks []func(byte)
}

// Notify registers fn to be called on every raised byte.
func (s *ByteSignal) Notify(fn func(byte)) { s.hooks = append(s.hooks, fn) }

// Raise delivers b to all observers synchronously.
func (s *ByteSignal) Raise(b byte) {
	for _, fn := range s.hooks {
		fn(b)
	}
}

// MCU is a simulated micro-controller: memories, clock, cycle timers and the
// peripheral register layout. Instruction execution is delegated to a Core.
type MCU struct {
	Kind string

	Data  []byte // registers, IO space and SRAM
	Flash []byte

	PC       uint32
	CodeEnd  uint32 // last flash byte considered executable
	FlashEnd uint32

	Cycle         uint64
	Frequency     physic.Frequency
	RunCycleLimit uint64 // upper bound for one sleeping Run jump
	State         State

	Ports  []*Port
	Timers map[int]*Timer
	EEPROM *EEPROM
	ExtInt ExtInt

	// SPI and TWI raise every byte the program shifts out on the bus. The
	// slave address following a TWI start is not raised on TWI.
	SPI ByteSignal
	TWI ByteSignal

	// TWIStart is raised with the TWCR value when the program requests a
	// start condition.
	TWIStart ByteSignal

	spdr, twdr, twcr uint16
	twiAddr          bool // next TWDR write is the slave address

	core       Core
	timers     timerQueue
	writeHooks map[uint16][]WriteHook
}

// Read returns the byte at a data-space address; out of range reads return 0xFF.
func (m *MCU) Read(addr uint16) byte {
	if int(addr) >= len(m.Data) {
		return 0xFF
	}
	return m.Data[addr]
}

// Write stores v in the data space and runs the IO hooks registered for addr.
// Cores must use Write for every store so peripherals see the traffic.
func (m *MCU) Write(addr uint16, v byte) {
	if int(addr) >= len(m.Data) {
		return
	}
	m.Data[addr] = v
	switch addr {
	case m.spdr:
		m.SPI.Raise(v)
	case m.twdr:
		if m.twiAddr {
			m.twiAddr = false
		} else {
			m.TWI.Raise(v)
		}
	case m.twcr:
		if v&TWINT != 0 && v&TWSTA != 0 {
			m.twiAddr = true
			m.TWIStart.Raise(v)
		}
	}
	for _, h := range m.writeHooks[addr] {
		h(addr, v)
	}
}

// OnWrite registers an IO hook for writes to addr.
func (m *MCU) OnWrite(addr uint16, h WriteHook) {
	if m.writeHooks == nil {
		m.writeHooks = make(map[uint16][]WriteHook)
	}
	m.writeHooks[addr] = append(m.writeHooks[addr], h)
}

// LoadFlash copies a program image to flash at base and points the PC at it.
// The executable region is extended to the end of flash.
func (m *MCU) LoadFlash(base uint32, image []byte) error {
	if uint64(base)+uint64(len(image)) > uint64(len(m.Flash)) {
		return fmt.Errorf("%w: %d bytes at %#x, flash is %d bytes", ErrImageTooLarge, len(image), base, len(m.Flash))
	}
	copy(m.Flash[base:], image)
	m.PC = base
	m.CodeEnd = m.FlashEnd
	return nil
}

// Run advances the simulation by one core step. While the core sleeps it
// instead jumps virtual time to the next timer deadline, never further than
// RunCycleLimit cycles. Due cycle timers are serviced before returning.
func (m *MCU) Run() State {
	switch m.State {
	case Done, Crashed:
		return m.State
	case Sleeping:
		step := m.RunCycleLimit
		if when, ok := m.timers.next(); ok && when > m.Cycle && when-m.Cycle < step {
			step = when - m.Cycle
		}
		if step == 0 {
			step = 1
		}
		m.Cycle += step
	default:
		n := m.core.Step(m)
		if n == 0 {
			n = 1
		}
		m.Cycle += n
	}
	m.timers.process(m)
	return m.State
}

// Core returns the instruction core driving the MCU.
func (m *MCU) Core() Core { return m.core }

// Terminate releases the core and marks the MCU done. Further Run calls are no-ops.
func (m *MCU) Terminate() {
	if c, ok := m.core.(interface{ Close() error }); ok {
		_ = c.Close()
	}
	m.core = nil
	m.timers = timerQueue{}
	m.writeHooks = nil
	m.SPI = ByteSignal{}
	m.TWI = ByteSignal{}
	m.TWIStart = ByteSignal{}
	m.State = Done
}

// UsecToCycles converts virtual microseconds to CPU cycles at the current frequency.
func (m *MCU) UsecToCycles(us uint64) uint64 {
	return us * m.hz() / 1_000_000
}

// CyclesToUsec converts CPU cycles to virtual microseconds.
func (m *MCU) CyclesToUsec(c uint64) uint64 {
	hz := m.hz()
	if hz == 0 {
		return 0
	}
	return c * 1_000_000 / hz
}

func (m *MCU) hz() uint64 {
	if m.Frequency <= 0 {
		return 0
	}
	return uint64(m.Frequency / physic.Hertz)
}
