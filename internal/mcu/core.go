package mcu

import (
	"fmt"
	"sort"
	"sync"
)

// Core executes the instruction set. Step runs one instruction against m,
// updating PC, State and memories through m.Write, and returns the cycles spent.
// Sleeping cores are woken by timers or IO hooks setting m.State back to Running.
type Core interface {
	Step(m *MCU) uint64
}

// CoreFunc adapts a function to Core.
type CoreFunc func(m *MCU) uint64

func (f CoreFunc) Step(m *MCU) uint64 { return f(m) }

// IdleCore never executes program code: every step puts the MCU to sleep, so
// virtual time only advances through timer deadlines.
type IdleCore struct{}

func (IdleCore) Step(m *MCU) uint64 {
	m.State = Sleeping
	return 1
}

var (
	coresMu sync.Mutex
	cores   = map[string]func() Core{
		"idle": func() Core { return IdleCore{} },
	}
)

// RegisterCore makes a core implementation available by name.
func RegisterCore(name string, factory func() Core) {
	coresMu.Lock()
	defer coresMu.Unlock()
	cores[name] = factory
}

// NewCore instantiates a registered core.
func NewCore(name string) (Core, error) {
	coresMu.Lock()
	defer coresMu.Unlock()
	f, ok := cores[name]
	if !ok {
		return nil, fmt.Errorf("mcu: unknown core %q", name)
	}
	return f(), nil
}

// Cores lists the registered core names.
func Cores() []string {
	coresMu.Lock()
	defer coresMu.Unlock()
	out := make([]string, 0, len(cores))
	for n := range cores {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
