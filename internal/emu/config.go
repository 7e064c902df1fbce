package emu

import (
	"log"

	"periph.io/x/conn/v3/physic"

	"github.com/FabianRolfMatthiasNoll/arduboyemu/internal/mcu"
)

const (
	// DefaultFrequency is the virtual CPU clock. It is deliberately far below
	// the 16 MHz of the real board to keep one frame cheap to simulate.
	DefaultFrequency = 500 * physic.KiloHertz

	// RefreshPeriod is the virtual time between frame boundaries, in µs.
	RefreshPeriod = 512000

	// DefaultCore is the instruction core used when Config.Core is empty.
	DefaultCore = "idle"
)

// Config contains settings that affect emulation behavior.
type Config struct {
	Tuned           bool             // detach timer1/timer3 interrupt vectors
	Frequency       physic.Frequency // 0 means DefaultFrequency
	PostponeRefresh bool             // hold a frame boundary until the display pass completes
	Core            string           // registered mcu core name
	// NewCore overrides Core when set; embedders and tests supply their own CPU here.
	NewCore func() mcu.Core
	Logger  *log.Logger // nil means log.Default()
	Trace   bool        // log every frame boundary
}

func (c Config) frequency() physic.Frequency {
	if c.Frequency <= 0 {
		return DefaultFrequency
	}
	return c.Frequency
}

func (c Config) logger() *log.Logger {
	if c.Logger == nil {
		return log.Default()
	}
	return c.Logger
}

func (c Config) newCore() (mcu.Core, error) {
	if c.NewCore != nil {
		return c.NewCore(), nil
	}
	name := c.Core
	if name == "" {
		name = DefaultCore
	}
	return mcu.NewCore(name)
}
