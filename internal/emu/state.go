package emu

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/spf13/afero"

	"github.com/FabianRolfMatthiasNoll/arduboyemu/internal/mcu"
	"github.com/FabianRolfMatthiasNoll/arduboyemu/internal/ssd1306"
)

// stateful is implemented by cores that can snapshot their registers.
type stateful interface {
	SaveState() []byte
	LoadState(data []byte) error
}

type sessionState struct {
	ImageCRC   uint32
	Data       []byte
	EEPROM     []byte
	PC         uint32
	Cycle      uint64
	CPU        mcu.State
	Controller []byte
	Core       []byte
	Frames     uint64
}

// SaveState snapshots the running program. The core's registers are included
// only when the core supports it.
func (s *Session) SaveState() ([]byte, error) {
	if s.state != Running {
		return nil, ErrNotInitialized
	}
	st := sessionState{
		ImageCRC:   s.img.CRC32(),
		Data:       s.mcu.Data,
		EEPROM:     s.mcu.EEPROM.Bytes(),
		PC:         s.mcu.PC,
		Cycle:      s.mcu.Cycle,
		CPU:        s.mcu.State,
		Controller: s.ctrl.SaveState(),
		Frames:     s.frames,
	}
	if c, ok := s.mcu.Core().(stateful); ok {
		st.Core = c.SaveState()
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(st); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// LoadState restores a snapshot taken from the same program image.
func (s *Session) LoadState(data []byte) error {
	if s.state != Running {
		return ErrNotInitialized
	}
	var st sessionState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&st); err != nil {
		return err
	}
	if st.ImageCRC != s.img.CRC32() {
		return fmt.Errorf("emu: state belongs to another program (crc %08x, loaded %08x)", st.ImageCRC, s.img.CRC32())
	}
	if len(st.Data) != len(s.mcu.Data) || len(st.EEPROM) != len(s.mcu.EEPROM.Bytes()) {
		return fmt.Errorf("emu: state memory layout mismatch")
	}
	if s.period == 0 {
		return ErrFrequency
	}
	// Nothing is applied until every part has decoded.
	if err := ssd1306.New().LoadState(st.Controller); err != nil {
		return fmt.Errorf("emu: controller state: %w", err)
	}
	if c, ok := s.mcu.Core().(stateful); ok && st.Core != nil {
		prev := c.SaveState()
		if err := c.LoadState(st.Core); err != nil {
			_ = c.LoadState(prev)
			return fmt.Errorf("emu: core state: %w", err)
		}
	}
	_ = s.ctrl.LoadState(st.Controller)
	copy(s.mcu.Data, st.Data)
	copy(s.mcu.EEPROM.Bytes(), st.EEPROM)
	s.mcu.PC = st.PC
	s.mcu.Cycle = st.Cycle
	s.mcu.State = st.CPU
	s.frames = st.Frames

	// Refresh deadlines are multiples of the period since Setup.
	s.mcu.CancelTimer(s.timer)
	next := (st.Cycle/s.period + 1) * s.period
	s.timer = s.mcu.RegisterTimer(next-st.Cycle, s.tick)
	s.held = false
	s.luma.Rebuild(s.ctrl)
	return nil
}

func (s *Session) SaveStateToFile(fs afero.Fs, path string) error {
	data, err := s.SaveState()
	if err != nil {
		return err
	}
	return afero.WriteFile(fs, path, data, 0o644)
}

func (s *Session) LoadStateFromFile(fs afero.Fs, path string) error {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return err
	}
	return s.LoadState(data)
}
