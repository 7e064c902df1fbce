package ssd1306

import (
	"bytes"
	"encoding/gob"
)

type controllerState struct {
	VRAM       [Pages][Columns]byte
	Contrast   byte
	Cursor     Cursor
	Flags      Flag
	AddrMode   byte
	Window     [4]int
	Pending    []byte
	TWIControl bool
	TWIStream  bool
}

// SaveState serializes registers and VRAM. Pin levels are not included; they
// are re-read from the MCU ports on the next port write.
func (c *Controller) SaveState() []byte {
	var buf bytes.Buffer
	_ = gob.NewEncoder(&buf).Encode(controllerState{
		VRAM:       c.VRAM,
		Contrast:   c.Contrast,
		Cursor:     c.Cursor,
		Flags:      c.flags,
		AddrMode:   c.addrMode,
		Window:     [4]int{c.colStart, c.colEnd, c.pageStart, c.pageEnd},
		Pending:    c.cmd,
		TWIControl: c.twiControl,
		TWIStream:  c.twiStream,
	})
	return buf.Bytes()
}

func (c *Controller) LoadState(data []byte) error {
	var s controllerState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return err
	}
	c.VRAM = s.VRAM
	c.Contrast = s.Contrast
	c.Cursor = s.Cursor
	c.flags = s.Flags
	c.addrMode = s.AddrMode
	c.colStart, c.colEnd, c.pageStart, c.pageEnd = s.Window[0], s.Window[1], s.Window[2], s.Window[3]
	c.cmd = append(c.cmd[:0], s.Pending...)
	c.twiControl = s.TWIControl
	c.twiStream = s.TWIStream
	return nil
}
