// Package ssd1306 models the VRAM and register state of an SSD1306 OLED
// controller attached to a simulated MCU.
//
// Only the commands that change what the panel shows are decoded (display
// on/off, contrast, inversion, mirroring and the addressing window). Every
// other command has its argument bytes consumed and is otherwise ignored.
package ssd1306

const (
	Columns = 128
	Pages   = 8
	Width   = Columns
	Height  = Pages * 8
)

// Flag is a controller status bit.
type Flag uint8

const (
	FlagDisplayOn Flag = 1 << iota
	// FlagSegmentRemapReversed mirrors columns relative to the Arduboy panel mounting.
	FlagSegmentRemapReversed
	// FlagComScanReversed mirrors rows relative to the Arduboy panel mounting.
	FlagComScanReversed
	FlagInverted
	// FlagDirty is set by every VRAM data write and cleared by the reader.
	FlagDirty
)

// Addressing modes (command 0x20).
const (
	AddrHorizontal = 0
	AddrVertical   = 1
	AddrPage       = 2
)

// Cursor is the VRAM position of the next data byte.
type Cursor struct {
	Page, Column int
}

// CommitFunc observes a data byte stored at (page, column).
type CommitFunc func(page, column int)

// Controller is the controller state: VRAM, flags, contrast and cursor.
type Controller struct {
	VRAM     [Pages][Columns]byte
	Contrast byte
	Cursor   Cursor

	flags    Flag
	addrMode byte

	colStart, colEnd   int
	pageStart, pageEnd int

	// pin levels, updated from the MCU ports by Connect
	selected bool // CS low
	dataMode bool // DC high

	cmd []byte

	twiControl bool // next TWI byte is a control byte
	twiStream  bool // control byte had Co cleared: rest of the transfer is payload

	spiCommit []CommitFunc
	twiCommit []CommitFunc
}

// New returns a controller in its power-on reset state.
func New() *Controller {
	c := &Controller{selected: true}
	c.Reset()
	return c
}

// Reset restores register defaults. VRAM keeps its contents.
func (c *Controller) Reset() {
	c.flags = 0
	c.Contrast = 0x7F
	c.addrMode = AddrPage
	c.colStart, c.colEnd = 0, Columns-1
	c.pageStart, c.pageEnd = 0, Pages-1
	c.Cursor = Cursor{}
	c.cmd = c.cmd[:0]
	c.twiControl = true
	c.twiStream = false
}

// Flag reports whether f is set.
func (c *Controller) Flag(f Flag) bool { return c.flags&f != 0 }

// SetFlag sets or clears f.
func (c *Controller) SetFlag(f Flag, on bool) {
	if on {
		c.flags |= f
	} else {
		c.flags &^= f
	}
}

// VRAMByte returns the 8-pixel vertical strip at (page, column).
func (c *Controller) VRAMByte(page, column int) byte { return c.VRAM[page][column] }

func (c *Controller) Dirty() bool { return c.Flag(FlagDirty) }

func (c *Controller) ClearDirty() { c.SetFlag(FlagDirty, false) }

// OnSPICommit registers fn for data bytes arriving over SPI.
func (c *Controller) OnSPICommit(fn CommitFunc) { c.spiCommit = append(c.spiCommit, fn) }

// OnTWICommit registers fn for data bytes arriving over TWI.
func (c *Controller) OnTWICommit(fn CommitFunc) { c.twiCommit = append(c.twiCommit, fn) }

// SPIByteIn accepts a byte shifted in over SPI. It is ignored unless the chip
// is selected; the DC line decides between data and command.
func (c *Controller) SPIByteIn(b byte) {
	if !c.selected {
		return
	}
	if c.dataMode {
		c.writeData(b, c.spiCommit)
		return
	}
	c.command(b)
}

// TWIStart begins a new TWI transfer; the next byte is a control byte.
func (c *Controller) TWIStart() {
	c.twiControl = true
	c.twiStream = false
}

// TWIByteIn accepts a byte of a TWI transfer after the address byte.
func (c *Controller) TWIByteIn(b byte) {
	if c.twiControl {
		c.dataMode = b&0x40 != 0
		c.twiStream = b&0x80 == 0
		c.twiControl = false
		return
	}
	if c.dataMode {
		c.writeData(b, c.twiCommit)
	} else {
		c.command(b)
	}
	if !c.twiStream {
		c.twiControl = true
	}
}

func (c *Controller) writeData(b byte, commit []CommitFunc) {
	p, col := c.Cursor.Page, c.Cursor.Column
	c.VRAM[p][col] = b
	c.flags |= FlagDirty
	for _, fn := range commit {
		fn(p, col)
	}
	c.advance()
}

func (c *Controller) advance() {
	switch c.addrMode {
	case AddrHorizontal:
		if c.Cursor.Column++; c.Cursor.Column > c.colEnd {
			c.Cursor.Column = c.colStart
			if c.Cursor.Page++; c.Cursor.Page > c.pageEnd {
				c.Cursor.Page = c.pageStart
			}
		}
	case AddrVertical:
		if c.Cursor.Page++; c.Cursor.Page > c.pageEnd {
			c.Cursor.Page = c.pageStart
			if c.Cursor.Column++; c.Cursor.Column > c.colEnd {
				c.Cursor.Column = c.colStart
			}
		}
	default:
		if c.Cursor.Column++; c.Cursor.Column >= Columns {
			c.Cursor.Column = 0
		}
	}
}
