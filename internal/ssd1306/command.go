package ssd1306

// argCount returns how many argument bytes follow command op.
func argCount(op byte) int {
	switch op {
	case 0x81, 0x20, 0xA8, 0xD3, 0xD5, 0xD9, 0xDA, 0xDB, 0x8D:
		return 1
	case 0x21, 0x22, 0xA3:
		return 2
	case 0x29, 0x2A:
		return 5
	case 0x26, 0x27:
		return 6
	default:
		return 0
	}
}

func (c *Controller) command(b byte) {
	c.cmd = append(c.cmd, b)
	if len(c.cmd) <= argCount(c.cmd[0]) {
		return
	}
	c.execute(c.cmd[0], c.cmd[1:])
	c.cmd = c.cmd[:0]
}

func (c *Controller) execute(op byte, args []byte) {
	switch {
	case op == 0xAE:
		c.SetFlag(FlagDisplayOn, false)
	case op == 0xAF:
		c.SetFlag(FlagDisplayOn, true)
	case op == 0x81:
		c.Contrast = args[0]
	case op == 0xA6:
		c.SetFlag(FlagInverted, false)
	case op == 0xA7:
		c.SetFlag(FlagInverted, true)
	// The Arduboy panel is mounted rotated: its firmware selects A1/C8 for an
	// upright image, so A0/C0 are the mirrored settings.
	case op == 0xA0:
		c.SetFlag(FlagSegmentRemapReversed, true)
	case op == 0xA1:
		c.SetFlag(FlagSegmentRemapReversed, false)
	case op == 0xC0:
		c.SetFlag(FlagComScanReversed, true)
	case op == 0xC8:
		c.SetFlag(FlagComScanReversed, false)
	case op == 0x20:
		if m := args[0] & 0x03; m <= AddrPage {
			c.addrMode = m
		}
	case op == 0x21:
		c.colStart = int(args[0] & 0x7F)
		c.colEnd = int(args[1] & 0x7F)
		c.Cursor.Column = c.colStart
	case op == 0x22:
		c.pageStart = int(args[0] & 0x07)
		c.pageEnd = int(args[1] & 0x07)
		c.Cursor.Page = c.pageStart
	case op >= 0xB0 && op <= 0xB7:
		c.Cursor.Page = int(op & 0x07)
	case op <= 0x0F:
		c.Cursor.Column = c.Cursor.Column&0x70 | int(op&0x0F)
	case op >= 0x10 && op <= 0x17:
		c.Cursor.Column = c.Cursor.Column&0x0F | int(op&0x07)<<4
	}
}
