// Package display turns the bitplane VRAM of a 128x64 monochrome OLED into
// packed ARGB pixels.
package display

import (
	"errors"
	"fmt"
)

const (
	Width   = 128
	Height  = 64
	Pages   = Height / 8
	Columns = Width

	// Pixels is the size of a full frame buffer.
	Pixels = Width * Height
)

var ErrBufferSize = errors.New("display: buffer too small")

// Flags is the controller state that affects how VRAM is shown.
type Flags struct {
	DisplayOn            bool
	SegmentRemapReversed bool // mirror horizontally
	ComScanReversed      bool // mirror vertically
	Inverted             bool
	Contrast             uint8
}

// Opacity maps the contrast register to a brightness in [0.5, 1).
func Opacity(contrast uint8) float64 {
	return float64(contrast)/512 + 0.5
}

// Gray packs an opaque gray pixel.
func Gray(v uint8) uint32 {
	c := uint32(v)
	return 0xFF000000 | c<<16 | c<<8 | c
}

// Black is an opaque black pixel.
const Black uint32 = 0xFF000000

// Colors returns the foreground (lit) and background pixel values for f.
// Inversion swaps the two rather than brightening the background.
func Colors(f Flags) (fg, bg uint32) {
	lit := Gray(uint8(255 * Opacity(f.Contrast)))
	if f.Inverted {
		return Black, lit
	}
	return lit, Black
}

// Decode renders luma into dst using the orientation and color flags. dst is
// walked row-major from the top-left; the source is walked from the corner
// selected by the mirroring flags. When the display is off dst is untouched.
func Decode(dst []uint32, luma *LumaMap, f Flags) error {
	if len(dst) < Pixels {
		return fmt.Errorf("%w: %d pixels, need %d", ErrBufferSize, len(dst), Pixels)
	}
	if luma == nil {
		return errors.New("display: nil luma map")
	}
	if !f.DisplayOn {
		return nil
	}
	fg, bg := Colors(f)

	sy, dy := 0, 1
	if f.ComScanReversed {
		sy, dy = Height-1, -1
	}
	sx0, dx := 0, 1
	if f.SegmentRemapReversed {
		sx0, dx = Width-1, -1
	}
	i := 0
	for y := 0; y < Height; y, sy = y+1, sy+dy {
		row := &luma[sy]
		for x, sx := 0, sx0; x < Width; x, sx = x+1, sx+dx {
			if row[sx] {
				dst[i] = fg
			} else {
				dst[i] = bg
			}
			i++
		}
	}
	return nil
}

// ToRGBA unpacks ARGB pixels into R,G,B,A byte quadruples.
func ToRGBA(dst []byte, src []uint32) error {
	if len(dst) < 4*len(src) {
		return fmt.Errorf("%w: %d bytes, need %d", ErrBufferSize, len(dst), 4*len(src))
	}
	for i, p := range src {
		o := i * 4
		dst[o+0] = byte(p >> 16)
		dst[o+1] = byte(p >> 8)
		dst[o+2] = byte(p)
		dst[o+3] = byte(p >> 24)
	}
	return nil
}
