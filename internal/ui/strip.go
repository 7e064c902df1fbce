package ui

import (
	"fmt"
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"

	"github.com/FabianRolfMatthiasNoll/arduboyemu/internal/emu"
)

var (
	stripBG   = color.RGBA{0x18, 0x18, 0x18, 0xFF}
	stripText = color.RGBA{0xC0, 0xC0, 0xC0, 0xFF}
	ledOff    = color.RGBA{0x30, 0x30, 0x30, 0xFF}
)

// ledColor tints an LED by its brightness. Unlit LEDs are drawn dark gray.
func ledColor(l emu.LED, v uint8) color.RGBA {
	if v == 0 {
		return ledOff
	}
	switch l {
	case emu.LEDRed:
		return color.RGBA{v, 0, 0, 0xFF}
	case emu.LEDGreen:
		return color.RGBA{0, v, 0, 0xFF}
	case emu.LEDBlue:
		return color.RGBA{0, 0, v, 0xFF}
	default: // rx/tx are yellow on the board
		return color.RGBA{v, v, 0, 0xFF}
	}
}

func (a *App) statusText() string {
	if a.toastMsg != "" && time.Now().Before(a.toastUntil) {
		return a.toastMsg
	}
	s := fmt.Sprintf("F%d S%d", a.s.Frames(), a.currentSlot+1)
	switch {
	case a.halted:
		s += " HALT"
	case a.paused:
		s += " PAUSE"
	case a.fast:
		s += " FAST"
	}
	if a.rec != nil {
		s += " REC"
	}
	return s
}

func (a *App) drawStrip(screen *ebiten.Image, y int) {
	h := a.stripHeight()
	if h == 0 {
		return
	}
	vector.DrawFilledRect(screen, 0, float32(y), float32(a.curW), float32(h), stripBG, false)
	ledsW := 0
	if a.cfg.ShowLEDs {
		leds, err := a.s.LEDs()
		if err == nil {
			const r, gap = 4, 12
			ledsW = int(emu.LEDCount)*gap + 4
			x := float32(a.curW - ledsW + gap/2)
			for l := emu.LED(0); l < emu.LEDCount; l++ {
				vector.DrawFilledCircle(screen, x, float32(y+h/2), r, ledColor(l, leds.Get(l)), true)
				x += gap
			}
		}
	}
	if a.cfg.ShowStatus {
		face := basicfont.Face7x13
		label := a.statusText()
		n := (a.curW - ledsW - 8) / 7
		if n < 1 {
			return
		}
		if len(label) > n {
			label = label[:n]
		}
		// baseline sits 3px above the strip's bottom edge
		text.Draw(screen, label, face, 4, y+h-3, stripText)
	}
}
