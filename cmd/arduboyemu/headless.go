package main

import (
	"fmt"
	"hash/crc32"
	"log"
	"strings"
	"time"

	"github.com/spf13/afero"
	"periph.io/x/conn/v3/physic"

	"github.com/FabianRolfMatthiasNoll/arduboyemu/internal/capture"
	"github.com/FabianRolfMatthiasNoll/arduboyemu/internal/emu"
	"github.com/FabianRolfMatthiasNoll/arduboyemu/internal/script"
)

// frequencyFlag parses clock values like "500kHz" on the command line.
type frequencyFlag struct{ physic.Frequency }

func (f *frequencyFlag) Set(s string) error { return f.Frequency.Set(s) }

type headlessOptions struct {
	Frames int
	PNG    string
	GIF    string
	Expect string
	Press  string
	Scale  int
	Script *script.Runner
}

// parsePress turns "a,right" into held buttons.
func parsePress(list string) (emu.Buttons, error) {
	var held [emu.ButtonCount]bool
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		b, err := emu.ParseButton(name)
		if err != nil {
			return emu.Buttons{}, err
		}
		held[b] = true
	}
	return emu.Buttons{
		Up: held[emu.ButtonUp], Down: held[emu.ButtonDown],
		Left: held[emu.ButtonLeft], Right: held[emu.ButtonRight],
		A: held[emu.ButtonA], B: held[emu.ButtonB],
	}, nil
}

// frameCRC is the checksum -expect compares against.
func frameCRC(s *emu.Session) uint32 { return crc32.ChecksumIEEE(s.FramebufferRGBA()) }

func runHeadless(fs afero.Fs, s *emu.Session, o headlessOptions) error {
	frames := max(o.Frames, 1)
	if o.Press != "" {
		held, err := parsePress(o.Press)
		if err != nil {
			return err
		}
		if err := s.SetButtons(held); err != nil {
			return err
		}
	}
	var rec *capture.Recorder
	if o.GIF != "" {
		rec = capture.NewRecorder(fs, o.GIF, o.Scale, 60)
	}

	start := time.Now()
	ran := 0
	for ran < frames {
		if err := s.StepFrame(); err != nil {
			return err
		}
		ran++
		if rec != nil {
			if err := rec.AddFrame(s.Framebuffer()); err != nil {
				return fmt.Errorf("record GIF: %w", err)
			}
		}
		if o.Script != nil {
			if err := o.Script.Frame(); err != nil {
				return fmt.Errorf("script: %w", err)
			}
			if o.Script.Stopped() {
				break
			}
		}
	}
	dur := time.Since(start)

	crc := frameCRC(s)
	log.Printf("headless: frames=%d elapsed=%s fps=%.2f fb_crc32=%08x",
		ran, dur.Truncate(time.Millisecond), float64(ran)/dur.Seconds(), crc)

	if o.PNG != "" {
		if err := capture.SavePNG(fs, o.PNG, s.Framebuffer(), o.Scale); err != nil {
			return fmt.Errorf("write PNG: %w", err)
		}
		log.Printf("wrote %s", o.PNG)
	}
	if rec != nil {
		if err := rec.Finish(); err != nil {
			return fmt.Errorf("write GIF: %w", err)
		}
		log.Printf("wrote %s (%d frames)", o.GIF, rec.Frames())
	}

	if o.Expect != "" {
		// normalize expected hex (allow with/without 0x, upper/lowercase)
		want := strings.TrimPrefix(strings.ToLower(o.Expect), "0x")
		got := fmt.Sprintf("%08x", crc)
		if got != want {
			return fmt.Errorf("checksum mismatch: got %s, want %s", got, want)
		}
	}
	return nil
}
