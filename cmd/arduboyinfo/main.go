// Command arduboyinfo prints what a program file contains without running it,
// and optionally runs it for a number of frames to report the final screen.
package main

import (
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"hash/crc32"
	"io"
	"log"
	"os"

	"github.com/spf13/afero"

	"github.com/FabianRolfMatthiasNoll/arduboyemu/internal/cart"
	"github.com/FabianRolfMatthiasNoll/arduboyemu/internal/eeprom"
	"github.com/FabianRolfMatthiasNoll/arduboyemu/internal/emu"
)

func main() {
	asJSON := flag.Bool("json", false, "print the bundle manifest as JSON")
	eepromPath := flag.String("eeprom", "", "also hex-dump this EEPROM file")
	frames := flag.Int("frames", 0, "run this many frames and report LEDs and screen CRC")
	core := flag.String("core", emu.DefaultCore, "instruction core for -frames")
	flag.Parse()
	if flag.NArg() != 1 {
		log.Fatal("usage: arduboyinfo [flags] program.hex|program.arduboy")
	}
	fs := afero.NewOsFs()
	img, err := cart.Load(fs, flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}
	if err := describe(os.Stdout, img, *asJSON); err != nil {
		log.Fatal(err)
	}
	if *eepromPath != "" {
		data, err := eeprom.New(fs, *eepromPath).Load()
		if err != nil {
			log.Fatal(err)
		}
		dumpEEPROM(os.Stdout, data)
	}
	if *frames > 0 {
		if err := run(os.Stdout, img, *core, *frames); err != nil {
			log.Fatal(err)
		}
	}
}

func describe(w io.Writer, img *cart.Image, asJSON bool) error {
	fmt.Fprintf(w, "title:  %s\n", img.Title())
	fmt.Fprintf(w, "file:   %s\n", img.Name)
	fmt.Fprintf(w, "flash:  %#05x..%#05x (%d bytes, %.1f%% of %d)\n",
		img.Base, img.End(), len(img.Data), 100*float64(len(img.Data))/cart.MaxSize, cart.MaxSize)
	fmt.Fprintf(w, "crc32:  %08x\n", img.CRC32())
	if img.Info == nil {
		return nil
	}
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(img.Info)
	}
	fmt.Fprintf(w, "author: %s\n", img.Info.Author)
	fmt.Fprintf(w, "device: %s\n", img.Info.DeviceString())
	if img.Info.Version != "" {
		fmt.Fprintf(w, "version: %s\n", img.Info.Version)
	}
	if img.Info.Genre != "" {
		fmt.Fprintf(w, "genre:  %s\n", img.Info.Genre)
	}
	return nil
}

// dumpEEPROM prints only the rows that differ from an erased EEPROM.
func dumpEEPROM(w io.Writer, data []byte) {
	blank := eeprom.Blank()
	used := 0
	for off := 0; off < len(data); off += 16 {
		end := min(off+16, len(data))
		if string(data[off:end]) == string(blank[off:end]) {
			continue
		}
		used++
		fmt.Fprintf(w, "%04x  %s\n", off, hex.EncodeToString(data[off:end]))
	}
	if used == 0 {
		fmt.Fprintln(w, "eeprom: erased")
	}
}

func run(w io.Writer, img *cart.Image, core string, frames int) error {
	s := emu.New(emu.Config{Core: core, Logger: log.New(io.Discard, "", 0)})
	if err := s.Setup(img); err != nil {
		return err
	}
	defer s.Teardown()
	for i := 0; i < frames; i++ {
		if err := s.StepFrame(); err != nil {
			return fmt.Errorf("frame %d: %w", i+1, err)
		}
	}
	leds, err := s.LEDs()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "frames: %d rebuilds=%d\n", s.Frames(), s.LumaRebuilds())
	fmt.Fprintf(w, "leds:   red=%d green=%d blue=%d rx=%d tx=%d\n", leds.Red, leds.Green, leds.Blue, leds.Rx, leds.Tx)
	fmt.Fprintf(w, "screen: crc32=%08x\n", crc32.ChecksumIEEE(s.FramebufferRGBA()))
	return nil
}
