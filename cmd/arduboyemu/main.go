package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
	"github.com/spf13/afero"
	"golang.org/x/term"

	"github.com/FabianRolfMatthiasNoll/arduboyemu/internal/eeprom"
	"github.com/FabianRolfMatthiasNoll/arduboyemu/internal/emu"
	"github.com/FabianRolfMatthiasNoll/arduboyemu/internal/script"
	"github.com/FabianRolfMatthiasNoll/arduboyemu/internal/termui"
	"github.com/FabianRolfMatthiasNoll/arduboyemu/internal/ui"
)

type CLIFlags struct {
	Program  string
	Title    string
	Scale    int
	FPS      int
	Settings string
	Trace    bool

	// emulation
	Tuned    bool
	Freq     frequencyFlag
	Postpone bool
	Core     string
	State    string // state file restored after setup

	// persistence
	EEPROM string // defaults to <program>.eeprom
	Save   bool   // persist EEPROM on exit
	EEOps  eepromOps

	// frontends
	Term      bool
	StatsView string // listen address, empty disables

	// headless
	Headless bool
	Frames   int
	PNGOut   string
	GIFOut   string
	Expect   string // expected framebuffer CRC32 hex (e.g., "1a2b3c4d")
	Press    string // comma separated buttons held for the whole run
	Script   string
}

func parseFlags() CLIFlags {
	f := CLIFlags{Freq: frequencyFlag{emu.DefaultFrequency}}
	flag.StringVar(&f.Program, "hex", "", "path to program (.hex or .arduboy); may also be the first argument")
	flag.StringVar(&f.Title, "title", "arduboyemu", "window title")
	flag.IntVar(&f.Scale, "scale", 0, "window and capture scale (0 keeps the saved setting)")
	flag.IntVar(&f.FPS, "fps", 0, "frames per second (0 keeps the saved setting)")
	flag.StringVar(&f.Settings, "settings", "arduboyemu.json", "UI settings file")
	flag.BoolVar(&f.Trace, "trace", false, "log every frame boundary")

	flag.BoolVar(&f.Tuned, "tuned", false, "detach timer1/timer3 interrupts")
	flag.Var(&f.Freq, "freq", "virtual CPU clock (e.g. 500kHz, 16MHz)")
	flag.BoolVar(&f.Postpone, "postpone", false, "hold frame boundaries until the display pass completes")
	flag.StringVar(&f.Core, "core", emu.DefaultCore, "instruction core")
	flag.StringVar(&f.State, "state", "", "restore a saved state after loading")

	flag.StringVar(&f.EEPROM, "eeprom", "", "EEPROM file (default: next to the program)")
	flag.BoolVar(&f.Save, "save", true, "persist EEPROM on exit and load on start")
	flag.StringVar(&f.EEOps.Backup, "eeprom-backup", "", "copy the EEPROM to this file before running")
	flag.StringVar(&f.EEOps.Restore, "eeprom-restore", "", "replace the EEPROM with this backup before running")
	flag.BoolVar(&f.EEOps.Clear, "eeprom-clear", false, "erase the EEPROM before running")

	flag.BoolVar(&f.Term, "term", false, "render in the terminal instead of a window")
	flag.StringVar(&f.StatsView, "statsview", "", "serve runtime stats on this address (e.g. localhost:18066)")

	flag.BoolVar(&f.Headless, "headless", false, "run without a window")
	flag.IntVar(&f.Frames, "frames", 300, "frames to run in headless mode")
	flag.StringVar(&f.PNGOut, "outpng", "", "write last framebuffer to PNG at path")
	flag.StringVar(&f.GIFOut, "gif", "", "record the headless run to an animated GIF")
	flag.StringVar(&f.Expect, "expect", "", "assert framebuffer CRC32 (hex)")
	flag.StringVar(&f.Press, "press", "", "buttons held during the headless run (e.g. a,right)")
	flag.StringVar(&f.Script, "script", "", "Lua script driving input")
	flag.Parse()
	if f.Program == "" && flag.NArg() > 0 {
		f.Program = flag.Arg(0)
	}
	return f
}

func startStatsView(addr string) {
	viewer.SetConfiguration(viewer.WithAddr(addr))
	mgr := statsview.New()
	go mgr.Start()
	log.Printf("stats server available at http://%s/debug/statsview", addr)
}

func main() {
	f := parseFlags()
	if f.Program == "" {
		log.Fatal("-hex is required")
	}
	fs := afero.NewOsFs()

	if f.StatsView != "" {
		startStatsView(f.StatsView)
	}

	// The terminal frontend owns the screen; keep the log off it.
	if f.Term {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			log.Fatal("-term needs a terminal on stdout")
		}
		log.SetOutput(io.Discard)
	}

	s := emu.New(emu.Config{
		Tuned:           f.Tuned,
		Frequency:       f.Freq.Frequency,
		PostponeRefresh: f.Postpone,
		Core:            f.Core,
		Trace:           f.Trace,
	})
	if err := s.SetupFile(fs, f.Program); err != nil {
		log.Fatal(err)
	}
	defer s.Teardown()
	img := s.Image()
	log.Printf("program: %q %d bytes crc32=%08x", img.Title(), len(img.Data), img.CRC32())

	eePath := f.EEPROM
	if eePath == "" {
		eePath = strings.TrimSuffix(f.Program, filepath.Ext(f.Program)) + ".eeprom"
	}
	var store *eeprom.Store
	if f.Save {
		store = eeprom.New(fs, eePath)
		data, err := store.Load()
		if err != nil {
			log.Fatalf("eeprom: %v", err)
		}
		if err := s.SetEEPROM(data); err != nil {
			log.Fatalf("eeprom: %v", err)
		}
	}
	if f.EEOps.any() {
		target := store
		if target == nil {
			target = eeprom.New(fs, eePath)
		}
		if err := applyEEPROMOps(s, target, f.EEOps); err != nil {
			log.Fatalf("eeprom: %v", err)
		}
	}
	if f.State != "" {
		if err := s.LoadStateFromFile(fs, f.State); err != nil {
			log.Fatalf("state: %v", err)
		}
	}

	var runner *script.Runner
	if f.Script != "" {
		runner = script.New(s)
		defer runner.Close()
		if err := runner.Load(fs, f.Script); err != nil {
			log.Fatalf("script: %v", err)
		}
	}

	var err error
	switch {
	case f.Headless:
		err = runHeadless(fs, s, headlessOptions{
			Frames: f.Frames,
			PNG:    f.PNGOut,
			GIF:    f.GIFOut,
			Expect: f.Expect,
			Press:  f.Press,
			Scale:  max(f.Scale, 1),
			Script: runner,
		})
		if serr := saveEEPROM(s, store); err == nil {
			err = serr
		}
	case f.Term:
		err = runTerminal(s, f.FPS)
		if serr := saveEEPROM(s, store); err == nil {
			err = serr
		}
	default:
		err = runWindow(fs, s, f, store, runner)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func runTerminal(s *emu.Session, fps int) error {
	screen, err := termui.Open()
	if err != nil {
		return err
	}
	defer screen.Fini()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	t := termui.New(s, screen)
	if fps > 0 {
		t.FPS = fps
	}
	return t.Run(ctx)
}

func runWindow(fs afero.Fs, s *emu.Session, f CLIFlags, store *eeprom.Store, runner *script.Runner) error {
	var cfg ui.Config
	if err := cfg.LoadSettings(fs, f.Settings); err != nil {
		log.Printf("settings: %v", err)
	}
	cfg.Title = f.Title
	if f.Scale > 0 {
		cfg.Scale = f.Scale
	}
	if f.FPS > 0 {
		cfg.FPS = f.FPS
	}
	if f.Postpone {
		cfg.Postpone = true
	}
	if cfg.Postpone != s.RefreshPostponed() {
		if err := s.SetRefreshTiming(cfg.Postpone); err != nil {
			return err
		}
	}
	app := ui.NewApp(cfg, fs, s, f.Program)
	app.EEPROM = store
	app.Script = runner
	err := app.Run()
	if cerr := app.Close(); err == nil {
		err = cerr
	}
	return err
}

// eepromOps are one-shot EEPROM maintenance steps run before emulation.
type eepromOps struct {
	Backup  string
	Restore string
	Clear   bool
}

func (o eepromOps) any() bool { return o.Backup != "" || o.Restore != "" || o.Clear }

// applyEEPROMOps updates both the session and store. The backup is taken
// before clear and restore so it holds the EEPROM as loaded.
func applyEEPROMOps(s *emu.Session, store *eeprom.Store, ops eepromOps) error {
	if ops.Backup != "" {
		data := make([]byte, emu.EEPROMSize)
		if err := s.EEPROM(data); err != nil {
			return err
		}
		if err := store.Backup(ops.Backup, data); err != nil {
			return fmt.Errorf("backup: %w", err)
		}
		log.Printf("eeprom backed up to %s", ops.Backup)
	}
	if ops.Clear {
		if err := store.Clear(); err != nil {
			return fmt.Errorf("clear: %w", err)
		}
		if err := s.SetEEPROM(eeprom.Blank()); err != nil {
			return err
		}
	}
	if ops.Restore != "" {
		data, err := store.Restore(ops.Restore)
		if err != nil {
			return fmt.Errorf("restore: %w", err)
		}
		if err := s.SetEEPROM(data); err != nil {
			return err
		}
		log.Printf("eeprom restored from %s", ops.Restore)
	}
	return nil
}

func saveEEPROM(s *emu.Session, store *eeprom.Store) error {
	if store == nil {
		return nil
	}
	data := make([]byte, emu.EEPROMSize)
	if err := s.EEPROM(data); err != nil {
		return err
	}
	if err := store.Save(data); err != nil {
		return fmt.Errorf("eeprom: %w", err)
	}
	log.Printf("wrote %s", store.Path())
	return nil
}
