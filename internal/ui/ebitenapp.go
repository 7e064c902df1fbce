// Package ui is the windowed frontend: it drives an emu.Session from the
// ebiten game loop and maps the keyboard onto the Arduboy buttons.
package ui

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/spf13/afero"
	"golang.design/x/clipboard"

	"github.com/FabianRolfMatthiasNoll/arduboyemu/internal/capture"
	"github.com/FabianRolfMatthiasNoll/arduboyemu/internal/display"
	"github.com/FabianRolfMatthiasNoll/arduboyemu/internal/eeprom"
	"github.com/FabianRolfMatthiasNoll/arduboyemu/internal/emu"
	"github.com/FabianRolfMatthiasNoll/arduboyemu/internal/script"
)

const (
	stripH = 16 // status/LED strip below the screen
	slots  = 4
)

type App struct {
	cfg  Config
	fs   afero.Fs
	s    *emu.Session
	path string // loaded program

	// EEPROM, if set, is loaded on program switch and saved by Close.
	EEPROM *eeprom.Store
	// Script, if set, runs after every frame; stop() in the script ends Run.
	Script *script.Runner

	tex    *ebiten.Image
	paused bool
	fast   bool
	halted bool
	rec    *capture.Recorder

	curW, curH int

	// overlay/menu
	showMenu    bool
	menuMode    string // main, slot, program, settings, eeprom, keys
	menuIdx     int
	currentSlot int
	progList    []string
	progSel     int
	progOff     int
	keysOff     int
	settingsOff int
	editingDir  bool
	dirInput    string

	toastMsg   string
	toastUntil time.Time

	clipboardOnce sync.Once
	clipboardOK   bool
}

// NewApp wraps a running session. path is the program s was set up from.
func NewApp(cfg Config, fs afero.Fs, s *emu.Session, path string) *App {
	cfg.Defaults()
	a := &App{cfg: cfg, fs: fs, s: s, path: path, menuMode: "main"}
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(cfg.FPS)
	a.applyWindowSize()
	a.applyTitle()
	return a
}

func (a *App) Run() error {
	err := ebiten.RunGame(a)
	if errors.Is(err, ebiten.Termination) {
		err = nil
	}
	return err
}

// Close finishes a pending recording and persists EEPROM.
func (a *App) Close() error {
	var errs []error
	if a.rec != nil {
		errs = append(errs, a.rec.Finish())
		a.rec = nil
	}
	errs = append(errs, a.saveEEPROM())
	return errors.Join(errs...)
}

// keyButtons maps the keyboard onto the Arduboy buttons.
func keyButtons(pressed func(ebiten.Key) bool) emu.Buttons {
	return emu.Buttons{
		Up:    pressed(ebiten.KeyArrowUp),
		Down:  pressed(ebiten.KeyArrowDown),
		Left:  pressed(ebiten.KeyArrowLeft),
		Right: pressed(ebiten.KeyArrowRight),
		A:     pressed(ebiten.KeyZ),
		B:     pressed(ebiten.KeyX),
	}
}

// inputButtons is the keyboard state plus the buttons a script holds down.
func (a *App) inputButtons(pressed func(ebiten.Key) bool) emu.Buttons {
	b := keyButtons(pressed)
	if a.Script != nil {
		b = b.Or(a.Script.Held())
	}
	return b
}

func (a *App) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) && (!a.showMenu || a.menuMode == "main") && !a.editingDir {
		a.showMenu = !a.showMenu
		a.menuMode = "main"
		a.menuIdx = 0
		return nil
	}
	if a.showMenu {
		switch a.menuMode {
		case "slot":
			a.updateSlotMenu()
		case "program":
			a.updateProgramMenu()
		case "settings":
			a.updateSettingsMenu()
		case "keys":
			a.updateKeysMenu()
		case "eeprom":
			a.updateEEPROMMenu()
		default:
			a.updateMainMenu()
		}
		return nil
	}

	if err := a.hotkeys(); err != nil {
		return err
	}
	if a.s.State() != emu.Running || a.halted {
		return nil
	}
	if err := a.s.SetButtons(a.inputButtons(ebiten.IsKeyPressed)); err != nil {
		return err
	}

	// Frame-step when paused (N)
	if a.paused {
		if inpututil.IsKeyJustPressed(ebiten.KeyN) {
			return a.runFrame()
		}
		return nil
	}
	n := 1
	if a.fast {
		n = a.cfg.FastFrames
	}
	for i := 0; i < n && !a.halted; i++ {
		if err := a.runFrame(); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) hotkeys() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		a.paused = !a.paused
	}
	a.fast = ebiten.IsKeyPressed(ebiten.KeyTab)
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		if err := a.reset(); err != nil {
			a.toast("Reset failed: " + err.Error())
		} else {
			a.toast("Reset")
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF5) {
		a.slotAction(a.saveSlot, "Saved")
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF9) {
		a.slotAction(a.loadSlot, "Loaded")
	}
	for i, k := range []ebiten.Key{ebiten.Key1, ebiten.Key2, ebiten.Key3, ebiten.Key4} {
		if inpututil.IsKeyJustPressed(k) {
			a.currentSlot = i
			a.toast(fmt.Sprintf("Slot %d", i+1))
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF10) {
		a.toggleRecording()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		ebiten.SetFullscreen(!ebiten.IsFullscreen())
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		save := a.saveScreenshot
		if ebiten.IsKeyPressed(ebiten.KeyShift) {
			save = a.saveSnapshotGIF
		}
		if name, err := save(); err != nil {
			a.toast("Screenshot failed: " + err.Error())
		} else {
			a.toast("Saved " + filepath.Base(name))
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		if err := a.copyScreen(); err != nil {
			a.toast("Copy failed: " + err.Error())
		} else {
			a.toast("Copied to clipboard")
		}
	}
	return nil
}

func (a *App) runFrame() error {
	if err := a.s.StepFrame(); err != nil {
		if errors.Is(err, emu.ErrHalted) {
			a.halted = true
			a.toast("Halted, R to reset")
			log.Printf("ui: %v", err)
			return nil
		}
		return err
	}
	if a.rec != nil {
		if err := a.rec.AddFrame(a.s.Framebuffer()); err != nil {
			a.toast("Recording failed: " + err.Error())
			a.rec = nil
		}
	}
	if a.Script != nil {
		if err := a.Script.Frame(); err != nil {
			return err
		}
		if a.Script.Stopped() {
			return ebiten.Termination
		}
	}
	return nil
}

// reset rebuilds the session from the loaded image, keeping EEPROM.
func (a *App) reset() error {
	img := a.s.Image()
	if img == nil {
		return emu.ErrNotInitialized
	}
	ee := make([]byte, emu.EEPROMSize)
	haveEE := a.s.EEPROM(ee) == nil
	a.s.Teardown()
	if err := a.s.Setup(img); err != nil {
		return err
	}
	if err := a.afterSetup(); err != nil {
		return err
	}
	if haveEE {
		return a.s.SetEEPROM(ee)
	}
	return nil
}

// switchProgram loads path, persisting the EEPROM of the current program first.
func (a *App) switchProgram(path string) error {
	if err := a.saveEEPROM(); err != nil {
		log.Printf("ui: eeprom: %v", err)
	}
	a.s.Teardown()
	if err := a.s.SetupFile(a.fs, path); err != nil {
		return err
	}
	a.path = path
	if err := a.afterSetup(); err != nil {
		return err
	}
	if a.EEPROM != nil {
		a.EEPROM = eeprom.New(a.fs, eepromPath(path))
		data, err := a.EEPROM.Load()
		if err != nil {
			return err
		}
		if err := a.s.SetEEPROM(data); err != nil {
			return err
		}
	}
	a.applyTitle()
	return nil
}

// afterSetup carries run-time settings over to a freshly built session.
func (a *App) afterSetup() error {
	a.halted = false
	return a.s.SetRefreshTiming(a.cfg.Postpone)
}

func (a *App) saveEEPROM() error {
	if a.EEPROM == nil || a.s.State() != emu.Running {
		return nil
	}
	data := make([]byte, emu.EEPROMSize)
	if err := a.s.EEPROM(data); err != nil {
		return err
	}
	return a.EEPROM.Save(data)
}

// eepromStore is the persistent store, or a throwaway one at the default
// location when persistence is off.
func (a *App) eepromStore() *eeprom.Store {
	if a.EEPROM != nil {
		return a.EEPROM
	}
	return eeprom.New(a.fs, eepromPath(a.path))
}

func (a *App) eepromBackupPath() string { return trimExt(a.path) + ".eeprom.bak" }

// backupEEPROM copies the running EEPROM to the backup file.
func (a *App) backupEEPROM() error {
	data := make([]byte, emu.EEPROMSize)
	if err := a.s.EEPROM(data); err != nil {
		return err
	}
	return a.eepromStore().Backup(a.eepromBackupPath(), data)
}

// restoreEEPROM loads the backup file into the store and the running program.
func (a *App) restoreEEPROM() error {
	data, err := a.eepromStore().Restore(a.eepromBackupPath())
	if err != nil {
		return err
	}
	return a.s.SetEEPROM(data)
}

// clearEEPROM erases the running EEPROM and the stored image.
func (a *App) clearEEPROM() error {
	if err := a.s.SetEEPROM(eeprom.Blank()); err != nil {
		return err
	}
	return a.eepromStore().Clear()
}

// eepromPath is where a program's EEPROM image lives next to it.
func eepromPath(program string) string {
	return trimExt(program) + ".eeprom"
}

func trimExt(p string) string { return p[:len(p)-len(filepath.Ext(p))] }

func (a *App) statePath(slot int) string {
	return fmt.Sprintf("%s.slot%d.state", trimExt(a.path), slot+1)
}

func (a *App) saveSlot(slot int) error { return a.s.SaveStateToFile(a.fs, a.statePath(slot)) }

func (a *App) loadSlot(slot int) error {
	if err := a.s.LoadStateFromFile(a.fs, a.statePath(slot)); err != nil {
		return err
	}
	a.halted = false
	return nil
}

func (a *App) slotExists(slot int) bool {
	_, err := a.fs.Stat(a.statePath(slot))
	return err == nil
}

func (a *App) slotAction(fn func(int) error, verb string) {
	if err := fn(a.currentSlot); err != nil {
		a.toast(fmt.Sprintf("%s slot %d failed: %v", verb, a.currentSlot+1, err))
		return
	}
	a.toast(fmt.Sprintf("%s slot %d", verb, a.currentSlot+1))
}

func (a *App) capturePath(prefix, ext string) string {
	ts := time.Now().Format("20060102_150405")
	return filepath.Join(a.cfg.CaptureDir, fmt.Sprintf("%s_%s.%s", prefix, ts, ext))
}

func (a *App) saveScreenshot() (string, error) {
	name := a.capturePath("screenshot", "png")
	return name, capture.SavePNG(a.fs, name, a.s.Framebuffer(), a.cfg.Scale)
}

func (a *App) saveSnapshotGIF() (string, error) {
	name := a.capturePath("screenshot", "gif")
	return name, capture.OneShotGIF(a.fs, name, a.s.Framebuffer(), a.cfg.Scale)
}

func (a *App) toggleRecording() {
	if a.rec == nil {
		a.rec = capture.NewRecorder(a.fs, a.capturePath("recording", "gif"), a.cfg.Scale, a.cfg.FPS)
		a.toast("Recording")
		return
	}
	rec := a.rec
	a.rec = nil
	if err := rec.Finish(); err != nil {
		a.toast("Recording failed: " + err.Error())
		return
	}
	a.toast(fmt.Sprintf("Saved %s (%d frames)", filepath.Base(rec.Path()), rec.Frames()))
}

func (a *App) copyScreen() error {
	a.clipboardOnce.Do(func() { a.clipboardOK = clipboard.Init() == nil })
	if !a.clipboardOK {
		return errors.New("clipboard unavailable")
	}
	var buf bytes.Buffer
	if err := capture.EncodePNG(&buf, a.s.Framebuffer(), a.cfg.Scale); err != nil {
		return err
	}
	clipboard.Write(clipboard.FmtImage, buf.Bytes())
	return nil
}

func (a *App) toast(msg string) {
	a.toastMsg = msg
	a.toastUntil = time.Now().Add(2 * time.Second)
}

func (a *App) stripHeight() int {
	if a.cfg.ShowLEDs || a.cfg.ShowStatus {
		return stripH
	}
	return 0
}

func (a *App) applyWindowSize() {
	ebiten.SetWindowSize(display.Width*a.cfg.Scale, display.Height*a.cfg.Scale+a.stripHeight())
}

func (a *App) applyTitle() {
	title := a.cfg.Title
	if img := a.s.Image(); img != nil {
		title = a.cfg.Title + " - [" + img.Title() + "]"
	}
	ebiten.SetWindowTitle(title)
}

func (a *App) saveSettings() {
	if err := a.cfg.SaveSettings(a.fs); err != nil {
		a.toast("Settings not saved: " + err.Error())
	}
}

func (a *App) Draw(screen *ebiten.Image) {
	if a.tex == nil {
		a.tex = ebiten.NewImage(display.Width, display.Height)
	}
	screen.Fill(color.Black)
	a.tex.WritePixels(a.s.FramebufferRGBA())

	// fit the 2:1 screen above the strip, integer-free so resizing works
	areaH := a.curH - a.stripHeight()
	sc := float64(a.curW) / display.Width
	if h := float64(areaH) / display.Height; h < sc {
		sc = h
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(sc, sc)
	op.GeoM.Translate((float64(a.curW)-sc*display.Width)/2, (float64(areaH)-sc*display.Height)/2)
	screen.DrawImage(a.tex, op)

	a.drawStrip(screen, areaH)
	if a.showMenu {
		a.drawMenu(screen)
	}
}

func (a *App) Layout(outW, outH int) (int, int) {
	a.curW, a.curH = outW, outH
	return outW, outH
}
