package ui

import (
	"image/color"
	"strings"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/spf13/afero"

	"github.com/FabianRolfMatthiasNoll/arduboyemu/internal/cart"
	"github.com/FabianRolfMatthiasNoll/arduboyemu/internal/eeprom"
	"github.com/FabianRolfMatthiasNoll/arduboyemu/internal/emu"
	"github.com/FabianRolfMatthiasNoll/arduboyemu/internal/script"
)

func TestKeyButtons(t *testing.T) {
	held := map[ebiten.Key]bool{ebiten.KeyArrowLeft: true, ebiten.KeyZ: true}
	got := keyButtons(func(k ebiten.Key) bool { return held[k] })
	want := emu.Buttons{Left: true, A: true}
	if got != want {
		t.Fatalf("keyButtons got %+v want %+v", got, want)
	}
}

func TestLEDColor(t *testing.T) {
	cases := []struct {
		led  emu.LED
		v    uint8
		want color.RGBA
	}{
		{emu.LEDRed, 0x80, color.RGBA{0x80, 0, 0, 0xFF}},
		{emu.LEDGreen, 0xFF, color.RGBA{0, 0xFF, 0, 0xFF}},
		{emu.LEDBlue, 0x10, color.RGBA{0, 0, 0x10, 0xFF}},
		{emu.LEDTx, 0xFF, color.RGBA{0xFF, 0xFF, 0, 0xFF}},
		{emu.LEDRed, 0, ledOff},
	}
	for _, tc := range cases {
		if got := ledColor(tc.led, tc.v); got != tc.want {
			t.Fatalf("ledColor(%v, %d) got %v want %v", tc.led, tc.v, got, tc.want)
		}
	}
}

func TestFindPrograms(t *testing.T) {
	fs := afero.NewMemMapFs()
	for _, name := range []string{"b.hex", "a.ARDUBOY", "notes.txt", "c.ihex", "sub/d.hex"} {
		if err := afero.WriteFile(fs, "/games/"+name, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	got := findPrograms(fs, "/games")
	want := []string{"/games/a.ARDUBOY", "/games/b.hex", "/games/c.ihex"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("findPrograms got %v want %v", got, want)
	}
	if got := findPrograms(fs, "/missing"); got != nil {
		t.Fatalf("missing dir got %v", got)
	}
}

func TestScrollTo(t *testing.T) {
	cases := []struct{ sel, off, rows, want int }{
		{0, 0, 5, 0},
		{4, 0, 5, 0},
		{5, 0, 5, 1},
		{2, 4, 5, 2},
		{9, 3, 1, 9},
	}
	for _, tc := range cases {
		if got := scrollTo(tc.sel, tc.off, tc.rows); got != tc.want {
			t.Fatalf("scrollTo(%d,%d,%d) got %d want %d", tc.sel, tc.off, tc.rows, got, tc.want)
		}
	}
}

func TestStepFPS(t *testing.T) {
	if got := stepFPS(60, 1); got != 120 {
		t.Fatalf("60 up got %d", got)
	}
	if got := stepFPS(60, -1); got != 30 {
		t.Fatalf("60 down got %d", got)
	}
	if got := stepFPS(120, 1); got != 120 {
		t.Fatalf("120 up got %d", got)
	}
	if got := stepFPS(15, -1); got != 15 {
		t.Fatalf("15 down got %d", got)
	}
}

func TestTextHelpers(t *testing.T) {
	a := &App{curW: 10*charW + 2*menuLeft}
	if n := a.maxCharsForText(menuLeft); n != 10 {
		t.Fatalf("maxCharsForText got %d want 10", n)
	}
	if got := a.truncateText("abcdefghijkl", 10); got != "abcdefg..." {
		t.Fatalf("truncateText got %q", got)
	}
	if got := a.truncateText("abc", 10); got != "abc" {
		t.Fatalf("short truncateText got %q", got)
	}
	got := a.wrapText("one two three four", 9)
	want := []string{"one two", "three", "four"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("wrapText got %q want %q", got, want)
	}
}

func TestPaths(t *testing.T) {
	a := &App{path: "/games/pong.hex"}
	if got := a.statePath(1); got != "/games/pong.slot2.state" {
		t.Fatalf("statePath got %q", got)
	}
	if got := eepromPath("/games/pong.arduboy"); got != "/games/pong.eeprom" {
		t.Fatalf("eepromPath got %q", got)
	}
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	s := emu.New(emu.Config{})
	img := &cart.Image{Data: []byte{0x0C, 0x94, 0x00, 0x00}, Name: "pong.hex"}
	if err := s.Setup(img); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	t.Cleanup(s.Teardown)
	return &App{fs: afero.NewMemMapFs(), s: s, path: "/games/pong.hex"}
}

func TestSlotSaveLoad(t *testing.T) {
	a := newTestApp(t)
	if a.slotExists(0) {
		t.Fatalf("slot exists before save")
	}
	if err := a.runFrame(); err != nil {
		t.Fatalf("runFrame: %v", err)
	}
	if err := a.saveSlot(0); err != nil {
		t.Fatalf("saveSlot: %v", err)
	}
	if !a.slotExists(0) {
		t.Fatalf("slot missing after save")
	}
	if err := a.runFrame(); err != nil {
		t.Fatalf("runFrame: %v", err)
	}
	if a.s.Frames() != 2 {
		t.Fatalf("frames got %d want 2", a.s.Frames())
	}
	if err := a.loadSlot(0); err != nil {
		t.Fatalf("loadSlot: %v", err)
	}
	if a.s.Frames() != 1 {
		t.Fatalf("frames after load got %d want 1", a.s.Frames())
	}
	if err := a.loadSlot(3); err == nil {
		t.Fatalf("empty slot loaded")
	}
}

func TestResetKeepsEEPROM(t *testing.T) {
	a := newTestApp(t)
	ee := make([]byte, emu.EEPROMSize)
	ee[7] = 0x42
	if err := a.s.SetEEPROM(ee); err != nil {
		t.Fatalf("SetEEPROM: %v", err)
	}
	if err := a.runFrame(); err != nil {
		t.Fatalf("runFrame: %v", err)
	}
	if err := a.reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if a.s.Frames() != 0 || a.s.State() != emu.Running {
		t.Fatalf("after reset frames=%d state=%v", a.s.Frames(), a.s.State())
	}
	got := make([]byte, emu.EEPROMSize)
	if err := a.s.EEPROM(got); err != nil {
		t.Fatalf("EEPROM: %v", err)
	}
	if got[7] != 0x42 {
		t.Fatalf("eeprom[7] got %#x want 0x42", got[7])
	}
}

func TestInputButtons_ScriptHoldSurvivesKeyboard(t *testing.T) {
	a := newTestApp(t)
	r := script.New(a.s)
	defer r.Close()
	if err := r.LoadString(`function on_frame(n) press("a") end`); err != nil {
		t.Fatalf("LoadString: %v", err)
	}
	a.Script = r
	if err := a.runFrame(); err != nil {
		t.Fatalf("runFrame: %v", err)
	}

	keys := map[ebiten.Key]bool{ebiten.KeyArrowLeft: true}
	b := a.inputButtons(func(k ebiten.Key) bool { return keys[k] })
	if want := (emu.Buttons{Left: true, A: true}); b != want {
		t.Fatalf("inputButtons got %+v want %+v", b, want)
	}
	if err := a.s.SetButtons(b); err != nil {
		t.Fatalf("SetButtons: %v", err)
	}
	const pinE = 0x2C
	if a.s.MCU().Read(pinE)&(1<<6) != 0 {
		t.Fatalf("A released by the keyboard poll")
	}

	a.Script = nil
	if b := a.inputButtons(func(ebiten.Key) bool { return false }); b != (emu.Buttons{}) {
		t.Fatalf("no script, no keys got %+v", b)
	}
}

func TestResetKeepsPostponeSetting(t *testing.T) {
	a := newTestApp(t)
	a.cfg.Postpone = true
	if err := a.s.SetRefreshTiming(true); err != nil {
		t.Fatalf("SetRefreshTiming: %v", err)
	}
	if err := a.reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if !a.s.RefreshPostponed() {
		t.Fatalf("postpone lost after reset")
	}
}

func TestEEPROMMenuActions(t *testing.T) {
	a := newTestApp(t)
	a.EEPROM = eeprom.New(a.fs, eepromPath(a.path))
	ee := eeprom.Blank()
	ee[0] = 0x5A
	if err := a.s.SetEEPROM(ee); err != nil {
		t.Fatalf("SetEEPROM: %v", err)
	}
	got := make([]byte, emu.EEPROMSize)

	a.eepromAction(0)
	if ok, _ := afero.Exists(a.fs, "/games/pong.eeprom.bak"); !ok {
		t.Fatalf("backup not written, toast %q", a.toastMsg)
	}

	a.eepromAction(2)
	if err := a.s.EEPROM(got); err != nil || got[0] != eeprom.Erased {
		t.Fatalf("clear left %#x, toast %q", got[0], a.toastMsg)
	}
	if stored, _ := a.EEPROM.Load(); stored[0] != eeprom.Erased {
		t.Fatalf("stored image not cleared")
	}

	a.eepromAction(1)
	if err := a.s.EEPROM(got); err != nil || got[0] != 0x5A {
		t.Fatalf("restore got %#x, toast %q", got[0], a.toastMsg)
	}
	if a.toastMsg != "EEPROM restored" {
		t.Fatalf("toast got %q", a.toastMsg)
	}

	// Without a backup file restore reports the failure.
	if err := a.fs.Remove("/games/pong.eeprom.bak"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	a.eepromAction(1)
	if !strings.HasPrefix(a.toastMsg, "Restore failed") {
		t.Fatalf("toast got %q", a.toastMsg)
	}
}

func TestSaveSnapshotGIF(t *testing.T) {
	a := newTestApp(t)
	a.cfg.CaptureDir = "/shots"
	a.cfg.Scale = 2
	if err := a.runFrame(); err != nil {
		t.Fatalf("runFrame: %v", err)
	}
	name, err := a.saveSnapshotGIF()
	if err != nil {
		t.Fatalf("saveSnapshotGIF: %v", err)
	}
	if !strings.HasPrefix(name, "/shots/screenshot_") || !strings.HasSuffix(name, ".gif") {
		t.Fatalf("name got %q", name)
	}
	data, err := afero.ReadFile(a.fs, name)
	if err != nil || !strings.HasPrefix(string(data), "GIF89a") {
		t.Fatalf("gif not written: %v", err)
	}
}
