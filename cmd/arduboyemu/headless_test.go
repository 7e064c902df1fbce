package main

import (
	"fmt"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"periph.io/x/conn/v3/physic"

	"github.com/FabianRolfMatthiasNoll/arduboyemu/internal/cart"
	"github.com/FabianRolfMatthiasNoll/arduboyemu/internal/eeprom"
	"github.com/FabianRolfMatthiasNoll/arduboyemu/internal/emu"
	"github.com/FabianRolfMatthiasNoll/arduboyemu/internal/script"
)

func newSession(t *testing.T) *emu.Session {
	t.Helper()
	s := emu.New(emu.Config{})
	if err := s.Setup(&cart.Image{Data: []byte{0x0C, 0x94, 0x00, 0x00}}); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	t.Cleanup(s.Teardown)
	return s
}

func TestFrequencyFlag(t *testing.T) {
	f := frequencyFlag{emu.DefaultFrequency}
	if err := f.Set("16MHz"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if f.Frequency != 16*physic.MegaHertz {
		t.Fatalf("got %v want 16MHz", f.Frequency)
	}
	if err := f.Set("fast"); err == nil {
		t.Fatalf("bad frequency accepted")
	}
}

func TestParsePress(t *testing.T) {
	got, err := parsePress("a, Right,")
	if err != nil {
		t.Fatalf("parsePress: %v", err)
	}
	if want := (emu.Buttons{A: true, Right: true}); got != want {
		t.Fatalf("got %+v want %+v", got, want)
	}
	if _, err := parsePress("start"); err == nil {
		t.Fatalf("unknown button accepted")
	}
}

func TestRunHeadlessOutputs(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := newSession(t)
	err := runHeadless(fs, s, headlessOptions{Frames: 3, PNG: "/out.png", GIF: "/out.gif", Scale: 1, Press: "b"})
	if err != nil {
		t.Fatalf("runHeadless: %v", err)
	}
	if s.Frames() != 3 {
		t.Fatalf("frames got %d want 3", s.Frames())
	}
	for _, p := range []string{"/out.png", "/out.gif"} {
		if ok, _ := afero.Exists(fs, p); !ok {
			t.Fatalf("%s not written", p)
		}
	}
}

func TestRunHeadlessExpect(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := newSession(t)
	if err := runHeadless(fs, s, headlessOptions{Frames: 1, Scale: 1}); err != nil {
		t.Fatalf("runHeadless: %v", err)
	}
	crc := frameCRC(s)
	if err := runHeadless(fs, s, headlessOptions{Frames: 1, Scale: 1, Expect: fmt.Sprintf("0x%08X", crc)}); err != nil {
		t.Fatalf("matching checksum rejected: %v", err)
	}
	err := runHeadless(fs, s, headlessOptions{Frames: 1, Scale: 1, Expect: fmt.Sprintf("%08x", crc+1)})
	if err == nil || !strings.Contains(err.Error(), "checksum mismatch") {
		t.Fatalf("mismatch err got %v", err)
	}
}

func TestRunHeadlessScriptStops(t *testing.T) {
	s := newSession(t)
	r := script.New(s)
	defer r.Close()
	if err := r.LoadString(`function on_frame(n) if n >= 2 then stop() end end`); err != nil {
		t.Fatalf("LoadString: %v", err)
	}
	if err := runHeadless(afero.NewMemMapFs(), s, headlessOptions{Frames: 100, Scale: 1, Script: r}); err != nil {
		t.Fatalf("runHeadless: %v", err)
	}
	if s.Frames() != 2 {
		t.Fatalf("frames got %d want 2", s.Frames())
	}
}

func TestApplyEEPROMOps(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := newSession(t)
	store := eeprom.New(fs, "/pong.eeprom")
	ee := eeprom.Blank()
	ee[3] = 0x33
	if err := s.SetEEPROM(ee); err != nil {
		t.Fatalf("SetEEPROM: %v", err)
	}

	// Backup sees the loaded contents even when clear runs in the same call.
	if err := applyEEPROMOps(s, store, eepromOps{Backup: "/pong.bak", Clear: true}); err != nil {
		t.Fatalf("backup+clear: %v", err)
	}
	bak, err := afero.ReadFile(fs, "/pong.bak")
	if err != nil || len(bak) != eeprom.Size || bak[3] != 0x33 {
		t.Fatalf("backup len %d err %v", len(bak), err)
	}
	got := make([]byte, emu.EEPROMSize)
	if err := s.EEPROM(got); err != nil || got[3] != eeprom.Erased {
		t.Fatalf("session after clear got %#x", got[3])
	}
	if stored, _ := store.Load(); stored[3] != eeprom.Erased {
		t.Fatalf("store after clear got %#x", stored[3])
	}

	if err := applyEEPROMOps(s, store, eepromOps{Restore: "/pong.bak"}); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if err := s.EEPROM(got); err != nil || got[3] != 0x33 {
		t.Fatalf("session after restore got %#x", got[3])
	}
	if stored, _ := store.Load(); stored[3] != 0x33 {
		t.Fatalf("store after restore got %#x", stored[3])
	}

	if err := afero.WriteFile(fs, "/short.bak", []byte{1, 2, 3}, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := applyEEPROMOps(s, store, eepromOps{Restore: "/short.bak"}); err == nil {
		t.Fatalf("short backup accepted")
	}
	if (eepromOps{}).any() || !(eepromOps{Clear: true}).any() {
		t.Fatalf("any() wrong")
	}
}
