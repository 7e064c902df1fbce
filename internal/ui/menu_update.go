package ui

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/spf13/afero"
)

func back() bool {
	return inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyBackspace)
}

func (a *App) updateMainMenu() {
	last := len(a.mainItems()) - 1
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) && a.menuIdx > 0 {
		a.menuIdx--
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) && a.menuIdx < last {
		a.menuIdx++
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		switch a.menuIdx {
		case 0:
			a.slotAction(a.saveSlot, "Saved")
		case 1:
			if !a.slotExists(a.currentSlot) {
				a.toast("Slot is empty")
			} else {
				a.slotAction(a.loadSlot, "Loaded")
			}
		case 2:
			a.menuMode = "slot"
			a.menuIdx = a.currentSlot
		case 3:
			a.progList = findPrograms(a.fs, a.cfg.ProgramsDir)
			a.progSel, a.progOff = 0, 0
			a.menuMode = "program"
		case 4:
			a.menuMode = "settings"
			a.menuIdx, a.settingsOff = 0, 0
			a.editingDir = false
		case 5:
			a.menuMode = "eeprom"
			a.menuIdx = 0
		case 6:
			a.menuMode = "keys"
			a.keysOff = 0
		case 7:
			a.showMenu = false
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) {
		a.showMenu = false
	}
}

func (a *App) updateSlotMenu() {
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) && a.menuIdx > 0 {
		a.menuIdx--
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) && a.menuIdx < slots-1 {
		a.menuIdx++
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		a.currentSlot = a.menuIdx
		a.toast(fmt.Sprintf("Slot set to %d", a.currentSlot+1))
		a.menuMode, a.menuIdx = "main", 2
	}
	if back() {
		a.menuMode, a.menuIdx = "main", 2
	}
}

// findPrograms lists the loadable files directly inside dir, sorted by name.
func findPrograms(fs afero.Fs, dir string) []string {
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".hex", ".ihex", ".arduboy":
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(out)
	return out
}

// scrollTo moves off so that sel stays inside a window of rows lines.
func scrollTo(sel, off, rows int) int {
	if sel < off {
		off = sel
	}
	if sel >= off+rows {
		off = sel - rows + 1
	}
	return max(off, 0)
}

func (a *App) updateProgramMenu() {
	n := len(a.progList)
	if n == 0 {
		if inpututil.IsKeyJustPressed(ebiten.KeyEnter) || back() {
			a.menuMode = "main"
		}
		return
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) && a.progSel > 0 {
		a.progSel--
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) && a.progSel < n-1 {
		a.progSel++
	}
	a.progOff = scrollTo(a.progSel, a.progOff, a.visibleRows(40))
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		path := a.progList[a.progSel]
		if err := a.switchProgram(path); err != nil {
			a.toast("Load failed: " + err.Error())
		} else {
			a.toast("Loaded " + filepath.Base(path))
			a.showMenu = false
		}
		a.menuMode = "main"
	}
	if back() {
		a.menuMode = "main"
	}
}

// eepromAction runs entry i of eepromItems.
func (a *App) eepromAction(i int) {
	var err error
	done := "EEPROM cleared"
	switch i {
	case 0:
		err = a.backupEEPROM()
		done = "EEPROM backed up to " + filepath.Base(a.eepromBackupPath())
	case 1:
		err = a.restoreEEPROM()
		done = "EEPROM restored"
	case 2:
		err = a.clearEEPROM()
	default:
		return
	}
	if err != nil {
		a.toast(fmt.Sprintf("%s failed: %v", eepromItems[i], err))
		return
	}
	a.toast(done)
}

func (a *App) updateEEPROMMenu() {
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) && a.menuIdx > 0 {
		a.menuIdx--
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) && a.menuIdx < len(eepromItems)-1 {
		a.menuIdx++
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		a.eepromAction(a.menuIdx)
	}
	if back() {
		a.menuMode, a.menuIdx = "main", 5
	}
}

func (a *App) updateKeysMenu() {
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) && a.keysOff > 0 {
		a.keysOff--
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) {
		a.keysOff++
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) || back() {
		a.menuMode = "main"
	}
}

var fpsSteps = []int{15, 30, 60, 120}

// stepFPS moves to the neighbouring entry of fpsSteps.
func stepFPS(cur, dir int) int {
	i := sort.SearchInts(fpsSteps, cur)
	i = max(0, min(i+dir, len(fpsSteps)-1))
	return fpsSteps[i]
}

func (a *App) updateSettingsMenu() {
	if a.editingDir {
		a.editDir()
		return
	}
	items := len(a.settingsItems())
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) && a.menuIdx > 0 {
		a.menuIdx--
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) && a.menuIdx < items-1 {
		a.menuIdx++
	}
	a.settingsOff = scrollTo(a.menuIdx, a.settingsOff, a.visibleRows(a.settingsBaseY()))

	left := inpututil.IsKeyJustPressed(ebiten.KeyArrowLeft)
	right := inpututil.IsKeyJustPressed(ebiten.KeyArrowRight)
	toggle := left || right || inpututil.IsKeyJustPressed(ebiten.KeyEnter)
	changed := false
	switch a.menuIdx {
	case 0: // Scale
		if left && a.cfg.Scale > 1 {
			a.cfg.Scale--
			changed = true
		}
		if right && a.cfg.Scale < 10 {
			a.cfg.Scale++
			changed = true
		}
		if changed {
			a.applyWindowSize()
		}
	case 1: // FPS
		if left || right {
			dir := 1
			if left {
				dir = -1
			}
			a.cfg.FPS = stepFPS(a.cfg.FPS, dir)
			ebiten.SetTPS(a.cfg.FPS)
			changed = true
		}
	case 2: // Postpone refresh
		if toggle {
			a.cfg.Postpone = !a.cfg.Postpone
			if err := a.s.SetRefreshTiming(a.cfg.Postpone); err != nil {
				a.toast("Postpone: " + err.Error())
			}
			changed = true
		}
	case 3:
		if toggle {
			a.cfg.ShowLEDs = !a.cfg.ShowLEDs
			a.applyWindowSize()
			changed = true
		}
	case 4:
		if toggle {
			a.cfg.ShowStatus = !a.cfg.ShowStatus
			a.applyWindowSize()
			changed = true
		}
	case 5: // Programs dir edit mode
		if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
			a.editingDir = true
			a.dirInput = a.cfg.ProgramsDir
			return
		}
	}
	if changed {
		a.saveSettings()
	}
	if back() {
		a.menuMode, a.menuIdx = "main", 4
	}
}

func (a *App) editDir() {
	for _, r := range ebiten.AppendInputChars(nil) {
		if r != '\n' && r != '\r' {
			a.dirInput += string(r)
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) && len(a.dirInput) > 0 {
		a.dirInput = a.dirInput[:len(a.dirInput)-1]
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		if val := strings.TrimSpace(a.dirInput); val != "" {
			a.cfg.ProgramsDir = val
			a.saveSettings()
			a.toast("Programs dir set")
		}
		a.editingDir = false
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		a.editingDir = false
	}
}
