package ui

import (
	"fmt"
	"image/color"
	"path/filepath"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

const (
	lineH     = 14
	charW     = 6 // debug font glyph width
	menuLeft  = 10
	menuShade = 0xC0
)

var onOff = map[bool]string{true: "On", false: "Off"}

// mainItems are the main menu entries below the title line.
func (a *App) mainItems() []string {
	return []string{
		fmt.Sprintf("Save state (slot %d)", a.currentSlot+1),
		fmt.Sprintf("Load state (slot %d)", a.currentSlot+1),
		"Select Slot",
		"Switch Program",
		"Settings",
		"EEPROM",
		"Keybindings",
		"Close",
	}
}

var eepromItems = []string{"Backup", "Restore", "Clear"}

func (a *App) settingsItems() []string {
	dir := a.cfg.ProgramsDir
	if a.editingDir {
		dir = a.dirInput + "_"
	}
	return []string{
		fmt.Sprintf("Scale: %dx", a.cfg.Scale),
		fmt.Sprintf("FPS: %d", a.cfg.FPS),
		fmt.Sprintf("Postpone Refresh: %s", onOff[a.cfg.Postpone]),
		fmt.Sprintf("LEDs: %s", onOff[a.cfg.ShowLEDs]),
		fmt.Sprintf("Status Line: %s", onOff[a.cfg.ShowStatus]),
		fmt.Sprintf("Programs Dir: %s", dir),
	}
}

var keyRows = []string{
	"Arrows: D-Pad",
	"Z: A",
	"X: B",
	"P: Pause",
	"N: Step (when paused)",
	"Tab: Fast-forward",
	"R: Reset",
	"F5/F9: Save/Load state",
	"1-4: Slot",
	"F10: Record GIF",
	"F11: Fullscreen",
	"F12: Screenshot",
	"Shift+F12: Screenshot as GIF",
	"C: Copy screen",
	"Esc: Open/Close Menu",
}

const settingsTitle = "Settings (Up/Down select; Left/Right change; Enter: edit; Backspace/Esc: back)"

func (a *App) drawMenu(screen *ebiten.Image) {
	vector.DrawFilledRect(screen, 0, 0, float32(a.curW), float32(a.curH), color.RGBA{0, 0, 0, menuShade}, false)
	switch a.menuMode {
	case "slot":
		a.drawSlotMenu(screen)
	case "program":
		a.drawProgramMenu(screen)
	case "settings":
		a.drawSettingsMenu(screen)
	case "keys":
		a.drawKeysMenu(screen)
	case "eeprom":
		a.drawEEPROMMenu(screen)
	default:
		a.drawMainMenu(screen)
	}
}

func (a *App) drawMainMenu(screen *ebiten.Image) {
	lines := append([]string{"Menu:"}, a.mainItems()...)
	for i, s := range lines {
		prefix := "  "
		if i == a.menuIdx+1 {
			prefix = "> "
		}
		ebitenutil.DebugPrintAt(screen, prefix+s, menuLeft, menuLeft+i*lineH)
	}
	hint := a.truncateText("F5: Save  F9: Load  1-4: Slot  F11: Fullscreen  Backspace: Back", a.maxCharsForText(menuLeft))
	ebitenutil.DebugPrintAt(screen, hint, menuLeft, menuLeft+len(lines)*lineH)
}

func (a *App) drawSlotMenu(screen *ebiten.Image) {
	ebitenutil.DebugPrintAt(screen, "Select Slot:", menuLeft, menuLeft)
	for i := 0; i < slots; i++ {
		label := fmt.Sprintf("%d", i+1)
		if !a.slotExists(i) {
			label += " [empty]"
		}
		prefix := "  "
		if i == a.menuIdx {
			prefix = "> "
		}
		ebitenutil.DebugPrintAt(screen, prefix+label, menuLeft, menuLeft+(i+1)*lineH)
	}
}

func (a *App) drawEEPROMMenu(screen *ebiten.Image) {
	ebitenutil.DebugPrintAt(screen, "EEPROM:", menuLeft, menuLeft)
	for i, item := range eepromItems {
		prefix := "  "
		if i == a.menuIdx {
			prefix = "> "
		}
		ebitenutil.DebugPrintAt(screen, prefix+item, menuLeft, menuLeft+(i+1)*lineH)
	}
	hint := a.truncateText("Backup file: "+filepath.Base(a.eepromBackupPath()), a.maxCharsForText(menuLeft))
	ebitenutil.DebugPrintAt(screen, hint, menuLeft, menuLeft+(len(eepromItems)+1)*lineH)
}

func (a *App) drawProgramMenu(screen *ebiten.Image) {
	ebitenutil.DebugPrintAt(screen, a.truncateText("Select program (Enter to load, Backspace/Esc to return)", a.maxCharsForText(menuLeft)), menuLeft, 10)
	ebitenutil.DebugPrintAt(screen, a.truncateText("Dir: "+a.cfg.ProgramsDir, a.maxCharsForText(menuLeft)), menuLeft, 24)
	const baseY = 40
	if len(a.progList) == 0 {
		ebitenutil.DebugPrintAt(screen, "No programs found", menuLeft, baseY)
		return
	}
	rows := a.visibleRows(baseY)
	end := min(a.progOff+rows, len(a.progList))
	maxChars := max(a.maxCharsForText(menuLeft)-2, 1)
	for i, p := range a.progList[a.progOff:end] {
		prefix := "  "
		if a.progOff+i == a.progSel {
			prefix = "> "
		}
		ebitenutil.DebugPrintAt(screen, prefix+a.truncateText(filepath.Base(p), maxChars), menuLeft, baseY+i*lineH)
	}
	a.drawScrollMarks(screen, baseY, rows, a.progOff > 0, end < len(a.progList))
}

func (a *App) drawKeysMenu(screen *ebiten.Image) {
	cursorY := menuLeft
	for _, w := range a.wrapText("Keybindings (Up/Down to scroll, Backspace/Esc to return)", a.maxCharsForText(menuLeft)) {
		ebitenutil.DebugPrintAt(screen, w, menuLeft, cursorY)
		cursorY += lineH
	}
	baseY := cursorY + 4
	rows := a.visibleRows(baseY)
	a.keysOff = max(0, min(a.keysOff, len(keyRows)-1))
	end := min(a.keysOff+rows, len(keyRows))
	for i := a.keysOff; i < end; i++ {
		ebitenutil.DebugPrintAt(screen, a.truncateText(keyRows[i], a.maxCharsForText(menuLeft)), menuLeft, baseY+(i-a.keysOff)*lineH)
	}
	a.drawScrollMarks(screen, baseY, rows, a.keysOff > 0, end < len(keyRows))
}

func (a *App) settingsBaseY() int {
	return menuLeft + lineH*len(a.wrapText(settingsTitle, a.maxCharsForText(menuLeft)))
}

func (a *App) drawSettingsMenu(screen *ebiten.Image) {
	cursorY := menuLeft
	for _, w := range a.wrapText(settingsTitle, a.maxCharsForText(menuLeft)) {
		ebitenutil.DebugPrintAt(screen, w, menuLeft, cursorY)
		cursorY += lineH
	}
	items := a.settingsItems()
	baseY := a.settingsBaseY()
	rows := a.visibleRows(baseY)
	end := min(a.settingsOff+rows, len(items))
	for i := a.settingsOff; i < end; i++ {
		prefix := "  "
		if i == a.menuIdx {
			prefix = "> "
		}
		ebitenutil.DebugPrintAt(screen, a.truncateText(prefix+items[i], a.maxCharsForText(menuLeft)), menuLeft, baseY+(i-a.settingsOff)*lineH)
	}
	a.drawScrollMarks(screen, baseY, rows, a.settingsOff > 0, end < len(items))
}

func (a *App) drawScrollMarks(screen *ebiten.Image, baseY, rows int, up, down bool) {
	if up {
		ebitenutil.DebugPrintAt(screen, "^", 2, baseY)
	}
	if down {
		ebitenutil.DebugPrintAt(screen, "v", 2, baseY+(rows-1)*lineH)
	}
}

// visibleRows is how many menu lines fit below baseY.
func (a *App) visibleRows(baseY int) int {
	return max((a.curH-baseY)/lineH, 1)
}

// maxCharsForText is how many debug-font glyphs fit with margin on both sides.
func (a *App) maxCharsForText(margin int) int {
	return max((a.curW-2*margin)/charW, 1)
}

func (a *App) truncateText(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}

// wrapText breaks s on spaces into lines of at most n characters. Words
// longer than n are truncated.
func (a *App) wrapText(s string, n int) []string {
	var lines []string
	line := ""
	for _, w := range strings.Fields(s) {
		w = a.truncateText(w, n)
		switch {
		case line == "":
			line = w
		case len(line)+1+len(w) <= n:
			line += " " + w
		default:
			lines = append(lines, line)
			line = w
		}
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}
