package ui

import (
	"encoding/json"
	"errors"
	"os"

	"github.com/spf13/afero"
)

// Config contains window/input related settings.
type Config struct {
	Title       string // window title
	Scale       int    // integer upscaling factor
	FPS         int    // emulated frames per second (ebiten TPS)
	FastFrames  int    // frames per update while fast-forwarding
	ShowLEDs    bool   // draw the LED indicator strip
	ShowStatus  bool   // draw the status line
	Postpone    bool   // postponed display refresh
	ProgramsDir string // directory to browse for .hex/.arduboy files
	CaptureDir  string // where screenshots and recordings go
	// Settings is the JSON file the menu persists to; empty disables saving.
	Settings string `json:"-"`
}

// Defaults fills missing fields with reasonable defaults.
func (c *Config) Defaults() {
	if c.Title == "" {
		c.Title = "arduboyemu"
	}
	if c.Scale <= 0 {
		c.Scale = 4
	}
	if c.FPS <= 0 {
		c.FPS = 60
	}
	if c.FastFrames <= 0 {
		c.FastFrames = 5
	}
	if c.ProgramsDir == "" {
		c.ProgramsDir = "programs"
	}
	if c.CaptureDir == "" {
		c.CaptureDir = "."
	}
}

// LoadSettings overlays persisted settings onto c. A missing file is not an error.
func (c *Config) LoadSettings(fs afero.Fs, path string) error {
	c.Settings = path
	data, err := afero.ReadFile(fs, path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, c)
}

// SaveSettings writes c to its settings file.
func (c *Config) SaveSettings(fs afero.Fs) error {
	if c.Settings == "" {
		return nil
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return afero.WriteFile(fs, c.Settings, data, 0o644)
}
