// Package eeprom persists the MCU's EEPROM contents between runs.
package eeprom

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// Size is the ATmega32u4 EEPROM size.
const Size = 1024

// Erased is the value of a never-written EEPROM cell.
const Erased = 0xFF

var ErrShort = errors.New("eeprom: file shorter than eeprom")

// Store keeps one EEPROM image in a file.
type Store struct {
	fs   afero.Fs
	path string
}

func New(fs afero.Fs, path string) *Store {
	return &Store{fs: fs, path: path}
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

// Blank returns an erased EEPROM image.
func Blank() []byte {
	b := make([]byte, Size)
	for i := range b {
		b[i] = Erased
	}
	return b
}

// Load returns the stored image. A missing or truncated file reads as erased.
func (s *Store) Load() ([]byte, error) {
	data, err := s.read(s.path)
	switch {
	case errors.Is(err, os.ErrNotExist), errors.Is(err, ErrShort):
		return Blank(), nil
	case err != nil:
		return nil, err
	}
	return data, nil
}

// Save replaces the stored image.
func (s *Store) Save(data []byte) error {
	return s.write(s.path, data)
}

// Clear erases the stored image.
func (s *Store) Clear() error {
	return s.write(s.path, Blank())
}

// Backup writes data to another file, leaving the store untouched.
func (s *Store) Backup(path string, data []byte) error {
	return s.write(path, data)
}

// Restore reads an image saved by Backup and makes it the stored image.
// Files shorter than Size are rejected.
func (s *Store) Restore(path string) ([]byte, error) {
	data, err := s.read(path)
	if err != nil {
		return nil, err
	}
	if err := s.Save(data); err != nil {
		return nil, err
	}
	return data, nil
}

func (s *Store) read(path string) ([]byte, error) {
	f, err := s.fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data := make([]byte, Size)
	if _, err := io.ReadFull(f, data); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %s", ErrShort, path)
		}
		return nil, err
	}
	return data, nil
}

func (s *Store) write(path string, data []byte) error {
	if len(data) != Size {
		return fmt.Errorf("eeprom: image is %d bytes, want %d", len(data), Size)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return afero.WriteFile(s.fs, path, data, 0o644)
}
