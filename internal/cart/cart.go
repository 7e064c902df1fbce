// Package cart loads Arduboy program images: Intel HEX files and .arduboy
// bundles (a zip holding the hex plus an info.json manifest).
package cart

import (
	"errors"
	"fmt"
	"hash/crc32"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// MaxSize is the ATmega32u4 flash size.
const MaxSize = 32 * 1024

var (
	ErrEmptyImage = errors.New("cart: image has no data")
	ErrTooLarge   = errors.New("cart: image exceeds flash")
	ErrFormat     = errors.New("cart: unknown image format")
)

// Image is a program ready to be copied to flash at Base.
type Image struct {
	Base uint32
	Data []byte
	// Info is the bundle manifest; nil for bare hex files.
	Info *Info
	// Name is the file the image was loaded from.
	Name string
}

// End returns the address one past the last image byte.
func (img *Image) End() uint32 { return img.Base + uint32(len(img.Data)) }

// CRC32 fingerprints the image data.
func (img *Image) CRC32() uint32 { return crc32.ChecksumIEEE(img.Data) }

// Title prefers the manifest title and falls back to the file name.
func (img *Image) Title() string {
	if img.Info != nil && img.Info.Title != "" {
		return img.Info.Title
	}
	base := filepath.Base(img.Name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (img *Image) validate() error {
	if len(img.Data) == 0 {
		return ErrEmptyImage
	}
	if uint64(img.Base)+uint64(len(img.Data)) > MaxSize {
		return fmt.Errorf("%w: %#x..%#x", ErrTooLarge, img.Base, img.End())
	}
	return nil
}

// Load reads a .hex or .arduboy file from fs.
func Load(fs afero.Fs, path string) (*Image, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var img *Image
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hex", ".ihex":
		img, err = ParseHex(f)
	case ".arduboy", ".zip":
		st, serr := f.Stat()
		if serr != nil {
			return nil, serr
		}
		img, err = ParseArduboy(f, st.Size())
	default:
		return nil, fmt.Errorf("%w: %s", ErrFormat, path)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	img.Name = path
	return img, nil
}
