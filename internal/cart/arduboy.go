package cart

import (
	"archive/zip"
	"fmt"
	"io"
	"path"
	"strings"
)

const manifestName = "info.json"

// ParseArduboy extracts the first binary listed in a .arduboy bundle.
func ParseArduboy(r io.ReaderAt, size int64) (*Image, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, err
	}
	raw, err := readMember(zr, manifestName)
	if err != nil {
		return nil, err
	}
	info, err := ParseInfo(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", manifestName, err)
	}
	name := info.Binaries[0].Filename
	f, err := openMember(zr, name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, err := ParseHex(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	img.Info = info
	return img, nil
}

// openMember finds a zip entry by name, ignoring case and leading directories
// (some bundles are zipped from a parent folder).
func openMember(zr *zip.Reader, name string) (io.ReadCloser, error) {
	want := strings.ToLower(path.Base(name))
	for _, f := range zr.File {
		if strings.ToLower(path.Base(f.Name)) == want {
			return f.Open()
		}
	}
	return nil, fmt.Errorf("cart: bundle has no %s", name)
}

func readMember(zr *zip.Reader, name string) ([]byte, error) {
	rc, err := openMember(zr, name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
