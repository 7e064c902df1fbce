// Package capture writes screenshots and GIF recordings of the display.
package capture

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"github.com/spf13/afero"
	"golang.org/x/image/draw"

	"github.com/FabianRolfMatthiasNoll/arduboyemu/internal/display"
)

var ErrFrameSize = errors.New("capture: frame is not 128x64")

// grayPalette covers every color the panel can show: black and the grays of
// the contrast range. Index i is gray level i.
var grayPalette = func() color.Palette {
	p := make(color.Palette, 256)
	for i := range p {
		p[i] = color.Gray{Y: uint8(i)}
	}
	return p
}()

// Paletted converts ARGB display pixels into a paletted image scaled by an
// integer factor with nearest-neighbour sampling.
func Paletted(pixels []uint32, scale int) (*image.Paletted, error) {
	if len(pixels) != display.Pixels {
		return nil, fmt.Errorf("%w: %d pixels", ErrFrameSize, len(pixels))
	}
	if scale < 1 {
		scale = 1
	}
	src := image.NewPaletted(image.Rect(0, 0, display.Width, display.Height), grayPalette)
	for i, p := range pixels {
		// the panel is monochrome: red carries the gray level
		src.Pix[i] = uint8(p >> 16)
	}
	if scale == 1 {
		return src, nil
	}
	dst := image.NewPaletted(image.Rect(0, 0, display.Width*scale, display.Height*scale), grayPalette)
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst, nil
}

// EncodePNG writes one frame as PNG.
func EncodePNG(w io.Writer, pixels []uint32, scale int) error {
	img, err := Paletted(pixels, scale)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

// SavePNG writes one frame to a PNG file.
func SavePNG(fs afero.Fs, path string, pixels []uint32, scale int) error {
	f, err := fs.Create(path)
	if err != nil {
		return err
	}
	if err := EncodePNG(f, pixels, scale); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
