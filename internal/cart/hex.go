package cart

import (
	"fmt"
	"io"

	"github.com/marcinbor85/gohex"
)

// ParseHex decodes an Intel HEX stream. Separate data segments are merged
// into one image starting at the lowest address; gaps read as erased flash (0xFF).
func ParseHex(r io.Reader) (*Image, error) {
	mem := gohex.NewMemory()
	if err := mem.ParseIntelHex(r); err != nil {
		return nil, err
	}
	segs := mem.GetDataSegments()
	if len(segs) == 0 {
		return nil, ErrEmptyImage
	}
	lo, hi := segs[0].Address, segs[0].Address
	for _, s := range segs {
		if s.Address < lo {
			lo = s.Address
		}
		if end := s.Address + uint32(len(s.Data)); end > hi {
			hi = end
		}
	}
	if hi > MaxSize {
		return nil, fmt.Errorf("%w: %#x..%#x", ErrTooLarge, lo, hi)
	}
	img := &Image{Base: lo, Data: mem.ToBinary(lo, hi-lo, 0xFF)}
	if err := img.validate(); err != nil {
		return nil, err
	}
	return img, nil
}
