package capture

import (
	"bytes"
	"errors"
	"image"
	"image/gif"

	"github.com/spf13/afero"
)

// DefaultMaxFrames bounds a recording (a minute at 60 fps).
const DefaultMaxFrames = 3600

var ErrNoFrames = errors.New("capture: recording has no frames")

// OneShotGIF writes a single-frame GIF.
func OneShotGIF(fs afero.Fs, path string, pixels []uint32, scale int) error {
	img, err := Paletted(pixels, scale)
	if err != nil {
		return err
	}
	return writeGIF(fs, path, &gif.GIF{Image: []*image.Paletted{img}, Delay: []int{0}})
}

// Recorder accumulates frames into an animated GIF.
type Recorder struct {
	fs        afero.Fs
	path      string
	scale     int
	delay     int // per frame, 1/100 s
	MaxFrames int

	anim    gif.GIF
	dropped int
}

// NewRecorder starts a recording at fps frames per second.
func NewRecorder(fs afero.Fs, path string, scale, fps int) *Recorder {
	delay := 2
	if fps > 0 {
		delay = (100 + fps/2) / fps
	}
	if delay < 1 {
		delay = 1
	}
	return &Recorder{fs: fs, path: path, scale: scale, delay: delay, MaxFrames: DefaultMaxFrames}
}

// Path is the file Finish writes to.
func (r *Recorder) Path() string { return r.path }

// Frames is the number of frames recorded so far.
func (r *Recorder) Frames() int { return len(r.anim.Image) }

// Dropped counts frames ignored after MaxFrames was reached.
func (r *Recorder) Dropped() int { return r.dropped }

// AddFrame appends a frame. Identical consecutive frames extend the previous
// frame's delay instead of growing the file.
func (r *Recorder) AddFrame(pixels []uint32) error {
	img, err := Paletted(pixels, r.scale)
	if err != nil {
		return err
	}
	if n := len(r.anim.Image); n > 0 && samePix(r.anim.Image[n-1], img) {
		r.anim.Delay[n-1] += r.delay
		return nil
	}
	if r.MaxFrames > 0 && len(r.anim.Image) >= r.MaxFrames {
		r.dropped++
		return nil
	}
	r.anim.Image = append(r.anim.Image, img)
	r.anim.Delay = append(r.anim.Delay, r.delay)
	return nil
}

// Finish writes the recording.
func (r *Recorder) Finish() error {
	if len(r.anim.Image) == 0 {
		return ErrNoFrames
	}
	return writeGIF(r.fs, r.path, &r.anim)
}

func samePix(a, b *image.Paletted) bool {
	if a.Rect != b.Rect {
		return false
	}
	return bytes.Equal(a.Pix, b.Pix)
}

func writeGIF(fs afero.Fs, path string, g *gif.GIF) error {
	f, err := fs.Create(path)
	if err != nil {
		return err
	}
	if err := gif.EncodeAll(f, g); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
