package script

import (
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/FabianRolfMatthiasNoll/arduboyemu/internal/display"
	"github.com/FabianRolfMatthiasNoll/arduboyemu/internal/emu"
)

type fakeHost struct {
	pressed [emu.ButtonCount]bool
	leds    emu.LEDs
	fb      []uint32
	frames  uint64
}

func (h *fakeHost) SetButton(b emu.Button, pressed bool) error {
	h.pressed[b] = pressed
	return nil
}
func (h *fakeHost) LEDs() (emu.LEDs, error) { return h.leds, nil }
func (h *fakeHost) Framebuffer() []uint32   { return h.fb }
func (h *fakeHost) Frames() uint64          { return h.frames }

func newHost() *fakeHost {
	return &fakeHost{fb: make([]uint32, display.Pixels)}
}

func TestOnFrameDrivesButtons(t *testing.T) {
	h := newHost()
	r := New(h)
	defer r.Close()
	src := `
function on_frame(n)
  if n == 2 then press("a") end
  if n == 4 then release("A"); press("left") end
  if n >= 5 then stop() end
end`
	if err := r.LoadString(src); err != nil {
		t.Fatalf("LoadString: %v", err)
	}
	for h.frames = 1; !r.Stopped(); h.frames++ {
		if err := r.Frame(); err != nil {
			t.Fatalf("frame %d: %v", h.frames, err)
		}
		if h.frames == 3 && !h.pressed[emu.ButtonA] {
			t.Fatalf("A not pressed at frame 3")
		}
		if h.frames > 10 {
			t.Fatalf("stop() ignored")
		}
	}
	if h.pressed[emu.ButtonA] || !h.pressed[emu.ButtonLeft] {
		t.Fatalf("buttons at stop: %v", h.pressed)
	}
	if held := r.Held(); held != (emu.Buttons{Left: true}) {
		t.Fatalf("held at stop got %+v want left only", held)
	}
	if h.frames != 6 {
		t.Fatalf("stopped after frame %d want 5", h.frames-1)
	}
}

func TestQueries(t *testing.T) {
	h := newHost()
	h.leds.Green = 200
	h.fb[3*display.Width+5] = display.Gray(180)
	h.frames = 42
	r := New(h)
	defer r.Close()
	src := `result = led("green") .. "," .. pixel(5, 3) .. "," .. pixel(0, 0) .. "," .. frame()`
	if err := r.LoadString(src); err != nil {
		t.Fatalf("LoadString: %v", err)
	}
	if got := r.L.GetGlobal("result").String(); got != "200,180,0,42" {
		t.Fatalf("result got %q", got)
	}
}

func TestErrors(t *testing.T) {
	for _, src := range []string{`press("start")`, `led("yellow")`, `pixel(128, 0)`, `this is not lua`} {
		r := New(newHost())
		if err := r.LoadString(src); err == nil {
			t.Fatalf("%q accepted", src)
		}
		r.Close()
	}
	r := New(newHost())
	defer r.Close()
	if err := r.LoadString(`function on_frame(n) error("boom") end`); err != nil {
		t.Fatalf("LoadString: %v", err)
	}
	if err := r.Frame(); err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("on_frame error got %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/run.lua", []byte(`press("b")`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	h := newHost()
	r := New(h)
	defer r.Close()
	if err := r.Load(fs, "/run.lua"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !h.pressed[emu.ButtonB] {
		t.Fatalf("script did not press b")
	}
	if err := r.Frame(); err != nil {
		t.Fatalf("Frame without on_frame: %v", err)
	}
	if err := r.Load(fs, "/missing.lua"); err == nil {
		t.Fatalf("missing script accepted")
	}
}
