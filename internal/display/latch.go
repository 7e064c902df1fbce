package display

// Source is the read side of a display controller's VRAM.
type Source interface {
	VRAMByte(page, column int) byte
	Dirty() bool
	ClearDirty()
}

// LumaMap is one lit/unlit bit per pixel, indexed [y][x].
type LumaMap [Height][Width]bool

// Clear unlights every pixel.
func (l *LumaMap) Clear() { *l = LumaMap{} }

// Rebuild expands the page/column bitplanes of src. Bit 0 of each VRAM byte
// is the top row of its page.
func (l *LumaMap) Rebuild(src Source) {
	for p := 0; p < Pages; p++ {
		for c := 0; c < Columns; c++ {
			b := src.VRAMByte(p, c)
			for bit := 0; bit < 8; bit++ {
				l[p*8+bit][c] = b&(1<<bit) != 0
			}
		}
	}
}

// Latch rebuilds a LumaMap once per completed VRAM pass: when the last cell
// is written while the source is dirty. Passes that stop short of the last
// cell, or write it out of order, leave the map stale until the next pass.
type Latch struct {
	src      Source
	luma     *LumaMap
	rebuilds uint64

	// OnRebuild, if set, runs after every rebuild.
	OnRebuild func()
}

func NewLatch(src Source, luma *LumaMap) *Latch {
	return &Latch{src: src, luma: luma}
}

// NotifyByteCommitted is the controller's write-commit hook.
func (l *Latch) NotifyByteCommitted(page, column int) {
	if page != Pages-1 || column != Columns-1 || !l.src.Dirty() {
		return
	}
	l.luma.Rebuild(l.src)
	l.src.ClearDirty()
	l.rebuilds++
	if l.OnRebuild != nil {
		l.OnRebuild()
	}
}

// Rebuilds returns how many times the map has been rebuilt.
func (l *Latch) Rebuilds() uint64 { return l.rebuilds }

// Luma returns the map the latch maintains.
func (l *Latch) Luma() *LumaMap { return l.luma }
