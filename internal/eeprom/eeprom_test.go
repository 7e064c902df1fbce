package eeprom

import (
	"bytes"
	"errors"
	"testing"

	"github.com/spf13/afero"
)

func TestLoad_MissingFileIsErased(t *testing.T) {
	s := New(afero.NewMemMapFs(), "/save/game.eep")
	data, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !bytes.Equal(data, Blank()) {
		t.Fatalf("missing file not erased")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := New(fs, "/save/game.eep")
	img := Blank()
	img[0], img[Size-1] = 0x12, 0x34
	if err := s.Save(img); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := New(fs, "/save/game.eep").Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !bytes.Equal(got, img) {
		t.Fatalf("round trip mismatch at %x/%x", got[0], got[Size-1])
	}
	if err := s.Save(img[:10]); err == nil {
		t.Fatalf("short image saved")
	}
}

func TestLoad_TruncatedFileIsErased(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/game.eep", []byte{1, 2, 3}, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := New(fs, "/game.eep").Load()
	if err != nil || data[0] != Erased {
		t.Fatalf("truncated load err=%v first=%02x", err, data[0])
	}
}

func TestBackupRestoreClear(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := New(fs, "/game.eep")
	img := Blank()
	img[100] = 0x42
	if err := s.Backup("/backup/game.eep", img); err != nil {
		t.Fatalf("Backup: %v", err)
	}
	if ok, _ := afero.Exists(fs, "/game.eep"); ok {
		t.Fatalf("backup touched the store")
	}
	got, err := s.Restore("/backup/game.eep")
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if got[100] != 0x42 {
		t.Fatalf("restored byte got %02x", got[100])
	}
	if stored, _ := s.Load(); stored[100] != 0x42 {
		t.Fatalf("restore not persisted")
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if stored, _ := s.Load(); !bytes.Equal(stored, Blank()) {
		t.Fatalf("clear left data")
	}
}

func TestRestore_ShortFileFails(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/short.eep", make([]byte, Size-1), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s := New(fs, "/game.eep")
	if _, err := s.Restore("/short.eep"); !errors.Is(err, ErrShort) {
		t.Fatalf("short restore err got %v", err)
	}
	if ok, _ := afero.Exists(fs, "/game.eep"); ok {
		t.Fatalf("failed restore wrote the store")
	}
}
