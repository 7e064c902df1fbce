package cart

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

// hexRecord formats one Intel HEX record with its checksum.
func hexRecord(addr uint16, typ byte, data []byte) string {
	sum := byte(len(data)) + byte(addr>>8) + byte(addr) + typ
	var b strings.Builder
	fmt.Fprintf(&b, ":%02X%04X%02X", len(data), addr, typ)
	for _, d := range data {
		fmt.Fprintf(&b, "%02X", d)
		sum += d
	}
	fmt.Fprintf(&b, "%02X\n", byte(-int(sum)))
	return b.String()
}

// buildHex makes a hex file with one data record per segment.
func buildHex(segs map[uint16][]byte) string {
	var b strings.Builder
	for addr, data := range segs {
		b.WriteString(hexRecord(addr, 0x00, data))
	}
	b.WriteString(":00000001FF\n")
	return b.String()
}

func buildBundle(t *testing.T, manifest, hexName, hexData string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range map[string]string{"game/info.json": manifest, hexName: hexData} {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create: %v", err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("zip write: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func TestParseHex_MergesSegmentsWithErasedGap(t *testing.T) {
	src := buildHex(map[uint16][]byte{
		0x0000: {0x0C, 0x94, 0x5C, 0x00},
		0x0008: {0xAA, 0xBB},
	})
	img, err := ParseHex(strings.NewReader(src))
	if err != nil {
		t.Fatalf("ParseHex: %v", err)
	}
	want := []byte{0x0C, 0x94, 0x5C, 0x00, 0xFF, 0xFF, 0xFF, 0xFF, 0xAA, 0xBB}
	if img.Base != 0 || !bytes.Equal(img.Data, want) {
		t.Fatalf("image base=%#x data=% x want % x", img.Base, img.Data, want)
	}
	if img.End() != 10 {
		t.Fatalf("End got %d want 10", img.End())
	}
}

func TestParseHex_BaseAddress(t *testing.T) {
	img, err := ParseHex(strings.NewReader(buildHex(map[uint16][]byte{0x7000: {1, 2}})))
	if err != nil {
		t.Fatalf("ParseHex: %v", err)
	}
	if img.Base != 0x7000 || len(img.Data) != 2 {
		t.Fatalf("base=%#x len=%d", img.Base, len(img.Data))
	}
}

func TestParseHex_Errors(t *testing.T) {
	if _, err := ParseHex(strings.NewReader(":00000001FF\n")); !errors.Is(err, ErrEmptyImage) {
		t.Fatalf("empty hex err got %v", err)
	}
	if _, err := ParseHex(strings.NewReader("not a hex file\n")); err == nil {
		t.Fatalf("garbage accepted")
	}
	// extended linear address 0x0001 puts the data at 0x10000, past flash
	far := hexRecord(0, 0x04, []byte{0x00, 0x01}) + hexRecord(0, 0x00, []byte{1}) + ":00000001FF\n"
	if _, err := ParseHex(strings.NewReader(far)); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("oversize err got %v", err)
	}
}

func TestParseArduboy(t *testing.T) {
	manifest := `{"title":"Test Game","author":"someone","version":"1.0",
		"binaries":[{"title":"Test Game","filename":"test.hex","device":"Arduboy"}]}`
	zipped := buildBundle(t, manifest, "game/TEST.HEX", buildHex(map[uint16][]byte{0: {9, 8, 7}}))
	img, err := ParseArduboy(bytes.NewReader(zipped), int64(len(zipped)))
	if err != nil {
		t.Fatalf("ParseArduboy: %v", err)
	}
	if img.Info == nil || img.Info.Author != "someone" || img.Title() != "Test Game" {
		t.Fatalf("manifest not attached: %+v", img.Info)
	}
	if !bytes.Equal(img.Data, []byte{9, 8, 7}) {
		t.Fatalf("data got % x", img.Data)
	}
	if img.Info.DeviceString() != "Arduboy" {
		t.Fatalf("device got %q", img.Info.DeviceString())
	}
}

func TestParseArduboy_MissingBinary(t *testing.T) {
	cases := map[string]string{
		"no binaries":  `{"title":"x","binaries":[]}`,
		"missing file": `{"title":"x","binaries":[{"filename":"other.hex"}]}`,
		"bad json":     `{"title":`,
	}
	for name, manifest := range cases {
		t.Run(name, func(t *testing.T) {
			zipped := buildBundle(t, manifest, "game.hex", buildHex(map[uint16][]byte{0: {1}}))
			if _, err := ParseArduboy(bytes.NewReader(zipped), int64(len(zipped))); err == nil {
				t.Fatalf("bundle accepted")
			}
		})
	}
}

func TestLoad_DispatchOnExtension(t *testing.T) {
	fs := afero.NewMemMapFs()
	hexData := buildHex(map[uint16][]byte{0: {0x11, 0x22}})
	if err := afero.WriteFile(fs, "/games/blink.hex", []byte(hexData), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	manifest := `{"title":"Blink","binaries":[{"filename":"blink.hex"}]}`
	if err := afero.WriteFile(fs, "/games/blink.arduboy", buildBundle(t, manifest, "blink.hex", hexData), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := afero.WriteFile(fs, "/games/blink.bin", []byte{1}, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	img, err := Load(fs, "/games/blink.hex")
	if err != nil {
		t.Fatalf("Load hex: %v", err)
	}
	if img.Title() != "blink" || img.Info != nil {
		t.Fatalf("hex title got %q", img.Title())
	}
	img2, err := Load(fs, "/games/blink.arduboy")
	if err != nil {
		t.Fatalf("Load bundle: %v", err)
	}
	if img2.Title() != "Blink" || img2.CRC32() != img.CRC32() {
		t.Fatalf("bundle title=%q crc=%08x want %08x", img2.Title(), img2.CRC32(), img.CRC32())
	}
	if _, err := Load(fs, "/games/blink.bin"); !errors.Is(err, ErrFormat) {
		t.Fatalf("bin err got %v", err)
	}
	if _, err := Load(fs, "/games/missing.hex"); err == nil {
		t.Fatalf("missing file accepted")
	}
}
