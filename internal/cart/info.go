package cart

import (
	"encoding/json"
	"errors"
	"strings"
)

// Binary is one program entry of a bundle manifest.
type Binary struct {
	Title    string `json:"title"`
	Filename string `json:"filename"`
	Device   string `json:"device"`
}

// Info is the info.json manifest of a .arduboy bundle.
type Info struct {
	Title       string   `json:"title"`
	Author      string   `json:"author"`
	Description string   `json:"description"`
	Version     string   `json:"version"`
	Date        string   `json:"date"`
	Genre       string   `json:"genre"`
	URL         string   `json:"url"`
	Binaries    []Binary `json:"binaries"`
}

var ErrNoBinary = errors.New("cart: manifest lists no binaries")

// ParseInfo decodes a bundle manifest. At least one binary is required.
func ParseInfo(data []byte) (*Info, error) {
	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, err
	}
	if len(info.Binaries) == 0 || strings.TrimSpace(info.Binaries[0].Filename) == "" {
		return nil, ErrNoBinary
	}
	return &info, nil
}

// DeviceString names the target board of the first binary.
func (info *Info) DeviceString() string {
	if len(info.Binaries) == 0 {
		return "unknown"
	}
	switch strings.ToLower(info.Binaries[0].Device) {
	case "", "arduboy":
		return "Arduboy"
	case "arduboyfx":
		return "Arduboy FX"
	case "arduboymini":
		return "Arduboy Mini"
	default:
		return info.Binaries[0].Device
	}
}
