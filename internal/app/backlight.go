package app

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/abelbrown/screenstate/internal/theme"
)

// DefaultBacklightDir is where Linux exposes backlight devices.
const DefaultBacklightDir = "/sys/class/backlight"

// Backlight returns a BrightnessSource reading the first device under dir.
// Machines without a readable backlight report full brightness.
func Backlight(dir string) theme.BrightnessSource {
	return func() float64 {
		devices, err := os.ReadDir(dir)
		if err != nil {
			return 1
		}
		for _, d := range devices {
			cur, err1 := readInt(filepath.Join(dir, d.Name(), "brightness"))
			top, err2 := readInt(filepath.Join(dir, d.Name(), "max_brightness"))
			if err1 != nil || err2 != nil || top <= 0 {
				continue
			}
			v := float64(cur) / float64(top)
			return min(1, max(0, v))
		}
		return 1
	}
}

func readInt(path string) (int, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(b)))
}
