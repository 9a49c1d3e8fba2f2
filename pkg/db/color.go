package db

import (
	"fmt"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Title colors chosen for label text.
const (
	TitleColorDark  = "black"
	TitleColorLight = "white"
)

// lightnessThreshold is the CIE L* (0..1) above which dark text is used.
const lightnessThreshold = 0.6

var namedColors = map[string]string{
	"black":  "#000000",
	"white":  "#ffffff",
	"red":    "#ff0000",
	"green":  "#008000",
	"lime":   "#00ff00",
	"blue":   "#0000ff",
	"yellow": "#ffff00",
	"orange": "#ffa500",
	"purple": "#800080",
	"pink":   "#ffc0cb",
	"gray":   "#808080",
	"grey":   "#808080",
	"brown":  "#a52a2a",
	"cyan":   "#00ffff",
	"teal":   "#008080",
	"navy":   "#000080",
}

// TitleColorFor returns the text color that stays readable on a label of the given CSS color.
// Unparseable colors get dark text.
func TitleColorFor(color string) string {
	c, err := parseCSSColor(color)
	if err != nil {
		return TitleColorDark
	}

	l, _, _ := c.Lab()
	if l > lightnessThreshold {
		return TitleColorDark
	}

	return TitleColorLight
}

func parseCSSColor(color string) (colorful.Color, error) {
	color = strings.ToLower(strings.TrimSpace(color))

	if hex, ok := namedColors[color]; ok {
		color = hex
	}

	if strings.HasPrefix(color, "rgb") {
		var r, g, b uint8

		inner := color[strings.IndexByte(color, '(')+1:]
		inner = strings.TrimSuffix(inner, ")")
		inner = strings.ReplaceAll(inner, " ", "")

		if _, err := fmt.Sscanf(inner, "%d,%d,%d", &r, &g, &b); err != nil {
			return colorful.Color{}, fmt.Errorf("error parsing color %q: %w", color, err)
		}

		return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}, nil
	}

	c, err := colorful.Hex(color)
	if err != nil {
		return colorful.Color{}, fmt.Errorf("error parsing color %q: %w", color, err)
	}

	return c, nil
}
