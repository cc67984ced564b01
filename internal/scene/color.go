package scene

import (
	"image/color"
	"strconv"
	"strings"
)

// Hex parses "#RRGGBB" or "#RRGGBBAA". Invalid input yields opaque black.
func Hex(s string) color.Color {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 && len(s) != 8 {
		return color.Black
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.Black
	}
	if len(s) == 6 {
		return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}
}

// RGBA builds a translucent colour from 8-bit channels and a 0..1 alpha.
func RGBA(r, g, b uint8, alpha float64) color.Color {
	return color.NRGBA{R: r, G: g, B: b, A: uint8(alpha*255 + 0.5)}
}
