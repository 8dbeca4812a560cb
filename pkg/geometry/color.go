package geometry

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/image/colornames"
)

// maxByte is the maximum value of a byte, used for color normalization.
const maxByte = 255.0

// Color is stored as ARGB (0xAARRGGBB).
type Color uint32

// RGBA constructs a Color from red, green, blue bytes and alpha (0-1).
func RGBA(r, g, b uint8, a float64) Color {
	return Color(uint32(alpha01ToByte(a))<<24 | uint32(r)<<16 | uint32(g)<<8 | uint32(b))
}

// RGBA8 constructs a Color from red, green, blue, alpha bytes (all 0-255).
func RGBA8(r, g, b, a uint8) Color {
	return Color(uint32(a)<<24 | uint32(r)<<16 | uint32(g)<<8 | uint32(b))
}

// RGB constructs an opaque Color from red, green, blue bytes.
func RGB(r, g, b uint8) Color {
	return RGBA8(r, g, b, 0xFF)
}

// RGBAF returns normalized color components (0.0 to 1.0).
func (c Color) RGBAF() (r, g, b, a float64) {
	return float64(uint8(c>>16)) / maxByte,
		float64(uint8(c>>8)) / maxByte,
		float64(uint8(c)) / maxByte,
		float64(uint8(c>>24)) / maxByte
}

// Alpha returns the alpha component as a value from 0.0 (transparent) to 1.0 (opaque).
func (c Color) Alpha() float64 {
	return float64(uint8(c>>24)) / maxByte
}

// WithAlpha returns a copy of the color with the given alpha (0-1).
func (c Color) WithAlpha(a float64) Color {
	return Color(uint32(alpha01ToByte(a))<<24 | uint32(c)&0x00FFFFFF)
}

func (c Color) String() string {
	if uint8(c>>24) == 0xFF {
		return fmt.Sprintf("#%06x", uint32(c)&0x00FFFFFF)
	}
	return fmt.Sprintf("#%06x%02x", uint32(c)&0x00FFFFFF, uint8(c>>24))
}

// alpha01ToByte converts a 0-1 alpha to 0-255 with proper rounding.
func alpha01ToByte(a float64) uint8 {
	return uint8(math.Round(clamp01(a) * 255))
}

// clamp01 clamps a value to the range [0, 1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Common colors.
const (
	ColorTransparent = Color(0x00000000)
	ColorBlack       = Color(0xFF000000)
	ColorWhite       = Color(0xFFFFFFFF)
	ColorRed         = Color(0xFFFF0000)
	ColorGreen       = Color(0xFF00FF00)
	ColorBlue        = Color(0xFF0000FF)
)

// NamedColor resolves a CSS/SVG color name ("red", "cornflowerblue").
func NamedColor(name string) (Color, bool) {
	rgba, ok := colornames.Map[strings.ToLower(name)]
	if !ok {
		return 0, false
	}
	return RGBA8(rgba.R, rgba.G, rgba.B, rgba.A), true
}

// ParseHexColor parses "#rgb", "#rgba", "#rrggbb" and "#rrggbbaa" forms.
func ParseHexColor(s string) (Color, error) {
	hex := strings.TrimPrefix(s, "#")
	var digits []uint8
	for _, r := range hex {
		d, err := hexDigit(r)
		if err != nil {
			return 0, fmt.Errorf("invalid color literal %q: %w", s, err)
		}
		digits = append(digits, d)
	}
	byteAt := func(i int) uint8 { return digits[2*i]<<4 | digits[2*i+1] }
	switch len(digits) {
	case 3:
		return RGBA8(digits[0]*17, digits[1]*17, digits[2]*17, 0xFF), nil
	case 4:
		return RGBA8(digits[0]*17, digits[1]*17, digits[2]*17, digits[3]*17), nil
	case 6:
		return RGBA8(byteAt(0), byteAt(1), byteAt(2), 0xFF), nil
	case 8:
		return RGBA8(byteAt(0), byteAt(1), byteAt(2), byteAt(3)), nil
	}
	return 0, fmt.Errorf("invalid color literal %q: expected 3, 4, 6 or 8 hex digits", s)
}

func hexDigit(r rune) (uint8, error) {
	switch {
	case r >= '0' && r <= '9':
		return uint8(r - '0'), nil
	case r >= 'a' && r <= 'f':
		return uint8(r-'a') + 10, nil
	case r >= 'A' && r <= 'F':
		return uint8(r-'A') + 10, nil
	}
	return 0, fmt.Errorf("bad hex digit %q", r)
}
