package framebuffer

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Color is an immutable 24-bit RGB value
type Color struct {
	R, G, B uint8
}

// Palette used by the clock faces and the splash screen
var (
	Black   = Color{0, 0, 0}
	Red     = Color{255, 0, 0}
	Green   = Color{0, 255, 0}
	Blue    = Color{0, 0, 255}
	White   = Color{255, 255, 255}
	Yellow  = Color{255, 255, 0}
	Cyan    = Color{0, 255, 255}
	Magenta = Color{255, 0, 255}
)

var palette = map[string]Color{
	"black":   Black,
	"red":     Red,
	"green":   Green,
	"blue":    Blue,
	"white":   White,
	"yellow":  Yellow,
	"cyan":    Cyan,
	"magenta": Magenta,
}

// RGB builds a Color from its channels
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b}
}

// FromColor converts any image/color value, dropping alpha
func FromColor(c color.Color) Color {
	r, g, b, _ := c.RGBA()
	return RGB(uint8(r>>8), uint8(g>>8), uint8(b>>8))
}

// ParseColor accepts a palette name ("cyan") or a hex triplet ("#00ffff")
func ParseColor(s string) (Color, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if c, ok := palette[name]; ok {
		return c, nil
	}
	if !strings.HasPrefix(name, "#") {
		name = "#" + name
	}
	c, err := colorful.Hex(name)
	if err != nil {
		return Black, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return RGB(c.RGB255()), nil
}

// RGBA returns the opaque image/color equivalent
func (c Color) RGBA() color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}
}

// IsBlack reports whether every channel is off
func (c Color) IsBlack() bool {
	return c == Black
}

// Hex formats the color as #rrggbb
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// RGB565 packs the color into the 5-6-5 layout used by small panel controllers
func (c Color) RGB565() uint16 {
	return uint16(c.R&0xF8)<<8 | uint16(c.G&0xFC)<<3 | uint16(c.B)>>3
}

func (c Color) pack() uint32 {
	return uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

func unpack(v uint32) Color {
	return Color{uint8(v >> 16), uint8(v >> 8), uint8(v)}
}
