// Package eventimage stamps a timestamp string onto a saved event
// frame before it is written to disk, the way pkg/stdimg's Annotate
// draws text onto an image using a golang.org/x/image/font face.
package eventimage

import (
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/motdec/motiond/internal/motion"
)

// target adapts a *motion.Image to the draw.Image interface so a
// font.Drawer can paint glyphs directly onto it, without a round trip
// through image.NRGBA.
type target struct {
	img *motion.Image
}

func (t *target) ColorModel() color.Model { return color.RGBAModel }

func (t *target) Bounds() image.Rectangle {
	return image.Rect(0, 0, t.img.Width, t.img.Height)
}

func (t *target) At(x, y int) color.Color {
	p, ok := t.img.Get(x, y)
	if !ok {
		return color.RGBA{}
	}
	return color.RGBA{R: p.Red, G: p.Green, B: p.Blue, A: 255}
}

func (t *target) Set(x, y int, c color.Color) {
	r, g, b, _ := c.RGBA()
	t.img.Set(x, y, motion.Pixel{Red: byte(r >> 8), Green: byte(g >> 8), Blue: byte(b >> 8)})
}

// Stamp draws text at (x,y) in the given colour using the basic
// built-in bitmap font, mutating img in place. There is no TTF lookup
// here, unlike pkg/stdimg's Annotate: event frames get a fixed, small
// overlay rather than a user-facing editing operation, so the basic
// font is the only face this package ever needs.
func Stamp(img *motion.Image, text string, x, y int, col motion.Pixel) {
	d := &font.Drawer{
		Dst:  &target{img: img},
		Src:  image.NewUniform(color.RGBA{R: col.Red, G: col.Green, B: col.Blue, A: 255}),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}
