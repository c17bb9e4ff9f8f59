// Package overlay draws interaction markers on recorded frames.
package overlay

import (
	"image"
	"image/color"
	"image/draw"
	"math"
)

// RippleRadius is the radius of the click marker in pixels.
const RippleRadius = 15

var (
	rippleColor = color.RGBA{66, 133, 244, 220}
	dotColor    = color.RGBA{66, 133, 244, 255}
)

// MarkClick returns a copy of frame with a click ripple centred on (x, y).
// Points outside the frame are clipped.
func MarkClick(frame image.Image, x, y int) image.Image {
	bounds := frame.Bounds()
	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, frame, bounds.Min, draw.Src)

	drawRing(out, x, y, RippleRadius, rippleColor)
	drawRing(out, x, y, RippleRadius-1, rippleColor)
	fillDisc(out, x, y, 3, dotColor)
	return out
}

func drawRing(img *image.RGBA, cx, cy, radius int, c color.RGBA) {
	steps := int(2 * math.Pi * float64(radius) * 2)
	for i := 0; i < steps; i++ {
		rad := 2 * math.Pi * float64(i) / float64(steps)
		px := cx + int(math.Round(float64(radius)*math.Cos(rad)))
		py := cy + int(math.Round(float64(radius)*math.Sin(rad)))
		setPixelSafe(img, px, py, c)
	}
}

func fillDisc(img *image.RGBA, cx, cy, radius int, c color.RGBA) {
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy <= radius*radius {
				setPixelSafe(img, cx+dx, cy+dy, c)
			}
		}
	}
}

func setPixelSafe(img *image.RGBA, x, y int, c color.RGBA) {
	if (image.Point{X: x, Y: y}).In(img.Bounds()) {
		img.SetRGBA(x, y, c)
	}
}
