// Package imaging holds the pure pixel operations behind garment
// preparation and the composite render tier. Everything here works on
// decoded image.Image values; codec concerns stay in the valueobjects
// package.
package imaging

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

const combinedHeight = 768

// ApplyMask keeps garment pixels where the mask is bright and makes the
// rest transparent. The mask is scaled to the garment size when the
// segmentation backend returns a different resolution.
func ApplyMask(garment, mask image.Image) image.Image {
	bounds := garment.Bounds()
	if !mask.Bounds().Eq(bounds) {
		mask = Scale(mask, bounds.Dx(), bounds.Dy())
	}

	out := image.NewNRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			m := color.GrayModel.Convert(mask.At(x, y)).(color.Gray)
			if m.Y < 128 {
				continue
			}
			out.Set(x, y, garment.At(x, y))
		}
	}
	return out
}

// RemoveBackground estimates the background color from the four corners
// and clears every pixel within tolerance of it. It is the local fallback
// when no segmentation backend is configured or the remote call fails.
func RemoveBackground(img image.Image, tolerance uint32) image.Image {
	bounds := img.Bounds()
	bg := cornerColor(img)

	out := image.NewNRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := img.At(x, y)
			if colorDistance(c, bg) <= tolerance {
				continue
			}
			out.Set(x, y, c)
		}
	}
	return out
}

// AddWhiteBackground flattens transparency onto white. Generative
// backends handle opaque inputs more predictably than alpha channels.
func AddWhiteBackground(img image.Image) image.Image {
	bounds := img.Bounds()
	out := image.NewNRGBA(bounds)
	draw.Draw(out, bounds, image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(out, bounds, img, bounds.Min, draw.Over)
	return out
}

// CombineGarments places the top and bottom side by side on a white
// canvas, both scaled to a shared height.
func CombineGarments(top, bottom image.Image) image.Image {
	top = scaleToHeight(top, combinedHeight)
	bottom = scaleToHeight(bottom, combinedHeight)

	topW := top.Bounds().Dx()
	width := topW + bottom.Bounds().Dx()

	out := image.NewNRGBA(image.Rect(0, 0, width, combinedHeight))
	draw.Draw(out, out.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(out, image.Rect(0, 0, topW, combinedHeight), top, top.Bounds().Min, draw.Over)
	draw.Draw(out, image.Rect(topW, 0, width, combinedHeight), bottom, bottom.Bounds().Min, draw.Over)
	return out
}

// Scale resizes to exact dimensions with approximate bi-linear sampling.
func Scale(img image.Image, width, height int) image.Image {
	out := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(out, out.Bounds(), img, img.Bounds(), draw.Src, nil)
	return out
}

func scaleToHeight(img image.Image, height int) image.Image {
	bounds := img.Bounds()
	if bounds.Dy() == 0 {
		return img
	}
	width := bounds.Dx() * height / bounds.Dy()
	if width < 1 {
		width = 1
	}
	return Scale(img, width, height)
}

// cornerColor averages the four corner pixels.
func cornerColor(img image.Image) color.Color {
	b := img.Bounds()
	corners := []image.Point{
		{b.Min.X, b.Min.Y},
		{b.Max.X - 1, b.Min.Y},
		{b.Min.X, b.Max.Y - 1},
		{b.Max.X - 1, b.Max.Y - 1},
	}

	var r, g, bl, a uint32
	for _, p := range corners {
		cr, cg, cb, ca := img.At(p.X, p.Y).RGBA()
		r += cr
		g += cg
		bl += cb
		a += ca
	}
	n := uint32(len(corners))
	return color.RGBA64{R: uint16(r / n), G: uint16(g / n), B: uint16(bl / n), A: uint16(a / n)}
}

// colorDistance is the max per-channel difference in 16-bit color space.
func colorDistance(a, b color.Color) uint32 {
	ar, ag, ab, _ := a.RGBA()
	br, bg, bb, _ := b.RGBA()

	d := channelDiff(ar, br)
	if dg := channelDiff(ag, bg); dg > d {
		d = dg
	}
	if db := channelDiff(ab, bb); db > d {
		d = db
	}
	return d
}

func channelDiff(a, b uint32) uint32 {
	if a > b {
		return a - b
	}
	return b - a
}
