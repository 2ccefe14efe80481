package imaging

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

const (
	cardWidth    = 640
	cardPadding  = 32
	cardGap      = 24
	shadowOffset = 8
	shadowAlpha  = 70
	gradientRise = 140
)

var cardBackground = color.NRGBA{R: 24, G: 24, B: 28, A: 255}

// ComposeOutfitCard stacks the top above the bottom on a dark card with
// padding, a soft drop shadow behind each garment and a darker gradient
// toward the lower edge. It is the last render tier and cannot fail: any
// input that decoded is composable.
func ComposeOutfitCard(top, bottom image.Image) image.Image {
	innerWidth := cardWidth - 2*cardPadding
	top = scaleToWidth(top, innerWidth)
	bottom = scaleToWidth(bottom, innerWidth)

	height := 2*cardPadding + cardGap + top.Bounds().Dy() + bottom.Bounds().Dy()
	card := image.NewNRGBA(image.Rect(0, 0, cardWidth, height))
	draw.Draw(card, card.Bounds(), image.NewUniform(cardBackground), image.Point{}, draw.Src)

	topRect := image.Rect(cardPadding, cardPadding, cardPadding+innerWidth, cardPadding+top.Bounds().Dy())
	bottomTop := topRect.Max.Y + cardGap
	bottomRect := image.Rect(cardPadding, bottomTop, cardPadding+innerWidth, bottomTop+bottom.Bounds().Dy())

	drawShadow(card, topRect)
	drawShadow(card, bottomRect)
	draw.Draw(card, topRect, top, top.Bounds().Min, draw.Over)
	draw.Draw(card, bottomRect, bottom, bottom.Bounds().Min, draw.Over)

	applyBottomGradient(card)
	return card
}

func scaleToWidth(img image.Image, width int) image.Image {
	bounds := img.Bounds()
	if bounds.Dx() == 0 {
		return img
	}
	height := bounds.Dy() * width / bounds.Dx()
	if height < 1 {
		height = 1
	}
	return Scale(img, width, height)
}

func drawShadow(card *image.NRGBA, rect image.Rectangle) {
	shadow := rect.Add(image.Pt(shadowOffset, shadowOffset))
	shade := color.NRGBA{A: shadowAlpha}
	draw.Draw(card, shadow, image.NewUniform(shade), image.Point{}, draw.Over)
}

// applyBottomGradient darkens the lowest rows progressively, strongest at
// the card edge.
func applyBottomGradient(card *image.NRGBA) {
	bounds := card.Bounds()
	start := bounds.Max.Y - gradientRise
	if start < bounds.Min.Y {
		start = bounds.Min.Y
	}

	for y := start; y < bounds.Max.Y; y++ {
		alpha := uint8(200 * (y - start) / gradientRise)
		shade := color.NRGBA{A: alpha}
		row := image.Rect(bounds.Min.X, y, bounds.Max.X, y+1)
		draw.Draw(card, row, image.NewUniform(shade), image.Point{}, draw.Over)
	}
}
