// Package render draws detection boxes over a bitmap at its rendered size.
package render

import (
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/nfnt/resize"
	"golang.org/x/image/font/gofont/goregular"

	"humandetector/internal/detection"
	"humandetector/internal/model"
)

const (
	borderWidth    = 4
	captionSize    = 17
	captionPadding = 2
)

// Style is the look of one partition's boxes.
type Style struct {
	Border  color.Color
	Caption color.Color
}

var (
	OtherStyle  = Style{Border: color.RGBA{R: 0xe3, G: 0xe3, B: 0xdc, A: 0xff}, Caption: color.Black}
	PersonStyle = Style{Border: color.RGBA{R: 0x1a, G: 0xc7, B: 0x1a, A: 0xff}, Caption: color.White}
)

var font *truetype.Font

func init() {
	var err error
	font, err = truetype.Parse(goregular.TTF)
	if err != nil {
		panic(err)
	}
}

// Overlay resizes img to rendered and draws the detections on it. Boxes are
// expected in rendered coordinates. Person boxes are drawn last so they sit
// on top of everything else.
func Overlay(img image.Image, rendered model.Size, detections []model.RescaledDetection) (image.Image, error) {
	if rendered.Degenerate() {
		return nil, fmt.Errorf("%w: rendered %v", detection.ErrInvalidDimensions, rendered)
	}

	w, h := uint(rendered.Width+0.5), uint(rendered.Height+0.5)
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("%w: rendered %v", detection.ErrInvalidDimensions, rendered)
	}
	resized := resize.Resize(w, h, img, resize.Bilinear)

	dc := gg.NewContextForImage(resized)
	dc.SetFontFace(truetype.NewFace(font, &truetype.Options{Size: captionSize}))

	persons, others := detection.Partition(detections)
	for _, d := range others {
		drawBox(dc, d, OtherStyle)
	}
	for _, d := range persons {
		drawBox(dc, d, PersonStyle)
	}
	return dc.Image(), nil
}

func drawBox(dc *gg.Context, d model.RescaledDetection, style Style) {
	box := d.Box

	dc.SetColor(style.Border)
	dc.SetLineWidth(borderWidth)
	dc.DrawRectangle(box.X, box.Y, box.Width, box.Height)
	dc.Stroke()

	caption := d.Caption()
	tw, th := dc.MeasureString(caption)
	labelW, labelH := tw+2*captionPadding, th+2*captionPadding

	// Caption sits on the top edge; it moves inside the box when there is no room above.
	top := box.Y - labelH - borderWidth/2
	if top < 0 {
		top = box.Y
	}
	left := box.X - borderWidth/2

	dc.SetColor(style.Border)
	dc.DrawRectangle(left, top, labelW, labelH)
	dc.Fill()

	dc.SetColor(style.Caption)
	dc.DrawStringAnchored(caption, left+captionPadding, top+captionPadding, 0, 1)
}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	return gg.NewContextForImage(img).EncodePNG(w)
}

// SavePNG writes img to path as PNG.
func SavePNG(path string, img image.Image) error {
	return gg.SavePNG(path, img)
}
