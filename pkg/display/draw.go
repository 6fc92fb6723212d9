package display

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

var (
	boxColor   = color.RGBA{0, 255, 0, 0}
	scoreColor = color.RGBA{0, 0, 255, 0}
	errorColor = color.RGBA{255, 0, 0, 0}
)

const (
	fontScale     = 0.6
	lineThickness = 2
)

// annotate converts the overlay's frame to a BGR Mat and draws every box.
// The caller owns the returned Mat.
func annotate(o Overlay) (gocv.Mat, error) {
	mat, err := gocv.ImageToMatRGB(o.Frame.Image)
	if err != nil {
		return gocv.NewMat(), err
	}
	origin := o.Frame.Bounds().Min
	for _, b := range o.Boxes {
		r := b.Rect.Sub(origin)
		gocv.Rectangle(&mat, r, boxColor, lineThickness)
		gocv.PutText(&mat, PersonLabel(b), image.Pt(r.Min.X, r.Min.Y-30),
			gocv.FontHersheySimplex, fontScale, boxColor, lineThickness)

		text := EmotionLabel(b)
		if text == "" {
			continue
		}
		c := scoreColor
		if b.Failed {
			c = errorColor
		}
		gocv.PutText(&mat, text, image.Pt(r.Min.X, r.Min.Y-10),
			gocv.FontHersheySimplex, fontScale, c, lineThickness)
	}
	return mat, nil
}
