package render

import (
	"image/color"

	"github.com/tdewolff/canvas"
)

// DrawBox paints a box with its top-left corner at (x, y). The context must
// use a top-left origin (canvas.CartesianIV).
func DrawBox(ctx *canvas.Context, fonts *Fonts, x, y float64, box Box) {
	for _, it := range box.Items {
		switch it.Kind {
		case ItemRule:
			p := &canvas.Path{}
			p.MoveTo(0, 0)
			p.LineTo(it.Width, 0)
			ctx.SetFillColor(color.RGBA{0, 0, 0, 0})
			ctx.SetStrokeColor(canvas.Hex(it.Color))
			ctx.SetStrokeWidth(it.Stroke)
			ctx.DrawPath(x+it.X, y+it.Y, p)
		case ItemText:
			if it.Text == "" {
				continue
			}
			face := fonts.Face(it.Role, it.Size, canvas.Hex(it.Color))
			ctx.DrawText(x+it.X, y+it.Baseline, canvas.NewTextLine(face, it.Text, textAlign(it.Align)))
		}
	}
}

func textAlign(a Align) canvas.TextAlign {
	switch a {
	case AlignCenter:
		return canvas.Center
	case AlignRight:
		return canvas.Right
	default:
		return canvas.Left
	}
}
