package debugserver

import (
	"io"

	"github.com/fogleman/gg"

	"github.com/bascanada/alacod-sub000/navigation"
)

// RenderField draws a flow field window: blocked cells dark red, covered
// cells shaded by cost with an arrow toward the next cell, the target green.
// Rows are flipped so +Y points up.
func RenderField(f *navigation.FlowField, blocked *navigation.Blocked, cellPixels int) *gg.Context {
	side := int(2*f.Radius + 1)
	px := float64(cellPixels)
	dc := gg.NewContext(side*cellPixels, side*cellPixels)
	dc.SetRGB(0.08, 0.08, 0.1)
	dc.Clear()

	entries := f.Entries()
	var maxCost int32 = 1
	for _, e := range entries {
		maxCost = max(maxCost, e.Cost)
	}

	origin := f.Target.Add(-f.Radius, f.Radius)
	screen := func(c navigation.GridPos) (float64, float64) {
		return float64(c.X-origin.X) * px, float64(origin.Y-c.Y) * px
	}

	for i := 0; i < side*side; i++ {
		c := origin.Add(int32(i/side), -int32(i%side))
		if blocked.IsBlocked(c, f.Profile) {
			x, y := screen(c)
			dc.SetRGB(0.45, 0.1, 0.1)
			dc.DrawRectangle(x, y, px, px)
			dc.Fill()
		}
	}

	for _, e := range entries {
		x, y := screen(e.Cell)
		shade := 0.85 - 0.65*float64(e.Cost)/float64(maxCost)
		dc.SetRGB(0.15, 0.2+0.5*shade, 0.35+0.5*shade)
		dc.DrawRectangle(x, y, px, px)
		dc.Fill()

		if e.Next == e.Cell {
			dc.SetRGB(0.2, 0.9, 0.3)
			dc.DrawCircle(x+px/2, y+px/2, px/3)
			dc.Fill()
			continue
		}
		nx, ny := screen(e.Next)
		dc.SetRGB(0.95, 0.95, 0.95)
		dc.SetLineWidth(1)
		dc.DrawLine(x+px/2, y+px/2, x+px/2+(nx-x)*0.4, y+px/2+(ny-y)*0.4)
		dc.Stroke()
	}
	return dc
}

// WriteFieldPNG renders and encodes a field
func WriteFieldPNG(w io.Writer, f *navigation.FlowField, blocked *navigation.Blocked, cellPixels int) error {
	return RenderField(f, blocked, cellPixels).EncodePNG(w)
}
