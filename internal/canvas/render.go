package canvas

import (
	"image"
	"image/color"

	"github.com/gogpu/gg"

	"github.com/ayusman/aircanvas/internal/geom"
)

var eraserRing = color.RGBA{R: 100, G: 100, B: 100, A: 255}

// Render returns a copy of the raster with the open stroke and, when cursor
// is not nil, a ring showing the tool size at the cursor.
func (c *Canvas) Render(cursor *geom.Point) *image.RGBA {
	if c.overlay == nil {
		c.overlay = gg.NewPixmap(c.cfg.Width, c.cfg.Height)
		c.overlayDC = gg.NewContext(c.cfg.Width, c.cfg.Height, gg.WithPixmap(c.overlay))
		c.overlayDC.SetLineCap(gg.LineCapRound)
		c.overlayDC.SetLineJoin(gg.LineJoinRound)
	}
	copy(c.overlay.Data(), c.pm.Data())
	dc := c.overlayDC

	if s := c.active; s != nil && s.Len() > 0 {
		pts := s.Points()
		dc.SetColor(s.Color)
		if len(pts) == 1 {
			dc.DrawCircle(pts[0].X, pts[0].Y, s.Width/2)
			_ = dc.Fill()
		} else {
			dc.SetLineWidth(s.Width)
			dc.MoveTo(pts[0].X, pts[0].Y)
			for _, p := range pts[1:] {
				dc.LineTo(p.X, p.Y)
			}
			_ = dc.Stroke()
		}
	}

	if cursor != nil {
		ring, radius := Palette[c.colorIndex].RGBA, c.brushSize/2
		if c.tool == Eraser || c.erasing {
			ring, radius = eraserRing, c.eraserSize/2
		}
		dc.SetColor(ring)
		dc.SetLineWidth(2)
		dc.DrawCircle(cursor.X, cursor.Y, radius)
		_ = dc.Stroke()
	}

	return c.overlay.ToImage()
}
