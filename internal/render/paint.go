package render

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/saravenpi/firewood/internal/models"
	"github.com/saravenpi/firewood/internal/scene"
)

// kappa places cubic control points so a quarter curve approximates a circle.
const kappa = 0.5522847

type painter struct {
	dst      *image.RGBA
	scale    float64
	fonts    FaceSource
	families []string
	scaler   xdraw.Interpolator
}

type rectF struct {
	x, y, w, h float64
}

func (p *painter) px(r rectF) rectF {
	s := p.scale
	return rectF{r.x * s, r.y * s, r.w * s, r.h * s}
}

func (p *painter) paint(ctx context.Context, b *box, ox, oy float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	n := b.node
	st := n.Style
	x, y := ox+b.x, oy+b.y
	area := rectF{x, y, b.w, b.h}

	switch n.Kind {
	case scene.KindImage:
		p.drawAvatar(n, area)
	case scene.KindBattery:
		p.drawBattery(area, n.Battery)
	default:
		if st.Background != nil {
			p.fillRounded(p.px(area), p.corners(st.Radius), st.Background)
		}
	}

	if st.BorderTop != nil {
		p.fillRect(p.px(rectF{x, y, b.w, 1}), st.BorderTop)
	}
	if st.BorderBottom != nil {
		p.fillRect(p.px(rectF{x, y + b.h - 1, b.w, 1}), st.BorderBottom)
	}

	if n.Kind == scene.KindText {
		p.drawText(b, x, y)
	}

	for _, c := range b.children {
		if err := p.paint(ctx, c, x, y); err != nil {
			return err
		}
	}
	return nil
}

func (p *painter) corners(c scene.Corners) scene.Corners {
	s := p.scale
	return scene.Corners{TopLeft: c.TopLeft * s, TopRight: c.TopRight * s, BottomRight: c.BottomRight * s, BottomLeft: c.BottomLeft * s}
}

func (p *painter) fillRect(r rectF, c color.Color) {
	rect := image.Rect(int(math.Floor(r.x)), int(math.Floor(r.y)), int(math.Ceil(r.x+r.w)), int(math.Ceil(r.y+r.h)))
	draw.Draw(p.dst, rect, image.NewUniform(c), image.Point{}, draw.Over)
}

// bounds returns the pixel rectangle covering r and the offset of r inside it.
func bounds(r rectF) (image.Rectangle, float32, float32) {
	x0, y0 := int(math.Floor(r.x)), int(math.Floor(r.y))
	x1, y1 := int(math.Ceil(r.x+r.w)), int(math.Ceil(r.y+r.h))
	return image.Rect(x0, y0, x1, y1), float32(r.x - float64(x0)), float32(r.y - float64(y0))
}

func clampCorners(c scene.Corners, w, h float64) scene.Corners {
	limit := math.Min(w, h) / 2
	return scene.Corners{
		TopLeft:     math.Min(c.TopLeft, limit),
		TopRight:    math.Min(c.TopRight, limit),
		BottomRight: math.Min(c.BottomRight, limit),
		BottomLeft:  math.Min(c.BottomLeft, limit),
	}
}

// roundedPath adds a rounded rectangle to z. Clockwise paths add coverage,
// counter-clockwise ones cut holes.
func roundedPath(z *vector.Rasterizer, ox, oy float32, w, h float64, c scene.Corners, clockwise bool) {
	c = clampCorners(c, w, h)
	fw, fh := float32(w), float32(h)
	tl, tr := float32(c.TopLeft), float32(c.TopRight)
	br, bl := float32(c.BottomRight), float32(c.BottomLeft)
	const k = kappa

	pt := func(x, y float32) (float32, float32) { return ox + x, oy + y }
	move := func(x, y float32) { z.MoveTo(pt(x, y)) }
	line := func(x, y float32) { z.LineTo(pt(x, y)) }
	cube := func(x1, y1, x2, y2, x, y float32) {
		ax, ay := pt(x1, y1)
		bx, by := pt(x2, y2)
		cx, cy := pt(x, y)
		z.CubeTo(ax, ay, bx, by, cx, cy)
	}

	if clockwise {
		move(tl, 0)
		line(fw-tr, 0)
		cube(fw-tr+tr*k, 0, fw, tr-tr*k, fw, tr)
		line(fw, fh-br)
		cube(fw, fh-br+br*k, fw-br+br*k, fh, fw-br, fh)
		line(bl, fh)
		cube(bl-bl*k, fh, 0, fh-bl+bl*k, 0, fh-bl)
		line(0, tl)
		cube(0, tl-tl*k, tl-tl*k, 0, tl, 0)
	} else {
		move(tl, 0)
		cube(tl-tl*k, 0, 0, tl-tl*k, 0, tl)
		line(0, fh-bl)
		cube(0, fh-bl+bl*k, bl-bl*k, fh, bl, fh)
		line(fw-br, fh)
		cube(fw-br+br*k, fh, fw, fh-br+br*k, fw, fh-br)
		line(fw, tr)
		cube(fw, tr-tr*k, fw-tr+tr*k, 0, fw-tr, 0)
	}
	z.ClosePath()
}

func (p *painter) fillRounded(r rectF, c scene.Corners, col color.Color) {
	rect, ox, oy := bounds(r)
	if rect.Empty() {
		return
	}
	z := vector.NewRasterizer(rect.Dx(), rect.Dy())
	roundedPath(z, ox, oy, r.w, r.h, c, true)
	z.Draw(p.dst, rect, image.NewUniform(col), image.Point{})
}

// fillRing paints the band between two rounded rectangles.
func (p *painter) fillRing(outer rectF, c scene.Corners, width float64, col color.Color) {
	rect, ox, oy := bounds(outer)
	if rect.Empty() {
		return
	}
	z := vector.NewRasterizer(rect.Dx(), rect.Dy())
	roundedPath(z, ox, oy, outer.w, outer.h, c, true)
	inner := scene.Corners{
		TopLeft:     math.Max(c.TopLeft-width, 0),
		TopRight:    math.Max(c.TopRight-width, 0),
		BottomRight: math.Max(c.BottomRight-width, 0),
		BottomLeft:  math.Max(c.BottomLeft-width, 0),
	}
	roundedPath(z, ox+float32(width), oy+float32(width), outer.w-2*width, outer.h-2*width, inner, false)
	z.Draw(p.dst, rect, image.NewUniform(col), image.Point{})
}

func (p *painter) drawText(b *box, x, y float64) {
	st := b.node.Style
	size := st.FontSize
	if size <= 0 {
		size = defaultFontSize
	}
	face := p.fonts.Face(p.families, size*p.scale, st.Bold)
	ink := st.Color
	if ink == nil {
		ink = color.Black
	}

	m := face.Metrics()
	ascent := float64(m.Ascent) / 64
	descent := float64(m.Descent) / 64
	lineH := b.lineH * p.scale
	innerW := (b.w - st.Padding.Horizontal()) * p.scale
	left := (x + st.Padding.Left) * p.scale
	top := (y + st.Padding.Top) * p.scale

	d := &font.Drawer{Dst: p.dst, Src: image.NewUniform(ink), Face: face}
	for i, ln := range b.lines {
		if ln == "" {
			continue
		}
		lx := left
		switch st.TextAlign {
		case scene.AlignCenter:
			lx += (innerW - measure(face, ln)) / 2
		case scene.AlignEnd:
			lx += innerW - measure(face, ln)
		}
		baseline := top + float64(i)*lineH + (lineH-(ascent+descent))/2 + ascent
		d.Dot = fixed.Point26_6{X: fixed.Int26_6(lx * 64), Y: fixed.Int26_6(baseline * 64)}
		d.DrawString(ln)
	}
}

// drawAvatar clips a loaded image to the node's corners. While the image is
// missing it paints the background and the fallback initial.
func (p *painter) drawAvatar(n *scene.Node, area rectF) {
	r := p.px(area)
	corners := p.corners(n.Style.Radius)

	var img image.Image
	if n.Image != nil {
		img = n.Image.Image()
	}
	if img == nil {
		if n.Style.Background != nil {
			p.fillRounded(r, corners, n.Style.Background)
		}
		if n.Text != "" {
			st := n.Style
			st.TextAlign = scene.AlignCenter
			st.Padding = scene.Edges{}
			lh := lineHeight(st)
			st.Padding.Top = math.Max((area.h-lh)/2, 0)
			p.drawText(&box{node: &scene.Node{Kind: scene.KindText, Text: n.Text, Style: st}, w: area.w, h: area.h, lines: []string{n.Text}, lineH: lh}, area.x, area.y)
		}
		return
	}

	rect, ox, oy := bounds(r)
	if rect.Empty() {
		return
	}
	scaled := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	p.scaler.Scale(scaled, scaled.Bounds(), img, img.Bounds(), xdraw.Src, nil)

	z := vector.NewRasterizer(rect.Dx(), rect.Dy())
	roundedPath(z, ox, oy, r.w, r.h, corners, true)
	z.Draw(p.dst, rect, scaled, image.Point{})
}

// BatteryColor follows the iOS thresholds.
func BatteryColor(level int) color.Color {
	switch {
	case level <= 20:
		return scene.Hex(models.IOSRed)
	case level <= 50:
		return scene.Hex(models.IOSOrange)
	default:
		return scene.Hex(models.IOSGreen)
	}
}

func (p *painter) drawBattery(area rectF, level int) {
	level = models.ClampBattery(level)
	body := rectF{area.x, area.y, area.w - 3, area.h}
	p.fillRing(p.px(body), p.corners(scene.Round(3.5)), p.scale, scene.RGBA(0, 0, 0, 0.35))

	nub := rectF{area.x + area.w - 2, area.y + area.h/2 - 2, 1.5, 4}
	p.fillRounded(p.px(nub), p.corners(scene.Corners{TopRight: 0.75, BottomRight: 0.75}), scene.RGBA(0, 0, 0, 0.4))

	if level == 0 {
		return
	}
	fill := rectF{body.x + 2, body.y + 2, (body.w - 4) * float64(level) / 100, body.h - 4}
	p.fillRounded(p.px(fill), p.corners(scene.Round(2)), BatteryColor(level))
}
