package render

import (
	"math"
	"strings"
	"unicode"

	"golang.org/x/image/font"

	"github.com/saravenpi/firewood/internal/scene"
)

// FaceSource hands out font faces at a logical size.
type FaceSource interface {
	Face(families []string, size float64, bold bool) font.Face
}

// box is a laid out node. Coordinates are logical pixels relative to the
// parent's border box.
type box struct {
	node     *scene.Node
	x, y     float64
	w, h     float64
	lines    []string
	lineH    float64
	children []*box
}

type layouter struct {
	fonts    FaceSource
	families []string
	filter   func(*scene.Node) bool
}

const defaultFontSize = 14

func (l *layouter) visible(n *scene.Node) bool {
	if n == nil || n.Hidden() {
		return false
	}
	return l.filter == nil || l.filter(n)
}

func (l *layouter) face(st scene.Style) font.Face {
	size := st.FontSize
	if size <= 0 {
		size = defaultFontSize
	}
	return l.fonts.Face(l.families, size, st.Bold)
}

func lineHeight(st scene.Style) float64 {
	size := st.FontSize
	if size <= 0 {
		size = defaultFontSize
	}
	if st.LineHeight > 0 {
		return size * st.LineHeight
	}
	return math.Ceil(size * 1.2)
}

// widthBudget applies the node's own width limits to the space the parent
// offers. base is the parent's content width, which percentages refer to.
func widthBudget(st scene.Style, avail, base float64) float64 {
	avail -= st.Margin.Horizontal()
	if st.MaxWidthPct > 0 {
		avail = math.Min(avail, base*st.MaxWidthPct)
	}
	if st.MaxWidth > 0 {
		avail = math.Min(avail, st.MaxWidth)
	}
	return math.Max(avail, 0)
}

// layout sizes n within avail. A stretched node fills avail; otherwise it
// shrinks to its content.
func (l *layouter) layout(n *scene.Node, avail, base float64, stretch bool) *box {
	st := n.Style
	budget := widthBudget(st, avail, base)
	b := &box{node: n}

	switch n.Kind {
	case scene.KindText:
		l.layoutText(b, budget, stretch)
	case scene.KindImage, scene.KindBattery:
		b.w, b.h = st.Width, st.Height
	default:
		if st.Direction == scene.Row {
			l.layoutRow(b, budget, stretch)
		} else {
			l.layoutColumn(b, budget, stretch)
		}
	}

	if st.Width > 0 {
		b.w = st.Width
	}
	if st.Height > 0 {
		b.h = st.Height
	}
	if st.MinHeight > 0 {
		b.h = math.Max(b.h, st.MinHeight)
	}
	return b
}

func (l *layouter) layoutText(b *box, budget float64, stretch bool) {
	st := b.node.Style
	face := l.face(st)
	inner := budget - st.Padding.Horizontal()
	if st.Width > 0 {
		inner = st.Width - st.Padding.Horizontal()
	}

	b.lines = wrap(face, b.node.Text, inner)
	b.lineH = lineHeight(st)

	widest := 0.0
	for _, ln := range b.lines {
		widest = math.Max(widest, measure(face, ln))
	}
	b.w = math.Ceil(widest) + st.Padding.Horizontal()
	if stretch {
		b.w = budget
	}
	b.h = float64(len(b.lines))*b.lineH + st.Padding.Vertical()
}

// stretchable reports whether a column child fills the column width.
func stretchable(parent scene.Style, child *scene.Node) bool {
	return child.Kind == scene.KindBox && parent.Align == scene.AlignStart && child.Style.Width == 0
}

func (l *layouter) layoutColumn(b *box, budget float64, stretch bool) {
	st := b.node.Style
	inner := budget - st.Padding.Horizontal()

	var kids []*scene.Node
	for _, c := range b.node.Children {
		if l.visible(c) {
			kids = append(kids, c)
		}
	}

	boxes := make([]*box, len(kids))
	content := 0.0
	for i, c := range kids {
		boxes[i] = l.layout(c, inner, inner, false)
		content = math.Max(content, boxes[i].w+c.Style.Margin.Horizontal())
	}

	width := inner
	if !stretch {
		width = math.Min(content, inner)
	}
	for i, c := range kids {
		if stretchable(st, c) {
			boxes[i] = l.layout(c, width, width, true)
		}
	}

	y := st.Padding.Top
	for i, c := range kids {
		cb := boxes[i]
		m := c.Style.Margin
		if i > 0 {
			y += st.Gap
		}
		y += m.Top
		switch st.Align {
		case scene.AlignCenter:
			cb.x = st.Padding.Left + (width-cb.w)/2
		case scene.AlignEnd:
			cb.x = st.Padding.Left + width - cb.w - m.Right
		default:
			cb.x = st.Padding.Left + m.Left
		}
		cb.y = y
		y += cb.h + m.Bottom
	}

	b.children = boxes
	b.w = width + st.Padding.Horizontal()
	b.h = y + st.Padding.Bottom
}

func (l *layouter) layoutRow(b *box, budget float64, stretch bool) {
	st := b.node.Style
	inner := budget - st.Padding.Horizontal()

	var kids []*scene.Node
	for _, c := range b.node.Children {
		if l.visible(c) {
			kids = append(kids, c)
		}
	}

	boxes := make([]*box, len(kids))
	used := st.Gap * float64(max(len(kids)-1, 0))
	grow := 0
	for i, c := range kids {
		if c.Style.Grow {
			grow++
			continue
		}
		boxes[i] = l.layout(c, math.Max(inner-used, 0), inner, false)
		used += boxes[i].w + c.Style.Margin.Horizontal()
	}

	width := math.Min(used, inner)
	if stretch || grow > 0 {
		width = inner
	}
	if grow > 0 {
		share := math.Max(inner-used, 0) / float64(grow)
		for i, c := range kids {
			if c.Style.Grow {
				boxes[i] = l.layout(c, share, inner, true)
				used += boxes[i].w + c.Style.Margin.Horizontal()
			}
		}
	}

	height := 0.0
	for i, c := range kids {
		height = math.Max(height, boxes[i].h+c.Style.Margin.Vertical())
	}

	x := st.Padding.Left
	if free := width - math.Min(used, width); free > 0 {
		switch st.Justify {
		case scene.AlignCenter:
			x += free / 2
		case scene.AlignEnd:
			x += free
		}
	}
	for i, c := range kids {
		cb := boxes[i]
		m := c.Style.Margin
		if i > 0 {
			x += st.Gap
		}
		x += m.Left
		cb.x = x
		switch st.Align {
		case scene.AlignCenter:
			cb.y = st.Padding.Top + (height-cb.h-m.Vertical())/2 + m.Top
		case scene.AlignEnd:
			cb.y = st.Padding.Top + height - cb.h - m.Bottom
		default:
			cb.y = st.Padding.Top + m.Top
		}
		x += cb.w + m.Right
	}

	b.children = boxes
	b.w = width + st.Padding.Horizontal()
	b.h = height + st.Padding.Vertical()
}

func measure(face font.Face, s string) float64 {
	return float64(font.MeasureString(face, s)) / 64
}

// wrap breaks text into lines no wider than maxW. Words are kept whole when
// they fit on a line of their own; longer words break between runes.
func wrap(face font.Face, text string, maxW float64) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		lines = append(lines, wrapParagraph(face, para, maxW)...)
	}
	return lines
}

func wrapParagraph(face font.Face, para string, maxW float64) []string {
	words := strings.FieldsFunc(para, unicode.IsSpace)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	cur := ""
	for _, w := range words {
		cand := w
		if cur != "" {
			cand = cur + " " + w
		}
		if measure(face, cand) <= maxW {
			cur = cand
			continue
		}
		if cur != "" {
			lines = append(lines, cur)
			cur = ""
		}
		if measure(face, w) <= maxW {
			cur = w
			continue
		}
		for _, r := range w {
			if cur != "" && measure(face, cur+string(r)) > maxW {
				lines = append(lines, cur)
				cur = ""
			}
			cur += string(r)
		}
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	return lines
}
