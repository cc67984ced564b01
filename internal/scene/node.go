// Package scene models the rendered chat screen as a tree of styled nodes.
// The tree is what the exporter hides controls in and what the raster
// engines lay out and paint.
package scene

import (
	"image/color"
	"slices"
)

type Kind int

const (
	KindBox Kind = iota
	KindText
	KindImage
	KindBattery
)

type Display int

const (
	DisplayBlock Display = iota
	DisplayNone
)

type Direction int

const (
	Column Direction = iota
	Row
)

type Align int

const (
	AlignStart Align = iota
	AlignCenter
	AlignEnd
)

// Edges is a padding in logical pixels.
type Edges struct {
	Top, Right, Bottom, Left float64
}

func Pad(v float64) Edges           { return Edges{v, v, v, v} }
func PadXY(x, y float64) Edges      { return Edges{Top: y, Right: x, Bottom: y, Left: x} }
func (e Edges) Horizontal() float64 { return e.Left + e.Right }
func (e Edges) Vertical() float64   { return e.Top + e.Bottom }

// Corners holds per-corner radii; zero means square.
type Corners struct {
	TopLeft, TopRight, BottomRight, BottomLeft float64
}

func Round(r float64) Corners { return Corners{r, r, r, r} }

// Style is the subset of CSS the raster engines understand.
type Style struct {
	Display   Display
	Direction Direction
	// Justify aligns children on the main axis, Align on the cross axis.
	Justify Align
	Align   Align
	// Grow lets a row child take the remaining main-axis space.
	Grow bool

	Padding Edges
	Margin  Edges
	Gap     float64

	Width     float64
	Height    float64
	MinHeight float64
	// MaxWidthPct caps the width as a fraction of the available width.
	MaxWidthPct float64
	MaxWidth    float64

	Background   color.Color
	Radius       Corners
	BorderBottom color.Color
	BorderTop    color.Color

	Color    color.Color
	FontSize float64
	Bold     bool
	// LineHeight is a multiplier of FontSize.
	LineHeight float64
	TextAlign  Align
}

type Node struct {
	ID       string
	Kind     Kind
	Classes  []string
	Attrs    map[string]string
	Style    Style
	Text     string
	Image    *ImageRef
	Battery  int
	Children []*Node
}

// Box creates a container node.
func Box(style Style, children ...*Node) *Node {
	return &Node{Kind: KindBox, Style: style, Children: compact(children)}
}

// Text creates a text leaf.
func Text(text string, style Style) *Node {
	return &Node{Kind: KindText, Text: text, Style: style}
}

// Image creates an image leaf of fixed size.
func Image(ref *ImageRef, style Style) *Node {
	return &Node{Kind: KindImage, Image: ref, Style: style}
}

func compact(nodes []*Node) []*Node {
	return slices.DeleteFunc(nodes, func(n *Node) bool { return n == nil })
}

// WithID sets the node id and returns the node.
func (n *Node) WithID(id string) *Node {
	n.ID = id
	return n
}

// WithClass appends classes and returns the node.
func (n *Node) WithClass(classes ...string) *Node {
	n.Classes = append(n.Classes, classes...)
	return n
}

// WithAttr sets an attribute and returns the node.
func (n *Node) WithAttr(key, value string) *Node {
	if n.Attrs == nil {
		n.Attrs = make(map[string]string)
	}
	n.Attrs[key] = value
	return n
}

func (n *Node) HasClass(class string) bool {
	return slices.Contains(n.Classes, class)
}

func (n *Node) HasAttr(key string) bool {
	_, ok := n.Attrs[key]
	return ok
}

func (n *Node) Hidden() bool {
	return n.Style.Display == DisplayNone
}

// Walk visits n and its descendants depth first. Returning false from fn
// skips the children of that node.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// FindByID returns the first node with the id, or nil.
func (n *Node) FindByID(id string) *Node {
	var found *Node
	n.Walk(func(x *Node) bool {
		if found != nil {
			return false
		}
		if x.ID == id {
			found = x
			return false
		}
		return true
	})
	return found
}

// FindAll returns every node matching pred in document order.
func (n *Node) FindAll(pred func(*Node) bool) []*Node {
	var out []*Node
	n.Walk(func(x *Node) bool {
		if pred(x) {
			out = append(out, x)
		}
		return true
	})
	return out
}

// Images returns the image handles of the subtree.
func (n *Node) Images() []*ImageRef {
	var refs []*ImageRef
	n.Walk(func(x *Node) bool {
		if x.Kind == KindImage && x.Image != nil {
			refs = append(refs, x.Image)
		}
		return true
	})
	return refs
}
