// Package render rasterizes a scene tree into an image. Two engines share
// one layout pass: Vector paints straight at the requested pixel ratio and
// Upscale paints at 1x and enlarges the result.
package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/nfnt/resize"
	xdraw "golang.org/x/image/draw"

	"github.com/saravenpi/firewood/internal/models"
	"github.com/saravenpi/firewood/internal/scene"
)

// Output limits, matching what browsers accept for a canvas.
const (
	// MaxDimension bounds either side of an output image in pixels.
	MaxDimension = 32767
	// MaxPixels bounds the area of an output image.
	MaxPixels = 1 << 28
)

var (
	ErrNothingToRender = errors.New("nothing to render")
	ErrTooLarge        = errors.New("image exceeds the maximum dimension")
	ErrNoFonts         = errors.New("no font source configured")
)

type Options struct {
	PixelRatio float64
	Background color.Color
	FontFamily []string
	// Filter returns false for nodes that must not be painted. Their
	// subtrees are skipped too.
	Filter func(*scene.Node) bool
}

type Rasterizer interface {
	Name() string
	Render(ctx context.Context, root *scene.Node, opts Options) (image.Image, error)
}

// Vector lays out and paints directly at the target pixel ratio.
type Vector struct {
	Fonts FaceSource
}

func (v *Vector) Name() string { return "vector" }

func (v *Vector) Render(ctx context.Context, root *scene.Node, opts Options) (image.Image, error) {
	ratio := opts.PixelRatio
	if ratio <= 0 {
		ratio = 1
	}
	b, err := layoutRoot(v.Fonts, root, opts)
	if err != nil {
		return nil, err
	}
	w, h, err := outputSize(b, ratio)
	if err != nil {
		return nil, err
	}
	return paintAt(ctx, v.Fonts, b, opts, ratio, w, h, xdraw.CatmullRom)
}

// Upscale paints at 1x and resamples the bitmap to the target pixel ratio.
type Upscale struct {
	Fonts FaceSource
}

func (u *Upscale) Name() string { return "upscale" }

func (u *Upscale) Render(ctx context.Context, root *scene.Node, opts Options) (image.Image, error) {
	b, err := layoutRoot(u.Fonts, root, opts)
	if err != nil {
		return nil, err
	}
	ratio := max(opts.PixelRatio, 1)
	w, h, err := outputSize(b, ratio)
	if err != nil {
		return nil, err
	}

	// The 1x paint is never larger than the output checked above.
	img, err := paintAt(ctx, u.Fonts, b, opts, 1, int(math.Ceil(b.w)), int(math.Ceil(b.h)), xdraw.NearestNeighbor)
	if err != nil {
		return nil, err
	}
	if ratio == 1 {
		return img, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return resize.Resize(uint(w), uint(h), img, resize.Lanczos3), nil
}

func layoutRoot(fonts FaceSource, root *scene.Node, opts Options) (*box, error) {
	if fonts == nil {
		return nil, ErrNoFonts
	}
	l := &layouter{fonts: fonts, families: opts.FontFamily, filter: opts.Filter}
	if !l.visible(root) {
		return nil, ErrNothingToRender
	}

	width := root.Style.Width
	if width <= 0 {
		width = models.ScreenWidth
	}
	b := l.layout(root, width, width, true)
	b.x, b.y = 0, 0
	return b, nil
}

// outputSize is the pixel size of b at ratio, checked against the limits.
func outputSize(b *box, ratio float64) (int, int, error) {
	w := int(math.Ceil(b.w * ratio))
	h := int(math.Ceil(b.h * ratio))
	if w <= 0 || h <= 0 {
		return 0, 0, ErrNothingToRender
	}
	if w > MaxDimension || h > MaxDimension || w*h > MaxPixels {
		return 0, 0, fmt.Errorf("%w: %dx%d", ErrTooLarge, w, h)
	}
	return w, h, nil
}

func paintAt(ctx context.Context, fonts FaceSource, b *box, opts Options, ratio float64, w, h int, scaler xdraw.Interpolator) (*image.RGBA, error) {
	if w <= 0 || h <= 0 {
		return nil, ErrNothingToRender
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	bg := opts.Background
	if bg == nil {
		bg = color.White
	}
	draw.Draw(dst, dst.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	p := &painter{dst: dst, scale: ratio, fonts: fonts, families: opts.FontFamily, scaler: scaler}
	if err := p.paint(ctx, b, 0, 0); err != nil {
		return nil, err
	}
	return dst, nil
}
