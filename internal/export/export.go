// Package export turns the rendered chat screen into a PNG file.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/saravenpi/firewood/internal/assets"
	"github.com/saravenpi/firewood/internal/history"
	"github.com/saravenpi/firewood/internal/logger"
	"github.com/saravenpi/firewood/internal/models"
	"github.com/saravenpi/firewood/internal/render"
	"github.com/saravenpi/firewood/internal/scene"
	"github.com/saravenpi/firewood/internal/session"
)

var (
	ErrMissingTarget = errors.New("chat content not found")
	ErrExportFailed  = errors.New("failed to export screenshot")
)

const (
	DefaultImageTimeout = 5 * time.Second
	DefaultSettleDelay  = 500 * time.Millisecond
	DefaultAppName      = "firewood"
)

type FontLoader interface {
	Ready(ctx context.Context) error
	Load(ctx context.Context, family string) error
}

// Saver stores the encoded PNG under name and returns where it went.
type Saver interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
}

type Recorder interface {
	Record(ctx context.Context, e history.Entry) error
}

// Strategy is one rasterization attempt.
type Strategy struct {
	Rasterizer render.Rasterizer
	PixelRatio float64
}

type Exporter struct {
	// Strategies are tried in order until one succeeds.
	Strategies   []Strategy
	Fonts        FontLoader
	Families     []string
	ImageTimeout time.Duration
	SettleDelay  time.Duration
	AppName      string
	Saver        Saver
	Recorder     Recorder
	Now          func() time.Time
}

// Options tunes New. Zero values fall back to the defaults.
type Options struct {
	AppName            string
	PixelRatio         float64
	FallbackPixelRatio float64
	ImageTimeout       time.Duration
	SettleDelay        time.Duration
}

// New builds the standard exporter: vector rendering first, a 1x paint
// upscaled as the fallback. fonts must not be nil.
func New(fonts *assets.FontBook, saver Saver, recorder Recorder, opts Options) *Exporter {
	if opts.PixelRatio <= 0 {
		opts.PixelRatio = 3
	}
	if opts.FallbackPixelRatio <= 0 {
		opts.FallbackPixelRatio = 2
	}
	return &Exporter{
		Strategies: []Strategy{
			{Rasterizer: &render.Vector{Fonts: fonts}, PixelRatio: opts.PixelRatio},
			{Rasterizer: &render.Upscale{Fonts: fonts}, PixelRatio: opts.FallbackPixelRatio},
		},
		Fonts:        fonts,
		Families:     assets.ExportFamilies,
		ImageTimeout: opts.ImageTimeout,
		SettleDelay:  opts.SettleDelay,
		AppName:      opts.AppName,
		Saver:        saver,
		Recorder:     recorder,
	}
}

// Background is the opaque fill behind the exported bitmap.
func Background(platform models.Platform) color.Color {
	if platform == models.PlatformKakaoTalk {
		return scene.Hex(models.KakaoBackground)
	}
	return color.White
}

// Filename is the download name of an export taken at t. The date is the
// UTC calendar day.
func Filename(app string, platform models.Platform, t time.Time) string {
	if app == "" {
		app = DefaultAppName
	}
	return fmt.Sprintf("%s-%s-chat-%s.png", app, platform, t.UTC().Format(time.DateOnly))
}

func keep(n *scene.Node) bool { return !scene.IsInteractive(n) }

// ExportAsImage renders the chat-content subtree of doc and saves it as a
// PNG. Interactive nodes anywhere in doc are hidden for the duration and
// restored before returning, whatever the outcome.
func (e *Exporter) ExportAsImage(ctx context.Context, doc *scene.Node, platform models.Platform) (string, error) {
	var target *scene.Node
	if doc != nil {
		target = doc.FindByID(scene.ChatContentID)
	}
	if target == nil {
		logger.L.Error("export target missing", "id", scene.ChatContentID)
		return "", ErrMissingTarget
	}

	start := time.Now()
	restore := hideInteractive(doc)
	defer restore()

	e.waitForFonts(ctx)
	e.waitForImages(ctx, target)

	if err := e.settle(ctx); err != nil {
		e.record(ctx, platform, "", "", err)
		return "", err
	}

	img, engine, err := e.rasterize(ctx, target, platform)
	if err != nil {
		logger.L.Error("screenshot export failed", "platform", platform, "error", err)
		e.record(ctx, platform, "", "", err)
		return "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		err = fmt.Errorf("%w: encode png: %w", ErrExportFailed, err)
		e.record(ctx, platform, "", engine, err)
		return "", err
	}

	name := Filename(e.AppName, platform, e.now())
	path, err := e.Saver.Save(ctx, name, buf.Bytes())
	if err != nil {
		err = fmt.Errorf("%w: save: %w", ErrExportFailed, err)
		e.record(ctx, platform, "", engine, err)
		return "", err
	}

	b := img.Bounds()
	logger.L.Info("screenshot exported",
		"platform", platform,
		"engine", engine,
		"path", path,
		"width", b.Dx(),
		"height", b.Dy(),
		"bytes", buf.Len(),
		"duration", time.Since(start))
	e.record(ctx, platform, path, engine, nil)
	return path, nil
}

// ExportSession marks the session busy, renders its current state and
// exports it. A concurrent call fails with session.ErrExportInProgress.
func (e *Exporter) ExportSession(ctx context.Context, sess *session.Session, builder *scene.Builder) (string, error) {
	release, err := sess.BeginExport()
	if err != nil {
		return "", err
	}
	defer release()

	snap := sess.Snapshot()
	return e.ExportAsImage(ctx, builder.Build(snap), snap.Platform)
}

func (e *Exporter) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Exporter) waitForFonts(ctx context.Context) {
	if e.Fonts == nil {
		return
	}
	if err := e.Fonts.Ready(ctx); err != nil {
		logger.L.Debug("font readiness failed", "error", err)
	}

	var wg conc.WaitGroup
	for _, family := range e.Families {
		wg.Go(func() {
			if err := e.Fonts.Load(ctx, family); err != nil {
				logger.L.Debug("font load failed", "family", family, "error", err)
			}
		})
	}
	wg.Wait()
}

// waitForImages blocks until every image in target settled or its timeout
// elapsed. Timeouts are not errors; unloaded images paint as placeholders.
func (e *Exporter) waitForImages(ctx context.Context, target *scene.Node) {
	timeout := e.ImageTimeout
	if timeout <= 0 {
		timeout = DefaultImageTimeout
	}

	var wg conc.WaitGroup
	for _, ref := range target.Images() {
		if ref.Complete() {
			continue
		}
		wg.Go(func() {
			timer := time.NewTimer(timeout)
			defer timer.Stop()
			select {
			case <-ref.Done():
			case <-timer.C:
				logger.L.Warn("image load timed out", "src", ref.Src, "timeout", timeout)
			case <-ctx.Done():
			}
		})
	}
	wg.Wait()
}

func (e *Exporter) settle(ctx context.Context) error {
	delay := e.SettleDelay
	if delay < 0 {
		return nil
	}
	if delay == 0 {
		delay = DefaultSettleDelay
	}
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Exporter) rasterize(ctx context.Context, target *scene.Node, platform models.Platform) (image.Image, string, error) {
	if len(e.Strategies) == 0 {
		return nil, "", fmt.Errorf("%w: no rasterizer configured", ErrExportFailed)
	}

	opts := render.Options{
		Background: Background(platform),
		FontFamily: e.Families,
		Filter:     keep,
	}

	var errs []error
	for i, s := range e.Strategies {
		opts.PixelRatio = s.PixelRatio
		img, err := s.Rasterizer.Render(ctx, target, opts)
		if err == nil {
			if i > 0 {
				logger.L.Info("fallback rasterizer succeeded", "engine", s.Rasterizer.Name())
			}
			return img, s.Rasterizer.Name(), nil
		}

		logger.L.Warn("rasterizer failed", "engine", s.Rasterizer.Name(), "pixel_ratio", s.PixelRatio, "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", s.Rasterizer.Name(), err))
		if ctx.Err() != nil {
			break
		}
	}
	return nil, "", fmt.Errorf("%w: %w", ErrExportFailed, errors.Join(errs...))
}

func (e *Exporter) record(ctx context.Context, platform models.Platform, path, engine string, err error) {
	if e.Recorder == nil {
		return
	}
	entry := history.Entry{
		Platform:  string(platform),
		Path:      path,
		Engine:    engine,
		CreatedAt: e.now(),
	}
	if err != nil {
		entry.Error = err.Error()
	}
	if rerr := e.Recorder.Record(context.WithoutCancel(ctx), entry); rerr != nil {
		logger.L.Warn("failed to record export", "error", rerr)
	}
}
