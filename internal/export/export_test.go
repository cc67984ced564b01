package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saravenpi/firewood/internal/assets"
	"github.com/saravenpi/firewood/internal/history"
	"github.com/saravenpi/firewood/internal/models"
	"github.com/saravenpi/firewood/internal/render"
	"github.com/saravenpi/firewood/internal/scene"
	"github.com/saravenpi/firewood/internal/session"
)

type fakeRasterizer struct {
	name     string
	RenderFn func(ctx context.Context, root *scene.Node, opts render.Options) (image.Image, error)
	ratios   []float64
}

func (f *fakeRasterizer) Name() string { return f.name }

func (f *fakeRasterizer) Render(ctx context.Context, root *scene.Node, opts render.Options) (image.Image, error) {
	f.ratios = append(f.ratios, opts.PixelRatio)
	return f.RenderFn(ctx, root, opts)
}

func blank(context.Context, *scene.Node, render.Options) (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, 4, 4)), nil
}

type memSaver struct {
	mu    sync.Mutex
	names []string
	data  [][]byte
}

func (m *memSaver) Save(_ context.Context, name string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.names = append(m.names, name)
	m.data = append(m.data, data)
	return "/downloads/" + name, nil
}

type memRecorder struct {
	entries []history.Entry
}

func (m *memRecorder) Record(_ context.Context, e history.Entry) error {
	m.entries = append(m.entries, e)
	return nil
}

type fakeFonts struct {
	mu     sync.Mutex
	loaded []string
}

func (f *fakeFonts) Ready(context.Context) error { return nil }

func (f *fakeFonts) Load(_ context.Context, family string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loaded = append(f.loaded, family)
	if family == "Missing" {
		return errors.New("not installed")
	}
	return nil
}

var exportDay = time.Date(2025, 1, 12, 14, 25, 0, 0, time.UTC)

func newExporter(saver Saver, rec Recorder, strategies ...Strategy) *Exporter {
	return &Exporter{
		Strategies:   strategies,
		ImageTimeout: 50 * time.Millisecond,
		SettleDelay:  time.Millisecond,
		Saver:        saver,
		Recorder:     rec,
		Now:          func() time.Time { return exportDay },
	}
}

func editingDoc(platform models.Platform, images scene.ImageSource) *scene.Node {
	s := session.New(session.Options{Platform: platform, ShowDateBar: true})
	s.SetEditMode(true)
	return (&scene.Builder{Images: images}).Build(s.Snapshot())
}

func interactiveNodes(doc *scene.Node) []*scene.Node {
	return doc.FindAll(scene.IsInteractive)
}

func TestExportAsImage_HidesAndRestores(t *testing.T) {
	doc := editingDoc(models.PlatformKakaoTalk, nil)
	controls := interactiveNodes(doc)
	require.NotEmpty(t, controls)

	primary := &fakeRasterizer{name: "primary", RenderFn: func(_ context.Context, root *scene.Node, opts render.Options) (image.Image, error) {
		assert.Equal(t, scene.ChatContentID, root.ID)
		for _, n := range controls {
			assert.True(t, n.Hidden(), "interactive node visible during capture")
			assert.False(t, opts.Filter(n))
		}
		assert.Equal(t, Background(models.PlatformKakaoTalk), opts.Background)
		return blank(context.Background(), root, opts)
	}}
	saver := &memSaver{}
	rec := &memRecorder{}

	path, err := newExporter(saver, rec, Strategy{primary, 3}).ExportAsImage(context.Background(), doc, models.PlatformKakaoTalk)
	require.NoError(t, err)
	assert.Equal(t, "/downloads/firewood-kakaotalk-chat-2025-01-12.png", path)
	assert.Equal(t, []float64{3}, primary.ratios)

	for _, n := range controls {
		assert.False(t, n.Hidden())
	}

	require.Len(t, saver.data, 1)
	_, err = png.Decode(bytes.NewReader(saver.data[0]))
	require.NoError(t, err)

	require.Len(t, rec.entries, 1)
	assert.False(t, rec.entries[0].Failed())
	assert.Equal(t, "primary", rec.entries[0].Engine)
}

func TestExportAsImage_MissingTarget(t *testing.T) {
	called := false
	r := &fakeRasterizer{name: "primary", RenderFn: func(ctx context.Context, root *scene.Node, opts render.Options) (image.Image, error) {
		called = true
		return blank(ctx, root, opts)
	}}
	e := newExporter(&memSaver{}, nil, Strategy{r, 3})

	_, err := e.ExportAsImage(context.Background(), nil, models.PlatformKakaoTalk)
	assert.ErrorIs(t, err, ErrMissingTarget)

	_, err = e.ExportAsImage(context.Background(), scene.Box(scene.Style{}), models.PlatformKakaoTalk)
	assert.ErrorIs(t, err, ErrMissingTarget)
	assert.False(t, called)
}

func TestExportAsImage_FallsBack(t *testing.T) {
	primaryErr := errors.New("canvas unsupported")
	primary := &fakeRasterizer{name: "primary", RenderFn: func(context.Context, *scene.Node, render.Options) (image.Image, error) {
		return nil, primaryErr
	}}
	secondary := &fakeRasterizer{name: "secondary", RenderFn: blank}
	saver := &memSaver{}
	rec := &memRecorder{}

	doc := editingDoc(models.PlatformInstagram, nil)
	path, err := newExporter(saver, rec, Strategy{primary, 3}, Strategy{secondary, 2}).
		ExportAsImage(context.Background(), doc, models.PlatformInstagram)
	require.NoError(t, err)
	assert.Equal(t, "/downloads/firewood-instagram-chat-2025-01-12.png", path)
	assert.Equal(t, []float64{2}, secondary.ratios)
	assert.Equal(t, "secondary", rec.entries[0].Engine)
}

func TestExportAsImage_BothStrategiesFail(t *testing.T) {
	errA, errB := errors.New("a failed"), errors.New("b failed")
	a := &fakeRasterizer{name: "a", RenderFn: func(context.Context, *scene.Node, render.Options) (image.Image, error) { return nil, errA }}
	b := &fakeRasterizer{name: "b", RenderFn: func(context.Context, *scene.Node, render.Options) (image.Image, error) { return nil, errB }}
	saver := &memSaver{}
	rec := &memRecorder{}

	doc := editingDoc(models.PlatformKakaoTalk, nil)
	_, err := newExporter(saver, rec, Strategy{a, 3}, Strategy{b, 2}).ExportAsImage(context.Background(), doc, models.PlatformKakaoTalk)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExportFailed)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)

	assert.Empty(t, saver.names)
	for _, n := range interactiveNodes(doc) {
		assert.False(t, n.Hidden())
	}
	require.Len(t, rec.entries, 1)
	assert.True(t, rec.entries[0].Failed())
}

func TestExportAsImage_NoStrategies(t *testing.T) {
	_, err := newExporter(&memSaver{}, nil).ExportAsImage(context.Background(), editingDoc(models.PlatformKakaoTalk, nil), models.PlatformKakaoTalk)
	assert.ErrorIs(t, err, ErrExportFailed)
}

type stuckImages struct{}

func (stuckImages) Load(src string) *scene.ImageRef { return scene.NewImageRef(src) }

func TestExportAsImage_ImageTimeoutIsNotFatal(t *testing.T) {
	doc := editingDoc(models.PlatformKakaoTalk, stuckImages{})
	require.NotEmpty(t, doc.FindByID(scene.ChatContentID).Images())

	e := newExporter(&memSaver{}, nil, Strategy{&fakeRasterizer{name: "primary", RenderFn: blank}, 3})
	start := time.Now()
	_, err := e.ExportAsImage(context.Background(), doc, models.PlatformKakaoTalk)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestExportAsImage_WaitsForImagesConcurrently(t *testing.T) {
	loaded := scene.LoadedImage("ok.png", image.NewRGBA(image.Rect(0, 0, 1, 1)))
	broken := scene.NewImageRef("broken.png")
	broken.Resolve(nil, errors.New("decode failed"))
	stuck := []*scene.ImageRef{scene.NewImageRef("a.png"), scene.NewImageRef("b.png"), scene.NewImageRef("c.png")}

	content := scene.Box(scene.Style{},
		scene.Image(loaded, scene.Style{Width: 10, Height: 10}),
		scene.Image(broken, scene.Style{Width: 10, Height: 10}),
		scene.Image(stuck[0], scene.Style{Width: 10, Height: 10}),
		scene.Image(stuck[1], scene.Style{Width: 10, Height: 10}),
		scene.Image(stuck[2], scene.Style{Width: 10, Height: 10}),
	).WithID(scene.ChatContentID)
	doc := scene.Box(scene.Style{}, content)

	rendered := false
	r := &fakeRasterizer{name: "primary", RenderFn: func(ctx context.Context, root *scene.Node, opts render.Options) (image.Image, error) {
		rendered = true
		for _, ref := range stuck {
			assert.False(t, ref.Complete())
		}
		return blank(ctx, root, opts)
	}}

	const timeout = 200 * time.Millisecond
	const settleDelay = 20 * time.Millisecond
	e := newExporter(&memSaver{}, nil, Strategy{r, 3})
	e.ImageTimeout = timeout
	e.SettleDelay = settleDelay

	start := time.Now()
	_, err := e.ExportAsImage(context.Background(), doc, models.PlatformInstagram)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.True(t, rendered)
	assert.GreaterOrEqual(t, elapsed, timeout)
	assert.Less(t, elapsed, timeout+settleDelay+150*time.Millisecond)
}

func TestExportSession_LongConversation(t *testing.T) {
	fonts, err := assets.NewFontBook(nil)
	require.NoError(t, err)
	store := history.New("")
	saver := &memSaver{}

	e := New(fonts, saver, store, Options{SettleDelay: -1})
	e.Now = func() time.Time { return exportDay }

	msgs := make([]models.Message, 200)
	for i := range msgs {
		msgs[i] = models.Message{
			ID:     int64(i + 1),
			Text:   fmt.Sprintf("msg %d", i),
			Sender: i%2 == 0,
			Time:   "14:25",
		}
	}
	sess := session.New(session.Options{ShowDateBar: true})
	sess.ReplaceMessages(msgs)

	_, err = e.ExportSession(context.Background(), sess, &scene.Builder{})
	require.NoError(t, err)
	require.Len(t, saver.data, 1)

	cfg, err := png.DecodeConfig(bytes.NewReader(saver.data[0]))
	require.NoError(t, err)
	assert.Contains(t, []int{models.ScreenWidth * 3, models.ScreenWidth * 2}, cfg.Width)
	assert.LessOrEqual(t, cfg.Height, render.MaxDimension)

	entries, err := store.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Failed())
}

func TestExportAsImage_FontsLoadedAndFailuresSwallowed(t *testing.T) {
	fonts := &fakeFonts{}
	e := newExporter(&memSaver{}, nil, Strategy{&fakeRasterizer{name: "primary", RenderFn: blank}, 3})
	e.Fonts = fonts
	e.Families = []string{"Pretendard", "Missing"}

	_, err := e.ExportAsImage(context.Background(), editingDoc(models.PlatformKakaoTalk, nil), models.PlatformKakaoTalk)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Pretendard", "Missing"}, fonts.loaded)
}

func TestExportAsImage_CancelledDuringSettle(t *testing.T) {
	called := false
	r := &fakeRasterizer{name: "primary", RenderFn: func(ctx context.Context, root *scene.Node, opts render.Options) (image.Image, error) {
		called = true
		return blank(ctx, root, opts)
	}}
	e := newExporter(&memSaver{}, nil, Strategy{r, 3})
	e.SettleDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	doc := editingDoc(models.PlatformKakaoTalk, nil)
	_, err := e.ExportAsImage(ctx, doc, models.PlatformKakaoTalk)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
	for _, n := range interactiveNodes(doc) {
		assert.False(t, n.Hidden())
	}
}

func TestExportSession_Busy(t *testing.T) {
	sess := session.New(session.Options{})
	release, err := sess.BeginExport()
	require.NoError(t, err)

	e := newExporter(&memSaver{}, nil, Strategy{&fakeRasterizer{name: "primary", RenderFn: blank}, 3})
	_, err = e.ExportSession(context.Background(), sess, &scene.Builder{})
	assert.ErrorIs(t, err, session.ErrExportInProgress)

	release()
	_, err = e.ExportSession(context.Background(), sess, &scene.Builder{})
	require.NoError(t, err)
	assert.False(t, sess.Exporting())
}

func TestExportSession_EndToEnd(t *testing.T) {
	fonts, err := assets.NewFontBook(nil)
	require.NoError(t, err)
	dir := t.TempDir()
	store := history.New("")

	e := New(fonts, NewFileSaver(dir, false), store, Options{SettleDelay: time.Millisecond})
	e.Now = func() time.Time { return exportDay }

	sess := session.New(session.Options{ShowDateBar: true})
	sess.SetEditMode(true)
	path, err := e.ExportSession(context.Background(), sess, &scene.Builder{Images: assets.NewImageLoader(dir)})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "firewood-kakaotalk-chat-2025-01-12.png"), path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, models.ScreenWidth*3, cfg.Width)

	entries, err := store.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "vector", entries[0].Engine)
}

func TestFileSaver(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	var opened []string
	s := &FileSaver{Dir: dir, Open: true, opener: func(p string) error {
		opened = append(opened, p)
		return errors.New("no display")
	}}

	first, err := s.Save(context.Background(), "a.png", []byte("1"))
	require.NoError(t, err)
	second, err := s.Save(context.Background(), "a.png", []byte("2"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "a.png"), first)
	assert.Equal(t, filepath.Join(dir, "a (1).png"), second)
	assert.Equal(t, []string{first, second}, opened)

	data, err := os.ReadFile(first)
	require.NoError(t, err)
	assert.Equal(t, "1", string(data))
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "firewood-instagram-chat-2025-01-12.png", Filename("", models.PlatformInstagram, exportDay))
	assert.Equal(t, "demo-kakaotalk-chat-2025-01-12.png", Filename("demo", models.PlatformKakaoTalk, exportDay))

	seoul := time.FixedZone("KST", 9*60*60)
	lateNight := time.Date(2025, 1, 13, 2, 0, 0, 0, seoul)
	assert.Equal(t, "firewood-kakaotalk-chat-2025-01-12.png", Filename("", models.PlatformKakaoTalk, lateNight))
}

func TestUniquePath_Exhausted(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shot.png")
	touch := func(p string) {
		require.NoError(t, os.WriteFile(p, nil, 0644))
	}

	touch(path)
	for i := 1; i < maxDuplicates-1; i++ {
		touch(filepath.Join(dir, fmt.Sprintf("shot (%d).png", i)))
	}

	got, err := uniquePath(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "shot (999).png"), got)

	touch(got)
	_, err = uniquePath(path)
	assert.Error(t, err)
}

func TestHideInteractive_RestoresPreviousDisplay(t *testing.T) {
	already := scene.Box(scene.Style{Display: scene.DisplayNone}).WithClass(scene.ClassEditMode)
	visible := scene.Box(scene.Style{}).WithAttr(scene.AttrHideInScreenshot, "true")
	root := scene.Box(scene.Style{}, already, visible)

	restore := hideInteractive(root)
	assert.True(t, visible.Hidden())
	restore()
	restore()
	assert.True(t, already.Hidden())
	assert.False(t, visible.Hidden())
}
