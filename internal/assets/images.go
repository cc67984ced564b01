package assets

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/webp"

	"github.com/saravenpi/firewood/internal/logger"
	"github.com/saravenpi/firewood/internal/scene"
)

// DefaultThumbnailSize bounds decoded avatars. Avatars are painted at most
// 32 logical px wide, so 256 covers a 3x export with room to spare.
const DefaultThumbnailSize = 256

var ErrRemoteImage = errors.New("remote images are not supported")

// ImageLoader decodes avatar images in the background. Results are cached
// by source, so every node sharing a source shares one handle.
type ImageLoader struct {
	// BaseDir resolves relative paths. Empty means the working directory.
	BaseDir string
	MaxSize uint

	mu    sync.Mutex
	cache map[string]*scene.ImageRef
}

func NewImageLoader(baseDir string) *ImageLoader {
	return &ImageLoader{
		BaseDir: baseDir,
		MaxSize: DefaultThumbnailSize,
		cache:   make(map[string]*scene.ImageRef),
	}
}

// Load returns the handle for src and starts decoding it if needed.
func (l *ImageLoader) Load(src string) *scene.ImageRef {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cache == nil {
		l.cache = make(map[string]*scene.ImageRef)
	}
	if ref, ok := l.cache[src]; ok {
		return ref
	}

	ref := scene.NewImageRef(src)
	l.cache[src] = ref
	go func() {
		img, err := l.decode(src)
		if err != nil {
			logger.L.Debug("image load failed", "src", truncate(src), "error", err)
		}
		ref.Resolve(img, err)
	}()
	return ref
}

// Forget drops a cached source, e.g. after the file changed on disk.
func (l *ImageLoader) Forget(src string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.cache, src)
}

func (l *ImageLoader) decode(src string) (image.Image, error) {
	r, err := l.open(src)
	if err != nil {
		return nil, err
	}
	if c, ok := r.(io.Closer); ok {
		defer c.Close()
	}

	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	size := l.MaxSize
	if size == 0 {
		size = DefaultThumbnailSize
	}
	return resize.Thumbnail(size, size, img, resize.Lanczos3), nil
}

func (l *ImageLoader) open(src string) (io.Reader, error) {
	switch {
	case strings.HasPrefix(src, "data:"):
		data, err := DecodeDataURL(src)
		if err != nil {
			return nil, err
		}
		return bytes.NewReader(data), nil
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		return nil, ErrRemoteImage
	case strings.HasPrefix(src, "file://"):
		u, err := url.Parse(src)
		if err != nil {
			return nil, err
		}
		src = u.Path
	}

	path := src
	if !filepath.IsAbs(path) && l.BaseDir != "" {
		path = filepath.Join(l.BaseDir, path)
	}
	return os.Open(path)
}

// DecodeDataURL returns the payload of a data: URL. Only base64 and
// percent-encoded payloads are understood.
func DecodeDataURL(src string) ([]byte, error) {
	rest, ok := strings.CutPrefix(src, "data:")
	if !ok {
		return nil, fmt.Errorf("not a data URL")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, fmt.Errorf("malformed data URL")
	}
	if strings.HasSuffix(meta, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("malformed base64 payload: %w", err)
		}
		return data, nil
	}
	s, err := url.PathUnescape(payload)
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

func truncate(src string) string {
	if len(src) > 64 {
		return src[:64] + "..."
	}
	return src
}
