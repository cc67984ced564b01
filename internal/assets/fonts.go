// Package assets loads the fonts and images a screenshot depends on.
package assets

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"github.com/saravenpi/firewood/internal/logger"
)

// ExportFamilies are the families an export waits for before rasterizing.
var ExportFamilies = []string{"Pretendard", "Noto Sans KR", "Apple SD Gothic Neo", "Malgun Gothic"}

type family struct {
	regular *opentype.Font
	bold    *opentype.Font
}

type faceKey struct {
	family string
	size   float64
	bold   bool
}

// FontBook finds font files by family name in a set of directories and hands
// out sized faces. The Go fonts are always available as a fallback.
type FontBook struct {
	dirs []string

	indexOnce sync.Once
	index     map[string][]string // normalized file stem -> paths
	indexErr  error

	mu       sync.RWMutex
	families map[string]family
	faces    map[faceKey]font.Face
	builtin  family
}

// NewFontBook parses the built-in Go fonts. dirs are searched lazily.
func NewFontBook(dirs []string) (*FontBook, error) {
	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Go Regular: %w", err)
	}
	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Go Bold: %w", err)
	}
	return &FontBook{
		dirs:     dirs,
		families: make(map[string]family),
		faces:    make(map[faceKey]font.Face),
		builtin:  family{regular: regular, bold: bold},
	}, nil
}

// Ready indexes the font directories. It returns once the index is built or
// ctx is done.
func (b *FontBook) Ready(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.indexOnce.Do(b.buildIndex)
		close(done)
	}()

	select {
	case <-done:
		return b.indexErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *FontBook) buildIndex() {
	b.index = make(map[string][]string)
	for _, dir := range b.dirs {
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() {
				return nil
			}
			switch strings.ToLower(filepath.Ext(path)) {
			case ".ttf", ".otf", ".ttc", ".otc":
				stem := normalize(strings.TrimSuffix(d.Name(), filepath.Ext(path)))
				b.index[stem] = append(b.index[stem], path)
			}
			return nil
		})
	}
	logger.L.Debug("font index built", "dirs", len(b.dirs), "files", len(b.index))
}

// normalize lowercases a name and drops separators, so "Noto Sans KR" and
// "NotoSansKR-Bold" share a prefix.
func normalize(name string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(name) {
		switch r {
		case ' ', '-', '_', '.':
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// Load parses the regular and bold files of a family. Loading an already
// loaded family is a no-op.
func (b *FontBook) Load(ctx context.Context, name string) error {
	if err := b.Ready(ctx); err != nil {
		return err
	}

	key := normalize(name)
	b.mu.RLock()
	_, ok := b.families[key]
	b.mu.RUnlock()
	if ok {
		return nil
	}

	var regularPath, boldPath string
	for stem, paths := range b.index {
		if !strings.HasPrefix(stem, key) {
			continue
		}
		style := strings.TrimPrefix(stem, key)
		switch {
		case style == "" || style == "regular":
			regularPath = paths[0]
		case style == "bold":
			boldPath = paths[0]
		case regularPath == "" && (style == "medium" || style == "variable" || strings.HasPrefix(style, "vf")):
			regularPath = paths[0]
		}
	}
	if regularPath == "" {
		return fmt.Errorf("font family %q not found", name)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	regular, err := parseFontFile(regularPath)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", name, err)
	}
	fam := family{regular: regular, bold: regular}
	if boldPath != "" {
		if bold, err := parseFontFile(boldPath); err == nil {
			fam.bold = bold
		} else {
			logger.L.Debug("bold face unavailable", "family", name, "error", err)
		}
	}

	b.mu.Lock()
	b.families[key] = fam
	b.mu.Unlock()

	logger.L.Debug("font loaded", "family", name, "path", regularPath)
	return nil
}

func parseFontFile(path string) (*opentype.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ttc", ".otc":
		coll, err := opentype.ParseCollection(data)
		if err != nil {
			return nil, err
		}
		return coll.Font(0)
	}
	return opentype.Parse(data)
}

// Loaded reports whether a family was loaded from disk.
func (b *FontBook) Loaded(name string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.families[normalize(name)]
	return ok
}

// Face returns a face for the first loaded family in families, falling back
// to the Go fonts. Faces are cached by family, size and weight.
func (b *FontBook) Face(families []string, size float64, bold bool) font.Face {
	fam, key := b.builtin, "go"
	b.mu.RLock()
	for _, name := range families {
		if f, ok := b.families[normalize(name)]; ok {
			fam, key = f, normalize(name)
			break
		}
	}
	fk := faceKey{family: key, size: size, bold: bold}
	face, ok := b.faces[fk]
	b.mu.RUnlock()
	if ok {
		return face
	}

	src := fam.regular
	if bold {
		src = fam.bold
	}
	face, err := opentype.NewFace(src, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		logger.L.Warn("failed to create face", "family", key, "size", size, "error", err)
		face, _ = opentype.NewFace(b.builtin.regular, &opentype.FaceOptions{Size: size, DPI: 72})
	}

	b.mu.Lock()
	b.faces[fk] = face
	b.mu.Unlock()
	return face
}
