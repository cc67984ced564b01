package profiles

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saravenpi/firewood/internal/models"
)

func TestStore_SaveLoadDelete(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "profiles"))

	require.NoError(t, s.Save(Preset{Name: " Elon/Musk ", Image: "elon.png"}))
	assert.FileExists(t, filepath.Join(s.Dir(), "Elon-Musk.yml"))

	p, err := s.Load("Elon/Musk")
	require.NoError(t, err)
	assert.Equal(t, "Elon/Musk", p.Name)
	assert.Equal(t, "elon.png", p.Image)

	require.NoError(t, s.Delete("Elon/Musk"))
	_, err = s.Load("Elon/Musk")
	assert.ErrorContains(t, err, "preset not found")
	assert.ErrorContains(t, s.Delete("Elon/Musk"), "preset not found")

	assert.Error(t, s.Save(Preset{Name: "  "}))
}

func TestStore_ListSortedAndSkipsJunk(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)
	require.NoError(t, s.Save(Preset{Name: "zed"}))
	require.NoError(t, s.Save(Preset{Name: "Alice", Image: "a.png"}))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yml"), []byte(":\n  - ["), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	list, err := s.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Alice", list[0].Name)
	assert.Equal(t, "zed", list[1].Name)
}

func TestStore_CacheInvalidatedOnSave(t *testing.T) {
	s := NewStore(t.TempDir())
	list, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, s.Save(Preset{Name: "Bob"}))
	list, err = s.List()
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestStore_FindAndResolve(t *testing.T) {
	s := NewStore(t.TempDir())
	require.NoError(t, s.Save(Preset{Name: "ElonMusk", Image: "images/profiles/ElonMusk.png"}))

	p, ok := s.Find("elonmusk")
	require.True(t, ok)
	assert.Equal(t, "ElonMusk", p.Name)

	_, ok = s.Find("")
	assert.False(t, ok)

	resolved := s.Resolve(models.Profile{Name: "ElonMusk"})
	assert.Equal(t, "images/profiles/ElonMusk.png", resolved.Image)

	kept := s.Resolve(models.Profile{Name: "ElonMusk", Image: "mine.png"})
	assert.Equal(t, "mine.png", kept.Image)

	unknown := s.Resolve(models.Profile{Name: "Nobody"})
	assert.Empty(t, unknown.Image)
}
