package profiles

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/saravenpi/firewood/internal/models"
)

// Preset is a saved profile that can be applied to either side of a chat.
type Preset struct {
	Name  string `yaml:"name"`
	Image string `yaml:"image,omitempty"`
}

func (p Preset) Profile() models.Profile {
	return models.Profile{Name: p.Name, Image: p.Image}
}

var cacheDuration = 30 * time.Second

// Store keeps one YAML file per preset in a directory.
type Store struct {
	dir string

	mu        sync.RWMutex
	cache     []Preset
	lookup    map[string]Preset
	cacheTime time.Time
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the directory presets live in.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) ensureDir() error {
	return os.MkdirAll(s.dir, 0755)
}

// sanitizeFilename converts a preset name to a safe filename.
func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	return strings.NewReplacer("/", "-", "\\", "-", ":", "-").Replace(name)
}

func (s *Store) filePath(name string) string {
	return filepath.Join(s.dir, sanitizeFilename(name)+".yml")
}

// Save writes a preset, replacing any preset of the same name.
func (s *Store) Save(p Preset) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return fmt.Errorf("preset name cannot be empty")
	}

	if err := s.ensureDir(); err != nil {
		return fmt.Errorf("failed to create profiles directory: %w", err)
	}

	data, err := yaml.Marshal(&p)
	if err != nil {
		return fmt.Errorf("failed to marshal preset: %w", err)
	}

	if err := os.WriteFile(s.filePath(p.Name), data, 0644); err != nil {
		return fmt.Errorf("failed to write preset file: %w", err)
	}

	s.InvalidateCache()
	return nil
}

// Load reads a preset by name.
func (s *Store) Load(name string) (*Preset, error) {
	data, err := os.ReadFile(s.filePath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("preset not found: %s", name)
		}
		return nil, fmt.Errorf("failed to read preset file: %w", err)
	}

	var p Preset
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse preset file: %w", err)
	}

	return &p, nil
}

func (s *Store) Delete(name string) error {
	if err := os.Remove(s.filePath(name)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("preset not found: %s", name)
		}
		return fmt.Errorf("failed to delete preset: %w", err)
	}

	s.InvalidateCache()
	return nil
}

// List returns all presets sorted by name.
// Results are cached for 30 seconds.
func (s *Store) List() ([]Preset, error) {
	s.mu.RLock()
	if time.Since(s.cacheTime) < cacheDuration && s.cache != nil {
		defer s.mu.RUnlock()
		return s.cache, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if time.Since(s.cacheTime) < cacheDuration && s.cache != nil {
		return s.cache, nil
	}

	if err := s.ensureDir(); err != nil {
		return nil, fmt.Errorf("failed to create profiles directory: %w", err)
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read profiles directory: %w", err)
	}

	presets := []Preset{}
	lookup := make(map[string]Preset)

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yml") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			continue
		}

		var p Preset
		if err := yaml.Unmarshal(data, &p); err != nil || p.Name == "" {
			continue
		}

		presets = append(presets, p)
		lookup[strings.ToLower(p.Name)] = p
	}

	sort.Slice(presets, func(i, j int) bool {
		return strings.ToLower(presets[i].Name) < strings.ToLower(presets[j].Name)
	})

	s.cache = presets
	s.lookup = lookup
	s.cacheTime = time.Now()

	return presets, nil
}

// InvalidateCache forces the preset cache to be refreshed on next access.
func (s *Store) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cacheTime = time.Time{}
}

// Find looks a preset up by name, ignoring case.
func (s *Store) Find(name string) (Preset, bool) {
	if strings.TrimSpace(name) == "" {
		return Preset{}, false
	}
	if _, err := s.List(); err != nil {
		return Preset{}, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.lookup[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

// Resolve fills in a missing image from the preset of the same name.
func (s *Store) Resolve(p models.Profile) models.Profile {
	if p.Image != "" {
		return p
	}
	if preset, ok := s.Find(p.Name); ok {
		p.Image = preset.Image
	}
	return p
}
