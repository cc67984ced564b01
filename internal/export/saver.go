package export

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/saravenpi/firewood/internal/logger"
)

// FileSaver writes exports into a directory. Like a browser download, an
// existing file is never overwritten: "name (1).png" is used instead.
type FileSaver struct {
	Dir string
	// Open hands the saved file to the desktop's default viewer.
	Open bool

	opener func(path string) error
}

func NewFileSaver(dir string, open bool) *FileSaver {
	return &FileSaver{Dir: dir, Open: open, opener: openFile}
}

func (s *FileSaver) Save(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	path, err := uniquePath(filepath.Join(dir, name))
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	if s.Open && s.opener != nil {
		if err := s.opener(path); err != nil {
			// Non-fatal, the file is on disk.
			logger.L.Warn("could not open exported file", "path", path, "error", err)
		}
	}
	return path, nil
}

// maxDuplicates is how many files may share a name: the name itself plus
// " (1)" through " (999)".
const maxDuplicates = 1000

func uniquePath(path string) (string, error) {
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	for i := 0; i < maxDuplicates; i++ {
		candidate := path
		if i > 0 {
			candidate = fmt.Sprintf("%s (%d)%s", stem, i, ext)
		}
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate, nil
		} else if err != nil {
			return "", fmt.Errorf("stat %s: %w", candidate, err)
		}
	}
	return "", fmt.Errorf("too many files named %s", filepath.Base(path))
}

// openFile opens a file in the default application for the OS.
func openFile(path string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", `""`, path)
	case "darwin":
		cmd = exec.Command("open", path)
	case "linux", "freebsd", "openbsd":
		cmd = exec.Command("xdg-open", path)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}
