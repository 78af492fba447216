package files

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Storage keeps uploaded files under root/<caseID>/<uuid><ext>.
type Storage struct {
	root string
}

func NewStorage(root string) *Storage {
	return &Storage{root: root}
}

// Save writes data under a fresh name and returns that name and the full path.
func (s *Storage) Save(caseID string, data []byte, ext string) (string, string, error) {
	if caseID == "" || strings.ContainsAny(caseID, `/\`) || caseID == "." || caseID == ".." {
		return "", "", fmt.Errorf("invalid case id %q", caseID)
	}

	dir := filepath.Join(s.root, caseID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	name := uuid.NewString() + cleanExt(ext)
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", "", fmt.Errorf("write %s: %w", path, err)
	}
	return name, path, nil
}

func (s *Storage) Read(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return b, nil
}

func (s *Storage) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

// cleanExt keeps only a short alphanumeric extension such as ".pdf".
func cleanExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	ext = filepath.Ext("x" + ext)
	if len(ext) < 2 || len(ext) > 10 {
		return ""
	}
	for _, r := range ext[1:] {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9') {
			return ""
		}
	}
	return ext
}
