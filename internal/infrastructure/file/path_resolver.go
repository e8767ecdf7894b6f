package file

import (
	"fmt"
	"os"
	"path/filepath"

	domain "github.com/acme-corp/customer-import/internal/domain/importing"
)

// PathResolver implements the Supervisor's file-path pre-check: resolve a
// caller-supplied path (or fall back to a configured default), make it
// absolute, and confirm it names an existing regular file.
type PathResolver struct {
	DefaultPath string
}

func NewPathResolver(defaultPath string) *PathResolver {
	return &PathResolver{DefaultPath: defaultPath}
}

func (r *PathResolver) Resolve(requested string) (string, error) {
	path := requested
	if path == "" {
		path = r.DefaultPath
	}
	if path == "" {
		return "", domain.ErrInvalidFilePath
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidFilePath, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidFilePath, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: not a regular file", domain.ErrInvalidFilePath)
	}

	return abs, nil
}
