package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// DiskUploader keeps objects under a local root and serves them from
// publicURL. It is meant for development when no bucket is configured.
type DiskUploader struct {
	rootAbs   string
	publicURL string
}

func NewDiskUploader(root string, publicURL string) (*DiskUploader, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("media root cannot be empty")
	}

	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve media root: %w", err)
	}
	if err := os.MkdirAll(rootAbs, 0o755); err != nil {
		return nil, fmt.Errorf("create media root: %w", err)
	}

	return &DiskUploader{rootAbs: rootAbs, publicURL: strings.TrimRight(publicURL, "/")}, nil
}

func (d *DiskUploader) Root() string {
	return d.rootAbs
}

func (d *DiskUploader) Upload(_ context.Context, key string, _ string, body []byte) (string, error) {
	target, err := d.resolve(key)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create media directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create media file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write media file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close media file: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("store media file: %w", err)
	}

	return d.publicURL + "/" + filepath.ToSlash(strings.TrimPrefix(target, d.rootAbs+string(filepath.Separator))), nil
}

// resolve maps an object key to a path under the root, rejecting keys that
// would escape it.
func (d *DiskUploader) resolve(key string) (string, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(key), `\`, "/")
	if normalized == "" || strings.HasSuffix(normalized, "/") {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	for _, r := range normalized {
		if unicode.IsControl(r) {
			return "", fmt.Errorf("invalid object key %q", key)
		}
	}
	for _, segment := range strings.Split(normalized, "/") {
		if segment == ".." {
			return "", fmt.Errorf("object key %q escapes media root", key)
		}
	}

	resolved := filepath.Join(d.rootAbs, filepath.Clean(strings.TrimPrefix(normalized, "/")))
	if !strings.HasPrefix(resolved, d.rootAbs+string(filepath.Separator)) {
		return "", fmt.Errorf("object key %q escapes media root", key)
	}
	return resolved, nil
}
