// Package imagestore keeps donated-food photos on local disk.
package imagestore

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/BrandonDHaskell/foodstation/internal/foodstation/types"
)

const DefaultMaxBytes = 5 << 20

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// Disk stores images under dir and returns URLs rooted at baseURL.
type Disk struct {
	dir      string
	baseURL  string
	maxBytes int64
}

func NewDisk(dir, baseURL string, maxBytes int64) (*Disk, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("image dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create image dir: %w", err)
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if baseURL == "" {
		baseURL = "/images/"
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Disk{dir: dir, baseURL: baseURL, maxBytes: maxBytes}, nil
}

func (d *Disk) Dir() string { return d.dir }
func (d *Disk) MaxBytes() int64 { return d.maxBytes }
func (d *Disk) BaseURL() string { return d.baseURL }

// Store sniffs the payload type, writes it under a fresh uuid name and
// returns the public URL.
func (d *Disk) Store(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: image is empty", types.ErrValidation)
	}
	if int64(len(data)) > d.maxBytes {
		return "", fmt.Errorf("%w: image exceeds %d bytes", types.ErrValidation, d.maxBytes)
	}

	ct := http.DetectContentType(data)
	ext, ok := extensions[ct]
	if !ok {
		return "", fmt.Errorf("%w: unsupported image type %s", types.ErrValidation, ct)
	}

	name := uuid.NewString() + ext
	tmp, err := os.CreateTemp(d.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp image: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("write image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("close image: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(d.dir, name)); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("publish image: %w", err)
	}
	return path.Join(d.baseURL, name), nil
}
