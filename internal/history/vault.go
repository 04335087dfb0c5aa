package history

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ImageVault keeps durable copies of captured images for history entries.
type ImageVault interface {
	// Import copies the image at uri into managed storage and returns the
	// managed location.
	Import(uri string) (string, error)
	// Owns reports whether uri points into managed storage.
	Owns(uri string) bool
	// Discard deletes one managed image.
	Discard(uri string) error
	// Purge deletes the managed storage and everything in it.
	Purge() error
}

// DirVault copies images into a single directory.
type DirVault struct {
	dir string
	now func() time.Time
}

// NewDirVault returns a vault rooted at dir. The directory is created lazily.
func NewDirVault(dir string) (*DirVault, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve image dir: %w", err)
	}
	return &DirVault{dir: abs, now: time.Now}, nil
}

// Dir returns the managed directory.
func (v *DirVault) Dir() string { return v.dir }

func (v *DirVault) Import(uri string) (string, error) {
	src, err := filepath.Abs(localPath(uri))
	if err != nil {
		return "", fmt.Errorf("resolve image path: %w", err)
	}
	if v.Owns(src) {
		return src, nil
	}
	if err := os.MkdirAll(v.dir, 0755); err != nil {
		return "", fmt.Errorf("create image dir: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(src))
	if ext == "" {
		ext = ".jpg"
	}
	name := fmt.Sprintf("scan_%d_%s%s", v.now().UnixMilli(), uuid.NewString()[:8], ext)
	dst := filepath.Join(v.dir, name)

	if err := copyFile(src, dst); err != nil {
		return "", err
	}
	return dst, nil
}

func (v *DirVault) Owns(uri string) bool {
	p, err := filepath.Abs(localPath(uri))
	if err != nil {
		return false
	}
	return filepath.Dir(p) == v.dir
}

func (v *DirVault) Discard(uri string) error {
	if !v.Owns(uri) {
		return nil
	}
	if err := os.Remove(localPath(uri)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove image: %w", err)
	}
	return nil
}

func (v *DirVault) Purge() error {
	if err := os.RemoveAll(v.dir); err != nil {
		return fmt.Errorf("remove image dir: %w", err)
	}
	log.Printf("[INFO] image dir purged: %s", v.dir)
	return nil
}

// NoopVault leaves images where they are, for platforms without a
// writable filesystem.
type NoopVault struct{}

func NewNoopVault() *NoopVault { return &NoopVault{} }

func (NoopVault) Import(uri string) (string, error) { return uri, nil }
func (NoopVault) Owns(_ string) bool                { return false }
func (NoopVault) Discard(_ string) error            { return nil }
func (NoopVault) Purge() error                      { return nil }

func localPath(uri string) string {
	return strings.TrimPrefix(uri, "file://")
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source image: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("create managed image: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("copy image: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return fmt.Errorf("close managed image: %w", err)
	}
	return nil
}
