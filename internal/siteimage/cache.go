// Package siteimage maps site image URLs to files in a cache directory.
//
// The cache only checks that an indexed file still exists. It has no
// eviction policy and no size limit.
package siteimage

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/abelbrown/screenstate/internal/logging"
	"github.com/abelbrown/screenstate/internal/store"
)

// Index is the subset of *store.Store the cache needs.
type Index interface {
	PutImage(img store.CachedImage) error
	Image(url string) (store.CachedImage, error)
	DeleteImage(url string) error
}

// FileCache stores image bytes under dir and records them in index.
type FileCache struct {
	dir   string
	index Index
	log   logging.Logger
}

// NewFileCache creates dir if needed.
func NewFileCache(dir string, index Index, log logging.Logger) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create image cache dir: %w", err)
	}
	if log == nil {
		log = logging.Nop()
	}
	return &FileCache{dir: dir, index: index, log: log}, nil
}

// Dir returns the cache directory.
func (c *FileCache) Dir() string { return c.dir }

// Key is the file name used for url.
func Key(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}

// Path returns the cached file for url. An index row whose file has gone
// missing is removed and reported as a miss.
func (c *FileCache) Path(url string) (string, bool) {
	img, err := c.index.Image(url)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			c.log.Log("image index lookup failed", logging.Warning, logging.CategoryImages,
				logging.WithDescription(err.Error()))
		}
		return "", false
	}

	path := filepath.Join(c.dir, img.File)
	if _, err := os.Stat(path); err != nil {
		c.log.Log("cached image missing on disk", logging.Debug, logging.CategoryImages,
			logging.WithExtra(map[string]string{"url": url, "file": img.File}))
		if err := c.index.DeleteImage(url); err != nil {
			c.log.Log("drop stale image row failed", logging.Warning, logging.CategoryImages,
				logging.WithDescription(err.Error()))
		}
		return "", false
	}
	return path, true
}

// Save writes data for url and records it. The file is written to a temp
// file and renamed, so readers never see a partial image.
func (c *FileCache) Save(url string, data []byte) (string, error) {
	name := Key(url)
	path := filepath.Join(c.dir, name)

	tmp, err := os.CreateTemp(c.dir, name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("save image %q: %w", url, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("save image %q: %w", url, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("save image %q: %w", url, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("save image %q: %w", url, err)
	}

	if err := c.index.PutImage(store.CachedImage{URL: url, File: name, Size: int64(len(data))}); err != nil {
		return "", err
	}
	return path, nil
}

// Remove deletes the file and index row for url. Missing entries are ignored.
func (c *FileCache) Remove(url string) error {
	if err := os.Remove(filepath.Join(c.dir, Key(url))); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove image %q: %w", url, err)
	}
	return c.index.DeleteImage(url)
}
