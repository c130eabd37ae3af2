package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CachedImage is one row of the site image index.
type CachedImage struct {
	URL      string
	File     string
	Size     int64
	CachedAt time.Time
}

// PutImage records that url is cached in file.
func (s *Store) PutImage(img CachedImage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if img.CachedAt.IsZero() {
		img.CachedAt = time.Now()
	}
	_, err := s.db.Exec(`
		INSERT INTO site_images (url, file, size, cached_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET file = excluded.file, size = excluded.size, cached_at = excluded.cached_at
	`, img.URL, img.File, img.Size, img.CachedAt)
	if err != nil {
		return fmt.Errorf("put image %q: %w", img.URL, err)
	}
	return nil
}

// Image looks up the index row for url, or ErrNotFound.
func (s *Store) Image(url string) (CachedImage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	img := CachedImage{URL: url}
	err := s.db.QueryRow("SELECT file, size, cached_at FROM site_images WHERE url = ?", url).
		Scan(&img.File, &img.Size, &img.CachedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return CachedImage{}, fmt.Errorf("image %q: %w", url, ErrNotFound)
	}
	if err != nil {
		return CachedImage{}, fmt.Errorf("image %q: %w", url, err)
	}
	return img, nil
}

// DeleteImage removes the index row for url. Missing rows are not an error.
func (s *Store) DeleteImage(url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM site_images WHERE url = ?", url); err != nil {
		return fmt.Errorf("delete image %q: %w", url, err)
	}
	return nil
}

// Images returns every index row, most recently cached first.
func (s *Store) Images() ([]CachedImage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query("SELECT url, file, size, cached_at FROM site_images ORDER BY cached_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var imgs []CachedImage
	for rows.Next() {
		var img CachedImage
		if err := rows.Scan(&img.URL, &img.File, &img.Size, &img.CachedAt); err != nil {
			return nil, err
		}
		imgs = append(imgs, img)
	}
	return imgs, rows.Err()
}
