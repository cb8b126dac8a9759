// Package covers stores uploaded book cover images under the web-servable
// static directory. Artifacts are keyed by the sanitized book title rather
// than the client filename, so uploads can neither traverse out of the
// directory nor collide on attacker-chosen names.
package covers

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/lendingroom/lendingroom/internal/utils"
)

// ErrDisallowedExtension is returned for uploads that are not png/jpg/jpeg.
var ErrDisallowedExtension = errors.New("cover image extension not allowed")

var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// Store manages cover image artifacts on disk and their web paths.
type Store struct {
	dir       string // directory on disk, e.g. ./static/uploads
	webPrefix string // URL prefix the directory is served under, e.g. /static/uploads
}

// NewStore creates a cover store rooted at dir, creating it if needed.
func NewStore(dir, webPrefix string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}

	return &Store{
		dir:       dir,
		webPrefix: strings.TrimSuffix(webPrefix, "/"),
	}, nil
}

// AllowedExtension reports whether the uploaded filename carries an extension
// from the png/jpg/jpeg allow-list. The check is case-insensitive.
func AllowedExtension(filename string) bool {
	return allowedExtensions[Extension(filename)]
}

// Extension returns the lowercased extension of filename, including the dot.
func Extension(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// Save writes an uploaded cover to disk as sanitize(title)+ext and returns the
// web path to the stored artifact. An existing artifact with the same name is
// replaced.
func (s *Store) Save(title, originalFilename string, r io.Reader) (string, error) {
	ext := Extension(originalFilename)
	if !allowedExtensions[ext] {
		return "", ErrDisallowedExtension
	}

	filename := utils.SanitizeTitle(title) + ext
	destPath := filepath.Join(s.dir, filename)

	// Write to a temp file in the same directory for an atomic replace
	tmpFile, err := os.CreateTemp(s.dir, "cover_tmp_")
	if err != nil {
		return "", err
	}
	tmpPath := tmpFile.Name()
	defer func() {
		tmpFile.Close()
		os.Remove(tmpPath) // Clean up if we didn't rename
	}()

	if _, err := io.Copy(tmpFile, r); err != nil {
		return "", err
	}
	if err := tmpFile.Close(); err != nil {
		return "", err
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return "", err
	}

	return s.webPath(filename), nil
}

// Rename moves an existing artifact to match a new title, keeping the
// original extension. Returns the new web path.
func (s *Store) Rename(webPath, newTitle string) (string, error) {
	oldDisk := s.diskPath(webPath)
	newFilename := utils.SanitizeTitle(newTitle) + Extension(webPath)
	newDisk := filepath.Join(s.dir, newFilename)

	if oldDisk == newDisk {
		return s.webPath(newFilename), nil
	}

	if err := os.Rename(oldDisk, newDisk); err != nil {
		return "", err
	}

	return s.webPath(newFilename), nil
}

// Remove deletes the artifact behind a web path. A missing file is not an
// error; the caller treats deletion as best effort either way.
func (s *Store) Remove(webPath string) error {
	if webPath == "" {
		return nil
	}
	if err := os.Remove(s.diskPath(webPath)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Exists reports whether the artifact behind a web path is present on disk.
func (s *Store) Exists(webPath string) bool {
	if webPath == "" {
		return false
	}
	_, err := os.Stat(s.diskPath(webPath))
	return err == nil
}

// diskPath maps a stored web path back to its on-disk location. Only the
// basename is used so a tampered path cannot reach outside the uploads dir.
func (s *Store) diskPath(webPath string) string {
	return filepath.Join(s.dir, filepath.Base(webPath))
}

func (s *Store) webPath(filename string) string {
	return path.Join(s.webPrefix, filename)
}
