// Package avatar stores uploaded avatar images on local disk and hands out
// the reference URLs clients attach to their join payloads. Deletion is
// best-effort: a reference whose backing file is already gone is not an
// error.
package avatar

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"roomhub/pkg/logger"
)

// ErrUnsupportedType is returned for uploads whose extension is not an
// accepted image format.
var ErrUnsupportedType = errors.New("unsupported avatar file type")

var allowedExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// Store writes avatars into a single directory and addresses them through a
// fixed URL prefix, e.g. /uploads/<uuid>.png.
type Store struct {
	dir       string
	urlPrefix string
	log       logger.Logger
}

// NewStore creates the upload directory if needed and returns a store
// serving references under urlPrefix.
func NewStore(dir, urlPrefix string, log logger.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", dir, err)
	}
	return &Store{
		dir:       dir,
		urlPrefix: urlPrefix,
		log:       log,
	}, nil
}

// Save persists one uploaded file under a fresh uuid name, keeping the
// original extension, and returns the reference URL.
func (s *Store) Save(src io.Reader, originalName string) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if !allowedExts[ext] {
		return "", ErrUnsupportedType
	}

	name := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("create avatar file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("write avatar file: %w", err)
	}

	ref := path.Join(s.urlPrefix, name)
	s.log.Debugf("stored avatar %s", ref)
	return ref, nil
}

// Remove deletes the file behind a reference URL. Only the base name of the
// reference is honored, so a crafted reference cannot reach outside the
// upload directory. A reference whose file no longer exists is not an error.
func (s *Store) Remove(ref string) error {
	name := path.Base(path.Clean(ref))
	if name == "." || name == "/" || name == ".." || name == "" {
		return fmt.Errorf("invalid avatar reference %q", ref)
	}

	err := os.Remove(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
