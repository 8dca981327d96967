package infrastructure

import (
	"errors"
	"path/filepath"
	"strings"
)

// ErrOutsideMediaDir is returned for catalog URLs that do not resolve inside the media directory.
var ErrOutsideMediaDir = errors.New("path escapes media directory")

// MediaPath maps a site-relative catalog URL such as "/music/Lenny.wav" to
// its file under mediaDir.
func MediaPath(mediaDir, url string) (string, error) {
	if mediaDir == "" {
		return "", errors.New("media directory not configured")
	}
	if strings.Contains(url, "://") {
		return "", ErrOutsideMediaDir
	}

	rel := filepath.Clean(filepath.FromSlash(strings.TrimPrefix(url, "/")))
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", ErrOutsideMediaDir
	}

	return filepath.Join(mediaDir, rel), nil
}
