package util

import (
	"errors"
	"strings"
)

// ErrInvalidFileName marks names that cannot be made safe for a storage key.
var ErrInvalidFileName = errors.New("invalid file name")

// SanitizeFileName flattens path separators, strips control characters, and
// rejects traversal patterns so uploaded names are safe to embed in keys.
func SanitizeFileName(name string) (string, error) {
	s := strings.TrimSpace(name)
	if s == "" || strings.Contains(s, "..") {
		return "", ErrInvalidFileName
	}
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
	if s == "" {
		return "", ErrInvalidFileName
	}
	return s, nil
}
