// File: pkg/storage/keypath.go
package storage

import (
	"fmt"
	"path/filepath"
	"strings"
)

const KeySeparator = "/"

// Normalizes a key prefix by stripping leading and trailing separators
func NormalizePrefix(prefix string) string {
	return strings.Trim(prefix, KeySeparator)
}

// Turns a prefix into the listing prefix of a folder: "photos" and "/photos/" both become
// "photos/", so sibling keys such as "photos-backup/x" never match. Empty stays empty.
func FolderPrefix(prefix string) string {
	if p := NormalizePrefix(prefix); p != "" {
		return p + KeySeparator
	}
	return ""
}

// Reports whether the key is a zero-length "folder/" placeholder
func IsDirectoryMarker(key string) bool {
	return strings.HasSuffix(key, KeySeparator)
}

// Maps a file strictly inside localRoot to its object key under keyPrefix
func ToKey(localRoot, filePath, keyPrefix string) (string, error) {
	root := filepath.Clean(localRoot)
	rel, err := filepath.Rel(root, filepath.Clean(filePath))
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrPathOutsideRoot, filePath, err)
	}
	if rel == "." || !filepath.IsLocal(rel) {
		return "", fmt.Errorf("%w: %s is not under %s", ErrPathOutsideRoot, filePath, root)
	}

	key := filepath.ToSlash(rel)
	if prefix := NormalizePrefix(keyPrefix); prefix != "" {
		key = prefix + KeySeparator + key
	}
	return key, nil
}

// Maps an object key under keyPrefix back to a path below destRoot
func ToLocalPath(key, keyPrefix, destRoot string) (string, error) {
	if IsDirectoryMarker(key) {
		return "", fmt.Errorf("%w: %s", ErrDirectoryMarker, key)
	}

	rel := key
	if prefix := NormalizePrefix(keyPrefix); prefix != "" {
		trimmed, ok := strings.CutPrefix(key, prefix+KeySeparator)
		if !ok {
			return "", fmt.Errorf("%w: %q does not start with %q", ErrPrefixMismatch, key, prefix)
		}
		rel = trimmed
	}

	localRel := filepath.FromSlash(rel)
	// Rejects absolute paths, empty names and any ".." escape
	if !filepath.IsLocal(localRel) {
		return "", fmt.Errorf("%w: key %q escapes %s", ErrPathOutsideRoot, key, destRoot)
	}
	return filepath.Join(destRoot, localRel), nil
}
