package utils

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// allowedAvatarExts is the fixed allow-list for avatar uploads.
var allowedAvatarExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// AllowedAvatarExt reports whether the filename carries an allowed image extension.
func AllowedAvatarExt(filename string) bool {
	return allowedAvatarExts[strings.ToLower(filepath.Ext(filename))]
}

// SecureFilename strips path components and replaces unsafe characters so the
// result can be used directly as a stored file name.
func SecureFilename(name string) string {
	name = filepath.Base(name)
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	return name
}

// SaveAvatar writes an uploaded avatar into dir under a sanitized, uuid-prefixed
// name and returns the stored filename. The extension must pass the allow-list.
func SaveAvatar(file multipart.File, originalName, dir string) (string, error) {
	if !AllowedAvatarExt(originalName) {
		return "", fmt.Errorf("file type not allowed: %s", filepath.Ext(originalName))
	}

	base := SecureFilename(originalName)
	if base == "" {
		base = "avatar" + strings.ToLower(filepath.Ext(originalName))
	}
	stored := uuid.NewString()[:8] + "_" + base

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	dst, err := os.Create(filepath.Join(dir, stored))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		_ = os.Remove(dst.Name())
		return "", err
	}
	return stored, nil
}
