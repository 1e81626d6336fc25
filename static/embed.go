// Package static embeds the browser assets shipped with rendered documents.
package static

import (
	"embed"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

//go:embed css/*.css js/*.js
var assets embed.FS

// Asset paths inside FS.
const (
	StylesheetPath = "css/richmd.css"
	ScriptPath     = "js/richmd.js"
)

// FS exposes the embedded static assets.
func FS() fs.FS {
	return assets
}

// Stylesheet returns the document stylesheet.
func Stylesheet() string {
	return mustRead(StylesheetPath)
}

// Script returns the copy and viewer runtime.
func Script() string {
	return mustRead(ScriptPath)
}

func mustRead(name string) string {
	data, err := fs.ReadFile(assets, name)
	if err != nil {
		// Both paths are compiled in by the embed directive.
		panic(err)
	}
	return string(data)
}

// Has reports whether the given relative path exists in the embedded assets.
func Has(name string) bool {
	name = strings.TrimPrefix(name, "/")
	f, err := assets.Open(name)
	if err != nil {
		return false
	}
	_ = f.Close()
	return true
}

// CopyAll writes all embedded assets into the destination directory (relative layout preserved).
func CopyAll(dest string) error {
	return fs.WalkDir(assets, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		target := filepath.Join(dest, filepath.FromSlash(path))
		if err := ensureDir(target); err != nil {
			return err
		}
		data, err := fs.ReadFile(assets, path)
		if err != nil {
			return err
		}
		return writeFile(target, data)
	})
}

func ensureDir(target string) error {
	dir := filepath.Dir(target)
	return os.MkdirAll(dir, 0o755) //nolint:gosec // standard directory permissions
}

func writeFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0o644) //nolint:gosec // standard file permissions
}
