package entity

import (
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/xxxsen/dtxorg/internal/fsutil"
)

// Characters Windows refuses in a path segment. Songs are shared between
// Windows and other systems, so the strictest set applies everywhere.
const invalidNameChars = `<>:"/\|?*`

// SanitizeFolderName turns a title into a legal directory name.
func SanitizeFolderName(title string) string {
	name := strings.Map(func(r rune) rune {
		if r < 0x20 || strings.ContainsRune(invalidNameChars, r) {
			return -1
		}
		return r
	}, title)
	return strings.TrimRight(name, ".")
}

// RenameContainingFolderToTitle renames the folder holding the file after its
// title. A folder already named `title_N` counts as a numbered duplicate and is
// left alone.
func (f *file) RenameContainingFolderToTitle() bool {
	_, ok := f.renameFolder()
	return ok
}

// renameFolder reports whether the folder actually moved alongside success.
func (f *file) renameFolder() (moved bool, ok bool) {
	if !f.valid {
		return false, false
	}
	name := SanitizeFolderName(f.title)
	if strings.TrimSpace(name) == "" {
		f.env.Log.Error("title not usable as folder name", zap.String("title", f.title), zap.String("path", f.path))
		return false, false
	}

	oldDir := f.dir()
	base := filepath.Base(oldDir)
	if base == name || fsutil.NumberedName(name).MatchString(base) {
		return false, true
	}

	newDir, err := fsutil.MoveDirUnique(oldDir, filepath.Dir(oldDir), name)
	if err != nil {
		f.env.Log.Error("rename folder failed", zap.String("title", f.title), zap.String("path", f.path), zap.Error(err))
		return false, false
	}
	f.setPath(filepath.Join(newDir, filepath.Base(f.path)))
	f.env.Log.Info("renamed folder",
		zap.String("title", f.title),
		zap.String("from", oldDir),
		zap.String("to", newDir),
	)
	return true, true
}
