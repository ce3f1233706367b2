package library

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/mozillazg/go-pinyin"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"

	"github.com/xxxsen/dtxorg/internal/entity"
	"github.com/xxxsen/dtxorg/internal/fsutil"
)

const digitKey = "0-9"

// BucketKey picks the bucket of a title from its first letter or digit.
// Full-width forms are folded first. Han characters go by the initial of their
// pinyin and kana by their romaji initial. Anything else lands in otherKey.
func BucketKey(title, otherKey string) string {
	for _, r := range width.Fold.String(title) {
		switch {
		case r < unicode.MaxASCII && unicode.IsDigit(r):
			return digitKey
		case r < unicode.MaxASCII && unicode.IsLetter(r):
			return string(unicode.ToUpper(r))
		case unicode.Is(unicode.Han, r):
			return hanInitial(r, otherKey)
		}
		if k, ok := kanaInitial(r); ok {
			return k
		}
		switch {
		case unicode.IsDigit(r):
			return digitKey
		case unicode.IsLetter(r):
			return latinBase(r, otherKey)
		}
	}
	return otherKey
}

func hanInitial(r rune, otherKey string) string {
	py := pinyin.LazyPinyin(string(r), pinyin.NewArgs())
	if len(py) == 0 || py[0] == "" {
		return otherKey
	}
	return strings.ToUpper(py[0][:1])
}

// latinBase strips diacritics, so É files under E.
func latinBase(r rune, otherKey string) string {
	d := []rune(norm.NFD.String(string(r)))
	if len(d) > 0 && d[0] < unicode.MaxASCII && unicode.IsLetter(d[0]) {
		return string(unicode.ToUpper(d[0]))
	}
	return otherKey
}

// BucketName formats the folder name of a bucket.
func BucketName(format, key string) string {
	return fmt.Sprintf(format, key)
}

// Template is what every bucket folder gets seeded with.
type Template struct {
	CategoryFile     string // name of the category file inside the bucket
	CategoryTemplate string // category file copied into new buckets, optional
	FolderImage      string // folder art copied next to it, optional
}

// EnsureBucket creates parent/name when missing and seeds it from tmpl.
// Files already present are left alone. It returns the bucket directory.
func EnsureBucket(parent, name string, tmpl Template, env entity.Env) (string, error) {
	env = env.WithDefaults()
	dir := filepath.Join(parent, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create bucket dir %s: %w", dir, err)
	}

	if tmpl.CategoryTemplate != "" && tmpl.CategoryFile != "" {
		dst := filepath.Join(dir, tmpl.CategoryFile)
		created, err := copyIfAbsent(tmpl.CategoryTemplate, dst)
		if err != nil {
			return "", err
		}
		if created {
			cat := entity.LoadCategory(dst, env)
			if !cat.IsValid() || !cat.SetTitle(name) {
				return "", fmt.Errorf("init category file %s failed", dst)
			}
			env.Log.Info("created category file", zap.String("bucket", name), zap.String("path", dst))
		}
	}
	if tmpl.FolderImage != "" {
		if _, err := copyIfAbsent(tmpl.FolderImage, filepath.Join(dir, filepath.Base(tmpl.FolderImage))); err != nil {
			return "", err
		}
	}
	return dir, nil
}

func copyIfAbsent(src, dst string) (bool, error) {
	_, err := os.Stat(dst)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("stat %s: %w", dst, err)
	}
	if err := fsutil.CopyFile(src, dst); err != nil {
		return false, err
	}
	return true, nil
}

// MoveIntoBucket moves the package directory into bucketDir, keeping its name
// and numbering it on collision. A package already in bucketDir stays put.
func MoveIntoBucket(pkgDir, bucketDir string) (string, bool, error) {
	if filepath.Clean(filepath.Dir(pkgDir)) == filepath.Clean(bucketDir) {
		return pkgDir, false, nil
	}
	newDir, err := fsutil.MoveDirUnique(pkgDir, bucketDir, filepath.Base(pkgDir))
	if err != nil {
		return "", false, err
	}
	return newDir, true, nil
}
