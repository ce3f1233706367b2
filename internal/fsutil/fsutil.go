package fsutil

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// FileExists reports whether path names a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// ResolveRef joins a reference read from a property value onto dir. Values are
// written by Windows tools, so backslashes are treated as separators.
func ResolveRef(dir, ref string) string {
	ref = strings.TrimSpace(strings.ReplaceAll(ref, `\`, "/"))
	return filepath.Join(dir, filepath.FromSlash(ref))
}

// FindFiles returns the regular files under root whose slash-separated path
// relative to root matches the doublestar pattern, compared case-insensitively.
// The result is sorted and is a snapshot: later moves do not affect it.
func FindFiles(root, pattern string) ([]string, error) {
	pattern = strings.ToLower(pattern)
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid file pattern %q", pattern)
	}
	files := make([]string, 0)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		ok, err := doublestar.Match(pattern, strings.ToLower(filepath.ToSlash(rel)))
		if err != nil {
			return err
		}
		if ok {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}

// MoveDirUnique moves src into parent under name. When parent/name is taken it
// tries name_2, and when that is taken too it uses one more than the highest
// numeric suffix already present. The final directory path is returned.
func MoveDirUnique(src, parent, name string) (string, error) {
	target := filepath.Join(parent, name)
	taken, err := occupiedBy(target, src)
	if err != nil {
		return "", err
	}
	if taken {
		target = filepath.Join(parent, name+"_2")
		if taken, err = occupiedBy(target, src); err != nil {
			return "", err
		}
	}
	if taken {
		highest, err := highestSuffix(parent, name)
		if err != nil {
			return "", err
		}
		target = filepath.Join(parent, name+"_"+strconv.Itoa(highest+1))
		if taken, err = occupiedBy(target, src); err != nil {
			return "", err
		}
		if taken {
			return "", fmt.Errorf("move %s: destination %s exists", src, target)
		}
	}
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return "", fmt.Errorf("create dir %s: %w", parent, err)
	}
	if err := os.Rename(src, target); err != nil {
		return "", fmt.Errorf("move %s -> %s: %w", src, target, err)
	}
	return target, nil
}

// occupiedBy reports whether path exists as something other than src itself,
// so case-only renames on case-insensitive file systems go straight through.
func occupiedBy(path, src string) (bool, error) {
	info, err := os.Lstat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	if srcInfo, err := os.Lstat(src); err == nil && os.SameFile(info, srcInfo) {
		return false, nil
	}
	return true, nil
}

func highestSuffix(parent, name string) (int, error) {
	entries, err := os.ReadDir(parent)
	if err != nil {
		return 0, fmt.Errorf("read dir %s: %w", parent, err)
	}
	re := NumberedName(name)
	highest := 2
	for _, entry := range entries {
		m := re.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil && n > highest {
			highest = n
		}
	}
	return highest, nil
}

// NumberedName matches `name_N` and captures N.
func NumberedName(name string) *regexp.Regexp {
	return regexp.MustCompile(`^` + regexp.QuoteMeta(name) + `_(\d+)$`)
}

// CopyFile copies src to dst, creating or truncating dst.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open file %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create file %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s -> %s: %w", src, dst, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close file %s: %w", dst, err)
	}
	return nil
}
