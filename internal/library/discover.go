// Package library walks a song library: it finds song packages, and groups
// them into bucket folders keyed on the first character of their title.
package library

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xxxsen/dtxorg/internal/fsutil"
)

// Package is one song package directory. IndexPath is empty when the
// directory holds charts but no index file yet.
type Package struct {
	Dir       string
	IndexPath string
}

func (p Package) HasIndex() bool {
	return p.IndexPath != ""
}

// Name is the package directory name.
func (p Package) Name() string {
	return filepath.Base(p.Dir)
}

// Discover lists the packages under root. A directory holding an index file
// (name compared case-insensitively) or at least one chart file is a package
// and is not descended into. The result is sorted by directory.
func Discover(root, indexName, chartExt string) ([]Package, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat library dir %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("library dir %s is not a directory", root)
	}

	pkgs := make([]Package, 0)
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.IsDir() {
			return nil
		}
		entries, err := os.ReadDir(path)
		if err != nil {
			return fmt.Errorf("read dir %s: %w", path, err)
		}
		pkg, ok := classify(path, entries, indexName, chartExt)
		if !ok {
			return nil
		}
		pkgs = append(pkgs, pkg)
		return filepath.SkipDir
	})
	if err != nil {
		return nil, fmt.Errorf("walk library dir %s: %w", root, err)
	}
	sort.Slice(pkgs, func(i, j int) bool { return pkgs[i].Dir < pkgs[j].Dir })
	return pkgs, nil
}

func classify(dir string, entries []fs.DirEntry, indexName, chartExt string) (Package, bool) {
	hasChart := false
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if strings.EqualFold(e.Name(), indexName) {
			return Package{Dir: dir, IndexPath: filepath.Join(dir, e.Name())}, true
		}
		if strings.EqualFold(filepath.Ext(e.Name()), chartExt) {
			hasChart = true
		}
	}
	if hasChart {
		return Package{Dir: dir}, true
	}
	return Package{}, false
}

// DiscoverCategories lists the category files anywhere under root.
func DiscoverCategories(root, categoryName string) ([]string, error) {
	files, err := fsutil.FindFiles(root, "**/"+categoryName)
	if err != nil {
		return nil, fmt.Errorf("find category files under %s: %w", root, err)
	}
	return files, nil
}
