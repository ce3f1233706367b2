package entity

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/xxxsen/dtxorg/internal/fsutil"
	"github.com/xxxsen/dtxorg/internal/model"
	"github.com/xxxsen/dtxorg/internal/prompt"
	"github.com/xxxsen/dtxorg/internal/proptext"
)

// reference is one property whose value names a file.
type reference struct {
	prop  string
	value string
	ext   string
}

// refPattern locates `prop<delim>file.ext` up to the end of the line. Every
// pattern exposes the groups prop, file and ext.
func refPattern(prop, ext string) *regexp.Regexp {
	return regexp.MustCompile(`(?m)(?P<prop>` + prop + `)(?:[ \t]*:[ \t]*|[ \t]+)(?P<file>[^\r\n]*?\.(?P<ext>` + ext + `))[ \t]*\r?$`)
}

func scanRefs(raw string, re *regexp.Regexp) []reference {
	propIdx, fileIdx, extIdx := re.SubexpIndex("prop"), re.SubexpIndex("file"), re.SubexpIndex("ext")
	matches := re.FindAllStringSubmatch(raw, -1)
	refs := make([]reference, 0, len(matches))
	for _, m := range matches {
		refs = append(refs, reference{prop: m[propIdx], value: m[fileIdx], ext: m[extIdx]})
	}
	return refs
}

// declaredName is the file name part of a reference value.
func declaredName(value string) string {
	return path.Base(strings.ReplaceAll(strings.TrimSpace(value), `\`, "/"))
}

// candidatePool is the snapshot of files a repair pass may bind. It is listed
// once, before the first mutation, and kept current as candidates get renamed.
type candidatePool struct {
	root    string
	pattern string
	files   []string
	listed  bool
}

func newCandidatePool(root string, recursive bool) *candidatePool {
	pattern := "*"
	if recursive {
		pattern = "**/*"
	}
	return &candidatePool{root: root, pattern: pattern}
}

// unreferenced returns the pooled files with extension ext whose name does not
// appear anywhere in text.
func (p *candidatePool) unreferenced(f *file, ext string) []string {
	if !p.listed {
		p.listed = true
		files, err := fsutil.FindFiles(p.root, p.pattern)
		if err != nil {
			f.env.Log.Error("list candidate files failed", zap.String("dir", p.root), zap.Error(err))
		}
		p.files = files
	}
	return filterUnreferenced(p.files, ext, f.text)
}

func filterUnreferenced(files []string, ext string, text *proptext.Text) []string {
	out := make([]string, 0)
	for _, fp := range files {
		if !strings.EqualFold(strings.TrimPrefix(filepath.Ext(fp), "."), ext) {
			continue
		}
		if text.Contains(filepath.Base(fp)) {
			continue
		}
		out = append(out, fp)
	}
	return out
}

func (p *candidatePool) moved(from, to string) {
	for i, fp := range p.files {
		if fp == from {
			p.files[i] = to
		}
	}
}

// display shortens candidates to paths relative to the pool root.
func (p *candidatePool) display(files []string) []string {
	out := make([]string, len(files))
	for i, fp := range files {
		rel, err := filepath.Rel(p.root, fp)
		if err != nil {
			rel = fp
		}
		out[i] = filepath.ToSlash(rel)
	}
	return out
}

// resolve settles one dangling reference. With autoFix off it only warns. With
// autoFix on, no candidate removes the property, a single candidate is bound
// directly, and several are put to the chooser.
func (f *file) resolve(ref reference, autoFix bool, pool *candidatePool, remove func() bool, rebind func(candidate string) (string, bool)) model.Problem {
	problem := model.Problem{File: f.path, Property: ref.prop, Value: ref.value, Action: model.ActionMissing}
	log := f.env.Log
	if !autoFix {
		log.Warn("referenced file missing",
			zap.String("file", ref.value),
			zap.String("property", ref.prop),
			zap.String("path", f.path),
		)
		return problem
	}

	candidates := pool.unreferenced(f, ref.ext)
	var choice prompt.Choice
	switch len(candidates) {
	case 0:
		choice = prompt.Remove()
	case 1:
		choice = prompt.Candidate(0)
	default:
		choice = f.choose(prompt.Request{
			Header:      fmt.Sprintf("Please select which file should be bound to property %s in song %s", ref.prop, f.title),
			Property:    ref.prop,
			Current:     ref.value,
			Candidates:  pool.display(candidates),
			OfferKeep:   true,
			OfferRemove: true,
		})
	}

	switch choice.Kind {
	case prompt.ChoiceKeep:
		problem.Action = model.ActionKept
		log.Info("kept dangling reference", zap.String("property", ref.prop), zap.String("file", ref.value), zap.String("path", f.path))
	case prompt.ChoiceRemove:
		if remove() {
			problem.Action = model.ActionRemoved
			log.Info("removed property", zap.String("property", ref.prop), zap.String("title", f.title), zap.String("path", f.path))
		} else {
			problem.Action = model.ActionFailed
			log.Error("remove property failed", zap.String("property", ref.prop), zap.String("title", f.title), zap.String("path", f.path))
		}
	default:
		newValue, ok := rebind(candidates[choice.Index])
		if !ok {
			problem.Action = model.ActionFailed
			break
		}
		problem.Action = model.ActionRebound
		problem.NewValue = newValue
		log.Info("changed property",
			zap.String("property", ref.prop),
			zap.String("from", ref.value),
			zap.String("to", newValue),
			zap.String("title", f.title),
			zap.String("path", f.path),
		)
	}
	return problem
}

// repairMedia checks every reference matched by patterns against the file's
// own directory.
func (f *file) repairMedia(patterns []*regexp.Regexp, pool *candidatePool, autoFix bool) []model.Problem {
	problems := make([]model.Problem, 0)
	for _, re := range patterns {
		for _, ref := range scanRefs(f.text.Raw(), re) {
			if fsutil.FileExists(fsutil.ResolveRef(f.dir(), ref.value)) {
				continue
			}
			ref := ref
			problems = append(problems, f.resolve(ref, autoFix, pool,
				func() bool { return f.deleteProperty(ref.prop) },
				func(candidate string) (string, bool) { return f.rebindMedia(ref, pool, candidate) },
			))
		}
	}
	return problems
}

// rebindMedia renames candidate to the name the file declares, since several
// properties may rely on that naming, then points the property at it relative
// to the file's own directory.
func (f *file) rebindMedia(ref reference, pool *candidatePool, candidate string) (string, bool) {
	log := f.env.Log
	target := filepath.Join(filepath.Dir(candidate), declaredName(ref.value))
	if target != candidate {
		if _, err := os.Lstat(target); !errors.Is(err, os.ErrNotExist) {
			log.Error("rename candidate failed, destination taken", zap.String("from", candidate), zap.String("to", target), zap.Error(err))
			return "", false
		}
		if err := os.Rename(candidate, target); err != nil {
			log.Error("rename candidate failed", zap.String("from", candidate), zap.String("to", target), zap.Error(err))
			return "", false
		}
		pool.moved(candidate, target)
	}

	rel, err := filepath.Rel(f.dir(), target)
	if err != nil {
		log.Error("compute relative path failed", zap.String("target", target), zap.Error(err))
		return "", false
	}
	if !f.text.Set(ref.prop, rel) {
		log.Error("change property failed", zap.String("property", ref.prop), zap.String("path", f.path))
		return "", false
	}
	if !f.save() {
		return "", false
	}
	return rel, true
}
