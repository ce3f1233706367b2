// Package entity models the files of a song library: the index file of a
// package (SET.def), its chart files (*.dtx) and bucket category files (box.def).
// Each one embeds a property-text buffer and knows how to find and repair
// references to files that no longer exist.
package entity

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/xxxsen/dtxorg/internal/constant"
	"github.com/xxxsen/dtxorg/internal/model"
	"github.com/xxxsen/dtxorg/internal/prompt"
	"github.com/xxxsen/dtxorg/internal/proptext"
	"github.com/xxxsen/dtxorg/internal/report"
)

// Entity is the capability set shared by index, chart and category files.
type Entity interface {
	Title() string
	FilePath() string
	IsValid() bool
	RenameContainingFolderToTitle() bool
	FindAndRepairProblems(autoFix bool) []model.Problem
}

var (
	_ Entity = (*IndexFile)(nil)
	_ Entity = (*ChartFile)(nil)
	_ Entity = (*CategoryFile)(nil)
)

// Env carries the collaborators an entity reports to and asks.
// A nil Chooser keeps every ambiguous reference as it is.
type Env struct {
	Log     *report.Logger
	Chooser prompt.Chooser
}

// WithDefaults fills in a discarding logger when none is set.
func (e Env) WithDefaults() Env {
	if e.Log == nil {
		e.Log = report.New(nil)
	}
	return e
}

// file is the state embedded by every entity. text is nil when invalid.
type file struct {
	env   Env
	text  *proptext.Text
	path  string
	title string
	valid bool
}

func loadFile(path string, env Env) file {
	f := file{env: env.WithDefaults(), path: path}
	text, err := proptext.Load(path)
	if err != nil {
		log := f.env.Log
		switch {
		case errors.Is(err, proptext.ErrTitleMissing):
			log.Warn("title property missing", zap.String("file", filepath.Base(path)), zap.String("dir", filepath.Dir(path)))
		case errors.Is(err, os.ErrNotExist):
			log.Error("file not found", zap.String("file", filepath.Base(path)), zap.String("dir", filepath.Dir(path)))
		default:
			log.Error("open file failed", zap.String("path", path), zap.Error(err))
		}
		return f
	}
	f.text = text
	f.valid = true
	title, _ := text.Get(constant.PropTitle)
	f.title = strings.TrimSpace(title)
	return f
}

func (f *file) Title() string    { return f.title }
func (f *file) FilePath() string { return f.path }
func (f *file) IsValid() bool    { return f.valid }

func (f *file) dir() string { return filepath.Dir(f.path) }

func (f *file) property(name string) string {
	v, _ := f.text.Get(name)
	return v
}

func (f *file) setPath(path string) {
	f.path = path
	f.text.SetPath(path)
}

func (f *file) save() bool {
	if err := f.text.Save(); err != nil {
		f.env.Log.Error("save file failed", zap.String("title", f.title), zap.String("path", f.path), zap.Error(err))
		return false
	}
	return true
}

// deleteProperty drops the line and persists. A failed save is logged and
// reported as false even though the buffer already changed.
func (f *file) deleteProperty(name string) bool {
	if !f.valid || !f.text.Delete(name) {
		return false
	}
	return f.save()
}

func (f *file) choose(req prompt.Request) prompt.Choice {
	if f.env.Chooser == nil {
		f.env.Log.Warn("no chooser configured, keeping current value", zap.String("property", req.Property), zap.String("path", f.path))
		return prompt.Keep()
	}
	choice, err := f.env.Chooser.Choose(req)
	if err != nil {
		f.env.Log.Error("prompt failed, keeping current value", zap.String("property", req.Property), zap.Error(err))
		return prompt.Keep()
	}
	if choice.Kind == prompt.ChoiceCandidate && (choice.Index < 0 || choice.Index >= len(req.Candidates)) {
		f.env.Log.Error("prompt returned unknown candidate", zap.Int("index", choice.Index))
		return prompt.Keep()
	}
	return choice
}
