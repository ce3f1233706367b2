package entity

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/xxxsen/dtxorg/internal/constant"
	"github.com/xxxsen/dtxorg/internal/model"
)

var categoryMediaPatterns = []*regexp.Regexp{
	refPattern(`#PREIMAGE`, mediaExt),
	refPattern(`#PREVIEW`, mediaExt),
}

// CategoryFile describes a bucket folder (box.def).
type CategoryFile struct {
	file
	artist    string
	comment   string
	preImage  string
	preview   string
	fontColor string
}

// LoadCategory reads the category file at path. The result is never nil; check IsValid.
func LoadCategory(path string, env Env) *CategoryFile {
	c := &CategoryFile{file: loadFile(path, env)}
	if !c.valid {
		return c
	}
	c.artist = c.property(constant.PropArtist)
	c.comment = c.property(constant.PropComment)
	c.preImage = c.property(constant.PropPreImage)
	c.preview = c.property(constant.PropPreview)
	c.fontColor = c.property(constant.PropFontColor)
	return c
}

func (c *CategoryFile) Artist() string    { return c.artist }
func (c *CategoryFile) Comment() string   { return c.comment }
func (c *CategoryFile) PreImage() string  { return c.preImage }
func (c *CategoryFile) Preview() string   { return c.preview }
func (c *CategoryFile) FontColor() string { return c.fontColor }

// SetTitle rewrites #TITLE and saves.
func (c *CategoryFile) SetTitle(title string) bool {
	if !c.valid {
		return false
	}
	if !c.text.Set(constant.PropTitle, title) {
		c.env.Log.Error("change property failed", zap.String("property", constant.PropTitle), zap.String("path", c.path))
		return false
	}
	if !c.save() {
		return false
	}
	c.title = strings.TrimSpace(title)
	return true
}

// FindAndRepairProblems checks the artwork references. A bucket folder holds
// whole packages, so candidates come from its top level only.
func (c *CategoryFile) FindAndRepairProblems(autoFix bool) []model.Problem {
	if !c.valid {
		return nil
	}
	problems := c.repairMedia(categoryMediaPatterns, newCandidatePool(c.dir(), false), autoFix)
	c.preImage = c.property(constant.PropPreImage)
	c.preview = c.property(constant.PropPreview)
	return problems
}
