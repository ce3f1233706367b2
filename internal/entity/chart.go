package entity

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/xxxsen/dtxorg/internal/constant"
	"github.com/xxxsen/dtxorg/internal/model"
)

const mediaExt = `[0-9A-Za-z]{2,4}`

// chartMediaPatterns are checked in this order by ChartFile.FindAndRepairProblems.
var chartMediaPatterns = []*regexp.Regexp{
	refPattern(`#PREVIEW`, mediaExt),
	refPattern(`#PREIMAGE`, mediaExt),
	refPattern(`#PREMOVIE`, mediaExt),
	refPattern(`#RESULTIMAGE`, mediaExt),
	refPattern(`#STAGEFILE`, mediaExt),
	refPattern(`#AVI[0-9A-Za-z]{2}`, mediaExt),
	refPattern(`#WAV[0-9A-Za-z]{2}`, mediaExt),
}

// ChartFile is one playable difficulty.
type ChartFile struct {
	file
	packageDir  string
	artist      string
	comment     string
	level       float64
	bpm         int
	preview     string
	preImage    string
	resultImage string
}

// LoadChart reads the chart at path. packageDir is the song package root that
// is searched for replacement media; empty means the chart's own directory.
// The result is never nil; check IsValid.
func LoadChart(path, packageDir string, env Env) *ChartFile {
	c := &ChartFile{file: loadFile(path, env), packageDir: packageDir}
	if c.packageDir == "" {
		c.packageDir = c.dir()
	}
	if !c.valid {
		return c
	}

	c.artist = c.property(constant.PropArtist)
	c.comment = c.property(constant.PropComment)
	c.preview = c.property(constant.PropPreview)
	c.preImage = c.property(constant.PropPreImage)
	c.resultImage = c.property(constant.PropResultImage)

	if raw, ok := c.text.Get(constant.PropLevel); ok {
		level, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			c.env.Log.Warn("level not numeric", zap.String("value", raw), zap.String("path", path))
		} else {
			c.level = NormalizeLevel(level)
		}
	}
	if raw, ok := c.text.Get(constant.PropBpm); ok {
		bpm, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			c.env.Log.Warn("bpm not numeric", zap.String("value", raw), zap.String("path", path))
		} else {
			c.bpm = int(bpm)
		}
	}
	return c
}

// NormalizeLevel folds integer-scaled levels (45, 750) into [0, 10).
func NormalizeLevel(level float64) float64 {
	for level >= 10 {
		level /= 10
	}
	return level
}

func (c *ChartFile) Artist() string      { return c.artist }
func (c *ChartFile) Comment() string     { return c.comment }
func (c *ChartFile) Level() float64      { return c.level }
func (c *ChartFile) Bpm() int            { return c.bpm }
func (c *ChartFile) Preview() string     { return c.preview }
func (c *ChartFile) PreImage() string    { return c.preImage }
func (c *ChartFile) ResultImage() string { return c.resultImage }
func (c *ChartFile) PackageDir() string  { return c.packageDir }

// FindAndRepairProblems checks every media reference of the chart. Candidates
// come from the whole package tree.
func (c *ChartFile) FindAndRepairProblems(autoFix bool) []model.Problem {
	if !c.valid {
		return nil
	}
	return c.repairMedia(chartMediaPatterns, newCandidatePool(c.packageDir, true), autoFix)
}

// CompareCharts orders by level. Invalid charts sort after valid ones and equal
// to each other.
func CompareCharts(a, b *ChartFile) int {
	aValid := a != nil && a.valid
	bValid := b != nil && b.valid
	switch {
	case !aValid && !bValid:
		return 0
	case !aValid:
		return 1
	case !bValid:
		return -1
	case a.level < b.level:
		return -1
	case a.level > b.level:
		return 1
	}
	return 0
}

// SortCharts sorts charts in place by CompareCharts, keeping ties in order.
func SortCharts(charts []*ChartFile) {
	sort.SliceStable(charts, func(i, j int) bool {
		return CompareCharts(charts[i], charts[j]) < 0
	})
}
