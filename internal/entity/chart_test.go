package entity

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xxxsen/dtxorg/internal/model"
	"github.com/xxxsen/dtxorg/internal/prompt"
)

func TestNormalizeLevel(t *testing.T) {
	cases := map[float64]float64{
		4.5:  4.5,
		45:   4.5,
		750:  7.5,
		9.99: 9.99,
		0:    0,
	}
	for in, want := range cases {
		assert.InDelta(t, want, NormalizeLevel(in), 1e-9, "level %v", in)
		assert.InDelta(t, want, NormalizeLevel(NormalizeLevel(in)), 1e-9, "level %v twice", in)
	}
}

func TestLoadChart(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, filepath.Join(dir, "ext.dtx"),
		"#TITLE: 千本桜\r\n#ARTIST: 黒うさP\r\n#DLEVEL: 78\r\n#BPM: 154.5\r\n#PREVIEW: pre.ogg\r\n")
	env, log, _ := newTestEnv(nil)

	c := LoadChart(path, "", env)
	require.True(t, c.IsValid())
	assert.Equal(t, "千本桜", c.Title())
	assert.Equal(t, "黒うさP", c.Artist())
	assert.InDelta(t, 7.8, c.Level(), 1e-9)
	assert.Equal(t, 154, c.Bpm())
	assert.Equal(t, "pre.ogg", c.Preview())
	assert.Equal(t, dir, c.PackageDir())
	assert.Equal(t, 0, log.Counts().Warn)
}

func TestLoadChartBadNumbers(t *testing.T) {
	path := writeFile(t, filepath.Join(t.TempDir(), "a.dtx"), "#TITLE: a\r\n#DLEVEL: hard\r\n#BPM: fast\r\n")
	env, log, _ := newTestEnv(nil)

	c := LoadChart(path, "", env)
	require.True(t, c.IsValid())
	assert.Equal(t, 0.0, c.Level())
	assert.Equal(t, 0, c.Bpm())
	assert.Equal(t, 2, log.Counts().Warn)
}

func TestLoadChartWithoutTitle(t *testing.T) {
	path := writeFile(t, filepath.Join(t.TempDir(), "a.dtx"), "#ARTIST: nobody\r\n")
	env, log, logs := newTestEnv(nil)

	c := LoadChart(path, "", env)
	assert.False(t, c.IsValid())
	assert.Equal(t, 1, log.Counts().Warn)
	assert.Equal(t, 1, logs.FilterMessage("title property missing").Len())
	assert.Empty(t, c.FindAndRepairProblems(true))
	assert.False(t, c.RenameContainingFolderToTitle())
}

func TestLoadChartMissingFile(t *testing.T) {
	env, log, _ := newTestEnv(nil)
	c := LoadChart(filepath.Join(t.TempDir(), "nope.dtx"), "", env)
	assert.False(t, c.IsValid())
	assert.Equal(t, 1, log.Counts().Error)
}

func TestSortCharts(t *testing.T) {
	mk := func(level float64, valid bool) *ChartFile {
		return &ChartFile{file: file{valid: valid}, level: level}
	}
	bad1, bad2 := mk(1, false), mk(0, false)
	easy, mid, hard := mk(2.5, true), mk(5, true), mk(8, true)
	charts := []*ChartFile{bad1, hard, easy, bad2, mid}

	SortCharts(charts)
	assert.Equal(t, []*ChartFile{easy, mid, hard, bad1, bad2}, charts)
	assert.Equal(t, 0, CompareCharts(bad1, bad2))
	assert.Equal(t, 1, CompareCharts(nil, easy))
	assert.Equal(t, -1, CompareCharts(easy, hard))
}

func TestChartRepairSingleCandidate(t *testing.T) {
	pkg := filepath.Join(t.TempDir(), "pkg")
	path := writeFile(t, filepath.Join(pkg, "ext.dtx"), "#TITLE: a\r\n#PREVIEW: pre.ogg\r\n#BPM: 120\r\n")
	writeFile(t, filepath.Join(pkg, "sound", "old_preview.ogg"), "x")
	chooser := &scriptedChooser{}
	env, _, _ := newTestEnv(chooser)

	c := LoadChart(path, pkg, env)
	problems := c.FindAndRepairProblems(true)

	require.Len(t, problems, 1)
	assert.Equal(t, model.ActionRebound, problems[0].Action)
	assert.Equal(t, "#PREVIEW", problems[0].Property)
	assert.Equal(t, filepath.Join("sound", "pre.ogg"), problems[0].NewValue)
	assert.Empty(t, chooser.requests)
	assert.True(t, exists(filepath.Join(pkg, "sound", "pre.ogg")))
	assert.False(t, exists(filepath.Join(pkg, "sound", "old_preview.ogg")))
	assert.Equal(t, "#TITLE: a\r\n#PREVIEW: "+filepath.Join("sound", "pre.ogg")+"\r\n#BPM: 120\r\n", readFile(t, path))
}

func TestChartRepairNoCandidate(t *testing.T) {
	pkg := t.TempDir()
	path := writeFile(t, filepath.Join(pkg, "ext.dtx"), "#TITLE: a\r\n#PREIMAGE: jacket.png\r\n#BPM: 120\r\n")
	chooser := &scriptedChooser{}
	env, _, _ := newTestEnv(chooser)

	problems := LoadChart(path, pkg, env).FindAndRepairProblems(true)

	require.Len(t, problems, 1)
	assert.Equal(t, model.ActionRemoved, problems[0].Action)
	assert.Empty(t, chooser.requests)
	assert.Equal(t, "#TITLE: a\r\n#BPM: 120\r\n", readFile(t, path))
}

func TestChartRepairPromptsOnce(t *testing.T) {
	pkg := t.TempDir()
	path := writeFile(t, filepath.Join(pkg, "ext.dtx"), "#TITLE: a\r\n#PREIMAGE: jacket.png\r\n")
	writeFile(t, filepath.Join(pkg, "a.png"), "x")
	writeFile(t, filepath.Join(pkg, "b.png"), "x")
	chooser := &scriptedChooser{choices: []prompt.Choice{prompt.Candidate(1)}}
	env, _, _ := newTestEnv(chooser)

	problems := LoadChart(path, pkg, env).FindAndRepairProblems(true)

	require.Len(t, chooser.requests, 1)
	req := chooser.requests[0]
	assert.Equal(t, []string{"a.png", "b.png"}, req.Candidates)
	assert.Equal(t, "#PREIMAGE", req.Property)
	assert.True(t, req.OfferKeep)
	assert.True(t, req.OfferRemove)

	require.Len(t, problems, 1)
	assert.Equal(t, model.ActionRebound, problems[0].Action)
	assert.True(t, exists(filepath.Join(pkg, "a.png")))
	assert.True(t, exists(filepath.Join(pkg, "jacket.png")))
	assert.False(t, exists(filepath.Join(pkg, "b.png")))
}

func TestChartRepairKeep(t *testing.T) {
	pkg := t.TempDir()
	content := "#TITLE: a\r\n#PREIMAGE: jacket.png\r\n"
	path := writeFile(t, filepath.Join(pkg, "ext.dtx"), content)
	writeFile(t, filepath.Join(pkg, "a.png"), "x")
	writeFile(t, filepath.Join(pkg, "b.png"), "x")
	env, _, _ := newTestEnv(&scriptedChooser{choices: []prompt.Choice{prompt.Keep()}})

	problems := LoadChart(path, pkg, env).FindAndRepairProblems(true)

	require.Len(t, problems, 1)
	assert.Equal(t, model.ActionKept, problems[0].Action)
	assert.False(t, problems[0].Changed())
	assert.Equal(t, content, readFile(t, path))
}

func TestChartRepairDestinationTaken(t *testing.T) {
	pkg := t.TempDir()
	content := "#TITLE: a\r\n#PREIMAGE: jacket.png\r\n"
	path := writeFile(t, filepath.Join(pkg, "ext.dtx"), content)
	writeFile(t, filepath.Join(pkg, "img", "cover.png"), "x")
	// a directory squats on the declared name next to the candidate
	require.NoError(t, os.MkdirAll(filepath.Join(pkg, "img", "jacket.png"), 0o755))
	env, log, _ := newTestEnv(&scriptedChooser{})

	problems := LoadChart(path, pkg, env).FindAndRepairProblems(true)

	require.Len(t, problems, 1)
	assert.Equal(t, model.ActionFailed, problems[0].Action)
	assert.Equal(t, 1, log.Counts().Error)
	assert.True(t, exists(filepath.Join(pkg, "img", "cover.png")))
	assert.Equal(t, content, readFile(t, path))
}

func TestChartScanOnly(t *testing.T) {
	pkg := t.TempDir()
	content := "#TITLE: a\r\n#WAV01: kick.wav\r\n#WAV02: snare.wav\r\n#AVI01: bga.avi\r\n"
	path := writeFile(t, filepath.Join(pkg, "ext.dtx"), content)
	writeFile(t, filepath.Join(pkg, "snare.wav"), "x")
	writeFile(t, filepath.Join(pkg, "other.wav"), "x")
	env, log, _ := newTestEnv(&scriptedChooser{})

	problems := LoadChart(path, pkg, env).FindAndRepairProblems(false)

	require.Len(t, problems, 2)
	assert.Equal(t, "#AVI01", problems[0].Property)
	assert.Equal(t, "#WAV01", problems[1].Property)
	for _, p := range problems {
		assert.Equal(t, model.ActionMissing, p.Action)
	}
	assert.Equal(t, 2, log.Counts().Warn)
	assert.Equal(t, content, readFile(t, path))
	assert.True(t, exists(filepath.Join(pkg, "other.wav")))
}
