package app

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xxxsen/dtxorg/internal/config"
	"github.com/xxxsen/dtxorg/internal/journal"
	"github.com/xxxsen/dtxorg/internal/model"
	"github.com/xxxsen/dtxorg/internal/report"
)

func writeLibrary(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", path, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
}

func runCommand(t *testing.T, r IRunner) {
	t.Helper()
	ctx := context.Background()
	if err := r.PreRun(ctx); err != nil {
		t.Fatalf("prerun %s: %v", r.Name(), err)
	}
	if err := r.Run(ctx); err != nil {
		t.Fatalf("run %s: %v", r.Name(), err)
	}
	if err := r.PostRun(ctx); err != nil {
		t.Fatalf("postrun %s: %v", r.Name(), err)
	}
}

func newSession(dir string) (session, *bytes.Buffer) {
	var out bytes.Buffer
	return session{dir: dir, out: &out, log: report.New(zap.NewNop())}, &out
}

func TestRunnerRegistry(t *testing.T) {
	assert.Equal(t, []string{"bucket", "history", "list", "organize", "repair", "scan"}, RunnerList())
	for _, name := range RunnerList() {
		r := MustResolveRunner(name)
		assert.Equal(t, name, r.Name())
		assert.NotEmpty(t, r.Desc())
	}
	_, err := ResolveRunner("nope")
	assert.Error(t, err)
}

func TestOrganize(t *testing.T) {
	root := t.TempDir()
	writeLibrary(t, root, map[string]string{
		"pkg1/set.def":    "#TITLE: First Song\r\n#L1FILE: a.dtx\r\n",
		"pkg1/a.dtx":      "#TITLE: First Song\r\n#DLEVEL: 30\r\n",
		"loose/b.dtx":     "#TITLE: Second Song\r\n#DLEVEL: 20\r\n",
		"broken/c.dtx":    "#ARTIST: nobody\r\n",
		"First Song/keep": "",
	})
	cmd := NewOrganizeCommand()
	var out *bytes.Buffer
	cmd.session, out = newSession(root)
	runCommand(t, cmd)

	_, err := os.Stat(filepath.Join(root, "First Song_2", "set.def"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(root, "Second Song", "SET.def"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(root, "broken", "SET.def"))
	assert.True(t, os.IsNotExist(err))

	counts := cmd.log.Counts()
	// broken has no usable chart and is abandoned
	assert.Equal(t, 2, counts.Error)
	assert.True(t, strings.HasPrefix(out.String(), "finished with: 2 errors"))
}

func TestScanWritesReport(t *testing.T) {
	root := t.TempDir()
	writeLibrary(t, root, map[string]string{
		"song/SET.def":      "#TITLE: Song\r\n#L1FILE: a.dtx\r\n#L2FILE: gone.dtx\r\n",
		"song/a.dtx":        "#TITLE: Song\r\n#PREVIEW: pre.ogg\r\n",
		"[S] Songs/box.def": "#TITLE: [S] Songs\r\n#PREIMAGE: miku.jpg\r\n",
	})
	reportPath := filepath.Join(t.TempDir(), "report.json")
	cmd := NewScanCommand()
	cmd.session, _ = newSession(root)
	cmd.output = reportPath
	runCommand(t, cmd)

	data, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	var got model.ProblemReport
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, 3, got.Count)
	require.Len(t, got.Packages, 2)
	assert.Equal(t, "Song", got.Packages[0].Title)
	assert.Len(t, got.Packages[0].Problems, 2)
	assert.Equal(t, "[S] Songs", got.Packages[1].Title)
	for _, pkg := range got.Packages {
		for _, p := range pkg.Problems {
			assert.Equal(t, model.ActionMissing, p.Action)
		}
	}
	content, err := os.ReadFile(filepath.Join(root, "song", "SET.def"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "#L2FILE: gone.dtx")
}

func TestRepairRecordsJournal(t *testing.T) {
	root := t.TempDir()
	writeLibrary(t, root, map[string]string{
		"song/SET.def":   "#TITLE: Song\r\n#L1LABEL: BASIC\r\n#L1FILE: a.dtx\r\n#L2LABEL: ADVANCED\r\n#L2FILE: gone.dtx\r\n",
		"song/a.dtx":     "#TITLE: Song\r\n#PREIMAGE: jacket.png\r\n",
		"song/cover.png": "png",
	})
	dbPath := filepath.Join(t.TempDir(), "journal.db")
	cmd := NewRepairCommand()
	cmd.session, _ = newSession(root)
	cmd.journalPath = dbPath
	cmd.in = strings.NewReader("")
	runCommand(t, cmd)

	content, err := os.ReadFile(filepath.Join(root, "song", "SET.def"))
	require.NoError(t, err)
	assert.Equal(t, "#TITLE: Song\r\n#L1LABEL: BASIC\r\n#L1FILE: a.dtx\r\n", string(content))
	_, err = os.Stat(filepath.Join(root, "song", "jacket.png"))
	assert.NoError(t, err)

	store, err := journal.Open(context.Background(), dbPath)
	require.NoError(t, err)
	defer store.Close()
	entries, err := store.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, model.ActionRebound, entries[0].Action)
	assert.Equal(t, "#PREIMAGE", entries[0].Property)
	assert.Equal(t, model.ActionRemoved, entries[1].Action)
	assert.Equal(t, "#L2FILE", entries[1].Property)
}

func TestBucket(t *testing.T) {
	root := t.TempDir()
	res := t.TempDir()
	writeLibrary(t, res, map[string]string{
		"box.def":  "#TITLE: template\r\n#PREIMAGE: miku.jpg\r\n",
		"miku.jpg": "jpg",
	})
	writeLibrary(t, root, map[string]string{
		"alpha/SET.def":  "#TITLE: Alpha\r\n",
		"sakura/SET.def": "#TITLE: さくら\r\n",
		"digits/SET.def": "#TITLE: 1984\r\n",
		"noindex/x.dtx":  "#TITLE: x\r\n",
	})
	cfg := config.New()
	cfg.Bucket.CategoryTemplate = filepath.Join(res, "box.def")
	cfg.Bucket.FolderImage = filepath.Join(res, "miku.jpg")
	config.SetDefault(cfg)
	t.Cleanup(func() { config.SetDefault(config.New()) })

	cmd := NewBucketCommand()
	cmd.session, _ = newSession(root)
	runCommand(t, cmd)

	for _, p := range []string{
		"[A] Anime Songs/alpha/SET.def",
		"[A] Anime Songs/box.def",
		"[A] Anime Songs/miku.jpg",
		"[S] Anime Songs/sakura/SET.def",
		"[0-9] Anime Songs/digits/SET.def",
		"[N] Anime Songs/noindex/x.dtx",
	} {
		_, err := os.Stat(filepath.Join(root, filepath.FromSlash(p)))
		assert.NoError(t, err, p)
	}

	// a second run finds everything in place
	again := NewBucketCommand()
	again.session, _ = newSession(root)
	runCommand(t, again)
	assert.Equal(t, 0, again.log.Counts().Error)
	_, err := os.Stat(filepath.Join(root, "[A] Anime Songs", "alpha_2"))
	assert.True(t, os.IsNotExist(err))
}

func TestHistoryPrune(t *testing.T) {
	dir := t.TempDir()
	kept := filepath.Join(dir, "kept.dtx")
	writeLibrary(t, dir, map[string]string{"kept.dtx": "#TITLE: k\r\n"})
	dbPath := filepath.Join(dir, "journal.db")
	store, err := journal.Open(context.Background(), dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Record(context.Background(), []model.Problem{
		{File: kept, Property: "#PREVIEW", Value: "a.ogg", Action: model.ActionRemoved},
		{File: filepath.Join(dir, "gone.dtx"), Property: "#PREVIEW", Value: "b.ogg", Action: model.ActionRemoved},
	}))
	require.NoError(t, store.Close())

	dry := NewHistoryCommand()
	dry.journalPath = dbPath
	dry.prune = true
	dry.out = &bytes.Buffer{}
	runCommand(t, dry)

	wet := NewHistoryCommand()
	wet.journalPath = dbPath
	wet.prune = true
	wet.dryRun = false
	wet.out = &bytes.Buffer{}
	runCommand(t, wet)

	var out bytes.Buffer
	list := NewHistoryCommand()
	list.journalPath = dbPath
	list.out = &out
	runCommand(t, list)
	assert.Contains(t, out.String(), kept)
	assert.NotContains(t, out.String(), "gone.dtx")
}
