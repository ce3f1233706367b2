package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xxxsen/dtxorg/internal/model"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	s.now = func() time.Time { return time.Unix(1700000000, 0) }
	return s
}

func TestRecordAndList(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	require.NoError(t, s.Record(ctx, nil))
	require.NoError(t, s.Record(ctx, []model.Problem{
		{File: "/lib/a/SET.def", Property: "#L2FILE", Value: "b.dtx", Action: model.ActionRemoved},
		{File: "/lib/a/a.dtx", Property: "#PREVIEW", Value: "pre.ogg", Action: model.ActionRebound, NewValue: "snd/pre.ogg"},
	}))
	require.NoError(t, s.Record(ctx, []model.Problem{
		{File: "/lib/b/b.dtx", Property: "#WAV01", Value: "kick.wav", Action: model.ActionKept},
	}))

	all, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "/lib/b/b.dtx", all[0].File)
	assert.Equal(t, model.ActionKept, all[0].Action)
	assert.Equal(t, "snd/pre.ogg", all[1].NewValue)
	assert.Equal(t, int64(1700000000), all[1].CreateTime)
	assert.Greater(t, all[0].ID, all[1].ID)

	latest, err := s.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, all[0].ID, latest[0].ID)
	assert.Equal(t, all[1].ID, latest[1].ID)
}

func TestDeleteByIDs(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	require.NoError(t, s.Record(ctx, []model.Problem{
		{File: "x", Property: "#PREVIEW", Value: "a.ogg", Action: model.ActionRemoved},
		{File: "y", Property: "#PREVIEW", Value: "b.ogg", Action: model.ActionRemoved},
		{File: "z", Property: "#PREVIEW", Value: "c.ogg", Action: model.ActionRemoved},
	}))
	all, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)

	require.NoError(t, s.DeleteByIDs(ctx, nil))
	require.NoError(t, s.DeleteByIDs(ctx, []int64{all[0].ID, all[2].ID}))

	left, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "y", left[0].File)
}

func TestReopenKeepsEntries(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "journal.db")
	s, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Record(ctx, []model.Problem{{File: "x", Property: "#PREIMAGE", Value: "a.png", Action: model.ActionRemoved}}))
	require.NoError(t, s.Close())

	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	entries, err := s.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
