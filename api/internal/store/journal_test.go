package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSQLite(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(context.Background(), "sqlite", filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestRebind(t *testing.T) {
	pg := &Journal{driver: "postgres"}
	assert.Equal(t, "a = $1 and b = $2", pg.rebind("a = ? and b = ?"))
	lite := &Journal{driver: "sqlite"}
	assert.Equal(t, "a = ?", lite.rebind("a = ?"))
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "x")
	assert.ErrorContains(t, err, "unknown journal driver")
}

func TestJournal_RecordRecentPurge(t *testing.T) {
	ctx := context.Background()
	j := openSQLite(t)

	old := Run{Kind: KindPoster, Status: StatusError, ErrorKind: "upstream_call", Latency: 2 * time.Second,
		CreatedAt: time.Now().UTC().Add(-48 * time.Hour)}
	require.NoError(t, j.Record(ctx, old))
	require.NoError(t, j.Record(ctx, Run{Kind: KindAnalysis, Status: StatusOK, LLM: "gemini", Latency: 150 * time.Millisecond}))

	runs, err := j.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, KindAnalysis, runs[0].Kind)
	assert.Equal(t, "gemini", runs[0].LLM)
	assert.Equal(t, 150*time.Millisecond, runs[0].Latency)
	assert.NotEmpty(t, runs[0].ID)
	assert.Equal(t, "upstream_call", runs[1].ErrorKind)

	n, err := j.PurgeOlderThan(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	runs, err = j.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)

	_, err = j.PurgeOlderThan(ctx, 0)
	assert.Error(t, err)
}
