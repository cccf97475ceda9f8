package store

import (
	"context"
	"io/fs"
	"math"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bascanada/alacod-sub000/rollback"
	"github.com/bascanada/alacod-sub000/sim"
	"github.com/bascanada/alacod-sub000/store/migrations"
)

func TestMigrationsEmbedded(t *testing.T) {
	files, err := fs.Glob(migrations.FS, "*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)
	for _, f := range files {
		body, err := fs.ReadFile(migrations.FS, f)
		require.NoError(t, err)
		assert.Contains(t, string(body), "-- +goose Up", f)
		assert.Contains(t, string(body), "-- +goose Down", f)
	}

	// Frames are uint32 and must not overflow a signed 32-bit column
	body, err := fs.ReadFile(migrations.FS, files[len(files)-1])
	require.NoError(t, err)
	assert.Contains(t, string(body), "frame_checksums ALTER COLUMN frame TYPE BIGINT")
	assert.Contains(t, string(body), "desyncs ALTER COLUMN frame TYPE BIGINT")
}

func TestCopySum(t *testing.T) {
	want := sim.Sum([]byte("x"))
	var got sim.Checksum
	require.NoError(t, copySum(&got, want[:]))
	assert.Equal(t, want, got)
	assert.Error(t, copySum(&got, want[:4]))
}

// testStore connects to SIMCORE_TEST_DSN, skipping when unset
func testStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("SIMCORE_TEST_DSN")
	if dsn == "" {
		t.Skip("SIMCORE_TEST_DSN not set")
	}
	ctx := context.Background()
	require.NoError(t, RunMigrations(ctx, dsn))
	s, err := New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestMatchArchive(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	m, err := s.StartMatch(ctx, "arena", 1<<63+5, 2)
	require.NoError(t, err)

	sums := []rollback.FrameChecksum{
		{Frame: 0, Sum: sim.Sum([]byte("a"))},
		{Frame: 30, Sum: sim.Sum([]byte("b"))},
		{Frame: math.MaxUint32, Sum: sim.Sum([]byte("c"))},
	}
	require.NoError(t, m.RecordChecksums(ctx, sums))
	require.NoError(t, m.RecordChecksums(ctx, sums[1:]), "duplicate frames are ignored")
	require.NoError(t, m.RecordChecksums(ctx, nil))

	got, err := m.Checksums(ctx)
	require.NoError(t, err)
	assert.Equal(t, sums, got)

	desync := rollback.DesyncError{Frame: math.MaxUint32, Local: sums[1].Sum, Remote: sums[0].Sum, Peer: 1}
	require.NoError(t, m.ReportDesync(ctx, desync))
	ds, err := m.Desyncs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []rollback.DesyncError{desync}, ds)
}
