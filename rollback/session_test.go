package rollback

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bascanada/alacod-sub000/navigation"
	"github.com/bascanada/alacod-sub000/physics"
	"github.com/bascanada/alacod-sub000/sim"
	"github.com/bascanada/alacod-sub000/telemetry"
	"github.com/bascanada/alacod-sub000/vmath"
)

func testWorld(t *testing.T, players int) (*sim.World, *sim.State) {
	t.Helper()
	rules := sim.DefaultRules()
	rules.Navigation.MaxRadius = 10
	rules.Spawn = sim.SpawnRules{Interval: 30, MaxAgents: 4}

	w, err := sim.NewWorld(rules)
	require.NoError(t, err)
	cs := rules.Navigation.CellSize
	for x := -8; x <= 8; x++ {
		w.AddWallCells(navigation.Cell(x, -5), navigation.Cell(x, 5))
	}
	for y := -4; y <= 4; y++ {
		w.AddWallCells(navigation.Cell(-8, y), navigation.Cell(8, y))
	}
	w.AddSpawnPoint(navigation.Cell(-6, 3).Center(cs), navigation.ProfileGround)
	w.AddSpawnPoint(navigation.Cell(6, -3).Center(cs), navigation.ProfileFlying)

	s := sim.NewState(11)
	for p := 0; p < players; p++ {
		s.SpawnPlayer(p, navigation.Cell(p*2, 0).Center(cs), rules.Player)
	}
	s.AddObstacle(navigation.Cell(3, 2).Center(cs), physics.Rect(cs, cs), navigation.NewObstacle(navigation.ObstacleWindow))
	s.SpawnAgent(navigation.Cell(-5, -2).Center(cs), navigation.ProfileGround, rules.Agent)
	return w, s
}

// inputStream holds frames below delay at zero, as the session does
func inputStream(seed uint64, frames int, delay uint32) []sim.Input {
	rng := vmath.NewRand(seed)
	out := make([]sim.Input, frames)
	var cur sim.Input
	for f := range out {
		if f >= int(delay) && rng.Intn(6) == 0 {
			cur = sim.Input{Buttons: sim.Buttons(rng.Intn(64))}
		}
		out[f] = cur
	}
	return out
}

type recorder struct{ got []DesyncError }

func (r *recorder) ReportDesync(_ context.Context, e DesyncError) error {
	r.got = append(r.got, e)
	return nil
}

func newMetrics() *telemetry.Metrics { return telemetry.NewMetrics(prometheus.NewRegistry()) }

func TestRollbackMatchesConfirmedRun(t *testing.T) {
	const frames = 180
	const lag = 4
	ctx := context.Background()

	cfg := DefaultConfig()
	cfg.ChecksumInterval = 10
	cfg.ChecksumHistory = 64
	delay := int(cfg.InputDelay)

	w, initial := testWorld(t, 2)
	ref := initial.Clone()
	m := newMetrics()
	sess, err := New(w, initial, cfg, WithMetrics(m))
	require.NoError(t, err)

	truth := [2][]sim.Input{
		inputStream(1, frames+delay+1, cfg.InputDelay),
		inputStream(2, frames+delay+1, cfg.InputDelay),
	}
	deliver := func(through int) {
		for int(sess.next[1]) <= through {
			f := sess.next[1]
			require.NoError(t, sess.AddRemoteInput(1, f, truth[1][f]))
		}
	}

	for f := 0; f < frames; f++ {
		got, err := sess.AddLocalInput(0, truth[0][f+delay])
		require.NoError(t, err)
		require.Equal(t, uint32(f+delay), got)
		deliver(f + delay - lag)
		_, err = sess.AdvanceFrame(ctx)
		require.NoError(t, err, "frame %d", f)
	}
	_, err = sess.AddLocalInput(0, truth[0][frames+delay])
	require.NoError(t, err)
	deliver(frames + delay)
	_, err = sess.AdvanceFrame(ctx)
	require.NoError(t, err)

	want := make(map[uint32]sim.Checksum)
	for f := 0; f <= frames; f++ {
		if f%int(cfg.ChecksumInterval) == 0 {
			data, err := ref.Save()
			require.NoError(t, err)
			want[uint32(f)] = sim.Sum(data)
		}
		sim.AdvanceFrame(w, ref, []sim.Input{truth[0][f], truth[1][f]})
	}

	for f, sum := range want {
		got, ok := sess.Checksum(f)
		require.True(t, ok, "frame %d", f)
		assert.Equal(t, sum, got, "frame %d", f)
	}
	refSum, err := ref.Checksum()
	require.NoError(t, err)
	gotSum, err := sess.State().Checksum()
	require.NoError(t, err)
	assert.Equal(t, refSum, gotSum)

	emitted := sess.TakeChecksums()
	require.Len(t, emitted, len(want))
	for i, c := range emitted {
		assert.Equal(t, uint32(i)*cfg.ChecksumInterval, c.Frame)
	}
	assert.Empty(t, sess.TakeChecksums())

	assert.Positive(t, testutil.ToFloat64(m.Rollbacks))
	assert.GreaterOrEqual(t, testutil.ToFloat64(m.Resimulated), testutil.ToFloat64(m.Rollbacks))
	assert.Equal(t, float64(frames+1), testutil.ToFloat64(m.Frame))
}

func TestPredictionThreshold(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	w, initial := testWorld(t, 2)
	sess, err := New(w, initial, cfg)
	require.NoError(t, err)

	advanced := 0
	for {
		_, err := sess.AddLocalInput(0, sim.Input{})
		require.NoError(t, err)
		if _, err := sess.AdvanceFrame(ctx); err != nil {
			require.ErrorIs(t, err, ErrPredictionThreshold)
			break
		}
		advanced++
	}
	assert.Equal(t, int(cfg.InputDelay+cfg.MaxPrediction), advanced)
	assert.Equal(t, cfg.InputDelay, sess.ConfirmedFrame())

	assert.ErrorIs(t, sess.AddRemoteInput(1, cfg.InputDelay+1, sim.Input{}), ErrInputGap)
	require.NoError(t, sess.AddRemoteInput(1, cfg.InputDelay, sim.Input{}))
	require.NoError(t, sess.AddRemoteInput(1, cfg.InputDelay, sim.Input{Buttons: sim.ButtonUp}), "duplicate ignored")
	_, err = sess.AdvanceFrame(ctx)
	assert.NoError(t, err)

	assert.ErrorIs(t, sess.AddRemoteInput(5, 0, sim.Input{}), ErrInvalidPlayer)
}

func TestRemoteInputBeyondWindow(t *testing.T) {
	cfg := DefaultConfig()
	w, initial := testWorld(t, 2)
	m := newMetrics()
	sess, err := New(w, initial, cfg, WithMetrics(m))
	require.NoError(t, err)

	limit := cfg.InputDelay + cfg.MaxPrediction
	for f := cfg.InputDelay; f < limit; f++ {
		require.NoError(t, sess.AddRemoteInput(1, f, sim.Input{}))
	}
	assert.ErrorIs(t, sess.AddRemoteInput(1, limit, sim.Input{}), ErrPredictionThreshold)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Rejected))
}

func TestLocalInputOncePerFrame(t *testing.T) {
	w, initial := testWorld(t, 1)
	sess, err := New(w, initial, DefaultConfig())
	require.NoError(t, err)

	_, err = sess.AddLocalInput(0, sim.Input{})
	require.NoError(t, err)
	_, err = sess.AddLocalInput(0, sim.Input{})
	assert.ErrorIs(t, err, ErrInputGap)
}

func runLocal(t *testing.T, sess *Session, inputs []sim.Input) error {
	t.Helper()
	for _, in := range inputs {
		if _, err := sess.AddLocalInput(0, in); err != nil {
			return err
		}
		if _, err := sess.AdvanceFrame(context.Background()); err != nil {
			return err
		}
	}
	return nil
}

func TestSyncTest(t *testing.T) {
	const frames = 90
	cfg := DefaultConfig()
	cfg.Players = 1
	cfg.CheckDistance = 3

	w, initial := testWorld(t, 1)
	ref := initial.Clone()
	m := newMetrics()
	sess, err := New(w, initial, cfg, WithMetrics(m))
	require.NoError(t, err)

	inputs := inputStream(5, frames+int(cfg.InputDelay), cfg.InputDelay)
	require.NoError(t, runLocal(t, sess, inputs[cfg.InputDelay:]))
	assert.Equal(t, float64(3*(frames-2)), testutil.ToFloat64(m.Resimulated))
	assert.Zero(t, testutil.ToFloat64(m.Desyncs))

	for f := 0; f < frames; f++ {
		sim.AdvanceFrame(w, ref, inputs[f:f+1])
	}
	want, err := ref.Checksum()
	require.NoError(t, err)
	got, err := sess.State().Checksum()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSyncTestCatchesDivergence(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Players = 1
	cfg.CheckDistance = 3

	w, initial := testWorld(t, 1)
	rec := &recorder{}
	m := newMetrics()
	sess, err := New(w, initial, cfg, WithReporter(rec), WithMetrics(m))
	require.NoError(t, err)
	require.NoError(t, runLocal(t, sess, make([]sim.Input, 10)))

	// Corrupt the snapshot the next sync test replays from
	replayFrom := sess.Frame() + 1 - cfg.CheckDistance
	snap := &sess.snapshots[replayFrom%uint32(len(sess.snapshots))]
	require.Equal(t, replayFrom, snap.frame)
	st, err := sim.Load(snap.data)
	require.NoError(t, err)
	st.Players[0].Pos.X = st.Players[0].Pos.X.Add(vmath.One)
	snap.data, err = st.Save()
	require.NoError(t, err)

	_, err = sess.AddLocalInput(0, sim.Input{})
	require.NoError(t, err)
	_, err = sess.AdvanceFrame(context.Background())
	var desync *DesyncError
	require.True(t, errors.As(err, &desync))
	assert.Equal(t, SyncTestPeer, desync.Peer)
	assert.Equal(t, uint32(11), desync.Frame)
	assert.NotEqual(t, desync.Local, desync.Remote)
	require.Len(t, rec.got, 1)
	assert.Equal(t, *desync, rec.got[0])
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Desyncs))

	_, err = sess.AdvanceFrame(context.Background())
	assert.ErrorIs(t, err, ErrDesynced)
	_, err = sess.AddLocalInput(0, sim.Input{})
	assert.ErrorIs(t, err, ErrDesynced)
	assert.ErrorIs(t, sess.Desynced(), ErrDesynced)
}

func TestReportRemoteChecksum(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.Players = 1
	cfg.ChecksumInterval = 10

	w, initial := testWorld(t, 1)
	rec := &recorder{}
	sess, err := New(w, initial, cfg, WithReporter(rec))
	require.NoError(t, err)
	require.NoError(t, runLocal(t, sess, make([]sim.Input, 25)))

	emitted := sess.TakeChecksums()
	require.Len(t, emitted, 3)
	assert.Equal(t, []uint32{0, 10, 20}, []uint32{emitted[0].Frame, emitted[1].Frame, emitted[2].Frame})

	assert.NoError(t, sess.ReportRemoteChecksum(ctx, 2, 10, emitted[1].Sum))
	assert.NoError(t, sess.ReportRemoteChecksum(ctx, 2, 13, sim.Checksum{1}), "off-interval frames ignored")
	assert.Nil(t, sess.Desynced())

	bad := sim.Checksum{0xde, 0xad}
	err = sess.ReportRemoteChecksum(ctx, 2, 20, bad)
	var desync *DesyncError
	require.True(t, errors.As(err, &desync))
	assert.Equal(t, DesyncError{Frame: 20, Local: emitted[2].Sum, Remote: bad, Peer: 2}, *desync)
	assert.Equal(t, []DesyncError{*desync}, rec.got)

	_, err = sess.AdvanceFrame(ctx)
	assert.ErrorIs(t, err, ErrDesynced)
}

func TestQueuedRemoteChecksum(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.Players = 1
	cfg.ChecksumInterval = 10

	w, initial := testWorld(t, 1)
	sess, err := New(w, initial, cfg)
	require.NoError(t, err)
	require.NoError(t, runLocal(t, sess, make([]sim.Input, 25)))

	require.NoError(t, sess.ReportRemoteChecksum(ctx, 1, 30, sim.Checksum{7}))
	require.NoError(t, runLocal(t, sess, make([]sim.Input, 5)))
	assert.Equal(t, uint32(30), sess.Frame())

	err = runLocal(t, sess, make([]sim.Input, 1))
	var desync *DesyncError
	require.True(t, errors.As(err, &desync))
	assert.Equal(t, uint32(30), desync.Frame)
	assert.Equal(t, 1, desync.Peer)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.Players = 0
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = DefaultConfig()
	cfg.ChecksumInterval = 0
	_, err := New(nil, sim.NewState(1), cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
