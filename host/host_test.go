package host

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bascanada/alacod-sub000/debugserver"
	"github.com/bascanada/alacod-sub000/rollback"
	"github.com/bascanada/alacod-sub000/scenario"
	"github.com/bascanada/alacod-sub000/sim"
	"github.com/bascanada/alacod-sub000/telemetry"
)

const room = `
#########
#P.....P#
#...E...#
#S.....S#
#########
`

func testScenario(t *testing.T) *scenario.Scenario {
	t.Helper()
	lvl, err := scenario.Parse("room", strings.NewReader(room))
	require.NoError(t, err)
	rules := sim.DefaultRules()
	rules.Spawn = sim.SpawnRules{Interval: 40, MaxAgents: 4}
	sc, err := lvl.Build(rules, 5)
	require.NoError(t, err)
	return sc
}

func sessionConfig(players int) rollback.Config {
	cfg := rollback.DefaultConfig()
	cfg.Players = players
	cfg.ChecksumInterval = 10
	cfg.ChecksumHistory = 32
	return cfg
}

type archive struct {
	mu   sync.Mutex
	sums []rollback.FrameChecksum
}

func (a *archive) RecordChecksums(_ context.Context, sums []rollback.FrameChecksum) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sums = append(a.sums, sums...)
	return nil
}

type desyncs struct{ got []rollback.DesyncError }

func (d *desyncs) ReportDesync(_ context.Context, e rollback.DesyncError) error {
	d.got = append(d.got, e)
	return nil
}

func TestPeersAgreeUnderLag(t *testing.T) {
	sc := testScenario(t)
	m := telemetry.NewMetrics(prometheus.NewRegistry())
	h, err := New(sc.World, sc.State, sessionConfig(sc.Players), Config{Lag: 5, PublishInterval: 1}, 9, m, nil)
	require.NoError(t, err)
	require.Equal(t, 2, h.Peers())

	ctx := context.Background()
	for range 200 {
		require.NoError(t, h.Step(ctx))
	}

	a, b := h.Peer(0), h.Peer(1)
	assert.Equal(t, uint32(200), a.Frame())
	assert.Equal(t, uint32(200), b.Frame())
	assert.Greater(t, testutil.ToFloat64(m.Rollbacks), 0.0, "lag beyond the input delay forces rollbacks")

	compared := 0
	for f := uint32(0); f < 200; f += 10 {
		sa, okA := a.Checksum(f)
		sb, okB := b.Checksum(f)
		if okA && okB {
			assert.Equal(t, sa, sb, "frame %d", f)
			compared++
		}
	}
	assert.Greater(t, compared, 10)
	assert.NoError(t, a.Desynced())
	assert.NoError(t, b.Desynced())
}

func TestLagWithinDelayNeverRollsBack(t *testing.T) {
	sc := testScenario(t)
	m := telemetry.NewMetrics(prometheus.NewRegistry())
	cfg := sessionConfig(sc.Players)
	h, err := New(sc.World, sc.State, cfg, Config{Lag: cfg.InputDelay, PublishInterval: 1}, 9, m, nil)
	require.NoError(t, err)
	for range 60 {
		require.NoError(t, h.Step(context.Background()))
	}
	assert.Zero(t, testutil.ToFloat64(m.Rollbacks))
}

func TestPublishesViewAndChecksums(t *testing.T) {
	sc := testScenario(t)
	hub := debugserver.NewHub()
	arch := &archive{}
	h, err := New(sc.World, sc.State, sessionConfig(sc.Players), DefaultConfig(), 1, nil, nil,
		WithHub(hub), WithArchive(arch))
	require.NoError(t, err)

	require.NoError(t, h.Run(context.Background(), 90, 0))

	v := hub.View()
	require.NotNil(t, v)
	assert.Zero(t, v.Frame%DefaultConfig().PublishInterval)
	assert.NotEmpty(t, v.Entities)

	require.NotEmpty(t, arch.sums)
	for i, c := range arch.sums {
		assert.Equal(t, uint32(i*10), c.Frame)
		want, ok := h.Peer(0).Checksum(c.Frame)
		if ok {
			assert.Equal(t, want, c.Sum)
		}
	}
}

func TestTamperedPeerDesyncs(t *testing.T) {
	sc := testScenario(t)
	rep := &desyncs{}
	h, err := New(sc.World, sc.State, sessionConfig(sc.Players), Config{Lag: 0, PublishInterval: 1}, 3, nil,
		[]rollback.Option{rollback.WithReporter(rep)})
	require.NoError(t, err)

	ctx := context.Background()
	for range 5 {
		require.NoError(t, h.Step(ctx))
	}
	h.Peer(1).State().Players[0].Health--

	var stepErr error
	for range 60 {
		if stepErr = h.Step(ctx); stepErr != nil {
			break
		}
	}
	require.Error(t, stepErr)
	assert.True(t, errors.Is(stepErr, rollback.ErrDesynced))

	var de *rollback.DesyncError
	require.True(t, errors.As(stepErr, &de))
	assert.Equal(t, uint32(10), de.Frame)
	require.NotEmpty(t, rep.got)
	assert.Equal(t, uint32(10), rep.got[0].Frame)
}

func TestRunStopsOnCancel(t *testing.T) {
	sc := testScenario(t)
	h, err := New(sc.World, sc.State, sessionConfig(sc.Players), DefaultConfig(), 1, nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.NoError(t, h.Run(ctx, 0, time.Millisecond))
	assert.Greater(t, h.Peer(0).Frame(), uint32(0))
}

func TestConfigValidate(t *testing.T) {
	session := rollback.DefaultConfig()
	assert.NoError(t, DefaultConfig().Validate(session))
	assert.ErrorIs(t, Config{Lag: session.MaxPrediction + 1, PublishInterval: 1}.Validate(session), ErrInvalidConfig)
	assert.ErrorIs(t, Config{Lag: 1}.Validate(session), ErrInvalidConfig)
}

func TestBotIsDeterministic(t *testing.T) {
	a, b, other := NewBot(7, 0), NewBot(7, 0), NewBot(7, 1)
	same, differ := true, false
	for range 500 {
		x, y, z := a.Next(), b.Next(), other.Next()
		same = same && x == y
		differ = differ || x != z
	}
	assert.True(t, same)
	assert.True(t, differ)
}
