package scenario

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bascanada/alacod-sub000/navigation"
	"github.com/bascanada/alacod-sub000/sim"
	"github.com/bascanada/alacod-sub000/vmath"
)

const small = `; tiny room

#####
#P.E#
#.W.#
#####

`

func build(t *testing.T, text string) *Scenario {
	t.Helper()
	lvl, err := Parse("test", strings.NewReader(text))
	require.NoError(t, err)
	sc, err := lvl.Build(sim.DefaultRules(), 7)
	require.NoError(t, err)
	return sc
}

func TestParseSkipsCommentsAndTrailingBlank(t *testing.T) {
	lvl, err := Parse("test", strings.NewReader(small))
	require.NoError(t, err)
	assert.Equal(t, 4, lvl.Height())
	assert.Equal(t, 5, lvl.Width())
}

func TestParseErrors(t *testing.T) {
	_, err := Parse("bad", strings.NewReader("###\n#X#\n"))
	require.ErrorIs(t, err, ErrUnknownTile)
	assert.Contains(t, err.Error(), "bad:2:2")

	_, err = Parse("empty", strings.NewReader("; only a comment\n\n"))
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestBuildPlacesTilesWithYFlip(t *testing.T) {
	sc := build(t, small)
	cs := sc.World.Rules.Navigation.CellSize

	assert.Equal(t, 14, sc.World.StaticWalls.Len())
	assert.True(t, sc.World.StaticWalls.Contains(navigation.Cell(-2, 1)), "top-left corner")
	assert.True(t, sc.World.StaticWalls.Contains(navigation.Cell(2, -2)), "bottom-right corner")

	require.Equal(t, 1, sc.Players)
	require.Len(t, sc.State.Players, 1)
	assert.Equal(t, navigation.Cell(-1, 0).Center(cs), sc.State.Players[0].Pos)
	assert.Equal(t, 0, sc.State.Players[0].Handle)

	require.Len(t, sc.State.Agents, 1)
	assert.Equal(t, navigation.Cell(1, 0).Center(cs), sc.State.Agents[0].Pos)
	assert.Equal(t, navigation.ProfileGround, sc.State.Agents[0].Profile)

	require.Len(t, sc.State.Obstacles, 1)
	ob := sc.State.Obstacles[0]
	assert.Equal(t, navigation.Cell(0, -1).Center(cs), ob.Pos)
	assert.Equal(t, navigation.ObstacleWindow, ob.State.Type)
}

func TestBuildEnablesProfiles(t *testing.T) {
	sc := build(t, "#######\n#P.F.s#\n#G....#\n#######\n")
	assert.Equal(t,
		[]navigation.Profile{navigation.ProfileGround, navigation.ProfileFlying, navigation.ProfilePhasing},
		sc.World.Rules.Navigation.Profiles)
	require.Len(t, sc.World.SpawnPoints, 1)
	assert.Equal(t, navigation.ProfileFlying, sc.World.SpawnPoints[0].Profile)

	rules := sim.DefaultRules()
	assert.Equal(t, []navigation.Profile{navigation.ProfileGround}, rules.Navigation.Profiles, "caller rules untouched")
}

func TestBuildIsDeterministic(t *testing.T) {
	a := build(t, small)
	b := build(t, small)
	sa, err := a.State.Checksum()
	require.NoError(t, err)
	sb, err := b.State.Checksum()
	require.NoError(t, err)
	assert.Equal(t, sa, sb)
}

func TestBuildErrors(t *testing.T) {
	lvl, err := Parse("noplayers", strings.NewReader("###\n#E#\n###\n"))
	require.NoError(t, err)
	_, err = lvl.Build(sim.DefaultRules(), 1)
	assert.ErrorIs(t, err, ErrNoPlayers)

	lvl, err = Parse("test", strings.NewReader(small))
	require.NoError(t, err)
	rules := sim.DefaultRules()
	rules.Navigation.CellSize = vmath.FromRatio(25, 2)
	_, err = lvl.Build(rules, 1)
	assert.ErrorIs(t, err, ErrFractionCell)

	rules = sim.DefaultRules()
	rules.Navigation.Connectivity = 5
	_, err = lvl.Build(rules, 1)
	assert.True(t, errors.Is(err, navigation.ErrInvalidParams))
}

func TestOpen(t *testing.T) {
	lvl, err := Open("")
	require.NoError(t, err)
	assert.Equal(t, "arena", lvl.Name)
	sc, err := lvl.Build(sim.DefaultRules(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, sc.Players)
	assert.Len(t, sc.World.SpawnPoints, 4)

	path := filepath.Join(t.TempDir(), "room.txt")
	require.NoError(t, os.WriteFile(path, []byte(small), 0o600))
	lvl, err = Open(path)
	require.NoError(t, err)
	assert.Equal(t, 4, lvl.Height())

	_, err = Builtin("missing")
	assert.Error(t, err)
	_, err = Open(filepath.Join(t.TempDir(), "absent.txt"))
	assert.Error(t, err)
}

func TestBuiltinArenaRuns(t *testing.T) {
	lvl, err := Builtin("arena")
	require.NoError(t, err)
	sc, err := lvl.Build(sim.DefaultRules(), 3)
	require.NoError(t, err)
	for range 60 {
		sim.AdvanceFrame(sc.World, sc.State, make([]sim.Input, sc.Players))
	}
	assert.Equal(t, uint32(60), sc.State.Frame)
}

func BenchmarkArenaFrame(b *testing.B) {
	lvl, err := Builtin("arena")
	require.NoError(b, err)
	rules := sim.DefaultRules()
	rules.Spawn = sim.SpawnRules{Interval: 30, MaxAgents: 24}
	sc, err := lvl.Build(rules, 1)
	require.NoError(b, err)
	inputs := make([]sim.Input, sc.Players)

	b.ReportAllocs()
	b.ResetTimer()
	for range b.N {
		sim.AdvanceFrame(sc.World, sc.State, inputs)
	}
}
