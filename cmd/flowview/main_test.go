package main

import (
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bascanada/alacod-sub000/navigation"
	"github.com/bascanada/alacod-sub000/scenario"
	"github.com/bascanada/alacod-sub000/sim"
)

const level = `
#########
#P......#
#...W...#
#~~...E.#
#########
`

func testViewer(t *testing.T) *Viewer {
	t.Helper()
	lvl, err := scenario.Parse("level", strings.NewReader(level))
	require.NoError(t, err)
	sc, err := lvl.Build(sim.DefaultRules(), 1)
	require.NoError(t, err)
	return NewViewer(sc, navigation.ProfileGround)
}

func TestArrowGlyph(t *testing.T) {
	assert.Equal(t, ' ', arrowGlyph(navigation.DirNone))
	assert.Equal(t, '◎', arrowGlyph(navigation.DirTarget))
	seen := map[rune]bool{}
	for d := int8(0); d < navigation.DirCount; d++ {
		seen[arrowGlyph(d)] = true
	}
	assert.Len(t, seen, 8, "each direction has its own arrow")
	assert.Equal(t, '0', costGlyph(0))
	assert.Equal(t, 'z', costGlyph(35))
	assert.Equal(t, '0', costGlyph(36))
}

func TestToScreenFlipsY(t *testing.T) {
	c := navigation.Cell(0, 0)
	x, y := toScreen(c, c, 80, 24)
	assert.Equal(t, 40, x)
	assert.Equal(t, 12, y)
	x, y = toScreen(navigation.Cell(2, 3), c, 80, 24)
	assert.Equal(t, 44, x)
	assert.Equal(t, 9, y)
}

func TestViewerStartsOnPlayer(t *testing.T) {
	v := testViewer(t)
	cs := v.sc.World.Rules.Navigation.CellSize
	assert.Equal(t, navigation.CellAt(v.sc.State.Players[0].Pos, cs), v.target)
	assert.Equal(t, navigation.DirTarget, v.field.Direction(v.target))
	assert.Positive(t, v.stats.CellsProcessed)
	assert.Equal(t, 1, v.blocked.Of(navigation.ObstacleWindow).Len())
}

func TestHandleKey(t *testing.T) {
	v := testViewer(t)
	start := v.target

	assert.True(t, v.handleKey(tcell.NewEventKey(tcell.KeyRune, 'l', tcell.ModNone)))
	assert.Equal(t, start.Add(1, 0), v.target)
	assert.Equal(t, navigation.DirTarget, v.field.Direction(v.target), "field follows the target")

	assert.True(t, v.handleKey(tcell.NewEventKey(tcell.KeyDown, 0, tcell.ModNone)))
	assert.Equal(t, start.Add(1, -1), v.target)

	assert.True(t, v.handleKey(tcell.NewEventKey(tcell.KeyTab, 0, tcell.ModNone)))
	assert.Equal(t, navigation.ProfileGroundBreaker, v.current())
	assert.Equal(t, navigation.ProfileGroundBreaker, v.field.Profile)

	assert.True(t, v.handleKey(tcell.NewEventKey(tcell.KeyRune, 'c', tcell.ModNone)))
	assert.True(t, v.showCost)

	assert.False(t, v.handleKey(tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone)))
	assert.False(t, v.handleKey(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)))
}

func TestStepAdvancesState(t *testing.T) {
	v := testViewer(t)
	v.step()
	v.step()
	assert.Equal(t, uint32(2), v.sc.State.Frame)
}

func TestDraw(t *testing.T) {
	v := testViewer(t)
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	defer screen.Fini()
	screen.SetSize(80, 25)
	v.screen = screen
	v.width, v.height = 80, 25
	v.target = navigation.Cell(-1, 0)
	v.rebuild()

	v.draw()
	cells, w, _ := screen.GetContents()
	at := func(x, y int) rune {
		r := cells[y*w+x].Runes
		if len(r) == 0 {
			return 0
		}
		return r[0]
	}
	cx, cy := toScreen(v.target, navigation.Cell(0, 0), 80, 24)
	assert.Equal(t, '◎', at(cx, cy))

	wall, _ := toScreen(navigation.Cell(-4, 0), navigation.Cell(0, 0), 80, 24)
	assert.Equal(t, '█', at(wall, cy), "left wall column")

	status := make([]rune, 0, 10)
	for x := 1; x < 11; x++ {
		status = append(status, at(x, 24))
	}
	assert.Equal(t, "ground  ta", string(status))
}

func TestWritePNG(t *testing.T) {
	v := testViewer(t)
	path := filepath.Join(t.TempDir(), "field.png")
	require.NoError(t, writePNG(v, path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Positive(t, img.Bounds().Dx())
}
