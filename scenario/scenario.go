// Package scenario builds a world and its initial state from an ASCII level
package scenario

import (
	"bufio"
	"embed"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/bascanada/alacod-sub000/navigation"
	"github.com/bascanada/alacod-sub000/physics"
	"github.com/bascanada/alacod-sub000/sim"
)

//go:embed arenas/*.txt
var arenas embed.FS

var (
	ErrUnknownTile  = errors.New("unknown tile")
	ErrNoPlayers    = errors.New("scenario has no players")
	ErrEmpty        = errors.New("scenario is empty")
	ErrFractionCell = errors.New("cell size must be a whole number for tile levels")
)

// Tile legend. Lines starting with ';' are comments.
const (
	TileFloor      = '.'
	TileWall       = '#'
	TileWindow     = 'W'
	TileBarricade  = 'B'
	TileWater      = '~'
	TilePit        = 'O'
	TileLowCover   = 'c'
	TilePlayer     = 'P'
	TileGround     = 'E'
	TileBreaker    = 'K'
	TileFlying     = 'F'
	TilePhasing    = 'G'
	TileSpawn      = 'S'
	TileFlyerSpawn = 's'
)

var obstacleTiles = map[rune]navigation.ObstacleType{
	TileWindow:    navigation.ObstacleWindow,
	TileBarricade: navigation.ObstacleBarricade,
	TileWater:     navigation.ObstacleWater,
	TilePit:       navigation.ObstaclePit,
	TileLowCover:  navigation.ObstacleLowCover,
}

var agentTiles = map[rune]navigation.Profile{
	TileGround:  navigation.ProfileGround,
	TileBreaker: navigation.ProfileGroundBreaker,
	TileFlying:  navigation.ProfileFlying,
	TilePhasing: navigation.ProfilePhasing,
}

var spawnTiles = map[rune]navigation.Profile{
	TileSpawn:      navigation.ProfileGround,
	TileFlyerSpawn: navigation.ProfileFlying,
}

// Level is a parsed tile grid, row 0 at the top
type Level struct {
	Name string
	Rows []string
}

// Width is the longest row; short rows are padded with floor
func (l Level) Width() int {
	w := 0
	for _, r := range l.Rows {
		w = max(w, len([]rune(r)))
	}
	return w
}

func (l Level) Height() int { return len(l.Rows) }

func (l Level) at(tx, ty int) rune {
	row := []rune(l.Rows[ty])
	if tx >= len(row) {
		return TileFloor
	}
	return row[tx]
}

// Parse reads a level and rejects unknown tiles with their position. Blank
// lines around the grid are dropped.
func Parse(name string, r io.Reader) (Level, error) {
	lvl := Level{Name: name}
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimRight(sc.Text(), " \t\r")
		if strings.HasPrefix(text, ";") || (text == "" && len(lvl.Rows) == 0) {
			continue
		}
		for col, ch := range []rune(text) {
			if !known(ch) {
				return Level{}, fmt.Errorf("%s:%d:%d: %w %q", name, line, col+1, ErrUnknownTile, ch)
			}
		}
		lvl.Rows = append(lvl.Rows, text)
	}
	if err := sc.Err(); err != nil {
		return Level{}, fmt.Errorf("reading %s: %w", name, err)
	}

	// trailing blank lines are not part of the grid
	for len(lvl.Rows) > 0 && lvl.Rows[len(lvl.Rows)-1] == "" {
		lvl.Rows = lvl.Rows[:len(lvl.Rows)-1]
	}
	if len(lvl.Rows) == 0 {
		return Level{}, fmt.Errorf("%s: %w", name, ErrEmpty)
	}
	return lvl, nil
}

func known(ch rune) bool {
	switch ch {
	case TileFloor, TileWall, TilePlayer, ' ':
		return true
	}
	_, ob := obstacleTiles[ch]
	_, ag := agentTiles[ch]
	_, sp := spawnTiles[ch]
	return ob || ag || sp
}

// ParseFile reads a level from disk
func ParseFile(path string) (Level, error) {
	f, err := os.Open(path)
	if err != nil {
		return Level{}, fmt.Errorf("opening scenario %s: %w", path, err)
	}
	defer f.Close()
	return Parse(path, f)
}

// Builtin returns an embedded level by name
func Builtin(name string) (Level, error) {
	f, err := arenas.Open("arenas/" + name + ".txt")
	if err != nil {
		return Level{}, fmt.Errorf("builtin scenario %q: %w", name, err)
	}
	defer f.Close()
	return Parse(name, f)
}

// Open loads a level file, or the built-in arena when path is empty
func Open(path string) (Level, error) {
	if path == "" {
		return Builtin("arena")
	}
	return ParseFile(path)
}

// Scenario is a ready-to-run match
type Scenario struct {
	Level   Level
	Grid    navigation.LevelGrid
	World   *sim.World
	State   *sim.State
	Players int
}

// Build places the level centered on the origin, one tile per navigation
// cell. Entities are created in reading order so ids match on every peer.
// Profiles used by agents or spawn points are enabled in the world rules.
func (l Level) Build(rules sim.Rules, seed uint64) (*Scenario, error) {
	cs := rules.Navigation.CellSize
	if cs <= 0 || cs != cs.Floor() {
		return nil, fmt.Errorf("%w: %s", ErrFractionCell, cs)
	}
	rules.Navigation.Profiles = l.profiles(rules.Navigation.Profiles)

	w, err := sim.NewWorld(rules)
	if err != nil {
		return nil, err
	}

	ts := cs.Int()
	grid := navigation.LevelGrid{
		OffsetX:  -(l.Width() / 2) * ts,
		OffsetY:  -(l.Height() / 2) * ts,
		Width:    l.Width(),
		Height:   l.Height(),
		TileSize: ts,
	}

	mask := make([][]bool, l.Height())
	for ty := range mask {
		mask[ty] = make([]bool, l.Width())
		for tx := range mask[ty] {
			mask[ty][tx] = l.at(tx, ty) == TileWall
		}
	}
	w.AddIntGrid(mask, grid)

	s := sim.NewState(seed)
	players := 0
	for ty := 0; ty < l.Height(); ty++ {
		for tx := 0; tx < l.Width(); tx++ {
			ch := l.at(tx, ty)
			center := grid.TileCell(tx, ty, cs).Center(cs)
			if t, ok := obstacleTiles[ch]; ok {
				s.AddObstacle(center, physics.Rect(cs, cs), navigation.NewObstacle(t))
				continue
			}
			if p, ok := agentTiles[ch]; ok {
				s.SpawnAgent(center, p, rules.Agent)
				continue
			}
			if p, ok := spawnTiles[ch]; ok {
				w.AddSpawnPoint(center, p)
				continue
			}
			if ch == TilePlayer {
				s.SpawnPlayer(players, center, rules.Player)
				players++
			}
		}
	}
	if players == 0 {
		return nil, fmt.Errorf("%s: %w", l.Name, ErrNoPlayers)
	}

	return &Scenario{Level: l, Grid: grid, World: w, State: s, Players: players}, nil
}

// profiles returns the configured profiles plus any the level needs, in
// configured order then profile order
func (l Level) profiles(configured []navigation.Profile) []navigation.Profile {
	need := [len(navigation.Profiles)]bool{}
	for _, row := range l.Rows {
		for _, ch := range row {
			if p, ok := agentTiles[ch]; ok {
				need[p] = true
			}
			if p, ok := spawnTiles[ch]; ok {
				need[p] = true
			}
		}
	}
	out := slices.Clone(configured)
	for _, p := range navigation.Profiles {
		if need[p] && !slices.Contains(out, p) {
			out = append(out, p)
		}
	}
	return out
}
