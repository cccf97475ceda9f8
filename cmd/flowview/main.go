// flowview draws a scenario's flow field in the terminal, or writes it to PNG
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime/debug"
	"slices"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/bascanada/alacod-sub000/config"
	"github.com/bascanada/alacod-sub000/debugserver"
	"github.com/bascanada/alacod-sub000/navigation"
	"github.com/bascanada/alacod-sub000/parameter"
	"github.com/bascanada/alacod-sub000/scenario"
	"github.com/bascanada/alacod-sub000/sim"
)

var (
	configFlag   = flag.String("config", "config/simcore.yaml", "simcore config for rules and seed")
	scenarioFlag = flag.String("scenario", "", "ASCII level, overrides the config")
	profileFlag  = flag.String("profile", "ground", "initial navigation profile")
	pngFlag      = flag.String("png", "", "write the field to this PNG file and exit")
)

// Viewer holds the scenario and the field under inspection
type Viewer struct {
	screen        tcell.Screen
	width, height int

	sc       *scenario.Scenario
	blocked  navigation.Blocked
	profiles []navigation.Profile
	profile  int
	target   navigation.GridPos
	field    *navigation.FlowField
	stats    navigation.BuildStats

	running  bool
	showCost bool
}

func NewViewer(sc *scenario.Scenario, profile navigation.Profile) *Viewer {
	v := &Viewer{sc: sc, profiles: navigation.Profiles[:]}
	v.profile = max(slices.Index(v.profiles, profile), 0)
	if len(sc.State.Players) > 0 {
		v.target = navigation.CellAt(sc.State.Players[0].Pos, sc.World.Rules.Navigation.CellSize)
	}
	v.rebuild()
	return v
}

func (v *Viewer) current() navigation.Profile { return v.profiles[v.profile] }

// rebuild recomputes blocked cells from the live state, then the field
func (v *Viewer) rebuild() {
	params := v.sc.World.Rules.Navigation
	v.blocked.Rebuild(v.sc.World.Geometry(v.sc.State), params.CellSize)
	v.field, v.stats = navigation.Build(v.target, v.current(), &v.blocked, params)
}

// step advances the simulation with idle players so agents can be watched
func (v *Viewer) step() {
	sim.AdvanceFrame(v.sc.World, v.sc.State, make([]sim.Input, v.sc.Players))
	v.rebuild()
}

// arrowGlyph maps a direction index to the arrow pointing at the next cell
func arrowGlyph(d int8) rune {
	switch d {
	case navigation.DirNone:
		return ' '
	case navigation.DirTarget:
		return '◎'
	}
	dx, dy := navigation.DirOffset(d)
	switch {
	case dx > 0 && dy > 0:
		return '↗'
	case dx > 0 && dy < 0:
		return '↘'
	case dx < 0 && dy > 0:
		return '↖'
	case dx < 0 && dy < 0:
		return '↙'
	case dx > 0:
		return '→'
	case dx < 0:
		return '←'
	case dy > 0:
		return '↑'
	default:
		return '↓'
	}
}

// costGlyph prints hop counts base 36, wrapping
func costGlyph(cost int32) rune {
	const digits = "0123456789abcdefghijklmnopqrstuvwxyz"
	return rune(digits[cost%int32(len(digits))])
}

var obstacleGlyphs = map[navigation.ObstacleType]rune{
	navigation.ObstacleWindow:    'W',
	navigation.ObstacleBarricade: 'B',
	navigation.ObstacleWater:     '~',
	navigation.ObstaclePit:       'O',
	navigation.ObstacleLowCover:  'c',
}

// toScreen places a cell two columns wide around the screen center, +Y up
func toScreen(c, center navigation.GridPos, width, height int) (int, int) {
	return width/2 + int(c.X-center.X)*2, height/2 - int(c.Y-center.Y)
}

func (v *Viewer) cellGlyph(c navigation.GridPos) (rune, tcell.Style) {
	if v.blocked.Walls.Contains(c) {
		return '█', tcell.StyleDefault.Foreground(tcell.ColorGray)
	}
	for _, t := range navigation.ObstacleTypes {
		if v.blocked.Of(t).Contains(c) {
			return obstacleGlyphs[t], tcell.StyleDefault.Foreground(tcell.ColorRed)
		}
	}
	d := v.field.Direction(c)
	if d == navigation.DirNone {
		return '·', tcell.StyleDefault.Foreground(tcell.ColorDarkSlateGray)
	}
	if v.showCost && d != navigation.DirTarget {
		cost, _ := v.field.Cost(c)
		return costGlyph(cost), tcell.StyleDefault.Foreground(tcell.ColorTeal)
	}
	return arrowGlyph(d), tcell.StyleDefault.Foreground(tcell.ColorGreen)
}

func (v *Viewer) draw() {
	v.screen.Clear()
	center := navigation.Cell(0, 0)
	cs := v.sc.World.Rules.Navigation.CellSize

	halfW, halfH := int32(v.width/4)+1, int32(v.height/2)+1
	for y := -halfH; y <= halfH; y++ {
		for x := -halfW; x <= halfW; x++ {
			c := center.Add(x, y)
			sx, sy := toScreen(c, center, v.width, v.height-1)
			if sx < 0 || sx >= v.width || sy < 0 || sy >= v.height-1 {
				continue
			}
			ch, style := v.cellGlyph(c)
			v.screen.SetContent(sx, sy, ch, nil, style)
		}
	}

	for _, a := range v.sc.State.Agents {
		sx, sy := toScreen(navigation.CellAt(a.Pos, cs), center, v.width, v.height-1)
		v.screen.SetContent(sx+1, sy, 'e', nil, tcell.StyleDefault.Foreground(tcell.ColorYellow))
	}
	for _, p := range v.sc.State.Players {
		sx, sy := toScreen(navigation.CellAt(p.Pos, cs), center, v.width, v.height-1)
		v.screen.SetContent(sx+1, sy, 'p', nil, tcell.StyleDefault.Foreground(tcell.ColorBlue))
	}
	tx, ty := toScreen(v.target, center, v.width, v.height-1)
	v.screen.SetContent(tx, ty, '◎', nil, tcell.StyleDefault.Foreground(tcell.ColorWhite).Reverse(true))

	status := fmt.Sprintf(" %s  target %s  cells %d  frame %d  [hjkl] move  [tab] profile  [c] cost  [space] run  [q] quit",
		v.current(), v.target, v.stats.CellsProcessed, v.sc.State.Frame)
	if v.stats.Truncated {
		status += "  TRUNCATED"
	}
	for i, r := range []rune(status) {
		if i >= v.width {
			break
		}
		v.screen.SetContent(i, v.height-1, r, nil, tcell.StyleDefault.Reverse(true))
	}
	v.screen.Show()
}

// handleKey applies a key and reports whether the viewer keeps running
func (v *Viewer) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyTab:
		v.profile = (v.profile + 1) % len(v.profiles)
	case tcell.KeyLeft:
		v.target = v.target.Add(-1, 0)
	case tcell.KeyRight:
		v.target = v.target.Add(1, 0)
	case tcell.KeyUp:
		v.target = v.target.Add(0, 1)
	case tcell.KeyDown:
		v.target = v.target.Add(0, -1)
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return false
		case 'h':
			v.target = v.target.Add(-1, 0)
		case 'l':
			v.target = v.target.Add(1, 0)
		case 'k':
			v.target = v.target.Add(0, 1)
		case 'j':
			v.target = v.target.Add(0, -1)
		case 'c':
			v.showCost = !v.showCost
		case ' ':
			v.running = !v.running
		}
	}
	v.rebuild()
	return true
}

func (v *Viewer) run() {
	ticker := time.NewTicker(parameter.FrameDuration)
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			eventChan <- v.screen.PollEvent()
		}
	}()

	v.width, v.height = v.screen.Size()
	for {
		select {
		case ev := <-eventChan:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if !v.handleKey(ev) {
					return
				}
			case *tcell.EventResize:
				v.width, v.height = v.screen.Size()
				v.screen.Sync()
			}
		case <-ticker.C:
			if v.running {
				v.step()
			}
			v.draw()
		}
	}
}

func load() (*scenario.Scenario, navigation.Profile, error) {
	cfg, err := config.Load(*configFlag)
	if err != nil {
		return nil, 0, err
	}
	path := cfg.Scenario
	if *scenarioFlag != "" {
		path = *scenarioFlag
	}
	profile, err := navigation.ParseProfile(*profileFlag)
	if err != nil {
		return nil, 0, err
	}
	lvl, err := scenario.Open(path)
	if err != nil {
		return nil, 0, err
	}
	sc, err := lvl.Build(cfg.Rules, cfg.Seed)
	if err != nil {
		return nil, 0, err
	}
	return sc, profile, nil
}

func writePNG(v *Viewer, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := debugserver.WriteFieldPNG(f, v.field, &v.blocked, parameter.DebugRenderCellPixels); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func main() {
	flag.Parse()

	sc, profile, err := load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "flowview: %v\n", err)
		os.Exit(1)
	}
	v := NewViewer(sc, profile)

	if *pngFlag != "" {
		if err := writePNG(v, *pngFlag); err != nil {
			fmt.Fprintf(os.Stderr, "flowview: %v\n", err)
			os.Exit(1)
		}
		return
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	v.screen = screen

	// Restore the terminal even if drawing panics
	defer func() {
		if r := recover(); r != nil {
			screen.Fini()
			fmt.Fprintf(os.Stderr, "flowview crashed: %v\n%s\n", r, debug.Stack())
			os.Exit(1)
		}
	}()
	defer screen.Fini()

	v.run()
}
