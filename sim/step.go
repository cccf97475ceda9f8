package sim

import (
	"github.com/bascanada/alacod-sub000/navigation"
	"github.com/bascanada/alacod-sub000/netid"
	"github.com/bascanada/alacod-sub000/physics"
	"github.com/bascanada/alacod-sub000/steering"
	"github.com/bascanada/alacod-sub000/vmath"
)

// StepReport summarizes one frame for the host; it is not part of the snapshot
type StepReport struct {
	Frame        uint32 // Frame that was simulated
	Nav          navigation.RefreshReport
	Steering     steering.StepStats
	Spawned      int
	Attacks      int
	Destroyed    int
	Repaired     int
	PlayerDamage int32
}

// AdvanceFrame applies one frame of inputs, indexed by player handle. It reads
// only the world, the state and the inputs, and writes only the state.
func AdvanceFrame(w *World, s *State, inputs []Input) StepReport {
	report := StepReport{Frame: s.Frame}

	holes := w.WindowHoles(s)
	w.movePlayers(s, inputs, holes)
	report.Repaired = w.repair(s, inputs)
	report.Spawned = w.spawn(s)
	report.Nav = w.refreshNav(s)
	w.selectTargets(s)
	report.Steering = steering.Step(s.Agents, w.steeringEnv(s, holes), w.Rules.Steering)
	report.Attacks, report.Destroyed, report.PlayerDamage = w.attack(s)

	s.Frame++
	return report
}

// obstacleSolid reports whether an intact blocking obstacle stops a body
func (s *State) obstacleSolid(body physics.Collider, pos vmath.Vec2, profile navigation.Profile) bool {
	for _, o := range s.Obstacles {
		if !o.State.BlocksMovement || profile.CanCross(o.State.Type) {
			continue
		}
		if physics.Overlaps(pos, body, o.Pos, o.Collider) {
			return true
		}
	}
	return false
}

func (w *World) movePlayers(s *State, inputs []Input, holes navigation.CellSet) {
	rules := w.Rules.Player
	dt := w.Rules.Steering.Timestep
	eps := w.Rules.Steering.Epsilon()

	for i := range s.Players {
		p := &s.Players[i]
		if !p.Alive() {
			p.Vel = vmath.Vec2{}
			continue
		}

		in := inputAt(inputs, p.Handle)
		if dir := in.Direction(eps); !dir.IsZero() {
			speed := rules.Speed
			if in.Has(ButtonSprint) {
				speed = speed.Mul(rules.SprintMultiplier)
			}
			p.Vel = dir.Scale(speed)
		} else if !p.Vel.IsZero() {
			decay := vmath.One.Sub(rules.Friction.Mul(dt)).Max(vmath.Zero)
			p.Vel = p.Vel.Scale(decay)
			if p.Vel.LengthSquared() < vmath.WideOne {
				p.Vel = vmath.Vec2{}
			}
		}

		contacts := 0
		for _, a := range s.Agents {
			if physics.Overlaps(p.Pos, p.Body, a.Pos, a.Body) {
				contacts++
			}
		}
		vel := p.Vel.Scale(physics.CrowdSlowdown(contacts, rules.CrowdSlowdown, rules.CrowdFloor))

		r := physics.MoveAndSlide(p.Pos, vel, dt, func(pos vmath.Vec2) bool {
			return w.Solid(p.Body, pos, holes) || s.obstacleSolid(p.Body, pos, navigation.ProfileGround)
		})
		p.Pos = r.Pos
		if r.Blocked {
			p.Vel = vmath.Vec2{}
		}
		switch {
		case p.Vel.X > w.Rules.Steering.FacingThreshold:
			p.Facing = steering.FacingRight
		case p.Vel.X < w.Rules.Steering.FacingThreshold.Neg():
			p.Facing = steering.FacingLeft
		}
	}
}

// repair lets players holding interact restore the nearest damaged obstacle
func (w *World) repair(s *State, inputs []Input) int {
	rules := w.Rules.Player
	limit := vmath.MulFixed(rules.InteractRange, rules.InteractRange)
	repaired := 0

	for i := range s.Players {
		p := &s.Players[i]
		if !p.Alive() || !inputAt(inputs, p.Handle).Has(ButtonInteract) || s.Frame < p.NextRepair {
			continue
		}

		var damaged []*Obstacle
		for j := range s.Obstacles {
			o := &s.Obstacles[j]
			if o.State.Breakable && o.State.Health < o.State.MaxHealth && p.Pos.DistanceSquared(o.Pos) < limit {
				damaged = append(damaged, o)
			}
		}
		o, ok := netid.Nearest(damaged, func(o *Obstacle) netid.NetID { return o.ID },
			func(o *Obstacle) vmath.Wide { return p.Pos.DistanceSquared(o.Pos) })
		if !ok {
			continue
		}
		if o.State.Repair(rules.RepairAmount) {
			s.Nav.MarkBlockedDirty()
		}
		p.NextRepair = s.Frame + rules.RepairInterval
		repaired++
	}
	return repaired
}

// spawn places one agent per interval at a spawn point drawn from the snapshot generator
func (w *World) spawn(s *State) int {
	rules := w.Rules.Spawn
	if rules.Interval == 0 || s.Frame%rules.Interval != 0 || len(s.Agents) >= rules.MaxAgents {
		return 0
	}
	sp, ok := netid.Pick(w.SpawnPoints, spawnID, &s.Rand)
	if !ok {
		return 0
	}
	s.SpawnAgent(sp.Pos, sp.Profile, w.Rules.Agent)
	return 1
}

func alivePlayers(s *State) []Player {
	out := make([]Player, 0, len(s.Players))
	for _, p := range s.Players {
		if p.Alive() {
			out = append(out, p)
		}
	}
	return out
}

// refreshNav targets the lowest-NetID living player
func (w *World) refreshNav(s *State) navigation.RefreshReport {
	target, ok := netid.Lowest(alivePlayers(s), Player.NetID)
	if !ok {
		return navigation.RefreshReport{}
	}
	cell := navigation.CellAt(target.Pos, w.cellSize())
	return s.Nav.Refresh(s.Frame, cell, w.Geometry(s), w.Rules.Navigation)
}

// Geometry is the blocked-cell input for the level and the state's obstacles
func (w *World) Geometry(s *State) navigation.Geometry {
	return navigation.Geometry{StaticWalls: w.StaticWalls, Obstacles: s.placedObstacles()}
}

func (w *World) selectTargets(s *State) {
	players := make([]steering.Candidate, 0, len(s.Players))
	for _, p := range alivePlayers(s) {
		players = append(players, steering.Candidate{ID: p.ID, Pos: p.Pos})
	}

	for i := range s.Agents {
		a := &s.Agents[i]
		var obstacles []steering.Candidate
		for _, o := range s.Obstacles {
			st := o.State
			if st.BlocksMovement && st.Breakable && st.Intact() && !a.Profile.CanCross(st.Type) {
				obstacles = append(obstacles, steering.Candidate{ID: o.ID, Pos: o.Pos})
			}
		}
		steering.SelectTarget(a, players, obstacles, w.Rules.Steering)
	}
}

func (w *World) steeringEnv(s *State, holes navigation.CellSet) steering.Env {
	alive := alivePlayers(s)
	positions := make([]vmath.Vec2, len(alive))
	for i, p := range alive {
		positions[i] = p.Pos
	}
	return steering.Env{
		Fields:        &s.Nav,
		Players:       positions,
		CellSize:      w.cellSize(),
		NearestSearch: w.Rules.Navigation.NearestSearch,
		Solid: func(a *steering.Agent, pos vmath.Vec2) bool {
			return w.Solid(a.Body, pos, holes) || s.obstacleSolid(a.Body, pos, a.Profile)
		},
	}
}

// attack resolves melee hits in NetID order
func (w *World) attack(s *State) (attacks, destroyed int, damage int32) {
	rules := w.Rules.Agent
	reach := w.Rules.Steering.AttackRange
	limit := vmath.MulFixed(reach, reach)

	for i := range s.Agents {
		a := &s.Agents[i]
		if a.Mode != steering.ModeChasing || s.Frame < a.NextAttack {
			continue
		}

		switch a.Target.Kind {
		case steering.TargetPlayer:
			p := s.player(a.Target.ID)
			if p == nil || !p.Alive() || a.Pos.DistanceSquared(p.Pos) >= limit {
				continue
			}
			hit := min(rules.AttackDamage, p.Health)
			p.Health -= hit
			damage += hit

		case steering.TargetObstacle:
			o := s.obstacle(a.Target.ID)
			if o == nil || !o.State.Intact() || a.Pos.DistanceSquared(o.Pos) >= limit {
				continue
			}
			if o.State.TakeDamage(rules.ObstacleDamage) {
				s.Nav.MarkBlockedDirty()
				destroyed++
			}

		default:
			continue
		}
		a.NextAttack = s.Frame + rules.AttackCooldown
		attacks++
	}
	return attacks, destroyed, damage
}
