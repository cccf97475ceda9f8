package sim

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"slices"

	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/crypto/sha3"

	"github.com/bascanada/alacod-sub000/navigation"
	"github.com/bascanada/alacod-sub000/netid"
	"github.com/bascanada/alacod-sub000/physics"
	"github.com/bascanada/alacod-sub000/steering"
	"github.com/bascanada/alacod-sub000/vmath"
)

// Player is a controllable character
type Player struct {
	ID         netid.NetID      `msgpack:"id"`
	Handle     int              `msgpack:"handle"`
	Pos        vmath.Vec2       `msgpack:"pos"`
	Vel        vmath.Vec2       `msgpack:"vel"`
	Body       physics.Collider `msgpack:"body"`
	Health     int32            `msgpack:"hp"`
	Facing     steering.Facing  `msgpack:"facing"`
	NextRepair uint32           `msgpack:"next_repair"`
}

func (p Player) NetID() netid.NetID { return p.ID }

func (p Player) Alive() bool { return p.Health > 0 }

// Obstacle is a dynamic obstacle entity
type Obstacle struct {
	ID       netid.NetID         `msgpack:"id"`
	Pos      vmath.Vec2          `msgpack:"pos"`
	Collider physics.Collider    `msgpack:"col"`
	State    navigation.Obstacle `msgpack:"state"`
}

func (o Obstacle) NetID() netid.NetID { return o.ID }

// State is the complete rollback snapshot. Every slice is kept sorted by NetID.
type State struct {
	Frame     uint32           `msgpack:"frame"`
	Rand      vmath.Rand       `msgpack:"rand"`
	IDs       netid.Factory    `msgpack:"ids"`
	Players   []Player         `msgpack:"players"`
	Agents    []steering.Agent `msgpack:"agents"`
	Obstacles []Obstacle       `msgpack:"obstacles"`
	Nav       navigation.Cache `msgpack:"nav"`
}

// NewState returns an empty snapshot seeded for the match
func NewState(seed uint64) *State {
	return &State{Rand: vmath.NewRand(seed)}
}

// SpawnPlayer adds a player bound to an input handle
func (s *State) SpawnPlayer(handle int, pos vmath.Vec2, rules PlayerRules) netid.NetID {
	id := s.IDs.Next("player")
	s.Players = append(s.Players, Player{
		ID:     id,
		Handle: handle,
		Pos:    pos,
		Body:   physics.Circle(rules.Radius),
		Health: rules.Health,
		Facing: steering.FacingRight,
	})
	return id
}

// SpawnAgent adds an idle agent with the given profile
func (s *State) SpawnAgent(pos vmath.Vec2, profile navigation.Profile, rules AgentRules) netid.NetID {
	id := s.IDs.Next("agent")
	s.Agents = append(s.Agents, steering.Agent{
		ID:      id,
		Pos:     pos,
		Profile: profile,
		Body:    physics.Circle(rules.Radius),
		Facing:  steering.FacingRight,
	})
	return id
}

// AddObstacle adds an obstacle and schedules a blocked-cell rebuild
func (s *State) AddObstacle(pos vmath.Vec2, collider physics.Collider, ob navigation.Obstacle) netid.NetID {
	id := s.IDs.Next(ob.Type.String())
	s.Obstacles = append(s.Obstacles, Obstacle{ID: id, Pos: pos, Collider: collider, State: ob})
	s.Nav.MarkBlockedDirty()
	return id
}

func (s *State) player(id netid.NetID) *Player {
	i, ok := slices.BinarySearchFunc(s.Players, id, func(p Player, id netid.NetID) int {
		return netid.Compare(p.ID, id)
	})
	if !ok {
		return nil
	}
	return &s.Players[i]
}

func (s *State) obstacle(id netid.NetID) *Obstacle {
	i, ok := slices.BinarySearchFunc(s.Obstacles, id, func(o Obstacle, id netid.NetID) int {
		return netid.Compare(o.ID, id)
	})
	if !ok {
		return nil
	}
	return &s.Obstacles[i]
}

// Clone deep-copies the snapshot
func (s *State) Clone() *State {
	out := *s
	out.Players = slices.Clone(s.Players)
	out.Agents = slices.Clone(s.Agents)
	out.Obstacles = slices.Clone(s.Obstacles)
	out.Nav = s.Nav.Clone()
	return &out
}

// Save encodes the snapshot; map keys are sorted so equal states encode equally
func (s *State) Save() ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(s); err != nil {
		return nil, fmt.Errorf("encoding state frame %d: %w", s.Frame, err)
	}
	return buf.Bytes(), nil
}

// Load decodes a snapshot written by Save
func Load(data []byte) (*State, error) {
	var s State
	if err := msgpack.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decoding state: %w", err)
	}
	return &s, nil
}

// Checksum is the first 128 bits of SHA3-256 over an encoded snapshot
type Checksum [16]byte

func (c Checksum) String() string { return hex.EncodeToString(c[:]) }

func (c Checksum) IsZero() bool { return c == Checksum{} }

func (c Checksum) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Checksum) UnmarshalText(text []byte) error {
	if hex.DecodedLen(len(text)) != len(c) {
		return fmt.Errorf("checksum %q: want %d hex bytes", text, len(c))
	}
	_, err := hex.Decode(c[:], text)
	return err
}

// Sum hashes encoded snapshot bytes
func Sum(data []byte) Checksum {
	full := sha3.Sum256(data)
	var c Checksum
	copy(c[:], full[:16])
	return c
}

// Checksum encodes the state and hashes it
func (s *State) Checksum() (Checksum, error) {
	data, err := s.Save()
	if err != nil {
		return Checksum{}, err
	}
	return Sum(data), nil
}

// placedObstacles feeds the blocked-cell rebuild
func (s *State) placedObstacles() []navigation.PlacedObstacle {
	out := make([]navigation.PlacedObstacle, len(s.Obstacles))
	for i, o := range s.Obstacles {
		out[i] = navigation.PlacedObstacle{Pos: o.Pos, Collider: o.Collider, Obstacle: o.State}
	}
	return out
}
