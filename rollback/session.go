package rollback

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/bascanada/alacod-sub000/sim"
	"github.com/bascanada/alacod-sub000/telemetry"
)

// slot is one player's input for one frame. A slot simulated before the real
// input arrived remembers the prediction it was simulated with.
type slot struct {
	frame     uint32
	input     sim.Input
	confirmed bool
	used      bool
	predicted sim.Input
}

type snapshot struct {
	frame uint32
	data  []byte
	valid bool
}

type remoteSum struct {
	peer int
	sum  sim.Checksum
}

// FrameChecksum is a confirmed frame's checksum, ready to send to peers
type FrameChecksum struct {
	Frame uint32       `json:"frame"`
	Sum   sim.Checksum `json:"sum"`
}

// Option configures a Session
type Option func(*Session)

func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.log = l }
}

func WithMetrics(m *telemetry.Metrics) Option {
	return func(s *Session) { s.metrics = m }
}

func WithReporter(r DesyncReporter) Option {
	return func(s *Session) { s.reporter = r }
}

// Session owns the authoritative-or-predicted state and the input history.
// It is not safe for concurrent use; the host drives it from one goroutine.
type Session struct {
	cfg      Config
	world    *sim.World
	state    *sim.State
	log      *slog.Logger
	metrics  *telemetry.Metrics
	reporter DesyncReporter

	inputs    [][]slot
	next      []uint32 // first unconfirmed frame per player
	snapshots []snapshot

	pending    bool
	rollbackTo uint32

	history      map[uint32]sim.Checksum
	nextChecksum uint32
	remote       map[uint32][]remoteSum
	emitted      []FrameChecksum
	desync       *DesyncError
}

// New starts a session from an initial state; frames below the input delay
// are confirmed as empty input for every player
func New(world *sim.World, initial *sim.State, cfg Config, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Session{
		cfg:       cfg,
		world:     world,
		state:     initial,
		log:       telemetry.Discard(),
		inputs:    make([][]slot, cfg.Players),
		next:      make([]uint32, cfg.Players),
		snapshots: make([]snapshot, cfg.snapshotRing()),
		history:   make(map[uint32]sim.Checksum),
		remote:    make(map[uint32][]remoteSum),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	s.nextChecksum = initial.Frame + (cfg.ChecksumInterval-initial.Frame%cfg.ChecksumInterval)%cfg.ChecksumInterval
	for p := range s.inputs {
		s.inputs[p] = make([]slot, cfg.inputRing())
		s.next[p] = initial.Frame
		for f := initial.Frame; f < initial.Frame+cfg.InputDelay; f++ {
			s.confirm(p, f, sim.Input{})
		}
	}
	return s, nil
}

func (s *Session) Config() Config { return s.cfg }

func (s *Session) World() *sim.World { return s.world }

// State is the current state; callers must treat it as read-only
func (s *Session) State() *sim.State { return s.state }

// Frame is the next frame to simulate
func (s *Session) Frame() uint32 { return s.state.Frame }

// ConfirmedFrame is the first frame whose inputs are not all confirmed
func (s *Session) ConfirmedFrame() uint32 { return slices.Min(s.next) }

// Desynced returns the recorded desync, nil while healthy
func (s *Session) Desynced() error {
	if s.desync == nil {
		return nil
	}
	return s.desync
}

// Checksum returns a confirmed frame's checksum while it is in history
func (s *Session) Checksum(frame uint32) (sim.Checksum, bool) {
	c, ok := s.history[frame]
	return c, ok
}

// TakeChecksums drains checksums confirmed since the last call
func (s *Session) TakeChecksums() []FrameChecksum {
	out := s.emitted
	s.emitted = nil
	return out
}

func (s *Session) slotAt(player int, frame uint32) *slot {
	ring := s.inputs[player]
	return &ring[frame%uint32(len(ring))]
}

func (s *Session) checkPlayer(player int) error {
	if player < 0 || player >= s.cfg.Players {
		return fmt.Errorf("player %d: %w", player, ErrInvalidPlayer)
	}
	return nil
}

// confirm stores a real input and schedules a rollback when the frame was
// already simulated with a different prediction
func (s *Session) confirm(player int, frame uint32, in sim.Input) {
	sl := s.slotAt(player, frame)
	mispredicted := sl.frame == frame && sl.used && sl.predicted != in
	*sl = slot{frame: frame, input: in, confirmed: true}
	s.next[player] = frame + 1

	if mispredicted && frame < s.state.Frame && (!s.pending || frame < s.rollbackTo) {
		s.pending = true
		s.rollbackTo = frame
	}
}

// lastConfirmed is the prediction for every frame past a player's confirmed input
func (s *Session) lastConfirmed(player int) sim.Input {
	n := s.next[player]
	if n == 0 {
		return sim.Input{}
	}
	sl := s.slotAt(player, n-1)
	if sl.frame != n-1 || !sl.confirmed {
		return sim.Input{}
	}
	return sl.input
}

func (s *Session) inputFor(player int, frame uint32) sim.Input {
	sl := s.slotAt(player, frame)
	if sl.frame == frame && sl.confirmed {
		return sl.input
	}
	pred := s.lastConfirmed(player)
	*sl = slot{frame: frame, used: true, predicted: pred}
	return pred
}

// AddLocalInput confirms a local player's input for the current frame plus the
// input delay and returns that frame. Missed frames repeat this input.
func (s *Session) AddLocalInput(player int, in sim.Input) (uint32, error) {
	if err := s.checkPlayer(player); err != nil {
		return 0, err
	}
	if s.desync != nil {
		return 0, s.desync
	}
	target := s.state.Frame + s.cfg.InputDelay
	if s.next[player] > target {
		return 0, fmt.Errorf("player %d frame %d already confirmed: %w", player, target, ErrInputGap)
	}
	for f := s.next[player]; f <= target; f++ {
		s.confirm(player, f, in)
	}
	return target, nil
}

// AddRemoteInput confirms a peer's input. Inputs must arrive in frame order;
// duplicates are ignored.
func (s *Session) AddRemoteInput(player int, frame uint32, in sim.Input) error {
	if err := s.checkPlayer(player); err != nil {
		return err
	}
	if s.desync != nil {
		return s.desync
	}
	if frame < s.next[player] {
		return nil
	}
	if frame > s.next[player] {
		return fmt.Errorf("player %d frame %d, expected %d: %w", player, frame, s.next[player], ErrInputGap)
	}
	if frame >= s.state.Frame+s.cfg.InputDelay+s.cfg.MaxPrediction {
		s.metrics.ObserveRejected()
		s.log.Warn("input beyond prediction window", "player", player, "frame", frame, "current", s.state.Frame)
		return fmt.Errorf("player %d frame %d: %w", player, frame, ErrPredictionThreshold)
	}
	s.confirm(player, frame, in)
	return nil
}

// AdvanceFrame applies any pending rollback and simulates one frame. In sync
// test mode the last CheckDistance frames are then replayed and compared.
func (s *Session) AdvanceFrame(ctx context.Context) (sim.StepReport, error) {
	if s.desync != nil {
		return sim.StepReport{}, s.desync
	}
	if s.state.Frame >= s.ConfirmedFrame()+s.cfg.MaxPrediction {
		return sim.StepReport{}, fmt.Errorf("frame %d confirmed %d: %w", s.state.Frame, s.ConfirmedFrame(), ErrPredictionThreshold)
	}
	if err := s.rollback(); err != nil {
		return sim.StepReport{}, err
	}

	report, err := s.step()
	if err != nil {
		return report, err
	}

	if s.cfg.SyncTest() {
		if e, err := s.syncTest(); err != nil {
			return report, err
		} else if e != nil {
			return report, s.fail(ctx, e)
		}
	}

	s.collectChecksums()
	if e := s.checkRemote(); e != nil {
		return report, s.fail(ctx, e)
	}
	s.metrics.SetFrame(s.state.Frame)
	return report, nil
}

func (s *Session) step() (sim.StepReport, error) {
	f := s.state.Frame
	data, err := s.state.Save()
	if err != nil {
		return sim.StepReport{}, err
	}
	s.snapshots[f%uint32(len(s.snapshots))] = snapshot{frame: f, data: data, valid: true}

	inputs := make([]sim.Input, s.cfg.Players)
	for p := range inputs {
		inputs[p] = s.inputFor(p, f)
	}
	r := sim.AdvanceFrame(s.world, s.state, inputs)
	s.metrics.ObserveStep(r, s.world.Rules.Navigation.Profiles, len(s.state.Agents))
	if r.Nav.Truncated() {
		s.log.Debug("flow field truncated", "frame", f, "cells", r.Nav.CellsProcessed())
	}
	return r, nil
}

func (s *Session) restore(frame uint32) error {
	snap := s.snapshots[frame%uint32(len(s.snapshots))]
	if !snap.valid || snap.frame != frame {
		return fmt.Errorf("restoring frame %d: %w", frame, ErrSnapshotMissing)
	}
	st, err := sim.Load(snap.data)
	if err != nil {
		return fmt.Errorf("restoring frame %d: %w", frame, err)
	}
	s.state = st
	return nil
}

// resimulate restores frame and replays up to the current frame
func (s *Session) resimulate(from uint32) error {
	to := s.state.Frame
	if err := s.restore(from); err != nil {
		return err
	}
	for s.state.Frame < to {
		if _, err := s.step(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) rollback() error {
	if !s.pending {
		return nil
	}
	s.pending = false
	from, to := s.rollbackTo, s.state.Frame
	if err := s.resimulate(from); err != nil {
		return err
	}
	s.metrics.ObserveRollback(int(to - from))
	s.log.Debug("rolled back", "from", from, "to", to)
	return nil
}

func (s *Session) syncTest() (*DesyncError, error) {
	d := s.cfg.CheckDistance
	if s.state.Frame < d {
		return nil, nil
	}
	want, err := s.state.Checksum()
	if err != nil {
		return nil, err
	}
	if err := s.resimulate(s.state.Frame - d); err != nil {
		return nil, err
	}
	s.metrics.ObserveResimulated(int(d))
	got, err := s.state.Checksum()
	if err != nil {
		return nil, err
	}
	if got != want {
		return &DesyncError{Frame: s.state.Frame, Local: want, Remote: got, Peer: SyncTestPeer}, nil
	}
	return nil, nil
}

// collectChecksums hashes every checksum-interval frame that is now confirmed
func (s *Session) collectChecksums() {
	limit := min(s.ConfirmedFrame(), s.state.Frame-1)
	for s.state.Frame > 0 && s.nextChecksum <= limit {
		f := s.nextChecksum
		s.nextChecksum += s.cfg.ChecksumInterval

		snap := s.snapshots[f%uint32(len(s.snapshots))]
		if !snap.valid || snap.frame != f {
			s.log.Warn("checksum frame left the snapshot ring", "frame", f)
			continue
		}
		sum := sim.Sum(snap.data)
		s.history[f] = sum
		s.emitted = append(s.emitted, FrameChecksum{Frame: f, Sum: sum})
	}

	keep := uint32(s.cfg.ChecksumHistory) * s.cfg.ChecksumInterval
	if s.nextChecksum <= keep {
		return
	}
	oldest := s.nextChecksum - keep
	for f := range s.history {
		if f < oldest {
			delete(s.history, f)
		}
	}
	for f := range s.remote {
		if f < oldest {
			delete(s.remote, f)
		}
	}
}

// checkRemote compares queued peer checksums whose local frame is now known,
// earliest frame first
func (s *Session) checkRemote() *DesyncError {
	for _, f := range slices.Sorted(maps.Keys(s.remote)) {
		local, ok := s.history[f]
		if !ok {
			continue
		}
		sums := s.remote[f]
		delete(s.remote, f)
		for _, r := range sums {
			if r.sum != local {
				return &DesyncError{Frame: f, Local: local, Remote: r.sum, Peer: r.peer}
			}
		}
	}
	return nil
}

// ReportRemoteChecksum compares a peer's checksum with the local one. Reports
// for frames not yet confirmed locally are queued and checked as the session
// advances.
func (s *Session) ReportRemoteChecksum(ctx context.Context, peer int, frame uint32, sum sim.Checksum) error {
	if s.desync != nil {
		return s.desync
	}
	if local, ok := s.history[frame]; ok {
		if local != sum {
			return s.fail(ctx, &DesyncError{Frame: frame, Local: local, Remote: sum, Peer: peer})
		}
		return nil
	}
	if frame%s.cfg.ChecksumInterval != 0 || frame < s.nextChecksum {
		s.log.Debug("ignoring remote checksum", "peer", peer, "frame", frame)
		return nil
	}
	s.remote[frame] = append(s.remote[frame], remoteSum{peer: peer, sum: sum})
	return nil
}

func (s *Session) fail(ctx context.Context, e *DesyncError) error {
	s.desync = e
	s.metrics.ObserveDesync()
	s.log.Error("desync detected",
		"frame", e.Frame,
		"peer", e.Peer,
		"local", e.Local.String(),
		"remote", e.Remote.String())
	if s.reporter != nil {
		if err := s.reporter.ReportDesync(ctx, *e); err != nil {
			s.log.Warn("reporting desync", "frame", e.Frame, "err", err)
		}
	}
	return e
}
