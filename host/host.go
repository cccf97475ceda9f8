// Package host drives one rollback peer per player inside a single process.
// Each peer owns its player's bot; other players' inputs and confirmed
// checksums reach it after a fixed lag, which exercises prediction, rollback
// and cross-peer desync detection without a transport.
package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bascanada/alacod-sub000/debugserver"
	"github.com/bascanada/alacod-sub000/rollback"
	"github.com/bascanada/alacod-sub000/sim"
	"github.com/bascanada/alacod-sub000/telemetry"
)

var ErrInvalidConfig = errors.New("invalid host config")

// Config tunes the in-process peer mesh
type Config struct {
	Lag             uint32 `yaml:"lag"`              // frames before a peer sees another peer's input
	PublishInterval uint32 `yaml:"publish_interval"` // frames between debug view publishes
}

func DefaultConfig() Config {
	return Config{Lag: 4, PublishInterval: 6}
}

// Validate bounds the lag so no peer can reach the prediction threshold
func (c Config) Validate(session rollback.Config) error {
	if c.Lag > session.MaxPrediction {
		return fmt.Errorf("%w: lag %d exceeds max_prediction %d", ErrInvalidConfig, c.Lag, session.MaxPrediction)
	}
	if c.PublishInterval == 0 {
		return fmt.Errorf("%w: publish_interval must be positive", ErrInvalidConfig)
	}
	return nil
}

// Archive receives peer 0's confirmed checksums
type Archive interface {
	RecordChecksums(ctx context.Context, sums []rollback.FrameChecksum) error
}

type inputMsg struct {
	at     uint32 // tick at which it is delivered
	to     int
	player int
	frame  uint32
	input  sim.Input
}

type sumMsg struct {
	at   uint32
	to   int
	from int
	sum  rollback.FrameChecksum
}

// Host owns every peer session
type Host struct {
	cfg   Config
	log   *slog.Logger
	hub   *debugserver.Hub
	arch  Archive
	peers []*rollback.Session
	bots  []*Bot
	tick  uint32

	inputs []inputMsg
	sums   []sumMsg
}

type Option func(*Host)

func WithLogger(l *slog.Logger) Option { return func(h *Host) { h.log = l } }

func WithHub(hub *debugserver.Hub) Option { return func(h *Host) { h.hub = hub } }

func WithArchive(a Archive) Option { return func(h *Host) { h.arch = a } }

// New builds one session per player from a fresh copy of the initial state.
// Session options apply to every peer; metrics go to peer 0 only so
// counters describe a single simulation.
func New(
	world *sim.World,
	initial *sim.State,
	session rollback.Config,
	cfg Config,
	seed uint64,
	metrics *telemetry.Metrics,
	sessOpts []rollback.Option,
	opts ...Option,
) (*Host, error) {
	if err := cfg.Validate(session); err != nil {
		return nil, err
	}
	h := &Host{cfg: cfg, log: telemetry.Discard()}
	for _, opt := range opts {
		opt(h)
	}

	for p := range session.Players {
		po := append([]rollback.Option{rollback.WithLogger(h.log.With("peer", p))}, sessOpts...)
		if p == 0 {
			po = append(po, rollback.WithMetrics(metrics))
		}
		sess, err := rollback.New(world, initial.Clone(), session, po...)
		if err != nil {
			return nil, fmt.Errorf("peer %d: %w", p, err)
		}
		h.peers = append(h.peers, sess)
		h.bots = append(h.bots, NewBot(seed, p))
	}
	return h, nil
}

// Peer returns a peer's session
func (h *Host) Peer(p int) *rollback.Session { return h.peers[p] }

func (h *Host) Peers() int { return len(h.peers) }

// Step advances every peer by one frame
func (h *Host) Step(ctx context.Context) error {
	for p, sess := range h.peers {
		in := h.bots[p].Next()
		frame, err := sess.AddLocalInput(p, in)
		if err != nil {
			return fmt.Errorf("peer %d local input: %w", p, err)
		}
		for q := range h.peers {
			if q != p {
				h.inputs = append(h.inputs, inputMsg{at: h.tick + h.cfg.Lag, to: q, player: p, frame: frame, input: in})
			}
		}
	}
	if err := h.deliver(ctx); err != nil {
		return err
	}

	for p, sess := range h.peers {
		if _, err := sess.AdvanceFrame(ctx); err != nil {
			return fmt.Errorf("peer %d frame %d: %w", p, sess.Frame(), err)
		}
		sums := sess.TakeChecksums()
		for q := range h.peers {
			if q == p {
				continue
			}
			for _, c := range sums {
				h.sums = append(h.sums, sumMsg{at: h.tick + h.cfg.Lag, to: q, from: p, sum: c})
			}
		}
		if p == 0 {
			h.publish(ctx, sess, sums)
		}
	}
	h.tick++
	return nil
}

// deliver hands over every message due this tick, in send order
func (h *Host) deliver(ctx context.Context) error {
	n := 0
	for _, m := range h.inputs {
		if m.at > h.tick {
			h.inputs[n] = m
			n++
			continue
		}
		if err := h.peers[m.to].AddRemoteInput(m.player, m.frame, m.input); err != nil {
			return fmt.Errorf("peer %d remote input from %d: %w", m.to, m.player, err)
		}
	}
	h.inputs = h.inputs[:n]

	n = 0
	for _, m := range h.sums {
		if m.at > h.tick {
			h.sums[n] = m
			n++
			continue
		}
		if err := h.peers[m.to].ReportRemoteChecksum(ctx, m.from, m.sum.Frame, m.sum.Sum); err != nil {
			return fmt.Errorf("peer %d checksum from %d: %w", m.to, m.from, err)
		}
	}
	h.sums = h.sums[:n]
	return nil
}

func (h *Host) publish(ctx context.Context, sess *rollback.Session, sums []rollback.FrameChecksum) {
	if h.hub != nil {
		if sess.Frame()%h.cfg.PublishInterval == 0 {
			h.hub.Publish(debugserver.CaptureSession(sess))
		}
		if dropped := h.hub.PublishChecksums(sums); dropped > 0 {
			h.log.Debug("checksum feed backpressure", "dropped", dropped)
		}
	}
	if h.arch != nil && len(sums) > 0 {
		if err := h.arch.RecordChecksums(ctx, sums); err != nil {
			h.log.Warn("archiving checksums", "frame", sums[0].Frame, "err", err)
		}
	}
}

// Run steps until frames have been simulated (0 means forever) or ctx ends.
// A positive tick paces frames on a ticker.
func (h *Host) Run(ctx context.Context, frames uint32, tick time.Duration) error {
	var ticker *time.Ticker
	if tick > 0 {
		ticker = time.NewTicker(tick)
		defer ticker.Stop()
	}
	h.log.Info("simulation started", "peers", len(h.peers), "frames", frames, "lag", h.cfg.Lag)

	for frames == 0 || h.tick < frames {
		if ticker != nil {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		} else if ctx.Err() != nil {
			return nil
		}
		if err := h.Step(ctx); err != nil {
			return err
		}
		if h.tick%600 == 0 {
			p := h.peers[0]
			h.log.Info("progress", "frame", p.Frame(), "confirmed", p.ConfirmedFrame(), "agents", len(p.State().Agents))
		}
	}
	h.log.Info("simulation finished", "frame", h.peers[0].Frame())
	return nil
}
