package rollback

import (
	"context"
	"errors"
	"fmt"

	"github.com/bascanada/alacod-sub000/sim"
)

var (
	ErrPredictionThreshold = errors.New("prediction threshold reached")
	ErrDesynced            = errors.New("session desynced")
	ErrInvalidPlayer       = errors.New("invalid player handle")
	ErrInputGap            = errors.New("input frames not contiguous")
	ErrSnapshotMissing     = errors.New("snapshot not in ring")
)

// SyncTestPeer is the peer recorded when a local resimulation disagrees
const SyncTestPeer = -1

// DesyncError carries both checksums of the first mismatching frame
type DesyncError struct {
	Frame  uint32
	Local  sim.Checksum
	Remote sim.Checksum
	Peer   int
}

func (e *DesyncError) Error() string {
	if e.Peer == SyncTestPeer {
		return fmt.Sprintf("sync test mismatch at frame %d: first %s, replay %s", e.Frame, e.Local, e.Remote)
	}
	return fmt.Sprintf("desync at frame %d with peer %d: local %s, remote %s", e.Frame, e.Peer, e.Local, e.Remote)
}

func (e *DesyncError) Unwrap() error { return ErrDesynced }

// DesyncReporter receives every detected desync, for archiving
type DesyncReporter interface {
	ReportDesync(ctx context.Context, e DesyncError) error
}
