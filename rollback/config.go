package rollback

import (
	"errors"
	"fmt"

	"github.com/bascanada/alacod-sub000/parameter"
)

var ErrInvalidConfig = errors.New("invalid session config")

// Config sizes the prediction window and the checksum schedule
type Config struct {
	Players          int    `yaml:"players"`
	MaxPrediction    uint32 `yaml:"max_prediction"`
	InputDelay       uint32 `yaml:"input_delay"`
	ChecksumInterval uint32 `yaml:"checksum_interval"`
	ChecksumHistory  int    `yaml:"checksum_history"` // checksums kept for late remote reports
	CheckDistance    uint32 `yaml:"check_distance"`   // sync test rollback distance, zero disables
}

func DefaultConfig() Config {
	return Config{
		Players:          2,
		MaxPrediction:    parameter.MaxPredictionFrames,
		InputDelay:       parameter.InputDelayFrames,
		ChecksumInterval: parameter.ChecksumInterval,
		ChecksumHistory:  parameter.ChecksumHistory,
	}
}

// SyncTest reports whether every frame is rolled back and compared
func (c Config) SyncTest() bool { return c.CheckDistance > 0 }

func (c Config) Validate() error {
	if c.Players <= 0 {
		return fmt.Errorf("%w: players must be positive", ErrInvalidConfig)
	}
	if c.MaxPrediction == 0 {
		return fmt.Errorf("%w: max_prediction must be positive", ErrInvalidConfig)
	}
	if c.ChecksumInterval == 0 {
		return fmt.Errorf("%w: checksum_interval must be positive", ErrInvalidConfig)
	}
	if c.ChecksumHistory <= 0 {
		return fmt.Errorf("%w: checksum_history must be positive", ErrInvalidConfig)
	}
	return nil
}

func (c Config) inputRing() int {
	return int(2*c.MaxPrediction+c.InputDelay+c.CheckDistance) + 2
}

func (c Config) snapshotRing() int {
	return int(c.MaxPrediction+c.CheckDistance) + 2
}
