package parameter

import "time"

// Simulation timing
const (
	// TickRate is the fixed simulation frequency in frames per second
	TickRate = 60

	// FrameDuration is the wall-clock length of one frame for the driver loop
	FrameDuration = time.Second / TickRate

	// DefaultSeed seeds the simulation PRNG when config omits it
	DefaultSeed = 0x9E3779B97F4A7C15

	// NormalizeEpsilonShift sets the zero-vector threshold to 2^-8 on squared length
	NormalizeEpsilonShift = 8
)

// Rollback session
const (
	// MaxPredictionFrames bounds how far local frames may run ahead of confirmed input
	MaxPredictionFrames = 8

	// InputDelayFrames is the local input delay applied by the session
	InputDelayFrames = 2

	// ChecksumInterval is frames between checksum exchanges
	ChecksumInterval = 30

	// ChecksumHistory is the number of confirmed checksums kept for late peer reports
	ChecksumHistory = 16
)

// Debug server
const (
	DebugListenAddr       = "127.0.0.1:8087"
	DebugRateLimitPerSec  = 20
	DebugRateLimitBurst   = 40
	DebugShutdownTimeout  = 5 * time.Second
	DebugWSWriteTimeout   = 2 * time.Second
	DebugRenderCellPixels = 6
)
