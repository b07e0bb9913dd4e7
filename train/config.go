package train

import (
	"fmt"
	"math/rand"

	"levelgan/games"
	"levelgan/nn"
	"levelgan/utils"
)

// Config holds the training configuration for a run. The token-group table
// is resolved from the game identifier once, at construction; the core never
// branches on game names. The per-scale noise amplitude is NOT part of the
// config: it is returned by the single-scale trainer and threaded through as
// an immutable value.
type Config struct {
	Game        games.Game
	TokenList   []string           // full token vocabulary of the run
	TokenGroups []games.TokenGroup // grouping table for the seeding transform

	NumLayer     int  // conv layers per network; also the pad width
	PadWithNoise bool // reflection padding instead of zero padding

	LRD   float64 // discriminator learning rate
	LRG   float64 // generator learning rate
	Beta1 float64 // Adam beta1 (beta2 is fixed at 0.999)
	Gamma float64 // LR decay factor at the schedule milestones

	Niter  int // epochs per scale
	Dsteps int // discriminator iterations per epoch
	Gsteps int // generator iterations per epoch

	NcCurrent   int     // channel count of the scale being trained
	NoiseUpdate float64 // amplitude calibration factor
	Alpha       float64 // reconstruction loss weight (0 disables)
	LambdaGrad  float64 // gradient penalty weight

	TokenInsert     int  // seeding insertion scale; -2 disables
	CorrelatedNoise bool // single-channel noise broadcast across channels

	ScaleFactor float64 // pyramid downscale factor between scales
	NumScales   int     // total scales in the pyramid

	Outf    string
	Tracker utils.Tracker
	Noise   *NoiseSource
	Rng     *rand.Rand // drives the gradient-penalty interpolation draw
}

// NewConfig returns a config with the standard training hyperparameters for
// the given game, seeded deterministically.
func NewConfig(game games.Game, outf string, seed int64) *Config {
	return &Config{
		Game:        game,
		TokenList:   game.Tokens(),
		TokenGroups: game.TokenGroups(),
		NumLayer:    3,
		LRD:         0.0005,
		LRG:         0.0005,
		Beta1:       0.5,
		Gamma:       0.1,
		Niter:       4000,
		Dsteps:      3,
		Gsteps:      3,
		NcCurrent:   len(game.Tokens()),
		NoiseUpdate: 0.1,
		Alpha:       100,
		LambdaGrad:  0.1,
		TokenInsert: -2,
		ScaleFactor: 0.75,
		NumScales:   3,
		Outf:        outf,
		Tracker:     utils.NopTracker{},
		Noise:       NewNoiseSource(uint64(seed), false),
		Rng:         rand.New(rand.NewSource(seed)),
	}
}

// Validate checks the configuration before training starts.
func (c *Config) Validate() error {
	if c.NumLayer < 2 {
		return fmt.Errorf("num_layer must be at least 2, got %d", c.NumLayer)
	}
	if c.Niter <= 0 {
		return fmt.Errorf("niter must be positive, got %d", c.Niter)
	}
	if c.Dsteps < 1 || c.Gsteps < 1 {
		return fmt.Errorf("Dsteps and Gsteps must be at least 1, got %d and %d", c.Dsteps, c.Gsteps)
	}
	if c.NcCurrent <= 0 {
		return fmt.Errorf("nc_current must be positive, got %d", c.NcCurrent)
	}
	if c.LambdaGrad < 0 {
		return fmt.Errorf("lambda_grad must be non-negative, got %v", c.LambdaGrad)
	}
	if c.Gamma <= 0 || c.Gamma > 1 {
		return fmt.Errorf("gamma must be in (0, 1], got %v", c.Gamma)
	}
	if len(c.TokenList) == 0 || len(c.TokenGroups) == 0 {
		return fmt.Errorf("token tables not resolved")
	}
	if c.Tracker == nil || c.Noise == nil || c.Rng == nil {
		return fmt.Errorf("tracker, noise source and rng must be set")
	}
	return nil
}

// MinSize returns the smallest spatial extent a scale may have: NumLayer
// valid 3x3 convolutions consume 2*NumLayer pixels per dimension, so the
// critic needs at least one pixel beyond that.
func (c *Config) MinSize() int {
	return 2*c.NumLayer + 1
}

// PadFuncs returns the noise and image padding policies selected by the
// configuration, both sized to the receptive field (one pixel per layer).
func (c *Config) PadFuncs() (padNoise, padImage nn.Pad2D) {
	if c.PadWithNoise {
		return nn.ReflectionPad2D(c.NumLayer), nn.ReflectionPad2D(c.NumLayer)
	}
	return nn.ZeroPad2D(c.NumLayer), nn.ZeroPad2D(c.NumLayer)
}
