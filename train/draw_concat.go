package train

import (
	"fmt"

	"levelgan/games"
	"levelgan/nn"
	"levelgan/tensor"
)

// Mode selects how Draw-Concat replays the generator chain.
type Mode int

const (
	// ModeRand draws fresh noise at every prior scale (sampling).
	ModeRand Mode = iota
	// ModeRec reuses the recorded optimal noise maps verbatim, making the
	// replay fully deterministic (reconstruction).
	ModeRec
)

func (m Mode) String() string {
	if m == ModeRec {
		return "rec"
	}
	return "rand"
}

// DrawConcat reconstructs the image-space prior for the current scale by
// replaying the chain of previously trained generators from the coarsest
// scale upward. Each prior scale's output is upsampled to the next scale's
// resolution and fed back in as the running residual.
//
// gens, noiseMaps, reals and amps are the parallel per-scale chains built by
// the orchestrator; the chain never contains the in-training generator and
// is read-only here. inS is the seed input from the immediately preceding
// scale. A shape mismatch between chain entries is a fatal precondition
// violation and surfaces as an error.
func DrawConcat(gens []Generator, noiseMaps, reals []*tensor.Tensor, amps []float64,
	inS *tensor.Tensor, mode Mode, padNoise, padImage nn.Pad2D, cfg *Config) (*tensor.Tensor, error) {

	currentScale := len(gens)
	if currentScale == 0 {
		// Nothing to replay at the coarsest scale.
		real := reals[0]
		return padImage(tensor.New(1, cfg.NcCurrent, real.Shape[2], real.Shape[3])), nil
	}
	if len(noiseMaps) < currentScale || len(amps) < currentScale || len(reals) < currentScale+1 {
		return nil, fmt.Errorf("inconsistent chains: %d generators, %d noise maps, %d amplitudes, %d reals",
			currentScale, len(noiseMaps), len(amps), len(reals))
	}

	gz := inS
	for i, g := range gens {
		if i == cfg.TokenInsert+1 {
			// Generators below the insertion scale run on group channels;
			// expand the residual to token channels before it enters the
			// first token-encoded generator.
			gz = games.GroupToToken(gz, cfg.TokenList, cfg.TokenGroups)
		}
		h, w := reals[i].Shape[2], reals[i].Shape[3]
		if gz.Shape[2] < h || gz.Shape[3] < w {
			return nil, fmt.Errorf("residual %dx%d smaller than scale %d target %dx%d",
				gz.Shape[2], gz.Shape[3], i, h, w)
		}
		gz = tensor.CropSpatial(gz, 0, 0, h, w)

		var drawn *tensor.Tensor
		if mode == ModeRand {
			if i == 0 {
				// The coarsest scale has no meaningful prior residual when
				// sampling; blank it and rely on fresh noise alone.
				gz = tensor.New(gz.Shape...)
			}
			drawn = padNoise(cfg.Noise.Spatial(1, noiseMaps[i].Shape[1], h, w))
		} else {
			drawn = noiseMaps[i] // recorded map, already padded
		}

		gzPad := padImage(gz)
		zIn, err := tensor.AddScaled(amps[i], drawn, gzPad)
		if err != nil {
			return nil, fmt.Errorf("scale %d noise/residual mismatch: %w", i, err)
		}
		out, err := g.Forward(zIn, gzPad, 1)
		if err != nil {
			return nil, fmt.Errorf("replaying generator %d: %w", i, err)
		}
		next := reals[i+1]
		gz = tensor.ResizeBilinear(out, next.Shape[2], next.Shape[3])
	}
	return gz, nil
}
