package train

import (
	"math"
	"path/filepath"
	"strconv"

	"levelgan/games"
	"levelgan/tensor"
	"levelgan/utils"
)

// TrainedScales holds the per-scale chains produced by a completed run.
type TrainedScales struct {
	Generators []Generator
	NoiseMaps  []*tensor.Tensor
	NoiseAmps  []float64
	Reals      []*tensor.Tensor
}

// BuildPyramid downscales a one-hot level tensor into numScales resolutions,
// coarsest first. The finest scale is the level itself; each coarser scale
// shrinks by scaleFactor, floored at minSize so every scale still covers the
// critic's receptive field (Config.MinSize).
func BuildPyramid(level *tensor.Tensor, numScales int, scaleFactor float64, minSize int) []*tensor.Tensor {
	h, w := level.Shape[2], level.Shape[3]
	out := make([]*tensor.Tensor, numScales)
	for s := 0; s < numScales; s++ {
		f := math.Pow(scaleFactor, float64(numScales-1-s))
		hs := max(minSize, int(math.Round(float64(h)*f)))
		ws := max(minSize, int(math.Round(float64(w)*f)))
		out[s] = tensor.ResizeBilinear(level, hs, ws)
	}
	return out
}

// PrepareScales applies the token-group encoding to every scale at or below
// the insertion scale. Scales above it keep the full token encoding.
func PrepareScales(reals []*tensor.Tensor, cfg *Config) []*tensor.Tensor {
	out := make([]*tensor.Tensor, len(reals))
	for s, r := range reals {
		if cfg.TokenInsert >= 0 && s <= cfg.TokenInsert {
			out[s] = games.TokenToGroup(r, cfg.TokenList, cfg.TokenGroups)
		} else {
			out[s] = r
		}
	}
	return out
}

// Train runs the full multi-scale loop: scales train strictly sequentially,
// each consuming the frozen chains of all coarser scales. newD/newG build a
// fresh model pair per scale with the given channel count. Artifacts land
// under cfg.Outf/<scale>/.
func Train(reals []*tensor.Tensor,
	newD func(scale, nc int) Discriminator,
	newG func(scale, nc int) Generator,
	cfg *Config) (*TrainedScales, error) {

	prepared := PrepareScales(reals, cfg)

	var (
		gens []Generator
		maps []*tensor.Tensor
		amps []float64
	)
	first := prepared[0]
	inS := tensor.New(1, first.Shape[1], first.Shape[2], first.Shape[3])
	baseOutf := cfg.Outf

	for s := range prepared {
		scoped := *cfg
		scoped.NcCurrent = prepared[s].Shape[1]
		scoped.Outf = filepath.Join(baseOutf, strconv.Itoa(s))

		d := newD(s, scoped.NcCurrent)
		g := newG(s, scoped.NcCurrent)

		res, err := TrainSingleScale(d, g, prepared, gens, maps, inS, amps, &scoped)
		if err != nil {
			return nil, err
		}
		gens = append(gens, res.G)
		maps = append(maps, res.ZOpt)
		amps = append(amps, res.NoiseAmp)
		inS = res.InputFromPrevScale
		utils.Logf("Scale %d done (noise amplitude %.4f)", s, res.NoiseAmp)
	}
	return &TrainedScales{
		Generators: gens,
		NoiseMaps:  maps,
		NoiseAmps:  amps,
		Reals:      prepared,
	}, nil
}
