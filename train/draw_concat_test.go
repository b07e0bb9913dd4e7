package train

import (
	"math/rand"
	"testing"

	"levelgan/games"
	"levelgan/models"
	"levelgan/tensor"

	"github.com/stretchr/testify/require"
)

func drawConcatFixture(t *testing.T) (*Config, []Generator, []*tensor.Tensor, []*tensor.Tensor, []float64, *tensor.Tensor) {
	t.Helper()
	cfg := NewConfig(games.MarioKart, t.TempDir(), 11)
	cfg.NcCurrent = 4

	rng := rand.New(rand.NewSource(11))
	g := models.NewGenerator(4, 8, 3, rng)

	reals := []*tensor.Tensor{
		tensor.New(1, 4, 5, 6),
		tensor.New(1, 4, 6, 8),
	}
	for _, r := range reals {
		for i := range r.Data {
			r.Data[i] = rng.Float64()
		}
	}
	padNoise, _ := cfg.PadFuncs()
	noiseMaps := []*tensor.Tensor{padNoise(cfg.Noise.Spatial(1, 4, 5, 6))}
	amps := []float64{0.5}
	inS := tensor.New(1, 4, 5, 6)
	return cfg, []Generator{g}, reals, noiseMaps, amps, inS
}

func TestDrawConcatScaleZero(t *testing.T) {
	cfg := NewConfig(games.MarioKart, t.TempDir(), 1)
	cfg.NcCurrent = 4
	padNoise, padImage := cfg.PadFuncs()

	reals := []*tensor.Tensor{tensor.New(1, 4, 5, 6)}
	out, err := DrawConcat(nil, nil, reals, nil, nil, ModeRand, padNoise, padImage, cfg)
	require.NoError(t, err)

	// Nothing to replay: a zero prior padded to the receptive field.
	require.Equal(t, []int{1, 4, 11, 12}, out.Shape)
	for _, v := range out.Data {
		require.Equal(t, 0.0, v)
	}
}

func TestDrawConcatRecDeterministic(t *testing.T) {
	cfg, gens, reals, noiseMaps, amps, inS := drawConcatFixture(t)
	padNoise, padImage := cfg.PadFuncs()

	a, err := DrawConcat(gens, noiseMaps, reals, amps, inS, ModeRec, padNoise, padImage, cfg)
	require.NoError(t, err)
	b, err := DrawConcat(gens, noiseMaps, reals, amps, inS, ModeRec, padNoise, padImage, cfg)
	require.NoError(t, err)

	require.Equal(t, []int{1, 4, 6, 8}, a.Shape)
	require.Equal(t, a.Data, b.Data)
	require.True(t, tensor.IsFinite(a))
}

func TestDrawConcatRandSamples(t *testing.T) {
	cfg, gens, reals, noiseMaps, amps, inS := drawConcatFixture(t)
	padNoise, padImage := cfg.PadFuncs()

	a, err := DrawConcat(gens, noiseMaps, reals, amps, inS, ModeRand, padNoise, padImage, cfg)
	require.NoError(t, err)
	b, err := DrawConcat(gens, noiseMaps, reals, amps, inS, ModeRand, padNoise, padImage, cfg)
	require.NoError(t, err)

	// Same extent as the next scale, different draws.
	require.Equal(t, []int{1, 4, 6, 8}, a.Shape)
	require.Equal(t, a.Shape, b.Shape)
	require.NotEqual(t, a.Data, b.Data)
}

func TestDrawConcatInconsistentChains(t *testing.T) {
	cfg, gens, reals, _, _, inS := drawConcatFixture(t)
	padNoise, padImage := cfg.PadFuncs()

	_, err := DrawConcat(gens, nil, reals, nil, inS, ModeRec, padNoise, padImage, cfg)
	require.Error(t, err)
}

func TestDrawConcatResidualTooSmall(t *testing.T) {
	cfg, gens, reals, noiseMaps, amps, _ := drawConcatFixture(t)
	padNoise, padImage := cfg.PadFuncs()

	small := tensor.New(1, 4, 3, 3)
	_, err := DrawConcat(gens, noiseMaps, reals, amps, small, ModeRand, padNoise, padImage, cfg)
	require.Error(t, err)
}

func TestDrawConcatTokenInsertionBoundary(t *testing.T) {
	// With insertion at scale 0, the chain generator at position 0 works on
	// group channels and the one at position 1 on token channels; the replay
	// must widen the residual when crossing that boundary.
	cfg := NewConfig(games.MarioKart, t.TempDir(), 13)
	cfg.TokenInsert = 0
	nGroups := len(games.MarioKart.TokenGroups())
	nTokens := len(games.MarioKart.Tokens())

	rng := rand.New(rand.NewSource(13))
	g0 := models.NewGenerator(nGroups, 8, 3, rng)
	g1 := models.NewGenerator(nTokens, 8, 3, rng)

	reals := []*tensor.Tensor{
		tensor.New(1, nGroups, 7, 7),
		tensor.New(1, nTokens, 7, 8),
		tensor.New(1, nTokens, 8, 10),
	}
	padNoise, padImage := cfg.PadFuncs()
	noiseMaps := []*tensor.Tensor{
		padNoise(cfg.Noise.Spatial(1, nGroups, 7, 7)),
		padNoise(cfg.Noise.Spatial(1, nTokens, 7, 8)),
	}
	amps := []float64{1, 0.5}
	inS := tensor.New(1, nGroups, 7, 7)

	for _, mode := range []Mode{ModeRec, ModeRand} {
		out, err := DrawConcat([]Generator{g0, g1}, noiseMaps, reals, amps,
			inS, mode, padNoise, padImage, cfg)
		require.NoError(t, err, mode.String())
		require.Equal(t, []int{1, nTokens, 8, 10}, out.Shape, mode.String())
	}
}

func TestModeString(t *testing.T) {
	require.Equal(t, "rand", ModeRand.String())
	require.Equal(t, "rec", ModeRec.String())
}
