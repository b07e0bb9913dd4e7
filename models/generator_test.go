package models

import (
	"math/rand"
	"testing"

	"levelgan/tensor"

	"github.com/stretchr/testify/require"
)

func zeroConvs(g *Generator) {
	for _, c := range g.Convs() {
		for i := range c.W.Data.Data {
			c.W.Data.Data[i] = 0
		}
		for i := range c.B.Data.Data {
			c.B.Data.Data[i] = 0
		}
	}
}

func TestGeneratorOutputShape(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	g := NewGenerator(4, 8, 3, rng)

	// Inputs padded by one pixel per layer come back to the unpadded extent.
	noise := tensor.New(1, 4, 11, 12)
	prev := tensor.New(1, 4, 11, 12)
	out, err := g.Forward(noise, prev, 1)
	require.NoError(t, err)
	require.Equal(t, []int{1, 4, 5, 6}, out.Shape)
}

func TestGeneratorZeroWeightsIsUniformPlusResidual(t *testing.T) {
	// All-zero convs produce all-zero logits, so the softmax is uniform over
	// the channels and the output is 1/nc plus the center crop of the prior.
	rng := rand.New(rand.NewSource(1))
	g := NewGenerator(4, 8, 3, rng)
	zeroConvs(g)

	noise := tensor.New(1, 4, 10, 10)
	prev := tensor.Full(0.5, 1, 4, 10, 10)
	out, err := g.Forward(noise, prev, 1)
	require.NoError(t, err)
	require.Equal(t, []int{1, 4, 4, 4}, out.Shape)
	for _, v := range out.Data {
		require.InDelta(t, 0.25+0.5, v, 1e-12)
	}
}

func TestGeneratorResidualCrop(t *testing.T) {
	// The prior contributes its spatial center: mark one interior cell and
	// check it lands at the matching output position.
	rng := rand.New(rand.NewSource(1))
	g := NewGenerator(2, 8, 3, rng)
	zeroConvs(g)

	noise := tensor.New(1, 2, 9, 9)
	prev := tensor.New(1, 2, 9, 9)
	prev.Set(10, 0, 1, 4, 4) // center of the 9x9 prior
	out, err := g.Forward(noise, prev, 1)
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3, 3}, out.Shape)
	require.InDelta(t, 0.5+10, out.At(0, 1, 1, 1), 1e-12)
	require.InDelta(t, 0.5, out.At(0, 1, 0, 0), 1e-12)
}

func TestGeneratorPriorTooSmall(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	g := NewGenerator(2, 8, 3, rng)
	noise := tensor.New(1, 2, 10, 10)
	prev := tensor.New(1, 2, 2, 2)
	_, err := g.Forward(noise, prev, 1)
	require.Error(t, err)
}

func TestGeneratorBackwardFillsGrads(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	g := NewGenerator(3, 8, 3, rng)

	noise := tensor.New(1, 3, 10, 10)
	for i := range noise.Data {
		noise.Data[i] = rng.NormFloat64()
	}
	prev := tensor.New(1, 3, 10, 10)
	out, err := g.Forward(noise, prev, 1)
	require.NoError(t, err)

	g.ZeroGrad()
	_, err = g.Backward(tensor.Full(1, out.Shape...))
	require.NoError(t, err)

	var nonzero int
	for _, p := range g.Params() {
		for _, v := range p.Grad.Data {
			if v != 0 {
				nonzero++
			}
		}
	}
	require.Greater(t, nonzero, 0)
}

func TestDiscriminatorScoreMap(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	d := NewDiscriminator(4, 8, 3, rng)

	x := tensor.New(1, 4, 8, 9)
	out, err := d.Forward(x)
	require.NoError(t, err)
	// Three valid 3x3 convs shrink each spatial dim by 6, down to 1 channel.
	require.Equal(t, []int{1, 1, 2, 3}, out.Shape)

	d.ZeroGrad()
	inGrad, err := d.Backward(tensor.Full(1, out.Shape...))
	require.NoError(t, err)
	require.Equal(t, x.Shape, inGrad.Shape)
}

func TestBuildConvStackLayerCount(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	g := NewGenerator(4, 8, 5, rng)
	require.Len(t, g.Convs(), 5)
	require.Panics(t, func() { NewGenerator(4, 8, 1, rng) })
}
