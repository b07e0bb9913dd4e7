package models

import (
	"fmt"
	"math/rand"

	"levelgan/nn"
	"levelgan/nn/layers"
	"levelgan/tensor"
	"levelgan/utils"
)

// Generator synthesizes a token-distribution map from a noise tensor and the
// image-space prior of the previous scale. The conv stack consumes the
// padding added by the caller, the logits go through a channel softmax with
// the requested temperature, and the (cropped) prior is added as a residual.
type Generator struct {
	convs   []*layers.Conv2D
	stack   *nn.Sequential
	softmax *layers.ChannelSoftmax
}

// NewGenerator builds a generator with numLayer 3x3 convolutions over nc
// token channels and nfc hidden filters, initialized from N(0, 0.02^2).
func NewGenerator(nc, nfc, numLayer int, rng *rand.Rand) *Generator {
	convs, stack := buildConvStack(nc, nfc, nc, numLayer, rng)
	return &Generator{
		convs:   convs,
		stack:   stack,
		softmax: layers.NewChannelSoftmax(1),
	}
}

// Forward runs the generator on (noise, prev). prev must be padded to the
// same spatial size as noise; the residual is center-cropped to the conv
// stack's output extent. Neither input is part of any retained graph: the
// returned tensor only backpropagates into the generator's own parameters.
func (g *Generator) Forward(noise, prev *tensor.Tensor, temperature float64) (*tensor.Tensor, error) {
	logits, err := g.stack.Forward(noise)
	if err != nil {
		return nil, err
	}
	g.softmax.Temperature = temperature
	x, err := g.softmax.Forward(logits)
	if err != nil {
		return nil, err
	}
	outH, outW := x.Shape[2], x.Shape[3]
	ind := (prev.Shape[2] - outH) / 2
	if ind < 0 {
		return nil, fmt.Errorf("prior %dx%d smaller than output %dx%d", prev.Shape[2], prev.Shape[3], outH, outW)
	}
	res := tensor.CropSpatial(prev, ind, ind, outH, outW)
	return tensor.Add(x, res)
}

// Backward propagates a loss gradient on the generator output through the
// softmax and the conv stack, accumulating parameter gradients. The residual
// branch is an identity, so the incoming gradient passes to the softmax
// unchanged; the gradient with respect to the prior is not materialized
// (training always detaches it).
func (g *Generator) Backward(gradOut *tensor.Tensor) (*tensor.Tensor, error) {
	grad, err := g.softmax.Backward(gradOut)
	if err != nil {
		return nil, err
	}
	return g.stack.Backward(grad)
}

// Params returns all trainable parameters.
func (g *Generator) Params() []*nn.Param { return g.stack.Params() }

// ZeroGrad clears all parameter gradients.
func (g *Generator) ZeroGrad() { nn.ZeroGrads(g.Params()) }

// Convs exposes the convolution layers for checkpointing.
func (g *Generator) Convs() []*layers.Conv2D { return g.convs }

// SaveCheckpoint writes the generator weights to path.
func (g *Generator) SaveCheckpoint(path string) error {
	return utils.SaveWeights(path, convWeights(g.convs))
}

// buildConvStack assembles head/body/tail 3x3 convolutions with LeakyReLU
// between them, numLayer convolutions in total.
func buildConvStack(inChan, hidden, outChan, numLayer int, rng *rand.Rand) ([]*layers.Conv2D, *nn.Sequential) {
	if numLayer < 2 {
		panic(fmt.Sprintf("conv stack needs at least 2 layers, got %d", numLayer))
	}
	var convs []*layers.Conv2D
	var mods []nn.Module

	head := layers.NewConv2D(inChan, hidden, 3, 3)
	convs = append(convs, head)
	mods = append(mods, head, layers.NewLeakyReLU(0.2))

	for i := 0; i < numLayer-2; i++ {
		c := layers.NewConv2D(hidden, hidden, 3, 3)
		convs = append(convs, c)
		mods = append(mods, c, layers.NewLeakyReLU(0.2))
	}

	tail := layers.NewConv2D(hidden, outChan, 3, 3)
	convs = append(convs, tail)
	mods = append(mods, tail)

	for _, c := range convs {
		c.InitNormal(rng, 0.02)
	}
	return convs, &nn.Sequential{Layers: mods}
}
