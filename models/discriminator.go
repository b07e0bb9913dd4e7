package models

import (
	"math/rand"

	"levelgan/nn"
	"levelgan/nn/layers"
	"levelgan/tensor"
	"levelgan/utils"
)

// Discriminator is a Wasserstein critic: an unpadded conv stack mapping a
// token-channel level tensor to a single-channel score map. Losses take the
// mean of the map.
type Discriminator struct {
	convs []*layers.Conv2D
	stack *nn.Sequential
}

// NewDiscriminator builds a critic with numLayer 3x3 convolutions over nc
// token channels and nfc hidden filters, initialized from N(0, 0.02^2).
func NewDiscriminator(nc, nfc, numLayer int, rng *rand.Rand) *Discriminator {
	convs, stack := buildConvStack(nc, nfc, 1, numLayer, rng)
	return &Discriminator{convs: convs, stack: stack}
}

// Forward returns the critic's score map for x.
func (d *Discriminator) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	return d.stack.Forward(x)
}

// Backward propagates a gradient on the score map back to the input,
// accumulating parameter gradients.
func (d *Discriminator) Backward(gradOut *tensor.Tensor) (*tensor.Tensor, error) {
	return d.stack.Backward(gradOut)
}

// Params returns all trainable parameters.
func (d *Discriminator) Params() []*nn.Param { return d.stack.Params() }

// ZeroGrad clears all parameter gradients.
func (d *Discriminator) ZeroGrad() { nn.ZeroGrads(d.Params()) }

// Convs exposes the convolution layers for checkpointing.
func (d *Discriminator) Convs() []*layers.Conv2D { return d.convs }

// SaveCheckpoint writes the discriminator weights to path.
func (d *Discriminator) SaveCheckpoint(path string) error {
	return utils.SaveWeights(path, convWeights(d.convs))
}
