package layers

import (
	"fmt"
	"math/rand"

	"levelgan/nn"
	"levelgan/tensor"
)

// Conv2D is a valid (unpadded) 2D convolution over NCHW tensors.
// Inputs are pre-padded by the caller's padding policy, so each 3x3 layer
// shrinks the spatial extent by two.
type Conv2D struct {
	inChan, outChan int // number of input/output channels
	kh, kw          int // kernel height and width

	W *nn.Param // weights: [outChan, inChan, kh, kw]
	B *nn.Param // bias: [outChan]

	// Cached input for backward pass
	lastInput *tensor.Tensor
}

// NewConv2D creates a new Conv2D layer with zero weights.
func NewConv2D(inChan, outChan, kh, kw int) *Conv2D {
	return &Conv2D{
		inChan:  inChan,
		outChan: outChan,
		kh:      kh,
		kw:      kw,
		W:       nn.NewParam(outChan, inChan, kh, kw),
		B:       nn.NewParam(outChan),
	}
}

// InitNormal draws the weights from N(0, stddev^2) and zeroes the bias.
func (c *Conv2D) InitNormal(rng *rand.Rand, stddev float64) {
	for i := range c.W.Data.Data {
		c.W.Data.Data[i] = rng.NormFloat64() * stddev
	}
	for i := range c.B.Data.Data {
		c.B.Data.Data[i] = 0
	}
}

// OutputShape returns the output spatial size for a given input size.
func (c *Conv2D) OutputShape(inH, inW int) (outH, outW int) {
	return inH - c.kh + 1, inW - c.kw + 1
}

// Forward performs the convolution and caches the input for Backward.
func (c *Conv2D) Forward(input *tensor.Tensor) (*tensor.Tensor, error) {
	if len(input.Shape) != 4 {
		return nil, fmt.Errorf("input must be a 4D NCHW tensor, got shape %v", input.Shape)
	}
	batch, ch, height, width := input.Shape[0], input.Shape[1], input.Shape[2], input.Shape[3]
	if ch != c.inChan {
		return nil, fmt.Errorf("expected %d input channels, got %d", c.inChan, ch)
	}
	outHeight := height - c.kh + 1
	outWidth := width - c.kw + 1
	if outHeight <= 0 || outWidth <= 0 {
		return nil, fmt.Errorf("input %dx%d too small for %dx%d kernel", height, width, c.kh, c.kw)
	}

	output := tensor.New(batch, c.outChan, outHeight, outWidth)
	c.lastInput = input

	w := c.W.Data.Data
	for b := 0; b < batch; b++ {
		for oc := 0; oc < c.outChan; oc++ {
			for y := 0; y < outHeight; y++ {
				for x := 0; x < outWidth; x++ {
					sum := c.B.Data.Data[oc]
					for ic := 0; ic < c.inChan; ic++ {
						for dy := 0; dy < c.kh; dy++ {
							for dx := 0; dx < c.kw; dx++ {
								wIdx := oc*c.inChan*c.kh*c.kw + ic*c.kh*c.kw + dy*c.kw + dx
								inIdx := b*c.inChan*height*width + ic*height*width + (y+dy)*width + (x + dx)
								sum += input.Data[inIdx] * w[wIdx]
							}
						}
					}
					output.Data[b*c.outChan*outHeight*outWidth+oc*outHeight*outWidth+y*outWidth+x] = sum
				}
			}
		}
	}
	return output, nil
}

// Backward accumulates weight/bias gradients and returns the input gradient
// (transposed convolution of gradOut with the kernel).
func (c *Conv2D) Backward(gradOut *tensor.Tensor) (*tensor.Tensor, error) {
	if c.lastInput == nil {
		return nil, fmt.Errorf("no cached input for backward pass")
	}
	if len(gradOut.Shape) != 4 {
		return nil, fmt.Errorf("gradOut must be a 4D NCHW tensor, got shape %v", gradOut.Shape)
	}
	batch, _, outHeight, outWidth := gradOut.Shape[0], gradOut.Shape[1], gradOut.Shape[2], gradOut.Shape[3]
	inHeight, inWidth := c.lastInput.Shape[2], c.lastInput.Shape[3]

	// Bias gradients: sum over all spatial positions
	for oc := 0; oc < c.outChan; oc++ {
		for b := 0; b < batch; b++ {
			for y := 0; y < outHeight; y++ {
				for x := 0; x < outWidth; x++ {
					c.B.Grad.Data[oc] += gradOut.Data[b*c.outChan*outHeight*outWidth+oc*outHeight*outWidth+y*outWidth+x]
				}
			}
		}
	}

	// Weight gradients
	for oc := 0; oc < c.outChan; oc++ {
		for ic := 0; ic < c.inChan; ic++ {
			for dy := 0; dy < c.kh; dy++ {
				for dx := 0; dx < c.kw; dx++ {
					wGradIdx := oc*c.inChan*c.kh*c.kw + ic*c.kh*c.kw + dy*c.kw + dx
					sum := 0.0
					for b := 0; b < batch; b++ {
						for y := 0; y < outHeight; y++ {
							for x := 0; x < outWidth; x++ {
								inIdx := b*c.inChan*inHeight*inWidth + ic*inHeight*inWidth + (y+dy)*inWidth + (x + dx)
								gradIdx := b*c.outChan*outHeight*outWidth + oc*outHeight*outWidth + y*outWidth + x
								sum += c.lastInput.Data[inIdx] * gradOut.Data[gradIdx]
							}
						}
					}
					c.W.Grad.Data[wGradIdx] += sum
				}
			}
		}
	}

	// Input gradients (transposed convolution)
	inputGrad := tensor.New(c.lastInput.Shape...)
	w := c.W.Data.Data
	for b := 0; b < batch; b++ {
		for ic := 0; ic < c.inChan; ic++ {
			for y := 0; y < inHeight; y++ {
				for x := 0; x < inWidth; x++ {
					sum := 0.0
					for oc := 0; oc < c.outChan; oc++ {
						for dy := 0; dy < c.kh; dy++ {
							for dx := 0; dx < c.kw; dx++ {
								oy := y - dy
								ox := x - dx
								if oy >= 0 && oy < outHeight && ox >= 0 && ox < outWidth {
									wIdx := oc*c.inChan*c.kh*c.kw + ic*c.kh*c.kw + dy*c.kw + dx
									gradIdx := b*c.outChan*outHeight*outWidth + oc*outHeight*outWidth + oy*outWidth + ox
									sum += w[wIdx] * gradOut.Data[gradIdx]
								}
							}
						}
					}
					inputGrad.Data[b*c.inChan*inHeight*inWidth+ic*inHeight*inWidth+y*inWidth+x] = sum
				}
			}
		}
	}
	return inputGrad, nil
}

// Params returns the weight and bias parameters.
func (c *Conv2D) Params() []*nn.Param {
	return []*nn.Param{c.W, c.B}
}

func (c *Conv2D) Tag() string {
	return fmt.Sprintf("Conv2D_%d_%d_%d_%d", c.inChan, c.outChan, c.kh, c.kw)
}
