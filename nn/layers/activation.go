package layers

import (
	"fmt"
	"math"

	"levelgan/nn"
	"levelgan/tensor"
)

// LeakyReLU applies max(x, slope*x) elementwise.
type LeakyReLU struct {
	Slope     float64
	lastInput *tensor.Tensor
}

// NewLeakyReLU creates a LeakyReLU with the given negative slope.
func NewLeakyReLU(slope float64) *LeakyReLU {
	return &LeakyReLU{Slope: slope}
}

func (l *LeakyReLU) Forward(input *tensor.Tensor) (*tensor.Tensor, error) {
	out := tensor.New(input.Shape...)
	for i, v := range input.Data {
		if v > 0 {
			out.Data[i] = v
		} else {
			out.Data[i] = l.Slope * v
		}
	}
	l.lastInput = input
	return out, nil
}

func (l *LeakyReLU) Backward(gradOut *tensor.Tensor) (*tensor.Tensor, error) {
	if l.lastInput == nil {
		return nil, fmt.Errorf("no cached input for backward pass")
	}
	grad := tensor.New(gradOut.Shape...)
	for i, g := range gradOut.Data {
		if l.lastInput.Data[i] > 0 {
			grad.Data[i] = g
		} else {
			grad.Data[i] = l.Slope * g
		}
	}
	return grad, nil
}

func (l *LeakyReLU) Params() []*nn.Param { return nil }

// ChannelSoftmax normalizes a 4D NCHW tensor across the channel dimension at
// every spatial position, after scaling the logits by a temperature. The
// output is a token distribution per grid cell.
type ChannelSoftmax struct {
	Temperature float64
	lastOutput  *tensor.Tensor
}

func NewChannelSoftmax(temperature float64) *ChannelSoftmax {
	return &ChannelSoftmax{Temperature: temperature}
}

func (s *ChannelSoftmax) Forward(input *tensor.Tensor) (*tensor.Tensor, error) {
	if len(input.Shape) != 4 {
		return nil, fmt.Errorf("input must be a 4D NCHW tensor, got shape %v", input.Shape)
	}
	batch, ch, h, w := input.Shape[0], input.Shape[1], input.Shape[2], input.Shape[3]
	out := tensor.New(input.Shape...)
	plane := h * w
	for b := 0; b < batch; b++ {
		for p := 0; p < plane; p++ {
			// Max-subtraction for numerical stability
			maxLogit := math.Inf(-1)
			for c := 0; c < ch; c++ {
				v := s.Temperature * input.Data[b*ch*plane+c*plane+p]
				if v > maxLogit {
					maxLogit = v
				}
			}
			expSum := 0.0
			for c := 0; c < ch; c++ {
				e := math.Exp(s.Temperature*input.Data[b*ch*plane+c*plane+p] - maxLogit)
				out.Data[b*ch*plane+c*plane+p] = e
				expSum += e
			}
			for c := 0; c < ch; c++ {
				out.Data[b*ch*plane+c*plane+p] /= expSum
			}
		}
	}
	s.lastOutput = out
	return out, nil
}

// Backward applies the softmax Jacobian per spatial position:
// dL/dz_c = T * y_c * (dL/dy_c - sum_k dL/dy_k * y_k).
func (s *ChannelSoftmax) Backward(gradOut *tensor.Tensor) (*tensor.Tensor, error) {
	if s.lastOutput == nil {
		return nil, fmt.Errorf("no cached output for backward pass")
	}
	y := s.lastOutput
	batch, ch, h, w := y.Shape[0], y.Shape[1], y.Shape[2], y.Shape[3]
	grad := tensor.New(y.Shape...)
	plane := h * w
	for b := 0; b < batch; b++ {
		for p := 0; p < plane; p++ {
			dot := 0.0
			for c := 0; c < ch; c++ {
				i := b*ch*plane + c*plane + p
				dot += gradOut.Data[i] * y.Data[i]
			}
			for c := 0; c < ch; c++ {
				i := b*ch*plane + c*plane + p
				grad.Data[i] = s.Temperature * y.Data[i] * (gradOut.Data[i] - dot)
			}
		}
	}
	return grad, nil
}

func (s *ChannelSoftmax) Params() []*nn.Param { return nil }
