package nn

import (
	"levelgan/tensor"
)

// Param is a trainable tensor together with its accumulated gradient.
type Param struct {
	Data *tensor.Tensor
	Grad *tensor.Tensor
}

// NewParam allocates a parameter and its gradient buffer of the given shape.
func NewParam(shape ...int) *Param {
	return &Param{
		Data: tensor.New(shape...),
		Grad: tensor.New(shape...),
	}
}

// ZeroGrad clears the accumulated gradient.
func (p *Param) ZeroGrad() {
	for i := range p.Grad.Data {
		p.Grad.Data[i] = 0
	}
}

// Module defines a single differentiable layer/unit in the network.
//
// Forward caches whatever the layer needs for its backward pass, so a
// Backward call must directly follow the Forward call it differentiates.
// Backward takes the gradient of the loss with respect to the module's
// output, accumulates parameter gradients, and returns the gradient of the
// loss with respect to the module's input.
type Module interface {
	Forward(input *tensor.Tensor) (*tensor.Tensor, error)
	Backward(gradOut *tensor.Tensor) (*tensor.Tensor, error)
	Params() []*Param
}

// Sequential chains multiple Modules in order.
type Sequential struct {
	Layers []Module
}

// Forward applies each layer in sequence.
func (s *Sequential) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	var err error
	out := x
	for _, layer := range s.Layers {
		out, err = layer.Forward(out)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Backward applies Backward in reverse order.
func (s *Sequential) Backward(grad *tensor.Tensor) (*tensor.Tensor, error) {
	var err error
	out := grad
	for i := len(s.Layers) - 1; i >= 0; i-- {
		out, err = s.Layers[i].Backward(out)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Params collects the parameters of all layers.
func (s *Sequential) Params() []*Param {
	var ps []*Param
	for _, layer := range s.Layers {
		ps = append(ps, layer.Params()...)
	}
	return ps
}

// ZeroGrads clears the gradients of every parameter in ps.
func ZeroGrads(ps []*Param) {
	for _, p := range ps {
		p.ZeroGrad()
	}
}
