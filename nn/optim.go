package nn

import (
	"math"
)

// Adam implements the Adam optimizer over a fixed parameter list.
// First/second moment estimates are kept per parameter tensor.
type Adam struct {
	params []*Param
	lr     float64
	beta1  float64
	beta2  float64
	eps    float64
	step   int
	m      [][]float64 // first moment (mean of gradients)
	v      [][]float64 // second moment (mean of squared gradients)
}

// NewAdam creates an Adam optimizer with moment buffers initialized to zero.
func NewAdam(params []*Param, lr, beta1, beta2 float64) *Adam {
	m := make([][]float64, len(params))
	v := make([][]float64, len(params))
	for i, p := range params {
		m[i] = make([]float64, len(p.Data.Data))
		v[i] = make([]float64, len(p.Data.Data))
	}
	return &Adam{
		params: params,
		lr:     lr,
		beta1:  beta1,
		beta2:  beta2,
		eps:    1e-8,
		m:      m,
		v:      v,
	}
}

// LR returns the current learning rate.
func (a *Adam) LR() float64 { return a.lr }

// SetLR overrides the learning rate (used by schedulers).
func (a *Adam) SetLR(lr float64) { a.lr = lr }

// Step applies one bias-corrected Adam update using the gradients currently
// accumulated in the parameters.
func (a *Adam) Step() {
	a.step++
	c1 := 1 - math.Pow(a.beta1, float64(a.step))
	c2 := 1 - math.Pow(a.beta2, float64(a.step))
	for i, p := range a.params {
		m, v := a.m[i], a.v[i]
		for j, g := range p.Grad.Data {
			m[j] = a.beta1*m[j] + (1-a.beta1)*g
			v[j] = a.beta2*v[j] + (1-a.beta2)*g*g
			mHat := m[j] / c1
			vHat := v[j] / c2
			p.Data.Data[j] -= a.lr * mHat / (math.Sqrt(vHat) + a.eps)
		}
	}
}

// MultiStepLR decays an optimizer's learning rate by gamma each time the
// epoch counter passes a milestone. Milestones must be sorted ascending.
type MultiStepLR struct {
	opt        *Adam
	milestones []int
	gamma      float64
	epoch      int
}

// NewMultiStepLR creates a scheduler over opt.
func NewMultiStepLR(opt *Adam, milestones []int, gamma float64) *MultiStepLR {
	return &MultiStepLR{
		opt:        opt,
		milestones: append([]int(nil), milestones...),
		gamma:      gamma,
	}
}

// Step advances the epoch counter and applies the decay when a milestone is
// reached. Call once per epoch, after the optimizer steps.
func (s *MultiStepLR) Step() {
	s.epoch++
	for _, ms := range s.milestones {
		if s.epoch == ms {
			s.opt.SetLR(s.opt.LR() * s.gamma)
		}
	}
}
