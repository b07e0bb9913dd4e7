package nn

import (
	"math/rand"

	"levelgan/tensor"

	"gonum.org/v1/gonum/floats"
)

// GradientPenalty computes the WGAN-GP regularizer for a critic at a random
// interpolation between a real and a fake sample:
//
//	xhat    = eps*real + (1-eps)*fake
//	g       = d/dxhat sum(critic(xhat))
//	penalty = lambda * (||g|| - 1)^2
//
// and accumulates its parameter gradient into the critic's parameters.
//
// The critic exposes only layer-local first-order backward passes, so the
// parameter gradient of the penalty (a Hessian-vector product with
// v = dPenalty/dg) is evaluated by central differences of first-order
// parameter gradients at xhat +/- r*v. The probe passes run on their own
// forward computations, so they cannot invalidate the real/fake branches of
// the discriminator step.
func GradientPenalty(critic Module, real, fake *tensor.Tensor, lambda float64, rng *rand.Rand) (float64, error) {
	eps := rng.Float64()
	xhat, err := tensor.AddScaled(eps, real, tensor.Scale(1-eps, fake))
	if err != nil {
		return 0, err
	}

	params := critic.Params()
	saved := snapshotGrads(params)

	g, err := inputGradient(critic, xhat)
	if err != nil {
		return 0, err
	}
	gnorm := tensor.Norm2(g)
	penalty := lambda * (gnorm - 1) * (gnorm - 1)

	if gnorm < 1e-12 {
		// Degenerate critic (all-zero input gradient): the penalty direction
		// is undefined, leave parameter gradients untouched.
		restoreGrads(params, saved)
		return penalty, nil
	}

	// v = dPenalty/dg
	v := tensor.Scale(2*lambda*(gnorm-1)/gnorm, g)

	vnorm := tensor.Norm2(v)
	hvp := make([][]float64, len(params))
	for i, p := range params {
		hvp[i] = make([]float64, len(p.Grad.Data))
	}
	if vnorm > 1e-12 {
		r := 1e-4 * (1 + tensor.Norm2(xhat)) / vnorm

		plus, err := probeParamGrads(critic, params, xhat, v, r)
		if err != nil {
			return 0, err
		}
		minus, err := probeParamGrads(critic, params, xhat, v, -r)
		if err != nil {
			return 0, err
		}
		for i := range hvp {
			for j := range hvp[i] {
				hvp[i][j] = (plus[i][j] - minus[i][j]) / (2 * r)
			}
		}
	}

	restoreGrads(params, saved)
	for i, p := range params {
		floats.Add(p.Grad.Data, hvp[i])
	}
	return penalty, nil
}

// inputGradient runs critic forward at x and backpropagates a ones gradient,
// returning d sum(critic(x)) / dx. Parameter gradients accumulate as a side
// effect; callers snapshot and restore around it.
func inputGradient(critic Module, x *tensor.Tensor) (*tensor.Tensor, error) {
	out, err := critic.Forward(x)
	if err != nil {
		return nil, err
	}
	return critic.Backward(tensor.Full(1, out.Shape...))
}

// probeParamGrads returns the parameter gradients of sum(critic(x + r*v)).
func probeParamGrads(critic Module, params []*Param, x, v *tensor.Tensor, r float64) ([][]float64, error) {
	probe, err := tensor.AddScaled(r, v, x)
	if err != nil {
		return nil, err
	}
	ZeroGrads(params)
	if _, err := inputGradient(critic, probe); err != nil {
		return nil, err
	}
	return snapshotGrads(params), nil
}

func snapshotGrads(params []*Param) [][]float64 {
	out := make([][]float64, len(params))
	for i, p := range params {
		out[i] = append([]float64(nil), p.Grad.Data...)
	}
	return out
}

func restoreGrads(params []*Param, saved [][]float64) {
	for i, p := range params {
		copy(p.Grad.Data, saved[i])
	}
}
