package train

import (
	"levelgan/tensor"
)

// UpdateNoiseAmplitude computes the noise amplitude for a scale transition
// from the root mean square error between the deterministic reconstruction
// of the previous scales and the real level at the current scale:
//
//	amplitude = noiseUpdate * sqrt(MSE(real, zPrev))
//
// It is called exactly once per scale (first epoch, first discriminator
// iteration); the returned value is held fixed for the rest of that scale's
// training.
func UpdateNoiseAmplitude(zPrev, real *tensor.Tensor, noiseUpdate float64) (float64, error) {
	rmse, err := tensor.RMSE(real, zPrev)
	if err != nil {
		return 0, err
	}
	return noiseUpdate * rmse, nil
}
