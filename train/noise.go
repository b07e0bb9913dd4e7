package train

import (
	"fmt"

	"levelgan/tensor"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// NoiseSource draws spatially uncorrelated standard-normal noise tensors.
// In correlated mode a single channel is drawn and broadcast across all
// channels, which some token-group configurations use.
type NoiseSource struct {
	dist       distuv.Normal
	correlated bool
}

// NewNoiseSource creates a deterministic noise source.
func NewNoiseSource(seed uint64, correlated bool) *NoiseSource {
	return &NoiseSource{
		dist: distuv.Normal{
			Mu:    0,
			Sigma: 1,
			Src:   rand.NewSource(seed),
		},
		correlated: correlated,
	}
}

// Spatial returns a fresh noise tensor of the given NCHW shape.
func (s *NoiseSource) Spatial(shape ...int) *tensor.Tensor {
	if len(shape) != 4 {
		panic(fmt.Sprintf("Spatial: expected NCHW shape, got %v", shape))
	}
	out := tensor.New(shape...)
	if !s.correlated {
		for i := range out.Data {
			out.Data[i] = s.dist.Rand()
		}
		return out
	}
	// One channel, broadcast.
	n, c, h, w := shape[0], shape[1], shape[2], shape[3]
	plane := make([]float64, h*w)
	for b := 0; b < n; b++ {
		for i := range plane {
			plane[i] = s.dist.Rand()
		}
		for ch := 0; ch < c; ch++ {
			copy(out.Data[(b*c+ch)*h*w:(b*c+ch+1)*h*w], plane)
		}
	}
	return out
}
