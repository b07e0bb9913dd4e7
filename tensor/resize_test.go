package tensor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResizeBilinearIdentity(t *testing.T) {
	x := New(1, 2, 3, 4)
	for i := range x.Data {
		x.Data[i] = float64(i)
	}
	out := ResizeBilinear(x, 3, 4)
	require.Equal(t, x.Data, out.Data)
	// Clone, not alias.
	out.Data[0] = -1
	require.Equal(t, 0.0, x.Data[0])
}

func TestResizeBilinearConstant(t *testing.T) {
	x := Full(3.5, 1, 2, 5, 7)
	for _, size := range [][2]int{{3, 4}, {10, 14}, {5, 5}} {
		out := ResizeBilinear(x, size[0], size[1])
		require.Equal(t, []int{1, 2, size[0], size[1]}, out.Shape)
		for _, v := range out.Data {
			require.InDelta(t, 3.5, v, 1e-12)
		}
	}
}

func TestResizeBilinearUpsample(t *testing.T) {
	// 2x2 ramp [[0,1],[2,3]] upsampled to 4x4. With half-pixel centers the
	// source coordinate for dst index (0,1,2,3) is (0, 0.25, 0.75, 1) after
	// clamping, so every output value is 2*cy + cx.
	x := New(1, 1, 2, 2)
	copy(x.Data, []float64{0, 1, 2, 3})
	out := ResizeBilinear(x, 4, 4)

	coord := []float64{0, 0.25, 0.75, 1}
	for y := 0; y < 4; y++ {
		for x4 := 0; x4 < 4; x4++ {
			want := 2*coord[y] + coord[x4]
			require.InDelta(t, want, out.At(0, 0, y, x4), 1e-12, "at (%d,%d)", y, x4)
		}
	}
}

func TestResizeBilinearDownsampleRange(t *testing.T) {
	// Downsampling an arbitrary plane never leaves the input value range.
	x := New(1, 1, 8, 8)
	for i := range x.Data {
		x.Data[i] = float64(i % 5)
	}
	out := ResizeBilinear(x, 3, 3)
	for _, v := range out.Data {
		require.GreaterOrEqual(t, v, 0.0)
		require.LessOrEqual(t, v, 4.0)
	}
}

func TestResizeBilinearNon4D(t *testing.T) {
	require.Panics(t, func() { ResizeBilinear(New(2, 2), 4, 4) })
}
