package nn

import (
	"testing"

	"levelgan/tensor"

	"github.com/stretchr/testify/require"
)

func TestZeroPad2D(t *testing.T) {
	x := tensor.New(1, 1, 2, 2)
	copy(x.Data, []float64{1, 2, 3, 4})

	out := ZeroPad2D(1)(x)
	require.Equal(t, []int{1, 1, 4, 4}, out.Shape)

	// Interior preserved.
	require.Equal(t, 1.0, out.At(0, 0, 1, 1))
	require.Equal(t, 2.0, out.At(0, 0, 1, 2))
	require.Equal(t, 3.0, out.At(0, 0, 2, 1))
	require.Equal(t, 4.0, out.At(0, 0, 2, 2))

	// Border is zero.
	for i := 0; i < 4; i++ {
		require.Equal(t, 0.0, out.At(0, 0, 0, i))
		require.Equal(t, 0.0, out.At(0, 0, 3, i))
		require.Equal(t, 0.0, out.At(0, 0, i, 0))
		require.Equal(t, 0.0, out.At(0, 0, i, 3))
	}
}

func TestReflectionPad2D(t *testing.T) {
	// 3x3 grid 1..9; width-1 reflection mirrors across the edge without
	// repeating the edge row/column itself.
	x := tensor.New(1, 1, 3, 3)
	for i := range x.Data {
		x.Data[i] = float64(i + 1)
	}
	out := ReflectionPad2D(1)(x)
	require.Equal(t, []int{1, 1, 5, 5}, out.Shape)

	// Top border reflects row 1 (values 4,5,6), corner reflects (1,1)=5.
	require.Equal(t, 5.0, out.At(0, 0, 0, 0))
	require.Equal(t, 4.0, out.At(0, 0, 0, 1))
	require.Equal(t, 5.0, out.At(0, 0, 0, 2))
	require.Equal(t, 6.0, out.At(0, 0, 0, 3))
	// Left border reflects column 1 (values 2,5,8).
	require.Equal(t, 2.0, out.At(0, 0, 1, 0))
	require.Equal(t, 5.0, out.At(0, 0, 2, 0))
	require.Equal(t, 8.0, out.At(0, 0, 3, 0))
	// Bottom-right corner reflects (1,1) from the far side: value 5.
	require.Equal(t, 5.0, out.At(0, 0, 4, 4))
	// Interior intact.
	require.Equal(t, 5.0, out.At(0, 0, 2, 2))
	require.Equal(t, 9.0, out.At(0, 0, 3, 3))
}

func TestReflectionPad2DWiderThanInput(t *testing.T) {
	// Width larger than the extent still stays in bounds by repeated folding.
	x := tensor.New(1, 1, 2, 2)
	copy(x.Data, []float64{1, 2, 3, 4})
	out := ReflectionPad2D(3)(x)
	require.Equal(t, []int{1, 1, 8, 8}, out.Shape)
	for _, v := range out.Data {
		require.Contains(t, []float64{1, 2, 3, 4}, v)
	}
}

func TestPad2DMultiChannel(t *testing.T) {
	x := tensor.New(1, 2, 2, 2)
	for i := range x.Data {
		x.Data[i] = float64(i)
	}
	out := ZeroPad2D(2)(x)
	require.Equal(t, []int{1, 2, 6, 6}, out.Shape)
	require.Equal(t, x.At(0, 1, 0, 0), out.At(0, 1, 2, 2))
	require.Equal(t, x.At(0, 1, 1, 1), out.At(0, 1, 3, 3))
}
