package tensor

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewZeroFilled(t *testing.T) {
	x := New(2, 3, 4, 5)
	require.Equal(t, []int{2, 3, 4, 5}, x.Shape)
	require.Equal(t, 120, x.NumElems())
	for _, v := range x.Data {
		require.Equal(t, 0.0, v)
	}
}

func TestFullAndClone(t *testing.T) {
	x := Full(2.5, 2, 2)
	for _, v := range x.Data {
		require.Equal(t, 2.5, v)
	}
	y := x.Clone()
	y.Data[0] = -1
	require.Equal(t, 2.5, x.Data[0])
}

func TestAddSub(t *testing.T) {
	a := NewWithData([]float64{1, 2, 3})
	b := NewWithData([]float64{10, 20, 30})

	sum, err := Add(a, b)
	require.NoError(t, err)
	require.Equal(t, []float64{11, 22, 33}, sum.Data)

	diff, err := Sub(b, a)
	require.NoError(t, err)
	require.Equal(t, []float64{9, 18, 27}, diff.Data)

	// Inputs untouched.
	require.Equal(t, []float64{1, 2, 3}, a.Data)
}

func TestAddShapeMismatch(t *testing.T) {
	a := New(2, 2)
	b := New(2, 3)
	_, err := Add(a, b)
	require.Error(t, err)
	_, err = Sub(a, b)
	require.Error(t, err)
	_, err = AddScaled(1, a, b)
	require.Error(t, err)
}

func TestScaleAndAddScaled(t *testing.T) {
	a := NewWithData([]float64{1, -2, 4})
	require.Equal(t, []float64{0.5, -1, 2}, Scale(0.5, a).Data)

	b := NewWithData([]float64{10, 10, 10})
	out, err := AddScaled(2, a, b)
	require.NoError(t, err)
	// 2*a + b
	require.Equal(t, []float64{12, 6, 18}, out.Data)
	require.Equal(t, []float64{10, 10, 10}, b.Data)
}

func TestMean(t *testing.T) {
	require.Equal(t, 2.5, Mean(NewWithData([]float64{1, 2, 3, 4})))
	require.Equal(t, 0.0, Mean(New(0)))
}

func TestMSEAndRMSE(t *testing.T) {
	a := NewWithData([]float64{0, 0, 0, 0})
	b := NewWithData([]float64{2, 2, 2, 2})

	mse, err := MSE(a, b)
	require.NoError(t, err)
	require.Equal(t, 4.0, mse)

	rmse, err := RMSE(a, b)
	require.NoError(t, err)
	require.Equal(t, 2.0, rmse)
}

func TestNorm2(t *testing.T) {
	require.Equal(t, 5.0, Norm2(NewWithData([]float64{3, 4})))
}

func TestIsFinite(t *testing.T) {
	require.True(t, IsFinite(NewWithData([]float64{1, -2, 0})))

	nan := NewWithData([]float64{1, 2})
	nan.Data[1] = math.NaN()
	require.False(t, IsFinite(nan))

	inf := NewWithData([]float64{1, math.Inf(-1)})
	require.False(t, IsFinite(inf))
}

func TestCropSpatial(t *testing.T) {
	x := New(1, 1, 4, 4)
	for i := range x.Data {
		x.Data[i] = float64(i)
	}
	// Rows 1..2, cols 1..2 of a 4x4 grid counting 0..15.
	out := CropSpatial(x, 1, 1, 2, 2)
	require.Equal(t, []int{1, 1, 2, 2}, out.Shape)
	require.Equal(t, []float64{5, 6, 9, 10}, out.Data)
}

func TestCropSpatialOutOfBounds(t *testing.T) {
	x := New(1, 1, 4, 4)
	require.Panics(t, func() { CropSpatial(x, 2, 2, 3, 3) })
	require.Panics(t, func() { CropSpatial(NewWithData([]float64{1}), 0, 0, 1, 1) })
}

func TestAtSet(t *testing.T) {
	x := New(1, 2, 3, 4)
	x.Set(7, 0, 1, 2, 3)
	require.Equal(t, 7.0, x.At(0, 1, 2, 3))
	require.Equal(t, 7.0, x.Data[len(x.Data)-1])
	require.Panics(t, func() { x.At(0, 1, 2) })
	require.Panics(t, func() { x.At(0, 2, 0, 0) })
}
