package tensor

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Tensor is a simple n-D array backed by a flat []float64.
// Level tensors follow the NCHW layout [batch, channel, height, width].
type Tensor struct {
	Data  []float64
	Shape []int
}

// New allocates a zero-filled Tensor of given shape (product of dims = len(Data)).
func New(shape ...int) *Tensor {
	// Compute total size
	total := 1
	for _, d := range shape {
		total *= d
	}
	return &Tensor{
		Data:  make([]float64, total),
		Shape: append([]int(nil), shape...),
	}
}

// NewWithData creates a 1-D tensor from existing data slice.
func NewWithData(data []float64) *Tensor {
	return &Tensor{
		Data:  append([]float64(nil), data...),
		Shape: []int{len(data)},
	}
}

// Full allocates a Tensor of given shape with every element set to v.
func Full(v float64, shape ...int) *Tensor {
	out := New(shape...)
	for i := range out.Data {
		out.Data[i] = v
	}
	return out
}

// Clone returns a deep copy of t.
func (t *Tensor) Clone() *Tensor {
	out := New(t.Shape...)
	copy(out.Data, t.Data)
	return out
}

// NumElems returns the total number of elements.
func (t *Tensor) NumElems() int {
	return len(t.Data)
}

// SameShape reports whether a and b have identical shapes.
func SameShape(a, b *Tensor) bool {
	if len(a.Shape) != len(b.Shape) {
		return false
	}
	for i := range a.Shape {
		if a.Shape[i] != b.Shape[i] {
			return false
		}
	}
	return true
}

// Add returns a+b (same shape), or error if shapes differ.
func Add(a, b *Tensor) (*Tensor, error) {
	if !SameShape(a, b) {
		return nil, fmt.Errorf("shape mismatch: %v vs %v", a.Shape, b.Shape)
	}
	out := New(a.Shape...)
	copy(out.Data, a.Data)
	floats.Add(out.Data, b.Data)
	return out, nil
}

// Sub returns a-b (same shape), or error if shapes differ.
func Sub(a, b *Tensor) (*Tensor, error) {
	if !SameShape(a, b) {
		return nil, fmt.Errorf("shape mismatch: %v vs %v", a.Shape, b.Shape)
	}
	out := New(a.Shape...)
	copy(out.Data, a.Data)
	floats.Sub(out.Data, b.Data)
	return out, nil
}

// Scale returns s*a as a new tensor.
func Scale(s float64, a *Tensor) *Tensor {
	out := a.Clone()
	floats.Scale(s, out.Data)
	return out
}

// AddScaled returns s*a + b, the blend used when mixing fresh noise into an
// image-space prior. Shapes must match.
func AddScaled(s float64, a, b *Tensor) (*Tensor, error) {
	if !SameShape(a, b) {
		return nil, fmt.Errorf("shape mismatch: %v vs %v", a.Shape, b.Shape)
	}
	out := b.Clone()
	floats.AddScaled(out.Data, s, a.Data)
	return out, nil
}

// Mean returns the arithmetic mean of all elements.
func Mean(t *Tensor) float64 {
	if len(t.Data) == 0 {
		return 0
	}
	return floats.Sum(t.Data) / float64(len(t.Data))
}

// MSE returns the mean squared error between a and b.
func MSE(a, b *Tensor) (float64, error) {
	if !SameShape(a, b) {
		return 0, fmt.Errorf("shape mismatch: %v vs %v", a.Shape, b.Shape)
	}
	sum := 0.0
	for i := range a.Data {
		d := a.Data[i] - b.Data[i]
		sum += d * d
	}
	return sum / float64(len(a.Data)), nil
}

// RMSE returns sqrt(MSE(a, b)).
func RMSE(a, b *Tensor) (float64, error) {
	mse, err := MSE(a, b)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// Norm2 returns the L2 norm over all elements.
func Norm2(t *Tensor) float64 {
	return floats.Norm(t.Data, 2)
}

// IsFinite reports whether every element is neither NaN nor Inf.
func IsFinite(t *Tensor) bool {
	for _, v := range t.Data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// CropSpatial returns the [top:top+h, left:left+w] spatial window of a 4D
// NCHW tensor.
func CropSpatial(t *Tensor, top, left, h, w int) *Tensor {
	if len(t.Shape) != 4 {
		panic(fmt.Sprintf("CropSpatial: expected 4D tensor, got shape %v", t.Shape))
	}
	n, c, ih, iw := t.Shape[0], t.Shape[1], t.Shape[2], t.Shape[3]
	if top < 0 || left < 0 || top+h > ih || left+w > iw {
		panic(fmt.Sprintf("CropSpatial: window [%d:%d, %d:%d] out of bounds for %dx%d", top, top+h, left, left+w, ih, iw))
	}
	out := New(n, c, h, w)
	for b := 0; b < n; b++ {
		for ch := 0; ch < c; ch++ {
			for y := 0; y < h; y++ {
				srcOff := b*c*ih*iw + ch*ih*iw + (top+y)*iw + left
				dstOff := b*c*h*w + ch*h*w + y*w
				copy(out.Data[dstOff:dstOff+w], t.Data[srcOff:srcOff+w])
			}
		}
	}
	return out
}

// At returns the element at the given indices.
// For a 4D tensor [a, b, c, d], At(i, j, k, l) returns the element at position [i][j][k][l].
func (t *Tensor) At(indices ...int) float64 {
	return t.Data[t.linearIndex("At", indices)]
}

// Set sets the element at the given indices to the given value.
func (t *Tensor) Set(value float64, indices ...int) {
	t.Data[t.linearIndex("Set", indices)] = value
}

func (t *Tensor) linearIndex(op string, indices []int) int {
	if len(indices) != len(t.Shape) {
		panic(fmt.Sprintf("%s: expected %d indices, got %d", op, len(t.Shape), len(indices)))
	}
	idx := 0
	stride := 1
	for i := len(indices) - 1; i >= 0; i-- {
		if indices[i] < 0 || indices[i] >= t.Shape[i] {
			panic(fmt.Sprintf("%s: index %d out of bounds for dimension %d (shape: %v)", op, indices[i], i, t.Shape))
		}
		idx += indices[i] * stride
		stride *= t.Shape[i]
	}
	return idx
}
