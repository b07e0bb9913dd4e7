package nn

import (
	"fmt"

	"levelgan/tensor"
)

// Pad2D wraps a 4D NCHW tensor with spatial padding on all four sides.
// The pad width is one pixel per convolutional layer (kernel size 3), so
// padded inputs come back to their original spatial size after the stack.
type Pad2D func(t *tensor.Tensor) *tensor.Tensor

// ZeroPad2D returns a padding function that fills the border with zeros.
func ZeroPad2D(width int) Pad2D {
	return func(t *tensor.Tensor) *tensor.Tensor {
		return pad2d(t, width, nil, true)
	}
}

// ReflectionPad2D returns a padding function that mirrors the tensor across
// its edges (edge pixels are not repeated).
func ReflectionPad2D(width int) Pad2D {
	return func(t *tensor.Tensor) *tensor.Tensor {
		return pad2d(t, width, reflectIndex, false)
	}
}

func pad2d(t *tensor.Tensor, width int, index func(y, x, h, w int) (int, int), zeroFill bool) *tensor.Tensor {
	if len(t.Shape) != 4 {
		panic(fmt.Sprintf("pad2d: expected 4D NCHW tensor, got shape %v", t.Shape))
	}
	n, c, h, w := t.Shape[0], t.Shape[1], t.Shape[2], t.Shape[3]
	oh, ow := h+2*width, w+2*width
	out := tensor.New(n, c, oh, ow)
	for b := 0; b < n; b++ {
		for ch := 0; ch < c; ch++ {
			src := t.Data[(b*c+ch)*h*w:]
			dst := out.Data[(b*c+ch)*oh*ow:]
			for y := 0; y < oh; y++ {
				for x := 0; x < ow; x++ {
					sy, sx := y-width, x-width
					if sy < 0 || sy >= h || sx < 0 || sx >= w {
						if zeroFill {
							continue
						}
						sy, sx = index(sy, sx, h, w)
					}
					dst[y*ow+x] = src[sy*w+sx]
				}
			}
		}
	}
	return out
}

// reflectIndex mirrors an out-of-range coordinate back into [0, extent).
func reflectIndex(y, x, h, w int) (int, int) {
	return reflect1(y, h), reflect1(x, w)
}

func reflect1(i, extent int) int {
	if extent == 1 {
		return 0
	}
	for i < 0 || i >= extent {
		if i < 0 {
			i = -i
		}
		if i >= extent {
			i = 2*(extent-1) - i
		}
	}
	return i
}
