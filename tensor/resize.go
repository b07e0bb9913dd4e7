package tensor

// ResizeBilinear resamples a 4D NCHW tensor to the given spatial size using
// bilinear interpolation without corner alignment: source coordinates are
// computed as (dst+0.5)*scale - 0.5 and clamped to the input extent.
func ResizeBilinear(t *Tensor, outH, outW int) *Tensor {
	if len(t.Shape) != 4 {
		panic("ResizeBilinear: expected 4D NCHW tensor")
	}
	n, c, inH, inW := t.Shape[0], t.Shape[1], t.Shape[2], t.Shape[3]
	if inH == outH && inW == outW {
		return t.Clone()
	}
	out := New(n, c, outH, outW)
	scaleY := float64(inH) / float64(outH)
	scaleX := float64(inW) / float64(outW)

	for b := 0; b < n; b++ {
		for ch := 0; ch < c; ch++ {
			plane := t.Data[(b*c+ch)*inH*inW:]
			dst := out.Data[(b*c+ch)*outH*outW:]
			for y := 0; y < outH; y++ {
				sy := (float64(y)+0.5)*scaleY - 0.5
				y0, wy := splitCoord(sy, inH)
				for x := 0; x < outW; x++ {
					sx := (float64(x)+0.5)*scaleX - 0.5
					x0, wx := splitCoord(sx, inW)
					y1 := min(y0+1, inH-1)
					x1 := min(x0+1, inW-1)
					top := plane[y0*inW+x0]*(1-wx) + plane[y0*inW+x1]*wx
					bot := plane[y1*inW+x0]*(1-wx) + plane[y1*inW+x1]*wx
					dst[y*outW+x] = top*(1-wy) + bot*wy
				}
			}
		}
	}
	return out
}

// splitCoord clamps a source coordinate and splits it into base index and
// fractional weight.
func splitCoord(s float64, extent int) (int, float64) {
	if s < 0 {
		return 0, 0
	}
	i := int(s)
	if i >= extent-1 {
		return extent - 1, 0
	}
	return i, s - float64(i)
}
