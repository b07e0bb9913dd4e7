package games

import (
	"fmt"
	"strings"

	"levelgan/tensor"
)

// ASCIIToOneHot encodes a rectangular ASCII level into a one-hot tensor
// [1, len(tokens), height, width].
func ASCIIToOneHot(lines []string, tokens []string) (*tensor.Tensor, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("empty level")
	}
	index := tokenIndex(tokens)
	h := len(lines)
	w := len(lines[0])
	out := tensor.New(1, len(tokens), h, w)
	for y, line := range lines {
		if len(line) != w {
			return nil, fmt.Errorf("ragged level: row %d has width %d, want %d", y, len(line), w)
		}
		for x := 0; x < w; x++ {
			tok := string(line[x])
			c, ok := index[tok]
			if !ok {
				return nil, fmt.Errorf("unknown token %q at (%d,%d)", tok, y, x)
			}
			out.Set(1, 0, c, y, x)
		}
	}
	return out, nil
}

// OneHotToASCII renders a level tensor [1, C, H, W] to text rows by taking
// the argmax token at every grid cell.
func OneHotToASCII(t *tensor.Tensor, tokens []string) []string {
	h, w := t.Shape[2], t.Shape[3]
	ch := t.Shape[1]
	lines := make([]string, h)
	var sb strings.Builder
	for y := 0; y < h; y++ {
		sb.Reset()
		for x := 0; x < w; x++ {
			best := 0
			bestVal := t.At(0, 0, y, x)
			for c := 1; c < ch && c < len(tokens); c++ {
				if v := t.At(0, c, y, x); v > bestVal {
					best, bestVal = c, v
				}
			}
			sb.WriteString(tokens[best])
		}
		lines[y] = sb.String()
	}
	return lines
}

// TokenToGroup collapses a full token encoding [1, len(tokens), H, W] into a
// group encoding [1, len(groups), H, W] by summing each group's member
// channels.
func TokenToGroup(t *tensor.Tensor, tokens []string, groups []TokenGroup) *tensor.Tensor {
	index := tokenIndex(tokens)
	h, w := t.Shape[2], t.Shape[3]
	out := tensor.New(1, len(groups), h, w)
	for gi, group := range groups {
		for _, tok := range group.Tokens {
			c, ok := index[tok]
			if !ok {
				continue
			}
			for y := 0; y < h; y++ {
				for x := 0; x < w; x++ {
					out.Set(out.At(0, gi, y, x)+t.At(0, c, y, x), 0, gi, y, x)
				}
			}
		}
	}
	return out
}

// GroupToToken expands a group encoding [1, len(groups), H, W] back to the
// full token encoding, assigning each group's mass to its representative
// (first) token channel.
func GroupToToken(t *tensor.Tensor, tokens []string, groups []TokenGroup) *tensor.Tensor {
	index := tokenIndex(tokens)
	h, w := t.Shape[2], t.Shape[3]
	out := tensor.New(1, len(tokens), h, w)
	for gi, group := range groups {
		c, ok := index[group.Tokens[0]]
		if !ok {
			continue
		}
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				out.Set(t.At(0, gi, y, x), 0, c, y, x)
			}
		}
	}
	return out
}

func tokenIndex(tokens []string) map[string]int {
	index := make(map[string]int, len(tokens))
	for i, tok := range tokens {
		index[tok] = i
	}
	return index
}
