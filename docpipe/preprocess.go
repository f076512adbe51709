package docpipe

import (
	"math"
	"sort"
	"strings"
)

// preprocess normalizes a raw extraction in place: whitespace is collapsed
// inside each block, empty blocks are dropped, centers are normalized to
// [0,1] with PY growing downward, blocks are sorted into reading order, and
// the plain-text rendering is derived from the sorted blocks.
func preprocess(doc *Document) {
	kept := doc.Blocks[:0]
	for _, b := range doc.Blocks {
		b.Text = strings.Join(strings.Fields(b.Text), " ")
		if b.Text == "" {
			continue
		}
		if doc.PageWidth > 0 {
			b.PX = clamp01((b.BBox.X0 + b.BBox.X1) / 2 / doc.PageWidth)
		}
		if doc.PageHeight > 0 {
			// PDF y grows upward; flip so PY follows reading order.
			b.PY = clamp01(1 - (b.BBox.Y0+b.BBox.Y1)/2/doc.PageHeight)
		}
		kept = append(kept, b)
	}
	doc.Blocks = kept

	// Reading order: top to bottom, then left to right. Rounding keeps
	// blocks on the same visual line together despite baseline jitter.
	sort.SliceStable(doc.Blocks, func(i, j int) bool {
		yi, yj := round3(doc.Blocks[i].PY), round3(doc.Blocks[j].PY)
		if yi != yj {
			return yi < yj
		}
		return round3(doc.Blocks[i].PX) < round3(doc.Blocks[j].PX)
	})

	texts := make([]string, len(doc.Blocks))
	for i, b := range doc.Blocks {
		texts[i] = b.Text
	}
	doc.RawText = strings.Join(texts, "\n")
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
