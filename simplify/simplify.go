// Package simplify merges way pieces that share end points into longer
// chains of node ids.
package simplify

func reversed(s []int64) []int64 {
	out := make([]int64, len(s))
	for i, v := range s {
		out[len(s)-1-i] = v
	}
	return out
}

// merge joins b onto a when they share an end point. Pieces are flipped
// where needed, a keeps its orientation unless b has to be prepended.
func merge(a, b []int64) ([]int64, bool) {
	start, end := a[0], a[len(a)-1]
	start2, end2 := b[0], b[len(b)-1]

	switch {
	case end == start2:
		out := append([]int64(nil), a...)
		return append(out, b[1:]...), true
	case end == end2:
		out := append([]int64(nil), a...)
		return append(out, reversed(b)[1:]...), true
	case start == start2:
		out := reversed(b)
		return append(out[:len(out)-1], a...), true
	}
	return nil, false
}

// Reduce merges pieces until no two of them share an end point. Empty
// pieces are dropped. The input is not modified.
func Reduce(in [][]int64) [][]int64 {
	pieces := make([][]int64, 0, len(in))
	for _, p := range in {
		if len(p) > 0 {
			pieces = append(pieces, p)
		}
	}

	for {
		i, j, merged := findMerge(pieces)
		if merged == nil {
			return pieces
		}
		pieces[i] = merged
		pieces = append(pieces[:j], pieces[j+1:]...)
	}
}

func findMerge(pieces [][]int64) (int, int, []int64) {
	for i := range pieces {
		for j := range pieces {
			if i == j {
				continue
			}
			if merged, ok := merge(pieces[i], pieces[j]); ok {
				return i, j, merged
			}
		}
	}
	return -1, -1, nil
}

// Joined reduces the pieces and returns the resulting chain when they
// merge into exactly one.
func Joined(pieces [][]int64) ([]int64, bool) {
	out := Reduce(pieces)
	if len(out) != 1 {
		return nil, false
	}
	return out[0], true
}
