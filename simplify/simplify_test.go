package simplify

import (
	"testing"

	"github.com/cheekybits/is"
)

func TestReduce(t *testing.T) {
	cases := []struct {
		name     string
		input    [][]int64
		expected [][]int64
	}{
		{
			name:     "single coordinate",
			input:    [][]int64{{1}},
			expected: [][]int64{{1}},
		},
		{
			name:     "merges lines",
			input:    [][]int64{{1, 2}, {2, 3}},
			expected: [][]int64{{1, 2, 3}},
		},
		{
			name:     "preserves bodies",
			input:    [][]int64{{1, 2, 3}, {3, 4, 5}},
			expected: [][]int64{{1, 2, 3, 4, 5}},
		},
		{
			name:     "out of order",
			input:    [][]int64{{2, 3}, {3, 4}, {1, 2}},
			expected: [][]int64{{1, 2, 3, 4}},
		},
		{
			name:     "circular",
			input:    [][]int64{{1, 2}, {2, 3}, {3, 1}},
			expected: [][]int64{{1, 2, 3, 1}},
		},
		{
			name:     "inverted",
			input:    [][]int64{{1, 2, 3}, {5, 4, 3}, {5, 6, 7}},
			expected: [][]int64{{1, 2, 3, 4, 5, 6, 7}},
		},
		{
			name:     "separate",
			input:    [][]int64{{1, 2}, {2, 3}, {4, 5}, {5, 6}},
			expected: [][]int64{{1, 2, 3}, {4, 5, 6}},
		},
		{
			name:     "shared start",
			input:    [][]int64{{1, 2, 3}, {1, 4, 5}},
			expected: [][]int64{{5, 4, 1, 2, 3}},
		},
		{
			name:     "empty pieces",
			input:    [][]int64{{}, {1, 2}, {}, {2, 3}},
			expected: [][]int64{{1, 2, 3}},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			is := is.New(t)
			is.Equal(Reduce(c.input), c.expected)
		})
	}
}

func TestReduceKeepsInput(t *testing.T) {
	is := is.New(t)

	input := [][]int64{{1, 2}, {3, 2}}
	Reduce(input)
	is.Equal(input, [][]int64{{1, 2}, {3, 2}})
}

func TestJoined(t *testing.T) {
	is := is.New(t)

	chain, ok := Joined([][]int64{{1, 2}, {2, -1, 3}, {3, 4, 5}})
	is.True(ok)
	is.Equal(chain, []int64{1, 2, -1, 3, 4, 5})

	_, ok = Joined([][]int64{{1, 2}, {3, 4}})
	is.False(ok)

	_, ok = Joined(nil)
	is.False(ok)
}

func BenchmarkReduce(b *testing.B) {
	input := [][]int64{
		{1, 2, 3},
		{3, 4, 5},
	}
	for n := 0; n < b.N; n++ {
		Reduce(input)
	}
}
