package shards

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func sizes[T any](chunks [][]T) []int {
	out := make([]int, len(chunks))
	for i, c := range chunks {
		out[i] = len(c)
	}
	return out
}

func TestPartition_Sizes(t *testing.T) {
	tests := []struct {
		n, k int
		want []int
	}{
		{10, 3, []int{3, 3, 4}},
		{10, 1, []int{10}},
		{10, 10, []int{1, 1, 1, 1, 1, 1, 1, 1, 1, 1}},
		{11, 4, []int{2, 2, 2, 5}},
		{3, 5, []int{0, 0, 0, 0, 3}},
		{0, 3, []int{0, 0, 0}},
		{0, 1, []int{0}},
		{127, 8, []int{15, 15, 15, 15, 15, 15, 15, 22}},
		{25000, 64, append(repeat(390, 63), 430)},
	}

	for _, tt := range tests {
		chunks, err := Partition(seq(tt.n), tt.k)
		require.NoError(t, err)
		assert.Equal(t, tt.want, sizes(chunks), "n=%d k=%d", tt.n, tt.k)
	}
}

func repeat(v, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestPartition_Properties(t *testing.T) {
	for n := 0; n <= 40; n++ {
		for k := 1; k <= 12; k++ {
			items := seq(n)
			chunks, err := Partition(items, k)
			require.NoError(t, err)
			require.Len(t, chunks, k)

			var joined []int
			for i, c := range chunks {
				if i < k-1 {
					assert.Len(t, c, n/k)
				} else {
					assert.Len(t, c, n-(k-1)*(n/k))
				}
				joined = append(joined, c...)
			}
			if n == 0 {
				assert.Empty(t, joined)
			} else {
				assert.Equal(t, items, joined, "n=%d k=%d", n, k)
			}
		}
	}
}

func TestPartition_ChunksDoNotAlias(t *testing.T) {
	items := seq(6)
	chunks, err := Partition(items, 3)
	require.NoError(t, err)

	chunks[0] = append(chunks[0], 100)
	assert.Equal(t, 2, items[2])
	assert.Equal(t, []int{2, 3}, chunks[1])
}

func TestPartition_InvalidCount(t *testing.T) {
	for _, k := range []int{0, -1} {
		_, err := Partition(seq(4), k)
		assert.ErrorIs(t, err, ErrInvalidShardCount)
	}
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "train_0001_of_0064.tfrecords", FileName("train", 0, 64))
	assert.Equal(t, "train_0064_of_0064.tfrecords", FileName("train", 63, 64))
	assert.Equal(t, "val_0003_of_0008.tfrecords", FileName("val", 2, 8))
	assert.Equal(t, "val_12345_of_12345.tfrecords", FileName("val", 12344, 12345))
}
