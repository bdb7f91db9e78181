package shards

import (
	"errors"
	"fmt"
)

var ErrInvalidShardCount = errors.New("shard count must be at least 1")

// Partition splits items into k contiguous chunks. The first k-1 chunks hold
// len(items)/k items each and the last holds the rest, so when len(items) < k
// only the last chunk is non-empty.
func Partition[T any](items []T, k int) ([][]T, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidShardCount, k)
	}

	size := len(items) / k
	chunks := make([][]T, 0, k)
	start := 0
	for i := 0; i < k-1; i++ {
		chunks = append(chunks, items[start:start+size:start+size])
		start += size
	}
	chunks = append(chunks, items[start:len(items):len(items)])

	return chunks, nil
}
