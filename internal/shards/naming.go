package shards

import (
	"fmt"

	"pose-records/internal/records"
)

// FileName names the shard at the zero based index, e.g. FileName("train",
// 0, 64) is "train_0001_of_0064.tfrecords".
func FileName(split string, index, total int) string {
	return fmt.Sprintf("%s_%04d_of_%04d.%s", split, index+1, total, records.Extension)
}
