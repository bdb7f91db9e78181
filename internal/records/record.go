package records

import "fmt"

const (
	VisibilityInvisible int64 = 0
	VisibilityOccluded  int64 = 1
	VisibilityVisible   int64 = 2
)

// Record is the unit stored in a shard file.
type Record struct {
	Height int64
	Width  int64
	Depth  int64

	PartsX []int64
	PartsY []int64
	PartsV []int64

	CenterX int64
	CenterY int64
	Scale   float32

	Image    []byte
	Filename string
}

func (r *Record) NumJoints() int {
	return len(r.PartsX)
}

func (r *Record) Validate() error {
	if len(r.PartsY) != len(r.PartsX) || len(r.PartsV) != len(r.PartsX) {
		return fmt.Errorf("%w: %s has %d x, %d y and %d v parts", ErrSchema, r.Filename, len(r.PartsX), len(r.PartsY), len(r.PartsV))
	}
	for i, v := range r.PartsV {
		if v != VisibilityInvisible && v != VisibilityOccluded && v != VisibilityVisible {
			return fmt.Errorf("%w: %s part %d has visibility %d", ErrSchema, r.Filename, i, v)
		}
	}
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("%w: %s has size %dx%d", ErrSchema, r.Filename, r.Width, r.Height)
	}
	return nil
}

// VisibilityClass maps a source visibility flag onto the stored class.
// The occluded class is never produced.
func VisibilityClass(flag int) int64 {
	if flag == 0 {
		return VisibilityInvisible
	}
	return VisibilityVisible
}
