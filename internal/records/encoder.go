package records

import (
	"fmt"

	"pose-records/internal/annotations"
	"pose-records/internal/imagecodec"
)

type ImageSource interface {
	Encode(path string) (imagecodec.EncodedImage, error)
}

type EncoderOptions struct {
	// LegacyYFallback stores the joint's raw x in place of a negative y, as
	// records produced by earlier tooling do. When false a negative y is kept
	// as is.
	LegacyYFallback bool
}

type Encoder struct {
	images ImageSource
	opts   EncoderOptions
}

func NewEncoder(images ImageSource, opts EncoderOptions) *Encoder {
	return &Encoder{images: images, opts: opts}
}

func (e *Encoder) Encode(anno annotations.NormalizedAnnotation) (*Record, error) {
	if len(anno.JointsVisibility) != len(anno.Joints) {
		return nil, fmt.Errorf("%w: %s has %d joints but %d visibility flags", ErrSchema, anno.Filename, len(anno.Joints), len(anno.JointsVisibility))
	}

	img, err := e.images.Encode(anno.Filepath)
	if err != nil {
		return nil, err
	}

	width, height := float64(img.Width), float64(img.Height)

	rec := &Record{
		Height:   int64(img.Height),
		Width:    int64(img.Width),
		Depth:    int64(img.Depth),
		PartsX:   make([]int64, len(anno.Joints)),
		PartsY:   make([]int64, len(anno.Joints)),
		PartsV:   make([]int64, len(anno.Joints)),
		CenterX:  int64(anno.Center[0]),
		CenterY:  int64(anno.Center[1]),
		Scale:    float32(anno.Scale),
		Image:    img.Bytes,
		Filename: anno.Filename,
	}

	for i, joint := range anno.Joints {
		x, y := joint[0], joint[1]

		nx := x
		if x >= 0 {
			nx = x / width
		}

		ny := y
		if y >= 0 {
			ny = y / height
		} else if e.opts.LegacyYFallback {
			ny = x
		}

		// Conversion truncates toward zero.
		rec.PartsX[i] = int64(nx)
		rec.PartsY[i] = int64(ny)
		rec.PartsV[i] = VisibilityClass(anno.JointsVisibility[i])
	}

	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return rec, nil
}
