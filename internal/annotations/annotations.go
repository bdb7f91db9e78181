package annotations

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var ErrMissingField = errors.New("annotation is missing a required field")

// RawAnnotation is one entry of an MPII style annotation list.
type RawAnnotation struct {
	Image     string       `json:"image"`
	Joints    [][2]float64 `json:"joints"`
	JointsVis []int        `json:"joints_vis"`
	Scale     float64      `json:"scale"`
	Center    [2]float64   `json:"center"`
}

// NormalizedAnnotation is a RawAnnotation with its image path resolved
// against an image directory.
type NormalizedAnnotation struct {
	Filename         string       `json:"filename"`
	Filepath         string       `json:"filepath"`
	Joints           [][2]float64 `json:"joints"`
	JointsVisibility []int        `json:"joints_visibility"`
	Scale            float64      `json:"scale"`
	Center           [2]float64   `json:"center"`
}

// rawEntry mirrors RawAnnotation with pointer fields so that absent keys can
// be told apart from zero values.
type rawEntry struct {
	Image     *string       `json:"image"`
	Joints    *[][2]float64 `json:"joints"`
	JointsVis *[]int        `json:"joints_vis"`
	Scale     *float64      `json:"scale"`
	Center    *[2]float64   `json:"center"`
}

func (e rawEntry) toRaw(index int) (RawAnnotation, error) {
	missing := func(field string) error {
		return fmt.Errorf("%w: entry %d has no %q", ErrMissingField, index, field)
	}

	switch {
	case e.Image == nil:
		return RawAnnotation{}, missing("image")
	case e.Joints == nil:
		return RawAnnotation{}, missing("joints")
	case e.JointsVis == nil:
		return RawAnnotation{}, missing("joints_vis")
	case e.Scale == nil:
		return RawAnnotation{}, missing("scale")
	case e.Center == nil:
		return RawAnnotation{}, missing("center")
	}

	return RawAnnotation{
		Image:     *e.Image,
		Joints:    *e.Joints,
		JointsVis: *e.JointsVis,
		Scale:     *e.Scale,
		Center:    *e.Center,
	}, nil
}

// Parse decodes a JSON annotation list.
func Parse(data []byte) ([]RawAnnotation, error) {
	var entries []rawEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("error decoding annotations: %w", err)
	}

	annos := make([]RawAnnotation, 0, len(entries))
	for i, entry := range entries {
		anno, err := entry.toRaw(i)
		if err != nil {
			return nil, err
		}
		annos = append(annos, anno)
	}
	return annos, nil
}

// Load reads and decodes the JSON annotation list at path.
func Load(path string) ([]RawAnnotation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading annotations %s: %w", path, err)
	}

	annos, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return annos, nil
}

func Normalize(raw RawAnnotation, imageDir string) NormalizedAnnotation {
	return NormalizedAnnotation{
		Filename:         raw.Image,
		Filepath:         filepath.Join(imageDir, raw.Image),
		Joints:           raw.Joints,
		JointsVisibility: raw.JointsVis,
		Scale:            raw.Scale,
		Center:           raw.Center,
	}
}

// NormalizeAll normalizes raws in order. A positive limit keeps only the
// first limit annotations.
func NormalizeAll(raws []RawAnnotation, imageDir string, limit int) []NormalizedAnnotation {
	if limit > 0 && limit < len(raws) {
		raws = raws[:limit]
	}

	out := make([]NormalizedAnnotation, len(raws))
	for i, raw := range raws {
		out[i] = Normalize(raw, imageDir)
	}
	return out
}
