package records

import "errors"

var ErrSchema = errors.New("record does not match schema")

const (
	KeyHeight   = "image/height"
	KeyWidth    = "image/width"
	KeyDepth    = "image/depth"
	KeyPartsX   = "image/object/parts/x"
	KeyPartsY   = "image/object/parts/y"
	KeyPartsV   = "image/object/parts/v"
	KeyCenterX  = "image/object/center/x"
	KeyCenterY  = "image/object/center/y"
	KeyScale    = "image/object/scale"
	KeyEncoded  = "image/encoded"
	KeyFilename = "image/filename"
)

type Kind int

const (
	Int64Kind Kind = iota
	FloatKind
	BytesKind
)

func (k Kind) String() string {
	switch k {
	case Int64Kind:
		return "int64"
	case FloatKind:
		return "float"
	case BytesKind:
		return "bytes"
	}
	return "unknown"
}

type Cardinality int

const (
	// Scalar fields hold exactly one value.
	Scalar Cardinality = iota
	// PerJoint fields hold one value per joint, possibly none.
	PerJoint
)

type Field struct {
	Key         string
	Kind        Kind
	Cardinality Cardinality
}

// Schema lists every field of a record in serialization order.
var Schema = []Field{
	{KeyHeight, Int64Kind, Scalar},
	{KeyWidth, Int64Kind, Scalar},
	{KeyDepth, Int64Kind, Scalar},
	{KeyPartsX, Int64Kind, PerJoint},
	{KeyPartsY, Int64Kind, PerJoint},
	{KeyPartsV, Int64Kind, PerJoint},
	{KeyCenterX, Int64Kind, Scalar},
	{KeyCenterY, Int64Kind, Scalar},
	{KeyScale, FloatKind, Scalar},
	{KeyEncoded, BytesKind, Scalar},
	{KeyFilename, BytesKind, Scalar},
}
