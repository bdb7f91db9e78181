package records

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers of the tf.train.Example protos.
const (
	exampleFeaturesField protowire.Number = 1
	featuresMapField     protowire.Number = 1
	mapKeyField          protowire.Number = 1
	mapValueField        protowire.Number = 2
	bytesListField       protowire.Number = 1
	floatListField       protowire.Number = 2
	int64ListField       protowire.Number = 3
	listValueField       protowire.Number = 1
)

type featureValue struct {
	kind   Kind
	ints   []int64
	floats []float32
	bytes  [][]byte
}

func (r *Record) features() map[string]featureValue {
	ints := func(v ...int64) featureValue { return featureValue{kind: Int64Kind, ints: v} }

	return map[string]featureValue{
		KeyHeight:   ints(r.Height),
		KeyWidth:    ints(r.Width),
		KeyDepth:    ints(r.Depth),
		KeyPartsX:   ints(r.PartsX...),
		KeyPartsY:   ints(r.PartsY...),
		KeyPartsV:   ints(r.PartsV...),
		KeyCenterX:  ints(r.CenterX),
		KeyCenterY:  ints(r.CenterY),
		KeyScale:    {kind: FloatKind, floats: []float32{r.Scale}},
		KeyEncoded:  {kind: BytesKind, bytes: [][]byte{r.Image}},
		KeyFilename: {kind: BytesKind, bytes: [][]byte{[]byte(r.Filename)}},
	}
}

// Marshal serializes the record as a tf.train.Example. Features are written
// in Schema order.
func (r *Record) Marshal() ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	values := r.features()

	var features []byte
	for _, field := range Schema {
		var entry []byte
		entry = protowire.AppendTag(entry, mapKeyField, protowire.BytesType)
		entry = protowire.AppendString(entry, field.Key)
		entry = protowire.AppendTag(entry, mapValueField, protowire.BytesType)
		entry = protowire.AppendBytes(entry, appendFeature(nil, values[field.Key]))

		features = protowire.AppendTag(features, featuresMapField, protowire.BytesType)
		features = protowire.AppendBytes(features, entry)
	}

	var example []byte
	example = protowire.AppendTag(example, exampleFeaturesField, protowire.BytesType)
	example = protowire.AppendBytes(example, features)
	return example, nil
}

func appendFeature(b []byte, v featureValue) []byte {
	var list []byte
	var field protowire.Number

	switch v.kind {
	case Int64Kind:
		field = int64ListField
		if len(v.ints) > 0 {
			var packed []byte
			for _, n := range v.ints {
				packed = protowire.AppendVarint(packed, uint64(n))
			}
			list = protowire.AppendTag(list, listValueField, protowire.BytesType)
			list = protowire.AppendBytes(list, packed)
		}
	case FloatKind:
		field = floatListField
		if len(v.floats) > 0 {
			var packed []byte
			for _, f := range v.floats {
				packed = protowire.AppendFixed32(packed, math.Float32bits(f))
			}
			list = protowire.AppendTag(list, listValueField, protowire.BytesType)
			list = protowire.AppendBytes(list, packed)
		}
	case BytesKind:
		field = bytesListField
		for _, item := range v.bytes {
			list = protowire.AppendTag(list, listValueField, protowire.BytesType)
			list = protowire.AppendBytes(list, item)
		}
	}

	b = protowire.AppendTag(b, field, protowire.BytesType)
	return protowire.AppendBytes(b, list)
}

// Unmarshal decodes a serialized tf.train.Example into a Record. Every
// Schema field must be present with the expected kind.
func Unmarshal(data []byte) (*Record, error) {
	values, err := parseExample(data)
	if err != nil {
		return nil, err
	}

	for _, field := range Schema {
		v, ok := values[field.Key]
		if !ok {
			return nil, fmt.Errorf("%w: missing feature %s", ErrSchema, field.Key)
		}
		if v.kind != field.Kind {
			return nil, fmt.Errorf("%w: feature %s is %s, expected %s", ErrSchema, field.Key, v.kind, field.Kind)
		}
		if field.Cardinality == Scalar && v.len() != 1 {
			return nil, fmt.Errorf("%w: feature %s has %d values, expected 1", ErrSchema, field.Key, v.len())
		}
	}

	rec := &Record{
		Height:   values[KeyHeight].ints[0],
		Width:    values[KeyWidth].ints[0],
		Depth:    values[KeyDepth].ints[0],
		PartsX:   nonNil(values[KeyPartsX].ints),
		PartsY:   nonNil(values[KeyPartsY].ints),
		PartsV:   nonNil(values[KeyPartsV].ints),
		CenterX:  values[KeyCenterX].ints[0],
		CenterY:  values[KeyCenterY].ints[0],
		Scale:    values[KeyScale].floats[0],
		Image:    values[KeyEncoded].bytes[0],
		Filename: string(values[KeyFilename].bytes[0]),
	}

	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return rec, nil
}

func (v featureValue) len() int {
	switch v.kind {
	case Int64Kind:
		return len(v.ints)
	case FloatKind:
		return len(v.floats)
	default:
		return len(v.bytes)
	}
}

func nonNil(v []int64) []int64 {
	if v == nil {
		return []int64{}
	}
	return v
}

func parseError(what string, n int) error {
	return fmt.Errorf("%w: parsing %s: %v", ErrCorrupt, what, protowire.ParseError(n))
}

// forEachBytesField walks the top level fields of a message, skipping any whose
// wire type is not bytes.
func forEachBytesField(b []byte, what string, fn func(num protowire.Number, v []byte) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return parseError(what, n)
		}
		b = b[n:]

		if typ != protowire.BytesType {
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return parseError(what, n)
			}
			b = b[n:]
			continue
		}

		v, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return parseError(what, n)
		}
		b = b[n:]

		if err := fn(num, v); err != nil {
			return err
		}
	}
	return nil
}

func parseExample(data []byte) (map[string]featureValue, error) {
	values := make(map[string]featureValue)

	err := forEachBytesField(data, "example", func(num protowire.Number, features []byte) error {
		if num != exampleFeaturesField {
			return nil
		}
		return forEachBytesField(features, "features", func(num protowire.Number, entry []byte) error {
			if num != featuresMapField {
				return nil
			}
			key, value, err := parseMapEntry(entry)
			if err != nil {
				return err
			}
			values[key] = value
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return values, nil
}

func parseMapEntry(entry []byte) (string, featureValue, error) {
	var key string
	var value featureValue

	err := forEachBytesField(entry, "feature map entry", func(num protowire.Number, v []byte) error {
		switch num {
		case mapKeyField:
			key = string(v)
		case mapValueField:
			parsed, err := parseFeature(v)
			if err != nil {
				return fmt.Errorf("feature %q: %w", key, err)
			}
			value = parsed
		}
		return nil
	})
	return key, value, err
}

func parseFeature(b []byte) (featureValue, error) {
	var value featureValue

	err := forEachBytesField(b, "feature", func(num protowire.Number, list []byte) error {
		switch num {
		case bytesListField:
			value = featureValue{kind: BytesKind}
			return forEachBytesField(list, "bytes list", func(num protowire.Number, item []byte) error {
				if num == listValueField {
					value.bytes = append(value.bytes, append([]byte(nil), item...))
				}
				return nil
			})
		case floatListField:
			value = featureValue{kind: FloatKind}
			floats, err := parseFloats(list)
			value.floats = floats
			return err
		case int64ListField:
			value = featureValue{kind: Int64Kind}
			ints, err := parseInts(list)
			value.ints = ints
			return err
		}
		return nil
	})
	return value, err
}

// parseInts accepts both packed and unpacked encodings.
func parseInts(b []byte) ([]int64, error) {
	var out []int64
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, parseError("int64 list", n)
		}
		b = b[n:]

		switch {
		case num == listValueField && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, parseError("int64 list", n)
			}
			b = b[n:]
			out = append(out, int64(v))
		case num == listValueField && typ == protowire.BytesType:
			packed, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, parseError("int64 list", n)
			}
			b = b[n:]
			for len(packed) > 0 {
				v, n := protowire.ConsumeVarint(packed)
				if n < 0 {
					return nil, parseError("packed int64 list", n)
				}
				packed = packed[n:]
				out = append(out, int64(v))
			}
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, parseError("int64 list", n)
			}
			b = b[n:]
		}
	}
	return out, nil
}

func parseFloats(b []byte) ([]float32, error) {
	var out []float32
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, parseError("float list", n)
		}
		b = b[n:]

		switch {
		case num == listValueField && typ == protowire.Fixed32Type:
			v, n := protowire.ConsumeFixed32(b)
			if n < 0 {
				return nil, parseError("float list", n)
			}
			b = b[n:]
			out = append(out, math.Float32frombits(v))
		case num == listValueField && typ == protowire.BytesType:
			packed, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, parseError("float list", n)
			}
			b = b[n:]
			for len(packed) > 0 {
				v, n := protowire.ConsumeFixed32(packed)
				if n < 0 {
					return nil, parseError("packed float list", n)
				}
				packed = packed[n:]
				out = append(out, math.Float32frombits(v))
			}
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, parseError("float list", n)
			}
			b = b[n:]
		}
	}
	return out, nil
}
