package records

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

func sampleRecord() *Record {
	return &Record{
		Height:   480,
		Width:    640,
		Depth:    3,
		PartsX:   []int64{0, 1, -1},
		PartsY:   []int64{0, 0, -1},
		PartsV:   []int64{2, 2, 0},
		CenterX:  594,
		CenterY:  257,
		Scale:    3.021046,
		Image:    []byte{0xff, 0xd8, 0xff, 0xd9},
		Filename: "015601864.jpg",
	}
}

func TestMarshalUnmarshal(t *testing.T) {
	rec := sampleRecord()

	data, err := rec.Marshal()
	require.NoError(t, err)

	decoded, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, rec, decoded)
}

func TestMarshal_Deterministic(t *testing.T) {
	a, err := sampleRecord().Marshal()
	require.NoError(t, err)
	b, err := sampleRecord().Marshal()
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestMarshal_FeatureKeys(t *testing.T) {
	data, err := sampleRecord().Marshal()
	require.NoError(t, err)

	values, err := parseExample(data)
	require.NoError(t, err)
	require.Len(t, values, len(Schema))

	for _, field := range Schema {
		v, ok := values[field.Key]
		require.True(t, ok, field.Key)
		assert.Equal(t, field.Kind, v.kind, field.Key)
	}
}

func TestMarshal_EmptyParts(t *testing.T) {
	rec := sampleRecord()
	rec.PartsX, rec.PartsY, rec.PartsV = []int64{}, []int64{}, []int64{}

	data, err := rec.Marshal()
	require.NoError(t, err)

	decoded, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, []int64{}, decoded.PartsX)
	assert.Equal(t, []int64{}, decoded.PartsY)
	assert.Equal(t, []int64{}, decoded.PartsV)
}

func TestMarshal_Invalid(t *testing.T) {
	rec := sampleRecord()
	rec.PartsV = rec.PartsV[:1]

	_, err := rec.Marshal()
	assert.ErrorIs(t, err, ErrSchema)
}

func TestUnmarshal_UnpackedInts(t *testing.T) {
	// Int64List{value: 7, value: -3} written without packing.
	negative := int64(-3)

	var list []byte
	list = protowire.AppendTag(list, listValueField, protowire.VarintType)
	list = protowire.AppendVarint(list, 7)
	list = protowire.AppendTag(list, listValueField, protowire.VarintType)
	list = protowire.AppendVarint(list, uint64(negative))

	ints, err := parseInts(list)
	require.NoError(t, err)
	assert.Equal(t, []int64{7, -3}, ints)
}

func TestUnmarshal_MissingFeature(t *testing.T) {
	var features []byte
	var entry []byte
	entry = protowire.AppendTag(entry, mapKeyField, protowire.BytesType)
	entry = protowire.AppendString(entry, KeyHeight)
	entry = protowire.AppendTag(entry, mapValueField, protowire.BytesType)
	entry = protowire.AppendBytes(entry, appendFeature(nil, featureValue{kind: Int64Kind, ints: []int64{10}}))
	features = protowire.AppendTag(features, featuresMapField, protowire.BytesType)
	features = protowire.AppendBytes(features, entry)

	var example []byte
	example = protowire.AppendTag(example, exampleFeaturesField, protowire.BytesType)
	example = protowire.AppendBytes(example, features)

	_, err := Unmarshal(example)
	assert.ErrorIs(t, err, ErrSchema)
}

func TestUnmarshal_Truncated(t *testing.T) {
	data, err := sampleRecord().Marshal()
	require.NoError(t, err)

	_, err = Unmarshal(data[:len(data)-3])
	assert.ErrorIs(t, err, ErrCorrupt)
}
