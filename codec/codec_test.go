package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRecord struct {
	ID       string    `json:"id" msgpack:"id"`
	Vector   []float32 `json:"vector" msgpack:"vector"`
	Metadata string    `json:"metadata" msgpack:"metadata"`
}

func TestByName(t *testing.T) {
	c, ok := ByName("json")
	require.True(t, ok)
	assert.Equal(t, "json", c.Name())

	c, ok = ByName("msgpack")
	require.True(t, ok)
	assert.Equal(t, "msgpack", c.Name())

	_, ok = ByName("protobuf")
	assert.False(t, ok)
}

func TestDefaultIsRegistered(t *testing.T) {
	c, ok := ByName(Default.Name())
	require.True(t, ok)
	assert.Equal(t, Default.Name(), c.Name())
}

func TestRoundTrip(t *testing.T) {
	rec := testRecord{
		ID:       "vec_000042",
		Vector:   []float32{0.25, -1, 0, 0.5},
		Metadata: "demo metadata 42",
	}

	for _, c := range []Codec{JSON{}, Msgpack{}} {
		t.Run(c.Name(), func(t *testing.T) {
			data, err := c.Marshal(rec)
			require.NoError(t, err)

			var got testRecord
			require.NoError(t, c.Unmarshal(data, &got))
			assert.Equal(t, rec, got)
		})
	}
}

func TestUnmarshalGarbage(t *testing.T) {
	for _, c := range []Codec{JSON{}, Msgpack{}} {
		t.Run(c.Name(), func(t *testing.T) {
			var got testRecord
			assert.Error(t, c.Unmarshal([]byte("\x00not a payload\xff"), &got))
		})
	}
}

func TestMustMarshalNilUsesDefault(t *testing.T) {
	data := MustMarshal(nil, testRecord{ID: "x"})
	assert.NotEmpty(t, data)
}
