package codec

import (
	"math"
	"testing"
)

type benchRecord struct {
	ID       string    `json:"id" msgpack:"id"`
	Vector   []float32 `json:"vector" msgpack:"vector"`
	Metadata string    `json:"metadata" msgpack:"metadata"`
}

func benchPayload() []benchRecord {
	records := make([]benchRecord, 64)
	for i := range records {
		v := make([]float32, 128)
		for j := range v {
			v[j] = float32(math.Sin(float64(i*j))) / 2
		}
		records[i] = benchRecord{
			ID:       "vec_000000",
			Vector:   v,
			Metadata: "demo metadata",
		}
	}
	return records
}

func benchmarkCodecMarshal(b *testing.B, c Codec, v any) {
	b.Helper()
	b.ReportAllocs()

	warm, err := c.Marshal(v)
	if err != nil {
		b.Fatal(err)
	}
	b.SetBytes(int64(len(warm)))

	var sink []byte
	b.ResetTimer()
	for b.Loop() {
		out, err := c.Marshal(v)
		if err != nil {
			b.Fatal(err)
		}
		sink = out
	}
	_ = sink
}

func benchmarkCodecUnmarshal[T any](b *testing.B, c Codec, data []byte, dst *T) {
	b.Helper()
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))

	var v T
	b.ResetTimer()
	for b.Loop() {
		if err := c.Unmarshal(data, &v); err != nil {
			b.Fatal(err)
		}
	}
	if dst != nil {
		*dst = v
	}
}

func BenchmarkCodec_Marshal_Records(b *testing.B) {
	payload := benchPayload()

	b.Run("json", func(b *testing.B) { benchmarkCodecMarshal(b, JSON{}, payload) })
	b.Run("msgpack", func(b *testing.B) { benchmarkCodecMarshal(b, Msgpack{}, payload) })
}

func BenchmarkCodec_Unmarshal_Records(b *testing.B) {
	payload := benchPayload()

	b.Run("json", func(b *testing.B) {
		data := MustMarshal(JSON{}, payload)
		var sink []benchRecord
		benchmarkCodecUnmarshal(b, JSON{}, data, &sink)
		_ = sink
	})
	b.Run("msgpack", func(b *testing.B) {
		data := MustMarshal(Msgpack{}, payload)
		var sink []benchRecord
		benchmarkCodecUnmarshal(b, Msgpack{}, data, &sink)
		_ = sink
	})
}
