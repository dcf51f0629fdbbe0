package audio

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pcmBytes builds a little-endian 16-bit PCM byte slice from samples.
func pcmBytes(samples ...int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[2*i:], uint16(s))
	}
	return out
}

func TestDecodeToStereo_Mono(t *testing.T) {
	buf := DecodeToStereo(pcmBytes(16384, -16384, 0), 1)

	require.Equal(t, 3, buf.Frames())
	assert.InDelta(t, 0.5, buf.L[0], 1e-9)
	assert.InDelta(t, 0.5, buf.R[0], 1e-9, "mono must be duplicated into both channels")
	assert.InDelta(t, -0.5, buf.L[1], 1e-9)
	assert.InDelta(t, -0.5, buf.R[1], 1e-9)
	assert.Zero(t, buf.L[2])
}

func TestDecodeToStereo_Stereo(t *testing.T) {
	buf := DecodeToStereo(pcmBytes(100, -100, 200, -200), 2)

	require.Equal(t, 2, buf.Frames())
	assert.InDelta(t, 100.0/32768.0, buf.L[0], 1e-9)
	assert.InDelta(t, -100.0/32768.0, buf.R[0], 1e-9)
	assert.InDelta(t, 200.0/32768.0, buf.L[1], 1e-9)
	assert.InDelta(t, -200.0/32768.0, buf.R[1], 1e-9)
}

func TestDecodeToStereo_OddSampleCountTruncated(t *testing.T) {
	// Three samples cannot form full stereo frames; the trailing one is
	// dropped, not an error.
	buf := DecodeToStereo(pcmBytes(1, 2, 3), 2)
	assert.Equal(t, 1, buf.Frames())
}

func TestEncodeFromStereo_Clamps(t *testing.T) {
	buf := StereoBuffer{L: []float64{2.0}, R: []float64{-2.0}}
	out := EncodeFromStereo(buf)

	require.Len(t, out, 4)
	assert.Equal(t, int16(32767), int16(binary.LittleEndian.Uint16(out[0:])),
		"overdriven samples must clamp, not wrap")
	assert.Equal(t, int16(-32767), int16(binary.LittleEndian.Uint16(out[2:])))
}

func TestRoundTrip_LengthProperty(t *testing.T) {
	tests := []struct {
		name     string
		channels int
		inBytes  int
		outBytes int
	}{
		{"stereo aligned", 2, 4096, 4096},
		{"stereo odd sample", 2, 4098, 4096},
		{"mono doubles", 1, 2048, 4096},
		{"mono single sample", 1, 2, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := make([]byte, tt.inBytes)
			out := EncodeFromStereo(DecodeToStereo(data, tt.channels))
			assert.Len(t, out, tt.outBytes)
		})
	}
}
