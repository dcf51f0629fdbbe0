package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyze_SilenceFloor(t *testing.T) {
	buf := stereoFrom(make([]float64, 1024))
	m, err := Analyze(buf)
	require.NoError(t, err)

	assert.InDelta(t, -96.0, m.RMSDecibels, 1e-12, "silence must floor at exactly -96 dB")
	assert.Zero(t, m.Panning, "silence must read centered")
}

func TestAnalyze_EmptyChunk(t *testing.T) {
	_, err := Analyze(StereoBuffer{})
	assert.ErrorIs(t, err, ErrEmptyChunk)
}

func TestAnalyze_Panning(t *testing.T) {
	n := 1024
	sine := sineWave(440, 44100, n)
	zeros := make([]float64, n)

	t.Run("left only", func(t *testing.T) {
		m, err := Analyze(StereoBuffer{L: append([]float64(nil), sine...), R: zeros})
		require.NoError(t, err)
		assert.LessOrEqual(t, m.Panning, -0.9)
	})

	t.Run("right only", func(t *testing.T) {
		m, err := Analyze(StereoBuffer{L: zeros, R: append([]float64(nil), sine...)})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, m.Panning, 0.9)
	})

	t.Run("balanced", func(t *testing.T) {
		m, err := Analyze(stereoFrom(sine))
		require.NoError(t, err)
		assert.InDelta(t, 0.0, m.Panning, 1e-9)
	})
}

func TestAnalyze_LoudnessOfFullScaleSine(t *testing.T) {
	// A full-scale sine has RMS 1/sqrt(2), about -3.01 dBFS.
	m, err := Analyze(stereoFrom(sineWave(440, 44100, 4096)))
	require.NoError(t, err)
	assert.InDelta(t, -3.01, m.RMSDecibels, 0.05)
}

func TestAnalyze_SpectrumShape(t *testing.T) {
	tests := []struct {
		name   string
		frames int
	}{
		{"normal chunk", 1024},
		{"odd length", 1023},
		{"short buffer", 16},
		{"degenerate two frames", 2},
		{"single frame", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Analyze(stereoFrom(sineWave(1000, 44100, tt.frames)))
			require.NoError(t, err)

			require.Len(t, m.Spectrum, SpectrumBins, "spectrum is always exactly 32 bins")
			for i, v := range m.Spectrum {
				assert.GreaterOrEqual(t, v, 0.0, "bin %d", i)
				assert.LessOrEqual(t, v, 1.0, "bin %d", i)
			}
		})
	}
}

func TestAnalyze_SpectrumPeaksNearTone(t *testing.T) {
	// Energy of a pure tone should concentrate somewhere above the floor.
	m, err := Analyze(stereoFrom(sineWave(500, 44100, 4096)))
	require.NoError(t, err)

	peak := 0.0
	for _, v := range m.Spectrum {
		if v > peak {
			peak = v
		}
	}
	assert.Greater(t, peak, 0.3, "a full-scale tone must register well above the display floor")
}
