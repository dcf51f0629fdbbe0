package audio

import (
	"errors"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

const (
	// SpectrumBins is the number of spectrum values emitted per chunk.
	SpectrumBins = 32

	// silenceFloorDB is reported when a chunk carries no energy at all.
	silenceFloorDB = -96.0

	// panningGuard avoids dividing by a near-zero energy sum; below it the
	// signal reads centered.
	panningGuard = 1e-4

	// displayed spectrum range in dB, mapped to [0, 1] for the UI
	spectrumMinDB = -80.0
	spectrumMaxDB = 0.0
)

// ErrEmptyChunk is returned when a chunk decodes to zero frames.
var ErrEmptyChunk = errors.New("audio: empty chunk")

// Metrics is one metering measurement derived from a processed chunk.
type Metrics struct {
	RMSDecibels float64
	Spectrum    []float64
	Panning     float64
}

// Analyze computes instantaneous loudness, stereo panning and a 32-bin
// spectrum snapshot from a frame buffer. The input is the post-DSP signal
// before output clamping, so levels above 0 dBFS are measured as such.
func Analyze(buf StereoBuffer) (Metrics, error) {
	n := buf.Frames()
	if n == 0 {
		return Metrics{}, ErrEmptyChunk
	}

	var sumL, sumR float64
	mono := make([]float64, n)
	for i := 0; i < n; i++ {
		sumL += buf.L[i] * buf.L[i]
		sumR += buf.R[i] * buf.R[i]
		mono[i] = (buf.L[i] + buf.R[i]) / 2.0
	}
	rmsL := math.Sqrt(sumL / float64(n))
	rmsR := math.Sqrt(sumR / float64(n))

	var sumM float64
	for _, s := range mono {
		sumM += s * s
	}
	rms := math.Sqrt(sumM / float64(n))

	rmsDB := silenceFloorDB
	if rms > 0 {
		rmsDB = 20.0 * math.Log10(rms)
	}

	panning := 0.0
	if denom := rmsL + rmsR; denom > panningGuard {
		panning = (rmsR - rmsL) / denom
	}
	panning = clamp(panning, -1, 1)

	return Metrics{
		RMSDecibels: rmsDB,
		Spectrum:    spectrum(mono),
		Panning:     panning,
	}, nil
}

// spectrum returns the Hann-windowed FFT magnitude of the mono mix,
// resampled to SpectrumBins geometrically spaced bins over the lower half
// of the one-sided spectrum and mapped from [-80 dB, 0 dB] to [0, 1].
func spectrum(mono []float64) []float64 {
	n := len(mono)
	windowed := make([]float64, n)
	copy(windowed, mono)
	window.Apply(windowed, window.Hann)

	full := fft.FFTReal(windowed)
	bins := n/2 + 1

	db := make([]float64, bins)
	for i := 0; i < bins; i++ {
		mag := cmplx.Abs(full[i]) / float64(n) * 2.0
		db[i] = 20.0 * math.Log10(mag+1e-10)
	}

	out := make([]float64, SpectrumBins)
	for i, idx := range geomIndices(bins, SpectrumBins) {
		out[i] = clamp((db[idx]-spectrumMinDB)/(spectrumMaxDB-spectrumMinDB), 0, 1)
	}
	return out
}

// geomIndices returns count geometrically spaced indices from 1 to
// effectiveLen-1 where effectiveLen is half the available bins, truncated to
// integers and clipped to the valid range. For very short buffers
// (effectiveLen < 2) every index degenerates to 0.
func geomIndices(bins, count int) []int {
	indices := make([]int, count)
	effective := bins / 2
	if effective < 2 {
		return indices
	}

	stop := float64(effective - 1)
	for i := 0; i < count; i++ {
		var v float64
		switch i {
		case 0:
			v = 1
		case count - 1:
			v = stop
		default:
			v = math.Pow(stop, float64(i)/float64(count-1))
		}
		idx := int(v)
		if idx > bins-1 {
			idx = bins - 1
		}
		indices[i] = idx
	}
	return indices
}
