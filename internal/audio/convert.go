// Package audio implements the per-session processing pipeline: PCM
// conversion, gain and low-pass filtering, level analysis and metering
// smoothing. One Processor instance serves one session, calls are expected
// to arrive serialized from the session loop.
package audio

import "encoding/binary"

// StereoBuffer holds normalized samples for both channels. L and R are
// always the same length.
type StereoBuffer struct {
	L []float64
	R []float64
}

// Frames returns the number of sample frames in the buffer.
func (b StereoBuffer) Frames() int {
	return len(b.L)
}

// DecodeToStereo interprets data as signed 16-bit little-endian PCM and
// converts it to normalized stereo samples in [-1, 1]. Mono input is
// duplicated into both channels. For stereo input with an odd sample count
// the trailing unpaired sample is discarded.
func DecodeToStereo(data []byte, channels int) StereoBuffer {
	total := len(data) / 2

	if channels == 1 {
		buf := StereoBuffer{
			L: make([]float64, total),
			R: make([]float64, total),
		}
		for i := 0; i < total; i++ {
			s := float64(int16(binary.LittleEndian.Uint16(data[2*i:]))) / 32768.0
			buf.L[i] = s
			buf.R[i] = s
		}
		return buf
	}

	// Stereo: interleaved L,R pairs, truncate a trailing unpaired sample.
	if total%2 != 0 {
		total--
	}
	frames := total / 2
	buf := StereoBuffer{
		L: make([]float64, frames),
		R: make([]float64, frames),
	}
	for i := 0; i < frames; i++ {
		buf.L[i] = float64(int16(binary.LittleEndian.Uint16(data[4*i:]))) / 32768.0
		buf.R[i] = float64(int16(binary.LittleEndian.Uint16(data[4*i+2:]))) / 32768.0
	}
	return buf
}

// EncodeFromStereo converts normalized stereo samples back to interleaved
// little-endian 16-bit PCM. Samples are clamped to [-1, 1] before scaling
// so out-of-range values cannot wrap around.
func EncodeFromStereo(buf StereoBuffer) []byte {
	out := make([]byte, buf.Frames()*4)
	for i := 0; i < buf.Frames(); i++ {
		binary.LittleEndian.PutUint16(out[4*i:], uint16(int16(clamp(buf.L[i], -1, 1)*32767.0)))
		binary.LittleEndian.PutUint16(out[4*i+2:], uint16(int16(clamp(buf.R[i], -1, 1)*32767.0)))
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
