package audio

import (
	"math"
	"math/cmplx"
)

// filterOrder is the order of the low-pass filter applied by the DSP stage.
const filterOrder = 4

// LowPass is a Butterworth low-pass filter with per-channel delay lines so
// that filtering consecutive chunks is equivalent to filtering their
// concatenation. The delay lines are seeded from the filter's steady-state
// step response, which avoids a hard transient on the first chunk.
type LowPass struct {
	b []float64
	a []float64

	// delay lines, one per channel, nil until seeded
	ziL []float64
	ziR []float64
}

// NewLowPass designs an order-4 Butterworth low-pass for the given cutoff
// frequency. Cutoff values at or above the Nyquist frequency are accepted
// and yield degenerate coefficients, matching the caller-responsibility
// contract of the pipeline configuration.
func NewLowPass(cutoffFreq, sampleRate float64) *LowPass {
	nyquist := 0.5 * sampleRate
	b, a := butterworthLowPass(filterOrder, cutoffFreq/nyquist)
	f := &LowPass{b: b, a: a}
	f.seed()
	return f
}

// seed initializes both delay lines from the steady-state response.
func (f *LowPass) seed() {
	zi := steadyStateZi(f.b, f.a)
	f.ziL = make([]float64, len(zi))
	f.ziR = make([]float64, len(zi))
	copy(f.ziL, zi)
	copy(f.ziR, zi)
}

// Apply filters both channels in place, carrying the delay lines forward.
func (f *LowPass) Apply(buf StereoBuffer) {
	if f.ziL == nil || f.ziR == nil {
		f.seed()
	}
	f.applyChannel(buf.L, f.ziL)
	f.applyChannel(buf.R, f.ziR)
}

// applyChannel runs a direct-form II transposed difference equation over
// samples, updating the delay line zi in place.
func (f *LowPass) applyChannel(samples, zi []float64) {
	b, a := f.b, f.a
	n := len(zi)
	for i, x := range samples {
		y := b[0]*x + zi[0]
		for j := 0; j < n-1; j++ {
			zi[j] = b[j+1]*x + zi[j+1] - a[j+1]*y
		}
		zi[n-1] = b[n]*x - a[n]*y
		samples[i] = y
	}
}

// butterworthLowPass designs a digital Butterworth low-pass filter of the
// given order via the bilinear transform with frequency prewarping.
// normalCutoff is the cutoff relative to the Nyquist frequency. The returned
// transfer function coefficients are normalized so a[0] == 1.
func butterworthLowPass(order int, normalCutoff float64) (b, a []float64) {
	// Prewarp the cutoff. The sampling rate of the normalized design is 2,
	// so the warped analog frequency is 2*fs*tan(pi*wn/fs) with fs = 2.
	warped := 4.0 * math.Tan(math.Pi*normalCutoff/2.0)

	// Analog prototype poles on the unit circle, scaled to the cutoff.
	poles := make([]complex128, order)
	for k := 0; k < order; k++ {
		theta := math.Pi * float64(2*k+1-order) / float64(2*order)
		poles[k] = -cmplx.Exp(complex(0, theta)) * complex(warped, 0)
	}
	gain := math.Pow(warped, float64(order))

	// Bilinear transform, fs2 = 2*fs.
	fs2 := complex(4.0, 0)
	digital := make([]complex128, order)
	prod := complex(1, 0)
	for k, p := range poles {
		digital[k] = (fs2 + p) / (fs2 - p)
		prod *= fs2 - p
	}
	k := gain * real(complex(1, 0)/prod)

	// All zeros of the low-pass map to z = -1.
	zeros := make([]complex128, order)
	for i := range zeros {
		zeros[i] = complex(-1, 0)
	}

	b = make([]float64, order+1)
	for i, c := range polyFromRoots(zeros) {
		b[i] = k * real(c)
	}
	a = make([]float64, order+1)
	for i, c := range polyFromRoots(digital) {
		a[i] = real(c)
	}
	return b, a
}

// polyFromRoots expands a polynomial with the given roots into its
// coefficients, highest order first, leading coefficient 1.
func polyFromRoots(roots []complex128) []complex128 {
	coeffs := []complex128{1}
	for _, r := range roots {
		next := make([]complex128, len(coeffs)+1)
		for i, c := range coeffs {
			next[i] += c
			next[i+1] -= c * r
		}
		coeffs = next
	}
	return coeffs
}

// steadyStateZi computes the delay-line state that makes the filter start
// in its steady-state response to a unit step. It solves
// (I - A^T) zi = B where A is the companion matrix of the denominator.
func steadyStateZi(b, a []float64) []float64 {
	n := len(a) - 1

	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	// I - companion(a)^T: the companion first row is -a[1:]/a[0], the
	// subdiagonal is ones; transposed that is a first column and a
	// superdiagonal.
	for i := 0; i < n; i++ {
		m[i][i] = 1
		m[i][0] += a[i+1] / a[0]
		if i+1 < n {
			m[i][i+1] -= 1
		}
	}

	rhs := make([]float64, n)
	for i := 0; i < n; i++ {
		rhs[i] = b[i+1] - a[i+1]*b[0]
	}
	return solveLinear(m, rhs)
}

// solveLinear solves m*x = v by Gaussian elimination with partial pivoting.
// m and v are modified in place.
func solveLinear(m [][]float64, v []float64) []float64 {
	n := len(v)
	for col := 0; col < n; col++ {
		pivot := col
		for row := col + 1; row < n; row++ {
			if math.Abs(m[row][col]) > math.Abs(m[pivot][col]) {
				pivot = row
			}
		}
		m[col], m[pivot] = m[pivot], m[col]
		v[col], v[pivot] = v[pivot], v[col]

		for row := col + 1; row < n; row++ {
			factor := m[row][col] / m[col][col]
			for k := col; k < n; k++ {
				m[row][k] -= factor * m[col][k]
			}
			v[row] -= factor * v[col]
		}
	}

	x := make([]float64, n)
	for row := n - 1; row >= 0; row-- {
		sum := v[row]
		for k := row + 1; k < n; k++ {
			sum -= m[row][k] * x[k]
		}
		x[row] = sum / m[row][row]
	}
	return x
}
