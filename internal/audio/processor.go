package audio

import "math"

// Default pipeline configuration applied until the session issues its
// first init or set_params command.
const (
	DefaultSampleRate = 44100
	DefaultChannels   = 2
	DefaultChunkSize  = 1024
	DefaultCutoffFreq = 1000.0
)

// Processor is the per-session audio pipeline. It decodes raw PCM chunks,
// applies gain and the optional low-pass filter, analyzes the result for
// metering and re-encodes the processed signal. Filter and smoothing state
// carry across calls, so chunks must be fed in order by a single goroutine.
type Processor struct {
	sampleRate int
	channels   int
	chunkSize  int

	gainDB        float64
	filterEnabled bool
	cutoffFreq    float64

	filter   *LowPass
	smoother *Smoother
}

// NewProcessor creates a pipeline with unity gain, the filter disabled and
// the default cutoff. The filter is designed up front so its delay line is
// seeded before the first filtered chunk.
func NewProcessor(sampleRate, channels, chunkSize int) *Processor {
	return &Processor{
		sampleRate: sampleRate,
		channels:   channels,
		chunkSize:  chunkSize,
		cutoffFreq: DefaultCutoffFreq,
		filter:     NewLowPass(DefaultCutoffFreq, float64(sampleRate)),
		smoother:   NewSmoother(),
	}
}

func (p *Processor) SampleRate() int     { return p.sampleRate }
func (p *Processor) Channels() int       { return p.channels }
func (p *Processor) GainDB() float64     { return p.gainDB }
func (p *Processor) CutoffFreq() float64 { return p.cutoffFreq }
func (p *Processor) FilterEnabled() bool { return p.filterEnabled }

// UpdateSettings applies a set_params command. The smoothing factor is
// recomputed on every call; filter coefficients are recomputed, and the
// delay line reseeded, only when the cutoff actually changes. Toggling the
// filter off and back on keeps the old delay line.
func (p *Processor) UpdateSettings(gainDB float64, filterEnabled bool, cutoffFreq, integrationTime float64) {
	p.gainDB = gainDB
	p.filterEnabled = filterEnabled

	dt := float64(p.chunkSize) / float64(p.sampleRate)
	if integrationTime <= 0.001 {
		p.smoother.SetAlpha(0)
	} else {
		p.smoother.SetAlpha(math.Exp(-dt / integrationTime))
	}

	if cutoffFreq != p.cutoffFreq {
		p.cutoffFreq = cutoffFreq
		p.filter = NewLowPass(cutoffFreq, float64(p.sampleRate))
	}
}

// ProcessChunk runs one raw PCM chunk through the pipeline and returns the
// processed bytes together with the smoothed metering measurement. Analysis
// happens before output clamping so overdriven levels are metered honestly.
func (p *Processor) ProcessChunk(chunk []byte) ([]byte, Metrics, error) {
	buf := DecodeToStereo(chunk, p.channels)

	gain := math.Pow(10.0, p.gainDB/20.0)
	for i := range buf.L {
		buf.L[i] *= gain
		buf.R[i] *= gain
	}

	if p.filterEnabled {
		p.filter.Apply(buf)
	}

	metrics, err := Analyze(buf)
	if err != nil {
		return nil, Metrics{}, err
	}

	return EncodeFromStereo(buf), p.smoother.Apply(metrics), nil
}
