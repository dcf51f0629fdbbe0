package audio

// smoothingBootstrapDB is the sentinel the loudness average starts from.
// The first measurement is assigned directly while the average is still
// below -99 dB, so metering does not ramp up from silence on connect.
const smoothingBootstrapDB = -100.0

// Smoother applies exponential moving averages to successive metering
// measurements so UI meters move smoothly. Loudness bootstraps from its
// sentinel, the spectrum bootstraps on a bin-count mismatch, and panning
// always decays from zero: a silent signal should read centered, so it gets
// no direct bootstrap.
type Smoother struct {
	alpha float64

	rmsDB    float64
	spectrum []float64
	panning  float64
}

// NewSmoother returns a Smoother with the default smoothing factor used
// before the first settings update.
func NewSmoother() *Smoother {
	return &Smoother{
		alpha: 0.5,
		rmsDB: smoothingBootstrapDB,
	}
}

// SetAlpha replaces the smoothing factor. Zero disables smoothing entirely.
func (s *Smoother) SetAlpha(alpha float64) {
	s.alpha = alpha
}

// Apply folds one instantaneous measurement into the running averages and
// returns the smoothed values.
func (s *Smoother) Apply(m Metrics) Metrics {
	alpha := s.alpha

	if s.rmsDB < -99.0 {
		s.rmsDB = m.RMSDecibels
	} else {
		s.rmsDB = alpha*s.rmsDB + (1.0-alpha)*m.RMSDecibels
	}

	s.panning = alpha*s.panning + (1.0-alpha)*m.Panning

	if s.spectrum == nil || len(s.spectrum) != len(m.Spectrum) {
		s.spectrum = make([]float64, len(m.Spectrum))
		copy(s.spectrum, m.Spectrum)
	} else {
		for i, v := range m.Spectrum {
			s.spectrum[i] = alpha*s.spectrum[i] + (1.0-alpha)*v
		}
	}

	out := make([]float64, len(s.spectrum))
	copy(out, s.spectrum)
	return Metrics{
		RMSDecibels: s.rmsDB,
		Spectrum:    out,
		Panning:     s.panning,
	}
}
