package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/attractor/internal/dynamo"
)

// Spectrum is a one-sided power spectrum.
type Spectrum struct {
	Freq  []float64
	Power []float64
}

// PowerSpectrum returns |X_k|²/N for k = 0..N/2 of the mean-removed
// signal sampled every dt. Any length works; go-dsp falls back to
// Bluestein's algorithm when N is not a power of two.
func PowerSpectrum(samples []float64, dt float64) (*Spectrum, error) {
	if !(dt > 0) {
		return nil, dynamo.NewConfigError("dt", dt, "must be > 0")
	}
	n := len(samples)
	if n < 4 {
		return nil, dynamo.NewConfigError("samples", n, "need at least 4")
	}

	centred := make([]float64, n)
	copy(centred, samples)
	floats.AddConst(-stat.Mean(samples, nil), centred)

	coeffs := fft.FFTReal(centred)
	half := n/2 + 1
	s := &Spectrum{Freq: make([]float64, half), Power: make([]float64, half)}
	for k := 0; k < half; k++ {
		a := cmplx.Abs(coeffs[k])
		s.Freq[k] = float64(k) / (float64(n) * dt)
		s.Power[k] = a * a / float64(n)
	}
	return s, nil
}

// Dominant returns the frequency with the most power, ignoring the zero
// bin.
func (s *Spectrum) Dominant() (freq, power float64) {
	if len(s.Power) < 2 {
		return 0, 0
	}
	i := floats.MaxIdx(s.Power[1:]) + 1
	return s.Freq[i], s.Power[i]
}

// DominantFrequency is PowerSpectrum followed by Dominant.
func DominantFrequency(samples []float64, dt float64) (float64, error) {
	s, err := PowerSpectrum(samples, dt)
	if err != nil {
		return 0, err
	}
	f, _ := s.Dominant()
	return f, nil
}
