package dsp

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// maxAnalysisWindow caps the FFT input so inspecting long files stays cheap.
const maxAnalysisWindow = 1 << 16

type Levels struct {
	Peak           int16
	RMS            float64
	ClippedSamples int // samples sitting at or beyond ClipLimit
}

// Measure reports peak and RMS levels of a buffer.
func Measure(samples []int16) Levels {
	var lv Levels
	if len(samples) == 0 {
		return lv
	}
	var sum float64
	peak := 0
	for _, s := range samples {
		v := int(s)
		if v < 0 {
			v = -v
		}
		if v > peak {
			peak = v
		}
		if v >= ClipLimit {
			lv.ClippedSamples++
		}
		sum += float64(s) * float64(s)
	}
	lv.Peak = int16(min(peak, math.MaxInt16))
	lv.RMS = math.Sqrt(sum / float64(len(samples)))
	return lv
}

// DominantFrequency returns the frequency in Hz of the strongest FFT bin
// over a Hann-windowed prefix of the buffer. Silence yields 0.
func DominantFrequency(samples []int16, sampleRate int) float64 {
	n := min(len(samples), maxAnalysisWindow)
	if n < 2 || sampleRate <= 0 {
		return 0
	}

	x := make([]float64, n)
	for i := 0; i < n; i++ {
		w := 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n-1))
		x[i] = float64(samples[i]) / 32768.0 * w
	}

	spectrum := fft.FFTReal(x)
	best, bestMag := 0, 0.0
	for k := 1; k <= n/2; k++ {
		if mag := cmplx.Abs(spectrum[k]); mag > bestMag {
			best, bestMag = k, mag
		}
	}
	if bestMag == 0 {
		return 0
	}
	return float64(best) * float64(sampleRate) / float64(n)
}
