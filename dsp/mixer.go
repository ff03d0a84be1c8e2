package dsp

import (
	"beatrender/types"
	"math"
)

// ClipLimit is the symmetric bound of the mixed output. -32768 is never emitted.
const ClipLimit = math.MaxInt16

// StepDuration returns the length of one step in seconds. A step is always a
// sixteenth note at bpm, whatever the pattern length, so a pattern that is
// not 16 steps long does not span exactly one 4/4 bar.
func StepDuration(bpm int) float64 {
	return (60 / float64(bpm)) / 4
}

// BarLength returns the number of samples in the rendered bar,
// floor(steps * StepDuration(bpm) * sampleRate).
func BarLength(bpm, steps, sampleRate int) int {
	return stepSamples(steps, bpm, sampleRate)
}

// StepOffset returns the first sample of step i.
func StepOffset(i, bpm, sampleRate int) int {
	return stepSamples(i, bpm, sampleRate)
}

// stepSamples is floor(n * 60 * rate / (4 * bpm)) in integers; the float
// product lands just under whole numbers for tempos like 50 bpm.
func stepSamples(n, bpm, sampleRate int) int {
	return int(int64(n) * 60 * int64(sampleRate) / (4 * int64(bpm)))
}

// Mix sums every triggered sample into one bar and hard-clips the result.
// Hits running past the end of the bar are truncated; overlapping hits of the
// same track add up.
func Mix(spec types.MixSpec) (types.RenderedBuffer, error) {
	if err := spec.Validate(); err != nil {
		return types.RenderedBuffer{}, err
	}

	total := BarLength(spec.BPM, spec.Steps, spec.SampleRate)
	acc := make([]int32, total)

	for _, track := range spec.Tracks {
		active := track.Pattern.Active()
		if len(active) == 0 {
			continue
		}
		data := Resample(track.Sample, spec.SampleRate)
		for _, step := range active {
			start := StepOffset(step, spec.BPM, spec.SampleRate)
			if start >= total {
				continue
			}
			n := min(total-start, len(data))
			dst := acc[start : start+n]
			for j, v := range data[:n] {
				dst[j] += int32(v)
			}
		}
	}

	out := types.RenderedBuffer{
		Samples:    make([]int16, total),
		SampleRate: spec.SampleRate,
	}
	for i, v := range acc {
		switch {
		case v > ClipLimit:
			out.Samples[i] = ClipLimit
			out.ClippedSamples++
		case v < -ClipLimit:
			out.Samples[i] = -ClipLimit
			out.ClippedSamples++
		default:
			out.Samples[i] = int16(v)
		}
	}
	out.Clipped = out.ClippedSamples > 0

	return out, nil
}
