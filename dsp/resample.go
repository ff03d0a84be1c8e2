package dsp

import (
	"beatrender/types"
	"math"
)

// Resample converts a sample to targetRate using linear interpolation.
// Matching rates return the input slice untouched. Values are rounded half
// away from zero.
func Resample(s types.RawSample, targetRate int) []int16 {
	if s.SampleRate == targetRate {
		return s.Data
	}
	if len(s.Data) == 0 || s.SampleRate <= 0 || targetRate <= 0 {
		return []int16{}
	}

	ratio := float64(targetRate) / float64(s.SampleRate)
	last := len(s.Data) - 1
	newLength := int(math.Floor(float64(len(s.Data)) * ratio))
	if newLength < 1 {
		newLength = 1
	}
	resampled := make([]int16, newLength)

	for i := 0; i < newLength; i++ {
		pos := float64(i) / ratio
		base := math.Floor(pos)
		frac := pos - base

		x0 := int(base)
		if x0 > last {
			x0 = last
		} else if x0 < 0 {
			x0 = 0
		}
		x1 := x0 + 1
		if x1 > last {
			x1 = last
		}

		v := float64(s.Data[x0])*(1-frac) + float64(s.Data[x1])*frac
		resampled[i] = clip(int64(math.Round(v)), math.MinInt16, math.MaxInt16)
	}

	return resampled
}

func clip(v, lo, hi int64) int16 {
	if v > hi {
		return int16(hi)
	}
	if v < lo {
		return int16(lo)
	}
	return int16(v)
}
