package types

import (
	"fmt"
	"time"
)

// RawSample is a decoded mono one-shot at its native sample rate.
type RawSample struct {
	Data       []int16
	SampleRate int
}

// StepPattern holds one bool per step of the bar. true means trigger.
type StepPattern []bool

// NewStepPattern builds a pattern of the given length with the listed steps active.
func NewStepPattern(steps int, active ...int) (StepPattern, error) {
	if steps <= 0 {
		return nil, &SpecError{Field: "steps", Reason: fmt.Sprintf("must be positive, got %d", steps)}
	}
	p := make(StepPattern, steps)
	for _, i := range active {
		if i < 0 || i >= steps {
			return nil, &SpecError{Field: "steps", Reason: fmt.Sprintf("step %d outside [0, %d)", i, steps)}
		}
		p[i] = true
	}
	return p, nil
}

// Active reports the indices of all triggered steps.
func (p StepPattern) Active() []int {
	var idx []int
	for i, on := range p {
		if on {
			idx = append(idx, i)
		}
	}
	return idx
}

// Clone returns an independent copy.
func (p StepPattern) Clone() StepPattern {
	if p == nil {
		return nil
	}
	c := make(StepPattern, len(p))
	copy(c, p)
	return c
}

func (p StepPattern) String() string {
	b := make([]byte, len(p))
	for i, on := range p {
		if on {
			b[i] = 'x'
		} else {
			b[i] = '-'
		}
	}
	return string(b)
}

// Track binds a sound name to its pattern and decoded sample.
type Track struct {
	Name    string
	Pattern StepPattern
	Sample  RawSample
}

// MixSpec is the full input of one bar render.
type MixSpec struct {
	BPM        int
	Steps      int
	SampleRate int
	Tracks     []Track
}

// Validate checks the shared step count once for the whole mix.
func (s MixSpec) Validate() error {
	if s.BPM <= 0 {
		return &SpecError{Field: "bpm", Reason: fmt.Sprintf("must be positive, got %d", s.BPM)}
	}
	if s.Steps <= 0 {
		return &SpecError{Field: "steps", Reason: fmt.Sprintf("must be positive, got %d", s.Steps)}
	}
	if s.SampleRate <= 0 {
		return &SpecError{Field: "sampleRate", Reason: fmt.Sprintf("must be positive, got %d", s.SampleRate)}
	}
	for _, t := range s.Tracks {
		if len(t.Pattern) != s.Steps {
			return &SpecError{
				Field:  "pattern",
				Reason: fmt.Sprintf("track %q has %d steps, mix has %d", t.Name, len(t.Pattern), s.Steps),
			}
		}
		if t.Sample.SampleRate <= 0 {
			return &SpecError{
				Field:  "sampleRate",
				Reason: fmt.Sprintf("track %q sample rate %d", t.Name, t.Sample.SampleRate),
			}
		}
	}
	return nil
}

// RenderedBuffer is one mixed bar at the target rate.
type RenderedBuffer struct {
	Samples        []int16
	SampleRate     int
	Clipped        bool
	ClippedSamples int
}

func (b RenderedBuffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(b.Samples)) * time.Second / time.Duration(b.SampleRate)
}

// AudioFile is a written WAV and its size on disk.
type AudioFile struct {
	Path  string
	Bytes int64
}

// RenderRecord is a catalogued render.
type RenderRecord struct {
	ID        int64
	Title     string
	Owner     string
	Path      string
	Bytes     int64
	BPM       int
	Steps     int
	CreatedAt time.Time
}

// WavHeader is the canonical 44-byte RIFF/WAVE PCM header.
type WavHeader struct {
	ChunkID       [4]byte
	ChunkSize     uint32
	Format        [4]byte
	Subchunk1ID   [4]byte
	Subchunk1Size uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2ID   [4]byte
	Subchunk2Size uint32
}
