package render

import (
	"beatrender/assets"
	"beatrender/dsp"
	"beatrender/types"
	"beatrender/utils"
	"beatrender/wav"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"
)

const (
	MinBPM            = 40
	MaxBPM            = 300
	DefaultSampleRate = 44100
)

// Sink catalogues finished renders.
type Sink interface {
	AddRender(rec types.RenderRecord) (int64, error)
}

// Request describes one bar to render. Steps may be zero when the patterns
// carry the step count.
type Request struct {
	Title     string
	Owner     string
	BPM       int
	Steps     int
	Patterns  map[string]types.StepPattern
	OutputDir string
}

// Result reports the written file and what went into it.
type Result struct {
	File           types.AudioFile
	RecordID       int64
	Samples        int
	SampleRate     int
	Duration       time.Duration
	Clipped        bool
	ClippedSamples int
}

// Renderer bounces one bar of a step pattern to a WAV file.
type Renderer struct {
	source     assets.Source
	sampleRate int
	sink       Sink
	now        func() time.Time
}

type Option func(*Renderer)

// WithSampleRate sets the output rate. Defaults to DefaultSampleRate.
func WithSampleRate(rate int) Option {
	return func(r *Renderer) { r.sampleRate = rate }
}

// WithSink catalogues every written file in s.
func WithSink(s Sink) Option {
	return func(r *Renderer) { r.sink = s }
}

// WithClock replaces time.Now for filenames and records.
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) { r.now = now }
}

// New returns a Renderer reading samples from src.
func New(src assets.Source, opts ...Option) *Renderer {
	r := &Renderer{
		source:     src,
		sampleRate: DefaultSampleRate,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ClampBPM keeps a tempo inside the playable range.
func ClampBPM(bpm int) int {
	return min(max(bpm, MinBPM), MaxBPM)
}

// Tracks resolves every pattern to its decoded sample, in sound-name order.
// Silent tracks are loaded too. The first missing or malformed asset aborts
// the whole set.
func (r *Renderer) Tracks(patterns map[string]types.StepPattern) ([]types.Track, error) {
	names := sortedNames(patterns)
	tracks := make([]types.Track, 0, len(names))
	for _, name := range names {
		p := patterns[name]
		data, err := r.source.Open(name)
		if err != nil {
			var nf *types.AssetNotFoundError
			if errors.As(err, &nf) {
				return nil, err
			}
			return nil, fmt.Errorf("load sample %q: %w", name, err)
		}
		sample, err := wav.Decode(data)
		if err != nil {
			var fe *types.FormatError
			if errors.As(err, &fe) {
				fe.Asset = name
			}
			return nil, err
		}
		tracks = append(tracks, types.Track{Name: name, Pattern: p, Sample: sample})
	}
	return tracks, nil
}

func sortedNames(patterns map[string]types.StepPattern) []string {
	names := make([]string, 0, len(patterns))
	for name := range patterns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func stepCount(req Request) (int, error) {
	steps := req.Steps
	for _, name := range sortedNames(req.Patterns) {
		p := req.Patterns[name]
		if steps == 0 {
			steps = len(p)
		}
		if len(p) != steps {
			return 0, &types.SpecError{
				Field:  "pattern",
				Reason: fmt.Sprintf("track %q has %d steps, want %d", name, len(p), steps),
			}
		}
	}
	if steps == 0 {
		return 0, &types.SpecError{Field: "steps", Reason: "no patterns and no step count"}
	}
	return steps, nil
}

// Mix builds the mix spec for req and renders the bar in memory.
func (r *Renderer) Mix(req Request) (types.RenderedBuffer, error) {
	steps, err := stepCount(req)
	if err != nil {
		return types.RenderedBuffer{}, err
	}

	tracks, err := r.Tracks(req.Patterns)
	if err != nil {
		return types.RenderedBuffer{}, err
	}

	return dsp.Mix(types.MixSpec{
		BPM:        ClampBPM(req.BPM),
		Steps:      steps,
		SampleRate: r.sampleRate,
		Tracks:     tracks,
	})
}

// Render runs the whole pipeline and writes the bar into req.OutputDir.
// It either returns a complete file or an error naming what failed.
func (r *Renderer) Render(ctx context.Context, req Request) (Result, error) {
	start := time.Now()

	steps, err := stepCount(req)
	if err != nil {
		return Result{}, err
	}
	buf, err := r.Mix(req)
	if err != nil {
		return Result{}, err
	}
	if buf.Clipped {
		utils.Log.Warn("render %q clipped %d of %d samples", req.Title, buf.ClippedSamples, len(buf.Samples))
	}

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	createdAt := r.now()
	dest := wav.RenderFilename(req.OutputDir, req.Title, createdAt)
	file, err := wav.WriteFile(dest, buf.Samples, buf.SampleRate)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		File:           file,
		Samples:        len(buf.Samples),
		SampleRate:     buf.SampleRate,
		Duration:       buf.Duration(),
		Clipped:        buf.Clipped,
		ClippedSamples: buf.ClippedSamples,
	}
	utils.Log.Info("rendered %s (%d bytes, %s) in %s", file.Path, file.Bytes, res.Duration, time.Since(start))

	if r.sink != nil {
		id, err := r.sink.AddRender(types.RenderRecord{
			Title:     req.Title,
			Owner:     req.Owner,
			Path:      file.Path,
			Bytes:     file.Bytes,
			BPM:       ClampBPM(req.BPM),
			Steps:     steps,
			CreatedAt: createdAt,
		})
		if err != nil {
			utils.Log.Error("catalogue %s: %v", file.Path, err)
		} else {
			res.RecordID = id
		}
	}

	return res, nil
}
