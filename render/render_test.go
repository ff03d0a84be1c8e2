package render

import (
	"beatrender/assets"
	"beatrender/types"
	"beatrender/wav"
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeSink struct {
	mu      sync.Mutex
	records []types.RenderRecord
	err     error
}

func (f *fakeSink) AddRender(rec types.RenderRecord) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.records = append(f.records, rec)
	return int64(len(f.records)), nil
}

func kit() assets.Memory {
	return assets.Memory{
		"kick":  wav.Encode([]int16{1000, 2000, 3000}, 44100),
		"snare": wav.Encode([]int16{-500, -500, -500, -500}, 22050),
	}
}

func steps(t *testing.T, n int, active ...int) types.StepPattern {
	t.Helper()
	p, err := types.NewStepPattern(n, active...)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func outputFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil && !os.IsNotExist(err) {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestRenderWritesBar(t *testing.T) {
	out := t.TempDir()
	sink := &fakeSink{}
	fixed := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	r := New(kit(), WithSink(sink), WithClock(func() time.Time { return fixed }))

	res, err := r.Render(context.Background(), Request{
		Title: "test beat",
		Owner: "alice",
		BPM:   120,
		Patterns: map[string]types.StepPattern{
			"kick":  steps(t, 16, 0, 8),
			"snare": steps(t, 16, 4),
		},
		OutputDir: out,
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	if res.Samples != 88200 || res.SampleRate != 44100 {
		t.Errorf("Samples = %d @ %d, want 88200 @ 44100", res.Samples, res.SampleRate)
	}
	if res.File.Bytes != int64(wav.HeaderSize+88200*2) {
		t.Errorf("Bytes = %d, want %d", res.File.Bytes, wav.HeaderSize+88200*2)
	}
	if res.Duration != 2*time.Second {
		t.Errorf("Duration = %v, want 2s", res.Duration)
	}
	if res.Clipped {
		t.Error("unexpected clipping")
	}

	bar, err := wav.DecodeFile(res.File.Path)
	if err != nil {
		t.Fatalf("DecodeFile: %v", err)
	}
	kickAt := []int{0, 44100}
	for _, at := range kickAt {
		if bar.Data[at] != 1000 || bar.Data[at+2] != 3000 {
			t.Errorf("kick at %d = %v", at, bar.Data[at:at+3])
		}
	}
	// snare at step 4 = sample 22050, resampled 22.05k -> 44.1k doubles its length
	for i := 22050; i < 22050+8; i++ {
		if bar.Data[i] != -500 {
			t.Errorf("snare sample %d = %d, want -500", i, bar.Data[i])
		}
	}
	if bar.Data[22050+8] != 0 {
		t.Errorf("sample after snare = %d, want 0", bar.Data[22050+8])
	}

	if len(sink.records) != 1 {
		t.Fatalf("sink got %d records, want 1", len(sink.records))
	}
	rec := sink.records[0]
	if rec.Title != "test beat" || rec.Owner != "alice" || rec.Path != res.File.Path ||
		rec.Bytes != res.File.Bytes || rec.BPM != 120 || rec.Steps != 16 || !rec.CreatedAt.Equal(fixed) {
		t.Errorf("record = %+v", rec)
	}
	if res.RecordID != 1 {
		t.Errorf("RecordID = %d, want 1", res.RecordID)
	}
}

func TestRenderMissingAsset(t *testing.T) {
	out := t.TempDir()
	r := New(kit())
	_, err := r.Render(context.Background(), Request{
		BPM: 120,
		Patterns: map[string]types.StepPattern{
			"kick":    steps(t, 16, 0),
			"cowbell": steps(t, 16, 2),
		},
		OutputDir: out,
	})
	var nf *types.AssetNotFoundError
	if !errors.As(err, &nf) || nf.Asset != "cowbell" {
		t.Fatalf("err = %v, want AssetNotFoundError for cowbell", err)
	}
	if files := outputFiles(t, out); len(files) != 0 {
		t.Errorf("output dir has %v after failed render", files)
	}
}

func TestRenderLoadsSilentTracks(t *testing.T) {
	out := t.TempDir()
	r := New(kit())
	_, err := r.Render(context.Background(), Request{
		BPM: 120,
		Patterns: map[string]types.StepPattern{
			"kick":    steps(t, 16, 0),
			"cowbell": steps(t, 16),
		},
		OutputDir: out,
	})
	var nf *types.AssetNotFoundError
	if !errors.As(err, &nf) || nf.Asset != "cowbell" {
		t.Fatalf("err = %v, want AssetNotFoundError for cowbell", err)
	}
	if files := outputFiles(t, out); len(files) != 0 {
		t.Errorf("output dir has %v after failed render", files)
	}
}

func TestRenderRejectsMalformedSilentTrack(t *testing.T) {
	out := t.TempDir()
	src := kit()
	bad := wav.Encode([]int16{1, 2}, 44100)
	bad[20] = 3 // format tag: IEEE float
	src["snare"] = bad

	_, err := New(src).Render(context.Background(), Request{
		BPM: 120,
		Patterns: map[string]types.StepPattern{
			"kick":  steps(t, 16, 0),
			"snare": steps(t, 16),
		},
		OutputDir: out,
	})
	var fe *types.FormatError
	if !errors.As(err, &fe) || fe.Asset != "snare" {
		t.Fatalf("err = %v, want FormatError for snare", err)
	}
	if files := outputFiles(t, out); len(files) != 0 {
		t.Errorf("output dir has %v after failed render", files)
	}
}

func TestRenderSilentTrackAddsNothing(t *testing.T) {
	res, err := New(kit()).Render(context.Background(), Request{
		BPM: 120,
		Patterns: map[string]types.StepPattern{
			"kick":  steps(t, 16, 0),
			"snare": steps(t, 16),
		},
		OutputDir: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	bar, err := wav.DecodeFile(res.File.Path)
	if err != nil {
		t.Fatalf("DecodeFile: %v", err)
	}
	for i, v := range bar.Data[3:] {
		if v != 0 {
			t.Fatalf("sample %d = %d, want silence after the kick", i+3, v)
		}
	}
}

func TestStepMismatchNamesSameTrack(t *testing.T) {
	req := Request{
		BPM: 120,
		Patterns: map[string]types.StepPattern{
			"a": steps(t, 16, 0),
			"b": steps(t, 8, 0),
			"c": steps(t, 16, 0),
			"d": steps(t, 12, 0),
		},
	}
	for i := 0; i < 20; i++ {
		_, err := stepCount(req)
		var se *types.SpecError
		if !errors.As(err, &se) {
			t.Fatalf("err = %v, want *SpecError", err)
		}
		if !strings.Contains(se.Reason, `"b"`) || !strings.Contains(se.Reason, "want 16") {
			t.Fatalf("run %d: Reason = %q, want track b against 16 steps", i, se.Reason)
		}
	}
}

func TestRenderMalformedAsset(t *testing.T) {
	out := t.TempDir()
	src := kit()
	bad := wav.Encode([]int16{1, 2}, 44100)
	bad[34] = 8 // bits per sample
	src["snare"] = bad

	r := New(src)
	_, err := r.Render(context.Background(), Request{
		BPM: 120,
		Patterns: map[string]types.StepPattern{
			"kick":  steps(t, 16, 0),
			"snare": steps(t, 16, 4),
		},
		OutputDir: out,
	})
	var fe *types.FormatError
	if !errors.As(err, &fe) || fe.Asset != "snare" {
		t.Fatalf("err = %v, want FormatError for snare", err)
	}
	if files := outputFiles(t, out); len(files) != 0 {
		t.Errorf("output dir has %v after failed render", files)
	}
}

func TestRenderStepMismatch(t *testing.T) {
	r := New(kit())
	_, err := r.Render(context.Background(), Request{
		BPM: 120,
		Patterns: map[string]types.StepPattern{
			"kick":  steps(t, 16, 0),
			"snare": steps(t, 8, 4),
		},
		OutputDir: t.TempDir(),
	})
	var se *types.SpecError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *SpecError", err)
	}
}

func TestRenderNoPatterns(t *testing.T) {
	r := New(kit())
	_, err := r.Render(context.Background(), Request{BPM: 120, OutputDir: t.TempDir()})
	var se *types.SpecError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *SpecError", err)
	}

	res, err := r.Render(context.Background(), Request{BPM: 120, Steps: 16, OutputDir: t.TempDir()})
	if err != nil {
		t.Fatalf("Render with explicit steps: %v", err)
	}
	if res.Samples != 88200 {
		t.Errorf("Samples = %d, want 88200", res.Samples)
	}
}

func TestRenderCancelledBeforeWrite(t *testing.T) {
	out := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(kit()).Render(ctx, Request{
		BPM:       120,
		Patterns:  map[string]types.StepPattern{"kick": steps(t, 16, 0)},
		OutputDir: out,
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if files := outputFiles(t, out); len(files) != 0 {
		t.Errorf("output dir has %v after cancelled render", files)
	}
}

func TestRenderSinkFailureIsNotFatal(t *testing.T) {
	sink := &fakeSink{err: errors.New("db locked")}
	res, err := New(kit(), WithSink(sink)).Render(context.Background(), Request{
		BPM:       120,
		Patterns:  map[string]types.StepPattern{"kick": steps(t, 16, 0)},
		OutputDir: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if res.RecordID != 0 {
		t.Errorf("RecordID = %d, want 0", res.RecordID)
	}
	if _, err := os.Stat(res.File.Path); err != nil {
		t.Errorf("rendered file missing: %v", err)
	}
}

func TestRenderReportsClipping(t *testing.T) {
	src := assets.Memory{
		"a": wav.Encode([]int16{30000}, 44100),
		"b": wav.Encode([]int16{30000}, 44100),
	}
	res, err := New(src).Render(context.Background(), Request{
		BPM: 120,
		Patterns: map[string]types.StepPattern{
			"a": steps(t, 16, 0),
			"b": steps(t, 16, 0),
		},
		OutputDir: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !res.Clipped || res.ClippedSamples != 1 {
		t.Errorf("Clipped = %v (%d), want true (1)", res.Clipped, res.ClippedSamples)
	}
}

func TestConcurrentRendersDoNotCollide(t *testing.T) {
	out := t.TempDir()
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r := New(kit(), WithSampleRate(8000), WithClock(func() time.Time { return fixed }))

	const n = 8
	patterns := make([]types.StepPattern, n)
	for i := range patterns {
		patterns[i] = steps(t, 16, i)
	}
	var wg sync.WaitGroup
	paths := make([]string, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := r.Render(context.Background(), Request{
				Title:     "same",
				BPM:       120,
				Patterns:  map[string]types.StepPattern{"kick": patterns[i]},
				OutputDir: out,
			})
			paths[i], errs[i] = res.File.Path, err
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("render %d: %v", i, errs[i])
		}
		if seen[paths[i]] {
			t.Errorf("duplicate output path %s", paths[i])
		}
		seen[paths[i]] = true
	}
	if files := outputFiles(t, out); len(files) != n {
		t.Errorf("output dir has %d files, want %d", len(files), n)
	}
}

func TestClampBPM(t *testing.T) {
	tests := []struct{ in, want int }{
		{0, MinBPM},
		{-5, MinBPM},
		{120, 120},
		{1000, MaxBPM},
	}
	for _, tt := range tests {
		if got := ClampBPM(tt.in); got != tt.want {
			t.Errorf("ClampBPM(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
