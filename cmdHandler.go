package main

import (
	"beatrender/assets"
	"beatrender/config"
	"beatrender/db"
	"beatrender/dsp"
	"beatrender/pattern"
	"beatrender/render"
	"beatrender/types"
	"beatrender/utils"
	"beatrender/wav"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
)

var (
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	green  = color.New(color.FgGreen)

	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#555"))
	activeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#fff")).Bold(true)
	beatStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888"))
	nameStyle   = lipgloss.NewStyle().Width(8)
)

func renderPattern(cfg config.Config, client *db.SQLiteClient, patternPath, title string) error {
	store, file, err := pattern.LoadFile(patternPath)
	if err != nil {
		return err
	}
	if title == "" {
		title = file.Title
	}
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(patternPath), filepath.Ext(patternPath))
	}
	bpm := file.BPM
	if bpm == 0 {
		bpm = cfg.BPM
	}
	if clamped := render.ClampBPM(bpm); clamped != bpm {
		yellow.Printf("tempo %d out of range, using %d bpm\n", bpm, clamped)
		bpm = clamped
	}

	snapshot := store.Snapshot()
	fmt.Println(grid(snapshot, store.Sounds()))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	r := render.New(
		assets.NewDir(cfg.SamplesDir),
		render.WithSampleRate(cfg.SampleRate),
		render.WithSink(client),
	)
	res, err := r.Render(ctx, render.Request{
		Title:     title,
		Owner:     cfg.Owner,
		BPM:       bpm,
		Steps:     store.Steps(),
		Patterns:  snapshot,
		OutputDir: cfg.OutputDir,
	})
	if err != nil {
		return err
	}

	green.Printf("%s\n", res.File.Path)
	fmt.Printf("\t%d bytes, %d samples @ %d Hz, %s\n", res.File.Bytes, res.Samples, res.SampleRate, res.Duration)
	if res.Clipped {
		yellow.Printf("\tclipping: %d samples hit the limit\n", res.ClippedSamples)
	}
	return nil
}

// grid draws the pattern as one row per sound, beats separated by spaces.
func grid(snapshot map[string]types.StepPattern, sounds []string) string {
	var rows []string
	for _, name := range sounds {
		p := snapshot[name]
		var b strings.Builder
		for i, on := range p {
			if i > 0 && i%4 == 0 {
				b.WriteString(beatStyle.Render(" "))
			}
			if on {
				b.WriteString(activeStyle.Render("x"))
			} else {
				b.WriteString(dimStyle.Render("-"))
			}
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, nameStyle.Render(name), b.String()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func listRenders(client *db.SQLiteClient, owner string) error {
	records, err := client.ListRenders(owner)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No renders found.")
		return nil
	}
	for _, rec := range records {
		fmt.Printf("%4d  %-24s %3d bpm %2d steps %8d bytes  %s  %s\n",
			rec.ID, rec.Title, rec.BPM, rec.Steps, rec.Bytes,
			rec.CreatedAt.Format("2006-01-02 15:04:05"), rec.Path)
	}
	return nil
}

func inspect(path string) error {
	sample, err := wav.DecodeFile(path)
	if err != nil {
		return err
	}
	lv := dsp.Measure(sample.Data)
	seconds := float64(len(sample.Data)) / float64(sample.SampleRate)

	fmt.Printf("%s\n", path)
	fmt.Printf("\trate: %d Hz, length: %d samples (%.3fs)\n", sample.SampleRate, len(sample.Data), seconds)
	fmt.Printf("\tpeak: %d, rms: %.1f\n", lv.Peak, lv.RMS)
	fmt.Printf("\tdominant frequency: %.1f Hz\n", dsp.DominantFrequency(sample.Data, sample.SampleRate))
	if lv.ClippedSamples > 0 {
		yellow.Printf("\t%d samples at full scale\n", lv.ClippedSamples)
	}
	return nil
}

func cleanup(client *db.SQLiteClient) error {
	removed, err := client.CleanupMissingFiles()
	if err != nil {
		return err
	}
	fmt.Printf("Removed %d catalogue entries with missing files.\n", removed)
	return nil
}

func reportError(err error) {
	var (
		fe *types.FormatError
		nf *types.AssetNotFoundError
		ie *types.IOError
		se *types.SpecError
	)
	switch {
	case errors.As(err, &fe):
		red.Fprintf(os.Stderr, "unsupported sample %q: %s\n", fe.Asset, fe.Reason)
	case errors.As(err, &nf):
		red.Fprintf(os.Stderr, "missing sample %q\n", nf.Asset)
	case errors.As(err, &ie):
		red.Fprintf(os.Stderr, "could not write %s: %v\n", ie.Path, ie.Err)
	case errors.As(err, &se):
		red.Fprintf(os.Stderr, "%v\n", se)
	default:
		utils.Log.Error("%v", err)
	}
}
