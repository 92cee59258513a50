package main

import (
	"fmt"
	"io"
	"math"
	"text/tabwriter"

	"github.com/rs/zerolog"

	"github.com/cwbudde/algo-voice/dsp/core"
	"github.com/cwbudde/algo-voice/dsp/node"
	"github.com/cwbudde/algo-voice/dsp/spectrum"
	"github.com/cwbudde/algo-voice/internal/config"
	"github.com/cwbudde/algo-voice/preset"
	"github.com/cwbudde/algo-voice/voice"
)

// chord spreads the voices over a major arpeggio above the base note.
var chord = []float64{0, 4, 7, 12, 16, 19, 24, 28}

const analysisSize = 4096

type voiceRow struct {
	voice     int
	frequency float64
	ids       []string
	kinds     map[string]string
	status    map[string]voice.Status
	errs      map[string]error
	wired     []string
}

type report struct {
	preset string
	rows   []voiceRow
	failed []error
	peak   spectrum.Peak
	rms    float64
	live   int
}

func loadPreset(path string) (preset.Document, error) {
	if path == "" {
		return preset.Document{ID: "default"}, nil
	}
	return preset.Load(path)
}

// notePreset returns p with the oscillator tuned to hz.
func notePreset(p voice.Preset, hz float64) voice.Preset {
	out := make(voice.Preset, len(p)+1)
	for id, cfg := range p {
		out[id] = cfg
	}
	osc := out.Section(voice.IDOscillator)
	osc.Params = osc.Params.Merge(voice.ParseParams(map[string]any{"frequency": hz}))
	out[voice.IDOscillator] = osc
	return out
}

func renderVoices(cfg config.Config, log zerolog.Logger) (*report, error) {
	doc, err := loadPreset(cfg.Preset)
	if err != nil {
		return nil, err
	}

	ctx, err := node.NewContext(core.WithSampleRate(cfg.SampleRate), core.WithBlockSize(cfg.BlockSize))
	if err != nil {
		return nil, err
	}
	reg, err := voice.DefaultRegistry()
	if err != nil {
		return nil, err
	}
	b, err := voice.NewBuilder(reg, ctx, voice.WithLogger(log), voice.WithCreateConcurrency(cfg.CreateConcurrency))
	if err != nil {
		return nil, err
	}

	rep := &report{preset: doc.ID}
	var graphs []*voice.VoiceGraph
	for i := range cfg.Polyphony {
		hz := core.MIDIToFrequency(cfg.Note + chord[i%len(chord)])
		g, err := b.BuildVoiceChain(notePreset(doc.Sound, hz))
		if err != nil {
			rep.failed = append(rep.failed, fmt.Errorf("voice %d: %w", i, err))
			continue
		}
		if err := g.ConnectTo(ctx.Destination()); err != nil {
			g.Dispose()
			rep.failed = append(rep.failed, fmt.Errorf("voice %d: %w", i, err))
			continue
		}
		if err := g.TriggerAttack(0, cfg.Velocity); err != nil {
			log.Warn().Err(err).Uint64("voice", g.ID).Msg("trigger attack")
		}
		if err := g.TriggerRelease(cfg.Duration * 0.75); err != nil {
			log.Warn().Err(err).Uint64("voice", g.ID).Msg("trigger release")
		}
		graphs = append(graphs, g)
		rep.rows = append(rep.rows, describe(i, hz, g))
	}

	n := max(ctx.Config().Samples(cfg.Duration), analysisSize)
	buf := make([]float64, n)
	ctx.Render(buf)

	a, err := spectrum.NewAnalyzer(analysisSize)
	if err != nil {
		return nil, err
	}
	// Analyse the sustain portion, before the release.
	start := max(0, min(n-analysisSize, ctx.Config().Samples(cfg.Duration*0.5)-analysisSize/2))
	if rep.peak, err = a.PeakFrequency(buf[start:start+analysisSize], cfg.SampleRate); err != nil {
		return nil, err
	}
	rep.rms = rms(buf)

	for _, g := range graphs {
		g.Dispose()
	}
	rep.live = ctx.LiveNodes()
	return rep, nil
}

func describe(i int, hz float64, g *voice.VoiceGraph) voiceRow {
	row := voiceRow{
		voice:     i,
		frequency: hz,
		ids:       g.IDs(),
		kinds:     map[string]string{},
		status:    map[string]voice.Status{},
		errs:      map[string]error{},
	}
	for _, id := range row.ids {
		if b := g.Components[id]; b != nil {
			row.kinds[id] = b.Kind
		}
		row.status[id] = g.Status(id)
		row.errs[id] = g.Err(id)
	}
	for _, m := range g.Modulations() {
		row.wired = append(row.wired, m.String())
	}
	return row
}

func rms(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(x)))
}

func (r *report) print(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Voice\tNote [Hz]\tComponent\tKind\tStatus\tError\n")
	fmt.Fprintf(tw, "-----\t---------\t---------\t----\t------\t-----\n")
	for _, row := range r.rows {
		for _, id := range row.ids {
			msg := ""
			if err := row.errs[id]; err != nil {
				msg = err.Error()
			}
			fmt.Fprintf(tw, "%d\t%.2f\t%s\t%s\t%s\t%s\n", row.voice, row.frequency, id, row.kinds[id], row.status[id], msg)
		}
		for _, edge := range row.wired {
			fmt.Fprintf(tw, "%d\t\t%s\tmodulation\t\t\n", row.voice, edge)
		}
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	for _, err := range r.failed {
		fmt.Fprintf(w, "failed: %v\n", err)
	}
	_, err := fmt.Fprintf(w, "\npreset %s: %d voices, peak %.2f Hz (MIDI %.1f, %.3f), rms %.4f (%.1f dBFS), live nodes after dispose %d\n",
		r.preset, len(r.rows), r.peak.Frequency, core.FrequencyToMIDI(r.peak.Frequency), r.peak.Magnitude,
		r.rms, core.LinearToDB(r.rms), r.live)
	return err
}
