package sound

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/gopxl/beep/v2"

	"github.com/nateberkopec/notibar/internal/log"
)

type fakeOutput struct {
	rate    beep.SampleRate
	failing int // number of Play calls to reject
	played  []beep.Streamer
	calls   int
}

func (o *fakeOutput) SampleRate() beep.SampleRate { return o.rate }

func (o *fakeOutput) Play(s beep.Streamer) error {
	o.calls++
	if o.calls <= o.failing {
		return errors.New("playback blocked")
	}
	o.played = append(o.played, s)
	return nil
}

func drain(s beep.Streamer) (samples int, peak float64) {
	buf := make([][2]float64, 512)
	for {
		n, ok := s.Stream(buf)
		for i := 0; i < n; i++ {
			peak = math.Max(peak, math.Abs(buf[i][0]))
		}
		samples += n
		if !ok {
			return samples, peak
		}
	}
}

func TestPlayBundledChime(t *testing.T) {
	out := &fakeOutput{rate: speakerSampleRate}
	p := NewWithOutput(Config{Volume: 0.5}, out, log.NewNop())

	if err := p.Play(context.Background()); err != nil {
		t.Fatalf("Play returned error: %v", err)
	}
	if out.calls != 1 || len(out.played) != 1 {
		t.Fatalf("expected one playback, got calls=%d played=%d", out.calls, len(out.played))
	}
	if samples, _ := drain(out.played[0]); samples == 0 {
		t.Fatal("bundled chime produced no samples")
	}
}

func TestPlayFallsBackToTone(t *testing.T) {
	out := &fakeOutput{rate: speakerSampleRate, failing: 1}
	p := NewWithOutput(Config{}, out, log.NewNop())

	if err := p.Play(context.Background()); err != nil {
		t.Fatalf("Play returned error: %v", err)
	}
	if out.calls != 2 || len(out.played) != 1 {
		t.Fatalf("expected primary rejection then tone, got calls=%d played=%d", out.calls, len(out.played))
	}
	samples, _ := drain(out.played[0])
	if want := speakerSampleRate.N(toneDuration); samples != want {
		t.Fatalf("expected tone of %d samples, got %d", want, samples)
	}
}

func TestPlayFallsBackWhenFileMissing(t *testing.T) {
	out := &fakeOutput{rate: speakerSampleRate}
	p := NewWithOutput(Config{File: filepath.Join(t.TempDir(), "missing.wav")}, out, log.NewNop())

	if err := p.Play(context.Background()); err != nil {
		t.Fatalf("Play returned error: %v", err)
	}
	if out.calls != 1 {
		t.Fatalf("expected only the tone to reach the output, got %d calls", out.calls)
	}
}

func TestPlayFallsBackToSystemBeep(t *testing.T) {
	out := &fakeOutput{rate: speakerSampleRate, failing: 2}
	p := NewWithOutput(Config{}, out, log.NewNop())
	beeps := 0
	p.beep = func() error {
		beeps++
		return nil
	}

	if err := p.Play(context.Background()); err != nil {
		t.Fatalf("Play returned error: %v", err)
	}
	if out.calls != 2 || beeps != 1 {
		t.Fatalf("expected sound, tone, then one beep; got calls=%d beeps=%d", out.calls, beeps)
	}
}

func TestPlayReportsWhenEverythingFails(t *testing.T) {
	out := &fakeOutput{rate: speakerSampleRate, failing: 2}
	p := NewWithOutput(Config{}, out, log.NewNop())
	p.beep = func() error { return errors.New("no beeper") }

	if err := p.Play(context.Background()); err == nil {
		t.Fatal("expected error when tone and beep also fail")
	}
}

func TestSpeakerOutputRetriesInitAfterFailure(t *testing.T) {
	inits := 0
	var played []beep.Streamer
	out := newSpeakerOutput(speakerSampleRate)
	out.init = func(beep.SampleRate, int) error {
		inits++
		if inits == 1 {
			return errors.New("device busy")
		}
		return nil
	}
	out.play = func(s ...beep.Streamer) { played = append(played, s...) }

	if err := out.Play(Tone(speakerSampleRate)); err == nil {
		t.Fatal("expected first Play to report the init failure")
	}
	if err := out.Play(Tone(speakerSampleRate)); err != nil {
		t.Fatalf("second Play should retry init and succeed: %v", err)
	}
	if err := out.Play(Tone(speakerSampleRate)); err != nil {
		t.Fatalf("third Play returned error: %v", err)
	}
	if inits != 2 {
		t.Fatalf("expected init to stop after success, got %d calls", inits)
	}
	if len(played) != 2 {
		t.Fatalf("expected two streamers played, got %d", len(played))
	}
}

func TestUnsupportedFileFormat(t *testing.T) {
	p := NewWithOutput(Config{File: "alert.ogg"}, &fakeOutput{rate: speakerSampleRate}, nil)
	if _, _, err := p.decode(); err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}

func TestToneEnvelope(t *testing.T) {
	if g := toneGain(0); math.Abs(g-0.5) > 1e-9 {
		t.Fatalf("tone should start at 0.5, got %f", g)
	}
	if g := toneGain(toneDuration.Seconds()); math.Abs(g-0.01) > 1e-9 {
		t.Fatalf("tone should end at 0.01, got %f", g)
	}
	if toneGain(0.1) <= toneGain(0.2) {
		t.Fatal("tone gain should decay")
	}

	samples, peak := drain(Tone(beep.SampleRate(8000)))
	if samples != 4000 {
		t.Fatalf("expected 4000 samples at 8kHz, got %d", samples)
	}
	if peak > 0.5 {
		t.Fatalf("tone peak %f exceeds start gain", peak)
	}
}

func TestLevelToVolume(t *testing.T) {
	tests := []struct {
		level float64
		want  float64
	}{
		{1, 0},
		{0.5, -1},
		{0.25, -2},
		{0, -10},
	}
	for _, tt := range tests {
		if got := levelToVolume(tt.level); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("levelToVolume(%v) = %v, want %v", tt.level, got, tt.want)
		}
	}
}
