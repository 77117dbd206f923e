// Package sound plays the new-notification alert. The bundled chime (or a
// configured file) is tried first; if it cannot be decoded or played, a
// short synthesized tone is played instead.
package sound

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gen2brain/beeep"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"

	"github.com/nateberkopec/notibar/internal/log"
)

//go:embed assets/alert.wav
var alertWAV []byte

const (
	speakerSampleRate beep.SampleRate = 44100
	resampleQuality                   = 4
	defaultVolume                     = 0.5
)

// Output is where streamers are played.
type Output interface {
	SampleRate() beep.SampleRate
	Play(s beep.Streamer) error
}

// speakerOutput initialises the beep speaker on first use. A failed init
// (no audio device, blocked output) is retried on the next Play.
type speakerOutput struct {
	mu    sync.Mutex
	ready bool
	rate  beep.SampleRate
	init  func(sr beep.SampleRate, bufferSize int) error
	play  func(s ...beep.Streamer)
}

func newSpeakerOutput(rate beep.SampleRate) *speakerOutput {
	return &speakerOutput{rate: rate, init: speaker.Init, play: speaker.Play}
}

func (o *speakerOutput) SampleRate() beep.SampleRate {
	return o.rate
}

func (o *speakerOutput) Play(s beep.Streamer) error {
	o.mu.Lock()
	if !o.ready {
		if err := o.init(o.rate, o.rate.N(time.Second/10)); err != nil {
			o.mu.Unlock()
			return fmt.Errorf("speaker unavailable: %w", err)
		}
		o.ready = true
	}
	o.mu.Unlock()

	o.play(s)
	return nil
}

// Config selects the alert sound.
type Config struct {
	File   string  // empty plays the bundled chime
	Volume float64 // (0, 1]; zero selects the default
}

// Player plays the alert sound with a synthesized fallback.
type Player struct {
	out    Output
	file   string
	volume float64
	logger log.Logger

	// beep is the last resort when the output rejects both the sound and
	// the tone.
	beep func() error
}

// New creates a Player on the system speaker.
func New(cfg Config, logger log.Logger) *Player {
	return NewWithOutput(cfg, newSpeakerOutput(speakerSampleRate), logger)
}

// NewWithOutput creates a Player on a custom output.
func NewWithOutput(cfg Config, out Output, logger log.Logger) *Player {
	if logger == nil {
		logger = log.NewNop()
	}
	volume := cfg.Volume
	if volume <= 0 || volume > 1 {
		volume = defaultVolume
	}
	return &Player{out: out, file: cfg.File, volume: volume, logger: logger, beep: systemBeep}
}

// Play attempts the primary sound, then the tone, then a system beep. It
// returns an error only when all of them failed.
func (p *Player) Play(ctx context.Context) error {
	err := p.playPrimary()
	if err == nil {
		return nil
	}
	p.logger.Warnf(ctx, "alert sound blocked, falling back to tone: %v", err)

	if err := p.out.Play(Tone(p.out.SampleRate())); err != nil {
		p.logger.Warnf(ctx, "alert tone blocked, falling back to system beep: %v", err)
		if p.beep == nil {
			return fmt.Errorf("synthesized tone: %w", err)
		}
		if berr := p.beep(); berr != nil {
			return fmt.Errorf("system beep: %w (tone: %v)", berr, err)
		}
	}
	return nil
}

func systemBeep() error {
	return beeep.Beep(beeep.DefaultFreq, toneBeepMillis)
}

func (p *Player) playPrimary() error {
	streamer, format, err := p.decode()
	if err != nil {
		return err
	}

	var s beep.Streamer = streamer
	if rate := p.out.SampleRate(); format.SampleRate != rate {
		s = beep.Resample(resampleQuality, format.SampleRate, rate, s)
	}
	vol := &effects.Volume{
		Streamer: s,
		Base:     2,
		Volume:   levelToVolume(p.volume),
	}

	if err := p.out.Play(beep.Seq(vol, beep.Callback(func() { streamer.Close() }))); err != nil {
		streamer.Close()
		return err
	}
	return nil
}

func (p *Player) decode() (beep.StreamSeekCloser, beep.Format, error) {
	if p.file == "" {
		return wav.Decode(bytes.NewReader(alertWAV))
	}

	f, err := os.Open(p.file)
	if err != nil {
		return nil, beep.Format{}, err
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch ext := strings.ToLower(filepath.Ext(p.file)); ext {
	case ".wav":
		streamer, format, err = wav.Decode(f)
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".flac":
		streamer, format, err = flac.Decode(f)
	default:
		err = fmt.Errorf("unsupported format: %s", ext)
	}
	if err != nil {
		f.Close()
		return nil, beep.Format{}, err
	}
	return streamer, format, nil
}

// levelToVolume converts a 0.0-1.0 level to beep's base-2 Volume:
// 1.0 -> 0, 0.5 -> -1, 0.25 -> -2, 0 -> -10 (essentially silent).
func levelToVolume(level float64) float64 {
	if level <= 0 {
		return -10
	}
	if level >= 1 {
		return 0
	}
	return math.Log2(level)
}
