package sound

import (
	"math"
	"time"

	"github.com/gopxl/beep/v2"
)

const (
	toneFrequency = 587.0 // D5
	toneStartGain = 0.5
	toneEndGain   = 0.01
	toneDuration  = 500 * time.Millisecond

	toneBeepMillis = 500
)

// Tone synthesizes the fallback alert: a sine at toneFrequency whose gain
// decays exponentially from toneStartGain to toneEndGain over toneDuration.
func Tone(sr beep.SampleRate) beep.Streamer {
	total := sr.N(toneDuration)
	pos := 0
	return beep.StreamerFunc(func(samples [][2]float64) (n int, ok bool) {
		if pos >= total {
			return 0, false
		}
		for i := range samples {
			if pos >= total {
				break
			}
			v := toneSample(pos, sr)
			samples[i][0] = v
			samples[i][1] = v
			pos++
			n++
		}
		return n, true
	})
}

func toneSample(pos int, sr beep.SampleRate) float64 {
	t := float64(pos) / float64(sr)
	return toneGain(t) * math.Sin(2*math.Pi*toneFrequency*t)
}

func toneGain(t float64) float64 {
	return toneStartGain * math.Pow(toneEndGain/toneStartGain, t/toneDuration.Seconds())
}
