// Package tone synthesizes short PCM tones and plays them through PulseAudio.
package tone

import (
	"fmt"
	"math"
	"time"

	"github.com/jfreymuth/pulse"
)

// SampleRate is the mono sample rate of every synthesized buffer.
const SampleRate = 16000

// Spec describes one sine segment.
type Spec struct {
	FrequencyHz float64
	Duration    time.Duration
	Volume      float64
}

// Player plays a mono PCM buffer at SampleRate.
type Player interface {
	Play(samples []int16) error
}

// Sequence concatenates segments separated by a short silence.
func Sequence(parts ...Spec) []int16 {
	if len(parts) == 0 {
		return nil
	}
	gapSamples := Samples(22 * time.Millisecond)
	total := 0
	for i, part := range parts {
		total += Samples(part.Duration)
		if i < len(parts)-1 {
			total += gapSamples
		}
	}

	pcm := make([]int16, 0, total)
	for i, part := range parts {
		pcm = append(pcm, Synthesize(part)...)
		if i < len(parts)-1 && gapSamples > 0 {
			pcm = append(pcm, make([]int16, gapSamples)...)
		}
	}
	return pcm
}

// Synthesize renders one enveloped sine tone.
func Synthesize(spec Spec) []int16 {
	n := Samples(spec.Duration)
	if n <= 0 || spec.FrequencyHz <= 0 || spec.Volume <= 0 {
		return nil
	}

	attackRelease := n / 10
	maxRamp := SampleRate / 200 // 5ms
	if attackRelease > maxRamp {
		attackRelease = maxRamp
	}
	if attackRelease < 1 {
		attackRelease = 1
	}

	volume := math.Min(spec.Volume, 1)
	pcm := make([]int16, n)
	for i := 0; i < n; i++ {
		envelope := 1.0
		if i < attackRelease {
			envelope = float64(i) / float64(attackRelease)
		}
		releaseIndex := n - i - 1
		if releaseIndex < attackRelease {
			release := float64(releaseIndex) / float64(attackRelease)
			if release < envelope {
				envelope = release
			}
		}
		t := float64(i) / SampleRate
		sample := math.Sin(2 * math.Pi * spec.FrequencyHz * t)
		pcm[i] = int16(math.Round(sample * volume * envelope * 32767))
	}
	return pcm
}

// Samples converts a duration into a sample count.
func Samples(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Round(d.Seconds() * SampleRate))
}

// Pulse plays buffers on the default PulseAudio sink, one client per buffer.
type Pulse struct {
	AppName   string
	IconName  string
	MediaName string
}

// Play blocks until the buffer has drained.
func (p Pulse) Play(samples []int16) error {
	if len(samples) == 0 {
		return nil
	}

	appName := p.AppName
	if appName == "" {
		appName = "voxboard"
	}
	opts := []pulse.ClientOption{pulse.ClientApplicationName(appName)}
	if p.IconName != "" {
		opts = append(opts, pulse.ClientApplicationIconName(p.IconName))
	}
	client, err := pulse.NewClient(opts...)
	if err != nil {
		return fmt.Errorf("connect pulse server: %w", err)
	}
	defer client.Close()

	cursor := 0
	reader := pulse.Int16Reader(func(buf []int16) (int, error) {
		if cursor >= len(samples) {
			return 0, pulse.EndOfData
		}

		n := copy(buf, samples[cursor:])
		cursor += n
		if cursor >= len(samples) {
			return n, pulse.EndOfData
		}
		return n, nil
	})

	mediaName := p.MediaName
	if mediaName == "" {
		mediaName = appName + " tone"
	}
	stream, err := client.NewPlayback(
		reader,
		pulse.PlaybackMono,
		pulse.PlaybackSampleRate(SampleRate),
		pulse.PlaybackLatency(0.02),
		pulse.PlaybackMediaName(mediaName),
	)
	if err != nil {
		return fmt.Errorf("create pulse playback stream: %w", err)
	}
	defer stream.Close()

	stream.Start()
	stream.Drain()
	if err := stream.Error(); err != nil {
		return fmt.Errorf("play tone stream: %w", err)
	}
	return nil
}
