package audio

import (
	"time"

	"voicechat/internal/domain"
)

type EndpointConfig struct {
	SampleRate       int
	FrameDuration    time.Duration
	SilenceThreshold float64
	SilenceDuration  time.Duration
	MaxDuration      time.Duration
}

func DefaultEndpointConfig() EndpointConfig {
	return EndpointConfig{
		SampleRate:       domain.CaptureSampleRate,
		FrameDuration:    20 * time.Millisecond,
		SilenceThreshold: 0.015,
		SilenceDuration:  800 * time.Millisecond,
		MaxDuration:      30 * time.Second,
	}
}

// FrameSize is the number of samples in one analysis frame.
func (c EndpointConfig) FrameSize() int {
	n := int(time.Duration(c.SampleRate) * c.FrameDuration / time.Second)
	if n <= 0 {
		return 1
	}
	return n
}

// Endpointer decides where an utterance ends. Frames before the first loud
// frame are dropped; once speech has started, the utterance ends after
// SilenceDuration of quiet frames or at MaxDuration, whichever comes first.
type Endpointer struct {
	cfg          EndpointConfig
	speaking     bool
	frames       int
	silentFrames int
	samples      []int16
}

func NewEndpointer(cfg EndpointConfig) *Endpointer {
	return &Endpointer{cfg: cfg}
}

// Push feeds one frame and reports whether the utterance is complete.
func (e *Endpointer) Push(frame []int16) bool {
	e.frames++

	loud := FrameRMS(frame) > e.cfg.SilenceThreshold
	switch {
	case loud:
		e.speaking = true
		e.silentFrames = 0
		e.samples = append(e.samples, frame...)
	case e.speaking:
		e.silentFrames++
		e.samples = append(e.samples, frame...)
		if time.Duration(e.silentFrames)*e.cfg.FrameDuration >= e.cfg.SilenceDuration {
			return true
		}
	}

	return time.Duration(e.frames)*e.cfg.FrameDuration >= e.cfg.MaxDuration
}

// Utterance returns what has been collected. It is empty if no frame ever
// crossed the threshold.
func (e *Endpointer) Utterance() domain.Utterance {
	return domain.Utterance{
		Samples:    e.samples,
		SampleRate: e.cfg.SampleRate,
	}
}

func (e *Endpointer) Reset() {
	e.speaking = false
	e.frames = 0
	e.silentFrames = 0
	e.samples = nil
}
