package application

import (
	"context"

	"voicechat/internal/domain"
)

// AudioCapture yields one end-pointed utterance per call, blocking until the
// end-of-utterance condition fires.
type AudioCapture interface {
	Start(ctx context.Context) error
	Stop() error
	Capture(ctx context.Context) (domain.Utterance, error)
	Name() string
}

// AudioPlayback plays a buffer at its own sample rate and returns once
// playback has finished.
type AudioPlayback interface {
	Play(ctx context.Context, audio domain.SynthesizedAudio) error
	Close() error
	Name() string
}

// NoopPlayback discards audio. Used when no output device is configured.
type NoopPlayback struct{}

func (n *NoopPlayback) Play(_ context.Context, _ domain.SynthesizedAudio) error { return nil }
func (n *NoopPlayback) Close() error                                          { return nil }
func (n *NoopPlayback) Name() string                                          { return "none" }
