//go:build portaudio
// +build portaudio

package audio

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gordonklaus/portaudio"

	"voicechat/internal/domain"
)

// MicrophoneSource reads the default input device as 16-bit mono and
// end-points each utterance by frame energy.
type MicrophoneSource struct {
	cfg    EndpointConfig
	logger *slog.Logger

	stream *portaudio.Stream
	frame  []int16
}

func NewMicrophoneSource(cfg EndpointConfig, logger *slog.Logger) *MicrophoneSource {
	return &MicrophoneSource{
		cfg:    cfg,
		logger: logger,
	}
}

func (m *MicrophoneSource) Name() string {
	return "microphone"
}

func (m *MicrophoneSource) Start(_ context.Context) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initializing portaudio: %w", err)
	}

	m.frame = make([]int16, m.cfg.FrameSize())

	stream, err := portaudio.OpenDefaultStream(
		domain.CaptureChannels,
		0,
		float64(m.cfg.SampleRate),
		len(m.frame),
		m.frame,
	)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("opening stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("starting stream: %w", err)
	}

	m.stream = stream
	m.logger.Info("microphone started",
		"sample_rate", m.cfg.SampleRate,
		"frame", m.cfg.FrameDuration,
		"silence_threshold", m.cfg.SilenceThreshold,
	)
	return nil
}

func (m *MicrophoneSource) Stop() error {
	if m.stream != nil {
		m.stream.Stop()
		m.stream.Close()
		m.stream = nil
	}
	return portaudio.Terminate()
}

// Capture blocks until speech followed by trailing silence, or until the
// maximum duration. If nothing crossed the threshold the utterance is empty.
// Input queued since the previous capture is dropped first.
func (m *MicrophoneSource) Capture(ctx context.Context) (domain.Utterance, error) {
	if m.stream == nil {
		return domain.Utterance{}, fmt.Errorf("microphone not started")
	}

	dropped, err := drainBacklog(m.stream, len(m.frame), overflowed)
	if err != nil {
		return domain.Utterance{}, fmt.Errorf("draining input: %w", err)
	}
	if dropped > 0 {
		m.logger.Debug("dropped queued input", "frames", dropped)
	}

	ep := NewEndpointer(m.cfg)
	for {
		select {
		case <-ctx.Done():
			return domain.Utterance{}, ctx.Err()
		default:
		}

		// An overflowed read still fills the frame; samples before it were lost.
		if err := m.stream.Read(); err != nil {
			if !overflowed(err) {
				return domain.Utterance{}, fmt.Errorf("reading from stream: %w", err)
			}
			m.logger.Debug("input overflowed")
		}

		frame := make([]int16, len(m.frame))
		copy(frame, m.frame)
		if ep.Push(frame) {
			return ep.Utterance(), nil
		}
	}
}

func overflowed(err error) bool {
	return err == portaudio.InputOverflowed
}
