package audio

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"voicechat/internal/domain"
)

// WAVSink writes each reply to dir as reply-<n>.wav at the buffer's own rate.
type WAVSink struct {
	dir    string
	logger *slog.Logger

	mu   sync.Mutex
	next int
}

func NewWAVSink(dir string, logger *slog.Logger) (*WAVSink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}
	return &WAVSink{dir: dir, logger: logger}, nil
}

func (s *WAVSink) Name() string {
	return "wav"
}

func (s *WAVSink) Play(ctx context.Context, a domain.SynthesizedAudio) error {
	if err := ctx.Err(); err != nil {
		return domain.PlaybackError(err)
	}

	s.mu.Lock()
	s.next++
	path := filepath.Join(s.dir, fmt.Sprintf("reply-%d.wav", s.next))
	s.mu.Unlock()

	if err := WriteWAVFile(path, a.Samples, a.SampleRate); err != nil {
		return domain.PlaybackError(err)
	}

	s.logger.Info("reply written", "path", path, "duration", a.Duration())
	return nil
}

// LastPath is the file written by the most recent Play, or "" before any.
func (s *WAVSink) LastPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next == 0 {
		return ""
	}
	return filepath.Join(s.dir, fmt.Sprintf("reply-%d.wav", s.next))
}

func (s *WAVSink) Close() error {
	return nil
}
