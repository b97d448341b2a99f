package application

import (
	"context"
	"fmt"
	"log/slog"

	"voicechat/internal/domain"
)

// SpeechEngine is an initialized text-to-speech handle. Speakers is the
// engine's roster in its own order; SampleRate is fixed for the handle.
type SpeechEngine interface {
	Speakers() []string
	SampleRate() int
	Synthesize(ctx context.Context, text, speaker string) ([]float32, error)
	Close() error
}

// EngineOpener builds the speech engine. It is called until it succeeds once.
type EngineOpener func(ctx context.Context) (SpeechEngine, error)

// Synthesizer owns the process-wide speech engine handle, opening it on the
// first call and reusing it afterwards. Not safe for concurrent use; the
// orchestrator is its only caller.
type Synthesizer struct {
	open   EngineOpener
	engine SpeechEngine
	logger *slog.Logger
}

func NewSynthesizer(open EngineOpener, logger *slog.Logger) *Synthesizer {
	return &Synthesizer{
		open:   open,
		logger: logger,
	}
}

// Synthesize speaks text with the first speaker in the engine's roster.
// Results are never cached.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) (domain.SynthesizedAudio, error) {
	engine, err := s.handle(ctx)
	if err != nil {
		return domain.SynthesizedAudio{}, domain.SynthesisError(err)
	}

	speakers := engine.Speakers()
	if len(speakers) == 0 {
		return domain.SynthesizedAudio{}, domain.SynthesisError(fmt.Errorf("engine has no speakers"))
	}

	samples, err := engine.Synthesize(ctx, text, speakers[0])
	if err != nil {
		return domain.SynthesizedAudio{}, domain.SynthesisError(fmt.Errorf("synthesizing: %w", err))
	}

	return domain.SynthesizedAudio{
		Samples:    samples,
		SampleRate: engine.SampleRate(),
	}, nil
}

func (s *Synthesizer) Initialized() bool {
	return s.engine != nil
}

func (s *Synthesizer) Close() error {
	if s.engine == nil {
		return nil
	}
	err := s.engine.Close()
	s.engine = nil
	return err
}

func (s *Synthesizer) handle(ctx context.Context) (SpeechEngine, error) {
	if s.engine != nil {
		return s.engine, nil
	}

	s.logger.Info("initializing speech engine")
	engine, err := s.open(ctx)
	if err != nil {
		return nil, fmt.Errorf("initializing engine: %w", err)
	}

	s.engine = engine
	s.logger.Info("speech engine ready",
		"speakers", len(engine.Speakers()),
		"sample_rate", engine.SampleRate(),
	)
	return engine, nil
}
