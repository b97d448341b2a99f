//go:build whisper
// +build whisper

package whisper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"voicechat/internal/domain"
)

// Available reports whether whisper.cpp is linked into this build.
const Available = true

type Transcriber struct {
	opts   Options
	logger *slog.Logger

	mu    sync.Mutex
	model whisper.Model
}

// NewTranscriber loads ggml-<size>.bin from the model dir. The model must
// already be present; see EnsureModel.
func NewTranscriber(opts Options, logger *slog.Logger) (*Transcriber, error) {
	opts = opts.withDefaults()
	path := ModelPath(opts.ModelDir, opts.ModelSize)

	m, err := whisper.New(path)
	if err != nil {
		return nil, fmt.Errorf("loading whisper model %s: %w", path, err)
	}

	if opts.Device != "" && opts.Device != "auto" {
		logger.Info("whisper device is chosen at build time, ignoring setting", "device", opts.Device)
	}
	logger.Info("whisper model loaded", "path", path, "language", opts.Language, "beam_size", opts.BeamSize)

	return &Transcriber{
		opts:   opts,
		logger: logger,
		model:  m,
	}, nil
}

func (t *Transcriber) Transcribe(ctx context.Context, utt domain.Utterance) (string, error) {
	if utt.Empty() {
		return "", nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.model == nil {
		return "", errors.New("whisper model closed")
	}

	wctx, err := t.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("new context: %w", err)
	}
	if err := wctx.SetLanguage(t.opts.Language); err != nil {
		return "", fmt.Errorf("set language: %w", err)
	}
	wctx.SetThreads(uint(t.opts.Threads))
	wctx.SetBeamSize(t.opts.BeamSize)

	if err := wctx.Process(PrepareSamples(utt), nil, nil, nil); err != nil {
		return "", fmt.Errorf("process: %w", err)
	}

	var segments []string
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		s, err := wctx.NextSegment()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("next segment: %w", err)
		}
		segments = append(segments, s.Text)
	}

	t.logger.Debug("transcribed",
		"segments", len(segments),
		"language", wctx.DetectedLanguage(),
	)
	return JoinSegments(segments), nil
}

func (t *Transcriber) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.model == nil {
		return nil
	}
	err := t.model.Close()
	t.model = nil
	return err
}
