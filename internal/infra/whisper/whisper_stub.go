//go:build !whisper
// +build !whisper

package whisper

import (
	"context"
	"fmt"
	"log/slog"

	"voicechat/internal/domain"
)

// Available reports whether whisper.cpp is linked into this build.
const Available = false

// Transcriber stub when whisper.cpp is not linked
type Transcriber struct{}

func NewTranscriber(_ Options, _ *slog.Logger) (*Transcriber, error) {
	return nil, fmt.Errorf("whisper transcriber not available: rebuild with -tags whisper")
}

func (t *Transcriber) Transcribe(_ context.Context, _ domain.Utterance) (string, error) {
	return "", fmt.Errorf("whisper transcriber not available")
}

func (t *Transcriber) Close() error {
	return nil
}
