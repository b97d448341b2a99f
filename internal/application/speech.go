package application

import (
	"context"

	"voicechat/internal/domain"
)

// Transcriber converts an utterance to text. Silence or noise yields an empty
// string, which is not an error.
type Transcriber interface {
	Transcribe(ctx context.Context, utt domain.Utterance) (string, error)
}
