// Package whisper transcribes utterances locally with whisper.cpp.
package whisper

import (
	"runtime"
	"strings"

	"voicechat/internal/domain"
	"voicechat/internal/infra/audio"
)

// SampleRate is the only input rate whisper.cpp accepts.
const SampleRate = 16000

type Options struct {
	ModelDir  string
	ModelSize string
	Device    string
	Language  string
	BeamSize  int
	Threads   int
}

func (o Options) withDefaults() Options {
	if o.ModelSize == "" {
		o.ModelSize = "small"
	}
	if o.Language == "" {
		o.Language = "auto"
	}
	if o.BeamSize <= 0 {
		o.BeamSize = 5
	}
	if o.Threads <= 0 {
		o.Threads = runtime.NumCPU()
	}
	return o
}

// PrepareSamples converts an utterance to 16 kHz float32 mono in [-1, 1].
func PrepareSamples(utt domain.Utterance) []float32 {
	pcm := audio.Int16ToFloat32(utt.Samples)
	return audio.ResampleLinear(pcm, utt.SampleRate, SampleRate)
}

// JoinSegments concatenates segment texts in order. whisper.cpp keeps the
// leading space of each segment, so nothing is inserted between them.
func JoinSegments(segments []string) string {
	var b strings.Builder
	for _, s := range segments {
		b.WriteString(s)
	}
	return b.String()
}
