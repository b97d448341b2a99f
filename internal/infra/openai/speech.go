package openai

import (
	"context"
	"fmt"
	"io"

	oai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"voicechat/internal/application"
	"voicechat/internal/infra/audio"
)

// SpeechSampleRate is the rate of response_format=pcm output.
const SpeechSampleRate = 24000

// Voices is the hosted engine's roster, in the order the API documents it.
var Voices = []string{"alloy", "ash", "coral", "echo", "fable", "onyx", "nova", "sage", "shimmer"}

// SpeechEngine synthesizes through the audio speech endpoint and decodes the
// raw 16-bit PCM reply into float samples.
type SpeechEngine struct {
	apiKey string
	model  string
	voices []string
	client oai.Client
}

// NewSpeechEngine returns an engine whose roster starts with voice when voice
// is non-empty.
func NewSpeechEngine(apiKey, baseURL, model, voice string, opts ...option.RequestOption) *SpeechEngine {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = "tts-1"
	}
	voices := Voices
	if voice != "" {
		voices = append([]string{voice}, without(Voices, voice)...)
	}
	all := append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
	}, opts...)
	return &SpeechEngine{
		apiKey: apiKey,
		model:  model,
		voices: voices,
		client: oai.NewClient(all...),
	}
}

// Opener adapts the engine to the lazy synthesizer. Nothing is fetched at
// open time; the API key is checked instead.
func (e *SpeechEngine) Opener() application.EngineOpener {
	return func(context.Context) (application.SpeechEngine, error) {
		if e.apiKey == "" {
			return nil, fmt.Errorf("openai speech: api key not set")
		}
		return e, nil
	}
}

func (e *SpeechEngine) Speakers() []string {
	out := make([]string, len(e.voices))
	copy(out, e.voices)
	return out
}

func (e *SpeechEngine) SampleRate() int {
	return SpeechSampleRate
}

func (e *SpeechEngine) Synthesize(ctx context.Context, text, speaker string) ([]float32, error) {
	resp, err := e.client.Audio.Speech.New(ctx, oai.AudioSpeechNewParams{
		Model:          oai.SpeechModel(e.model),
		Input:          text,
		Voice:          oai.AudioSpeechNewParamsVoice(speaker),
		ResponseFormat: oai.AudioSpeechNewParamsResponseFormatPCM,
	})
	if err != nil {
		return nil, fmt.Errorf("speech request: %w", err)
	}
	defer resp.Body.Close()

	pcm, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading audio: %w", err)
	}
	return audio.DecodePCM16LE(pcm), nil
}

func (e *SpeechEngine) Close() error {
	return nil
}

func without(list []string, drop string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v != drop {
			out = append(out, v)
		}
	}
	return out
}
