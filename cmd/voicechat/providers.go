package main

import (
	"context"
	"fmt"
	"log/slog"

	"voicechat/config"
	"voicechat/internal/application"
	"voicechat/internal/infra/anthropic"
	"voicechat/internal/infra/audio"
	"voicechat/internal/infra/gemini"
	"voicechat/internal/infra/ollama"
	"voicechat/internal/infra/openai"
	"voicechat/internal/infra/piper"
	"voicechat/internal/infra/speaker"
	"voicechat/internal/infra/whisper"
)

func createAudioSource(cfg config.AudioConfig, logger *slog.Logger) application.AudioCapture {
	switch cfg.Source {
	case "http":
		return audio.NewHTTPSource(cfg.HTTPAddr, cfg.AuthToken, logger)
	case "file":
		return audio.NewFileSource(cfg.FileDir, config.Duration(cfg.PollInterval), logger)
	default:
		return audio.NewMicrophoneSource(audio.EndpointConfig{
			SampleRate:       cfg.SampleRate,
			FrameDuration:    config.Duration(cfg.FrameDuration),
			SilenceThreshold: cfg.SilenceThreshold,
			SilenceDuration:  config.Duration(cfg.SilenceDuration),
			MaxDuration:      config.Duration(cfg.MaxDuration),
		}, logger)
	}
}

func createTranscriber(ctx context.Context, cfg config.STTConfig, logger *slog.Logger) (application.Transcriber, error) {
	if cfg.Provider == "openai" {
		return openai.NewWhisperClient(cfg.APIKey, cfg.BaseURL, cfg.Language), nil
	}

	if !whisper.Available {
		return nil, fmt.Errorf("stt.provider whisper needs a build with -tags whisper")
	}

	if !cfg.LocalFilesOnly {
		d := &whisper.Downloader{BaseURL: cfg.ModelURL, Logger: logger}
		if _, err := d.EnsureModel(ctx, cfg.ModelDir, cfg.ModelSize); err != nil {
			return nil, err
		}
	}

	t, err := whisper.NewTranscriber(whisper.Options{
		ModelDir:  cfg.ModelDir,
		ModelSize: cfg.ModelSize,
		Device:    cfg.Device,
		Language:  cfg.Language,
		BeamSize:  cfg.BeamSize,
	}, logger)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func createGenerator(cfg config.LLMConfig) application.ResponseGenerator {
	switch cfg.Provider {
	case "openai":
		return openai.NewChatGenerator(cfg.APIKey, cfg.BaseURL)
	case "anthropic":
		return anthropic.NewClaudeClientWithURL(cfg.APIKey, cfg.BaseURL)
	case "gemini":
		return gemini.NewClientWithURL(cfg.APIKey, cfg.BaseURL)
	default:
		return ollama.NewClient(cfg.BaseURL)
	}
}

// createEngineOpener defers all engine work to the first synthesis.
func createEngineOpener(cfg config.TTSConfig, logger *slog.Logger) application.EngineOpener {
	if cfg.Provider == "openai" {
		return openai.NewSpeechEngine(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Voice).Opener()
	}
	return piper.Opener(piper.Options{ModelDir: cfg.ModelDir, Binary: cfg.Binary}, logger)
}

func createPlayback(cfg config.PlaybackConfig, logger *slog.Logger) (application.AudioPlayback, error) {
	switch cfg.Sink {
	case "wav":
		sink, err := audio.NewWAVSink(cfg.Dir, logger)
		if err != nil {
			return nil, fmt.Errorf("creating wav sink: %w", err)
		}
		return sink, nil
	case "none":
		return &application.NoopPlayback{}, nil
	default:
		return speaker.New(config.Duration(cfg.Buffer), logger), nil
	}
}

