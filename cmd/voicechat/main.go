package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/pflag"

	"voicechat/config"
	"voicechat/internal/application"
	"voicechat/internal/infra/console"
	"voicechat/internal/infra/metrics"
	"voicechat/internal/infra/pushover"
	"voicechat/internal/infra/web"
)

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

func main() {
	configPath := pflag.StringP("config", "c", "config.yaml", "path to config file")
	envFile := pflag.StringP("env", "e", ".env", "dotenv file loaded before the config")
	pflag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Error("loading env file", "path", *envFile, "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	session := uuid.NewString()
	logger := setupLogger(cfg.Log).With("session", session)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutting down")
		cancel()
	}()

	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil {
				logger.Warn("closing component", "error", err)
			}
		}
	}()

	var recorder application.Metrics = &application.NoopMetrics{}
	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		m := metrics.New()
		recorder = m
		metricsHandler = m.Handler()
		if cfg.UI.Addr == "" {
			logger.Warn("metrics enabled but ui.addr is empty, /metrics is not served")
		}
	}

	var presenters application.Presenters
	if cfg.UI.Console != "off" {
		presenters = append(presenters, console.NewPresenter(os.Stdout, cfg.UI.Console == "status"))
	}
	if cfg.UI.Addr != "" {
		server := web.NewServer(cfg.UI.Addr, session, metricsHandler, logger.With("component", "web"))
		if err := server.Start(ctx); err != nil {
			logger.Error("starting web presenter", "error", err)
			os.Exit(1)
		}
		closers = append(closers, closerFunc(server.Stop))
		presenters = append(presenters, server)
	}
	if cfg.Pushover.Enabled {
		notifier := pushover.NewErrorPresenter(
			pushover.NewClient(cfg.Pushover.Token, cfg.Pushover.UserKey),
			logger.With("component", "pushover"),
		)
		closers = append(closers, notifier)
		presenters = append(presenters, notifier)
	}

	capture := createAudioSource(cfg.Audio, logger.With("component", "capture"))

	transcriber, err := createTranscriber(ctx, cfg.STT, logger.With("component", "stt"))
	if err != nil {
		logger.Error("creating transcriber", "error", err)
		os.Exit(1)
	}
	if c, ok := transcriber.(io.Closer); ok {
		closers = append(closers, c)
	}

	generator := createGenerator(cfg.LLM)

	synth := application.NewSynthesizer(
		createEngineOpener(cfg.TTS, logger.With("component", "tts")),
		logger.With("component", "tts"),
	)
	closers = append(closers, synth)

	playback, err := createPlayback(cfg.Playback, logger.With("component", "playback"))
	if err != nil {
		logger.Error("creating playback", "error", err)
		os.Exit(1)
	}
	closers = append(closers, playback)

	conversation := application.NewConversationState(presenters, logger)

	orchestrator := application.NewTurnOrchestrator(
		capture,
		transcriber,
		generator,
		synth,
		playback,
		conversation,
		presenters,
		recorder,
		application.OrchestratorConfig{
			Model:             cfg.LLM.Model,
			CaptureRetryDelay: config.Duration(cfg.Loop.CaptureRetryDelay),
		},
		logger,
	)

	logger.Info("starting voice chat",
		"audio_source", cfg.Audio.Source,
		"stt", cfg.STT.Provider,
		"llm", cfg.LLM.Provider,
		"tts", cfg.TTS.Provider,
		"playback", cfg.Playback.Sink,
	)

	if err := orchestrator.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("voice chat error", "error", err)
		os.Exit(1)
	}

	logger.Info("conversation ended", "turns", conversation.Len())
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func setupLogger(cfg config.LogConfig) *slog.Logger {
	level, ok := logLevels[cfg.Level]
	if !ok {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	case "console":
		handler = tint.NewHandler(os.Stderr, &tint.Options{Level: level})
	default:
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}
