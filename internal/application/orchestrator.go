package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"voicechat/internal/domain"
)

type OrchestratorConfig struct {
	// Model is passed to the generator on every call.
	Model string
	// CaptureRetryDelay is the pause before capturing again after a capture failure.
	CaptureRetryDelay time.Duration
}

// TurnOrchestrator drives capture, transcription, generation, synthesis and
// playback strictly in sequence, one turn at a time, until its context ends.
type TurnOrchestrator struct {
	capture      AudioCapture
	stt          Transcriber
	generator    ResponseGenerator
	synth        *Synthesizer
	playback     AudioPlayback
	conversation *ConversationState
	presenter    Presenter
	metrics      Metrics
	cfg          OrchestratorConfig
	logger       *slog.Logger

	state State
}

func NewTurnOrchestrator(
	capture AudioCapture,
	stt Transcriber,
	generator ResponseGenerator,
	synth *Synthesizer,
	playback AudioPlayback,
	conversation *ConversationState,
	presenter Presenter,
	metrics Metrics,
	cfg OrchestratorConfig,
	logger *slog.Logger,
) *TurnOrchestrator {
	return &TurnOrchestrator{
		capture:      capture,
		stt:          stt,
		generator:    generator,
		synth:        synth,
		playback:     playback,
		conversation: conversation,
		presenter:    presenter,
		metrics:      metrics,
		cfg:          cfg,
		logger:       logger,
	}
}

// Run loops until ctx is done. Capture is (re)started inside the loop, so a
// missing device delays the first turn instead of ending the run.
func (o *TurnOrchestrator) Run(ctx context.Context) error {
	started := false
	defer func() {
		if started {
			o.capture.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if !started {
			if err := o.startCapture(ctx); err != nil {
				o.stageFailed(domain.StageCapture, err)
				if err := o.waitRetry(ctx); err != nil {
					return err
				}
				continue
			}
			started = true
		}

		result := o.safeCycle(ctx)
		o.logger.Debug("cycle finished", "result", result.String())

		if result == CycleCaptureFailed || result == CycleAborted {
			if err := o.waitRetry(ctx); err != nil {
				return err
			}
		}
	}
}

func (o *TurnOrchestrator) startCapture(ctx context.Context) error {
	o.logger.Info("starting audio capture", "source", o.capture.Name())
	if err := o.capture.Start(ctx); err != nil {
		return domain.CaptureError(fmt.Errorf("starting capture: %w", err))
	}

	o.logger.Info("voice chat ready",
		"model", o.cfg.Model,
		"playback", o.playback.Name(),
	)
	return nil
}

func (o *TurnOrchestrator) waitRetry(ctx context.Context) error {
	if o.cfg.CaptureRetryDelay <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(o.cfg.CaptureRetryDelay):
		return nil
	}
}

// RunCycle performs one capture-to-playback pass. Every stage failure is
// contained here; the returned result says where the cycle stopped.
func (o *TurnOrchestrator) RunCycle(ctx context.Context) CycleResult {
	defer o.setState(StateIdle)

	o.setState(StateCapturing)
	utt, err := o.captureUtterance(ctx)
	if err != nil {
		o.stageFailed(domain.StageCapture, err)
		return CycleCaptureFailed
	}

	o.setState(StateTranscribing)
	transcript := o.transcribe(ctx, utt)
	switch transcript.Status {
	case StatusFailed:
		o.stageFailed(domain.StageTranscription, transcript.Err)
		return CycleTranscriptionFailed
	case StatusEmpty:
		o.metrics.EmptyTranscript()
		o.logger.Debug("empty transcript, listening again", "duration", utt.Duration())
		return CycleEmpty
	}

	o.logger.Info("transcribed", "text", transcript.Text)
	o.appendTurn(domain.SpeakerUser, transcript.Text)

	o.setState(StateAwaitingReply)
	reply := o.generate(ctx, transcript.Text)
	if reply.Status != StatusSuccess {
		o.stageFailed(domain.StageGeneration, reply.Err)
		o.appendTurn(domain.SpeakerSystem, fmt.Sprintf("error communicating with %s: %v", o.cfg.Model, cause(reply.Err)))
		return CycleGenerationFailed
	}

	o.logger.Info("reply generated", "chars", len(reply.Text))
	o.appendTurn(domain.SpeakerAssistant, reply.Text)

	o.setState(StateSynthesizing)
	audio, err := o.synthesize(ctx, reply.Text)
	if err != nil {
		o.stageFailed(domain.StageSynthesis, err)
		o.appendTurn(domain.SpeakerSystem, fmt.Sprintf("speech synthesis failed: %v", cause(err)))
		return CycleSynthesisFailed
	}

	o.setState(StatePlaying)
	if err := o.play(ctx, audio); err != nil {
		o.stageFailed(domain.StagePlayback, err)
		return CyclePlaybackFailed
	}

	return CycleCompleted
}

// State is the orchestrator's current position in the cycle.
func (o *TurnOrchestrator) State() State {
	return o.state
}

// safeCycle keeps a panicking adapter from ending the loop. A user turn left
// unanswered by the panic gets an error turn so replies stay paired.
func (o *TurnOrchestrator) safeCycle(ctx context.Context) (result CycleResult) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("cycle panicked", "panic", r, "state", o.state.String())
			if last, ok := o.conversation.Last(); ok && last.Speaker == domain.SpeakerUser {
				o.appendTurn(domain.SpeakerSystem, fmt.Sprintf("internal error: %v", r))
			}
			result = CycleAborted
		}
	}()
	return o.RunCycle(ctx)
}

func (o *TurnOrchestrator) captureUtterance(ctx context.Context) (domain.Utterance, error) {
	start := time.Now()
	utt, err := o.capture.Capture(ctx)
	o.metrics.StageDuration(domain.StageCapture, time.Since(start))
	if err != nil {
		return domain.Utterance{}, domain.CaptureError(err)
	}
	return utt, nil
}

func (o *TurnOrchestrator) transcribe(ctx context.Context, utt domain.Utterance) Outcome {
	start := time.Now()
	text, err := o.stt.Transcribe(ctx, utt)
	o.metrics.StageDuration(domain.StageTranscription, time.Since(start))
	if err != nil {
		return Failed(domain.TranscriptionError(err))
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return Empty()
	}
	return Success(text)
}

func (o *TurnOrchestrator) generate(ctx context.Context, prompt string) Outcome {
	start := time.Now()
	text, err := o.generator.Generate(ctx, o.cfg.Model, prompt)
	o.metrics.StageDuration(domain.StageGeneration, time.Since(start))
	if err != nil {
		return Failed(domain.GenerationError(err))
	}

	if strings.TrimSpace(text) == "" {
		return Failed(domain.GenerationError(fmt.Errorf("empty response")))
	}
	return Success(text)
}

func (o *TurnOrchestrator) synthesize(ctx context.Context, text string) (domain.SynthesizedAudio, error) {
	start := time.Now()
	audio, err := o.synth.Synthesize(ctx, text)
	o.metrics.StageDuration(domain.StageSynthesis, time.Since(start))
	return audio, err
}

func (o *TurnOrchestrator) play(ctx context.Context, audio domain.SynthesizedAudio) error {
	start := time.Now()
	err := o.playback.Play(ctx, audio)
	o.metrics.StageDuration(domain.StagePlayback, time.Since(start))
	return domain.PlaybackError(err)
}

func (o *TurnOrchestrator) appendTurn(speaker domain.Speaker, text string) {
	o.conversation.Append(speaker, text)
	o.metrics.TurnAppended(speaker)
}

func (o *TurnOrchestrator) stageFailed(stage domain.Stage, err error) {
	o.metrics.StageFailed(stage)
	o.logger.Error("stage failed", "stage", string(stage), "error", err)
}

// cause strips the stage attribution so error turns read naturally.
func cause(err error) error {
	var se *domain.StageError
	if errors.As(err, &se) {
		return se.Err
	}
	return err
}

func (o *TurnOrchestrator) setState(state State) {
	if o.state == state {
		return
	}
	o.state = state

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("presenter panicked", "panic", r, "state", state.String())
		}
	}()
	o.presenter.Status(state)
}
