package application_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"voicechat/internal/application"
	"voicechat/internal/domain"
)

var errDevice = errors.New("device error")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// scriptedCapture returns one step per call; once the script is exhausted it
// cancels the run and blocks until the context is done.
type scriptedCapture struct {
	steps  []captureStep
	index  int
	cancel context.CancelFunc
}

type captureStep struct {
	utt domain.Utterance
	err error
}

func (c *scriptedCapture) Start(_ context.Context) error { return nil }
func (c *scriptedCapture) Stop() error                   { return nil }
func (c *scriptedCapture) Name() string                  { return "scripted" }

// flakyStartCapture fails Start a fixed number of times before delegating.
type flakyStartCapture struct {
	*scriptedCapture
	failures int
	starts   int
	stops    int
}

func (c *flakyStartCapture) Start(ctx context.Context) error {
	c.starts++
	if c.starts <= c.failures {
		return errors.New("no default input device")
	}
	return c.scriptedCapture.Start(ctx)
}

func (c *flakyStartCapture) Stop() error {
	c.stops++
	return nil
}

func (c *scriptedCapture) Capture(ctx context.Context) (domain.Utterance, error) {
	if c.index >= len(c.steps) {
		if c.cancel != nil {
			c.cancel()
		}
		<-ctx.Done()
		return domain.Utterance{}, ctx.Err()
	}
	step := c.steps[c.index]
	c.index++
	return step.utt, step.err
}

func speech(tag int16) captureStep {
	return captureStep{utt: domain.Utterance{Samples: []int16{tag, tag, tag}, SampleRate: domain.CaptureSampleRate}}
}

func silence() captureStep {
	return captureStep{utt: domain.Utterance{Samples: make([]int16, 3), SampleRate: domain.CaptureSampleRate}}
}

func captureFailure() captureStep {
	return captureStep{err: errDevice}
}

// taggedSTT maps the first sample of an utterance to a transcript.
type taggedSTT struct {
	texts map[int16]string
	errs  map[int16]error
	calls int
}

func (s *taggedSTT) Transcribe(_ context.Context, utt domain.Utterance) (string, error) {
	s.calls++
	if len(utt.Samples) == 0 {
		return "", nil
	}
	tag := utt.Samples[0]
	if err, ok := s.errs[tag]; ok {
		return "", err
	}
	return s.texts[tag], nil
}

type fakeGenerator struct {
	replies map[string]string
	errs    map[string]error
	prompts []string
	models  []string
}

func (g *fakeGenerator) Generate(_ context.Context, model, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	g.models = append(g.models, model)
	if err, ok := g.errs[prompt]; ok {
		return "", err
	}
	if reply, ok := g.replies[prompt]; ok {
		return reply, nil
	}
	return "reply to " + prompt, nil
}

type fakeEngine struct {
	speakers   []string
	sampleRate int
	err        error
	texts      []string
	speakersIn []string
}

func (e *fakeEngine) Speakers() []string { return e.speakers }
func (e *fakeEngine) SampleRate() int    { return e.sampleRate }
func (e *fakeEngine) Close() error       { return nil }

func (e *fakeEngine) Synthesize(_ context.Context, text, speaker string) ([]float32, error) {
	e.texts = append(e.texts, text)
	e.speakersIn = append(e.speakersIn, speaker)
	if e.err != nil {
		return nil, e.err
	}
	return []float32{0.1, -0.1, float32(len(text)) / 100}, nil
}

type countingOpener struct {
	engine *fakeEngine
	err    error
	opens  int
}

func (c *countingOpener) Open(_ context.Context) (application.SpeechEngine, error) {
	c.opens++
	if c.err != nil {
		return nil, c.err
	}
	return c.engine, nil
}

type recordingPlayback struct {
	played []domain.SynthesizedAudio
	err    error
}

func (p *recordingPlayback) Play(_ context.Context, audio domain.SynthesizedAudio) error {
	p.played = append(p.played, audio)
	return p.err
}
func (p *recordingPlayback) Close() error { return nil }
func (p *recordingPlayback) Name() string { return "recording" }

type recordingPresenter struct {
	mu        sync.Mutex
	snapshots [][]domain.Turn
	states    []application.State
}

func (p *recordingPresenter) Render(turns []domain.Turn) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshots = append(p.snapshots, turns)
}

func (p *recordingPresenter) Status(state application.State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.states = append(p.states, state)
}

func (p *recordingPresenter) count(state application.State) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, s := range p.states {
		if s == state {
			n++
		}
	}
	return n
}

// panickingPresenter panics on every render; status changes are recorded.
type panickingPresenter struct {
	recordingPresenter
}

func (p *panickingPresenter) Render(_ []domain.Turn) {
	panic("render failed")
}

type countingMetrics struct {
	turns     map[domain.Speaker]int
	failures  map[domain.Stage]int
	empties   int
	durations map[domain.Stage]time.Duration
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{
		turns:     make(map[domain.Speaker]int),
		failures:  make(map[domain.Stage]int),
		durations: make(map[domain.Stage]time.Duration),
	}
}

func (m *countingMetrics) TurnAppended(s domain.Speaker) { m.turns[s]++ }
func (m *countingMetrics) StageFailed(s domain.Stage)    { m.failures[s]++ }
func (m *countingMetrics) EmptyTranscript()              { m.empties++ }
func (m *countingMetrics) StageDuration(s domain.Stage, d time.Duration) {
	m.durations[s] += d
}
