// Package speaker plays synthesized replies on the default output device.
package speaker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"

	"voicechat/internal/domain"
	"voicechat/internal/infra/audio"
)

type Playback struct {
	bufferSize time.Duration
	logger     *slog.Logger

	mu   sync.Mutex
	rate beep.SampleRate
}

func New(bufferSize time.Duration, logger *slog.Logger) *Playback {
	if bufferSize <= 0 {
		bufferSize = time.Second / 10
	}
	return &Playback{
		bufferSize: bufferSize,
		logger:     logger,
	}
}

func (p *Playback) Name() string {
	return "speaker"
}

// Play blocks until the buffer has been played or ctx is done. The device is
// re-initialized whenever the buffer's rate differs from the previous one.
func (p *Playback) Play(ctx context.Context, a domain.SynthesizedAudio) error {
	if len(a.Samples) == 0 {
		return nil
	}

	if err := p.ensureRate(audio.Format(a).SampleRate); err != nil {
		return domain.PlaybackError(err)
	}

	done := make(chan struct{})
	speaker.Play(beep.Seq(audio.NewPCMStreamer(a.Samples), beep.Callback(func() {
		close(done)
	})))

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		speaker.Clear()
		return domain.PlaybackError(ctx.Err())
	}
}

func (p *Playback) ensureRate(rate beep.SampleRate) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.rate == rate {
		return nil
	}
	if err := speaker.Init(rate, rate.N(p.bufferSize)); err != nil {
		return fmt.Errorf("initializing speaker at %d Hz: %w", int(rate), err)
	}
	p.logger.Debug("speaker initialized", "sample_rate", int(rate))
	p.rate = rate
	return nil
}

func (p *Playback) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.rate != 0 {
		speaker.Close()
		p.rate = 0
	}
	return nil
}
