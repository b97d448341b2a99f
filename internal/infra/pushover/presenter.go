package pushover

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"voicechat/internal/application"
	"voicechat/internal/domain"
)

// ErrorPresenter forwards each new System turn as a push notification.
// Notifications are sent from a background goroutine so Render never blocks
// the turn loop; if the queue is full the notification is dropped.
type ErrorPresenter struct {
	client *Client
	logger *slog.Logger

	mu   sync.Mutex
	seen int

	queue chan string
	done  chan struct{}
	once  sync.Once
}

func NewErrorPresenter(client *Client, logger *slog.Logger) *ErrorPresenter {
	p := &ErrorPresenter{
		client: client,
		logger: logger,
		queue:  make(chan string, 16),
		done:   make(chan struct{}),
	}
	go p.loop()
	return p
}

func (p *ErrorPresenter) Render(turns []domain.Turn) {
	p.mu.Lock()
	start := p.seen
	if start > len(turns) {
		start = len(turns)
	}
	p.seen = len(turns)
	p.mu.Unlock()

	for _, turn := range turns[start:] {
		if turn.Speaker != domain.SpeakerSystem {
			continue
		}
		select {
		case p.queue <- turn.Text:
		default:
			p.logger.Warn("notification queue full, dropping", "ordinal", turn.Ordinal)
		}
	}
}

func (p *ErrorPresenter) Status(_ application.State) {}

func (p *ErrorPresenter) loop() {
	defer close(p.done)
	for msg := range p.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		if err := p.client.Notify(ctx, msg); err != nil {
			p.logger.Warn("sending notification", "error", err)
		}
		cancel()
	}
}

// Close drains pending notifications and stops the sender.
func (p *ErrorPresenter) Close() error {
	p.once.Do(func() {
		close(p.queue)
	})
	<-p.done
	return nil
}
