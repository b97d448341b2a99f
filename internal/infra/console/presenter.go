// Package console prints the conversation to a terminal.
package console

import (
	"fmt"
	"io"
	"sync"

	"voicechat/internal/application"
	"voicechat/internal/domain"
)

var labels = map[domain.Speaker]string{
	domain.SpeakerUser:      "you",
	domain.SpeakerAssistant: "assistant",
	domain.SpeakerSystem:    "error",
}

// Presenter writes each turn once, in ordinal order. With showStatus set it
// also prints transient states such as "transcribing...".
type Presenter struct {
	out        io.Writer
	showStatus bool

	mu      sync.Mutex
	printed int
}

func NewPresenter(out io.Writer, showStatus bool) *Presenter {
	return &Presenter{out: out, showStatus: showStatus}
}

func (p *Presenter) Render(turns []domain.Turn) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.printed > len(turns) {
		p.printed = 0
	}
	for _, turn := range turns[p.printed:] {
		fmt.Fprintf(p.out, "[%d] %s: %s\n", turn.Ordinal, labels[turn.Speaker], turn.Text)
	}
	p.printed = len(turns)
}

func (p *Presenter) Status(state application.State) {
	if !p.showStatus || state == application.StateIdle {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "... %s\n", state)
}
