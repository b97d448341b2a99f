package application

import "voicechat/internal/domain"

// Presenter renders the conversation. Render receives a full, consistent
// snapshot after every append; Status receives orchestrator state changes.
// Neither call is acknowledged.
type Presenter interface {
	Render(turns []domain.Turn)
	Status(state State)
}

type NoopPresenter struct{}

func (n *NoopPresenter) Render(_ []domain.Turn) {}
func (n *NoopPresenter) Status(_ State)         {}

// Presenters fans every update out to each presenter in order.
type Presenters []Presenter

func (ps Presenters) Render(turns []domain.Turn) {
	for _, p := range ps {
		p.Render(turns)
	}
}

func (ps Presenters) Status(state State) {
	for _, p := range ps {
		p.Status(state)
	}
}
