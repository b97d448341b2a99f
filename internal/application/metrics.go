package application

import (
	"time"

	"voicechat/internal/domain"
)

type Metrics interface {
	TurnAppended(speaker domain.Speaker)
	StageFailed(stage domain.Stage)
	EmptyTranscript()
	StageDuration(stage domain.Stage, d time.Duration)
}

type NoopMetrics struct{}

func (n *NoopMetrics) TurnAppended(_ domain.Speaker)                 {}
func (n *NoopMetrics) StageFailed(_ domain.Stage)                    {}
func (n *NoopMetrics) EmptyTranscript()                              {}
func (n *NoopMetrics) StageDuration(_ domain.Stage, _ time.Duration) {}
