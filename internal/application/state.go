package application

type State int

const (
	StateIdle State = iota
	StateCapturing
	StateTranscribing
	StateAwaitingReply
	StateSynthesizing
	StatePlaying
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCapturing:
		return "capturing"
	case StateTranscribing:
		return "transcribing"
	case StateAwaitingReply:
		return "awaiting_reply"
	case StateSynthesizing:
		return "synthesizing"
	case StatePlaying:
		return "playing"
	default:
		return "unknown"
	}
}

// CycleResult tells how one pass through the turn cycle ended.
type CycleResult int

const (
	CycleCompleted CycleResult = iota
	CycleEmpty
	CycleCaptureFailed
	CycleTranscriptionFailed
	CycleGenerationFailed
	CycleSynthesisFailed
	CyclePlaybackFailed
	CycleAborted
)

func (r CycleResult) String() string {
	switch r {
	case CycleCompleted:
		return "completed"
	case CycleEmpty:
		return "empty"
	case CycleCaptureFailed:
		return "capture_failed"
	case CycleTranscriptionFailed:
		return "transcription_failed"
	case CycleGenerationFailed:
		return "generation_failed"
	case CycleSynthesisFailed:
		return "synthesis_failed"
	case CyclePlaybackFailed:
		return "playback_failed"
	case CycleAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

type Status int

const (
	StatusSuccess Status = iota
	StatusEmpty
	StatusFailed
)

// Outcome is what a text-producing stage hands back to the orchestrator.
type Outcome struct {
	Status Status
	Text   string
	Err    error
}

func Success(text string) Outcome { return Outcome{Status: StatusSuccess, Text: text} }
func Empty() Outcome              { return Outcome{Status: StatusEmpty} }
func Failed(err error) Outcome    { return Outcome{Status: StatusFailed, Err: err} }
