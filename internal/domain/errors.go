package domain

import (
	"errors"
	"fmt"
)

type Stage string

const (
	StageCapture       Stage = "capture"
	StageTranscription Stage = "transcription"
	StageGeneration    Stage = "generation"
	StageSynthesis     Stage = "synthesis"
	StagePlayback      Stage = "playback"
)

// StageError attributes a failure to one stage of the turn cycle.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func CaptureError(err error) error       { return wrapStage(StageCapture, err) }
func TranscriptionError(err error) error { return wrapStage(StageTranscription, err) }
func GenerationError(err error) error    { return wrapStage(StageGeneration, err) }
func SynthesisError(err error) error     { return wrapStage(StageSynthesis, err) }
func PlaybackError(err error) error      { return wrapStage(StagePlayback, err) }

func wrapStage(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	var se *StageError
	if errors.As(err, &se) && se.Stage == stage {
		return err
	}
	return &StageError{Stage: stage, Err: err}
}

// StageOf returns the stage an error is attributed to, if any.
func StageOf(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}
