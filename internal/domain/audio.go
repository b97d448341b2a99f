package domain

import "time"

const (
	CaptureSampleRate = 44100
	CaptureChannels   = 1
	CaptureBitDepth   = 16
)

// Utterance is one end-pointed span of microphone audio. It lives only for
// the capture and transcription steps of a single cycle.
type Utterance struct {
	Samples    []int16
	SampleRate int
}

func (u Utterance) Empty() bool {
	return len(u.Samples) == 0
}

func (u Utterance) Duration() time.Duration {
	if u.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(u.Samples)) * time.Second / time.Duration(u.SampleRate)
}

// SynthesizedAudio is the speech produced for one assistant turn. Samples are
// mono float32 in [-1, 1] at SampleRate, which is whatever the engine reports.
type SynthesizedAudio struct {
	Samples    []float32
	SampleRate int
}

func (a SynthesizedAudio) Duration() time.Duration {
	if a.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(a.Samples)) * time.Second / time.Duration(a.SampleRate)
}
