package audio

import (
	"github.com/faiface/beep"

	"voicechat/internal/domain"
)

// PCMStreamer plays a mono float32 buffer as a beep.Streamer, duplicating
// each sample to both channels.
type PCMStreamer struct {
	samples []float32
	pos     int
}

func NewPCMStreamer(samples []float32) *PCMStreamer {
	return &PCMStreamer{samples: samples}
}

func (s *PCMStreamer) Stream(buf [][2]float64) (int, bool) {
	if s.pos >= len(s.samples) {
		return 0, false
	}
	n := copy64(buf, s.samples[s.pos:])
	s.pos += n
	return n, true
}

func (s *PCMStreamer) Err() error { return nil }

func (s *PCMStreamer) Len() int { return len(s.samples) }

func (s *PCMStreamer) Position() int { return s.pos }

func copy64(dst [][2]float64, src []float32) int {
	n := len(dst)
	if len(src) < n {
		n = len(src)
	}
	for i := 0; i < n; i++ {
		v := float64(src[i])
		dst[i][0] = v
		dst[i][1] = v
	}
	return n
}

// Format describes a synthesized buffer to beep.
func Format(a domain.SynthesizedAudio) beep.Format {
	return beep.Format{
		SampleRate:  beep.SampleRate(a.SampleRate),
		NumChannels: 2,
		Precision:   2,
	}
}
