package audio_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"voicechat/internal/domain"
	"voicechat/internal/infra/audio"
)

func TestWAVSink_WritesNumberedFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "replies")
	sink, err := audio.NewWAVSink(dir, discardLogger())
	if err != nil {
		t.Fatalf("creating sink: %v", err)
	}

	if sink.LastPath() != "" {
		t.Errorf("last path before play: got %q", sink.LastPath())
	}

	rates := []int{24000, 44100}
	for _, rate := range rates {
		reply := domain.SynthesizedAudio{Samples: []float32{0.1, -0.1, 0.2}, SampleRate: rate}
		if err := sink.Play(context.Background(), reply); err != nil {
			t.Fatalf("play: %v", err)
		}
	}

	for i, rate := range rates {
		path := filepath.Join(dir, []string{"reply-1.wav", "reply-2.wav"}[i])
		f, err := os.Open(path)
		if err != nil {
			t.Fatalf("opening %s: %v", path, err)
		}
		samples, got, err := audio.DecodeWAV(f)
		f.Close()
		if err != nil {
			t.Fatalf("decoding %s: %v", path, err)
		}
		if got != rate {
			t.Errorf("%s rate: got %d, want %d", path, got, rate)
		}
		if len(samples) != 3 {
			t.Errorf("%s samples: got %d, want 3", path, len(samples))
		}
	}

	if sink.LastPath() != filepath.Join(dir, "reply-2.wav") {
		t.Errorf("last path: got %q", sink.LastPath())
	}
}

func TestWAVSink_CancelledContext(t *testing.T) {
	sink, err := audio.NewWAVSink(t.TempDir(), discardLogger())
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = sink.Play(ctx, domain.SynthesizedAudio{Samples: []float32{0}, SampleRate: 16000})
	if stage, ok := domain.StageOf(err); !ok || stage != domain.StagePlayback {
		t.Errorf("error: got %v, want playback stage error", err)
	}
}
