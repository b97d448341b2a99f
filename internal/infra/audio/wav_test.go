package audio_test

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"voicechat/internal/infra/audio"
)

func TestEncodeDecodeWAV(t *testing.T) {
	samples := []int16{0, 1200, -1200, 32767, -32768, 5}

	data, err := audio.EncodeWAV(samples, 16000)
	if err != nil {
		t.Fatalf("encoding: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("RIFF")) {
		t.Fatalf("missing RIFF header: %q", data[:4])
	}

	got, rate, err := audio.DecodeWAVBytes(data)
	if err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if rate != 16000 {
		t.Errorf("rate: got %d, want 16000", rate)
	}
	if len(got) != len(samples) {
		t.Fatalf("samples: got %d, want %d", len(got), len(samples))
	}
	for i := range samples {
		if got[i] != samples[i] {
			t.Errorf("sample %d: got %d, want %d", i, got[i], samples[i])
		}
	}
}

func TestDecodeWAV_Invalid(t *testing.T) {
	if _, _, err := audio.DecodeWAVBytes([]byte("RIFF but not really")); err == nil {
		t.Error("expected error for garbage input")
	}
}

func TestWriteWAVFile_KeepsSampleRate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	samples := []float32{0, 0.5, -0.5, 0.25}

	if err := audio.WriteWAVFile(path, samples, 44100); err != nil {
		t.Fatalf("writing: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	got, rate, err := audio.DecodeWAV(f)
	if err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if rate != 44100 {
		t.Errorf("rate: got %d, want 44100", rate)
	}
	back := audio.Int16ToFloat32(got)
	for i := range samples {
		if math.Abs(float64(back[i]-samples[i])) > 1e-3 {
			t.Errorf("sample %d: got %f, want %f", i, back[i], samples[i])
		}
	}
}

func TestFloat32ToInt16_Clamps(t *testing.T) {
	got := audio.Float32ToInt16([]float32{2, -2, 0})
	want := []int16{32767, -32767, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d: got %d, want %d", i, got[i], want[i])
		}
	}
}

func TestDecodePCM16LE(t *testing.T) {
	got := audio.DecodePCM16LE([]byte{0x00, 0x40, 0x00, 0xc0, 0x01})
	if len(got) != 2 || got[0] != 0.5 || got[1] != -0.5 {
		t.Errorf("got %v, want [0.5 -0.5]", got)
	}
}
