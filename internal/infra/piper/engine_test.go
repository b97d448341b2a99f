package piper_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"voicechat/internal/infra/piper"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakePiper writes a script that records its arguments and stdin, then emits
// two samples of raw PCM (0.5, -0.5).
func fakePiper(t *testing.T, dir string) string {
	t.Helper()
	script := `#!/bin/sh
echo "$@" > "` + dir + `/args"
cat > "` + dir + `/stdin"
printf '\000\100\000\300'
`
	path := filepath.Join(dir, "piper")
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeModel(t *testing.T, dir, config string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "voice.onnx"), []byte("onnx"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "voice.onnx.json"), []byte(config), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestOpen_MultiSpeakerRoster(t *testing.T) {
	dir := t.TempDir()
	writeModel(t, dir, `{"audio":{"sample_rate":44100},"speaker_id_map":{"EN":1,"ZH":0,"EN-US":1}}`)

	engine, err := piper.Open(piper.Options{ModelDir: dir, Binary: fakePiper(t, dir)}, discardLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	want := []string{"ZH", "EN", "EN-US"}
	got := engine.Speakers()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("speakers: got %v, want %v", got, want)
	}
	if engine.SampleRate() != 44100 {
		t.Errorf("sample rate: got %d", engine.SampleRate())
	}
}

func TestEngine_Synthesize(t *testing.T) {
	dir := t.TempDir()
	writeModel(t, dir, `{"audio":{"sample_rate":22050},"speaker_id_map":{"ZH":0,"EN":1}}`)

	engine, err := piper.Open(piper.Options{ModelDir: dir, Binary: fakePiper(t, dir)}, discardLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	samples, err := engine.Synthesize(context.Background(), "你好\nworld", "EN")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if len(samples) != 2 || samples[0] != 0.5 || samples[1] != -0.5 {
		t.Errorf("samples: got %v", samples)
	}

	args, _ := os.ReadFile(filepath.Join(dir, "args"))
	if !strings.Contains(string(args), "--output-raw") || !strings.Contains(string(args), "--speaker 1") {
		t.Errorf("args: got %q", args)
	}
	stdin, _ := os.ReadFile(filepath.Join(dir, "stdin"))
	if string(stdin) != "你好 world\n" {
		t.Errorf("stdin: got %q", stdin)
	}
}

func TestEngine_SingleSpeaker(t *testing.T) {
	dir := t.TempDir()
	writeModel(t, dir, `{"audio":{"sample_rate":16000}}`)

	engine, err := piper.Open(piper.Options{ModelDir: dir, Binary: fakePiper(t, dir)}, discardLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got := engine.Speakers(); len(got) != 1 || got[0] != piper.DefaultSpeaker {
		t.Fatalf("speakers: got %v", got)
	}

	if _, err := engine.Synthesize(context.Background(), "hi", piper.DefaultSpeaker); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	args, _ := os.ReadFile(filepath.Join(dir, "args"))
	if strings.Contains(string(args), "--speaker") {
		t.Errorf("single-speaker model should not pass --speaker: %q", args)
	}

	if _, err := engine.Synthesize(context.Background(), "hi", "nobody"); err == nil {
		t.Error("expected error for unknown speaker")
	}
}

func TestOpen_Errors(t *testing.T) {
	tests := []struct {
		name   string
		config string
		model  bool
	}{
		{"no model", "", false},
		{"bad json", "{", true},
		{"no sample rate", `{"audio":{}}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if tt.model {
				writeModel(t, dir, tt.config)
			}
			if _, err := piper.Open(piper.Options{ModelDir: dir, Binary: fakePiper(t, dir)}, discardLogger()); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestOpener_MissingBinary(t *testing.T) {
	open := piper.Opener(piper.Options{ModelDir: t.TempDir(), Binary: "/nonexistent/piper"}, discardLogger())
	if _, err := open(context.Background()); err == nil {
		t.Error("expected error for missing binary")
	}
}
