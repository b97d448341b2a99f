// Package piper drives the piper command-line synthesizer as a speech engine.
package piper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"voicechat/internal/application"
	"voicechat/internal/infra/audio"
)

const DefaultSpeaker = "default"

type Options struct {
	ModelDir string
	Binary   string
}

type modelConfig struct {
	Audio struct {
		SampleRate int `json:"sample_rate"`
	} `json:"audio"`
	SpeakerIDMap map[string]int `json:"speaker_id_map"`
}

type Engine struct {
	binary     string
	modelPath  string
	sampleRate int
	speakers   []string
	ids        map[string]int
	logger     *slog.Logger
}

// Opener returns an EngineOpener that loads the first *.onnx model in the
// model dir together with its .onnx.json config.
func Opener(opts Options, logger *slog.Logger) application.EngineOpener {
	return func(_ context.Context) (application.SpeechEngine, error) {
		e, err := Open(opts, logger)
		if err != nil {
			return nil, err
		}
		return e, nil
	}
}

func Open(opts Options, logger *slog.Logger) (*Engine, error) {
	binary := opts.Binary
	if binary == "" {
		binary = "piper"
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("finding piper binary: %w", err)
	}

	matches, err := filepath.Glob(filepath.Join(opts.ModelDir, "*.onnx"))
	if err != nil {
		return nil, fmt.Errorf("listing models: %w", err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no .onnx model in %s", opts.ModelDir)
	}
	sort.Strings(matches)
	modelPath := matches[0]

	raw, err := os.ReadFile(modelPath + ".json")
	if err != nil {
		return nil, fmt.Errorf("reading model config: %w", err)
	}

	var cfg modelConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parsing model config: %w", err)
	}
	if cfg.Audio.SampleRate <= 0 {
		return nil, fmt.Errorf("model config has no audio.sample_rate")
	}

	e := &Engine{
		binary:     path,
		modelPath:  modelPath,
		sampleRate: cfg.Audio.SampleRate,
		speakers:   rosterOf(cfg.SpeakerIDMap),
		ids:        cfg.SpeakerIDMap,
		logger:     logger,
	}
	logger.Info("piper model loaded",
		"model", filepath.Base(modelPath),
		"sample_rate", e.sampleRate,
		"speakers", len(e.speakers),
	)
	return e, nil
}

// rosterOf orders speaker names by id, breaking ties by name.
func rosterOf(ids map[string]int) []string {
	if len(ids) == 0 {
		return []string{DefaultSpeaker}
	}
	names := make([]string, 0, len(ids))
	for name := range ids {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if ids[names[i]] != ids[names[j]] {
			return ids[names[i]] < ids[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}

func (e *Engine) Speakers() []string {
	out := make([]string, len(e.speakers))
	copy(out, e.speakers)
	return out
}

func (e *Engine) SampleRate() int {
	return e.sampleRate
}

func (e *Engine) Synthesize(ctx context.Context, text, speaker string) ([]float32, error) {
	args := []string{"--model", e.modelPath, "--output-raw"}
	if id, ok := e.ids[speaker]; ok {
		args = append(args, "--speaker", strconv.Itoa(id))
	} else if speaker != DefaultSpeaker {
		return nil, fmt.Errorf("unknown speaker %q", speaker)
	}

	cmd := exec.CommandContext(ctx, e.binary, args...)
	cmd.Stdin = strings.NewReader(strings.ReplaceAll(text, "\n", " ") + "\n")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("running piper: %w: %s", err, msg)
		}
		return nil, fmt.Errorf("running piper: %w", err)
	}

	samples := audio.DecodePCM16LE(stdout.Bytes())
	e.logger.Debug("piper synthesized", "samples", len(samples), "speaker", speaker)
	return samples, nil
}

func (e *Engine) Close() error {
	return nil
}
