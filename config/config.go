package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Audio    AudioConfig    `yaml:"audio"`
	STT      STTConfig      `yaml:"stt"`
	LLM      LLMConfig      `yaml:"llm"`
	TTS      TTSConfig      `yaml:"tts"`
	Playback PlaybackConfig `yaml:"playback"`
	UI       UIConfig       `yaml:"ui"`
	Pushover PushoverConfig `yaml:"pushover"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Log      LogConfig      `yaml:"log"`
	Loop     LoopConfig     `yaml:"loop"`
}

type AudioConfig struct {
	Source           string  `yaml:"source"`
	SampleRate       int     `yaml:"sample_rate"`
	HTTPAddr         string  `yaml:"http_addr"`
	AuthToken        string  `yaml:"auth_token"`
	FileDir          string  `yaml:"file_dir"`
	PollInterval     string  `yaml:"poll_interval"`
	FrameDuration    string  `yaml:"frame_duration"`
	SilenceThreshold float64 `yaml:"silence_threshold"`
	SilenceDuration  string  `yaml:"silence_duration"`
	MaxDuration      string  `yaml:"max_duration"`
}

type STTConfig struct {
	Provider       string `yaml:"provider"`
	ModelSize      string `yaml:"model_size"`
	Device         string `yaml:"device"`
	ModelDir       string `yaml:"model_dir"`
	ModelURL       string `yaml:"model_url"`
	LocalFilesOnly bool   `yaml:"local_files_only"`
	Language       string `yaml:"language"`
	BeamSize       int    `yaml:"beam_size"`
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"`
}

type LLMConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	APIKey   string `yaml:"api_key"`
}

type TTSConfig struct {
	Provider string `yaml:"provider"`
	ModelDir string `yaml:"model_dir"`
	Binary   string `yaml:"binary"`
	Model    string `yaml:"model"`
	Voice    string `yaml:"voice"`
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
}

type PlaybackConfig struct {
	Sink   string `yaml:"sink"`
	Dir    string `yaml:"dir"`
	Buffer string `yaml:"buffer"`
}

type UIConfig struct {
	Addr    string `yaml:"addr"`
	Console string `yaml:"console"`
}

type PushoverConfig struct {
	Token   string `yaml:"token"`
	UserKey string `yaml:"user_key"`
	Enabled bool   `yaml:"enabled"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type LoopConfig struct {
	CaptureRetryDelay string `yaml:"capture_retry_delay"`
}

// Load reads path, expanding ${VAR} references from the environment. A
// missing file yields the defaults.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Audio.Source == "" {
		c.Audio.Source = "microphone"
	}
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = 44100
	}
	if c.Audio.HTTPAddr == "" {
		c.Audio.HTTPAddr = ":8080"
	}
	if c.Audio.FileDir == "" {
		c.Audio.FileDir = "./audio"
	}
	if c.Audio.PollInterval == "" {
		c.Audio.PollInterval = "500ms"
	}
	if c.Audio.FrameDuration == "" {
		c.Audio.FrameDuration = "20ms"
	}
	if c.Audio.SilenceThreshold == 0 {
		c.Audio.SilenceThreshold = 0.015
	}
	if c.Audio.SilenceDuration == "" {
		c.Audio.SilenceDuration = "800ms"
	}
	if c.Audio.MaxDuration == "" {
		c.Audio.MaxDuration = "30s"
	}

	if c.STT.Provider == "" {
		c.STT.Provider = "whisper"
	}
	if c.STT.ModelSize == "" {
		c.STT.ModelSize = "small"
	}
	if c.STT.Device == "" {
		c.STT.Device = "auto"
	}
	if c.STT.ModelDir == "" {
		c.STT.ModelDir = "./models/"
	}
	if c.STT.Language == "" {
		c.STT.Language = "auto"
	}
	if c.STT.BeamSize == 0 {
		c.STT.BeamSize = 5
	}

	if c.LLM.Provider == "" {
		c.LLM.Provider = "ollama"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "qwen2.5:latest"
	}

	if c.TTS.Provider == "" {
		c.TTS.Provider = "piper"
	}
	if c.TTS.ModelDir == "" {
		c.TTS.ModelDir = "./models/seasonstudio/melotts_zh_mix_en_onnx/"
	}
	if c.TTS.Binary == "" {
		c.TTS.Binary = "piper"
	}

	if c.Playback.Sink == "" {
		c.Playback.Sink = "speaker"
	}
	if c.Playback.Dir == "" {
		c.Playback.Dir = "./replies"
	}
	if c.Playback.Buffer == "" {
		c.Playback.Buffer = "100ms"
	}

	if c.UI.Console == "" {
		c.UI.Console = "turns"
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	if c.Loop.CaptureRetryDelay == "" {
		c.Loop.CaptureRetryDelay = "500ms"
	}
}

func oneOf(field, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%s: unknown value %q (want one of %v)", field, value, allowed)
}

// Validate rejects unknown providers, unparsable durations and impossible
// audio settings.
func (c *Config) Validate() error {
	var errs []error

	errs = append(errs,
		oneOf("audio.source", c.Audio.Source, "microphone", "file", "http"),
		oneOf("stt.provider", c.STT.Provider, "whisper", "openai"),
		oneOf("llm.provider", c.LLM.Provider, "ollama", "openai", "anthropic", "gemini"),
		oneOf("tts.provider", c.TTS.Provider, "piper", "openai"),
		oneOf("playback.sink", c.Playback.Sink, "speaker", "wav", "none"),
		oneOf("ui.console", c.UI.Console, "turns", "status", "off"),
		oneOf("log.format", c.Log.Format, "text", "json", "console"),
		oneOf("log.level", c.Log.Level, "debug", "info", "warn", "error"),
	)

	durations := map[string]string{
		"audio.poll_interval":      c.Audio.PollInterval,
		"audio.frame_duration":     c.Audio.FrameDuration,
		"audio.silence_duration":   c.Audio.SilenceDuration,
		"audio.max_duration":       c.Audio.MaxDuration,
		"playback.buffer":          c.Playback.Buffer,
		"loop.capture_retry_delay": c.Loop.CaptureRetryDelay,
	}
	positive := map[string]bool{
		"audio.poll_interval":  true,
		"audio.frame_duration": true,
		"audio.max_duration":   true,
	}
	for field, value := range durations {
		d, err := time.ParseDuration(value)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("%s: %w", field, err))
		case positive[field] && d <= 0:
			errs = append(errs, fmt.Errorf("%s: must be positive", field))
		case d < 0:
			errs = append(errs, fmt.Errorf("%s: must not be negative", field))
		}
	}

	if c.Audio.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("audio.sample_rate: must be positive"))
	}
	if c.Audio.SilenceThreshold < 0 || c.Audio.SilenceThreshold > 1 {
		errs = append(errs, fmt.Errorf("audio.silence_threshold: must be within [0, 1]"))
	}
	if c.Pushover.Enabled && (c.Pushover.Token == "" || c.Pushover.UserKey == "") {
		errs = append(errs, fmt.Errorf("pushover: token and user_key are required when enabled"))
	}

	return errors.Join(errs...)
}

// Duration parses a field already checked by Validate.
func Duration(value string) time.Duration {
	d, _ := time.ParseDuration(value)
	return d
}
