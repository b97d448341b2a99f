package openai_test

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/openai/openai-go/v3/option"

	"voicechat/internal/domain"
	"voicechat/internal/infra/audio"
	"voicechat/internal/infra/openai"
)

func TestWhisperClient_Transcribe(t *testing.T) {
	var gotModel, gotLanguage string
	var gotRate int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/transcriptions" {
			t.Errorf("path: got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("authorization: got %q", r.Header.Get("Authorization"))
		}

		_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil {
			t.Fatalf("content type: %v", err)
		}
		mr := multipart.NewReader(r.Body, params["boundary"])
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				t.Fatalf("reading part: %v", err)
			}
			data, _ := io.ReadAll(part)
			switch part.FormName() {
			case "model":
				gotModel = string(data)
			case "language":
				gotLanguage = string(data)
			case "file":
				_, rate, err := audio.DecodeWAVBytes(data)
				if err != nil {
					t.Errorf("uploaded file is not wav: %v", err)
				}
				gotRate = rate
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":"你好"}`))
	}))
	defer server.Close()

	client := openai.NewWhisperClient("test-key", server.URL, "zh")
	utt := domain.Utterance{Samples: []int16{1, 2, 3, 4}, SampleRate: domain.CaptureSampleRate}

	text, err := client.Transcribe(context.Background(), utt)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "你好" {
		t.Errorf("text: got %q", text)
	}
	if gotModel != "whisper-1" || gotLanguage != "zh" {
		t.Errorf("fields: model=%q language=%q", gotModel, gotLanguage)
	}
	if gotRate != domain.CaptureSampleRate {
		t.Errorf("uploaded rate: got %d", gotRate)
	}
}

func TestWhisperClient_EmptyUtteranceSkipsRequest(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client := openai.NewWhisperClient("k", server.URL, "auto")
	text, err := client.Transcribe(context.Background(), domain.Utterance{SampleRate: 44100})
	if err != nil || text != "" {
		t.Errorf("got (%q, %v), want empty", text, err)
	}
	if called {
		t.Error("empty utterance should not reach the API")
	}
}

func TestWhisperClient_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad audio", http.StatusBadRequest)
	}))
	defer server.Close()

	client := openai.NewWhisperClient("k", server.URL, "auto")
	_, err := client.Transcribe(context.Background(), domain.Utterance{Samples: []int16{1}, SampleRate: 16000})
	if err == nil || !strings.Contains(err.Error(), "400") {
		t.Errorf("error: got %v", err)
	}
}

func TestChatGenerator_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("path: got %s", r.URL.Path)
		}
		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if body.Model != "qwen2.5:latest" {
			t.Errorf("model: got %q", body.Model)
		}
		if len(body.Messages) != 1 || body.Messages[0].Role != "user" || body.Messages[0].Content != "ping" {
			t.Errorf("messages: got %+v", body.Messages)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1,
			"model": "qwen2.5:latest",
			"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "pong"}}]
		}`))
	}))
	defer server.Close()

	gen := openai.NewChatGenerator("k", server.URL+"/v1/", option.WithMaxRetries(0))
	reply, err := gen.Generate(context.Background(), "qwen2.5:latest", "ping")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if reply != "pong" {
		t.Errorf("reply: got %q", reply)
	}
}

func TestChatGenerator_Error(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"model not found"}}`, http.StatusNotFound)
	}))
	defer server.Close()

	gen := openai.NewChatGenerator("k", server.URL+"/v1/", option.WithMaxRetries(0))
	if _, err := gen.Generate(context.Background(), "missing", "ping"); err == nil {
		t.Fatal("expected error")
	}
}

func TestSpeechEngine_Synthesize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/speech" {
			t.Errorf("path: got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer k" {
			t.Errorf("authorization: got %q", r.Header.Get("Authorization"))
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if body["response_format"] != "pcm" || body["voice"] != "nova" || body["input"] != "你好" || body["model"] != "tts-1" {
			t.Errorf("request: got %v", body)
		}

		pcm := make([]byte, 4)
		binary.LittleEndian.PutUint16(pcm[0:], uint16(16384))
		v := int16(-16384)
		binary.LittleEndian.PutUint16(pcm[2:], uint16(v))
		w.Header().Set("Content-Type", "audio/pcm")
		w.Write(pcm)
	}))
	defer server.Close()

	engine := openai.NewSpeechEngine("k", server.URL+"/v1/", "", "nova", option.WithMaxRetries(0))
	if engine.Speakers()[0] != "nova" {
		t.Errorf("first speaker: got %q", engine.Speakers()[0])
	}
	if len(engine.Speakers()) != len(openai.Voices) {
		t.Errorf("roster size: got %d, want %d", len(engine.Speakers()), len(openai.Voices))
	}
	if engine.SampleRate() != openai.SpeechSampleRate {
		t.Errorf("sample rate: got %d", engine.SampleRate())
	}

	samples, err := engine.Synthesize(context.Background(), "你好", "nova")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if len(samples) != 2 || samples[0] != 0.5 || samples[1] != -0.5 {
		t.Errorf("samples: got %v", samples)
	}
}

func TestSpeechEngine_OpenerRequiresKey(t *testing.T) {
	engine := openai.NewSpeechEngine("", "", "", "")
	if _, err := engine.Opener()(context.Background()); err == nil {
		t.Error("expected error without api key")
	}
	if engine.Speakers()[0] != "alloy" {
		t.Errorf("default first speaker: got %q", engine.Speakers()[0])
	}
}

func TestSpeechEngine_Error(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"input too long","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	engine := openai.NewSpeechEngine("k", server.URL+"/v1/", "", "", option.WithMaxRetries(0))
	if _, err := engine.Synthesize(context.Background(), "hello", "alloy"); err == nil {
		t.Fatal("expected error")
	}
}
