package whisper

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"voicechat/internal/infra"
)

const DefaultModelURL = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main"

func ModelPath(dir, size string) string {
	return filepath.Join(dir, fmt.Sprintf("ggml-%s.bin", size))
}

// Downloader fetches ggml model files into a cache dir.
type Downloader struct {
	BaseURL string
	Client  *http.Client
	Logger  *slog.Logger
}

// EnsureModel returns the local path of the model, downloading it first if it
// is not cached. A partial download never replaces the target file.
func (d *Downloader) EnsureModel(ctx context.Context, dir, size string) (string, error) {
	path := ModelPath(dir, size)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating model dir: %w", err)
	}

	url := fmt.Sprintf("%s/ggml-%s.bin", d.baseURL(), size)
	d.Logger.Info("downloading whisper model", "url", url, "path", path)

	err := infra.WithRetry(ctx, infra.DefaultRetryConfig(), func() error {
		return d.download(ctx, url, path)
	})
	if err != nil {
		return "", fmt.Errorf("downloading whisper model: %w", err)
	}
	return path, nil
}

func (d *Downloader) download(ctx context.Context, url, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := d.client().Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &infra.StatusError{Service: "model download", StatusCode: resp.StatusCode, Body: string(body)}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".ggml-*.part")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("writing model: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("moving model into place: %w", err)
	}
	d.Logger.Info("whisper model downloaded", "path", path, "bytes", n)
	return nil
}

func (d *Downloader) baseURL() string {
	if d.BaseURL == "" {
		return DefaultModelURL
	}
	return d.BaseURL
}

func (d *Downloader) client() *http.Client {
	if d.Client == nil {
		return http.DefaultClient
	}
	return d.Client
}
