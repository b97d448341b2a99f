package audio

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"voicechat/internal/domain"
)

// FileSource treats every .wav dropped into dir as one utterance. Files are
// taken in name order and renamed with a .processed suffix once read.
type FileSource struct {
	dir          string
	pollInterval time.Duration
	logger       *slog.Logger

	mu        sync.Mutex
	processed map[string]bool
}

func NewFileSource(dir string, pollInterval time.Duration, logger *slog.Logger) *FileSource {
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	return &FileSource{
		dir:          dir,
		pollInterval: pollInterval,
		logger:       logger,
		processed:    make(map[string]bool),
	}
}

func (f *FileSource) Name() string {
	return "file"
}

func (f *FileSource) Start(_ context.Context) error {
	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return fmt.Errorf("creating audio dir: %w", err)
	}
	return nil
}

func (f *FileSource) Stop() error {
	return nil
}

func (f *FileSource) Capture(ctx context.Context) (domain.Utterance, error) {
	ticker := time.NewTicker(f.pollInterval)
	defer ticker.Stop()

	for {
		utt, ok, err := f.checkForNewFile()
		if err != nil {
			return domain.Utterance{}, err
		}
		if ok {
			return utt, nil
		}

		select {
		case <-ctx.Done():
			return domain.Utterance{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (f *FileSource) checkForNewFile() (domain.Utterance, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return domain.Utterance{}, false, fmt.Errorf("reading dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".wav" {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(f.dir, name)
		if f.processed[path] {
			continue
		}
		f.processed[path] = true

		utt, err := f.load(path)
		if renameErr := os.Rename(path, path+".processed"); renameErr != nil {
			f.logger.Warn("marking file processed", "path", path, "error", renameErr)
		}
		if err != nil {
			f.logger.Warn("skipping unreadable audio file", "path", path, "error", err)
			continue
		}

		f.logger.Info("loaded audio file", "path", path, "duration", utt.Duration())
		return utt, true, nil
	}

	return domain.Utterance{}, false, nil
}

func (f *FileSource) load(path string) (domain.Utterance, error) {
	file, err := os.Open(path)
	if err != nil {
		return domain.Utterance{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer file.Close()

	samples, rate, err := DecodeWAV(file)
	if err != nil {
		return domain.Utterance{}, err
	}

	return domain.Utterance{
		Samples:    ResampleInt16(samples, rate, domain.CaptureSampleRate),
		SampleRate: domain.CaptureSampleRate,
	}, nil
}
