package infra_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"voicechat/internal/infra"
)

func fastRetry() infra.RetryConfig {
	return infra.RetryConfig{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2,
	}
}

func TestWithRetry_RetriesRetryableStatus(t *testing.T) {
	calls := 0
	err := infra.WithRetry(context.Background(), fastRetry(), func() error {
		calls++
		if calls < 3 {
			return &infra.StatusError{Service: "ollama", StatusCode: http.StatusServiceUnavailable}
		}
		return nil
	})

	if err != nil {
		t.Fatalf("WithRetry: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls: got %d, want 3", calls)
	}
}

func TestWithRetry_StopsOnPermanentError(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"bad request", &infra.StatusError{Service: "openai", StatusCode: http.StatusBadRequest}},
		{"plain error", errors.New("decoding response")},
		{"canceled", context.Canceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := infra.WithRetry(context.Background(), fastRetry(), func() error {
				calls++
				return tt.err
			})

			if !errors.Is(err, tt.err) {
				t.Errorf("error: got %v, want %v", err, tt.err)
			}
			if calls != 1 {
				t.Errorf("calls: got %d, want 1", calls)
			}
		})
	}
}

func TestWithRetry_GivesUpAfterMaxAttempts(t *testing.T) {
	calls := 0
	err := infra.WithRetry(context.Background(), fastRetry(), func() error {
		calls++
		return &infra.StatusError{Service: "gemini", StatusCode: http.StatusTooManyRequests, Body: "slow down"}
	})

	var statusErr *infra.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if calls != 3 {
		t.Errorf("calls: got %d, want 3", calls)
	}
	if statusErr.Error() != "gemini API error 429: slow down" {
		t.Errorf("message: got %q", statusErr.Error())
	}
}

func TestIsRetryableHTTPStatus(t *testing.T) {
	cases := map[int]bool{
		http.StatusOK:                  false,
		http.StatusBadRequest:          false,
		http.StatusUnauthorized:        false,
		http.StatusTooManyRequests:     true,
		http.StatusInternalServerError: true,
		http.StatusBadGateway:          true,
		http.StatusServiceUnavailable:  true,
		http.StatusGatewayTimeout:      true,
	}
	for code, want := range cases {
		if got := infra.IsRetryableHTTPStatus(code); got != want {
			t.Errorf("status %d: got %v, want %v", code, got, want)
		}
	}
}
