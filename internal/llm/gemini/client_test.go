package gemini

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/genai"
)

func TestNewClient_RequiresKey(t *testing.T) {
	if _, err := NewClient(context.Background(), Config{}, nil); err == nil {
		t.Error("NewClient without api key expected error, got nil")
	}
}

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{&genai.APIError{Code: 429}, true},
		{&genai.APIError{Code: 503}, true},
		{&genai.APIError{Code: 400}, false},
		{errors.New("read: connection reset by peer"), true},
		{context.DeadlineExceeded, false},
		{errors.New("bad request"), false},
	}
	for _, tc := range cases {
		if got := isRetryable(tc.err); got != tc.want {
			t.Errorf("isRetryable(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}
