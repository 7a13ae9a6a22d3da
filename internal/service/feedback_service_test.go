package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mockmate/internal/config"
)

func TestFeedbackMockFallback(t *testing.T) {
	svc := NewFeedbackService(&config.AIConfig{TimeoutMS: 1000}, testLogger())

	result, err := svc.Generate(context.Background(), "tell me about yourself", "short answer")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if result.Score != 50 {
		t.Fatalf("heuristic score = %d, want 50", result.Score)
	}

	long, err := svc.Generate(context.Background(), "tell me about yourself", strings.Repeat("detail ", 40))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if long.Score != 70 {
		t.Fatalf("heuristic score for long answer = %d, want 70", long.Score)
	}
}

func TestFeedbackParsesModelResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"score\":85,\"summary\":\"clear and structured\"}"}]}}]}`))
	}))
	defer srv.Close()

	svc := NewFeedbackService(&config.AIConfig{
		APIKey:    "test-key",
		BaseURL:   srv.URL,
		Model:     "test-model",
		TimeoutMS: 1000,
	}, testLogger())

	result, err := svc.Generate(context.Background(), "question", "answer")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if result.Score != 85 {
		t.Fatalf("score = %d, want 85", result.Score)
	}
	if result.Summary != "clear and structured" {
		t.Fatalf("summary = %q", result.Summary)
	}
}

func TestFeedbackDegradesOnAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	svc := NewFeedbackService(&config.AIConfig{
		APIKey:    "test-key",
		BaseURL:   srv.URL,
		Model:     "test-model",
		TimeoutMS: 1000,
	}, testLogger())

	// The degraded path is the heuristic, never an error to the caller.
	result, err := svc.Generate(context.Background(), "question", "answer")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if result.Score != 50 {
		t.Fatalf("degraded score = %d, want heuristic 50", result.Score)
	}
}

func TestPlaceholderFeedback(t *testing.T) {
	result := PlaceholderFeedback()
	if result.Score != 0 {
		t.Fatalf("placeholder score = %d, want 0", result.Score)
	}
	if result.Summary == "" {
		t.Fatalf("placeholder summary empty")
	}
}
