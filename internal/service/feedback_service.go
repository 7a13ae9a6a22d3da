package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"mockmate/internal/config"
	"mockmate/internal/model"
)

// FeedbackGenerator is the external scoring collaborator. It is only ever
// invoked asynchronously after an answer is stored; the content of the
// feedback is opaque to the session engine.
type FeedbackGenerator interface {
	Generate(ctx context.Context, questionText, answerText string) (*model.FeedbackResult, error)
}

// FeedbackService generates answer feedback via the Gemini API, falling back
// to a canned result when no API key is configured or the call fails.
type FeedbackService struct {
	config *config.AIConfig
	client *http.Client
	log    zerolog.Logger
}

// NewFeedbackService creates a new feedback service
func NewFeedbackService(cfg *config.AIConfig, log zerolog.Logger) *FeedbackService {
	return &FeedbackService{
		config: cfg,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond,
		},
		log: log.With().Str("component", "feedback").Logger(),
	}
}

// Generate scores one question/answer pair.
func (s *FeedbackService) Generate(ctx context.Context, questionText, answerText string) (*model.FeedbackResult, error) {
	if !s.config.IsEnabled() {
		return s.mockGenerate(answerText), nil
	}

	prompt := s.buildFeedbackPrompt(questionText, answerText)
	response, err := s.callGemini(ctx, prompt)
	if err != nil {
		s.log.Error().Err(err).Msg("gemini call failed, using mock feedback")
		return s.mockGenerate(answerText), nil
	}

	var result model.FeedbackResult
	if err := json.Unmarshal([]byte(response), &result); err != nil {
		return s.mockGenerate(answerText), nil
	}
	return &result, nil
}

// callGemini makes a request to the Gemini API
func (s *FeedbackService) callGemini(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"parts": []map[string]string{
					{"text": prompt},
				},
			},
		},
		"generationConfig": map[string]interface{}{
			"responseMimeType": "application/json",
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s?key=%s", s.config.ModelEndpoint(), s.config.APIKey)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var geminiResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}

	if err := json.Unmarshal(body, &geminiResp); err != nil {
		return "", err
	}

	if len(geminiResp.Candidates) > 0 && len(geminiResp.Candidates[0].Content.Parts) > 0 {
		return geminiResp.Candidates[0].Content.Parts[0].Text, nil
	}

	return "", fmt.Errorf("empty response from Gemini")
}

func (s *FeedbackService) buildFeedbackPrompt(questionText, answerText string) string {
	return fmt.Sprintf(`You are an interview coach evaluating a candidate's answer. Return ONLY valid JSON matching this schema:
{
  "score": 0 to 100,
  "summary": "one sentence overall assessment",
  "strengths": "what the answer did well",
  "weaknesses": "where the answer fell short",
  "improvement": "one concrete suggestion"
}

Interview question: %s
Candidate's answer: %s

Score the answer on relevance, structure, and depth.`,
		questionText, answerText)
}

func (s *FeedbackService) mockGenerate(answerText string) *model.FeedbackResult {
	score := 50
	if len(answerText) > 200 {
		score = 70
	}
	return &model.FeedbackResult{
		Score:       score,
		Summary:     "Automated review unavailable, heuristic score applied.",
		Strengths:   "The answer addresses the question.",
		Weaknesses:  "Detail level could not be assessed.",
		Improvement: "Add a concrete example from your own experience.",
	}
}

// PlaceholderFeedback is published when even the degraded generation path
// errors out, so the participant still sees a terminal feedback state.
func PlaceholderFeedback() *model.FeedbackResult {
	return &model.FeedbackResult{
		Score:   0,
		Summary: "Feedback is unavailable for this answer.",
	}
}
