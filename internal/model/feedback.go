package model

// FeedbackResult is produced by the external feedback generator for one
// answered question. A degraded placeholder is published when generation
// fails; the stored answer is never invalidated by it.
type FeedbackResult struct {
	Score       int    `json:"score"`
	Summary     string `json:"summary"`
	Strengths   string `json:"strengths"`
	Weaknesses  string `json:"weaknesses"`
	Improvement string `json:"improvement"`
}
