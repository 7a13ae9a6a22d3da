package model

import "time"

// Answer attaches to the most recent question in its session at submission
// time. Created once; feedback annotation belongs to the feedback collaborator.
type Answer struct {
	ID         string    `json:"id" bson:"_id,omitempty"`
	QuestionID string    `json:"questionId" bson:"questionId"`
	SessionID  string    `json:"sessionId" bson:"sessionId"`
	AuthorID   string    `json:"authorId" bson:"authorId"`
	Text       string    `json:"text" bson:"text"`
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt"`
}
