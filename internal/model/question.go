package model

import "time"

// Question is one turn opener in a session. OrderNum starts at 1 and is
// strictly increasing with no gaps within a session. Created once, never
// mutated.
type Question struct {
	ID           string    `json:"id" bson:"_id,omitempty"`
	SessionID    string    `json:"sessionId" bson:"sessionId"`
	AuthorID     string    `json:"authorId" bson:"authorId"`
	Text         string    `json:"text" bson:"text"`
	OrderNum     int       `json:"orderNum" bson:"orderNum"`
	TimerSeconds int       `json:"timerSeconds,omitempty" bson:"timerSeconds,omitempty"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
}
