package model

import "time"

// TurnSummary pairs one question with the answers it received, in append order.
type TurnSummary struct {
	OrderNum int      `json:"orderNum" bson:"orderNum"`
	Question Question `json:"question" bson:"question"`
	Answers  []Answer `json:"answers" bson:"answers"`
}

// SessionReport is the post-session snapshot handed to the report/badge
// pipeline exactly once per genuine end transition.
type SessionReport struct {
	SessionID    string        `json:"sessionId" bson:"_id"`
	HostID       string        `json:"hostId" bson:"hostId"`
	Title        string        `json:"title" bson:"title"`
	Type         SessionType   `json:"type" bson:"type"`
	EndedAt      time.Time     `json:"endedAt" bson:"endedAt"`
	Turns        []TurnSummary `json:"turns" bson:"turns"`
	Participants []Participant `json:"participants" bson:"participants"`
	Badges       []string      `json:"badges" bson:"badges"`
	GeneratedAt  time.Time     `json:"generatedAt" bson:"generatedAt"`
}
