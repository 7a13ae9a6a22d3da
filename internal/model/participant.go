package model

import "time"

// Participant is a user's presence record within one session. There is one
// logical participant per (session, user); re-joining updates the row rather
// than creating a second identity. Rows survive the session for history.
type Participant struct {
	SessionID string     `json:"sessionId" bson:"sessionId"`
	UserID    string     `json:"userId" bson:"userId"`
	Role      Role       `json:"role" bson:"role"`
	Online    bool       `json:"online" bson:"online"`
	JoinedAt  time.Time  `json:"joinedAt" bson:"joinedAt"`
	LeftAt    *time.Time `json:"leftAt,omitempty" bson:"leftAt,omitempty"`
}
