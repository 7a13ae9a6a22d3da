package model

import "time"

type SessionStatus string

// Session lifecycle is strictly forward-only: PLANNED -> RUNNING -> ENDED.
const (
	SessionPlanned SessionStatus = "PLANNED"
	SessionRunning SessionStatus = "RUNNING"
	SessionEnded   SessionStatus = "ENDED"
)

type SessionType string

const (
	SessionText  SessionType = "TEXT"
	SessionVoice SessionType = "VOICE"
	SessionVideo SessionType = "VIDEO"
)

// Session is one scheduled, running, or ended interview room.
type Session struct {
	ID           string        `json:"id" bson:"_id,omitempty"`
	HostID       string        `json:"hostId" bson:"hostId"`
	Title        string        `json:"title" bson:"title"`
	Type         SessionType   `json:"type" bson:"type"`
	Status       SessionStatus `json:"status" bson:"status"`
	RecordingURL string        `json:"recordingUrl,omitempty" bson:"recordingUrl,omitempty"`
	CreatedAt    time.Time     `json:"createdAt" bson:"createdAt"`
	StartedAt    *time.Time    `json:"startedAt,omitempty" bson:"startedAt,omitempty"`
	EndedAt      *time.Time    `json:"endedAt,omitempty" bson:"endedAt,omitempty"`
}

// SessionMeta is the slim Redis view of a session used by the transport layer.
type SessionMeta struct {
	ID        string        `json:"id"`
	HostID    string        `json:"hostId"`
	Status    SessionStatus `json:"status"`
	Type      SessionType   `json:"type"`
	CreatedAt time.Time     `json:"createdAt"`
}
