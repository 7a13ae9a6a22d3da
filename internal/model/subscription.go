package model

import "time"

type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "ACTIVE"
	SubscriptionCancelled SubscriptionStatus = "CANCELLED"
)

// Subscription owns a user's session allowance for one billing period.
// UsedSessions counts sessions created this period; it is never decremented
// on session end, only by the compensating release after a failed creation.
type Subscription struct {
	ID           string             `json:"id" bson:"_id,omitempty"`
	UserID       string             `json:"userId" bson:"userId"`
	PlanID       string             `json:"planId" bson:"planId"`
	SessionLimit int                `json:"sessionLimit" bson:"sessionLimit"`
	UsedSessions int                `json:"usedSessions" bson:"usedSessions"`
	Status       SubscriptionStatus `json:"status" bson:"status"`
	PeriodStart  time.Time          `json:"periodStart" bson:"periodStart"`
	PeriodEnd    time.Time          `json:"periodEnd" bson:"periodEnd"`
}

// HasCapacity reports whether one more session fits in the current period.
func (s *Subscription) HasCapacity() bool {
	return s.Status == SubscriptionActive && s.UsedSessions < s.SessionLimit
}
