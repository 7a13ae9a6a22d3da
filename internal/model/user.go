package model

import (
	"fmt"
	"time"
)

// Role is a user's function within one interview session
type Role string

const (
	RoleStudent  Role = "STUDENT"
	RoleHost     Role = "HOST"
	RoleReviewer Role = "REVIEWER"
)

// ParseRole validates a role string against the closed set
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleStudent, RoleHost, RoleReviewer:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// User represents a platform account
type User struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	Email     string    `json:"email" bson:"email"`
	Name      string    `json:"name" bson:"name"`
	PlanID    string    `json:"planId" bson:"planId"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}
