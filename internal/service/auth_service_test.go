package service

import (
	"errors"
	"testing"

	"mockmate/internal/model"
)

func TestAuthLogin(t *testing.T) {
	svc := NewAuthService("test-secret")

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{"valid credentials", "host@mockmate.dev", "password123", nil},
		{"wrong password", "host@mockmate.dev", "nope", ErrInvalidCredentials},
		{"unknown email", "stranger@mockmate.dev", "password123", ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.Login(tt.email, tt.password)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Login() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && (resp == nil || resp.Token == "") {
				t.Fatalf("Login() returned empty token")
			}
		})
	}
}

func TestAuthHostTokenRoundTrip(t *testing.T) {
	svc := NewAuthService("test-secret")

	resp, err := svc.Login("host@mockmate.dev", "password123")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	claims, err := svc.ValidateHostToken(resp.Token)
	if err != nil {
		t.Fatalf("ValidateHostToken() error = %v", err)
	}
	if claims.UserID != resp.UserID {
		t.Fatalf("claims user = %q, want %q", claims.UserID, resp.UserID)
	}

	if _, err := svc.ValidateHostToken("garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("ValidateHostToken(garbage) error = %v, want ErrInvalidToken", err)
	}

	// A token signed with another secret is rejected.
	other := NewAuthService("other-secret")
	if _, err := other.ValidateHostToken(resp.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("cross-secret validation error = %v, want ErrInvalidToken", err)
	}
}

func TestAuthParticipantToken(t *testing.T) {
	svc := NewAuthService("test-secret")

	token, err := svc.GenerateParticipantToken("s1", "alice", model.RoleStudent)
	if err != nil {
		t.Fatalf("GenerateParticipantToken() error = %v", err)
	}

	claims, err := svc.ValidateParticipantToken(token)
	if err != nil {
		t.Fatalf("ValidateParticipantToken() error = %v", err)
	}
	if claims.SessionID != "s1" || claims.UserID != "alice" || claims.Role != model.RoleStudent {
		t.Fatalf("claims = %+v", claims)
	}

	if _, err := svc.ValidateParticipantToken("garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("ValidateParticipantToken(garbage) error = %v, want ErrInvalidToken", err)
	}
}
