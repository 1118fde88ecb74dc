package domain

import (
	"testing"
	"time"
)

func TestAccessToken_IsActiveAt(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	tests := []struct {
		name  string
		token AccessToken
		want  bool
	}{
		{"no expiry, not revoked", AccessToken{}, true},
		{"expires in the future", AccessToken{ExpiresAt: &future}, true},
		{"already expired", AccessToken{ExpiresAt: &past}, false},
		{"revoked", AccessToken{RevokedAt: &past}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.token.IsActiveAt(now); got != tt.want {
				t.Errorf("IsActiveAt() = %v, want %v", got, tt.want)
			}
		})
	}
}
