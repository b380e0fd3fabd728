package config

import "testing"

func TestValidBotToken(t *testing.T) {
	tests := []struct {
		desc  string
		token string
		want  bool
	}{
		{"real-looking token", "123456789:AAH4NOx5KZK4sLNOXLbofMBW5OfZpLWSU", true},
		{"token with underscore and dash", "42:abc_DEF-123", true},
		{"empty", "", false},
		{"masked placeholder", "12345...WSU", false},
		{"missing colon", "123456789AAH4NOx5", false},
		{"non-numeric id", "abc:AAH4NOx5", false},
		{"illegal characters", "123:AAH4!NOx5", false},
	}

	for _, tt := range tests {
		if got := ValidBotToken(tt.token); got != tt.want {
			t.Errorf("%s: ValidBotToken(%q) = %v, want %v", tt.desc, tt.token, got, tt.want)
		}
	}
}
