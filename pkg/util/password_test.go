package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{name: "registration password", password: "Mekelle2024!"},
		{name: "empty password", password: ""},
		{name: "72 bytes", password: strings.Repeat("a", 72)},
		{name: "longer than 72 bytes", password: strings.Repeat("a", 73), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashPassword(tt.password)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Empty(t, hash)
				return
			}

			require.NoError(t, err)
			assert.NotEqual(t, tt.password, hash)

			cost, err := bcrypt.Cost([]byte(hash))
			require.NoError(t, err)
			assert.Equal(t, PasswordCost, cost)
		})
	}
}

func TestVerifyPassword(t *testing.T) {
	password := "registrar-secret"
	hash, err := HashPassword(password)
	require.NoError(t, err)

	tests := []struct {
		name           string
		hashedPassword string
		password       string
		want           bool
	}{
		{name: "correct password", hashedPassword: hash, password: password, want: true},
		{name: "wrong password", hashedPassword: hash, password: "registrar-Secret", want: false},
		{name: "empty password", hashedPassword: hash, password: "", want: false},
		{name: "invalid hash", hashedPassword: "not-a-bcrypt-hash", password: password, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VerifyPassword(tt.hashedPassword, tt.password))
		})
	}
}

func TestHashPassword_Salted(t *testing.T) {
	hash1, err := HashPassword("same-password")
	require.NoError(t, err)
	hash2, err := HashPassword("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, hash1, hash2)
	assert.True(t, VerifyPassword(hash1, "same-password"))
	assert.True(t, VerifyPassword(hash2, "same-password"))
}
