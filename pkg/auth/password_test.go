package auth

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	BcryptCost = 4
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name          string
		password      string
		shouldFail    bool
		errorContains string
	}{
		{name: "valid", password: "Admin123!", shouldFail: false},
		{name: "valid without symbols", password: "correcthorse9", shouldFail: false},
		{name: "too short", password: "ab1", shouldFail: true, errorContains: "at least 8"},
		{name: "too long", password: strings.Repeat("a", 70) + "123", shouldFail: true, errorContains: "at most 72"},
		{name: "missing digit", password: "onlyletters", shouldFail: true, errorContains: "digit"},
		{name: "missing letter", password: "1234567890", shouldFail: true, errorContains: "letter"},
		{name: "common password rejected", password: "Password123", shouldFail: true, errorContains: "too common"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)

			if !tt.shouldFail {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var pve *PasswordValidationError
			assert.True(t, errors.As(err, &pve))
			assert.Contains(t, err.Error(), tt.errorContains)
		})
	}
}

func TestHashAndComparePassword(t *testing.T) {
	password := "SecureP@ss123"

	hash, err := HashPassword(password)
	require.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, password, hash)

	assert.NoError(t, ComparePassword(hash, password))
	assert.Error(t, ComparePassword(hash, "WrongPassword123!"))
}

func TestHashPassword_Salted(t *testing.T) {
	a, err := HashPassword("same-secret-1")
	require.NoError(t, err)
	b, err := HashPassword("same-secret-1")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestHashPassword_Empty(t *testing.T) {
	_, err := HashPassword("")
	assert.Error(t, err)
}

func TestCompareDummy_DoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		CompareDummy("anything")
		CompareDummy("")
	})
}
