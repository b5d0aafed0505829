package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	valid := []string{"a@x.com", "user.name+tag@example.co.uk", "a_b-c@dom.io"}
	for _, email := range valid {
		assert.True(t, ValidateEmail(email), email)
	}

	invalid := []string{"", "plain", "@x.com", "a@", "a@x", "a b@x.com"}
	for _, email := range invalid {
		assert.False(t, ValidateEmail(email), email)
	}
}

func TestCheckPassword(t *testing.T) {
	// zero minimum falls back to the default of 8
	assert.Equal(t, "password", CheckPassword("short", 0))
	assert.Equal(t, "password", CheckPassword("1234567", 0))
	assert.Equal(t, "", CheckPassword("12345678", 0))
	assert.Equal(t, "", CheckPassword("secret123", 0))

	// an explicit minimum is honored
	assert.Equal(t, "password", CheckPassword("secret123", 12))
	assert.Equal(t, "", CheckPassword("secret123secret", 12))
	assert.Equal(t, "", CheckPassword("abc", 3))
}

func TestRandomString(t *testing.T) {
	s := RandomString(8)
	assert.Len(t, s, 8)
	assert.NotEqual(t, s, RandomString(8))
}
