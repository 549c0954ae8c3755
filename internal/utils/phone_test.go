package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDigitsOnly(t *testing.T) {
	assert.Equal(t, "96512345678", DigitsOnly("+965 1234-5678"))
	assert.Equal(t, "", DigitsOnly("abc"))
	assert.Equal(t, "12345678", DigitsOnly("12345678"))
}

func TestCanonicalPhone(t *testing.T) {
	assert.Equal(t, "96512345678", CanonicalPhone("+965", "1234 5678"))
	assert.Equal(t, "96512345678", CanonicalPhone("965", "12345678"))
}

func TestCanonicalPhone_NumberAlreadyHasCode(t *testing.T) {
	// The code must not be prepended twice.
	assert.Equal(t, "96512345678", CanonicalPhone("+965", "96512345678"))
	assert.Equal(t, "96512345678", CanonicalPhone("+965", "+965 12345678"))
}

func TestCanonicalPhone_EmptyCode(t *testing.T) {
	assert.Equal(t, "12345678", CanonicalPhone("", "12345678"))
}
