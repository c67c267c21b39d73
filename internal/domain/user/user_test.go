package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateUsername(t *testing.T) {
	ok := []string{"alice1", "alice_01", "a1234", "john-doe", "alice.dev", "ai-negotiator"}
	for _, v := range ok {
		if err := ValidateUsername(v); err != nil {
			t.Fatalf("expected valid username %q: %v", v, err)
		}
	}
	bad := []string{"", "1alice", "a", "ab", "a_", "a..", "a*", "toolongusername_over_32_chars_abc"}
	for _, v := range bad {
		if err := ValidateUsername(v); err == nil {
			t.Fatalf("expected invalid username %q", v)
		}
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("S3cure!Passw0rd")
	require.NoError(t, err)
	assert.NotEqual(t, "S3cure!Passw0rd", hash)

	assert.True(t, VerifyPassword(hash, "S3cure!Passw0rd"))
	assert.False(t, VerifyPassword(hash, "wrong"))
	assert.False(t, VerifyPassword("", "S3cure!Passw0rd"))
	assert.False(t, VerifyPassword(hash, ""))

	_, err = HashPassword("")
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "alice", NormalizeUsername("  Alice "))
	assert.Equal(t, "organizer", NormalizeRoleName("Organizer"))
}

func TestValidateType(t *testing.T) {
	assert.NoError(t, ValidateType(TypeHuman))
	assert.NoError(t, ValidateType(TypeAgent))
	assert.Error(t, ValidateType("ROBOT"))
}
