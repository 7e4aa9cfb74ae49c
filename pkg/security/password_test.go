package security_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunaplata/joyeria-backend/pkg/config"
	"github.com/lunaplata/joyeria-backend/pkg/security"
)

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    32768,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := security.HashPassword("plata925-ana", testPasswordConfig())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=32768,t=1,p=1$"))

	ok, err := security.VerifyPassword("plata925-ana", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = security.VerifyPassword("bogus-password", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyPasswordBadHash(t *testing.T) {
	for _, encoded := range []string{
		"not-a-hash",
		"$argon2i$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=16$m=1,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$garbage$c2FsdA$aGFzaA",
	} {
		_, err := security.VerifyPassword("irrelevant", encoded)
		assert.ErrorIs(t, err, security.ErrInvalidHash, encoded)
	}
}

func TestNeedsRehash(t *testing.T) {
	cfg := testPasswordConfig()
	hash, err := security.HashPassword("plata925-ana", cfg)
	require.NoError(t, err)
	assert.False(t, security.NeedsRehash(hash, cfg))

	stronger := cfg
	stronger.ArgonTime = 3
	assert.True(t, security.NeedsRehash(hash, stronger))
	assert.True(t, security.NeedsRehash("broken", cfg))
}

func TestValidatePasswordStrength(t *testing.T) {
	assert.NoError(t, security.ValidatePasswordStrength("pulsera2024"))
	assert.Error(t, security.ValidatePasswordStrength("corta1"))
	assert.Error(t, security.ValidatePasswordStrength("sololetras"))
	assert.Error(t, security.ValidatePasswordStrength("1234567890"))
	assert.Error(t, security.ValidatePasswordStrength(strings.Repeat("a1", 65)))
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	_, err := security.HashPassword("", testPasswordConfig())
	assert.Error(t, err)
}
