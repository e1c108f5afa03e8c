package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cheap parameters keep the tests fast
func testHasher() *ArgonHash {
	return &ArgonHash{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
}

func TestArgonRoundTrip(t *testing.T) {
	a := testHasher()

	encoded, err := a.GenerateFromPassword("password123")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$m=1024,t=1,p=1$"))

	ok, err := a.VerifyPasswd("password123", encoded)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.VerifyPasswd("password124", encoded)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestArgonSaltsDiffer(t *testing.T) {
	a := testHasher()

	h1, err := a.GenerateFromPassword("same")
	require.NoError(t, err)
	h2, err := a.GenerateFromPassword("same")
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
}

func TestArgonInvalidHash(t *testing.T) {
	a := testHasher()

	tests := []struct {
		name    string
		encoded string
		err     error
	}{
		{"empty", "", ErrInvalidHash},
		{"bcrypt", "$2a$10$abcdefghijklmnopqrstuu", ErrInvalidHash},
		{"version", "$argon2id$v=16$m=1024,t=1,p=1$c2FsdA$aGFzaA", ErrIncompatibleVersion},
		{"params", "$argon2id$v=19$m=x,t=1,p=1$c2FsdA$aGFzaA", ErrInvalidHash},
		{"salt", "$argon2id$v=19$m=1024,t=1,p=1$!!!$aGFzaA", ErrInvalidHash},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ok, err := a.VerifyPasswd("x", tc.encoded)
			assert.False(t, ok)
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestArgonNeedsRehash(t *testing.T) {
	a := testHasher()

	encoded, err := a.GenerateFromPassword("password123")
	require.NoError(t, err)

	assert.False(t, a.NeedsRehash(encoded))
	assert.True(t, New().NeedsRehash(encoded))
	assert.True(t, a.NeedsRehash("garbage"))
}
