package validators

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmailValidator(t *testing.T) {
	tests := []struct {
		in  string
		err error
	}{
		{"demo@example.com", nil},
		{"  ", ErrEmailEmpty},
		{"", ErrEmailEmpty},
		{"not-an-email", ErrEmailInvalid},
		{"Demo <demo@example.com>", ErrEmailInvalid},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.err, EmailValidator(tc.in), tc.in)
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "demo@example.com", NormalizeEmail("  Demo@Example.COM "))
}

func TestPasswordValidator(t *testing.T) {
	assert.Equal(t, ErrPasswordEmpty, PasswordValidator(""))
	assert.Equal(t, ErrPasswordTooShort, PasswordValidator("1234567"))
	assert.NoError(t, PasswordValidator("12345678"))
	assert.NoError(t, PasswordValidator(strings.Repeat("a", MaxPasswordLength)))
	assert.Equal(t, ErrPasswordTooLong, PasswordValidator(strings.Repeat("a", MaxPasswordLength+1)))
}

func TestNameValidator(t *testing.T) {
	assert.Equal(t, ErrNameEmpty, NameValidator("   "))
	assert.NoError(t, NameValidator("Demo User"))
	assert.Equal(t, ErrNameTooLong, NameValidator(strings.Repeat("ä", MaxNameLength+1)))
}
