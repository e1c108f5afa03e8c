package colorscheme

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := map[string]ColorScheme{
		"light":  Light,
		"dark":   Dark,
		"system": System,
		"":       System,
		"Dark":   System,
		"blue":   System,
		" dark":  System,
	}

	for in, want := range tests {
		assert.Equal(t, want, Parse(in), "Parse(%q)", in)
	}
}

func TestEncodeMatchesCookieFormat(t *testing.T) {
	assert.Equal(t, "ImRhcmsi", Encode(Dark))
	assert.Equal(t, "ImxpZ2h0Ig%3D%3D", Encode(Light))
	assert.Equal(t, "InN5c3RlbSI%3D", Encode(System))
}

func TestDecodeInvalid(t *testing.T) {
	for _, raw := range []string{
		"",
		"dark",
		"%zz",
		"not base64!",
		Encode("blue"),
		"e30=", // {}
	} {
		assert.Equal(t, System, Decode(raw), "Decode(%q)", raw)
	}
}

func TestCookieRoundTrip(t *testing.T) {
	for _, c := range All {
		rec := httptest.NewRecorder()
		http.SetCookie(rec, Cookie(c, false))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		for _, ck := range rec.Result().Cookies() {
			req.AddCookie(ck)
		}

		assert.Equal(t, c, FromRequest(req))
	}
}

func TestFromRequestAbsent(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, System, FromRequest(req))
}

func TestCookieAttributes(t *testing.T) {
	c := Cookie(Dark, true)

	require.NotNil(t, c)
	assert.Equal(t, CookieName, c.Name)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, 31536000, c.MaxAge)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
}

func TestCookieInvalidFallsBackToSystem(t *testing.T) {
	assert.Equal(t, Encode(System), Cookie("purple", false).Value)
}
