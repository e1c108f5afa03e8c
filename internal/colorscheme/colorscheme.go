// Package colorscheme handles the light/dark/system display preference that
// is kept in the color-scheme cookie
package colorscheme

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"
)

type ColorScheme string

const (
	Light  ColorScheme = "light"
	Dark   ColorScheme = "dark"
	System ColorScheme = "system"

	Default = System
)

const (
	CookieName = "color-scheme"
	MaxAge     = 60 * 60 * 24 * 365 // 1 year
)

// All lists the valid color schemes in display order
var All = []ColorScheme{Light, Dark, System}

func (c ColorScheme) Valid() bool {
	switch c {
	case Light, Dark, System:
		return true
	}

	return false
}

func (c ColorScheme) String() string {
	return string(c)
}

// Parse returns v as a ColorScheme, anything that isn't a valid scheme
// resolves to System
func Parse(v string) ColorScheme {
	if c := ColorScheme(v); c.Valid() {
		return c
	}

	return Default
}

// Encode serializes c the way the cookie is stored: the JSON string, base64
// encoded, then URI escaped
func Encode(c ColorScheme) string {
	b, _ := json.Marshal(string(c))
	return url.QueryEscape(base64.StdEncoding.EncodeToString(b))
}

// Decode reverses Encode. Malformed input resolves to System
func Decode(raw string) ColorScheme {
	unescaped, err := url.QueryUnescape(raw)
	if err != nil {
		return Default
	}

	b, err := base64.StdEncoding.DecodeString(unescaped)
	if err != nil {
		return Default
	}

	var v string
	if err := json.Unmarshal(b, &v); err != nil {
		return Default
	}

	return Parse(v)
}

// FromRequest reads the color scheme cookie of r. An absent or invalid
// cookie resolves to System
func FromRequest(r *http.Request) ColorScheme {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return Default
	}

	return Decode(c.Value)
}

// Cookie returns the cookie persisting c for a year
func Cookie(c ColorScheme, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    Encode(Parse(string(c))),
		Path:     "/",
		MaxAge:   MaxAge,
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}
