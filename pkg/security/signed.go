package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

// SignValue appends an HMAC-SHA256 signature of v to v: "<v>.<signature>"
func SignValue(v, secret string) string {
	return v + "." + signature(v, secret)
}

// UnsignValue verifies a value produced by SignValue and returns the
// original value. ok is false when the signature is missing or wrong
func UnsignValue(signed, secret string) (v string, ok bool) {
	i := strings.LastIndexByte(signed, '.')
	if i <= 0 || i == len(signed)-1 {
		return "", false
	}

	v, sig := signed[:i], signed[i+1:]
	if !hmac.Equal([]byte(sig), []byte(signature(v, secret))) {
		return "", false
	}

	return v, true
}

func signature(v, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(v))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
