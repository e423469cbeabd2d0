package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

// SignValue appends an HMAC-SHA256 signature: "<value>.<base64url(mac)>".
func SignValue(value, secret string) string {
	return value + "." + base64.RawURLEncoding.EncodeToString(macOf(value, secret))
}

// VerifySignedValue returns the original value when the signature matches.
func VerifySignedValue(signed, secret string) (string, bool) {
	i := strings.LastIndexByte(signed, '.')
	if i <= 0 || i == len(signed)-1 {
		return "", false
	}
	value, sig := signed[:i], signed[i+1:]
	got, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return "", false
	}
	if !hmac.Equal(got, macOf(value, secret)) {
		return "", false
	}
	return value, true
}

func macOf(value, secret string) []byte {
	m := hmac.New(sha256.New, []byte(secret))
	m.Write([]byte(value))
	return m.Sum(nil)
}
