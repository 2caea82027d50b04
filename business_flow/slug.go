// Package businessflow contains the business logic for the application.
package businessflow

import (
	"crypto/rand"
	"math/big"
	"strings"
	"unicode"
)

const (
	slugAlphabet     = "abcdefghijklmnopqrstuvwxyz0123456789"
	slugSuffixLength = 4
	slugBaseMaxLen   = 20
)

// SanitizeCustomURL normalizes a user-supplied slug: lowercase, trimmed,
// whitespace runs turned into hyphens, anything outside [a-z0-9-] dropped,
// hyphen runs collapsed, and leading/trailing hyphens removed. Running it
// twice yields the same result. An empty string means nothing usable was left.
func SanitizeCustomURL(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))

	var b strings.Builder
	b.Grow(len(s))
	prevHyphen := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			prevHyphen = false
		case unicode.IsSpace(r) || r == '-':
			if !prevHyphen {
				b.WriteByte('-')
				prevHyphen = true
			}
		}
	}

	return strings.Trim(b.String(), "-")
}

// GenerateCustomURL derives a slug from the recipient name plus a random
// suffix: the name reduced to [a-z0-9] and capped at 20 characters, a hyphen,
// and 4 random alphanumeric characters. When the name yields nothing the
// suffix stands alone.
func GenerateCustomURL(name string) (string, error) {
	base := compactName(name)

	suffix, err := randomSlugSuffix(slugSuffixLength)
	if err != nil {
		return "", err
	}

	if base == "" {
		return suffix, nil
	}
	return base + "-" + suffix, nil
}

func compactName(name string) string {
	s := strings.ToLower(name)

	var b strings.Builder
	b.Grow(slugBaseMaxLen)
	for _, r := range s {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
			if b.Len() >= slugBaseMaxLen {
				break
			}
		}
	}
	return b.String()
}

func randomSlugSuffix(length int) (string, error) {
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(slugAlphabet))))
		if err != nil {
			return "", err
		}
		b[i] = slugAlphabet[n.Int64()]
	}
	return string(b), nil
}
