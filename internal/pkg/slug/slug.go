package slug

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// lowercase base36 so generated slugs stay URL and case safe
const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

const (
	MaxLength    = 180
	suffixLength = 6
	maxAttempts  = 5
)

var ErrNoUniqueSlug = errors.New("could not find a free slug")

// Slugify lowercases s, strips accents and joins words with single dashes.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range norm.NFKD.String(strings.ToLower(strings.TrimSpace(s))) {
		switch {
		case unicode.Is(unicode.Mn, r):
			// combining accent left behind by NFKD
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		default:
			if b.Len() > 0 && !dash {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	out := strings.TrimRight(b.String(), "-")
	if len(out) > MaxLength {
		out = strings.TrimRight(out[:MaxLength], "-")
	}
	return out
}

// GenerateSecureSuffix creates a cryptographically secure random base36 string.
func GenerateSecureSuffix(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid suffix length: %d", length)
	}

	// Rejection sampling to avoid modulo bias.
	// 252 is the largest multiple of 36 below 256.
	const maxRandomByte = 252

	out := make([]byte, length)
	buf := make([]byte, length*2)
	written := 0

	for written < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to read secure random bytes: %w", err)
		}

		for _, b := range buf {
			if b >= maxRandomByte {
				continue
			}
			out[written] = alphabet[int(b)%len(alphabet)]
			written++
			if written == length {
				break
			}
		}
	}

	return string(out), nil
}

// Unique returns base when it is free, otherwise base with a random suffix.
func Unique(ctx context.Context, base string, exists func(ctx context.Context, slug string) (bool, error)) (string, error) {
	base = Slugify(base)
	if base == "" {
		base = "item"
	}
	taken, err := exists(ctx, base)
	if err != nil {
		return "", err
	}
	if !taken {
		return base, nil
	}

	trimmed := base
	if len(trimmed) > MaxLength-suffixLength-1 {
		trimmed = strings.TrimRight(trimmed[:MaxLength-suffixLength-1], "-")
	}
	for i := 0; i < maxAttempts; i++ {
		suffix, err := GenerateSecureSuffix(suffixLength)
		if err != nil {
			return "", err
		}
		candidate := trimmed + "-" + suffix
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", ErrNoUniqueSlug
}
