package password

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"
	"strings"
)

const (
	upperChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowerChars  = "abcdefghijklmnopqrstuvwxyz"
	digitChars  = "0123456789"
	symbolChars = "!@#$%^&*()-_=+[]{}<>?"

	// Characters easily confused in print: 0/O, 1/l/I, 5/S, 8/B.
	ambiguousChars = "0O1lI5S8B"
)

// GenerateOptions selects the character classes for GeneratePassword.
// The zero value enables nothing; DefaultGenerateOptions enables all
// classes and excludes ambiguous characters.
type GenerateOptions struct {
	Upper            bool
	Lower            bool
	Digits           bool
	Symbols          bool
	ExcludeAmbiguous bool
}

// DefaultGenerateOptions returns options with every class enabled and
// visually ambiguous characters excluded.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{Upper: true, Lower: true, Digits: true, Symbols: true, ExcludeAmbiguous: true}
}

// GeneratePassword builds a password of the given length, drawing every
// character from crypto/rand over the enabled character classes.
func GeneratePassword(length int, opts GenerateOptions) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("password: length must be positive")
	}

	var pool strings.Builder
	if opts.Upper {
		pool.WriteString(upperChars)
	}
	if opts.Lower {
		pool.WriteString(lowerChars)
	}
	if opts.Digits {
		pool.WriteString(digitChars)
	}
	if opts.Symbols {
		pool.WriteString(symbolChars)
	}
	chars := pool.String()
	if chars == "" {
		return "", fmt.Errorf("password: at least one character class must be enabled")
	}
	if opts.ExcludeAmbiguous {
		chars = stripChars(chars, ambiguousChars)
	}

	out := make([]byte, length)
	max := big.NewInt(int64(len(chars)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("password: generate: %w", err)
		}
		out[i] = chars[n.Int64()]
	}
	return string(out), nil
}

// GenerateToken creates a cryptographically secure random token of the
// specified byte length, returned as a hex-encoded string. Session
// identifiers use 32 bytes.
func GenerateToken(length int) (string, error) {
	bytes, err := RandomBytes(length)
	if err != nil {
		return "", fmt.Errorf("password: generate token: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// RandomBytes returns cryptographically secure random bytes.
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return nil, err
	}
	return b, nil
}

func stripChars(s, remove string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(remove, r) {
			return -1
		}
		return r
	}, s)
}
