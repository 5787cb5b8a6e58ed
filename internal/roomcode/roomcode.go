// Package roomcode issues and canonicalizes the short codes players type to
// join a session.
package roomcode

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"

	"cardforge/internal/apperr"
)

// Alphabet leaves out 0/O and 1/I.
const Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	DefaultLength      = 4
	DefaultMaxAttempts = 20
	MinLength          = 4
	MaxLength          = 8
)

// Generate returns a random code of the given length drawn from Alphabet.
func Generate(length int) (string, error) {
	if length <= 0 {
		length = DefaultLength
	}
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate room code: %w", err)
	}
	for i := range buf {
		buf[i] = Alphabet[int(buf[i])%len(Alphabet)]
	}
	return string(buf), nil
}

// Normalize canonicalizes a user-entered code.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsValid reports whether code, after normalization, could have been issued.
func IsValid(code string) bool {
	code = Normalize(code)
	if len(code) < MinLength || len(code) > MaxLength {
		return false
	}
	for _, r := range code {
		if !strings.ContainsRune(Alphabet, r) {
			return false
		}
	}
	return true
}

// ExistsFunc reports whether a code is already in use.
type ExistsFunc func(ctx context.Context, code string) (bool, error)

type Allocator struct {
	Length      int
	MaxAttempts int
	// Generate defaults to the package Generate.
	Generate func(length int) (string, error)
}

func NewAllocator(length, maxAttempts int) *Allocator {
	length = max(MinLength, min(length, MaxLength))
	return &Allocator{Length: length, MaxAttempts: maxAttempts}
}

// Allocate draws candidates until exists reports one free. The result was
// unused when checked; the unique constraint on insert is what makes it
// stick.
func (a *Allocator) Allocate(ctx context.Context, exists ExistsFunc) (string, error) {
	generate := a.Generate
	if generate == nil {
		generate = Generate
	}
	attempts := a.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		candidate, err := generate(a.Length)
		if err != nil {
			return "", err
		}
		candidate = Normalize(candidate)
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", apperr.Conflict(fmt.Sprintf("no free room code after %d attempts", attempts))
}
