// Package token generates opaque token strings for access tokens, refresh
// tokens and authorization codes.
package token

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// DefaultLength is the token length used when none is given
const DefaultLength = 40

// ErrGenerationFailure is returned when the random source fails.
// Callers must not retry with a weaker source.
var ErrGenerationFailure = errors.New("token generation failure")

// Generator draws token strings from a random source
type Generator struct {
	// Reader is the entropy source. Defaults to crypto/rand.Reader.
	Reader io.Reader
}

// NewGenerator returns a Generator backed by crypto/rand
func NewGenerator() *Generator {
	return &Generator{Reader: rand.Reader}
}

// Make returns a URL-safe token of exactly length characters.
// It reads 2*length random bytes, encodes them with the URL-safe base64
// alphabet and truncates. A length <= 0 selects DefaultLength.
func (g *Generator) Make(length int) (string, error) {
	if length <= 0 {
		length = DefaultLength
	}

	r := g.Reader
	if r == nil {
		r = rand.Reader
	}

	buf := make([]byte, 2*length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationFailure, err)
	}

	return base64.RawURLEncoding.EncodeToString(buf)[:length], nil
}

var defaultGenerator = NewGenerator()

// Make returns a token from the default crypto/rand generator
func Make(length int) (string, error) {
	return defaultGenerator.Make(length)
}
