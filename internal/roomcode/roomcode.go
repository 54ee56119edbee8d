// Package roomcode generates the short join codes players type to enter a
// room. Codes use an uppercase alphabet with the easily-confused glyphs
// (0/O, 1/I) removed.
package roomcode

import (
	"crypto/rand"
	"strings"
)

const alphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

// Length is the standard room code length.
const Length = 6

// RandSource allows tests to inject deterministic randomness.
type RandSource interface {
	Intn(n int) int
}

// Generator produces room codes with configurable randomness.
type Generator struct {
	randSource RandSource
}

// NewGenerator creates a generator. A nil RandSource uses crypto/rand.
func NewGenerator(randSource RandSource) *Generator {
	return &Generator{randSource: randSource}
}

// Generate creates a new room code using crypto/rand.
func Generate() string {
	return NewGenerator(nil).Generate()
}

// Generate creates a new Length-character room code.
func (g *Generator) Generate() string {
	var sb strings.Builder
	sb.Grow(Length)
	if g.randSource != nil {
		for i := 0; i < Length; i++ {
			sb.WriteByte(alphabet[g.randSource.Intn(len(alphabet))])
		}
		return sb.String()
	}
	buf := make([]byte, Length)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	for _, b := range buf {
		sb.WriteByte(alphabet[int(b)%len(alphabet)])
	}
	return sb.String()
}

// Normalize upper-cases and trims a user-entered code.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Valid reports whether code is a well-formed room code.
func Valid(code string) bool {
	if len(code) != Length {
		return false
	}
	for i := 0; i < len(code); i++ {
		if !strings.ContainsRune(alphabet, rune(code[i])) {
			return false
		}
	}
	return true
}
