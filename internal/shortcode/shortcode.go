// Package shortcode generates random short codes and validates custom aliases.
// Both share the redirect namespace, so aliases are checked against the
// routes the service reserves for itself.
package shortcode

import (
	"fmt"
	"regexp"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/vadimbarashkov/vortex/internal/entity"
)

// Alphabet excludes the visually confusable 0, O, o, 1, l and I.
const Alphabet = "23456789abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ"

const (
	DefaultLength = 7
	MinLength     = 6
	MaxLength     = 32
)

var (
	aliasRe = regexp.MustCompile(`^[A-Za-z0-9_-]{3,32}$`)

	reserved = map[string]struct{}{
		"api":     {},
		"docs":    {},
		"swagger": {},
		"metrics": {},
		"healthz": {},
	}
)

// Generator draws fixed-length codes from Alphabet. It holds no mutable state
// and is safe for concurrent use.
type Generator struct {
	length int
}

// New returns a Generator producing codes of the given length.
func New(length int) (*Generator, error) {
	const op = "shortcode.New"

	if length < MinLength || length > MaxLength {
		return nil, fmt.Errorf("%s: length %d out of range [%d, %d]", op, length, MinLength, MaxLength)
	}

	return &Generator{length: length}, nil
}

// Length returns the length of the generated codes.
func (g *Generator) Length() int {
	return g.length
}

// Generate returns a new random code. Uniqueness is the caller's concern.
func (g *Generator) Generate() (string, error) {
	const op = "shortcode.Generator.Generate"

	code, err := gonanoid.Generate(Alphabet, g.length)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return code, nil
}

// Valid reports whether code could have been produced by g.
func (g *Generator) Valid(code string) bool {
	if len(code) != g.length {
		return false
	}

	for _, c := range code {
		if !strings.ContainsRune(Alphabet, c) {
			return false
		}
	}

	return true
}

// ValidateAlias checks a user-supplied alias against the alias rules.
func ValidateAlias(alias string) error {
	if !aliasRe.MatchString(alias) {
		return &entity.ValidationError{
			Field: "custom_alias",
			Issue: "must be 3-32 characters of letters, digits, '-' or '_'",
		}
	}

	if _, ok := reserved[strings.ToLower(alias)]; ok {
		return &entity.ValidationError{
			Field: "custom_alias",
			Issue: "is reserved",
		}
	}

	return nil
}
