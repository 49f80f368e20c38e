// Package generate produces passwords from template strings using
// cryptographically strong randomness.
package generate

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

const (
	lower = "abcdefghijklmnopqrstuvwxyz"
	upper = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digit = "0123456789"
	punct = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"
)

// DefaultTemplate generates 14 mixed-case letters and a digit.
const DefaultTemplate = "Aaaaaaaaaaaaaa5"

// Generator produces passwords containing at least one character of every
// selected ingredient group.
type Generator struct {
	includeUpper bool
	includeLower bool
	includeDigit bool
	includePunct bool
	length       int
}

// FromTemplate configures a Generator from a template string like
// "Aaaaaa!aaaaaa5". Each character class present in the template is
// included at least once in generated passwords; the template's length
// sets the password length.
func FromTemplate(template string) (*Generator, error) {
	if template == "" {
		return nil, errors.New("template must be at least one character long")
	}
	var g Generator
	for _, c := range template {
		switch {
		case unicode.IsUpper(c):
			g.includeUpper = true
		case unicode.IsLower(c):
			g.includeLower = true
		case unicode.IsDigit(c):
			g.includeDigit = true
		case strings.ContainsRune(punct, c):
			g.includePunct = true
		default:
			return nil, errors.Errorf("template contains unknown character %q", c)
		}
	}
	// Every selected group owes its selection to a template character, so
	// the length always covers the stage-2 inserts.
	g.length = len([]rune(template))
	return &g, nil
}

func (g *Generator) groups() []string {
	var groups []string
	if g.includeLower {
		groups = append(groups, lower)
	}
	if g.includeUpper {
		groups = append(groups, upper)
	}
	if g.includeDigit {
		groups = append(groups, digit)
	}
	if g.includePunct {
		groups = append(groups, punct)
	}
	return groups
}

// Password generates one password.
//
// Stage 1 fills most of the password from the union of all ingredient
// groups; stage 2 inserts one member of each group at a random position so
// every selected group is guaranteed to be represented.
func (g *Generator) Password() (string, error) {
	groups := g.groups()
	all := strings.Join(groups, "")

	pw := make([]byte, 0, g.length)
	for i := 0; i < g.length-len(groups); i++ {
		c, err := pick(all)
		if err != nil {
			return "", err
		}
		pw = append(pw, c)
	}
	for _, group := range groups {
		c, err := pick(group)
		if err != nil {
			return "", err
		}
		at, err := randInt(len(pw) + 1)
		if err != nil {
			return "", err
		}
		pw = append(pw[:at], append([]byte{c}, pw[at:]...)...)
	}
	return string(pw), nil
}

// Spec describes the generator in words, e.g. for confirmation prompts.
func (g *Generator) Spec() string {
	var names []string
	if g.includeLower {
		names = append(names, "a-z")
	}
	if g.includeUpper {
		names = append(names, "A-Z")
	}
	if g.includeDigit {
		names = append(names, "0-9")
	}
	if g.includePunct {
		names = append(names, "punctuation")
	}
	return fmt.Sprintf("%d characters including %s",
		g.length, strings.Join(names, ", "))
}

func pick(set string) (byte, error) {
	i, err := randInt(len(set))
	if err != nil {
		return 0, err
	}
	return set[i], nil
}

func randInt(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, errors.Wrap(err, "read randomness")
	}
	return int(v.Int64()), nil
}
