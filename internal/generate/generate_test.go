package generate

import (
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromTemplate(t *testing.T) {
	tests := []struct {
		name     string
		template string
		groups   int
		spec     string
	}{
		{"default", DefaultTemplate, 3, "15 characters including a-z, A-Z, 0-9"},
		{"lower only", "aaaa", 1, "4 characters including a-z"},
		{"all classes", "Aa5!Aa5!", 4, "8 characters including a-z, A-Z, 0-9, punctuation"},
		{"digits", "00000000", 1, "8 characters including 0-9"},
		{"one character per group", "A5", 2, "2 characters including A-Z, 0-9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := FromTemplate(tt.template)
			require.NoError(t, err)
			assert.Len(t, g.groups(), tt.groups)
			assert.Equal(t, tt.spec, g.Spec())
		})
	}
}

func TestFromTemplateErrors(t *testing.T) {
	tests := []struct {
		name     string
		template string
	}{
		{"empty", ""},
		{"unknown character", "aaaa aaaa"},
		{"symbol outside every class", "aaa€"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromTemplate(tt.template)
			assert.Error(t, err)
		})
	}
}

func TestPasswordLengthAndAlphabet(t *testing.T) {
	g, err := FromTemplate("Aaaaaaaa55")
	require.NoError(t, err)

	alphabet := lower + upper + digit
	for i := 0; i < 50; i++ {
		pw, err := g.Password()
		require.NoError(t, err)
		assert.Len(t, pw, 10)
		for _, c := range pw {
			assert.Contains(t, alphabet, string(c))
		}
	}
}

func TestPasswordCoversEveryGroup(t *testing.T) {
	g, err := FromTemplate("Aa5!")
	require.NoError(t, err)

	// Four characters, four ingredient groups: every generated password
	// must contain exactly one character of each.
	for i := 0; i < 50; i++ {
		pw, err := g.Password()
		require.NoError(t, err)
		require.Len(t, pw, 4)

		var hasLower, hasUpper, hasDigit, hasPunct bool
		for _, c := range pw {
			switch {
			case unicode.IsLower(c):
				hasLower = true
			case unicode.IsUpper(c):
				hasUpper = true
			case unicode.IsDigit(c):
				hasDigit = true
			case strings.ContainsRune(punct, c):
				hasPunct = true
			}
		}
		assert.True(t, hasLower && hasUpper && hasDigit && hasPunct, "password %q", pw)
	}
}

func TestPasswordsDiffer(t *testing.T) {
	g, err := FromTemplate(DefaultTemplate)
	require.NoError(t, err)

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		pw, err := g.Password()
		require.NoError(t, err)
		seen[pw] = true
	}
	assert.Greater(t, len(seen), 1)
}
