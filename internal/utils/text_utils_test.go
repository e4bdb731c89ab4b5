package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanDetailText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
		{
			name:     "strips tool blocks",
			input:    "Found a profile. <tool>search(\"jane\")</tool> Looks legitimate.",
			expected: "Found a profile. Looks legitimate.",
		},
		{
			name:     "strips output and json blocks",
			input:    "<output>raw logs</output>Result here.<json>{\"status\":\"spam\"}</json>",
			expected: "Result here.",
		},
		{
			name:     "collapses space runs",
			input:    "too   many\t\tspaces",
			expected: "too many spaces",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanDetailText(tt.input))
		})
	}

	t.Run("keeps at most three paragraphs", func(t *testing.T) {
		input := "one\n\ntwo\n\nthree\n\nfour"
		got := CleanDetailText(input)
		assert.Equal(t, "one\n\ntwo\n\nthree", got)
	})

	t.Run("caps total length", func(t *testing.T) {
		input := strings.Repeat("a", 600) + "\n\n" + strings.Repeat("b", 600) + "\n\n" + strings.Repeat("c", 600)
		got := CleanDetailText(input)
		assert.LessOrEqual(t, len([]rune(got)), 1400)
		// Each paragraph individually capped at 500.
		for _, p := range strings.Split(got, "\n\n") {
			assert.LessOrEqual(t, len([]rune(p)), 500)
		}
	})
}

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "splits on period question and exclamation",
			input:    "First one. Second one? Third one! Tail",
			expected: []string{"First one.", "Second one?", "Third one!", "Tail"},
		},
		{
			name:     "punctuation without trailing space does not split",
			input:    "Version 2.5 is out. Done",
			expected: []string{"Version 2.5 is out.", "Done"},
		},
		{
			name:     "single sentence",
			input:    "Just one sentence.",
			expected: []string{"Just one sentence."},
		},
		{
			name:     "empty string",
			input:    "",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SplitSentences(tt.input))
		})
	}
}

func TestLimitSentences(t *testing.T) {
	assert.Equal(t, "One. Two.", LimitSentences("One. Two. Three. Four.", 2))
	assert.Equal(t, "One.", LimitSentences("One.", 3))
}

func TestDeriveIdentityShort(t *testing.T) {
	t.Run("keeps first sentence", func(t *testing.T) {
		got := DeriveIdentityShort("Linked to Jane Doe — Professor, State University. More context follows here.")
		assert.Equal(t, "Linked to Jane Doe — Professor, State University.", got)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Equal(t, "", DeriveIdentityShort("   "))
	})

	t.Run("long first sentence is capped", func(t *testing.T) {
		got := DeriveIdentityShort(strings.Repeat("x", 300))
		assert.LessOrEqual(t, len([]rune(got)), 200)
		assert.True(t, strings.HasSuffix(got, "…"))
	})
}

func TestTruncateEllipsis(t *testing.T) {
	t.Run("short strings pass through", func(t *testing.T) {
		assert.Equal(t, "short", TruncateEllipsis("short", 10))
	})

	t.Run("trailing punctuation trimmed before ellipsis", func(t *testing.T) {
		got := TruncateEllipsis("abcdefgh,  tail", 10)
		assert.Equal(t, "abcdefgh…", got)
	})

	t.Run("never exceeds max runes", func(t *testing.T) {
		got := TruncateEllipsis(strings.Repeat("é", 50), 20)
		assert.LessOrEqual(t, len([]rune(got)), 20)
	})
}

func TestDedupeStrings(t *testing.T) {
	got := DedupeStrings([]string{"a", " a ", "", "b", "a", "c", "b"})
	assert.Equal(t, []string{"a", "b", "c"}, got)
}
