package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeDNValue(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"plain", "Engineering", "Engineering"},
		{"comma", "Doe, Jane", `Doe\, Jane`},
		{"plus", "a+b", `a\+b`},
		{"quote", `say "hi"`, `say \"hi\"`},
		{"backslash", `a\b`, `a\\b`},
		{"angle brackets", "<tag>", `\<tag\>`},
		{"semicolon", "a;b", `a\;b`},
		{"leading hash", "#1", `\#1`},
		{"inner hash", "a#1", "a#1"},
		{"leading space", " padded", `\ padded`},
		{"trailing space", "padded ", `padded\ `},
		{"inner space", "two words", "two words"},
		{"nul byte", "a\x00b", `a\00b`},
		{"ampersand untouched", "R&D", "R&D"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, EscapeDNValue(tt.input))
		})
	}
}

func TestUnescapeDNValue(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"plain", "Engineering", "Engineering"},
		{"escaped comma", `Doe\, Jane`, "Doe, Jane"},
		{"escaped backslash", `a\\b`, `a\b`},
		{"hex pair", `a\2cb`, "a,b"},
		{"uppercase hex pair", `a\2Cb`, "a,b"},
		{"dangling backslash", `ab\`, `ab\`},
		{"escaped space", `\ padded\ `, " padded "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, UnescapeDNValue(tt.input))
		})
	}
}

func TestEscapeUnescapeRoundTrip(t *testing.T) {
	values := []string{
		"plain",
		"Doe, Jane",
		`back\slash`,
		" leading and trailing ",
		"#hash",
		"<a>+<b>;",
	}

	for _, v := range values {
		assert.Equal(t, v, UnescapeDNValue(EscapeDNValue(v)), v)
	}
}
