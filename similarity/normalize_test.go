package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeLocation(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"whitespace only", "   \t ", ""},
		{"lowercases and trims", "  Dandeli  ", "dandeli"},
		{"collapses whitespace runs", "bailpar    dandeli", "bailpar dandeli"},
		{"strips district qualifier", "Bailpar District Dandeli", "bailpar dandeli"},
		{"strips direction words", "Uttar Kannada Dandeli", "kannada dandeli"},
		{"strips punctuation", "MG Road, Sector-4 (near park)", "mg road sector4 near park"},
		{"qualifier-only input survives", "North", "north"},
		{"mixed qualifiers and names", "south bailpar dist dandeli", "bailpar dandeli"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeLocation(tt.in))
		})
	}
}

func TestNormalizeLocationIdempotent(t *testing.T) {
	inputs := []string{
		"Bailpar District Dandeli",
		"MG Road, Sector-4",
		"  Uttar   Kannada ",
		"North",
		"",
	}

	for _, in := range inputs {
		once := NormalizeLocation(in)
		assert.Equal(t, once, NormalizeLocation(once), "input %q", in)
	}
}

func TestNormalizeLocationEquatesSpellingVariants(t *testing.T) {
	a := NormalizeLocation("Bailpar District Dandeli")
	b := NormalizeLocation("bailpar dandeli")
	assert.Equal(t, a, b)
}
