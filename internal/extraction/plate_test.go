package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joseph-ayodele/vehicle-intake/constants"
)

func TestExtractPlate(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		want       string
		confidence int
		method     Method
	}{
		{"state and sticker lines dropped", "CALIFORNIA\n7ABC123\nEXPIRES 2025", "7ABC123", 90, MethodPlateGrouped},
		{"hyphenated", "ABC-1234", "ABC1234", 90, MethodPlateGrouped},
		{"multi-word state and slogan", "NEW YORK\nEMPIRE STATE\nHJK 4821", "HJK4821", 90, MethodPlateGrouped},
		{"abbreviation, month and year", "TX\nJAN 2026\n2026\nBXT4821", "BXT4821", 90, MethodPlateGrouped},
		{"short letters then digits", "A123", "A123", 90, MethodPlateLettersDigits},
		{"eight chars letters digits letters", "AB1234CD", "AB1234CD", 90, MethodPlateLettersDigits},
		{"eight chars digits letters digits", "123ABC45", "123ABC45", 90, MethodPlateDigitsLetters},
		{"generic eight chars", "A1B2C3D4", "A1B2C3D4", 90, MethodPlateGeneric},
		{"all digits", "4821937", "4821937", 90, MethodPlateGrouped},
		{"plate on a denylisted line", "CALIFORNIA 7ABC123", "7ABC123", 70, MethodPlateFallbackScan},
		{"dotted separator", "DMV.CA.GOV\n8XYZ 552", "8XYZ552", 90, MethodPlateGrouped},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractPlate(tt.text)
			assert.Equal(t, constants.FieldPlate, got.Field)
			assert.Equal(t, tt.want, got.Value)
			assert.Equal(t, tt.confidence, got.Confidence)
			assert.Equal(t, tt.method, got.Method)
		})
	}
}

func TestExtractPlateUnreadable(t *testing.T) {
	for _, text := range []string{
		"",
		"\n\n",
		"CALIFORNIA",
		"2025",
		"AAAA",
		"A12",
		"ABCDEFGHJK",
		"EXPIRES JUN",
	} {
		got := ExtractPlate(text)
		assert.Equal(t, constants.Unreadable, got.Value, text)
		assert.Zero(t, got.Confidence, text)
	}
}

func TestIsDenylistedLine(t *testing.T) {
	for _, line := range []string{"CALIFORNIA", "NORTH CAROLINA", "FIRST IN FLIGHT NORTH CAROLINA", "CA", "EXPIRES JUN", "REG 06 25", "2024", "MAY", "  --  "} {
		assert.True(t, isDenylistedLine(line), line)
	}
	for _, line := range []string{"7ABC123", "CAB 1234", "NORTHSIDE 12"} {
		assert.False(t, isDenylistedLine(line), line)
	}
}

func TestPlausiblePlate(t *testing.T) {
	assert.True(t, plausiblePlate("A12"))
	assert.True(t, plausiblePlate("7ABC123"))
	assert.True(t, plausiblePlate("HONDA"))
	assert.True(t, plausiblePlate("48213"))
	assert.False(t, plausiblePlate("AB"))
	assert.False(t, plausiblePlate("ABC"))
	assert.False(t, plausiblePlate("1999"))
	assert.False(t, plausiblePlate("0000"))
	assert.False(t, plausiblePlate("7ABC12345"))
}
