package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseField(t *testing.T) {
	tests := map[string]Field{
		"vin":           FieldVIN,
		" Mileage ":     FieldMileage,
		"odometer":      FieldMileage,
		"ODO":           FieldMileage,
		"license_plate": FieldPlate,
		"PLATE":         FieldPlate,
	}
	for in, want := range tests {
		got, ok := ParseField(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	for _, in := range []string{"", "color", "VINS"} {
		_, ok := ParseField(in)
		assert.False(t, ok, in)
	}
}

func TestAcceptedFieldNames(t *testing.T) {
	names := AcceptedFieldNames()
	assert.Equal(t, []string{"VIN", "vin", "MILEAGE", "mileage", "PLATE", "plate"}, names[:6])
	for _, n := range names {
		_, ok := ParseField(n)
		assert.True(t, ok, n)
	}
}

func TestMapExtToFormat(t *testing.T) {
	assert.Equal(t, IMAGE, MapExtToFormat(".HEIC"))
	assert.Equal(t, IMAGE, MapExtToFormat("jpg"))
	assert.Equal(t, TEXT, MapExtToFormat(".txt"))
	assert.Equal(t, "", MapExtToFormat(".pdf"))
	assert.True(t, IsHEICExt(".heif"))
	assert.False(t, IsHEICExt("png"))
}
