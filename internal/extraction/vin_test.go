package extraction

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/vehicle-intake/constants"
)

func TestVINCheckDigit(t *testing.T) {
	tests := []struct {
		vin   string
		check byte
	}{
		{"1M8GDM9AXKP042788", 'X'},
		{"11111111111111111", '1'},
		{"1HGCM82633A004352", '3'},
		{"JH4KA7561PC008269", '1'},
		{"2HGFG12678H542170", '7'},
		{"LVSHCAMB1CE054249", '1'},
		{"5YJSA1E26HF000337", '7'},
		{"SALGS2FE4HA123456", '1'},
	}
	for _, tt := range tests {
		t.Run(tt.vin, func(t *testing.T) {
			got, ok := VINCheckDigit(tt.vin)
			require.True(t, ok)
			assert.Equal(t, string(tt.check), string(got))
		})
	}
}

func TestVINCheckDigitRejectsMalformed(t *testing.T) {
	for _, vin := range []string{"", "1HGCM82633A00435", "1HGCM82633A0043521", "1HGCM82633A0O4352", "1hgcm82633a004352"} {
		_, ok := VINCheckDigit(vin)
		assert.False(t, ok, vin)
	}
}

func TestValidVIN(t *testing.T) {
	assert.True(t, ValidVIN("1M8GDM9AXKP042788"))
	assert.True(t, ValidVIN("1HGCM82633A004352"))
	assert.False(t, ValidVIN("5YJSA1E26HF000337"))
	assert.False(t, ValidVIN("1HGCM82633A00435"))
}

func TestIsVINAlphabet(t *testing.T) {
	assert.True(t, IsVINAlphabet("ABCDEFGHJKLMNPRSTUVWXYZ0123456789"))
	assert.False(t, IsVINAlphabet("ABCI"))
	assert.False(t, IsVINAlphabet("O"))
	assert.False(t, IsVINAlphabet("Q1"))
	assert.False(t, IsVINAlphabet(""))
}

func TestExtractVIN(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		want       string
		confidence int
		method     Method
	}{
		{
			name:       "labelled plate",
			text:       "VIN: 1HGCM82633A004352",
			want:       "1HGCM82633A004352",
			confidence: 98,
			method:     MethodVINCheckDigit,
		},
		{
			name:       "first valid check digit wins over earlier invalid",
			text:       "5YJSA1E26HF000337\n1M8GDM9AXKP042788",
			want:       "1M8GDM9AXKP042788",
			confidence: 98,
			method:     MethodVINCheckDigit,
		},
		{
			name:       "first of two valid VINs",
			text:       "JH4KA7561PC008269 1HGCM82633A004352",
			want:       "JH4KA7561PC008269",
			confidence: 98,
			method:     MethodVINCheckDigit,
		},
		{
			name:       "manufacturer prefix preferred when no check digit passes",
			text:       "SALGS2FE4HA123456\n5YJSA1E26HF000337",
			want:       "5YJSA1E26HF000337",
			confidence: 85,
			method:     MethodVINWMIPrefix,
		},
		{
			name:       "first candidate as last resort",
			text:       "MFG DATE 06/19\nSALGS2FE4HA123456",
			want:       "SALGS2FE4HA123456",
			confidence: 70,
			method:     MethodVINFirstCandidate,
		},
		{
			name:       "letter O misread as zero",
			text:       "1HGCM82633A0O4352",
			want:       "1HGCM82633A004352",
			confidence: 98,
			method:     MethodVINCheckDigitCorrected,
		},
		{
			name:       "letter I misread with bad check digit",
			text:       "5YJSAIE26HF000337",
			want:       "5YJSA1E26HF000337",
			confidence: 85,
			method:     MethodVINWMIPrefixCorrected,
		},
		{
			name:       "split across lines",
			text:       "1HGCM826\n33A004352",
			want:       "1HGCM82633A004352",
			confidence: 98,
			method:     MethodVINCheckDigitSplit,
		},
		{
			name:       "lowercase input",
			text:       "vin 1hgcm82633a004352",
			want:       "1HGCM82633A004352",
			confidence: 98,
			method:     MethodVINCheckDigit,
		},
		{
			name:       "full-width digit",
			text:       "１HGCM82633A004352",
			want:       "1HGCM82633A004352",
			confidence: 98,
			method:     MethodVINCheckDigit,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractVIN(tt.text)
			assert.Equal(t, constants.FieldVIN, got.Field)
			assert.Equal(t, tt.want, got.Value)
			assert.Equal(t, tt.confidence, got.Confidence)
			assert.Equal(t, tt.method, got.Method)
			assert.True(t, got.Success)
		})
	}
}

func TestExtractVINUnreadable(t *testing.T) {
	for _, text := range []string{
		"",
		"   \n\t ",
		"1HGCM82633A00435",
		"1HGCM82633A0043521",
		"NO VIN ON THIS STICKER",
		"1HGC M826 33A0 0435 2",
	} {
		got := ExtractVIN(text)
		assert.Equal(t, constants.Unreadable, got.Value, text)
		assert.Zero(t, got.Confidence, text)
		assert.Equal(t, MethodNone, got.Method, text)
		assert.False(t, got.Success, text)
	}
}

func TestExtractVINCheckDigitRoundTrip(t *testing.T) {
	const alphabet = "0123456789ABCDEFGHJKLMNPRSTUVWXYZ"
	rng := rand.New(rand.NewSource(3779))
	for i := 0; i < 500; i++ {
		b := make([]byte, VINLength)
		for j := range b {
			b[j] = alphabet[rng.Intn(len(alphabet))]
		}
		check, ok := VINCheckDigit(string(b))
		require.True(t, ok)
		b[8] = check
		vin := string(b)

		got := ExtractVIN("VIN " + vin + "\nMADE IN USA")
		require.Equal(t, vin, got.Value)
		require.Equal(t, ConfidenceCheckDigit, got.Confidence)
	}
}

func TestExtractVINNeverReturnsWrongLength(t *testing.T) {
	const alphabet = "0123456789ABCDEFGHJKLMNPRSTUVWXYZ"
	rng := rand.New(rand.NewSource(17))
	for i := 0; i < 500; i++ {
		n := 1 + rng.Intn(30)
		if n == VINLength {
			continue
		}
		got := ExtractVIN(randomFrom(rng, alphabet, n))
		if got.Success {
			t.Fatalf("length %d input produced %q", n, got.Value)
		}
	}
}

func randomFrom(rng *rand.Rand, alphabet string, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[rng.Intn(len(alphabet))]
	}
	return string(b)
}
