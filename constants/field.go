package constants

import (
	"sort"
	"strings"
)

// Field identifies which value an extraction targets.
type Field string

const (
	FieldVIN     Field = "VIN"
	FieldMileage Field = "MILEAGE"
	FieldPlate   Field = "PLATE"
)

// Unreadable is the sentinel value for a failed extraction.
const Unreadable = "UNREADABLE"

var allFields = []Field{FieldVIN, FieldMileage, FieldPlate}

// Fields returns every supported field in a stable order.
func Fields() []Field {
	out := make([]Field, len(allFields))
	copy(out, allFields)
	return out
}

// FieldsAsStringSlice is used for schema enums and CLI help.
func FieldsAsStringSlice() []string {
	result := make([]string, len(allFields))
	for i, f := range allFields {
		result[i] = string(f)
	}
	return result
}

var fieldSynonyms = map[string]Field{
	"ODOMETER":      FieldMileage,
	"ODO":           FieldMileage,
	"MILES":         FieldMileage,
	"LICENSE_PLATE": FieldPlate,
	"LICENSEPLATE":  FieldPlate,
	"LICENSE-PLATE": FieldPlate,
	"LICENSE":       FieldPlate,
}

// AcceptedFieldNames lists every spelling ParseField accepts, upper and
// lower case, canonical names first.
func AcceptedFieldNames() []string {
	names := FieldsAsStringSlice()
	for syn := range fieldSynonyms {
		names = append(names, syn)
	}
	sort.Strings(names[len(allFields):])
	out := make([]string, 0, 2*len(names))
	for _, n := range names {
		out = append(out, n, strings.ToLower(n))
	}
	return out
}

// ParseField accepts the canonical names plus a few synonyms callers tend to send.
func ParseField(input string) (Field, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(input))
	if normalized == "" {
		return "", false
	}
	if f, ok := fieldSynonyms[normalized]; ok {
		return f, true
	}

	for _, f := range allFields {
		if normalized == string(f) {
			return f, true
		}
	}
	return "", false
}
