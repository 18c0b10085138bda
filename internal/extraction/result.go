// Package extraction turns raw OCR text into a VIN, odometer mileage or
// license plate value. Every function here is pure: no I/O, no logging and
// no state shared between calls, so extractors are safe for concurrent use.
package extraction

import (
	"unicode/utf8"

	"github.com/joseph-ayodele/vehicle-intake/constants"
)

// RawTextLimit caps the diagnostic copy of the input kept on a Result.
const RawTextLimit = 200

// Method names the strategy that produced a Result.
type Method string

const (
	MethodNone Method = "none"

	MethodVINCheckDigit          Method = "vin-check-digit"
	MethodVINCheckDigitCorrected Method = "vin-check-digit-corrected"
	MethodVINCheckDigitSplit     Method = "vin-check-digit-split"
	MethodVINWMIPrefix           Method = "vin-wmi-prefix"
	MethodVINWMIPrefixCorrected  Method = "vin-wmi-prefix-corrected"
	MethodVINFirstCandidate      Method = "vin-first-candidate"
	MethodVINFirstCorrected      Method = "vin-first-candidate-corrected"

	MethodMileageScored         Method = "mileage-scored"
	MethodMileageScoredFallback Method = "mileage-scored-fallback"

	MethodPlateGrouped       Method = "plate-grouped"
	MethodPlateLettersDigits Method = "plate-letters-digits"
	MethodPlateDigitsLetters Method = "plate-digits-letters"
	MethodPlateGeneric       Method = "plate-generic"
	MethodPlateFallbackScan  Method = "plate-fallback-scan"
)

// Confidence levels shared by the extractors.
const (
	ConfidenceCheckDigit = 98
	ConfidenceWMIPrefix  = 85
	ConfidenceFirstVIN   = 70
	ConfidencePlateShape = 90
	ConfidencePlateScan  = 70
	ConfidenceMileageMax = 95
)

// Result is the envelope every extractor returns.
// Value is constants.Unreadable exactly when Confidence is 0.
type Result struct {
	Field      constants.Field `json:"field"`
	Value      string          `json:"value"`
	Confidence int             `json:"confidence"`
	RawText    string          `json:"rawText"`
	Method     Method          `json:"method"`
	Success    bool            `json:"success"`
}

func unreadable(field constants.Field, raw string) Result {
	return Result{
		Field:      field,
		Value:      constants.Unreadable,
		Confidence: 0,
		RawText:    truncateRunes(raw, RawTextLimit),
		Method:     MethodNone,
		Success:    false,
	}
}

// found builds a successful Result. An empty value or a non-positive
// confidence degrades to unreadable so the envelope invariant cannot break.
func found(field constants.Field, raw, value string, confidence int, method Method) Result {
	if value == "" || value == constants.Unreadable || confidence <= 0 {
		return unreadable(field, raw)
	}
	if confidence > 100 {
		confidence = 100
	}
	return Result{
		Field:      field,
		Value:      value,
		Confidence: confidence,
		RawText:    truncateRunes(raw, RawTextLimit),
		Method:     method,
		Success:    true,
	}
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
