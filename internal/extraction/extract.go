package extraction

import (
	"errors"
	"fmt"

	"github.com/joseph-ayodele/vehicle-intake/constants"
)

// ErrUnknownField is returned by Extract for a field it has no extractor for.
var ErrUnknownField = errors.New("unknown extraction field")

// Func is the shape shared by ExtractVIN, ExtractMileage and ExtractPlate.
type Func func(raw string) Result

var extractors = map[constants.Field]Func{
	constants.FieldVIN:     ExtractVIN,
	constants.FieldMileage: ExtractMileage,
	constants.FieldPlate:   ExtractPlate,
}

// For returns the extractor registered for field.
func For(field constants.Field) (Func, bool) {
	fn, ok := extractors[field]
	return fn, ok
}

// Extract dispatches raw text to the extractor for field. An unreadable
// input is a Result, not an error; only an unknown field errors.
func Extract(field constants.Field, raw string) (Result, error) {
	fn, ok := For(field)
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return fn(raw), nil
}
