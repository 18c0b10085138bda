package ingest

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joseph-ayodele/vehicle-intake/constants"
)

var reHintSplit = regexp.MustCompile(`[^a-z0-9]+`)

// fieldHints maps filename or folder tokens to a field. Tokens are matched
// whole, so "vinyl.jpg" is not a VIN photo.
var fieldHints = map[string]constants.Field{
	"vin":          constants.FieldVIN,
	"vins":         constants.FieldVIN,
	"doorjamb":     constants.FieldVIN,
	"jamb":         constants.FieldVIN,
	"odometer":     constants.FieldMileage,
	"odo":          constants.FieldMileage,
	"mileage":      constants.FieldMileage,
	"miles":        constants.FieldMileage,
	"dash":         constants.FieldMileage,
	"dashboard":    constants.FieldMileage,
	"cluster":      constants.FieldMileage,
	"plate":        constants.FieldPlate,
	"plates":       constants.FieldPlate,
	"license":      constants.FieldPlate,
	"licenseplate": constants.FieldPlate,
	"tag":          constants.FieldPlate,
}

// FieldFromPath infers the field a photo shows from its file name first and
// then from its parent folders, nearest first.
func FieldFromPath(path string) (constants.Field, bool) {
	path = filepath.ToSlash(path)
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if f, ok := fieldFromName(base); ok {
		return f, true
	}
	parts := strings.Split(filepath.Dir(path), "/")
	for i := len(parts) - 1; i >= 0; i-- {
		if f, ok := fieldFromName(parts[i]); ok {
			return f, true
		}
	}
	return "", false
}

func fieldFromName(name string) (constants.Field, bool) {
	for _, tok := range reHintSplit.Split(strings.ToLower(name), -1) {
		if f, ok := fieldHints[tok]; ok {
			return f, true
		}
	}
	return "", false
}
