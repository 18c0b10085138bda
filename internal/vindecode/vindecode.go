// Package vindecode looks up vehicle attributes for a VIN and caches them.
package vindecode

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/joseph-ayodele/vehicle-intake/internal/common"
	"github.com/joseph-ayodele/vehicle-intake/internal/extraction"
)

// ErrInvalidVIN reports input that does not clean to 17 VIN characters.
var ErrInvalidVIN = fmt.Errorf("VIN must be exactly %d characters: %w", extraction.VINLength, common.ErrInvalidInput)

// Vehicle is the subset of the decode the intake surfaces.
type Vehicle struct {
	VIN             string    `json:"vin"`
	Make            string    `json:"make"`
	Model           string    `json:"model"`
	Year            string    `json:"year"`
	Trim            string    `json:"trim"`
	EngineCylinders string    `json:"engine"`
	Transmission    string    `json:"transmission"`
	BodyClass       string    `json:"bodyClass"`
	FuelType        string    `json:"fuelType"`
	Manufacturer    string    `json:"manufacturer"`
	PlantCountry    string    `json:"plantCountry"`
	VehicleType     string    `json:"vehicleType"`
	DriveType       string    `json:"driveType"`
	DecodedAt       time.Time `json:"decodedAt"`
}

// Decoder resolves a cleaned VIN to a Vehicle.
type Decoder interface {
	Decode(ctx context.Context, vin string) (Vehicle, error)
}

// CleanVIN drops every character outside the VIN alphabet (I, O and Q
// included), uppercases the rest and requires exactly 17 to remain.
func CleanVIN(s string) (string, error) {
	var b strings.Builder
	for _, r := range strings.ToUpper(s) {
		if r < 0x80 && extraction.IsVINAlphabet(string(r)) {
			b.WriteRune(r)
		}
	}
	vin := b.String()
	if len(vin) != extraction.VINLength {
		return "", ErrInvalidVIN
	}
	return vin, nil
}
