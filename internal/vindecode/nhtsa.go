package vindecode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/joseph-ayodele/vehicle-intake/internal/common"
)

const DefaultBaseURL = "https://vpic.nhtsa.dot.gov/api"

// NHTSA variable names read from a decodevin response.
const (
	varMake         = "Make"
	varModel        = "Model"
	varModelYear    = "Model Year"
	varTrim         = "Trim"
	varCylinders    = "Engine Number of Cylinders"
	varTransmission = "Transmission Style"
	varBodyClass    = "Body Class"
	varFuelType     = "Fuel Type - Primary"
	varManufacturer = "Manufacturer Name"
	varPlantCountry = "Plant Country"
	varVehicleType  = "Vehicle Type"
	varDriveType    = "Drive Type"
)

// NHTSAClient calls the public vPIC decodevin endpoint.
type NHTSAClient struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
	now     func() time.Time
	limiter *rate.Limiter // nil means unlimited
}

// ClientOption customizes an NHTSAClient.
type ClientOption func(*NHTSAClient)

// WithRateLimit caps outgoing requests at rps per second with the given burst.
// rps <= 0 leaves the client unlimited; burst <= 0 defaults to rps.
func WithRateLimit(rps, burst int) ClientOption {
	return func(c *NHTSAClient) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst <= 0 {
			burst = rps
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// NewNHTSAClient builds a client. A nil httpClient gets one with timeout.
func NewNHTSAClient(baseURL string, timeout time.Duration, httpClient *http.Client, logger *slog.Logger, opts ...ClientOption) *NHTSAClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	c := &NHTSAClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		logger:  logger,
		now:     time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type decodeResponse struct {
	Count   int             `json:"Count"`
	Message string          `json:"Message"`
	Results []decodeVariable `json:"Results"`
}

type decodeVariable struct {
	Variable string  `json:"Variable"`
	Value    *string `json:"Value"`
}

// Decode fetches the vehicle for an already cleaned VIN.
func (c *NHTSAClient) Decode(ctx context.Context, vin string) (Vehicle, error) {
	ctx, reqID := common.EnsureRequestID(ctx)
	logger := c.logger.With("request_id", reqID, "vin", vin)
	start := time.Now()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			logger.Warn("nhtsa rate limit wait failed", "error", err)
			return Vehicle{}, common.NewAppError("NHTSA_RATE_LIMITED", "decodevin rate limit wait aborted", fmt.Errorf("%w: %w", common.ErrUpstream, err))
		}
	}

	endpoint := fmt.Sprintf("%s/vehicles/decodevin/%s?format=json", c.baseURL, url.PathEscape(vin))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Vehicle{}, fmt.Errorf("build nhtsa request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)

	resp, err := c.http.Do(req)
	if err != nil {
		logger.Warn("nhtsa request failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		return Vehicle{}, common.NewAppError("NHTSA_UNAVAILABLE", "decodevin request failed", fmt.Errorf("%w: %v", common.ErrUpstream, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		logger.Warn("nhtsa non-2xx", "status", resp.StatusCode, "body", string(snippet))
		return Vehicle{}, common.NewAppError("NHTSA_STATUS", fmt.Sprintf("decodevin returned %d", resp.StatusCode), common.ErrUpstream)
	}

	var body decodeResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&body); err != nil {
		return Vehicle{}, common.NewAppError("NHTSA_DECODE", "invalid decodevin body", fmt.Errorf("%w: %v", common.ErrUpstream, err))
	}
	if len(body.Results) == 0 {
		return Vehicle{}, common.NewAppError("NHTSA_DECODE", "decodevin response has no Results", common.ErrUpstream)
	}

	v := vehicleFromResults(vin, body.Results)
	v.DecodedAt = c.now().UTC()
	logger.Debug("nhtsa decode ok", "make", v.Make, "model", v.Model, "year", v.Year, "duration_ms", time.Since(start).Milliseconds())
	return v, nil
}

func vehicleFromResults(vin string, results []decodeVariable) Vehicle {
	vals := make(map[string]string, len(results))
	for _, r := range results {
		if r.Value == nil {
			continue
		}
		if _, seen := vals[r.Variable]; !seen {
			vals[r.Variable] = strings.TrimSpace(*r.Value)
		}
	}
	return Vehicle{
		VIN:             vin,
		Make:            vals[varMake],
		Model:           vals[varModel],
		Year:            vals[varModelYear],
		Trim:            vals[varTrim],
		EngineCylinders: vals[varCylinders],
		Transmission:    vals[varTransmission],
		BodyClass:       vals[varBodyClass],
		FuelType:        vals[varFuelType],
		Manufacturer:    vals[varManufacturer],
		PlantCountry:    vals[varPlantCountry],
		VehicleType:     vals[varVehicleType],
		DriveType:       vals[varDriveType],
	}
}
