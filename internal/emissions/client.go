package emissions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/carbon-tracker/internal/models"
)

const (
	DefaultEndpoint    = "https://api.climatiq.io/data/v1/estimate"
	DefaultDataVersion = "28.28"
	DistanceUnitKm     = "km"

	// FlightFallbackFactor is an average kg CO2e per passenger-km, used when
	// the provider rejects a distance-only flight query.
	FlightFallbackFactor = 0.255
)

// Config configures a Client. APIKey is sent as a bearer token.
type Config struct {
	APIKey      string
	Endpoint    string
	DataVersion string
	HTTPClient  *http.Client
	Logger      log.FieldLogger
}

// Client estimates trip emissions through the Climatiq estimate endpoint.
type Client struct {
	apiKey      string
	endpoint    string
	dataVersion string
	httpClient  *http.Client
	log         log.FieldLogger
}

// NewClient creates a new estimate client
func NewClient(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if err := validateEndpoint(cfg.Endpoint); err != nil {
		return nil, err
	}
	if cfg.DataVersion == "" {
		cfg.DataVersion = DefaultDataVersion
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.Logger == nil {
		cfg.Logger = log.StandardLogger()
	}

	return &Client{
		apiKey:      cfg.APIKey,
		endpoint:    cfg.Endpoint,
		dataVersion: cfg.DataVersion,
		httpClient:  cfg.HTTPClient,
		log:         cfg.Logger,
	}, nil
}

func validateEndpoint(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	return nil
}

// BuildRequest shapes the estimate body for a trip.
// Passengers is set to 1 for flights only.
func BuildRequest(distanceKm float64, mode models.TransportMode, dataVersion string) models.EmissionRequest {
	var passengers *int
	if mode == models.ModeAir {
		one := 1
		passengers = &one
	}

	return models.EmissionRequest{
		EmissionFactor: models.EmissionFactor{
			ActivityID:  mode.ActivityID(),
			DataVersion: dataVersion,
		},
		Parameters: models.EmissionParameters{
			Distance:     distanceKm,
			DistanceUnit: DistanceUnitKm,
			Passengers:   passengers,
		},
	}
}

// Estimate makes exactly one call to the estimate endpoint.
// Distance validation is up to the caller.
func (c *Client) Estimate(ctx context.Context, distanceKm float64, mode models.TransportMode) (models.EmissionEstimate, error) {
	logger := c.log.WithFields(log.Fields{
		"mode":        mode,
		"distance_km": distanceKm,
	})

	body, err := json.Marshal(BuildRequest(distanceKm, mode, c.dataVersion))
	if err != nil {
		return models.EmissionEstimate{}, fmt.Errorf("failed to encode estimate request: %w", err)
	}
	logger.WithFields(log.Fields{"url": c.endpoint, "body": string(body)}).Debug("API request")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return models.EmissionEstimate{}, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.WithError(err).Error("Estimate request failed")
		return models.EmissionEstimate{}, fmt.Errorf("estimate request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.EmissionEstimate{}, fmt.Errorf("failed to read estimate response: %w", err)
	}
	logger.WithFields(log.Fields{"status": resp.StatusCode, "body": string(data)}).Debug("API response")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if mode == models.ModeAir && resp.StatusCode == http.StatusBadRequest {
			co2e := distanceKm * FlightFallbackFactor
			logger.WithField("co2e", co2e).Info("Using fallback calculation for flight")
			return models.EmissionEstimate{CO2e: co2e, Unit: "kg"}, nil
		}

		respErr := &InvalidResponseError{StatusCode: resp.StatusCode, Body: string(data)}
		logger.WithFields(log.Fields{"status": resp.StatusCode, "body": respErr.Body}).Warn(respErr.Error())
		return models.EmissionEstimate{}, respErr
	}

	est, err := decodeEstimate(data)
	if err != nil {
		logger.WithError(err).Error("Failed to decode estimate")
		return models.EmissionEstimate{}, err
	}
	logger.WithFields(log.Fields{"co2e": est.CO2e, "unit": est.Unit}).Debug("Decoded estimate")
	return est, nil
}

func decodeEstimate(data []byte) (models.EmissionEstimate, error) {
	var resp models.EmissionResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return models.EmissionEstimate{}, &DecodingError{
			Message: fmt.Sprintf("%v. Response was: %s", err, data),
		}
	}
	if resp.CO2e == nil {
		return models.EmissionEstimate{}, &DecodingError{Message: "missing key co2e"}
	}
	if resp.CO2eUnit == nil {
		return models.EmissionEstimate{}, &DecodingError{Message: "missing key co2e_unit"}
	}
	return models.EmissionEstimate{CO2e: *resp.CO2e, Unit: *resp.CO2eUnit}, nil
}
