package locations

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"places/apperr"
	"places/metrics"

	"github.com/rs/zerolog/log"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/tidwall/gjson"
)

const (
	maxResponseSize  = 1 << 20
	breakerThreshold = 5
	breakerCoolDown  = 30 * time.Second
	errLookup        = "Could not look up the address, please try again later"
)

var ErrNoLocation = apperr.Validation("Could not find location for the specified address")

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Geocoder turns a postal address into coordinates
type Geocoder interface {
	Resolve(ctx context.Context, address string) (Coordinates, error)
}

// GoogleGeocoder calls the Google Geocoding API once per lookup. Consecutive transport
// failures open a circuit breaker so an unreachable API fails fast.
type GoogleGeocoder struct {
	client  *http.Client
	baseURL string
	apiKey  string
	breaker *gobreaker.CircuitBreaker[[]byte]
}

func NewGoogleGeocoder(baseURL, apiKey string, timeout time.Duration) *GoogleGeocoder {
	return &GoogleGeocoder{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		apiKey:  apiKey,
		breaker: gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
			Name:    "geocoder",
			Timeout: breakerCoolDown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= breakerThreshold
			},
			// A caller that gave up says nothing about the API's health
			IsSuccessful: func(err error) bool {
				var gone *callerGoneError
				return err == nil || errors.As(err, &gone)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
			},
		}),
	}
}

// callerGoneError marks failures caused by the caller's context ending
type callerGoneError struct {
	err error
}

func (e *callerGoneError) Error() string {
	return e.err.Error()
}

func (e *callerGoneError) Unwrap() error {
	return e.err
}

func (g *GoogleGeocoder) Resolve(ctx context.Context, address string) (Coordinates, error) {
	body, err := g.breaker.Execute(func() ([]byte, error) {
		body, err := g.fetch(ctx, address)
		if err != nil && ctx.Err() != nil {
			return nil, &callerGoneError{err: err}
		}
		return body, err
	})
	if err != nil {
		metrics.GeocodeLookups.WithLabelValues("error").Inc()
		log.Error().Err(err).Msg("geocoding request failed")
		return Coordinates{}, apperr.Persistence(errLookup, err)
	}
	coords, err := parseGeocodeResponse(body)
	if err != nil {
		metrics.GeocodeLookups.WithLabelValues("no_results").Inc()
		return Coordinates{}, err
	}
	metrics.GeocodeLookups.WithLabelValues("ok").Inc()
	return coords, nil
}

func (g *GoogleGeocoder) fetch(ctx context.Context, address string) ([]byte, error) {
	u := g.baseURL + "?address=" + url.QueryEscape(address) + "&key=" + url.QueryEscape(g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("accept-language", "en")
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("geocoding service returned %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
}

func parseGeocodeResponse(body []byte) (Coordinates, error) {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return Coordinates{}, ErrNoLocation
	}
	status := gjson.GetBytes(body, "status").String()
	if status == "ZERO_RESULTS" {
		return Coordinates{}, ErrNoLocation
	}
	location := gjson.GetBytes(body, "results.0.geometry.location")
	lat, lng := location.Get("lat"), location.Get("lng")
	if !lat.Exists() || !lng.Exists() {
		log.Warn().Str("status", status).Str("error_message", gjson.GetBytes(body, "error_message").String()).Msg("geocoding response without location")
		return Coordinates{}, ErrNoLocation
	}
	return Coordinates{Lat: lat.Float(), Lng: lng.Float()}, nil
}
