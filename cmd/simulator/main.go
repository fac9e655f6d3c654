package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
)

// Location represents a geographical location with latitude and longitude coordinates.
type Location struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// Trip is one synthetic journey between two cities.
type Trip struct {
	From       Location
	To         Location
	DistanceKm float64
	Mode       string
}

// activityRequest mirrors the body of POST /activities.
type activityRequest struct {
	Title    string  `json:"title"`
	Distance float64 `json:"distance"`
	Mode     string  `json:"mode"`
}

// Cities for realistic trips
var cities = []Location{
	{Name: "London", Lat: 51.5074, Lon: -0.1278},
	{Name: "Cardiff", Lat: 51.4816, Lon: -3.1791},
	{Name: "Manchester", Lat: 53.4808, Lon: -2.2426},
	{Name: "Paris", Lat: 48.8566, Lon: 2.3522},
	{Name: "Brussels", Lat: 50.8503, Lon: 4.3517},
	{Name: "Amsterdam", Lat: 52.3676, Lon: 4.9041},
	{Name: "Berlin", Lat: 52.5200, Lon: 13.4050},
	{Name: "Madrid", Lat: 40.4168, Lon: -3.7038},
	{Name: "Istanbul", Lat: 41.0082, Lon: 28.9784},
	{Name: "Nicosia", Lat: 35.1856, Lon: 33.3823},
	{Name: "New York", Lat: 40.7128, Lon: -74.0060},
	{Name: "Toronto", Lat: 43.6532, Lon: -79.3832},
	{Name: "Los Angeles", Lat: 34.0522, Lon: -118.2437},
	{Name: "San Francisco", Lat: 37.7749, Lon: -122.4194},
	{Name: "Tokyo", Lat: 35.6762, Lon: 139.6503},
	{Name: "Sydney", Lat: -33.8688, Lon: 151.2093},
	{Name: "Melbourne", Lat: -37.8136, Lon: 144.9631},
}

// Distance thresholds for picking a mode.
const (
	railFromKm = 300.0
	airFromKm  = 800.0
)

func haversineKm(a, b Location) float64 {
	R := 6371.0
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	s := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(s), math.Sqrt(1-s))
	return R * c
}

// chooseMode picks the transport mode a traveller would use for the distance.
func chooseMode(km float64) string {
	switch {
	case km < railFromKm:
		return "car"
	case km < airFromKm:
		return "rail"
	default:
		return "air"
	}
}

func randomTrip(rng *rand.Rand) Trip {
	from := cities[rng.Intn(len(cities))]
	to := from
	for to.Name == from.Name {
		to = cities[rng.Intn(len(cities))]
	}
	km := math.Round(haversineKm(from, to)*10) / 10
	return Trip{From: from, To: to, DistanceKm: km, Mode: chooseMode(km)}
}

var authToken string

func authorizedPost(url string, contentType string, body *bytes.Buffer) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}
	client := &http.Client{Timeout: 30 * time.Second}
	return client.Do(req)
}

// requestToken exchanges a device id and passcode for a bearer token.
func requestToken(apiURL, deviceID, passcode string) (string, error) {
	data, err := json.Marshal(map[string]string{"device_id": deviceID, "passcode": passcode})
	if err != nil {
		return "", fmt.Errorf("failed to marshal token request: %w", err)
	}
	resp, err := authorizedPost(apiURL+"/auth/token", "application/json", bytes.NewBuffer(data))
	if err != nil {
		return "", fmt.Errorf("failed to request token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token request failed with status: %d", resp.StatusCode)
	}
	var result struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	return result.Token, nil
}

// postTrip submits a trip and returns the id of the created entry.
func postTrip(apiURL string, trip Trip) (string, error) {
	data, err := json.Marshal(activityRequest{
		Title:    fmt.Sprintf("%s to %s", trip.From.Name, trip.To.Name),
		Distance: trip.DistanceKm,
		Mode:     trip.Mode,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal trip: %w", err)
	}

	resp, err := authorizedPost(apiURL+"/activities", "application/json", bytes.NewBuffer(data))
	if err != nil {
		return "", fmt.Errorf("failed to post trip: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		var apiErr struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&apiErr)
		return "", fmt.Errorf("trip rejected with status %d: %s", resp.StatusCode, apiErr.Error)
	}

	var result struct {
		ID         string  `json:"id"`
		EmissionKg float64 `json:"emission_kg"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	log.WithFields(log.Fields{
		"entry_id":    result.ID,
		"from":        trip.From.Name,
		"to":          trip.To.Name,
		"mode":        trip.Mode,
		"distance_km": trip.DistanceKm,
		"emission_kg": result.EmissionKg,
	}).Info("Logged trip")
	return result.ID, nil
}

func envInt(key string, fallback, min int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= min {
			return n
		}
	}
	return fallback
}

func main() {
	// Optional JWT for protected API
	authToken = os.Getenv("SIM_AUTH_TOKEN")

	apiURL := os.Getenv("API_BASE_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080/api"
	}

	trips := envInt("SIM_TRIPS", 10, 1)
	interval := time.Duration(envInt("SIM_INTERVAL_SECONDS", 2, 0)) * time.Second

	if authToken == "" && os.Getenv("SIM_PASSCODE") != "" {
		deviceID := os.Getenv("SIM_DEVICE_ID")
		if deviceID == "" {
			deviceID = "trip-simulator"
		}
		token, err := requestToken(apiURL, deviceID, os.Getenv("SIM_PASSCODE"))
		if err != nil {
			log.WithError(err).Fatal("Failed to obtain token")
		}
		authToken = token
	}

	log.WithFields(log.Fields{
		"trips":    trips,
		"api_url":  apiURL,
		"interval": interval,
	}).Info("Starting trip simulation")

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	logged := 0
	for i := 0; i < trips; i++ {
		if i > 0 {
			time.Sleep(interval)
		}
		if _, err := postTrip(apiURL, randomTrip(rng)); err != nil {
			log.WithError(err).Error("Failed to log trip")
			continue
		}
		logged++
	}

	log.WithFields(log.Fields{"logged": logged, "failed": trips - logged}).Info("Trip simulation completed")
}
