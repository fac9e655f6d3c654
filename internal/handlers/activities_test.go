package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/carbon-tracker/internal/auth"
	"github.com/ukydev/carbon-tracker/internal/emissions"
	"github.com/ukydev/carbon-tracker/internal/models"
	"github.com/ukydev/carbon-tracker/internal/tracker"
)

// MockEstimator is a mock implementation of tracker.Estimator
type MockEstimator struct {
	mock.Mock
}

func (m *MockEstimator) Estimate(ctx context.Context, distanceKm float64, mode models.TransportMode) (models.EmissionEstimate, error) {
	args := m.Called(ctx, distanceKm, mode)
	return args.Get(0).(models.EmissionEstimate), args.Error(1)
}

// blockingEstimator holds the estimate until its context is cancelled.
type blockingEstimator struct {
	started chan struct{}
}

func (b *blockingEstimator) Estimate(ctx context.Context, distanceKm float64, mode models.TransportMode) (models.EmissionEstimate, error) {
	close(b.started)
	<-ctx.Done()
	return models.EmissionEstimate{}, ctx.Err()
}

func newTestRouter(t *testing.T, est tracker.Estimator, authRequired bool) (http.Handler, *auth.Service) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	hash, err := auth.HashPasscode("open-sesame")
	require.NoError(t, err)
	authService, err := auth.NewService("test-secret", time.Hour, hash)
	require.NoError(t, err)

	router := NewRouter(RouterConfig{
		Tracker:      tracker.New(tracker.Options{Estimator: est, Logger: logger}),
		AuthService:  authService,
		AuthRequired: authRequired,
		Logger:       logger,
	})
	return router, authService
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func createEntry(t *testing.T, h http.Handler, body string) models.ActivityEntry {
	t.Helper()
	w := do(t, h, "POST", "/api/activities", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var entry models.ActivityEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entry))
	return entry
}

func TestActivityHandler_Create(t *testing.T) {
	est := new(MockEstimator)
	est.On("Estimate", mock.Anything, 12.5, models.ModeRail).Return(models.EmissionEstimate{CO2e: 0.44, Unit: "kg"}, nil)
	est.On("Estimate", mock.Anything, 100.0, models.ModeAir).Return(models.EmissionEstimate{CO2e: 25.5, Unit: "kg"}, nil)
	router, _ := newTestRouter(t, est, false)

	tests := []struct {
		name  string
		body  string
		title string
		km    float64
	}{
		{"distance as string", `{"title":"Commute","distance":"12.5","mode":"rail"}`, "Commute", 12.5},
		{"distance as number", `{"distance":100,"mode":"AIR"}`, models.UntitledTrip, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := createEntry(t, router, tt.body)
			assert.Equal(t, tt.title, entry.Title)
			assert.Equal(t, tt.km, entry.DistanceKm)
			assert.Equal(t, models.DefaultColor, entry.Color)
			assert.NotEmpty(t, entry.ID)
		})
	}

	w := do(t, router, "GET", "/api/activities", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list activityListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list.Entries, 2)
	assert.InDelta(t, 25.94, list.TotalKg, 1e-9)
	assert.Equal(t, "25.94 kg CO₂e", list.TotalDisplay)
	assert.Equal(t, "Rail", list.Entries[0].ModeName)
	est.AssertExpectations(t)
}

func TestActivityHandler_CreateValidation(t *testing.T) {
	est := new(MockEstimator)
	router, _ := newTestRouter(t, est, false)

	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"invalid json", `{"distance":`, "Invalid JSON"},
		{"text distance", `{"distance":"abc","mode":"car"}`, "Please enter a valid number for distance."},
		{"negative distance", `{"distance":-4,"mode":"car"}`, "Please enter a valid number for distance."},
		{"missing distance", `{"mode":"car"}`, "Please enter a valid number for distance."},
		{"unknown mode", `{"distance":"4","mode":"bike"}`, "Please choose car, air or rail."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, router, "POST", "/api/activities", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			var resp errorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.message, resp.Error)
		})
	}
	est.AssertNotCalled(t, "Estimate", mock.Anything, mock.Anything, mock.Anything)
}

func TestActivityHandler_CreateEstimatorFailure(t *testing.T) {
	est := new(MockEstimator)
	est.On("Estimate", mock.Anything, 5.0, models.ModeCar).
		Return(models.EmissionEstimate{}, &emissions.InvalidResponseError{StatusCode: 401, Body: "unauthorized"})
	router, _ := newTestRouter(t, est, false)

	w := do(t, router, "POST", "/api/activities", `{"distance":"5","mode":"car"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid response from server. Check console logs for details.")

	w = do(t, router, "GET", "/api/submission", "")
	var status tracker.SubmissionStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, tracker.StateFailed, status.State)
	assert.Equal(t, "Invalid response from server. Check console logs for details.", status.Message)

	w = do(t, router, "GET", "/api/activities/summary", "")
	var summary tracker.Summary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, 0, summary.Count)
	assert.Equal(t, 0.0, summary.TotalKg)
}

func TestActivityHandler_CancelSubmission(t *testing.T) {
	est := &blockingEstimator{started: make(chan struct{})}
	router, _ := newTestRouter(t, est, false)

	w := do(t, router, "DELETE", "/api/submission", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		done <- do(t, router, "POST", "/api/activities", `{"distance":"5","mode":"car"}`)
	}()
	<-est.started

	w = do(t, router, "POST", "/api/activities", `{"distance":"6","mode":"car"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, router, "DELETE", "/api/submission", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	cancelled := <-done
	assert.Equal(t, http.StatusConflict, cancelled.Code)
	assert.Contains(t, cancelled.Body.String(), "Cancelled.")

	w = do(t, router, "GET", "/api/activities/summary", "")
	assert.Contains(t, w.Body.String(), `"count":0`)
}

func TestActivityHandler_UpdateAndDelete(t *testing.T) {
	est := new(MockEstimator)
	est.On("Estimate", mock.Anything, 3.0, models.ModeCar).Return(models.EmissionEstimate{CO2e: 1.5, Unit: "kg"}, nil)
	router, _ := newTestRouter(t, est, false)
	entry := createEntry(t, router, `{"title":"Shop","distance":3,"mode":"car"}`)

	w := do(t, router, "PATCH", "/api/activities/"+entry.ID, `{"title":"Groceries","color":"teal"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var updated models.ActivityEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, "Groceries", updated.Title)
	assert.Equal(t, models.ColorTeal, updated.Color)
	assert.Equal(t, entry.EmissionKg, updated.EmissionKg)

	w = do(t, router, "PATCH", "/api/activities/"+entry.ID, `{"color":"magenta"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, router, "PATCH", "/api/activities/missing", `{"title":"x"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, router, "DELETE", "/api/activities/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, router, "DELETE", "/api/activities/"+entry.ID, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, router, "GET", "/api/activities", "")
	assert.Contains(t, w.Body.String(), `"entries":[]`)
}

func TestActivityHandler_Enumerations(t *testing.T) {
	router, _ := newTestRouter(t, new(MockEstimator), false)

	w := do(t, router, "GET", "/api/modes", "")
	require.Equal(t, http.StatusOK, w.Code)
	var modes []modeInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &modes))
	require.Len(t, modes, 3)
	assert.Equal(t, modeInfo{Mode: models.ModeAir, Name: "Air", ActivityID: models.AirActivityID}, modes[1])

	w = do(t, router, "GET", "/api/colors", "")
	require.Equal(t, http.StatusOK, w.Code)
	var colors colorList
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &colors))
	assert.Len(t, colors.Colors, 10)
	assert.Equal(t, models.ColorGreen, colors.Default)
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t, new(MockEstimator), true)
	w := do(t, router, "GET", "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestRouter_RequiresToken(t *testing.T) {
	est := new(MockEstimator)
	est.On("Estimate", mock.Anything, 2.0, models.ModeCar).Return(models.EmissionEstimate{CO2e: 0.4, Unit: "kg"}, nil)
	router, authService := newTestRouter(t, est, true)

	w := do(t, router, "GET", "/api/activities", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, _, err := authService.GenerateToken("pixel-7")
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/api/activities", strings.NewReader(`{"distance":"2","mode":"car"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)

	// the submission belongs to the device, not the anonymous caller
	req = httptest.NewRequest("GET", "/api/submission", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Contains(t, rec.Body.String(), `"state":"idle"`)
}

func TestDistance_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		raw  string
		want Distance
	}{
		{`"12.5"`, "12.5"},
		{`12.5`, "12.5"},
		{`null`, ""},
		{`" 7 "`, " 7 "},
	}
	for _, tt := range tests {
		var d Distance
		require.NoError(t, json.Unmarshal([]byte(tt.raw), &d))
		assert.Equal(t, tt.want, d)
	}
}

func TestActivityHandler_BodyTooLarge(t *testing.T) {
	est := new(MockEstimator)
	router, _ := newTestRouter(t, est, false)
	huge := `{"title":"` + strings.Repeat("a", maxBodyBytes) + `","distance":"5","mode":"car"}`

	w := do(t, router, "POST", "/api/activities", huge)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = do(t, router, "PATCH", "/api/activities/any", huge)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = do(t, router, "POST", "/api/auth/token", huge)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	est.AssertNotCalled(t, "Estimate", mock.Anything, mock.Anything, mock.Anything)
}
