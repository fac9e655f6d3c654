package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/carbon-tracker/internal/display"
	"github.com/ukydev/carbon-tracker/internal/middleware"
	"github.com/ukydev/carbon-tracker/internal/models"
	"github.com/ukydev/carbon-tracker/internal/tracker"
)

// ActivityHandler exposes the tracker over HTTP
type ActivityHandler struct {
	tracker *tracker.Tracker
	log     log.FieldLogger
}

// NewActivityHandler creates a new activity handler
func NewActivityHandler(t *tracker.Tracker, logger log.FieldLogger) *ActivityHandler {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &ActivityHandler{tracker: t, log: logger}
}

// Distance accepts either a JSON string or a JSON number and keeps the raw text,
// so the tracker parses both the same way.
type Distance string

func (d *Distance) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*d = Distance(s)
		return nil
	}
	if string(data) == "null" {
		*d = ""
		return nil
	}
	*d = Distance(data)
	return nil
}

type createActivityRequest struct {
	Title    string               `json:"title"`
	Distance Distance             `json:"distance"`
	Mode     models.TransportMode `json:"mode"`
}

type activityListResponse struct {
	Entries      []tracker.Row `json:"entries"`
	TotalKg      float64       `json:"total_kg"`
	TotalDisplay string        `json:"total_display"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type modeInfo struct {
	Mode       models.TransportMode `json:"mode"`
	Name       string               `json:"name"`
	ActivityID string               `json:"activity_id"`
}

type colorList struct {
	Colors  []models.ActivityColor `json:"colors"`
	Default models.ActivityColor   `json:"default"`
}

// List returns the history with the running total
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	total := h.tracker.Total()
	writeJSON(w, http.StatusOK, activityListResponse{
		Entries:      h.tracker.Rows(),
		TotalKg:      total,
		TotalDisplay: display.TotalLabel(total),
	})
}

// Create estimates a trip and appends it to the history
func (h *ActivityHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeBodyError(w, err)
		return
	}

	var req createActivityRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid JSON"})
		return
	}

	entry, err := h.tracker.AddActivity(r.Context(), middleware.DeviceID(r.Context()), tracker.AddActivityInput{
		Title:    req.Title,
		Distance: string(req.Distance),
		Mode:     models.TransportMode(strings.ToLower(strings.TrimSpace(string(req.Mode)))),
	})
	if err != nil {
		writeJSON(w, addActivityStatus(err), errorResponse{Error: tracker.UserMessage(err)})
		return
	}

	writeJSON(w, http.StatusCreated, entry)
}

func addActivityStatus(err error) int {
	switch {
	case errors.Is(err, tracker.ErrInvalidDistance), errors.Is(err, tracker.ErrInvalidMode):
		return http.StatusBadRequest
	case errors.Is(err, tracker.ErrSubmissionInFlight), errors.Is(err, tracker.ErrSubmissionCancelled):
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

// Update changes the title and/or color of an entry
func (h *ActivityHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	body, err := readBody(w, r)
	if err != nil {
		writeBodyError(w, err)
		return
	}

	var patch models.EntryPatch
	if err := json.Unmarshal(body, &patch); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid JSON"})
		return
	}

	entry, err := h.tracker.UpdateActivity(r.Context(), id, patch)
	switch {
	case errors.Is(err, tracker.ErrInvalidColor):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	case errors.Is(err, tracker.ErrEntryNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Entry not found"})
		return
	case err != nil:
		h.log.WithError(err).WithField("entry_id", id).Error("Failed to update entry")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to update entry"})
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

// Delete removes an entry
func (h *ActivityHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	err := h.tracker.DeleteActivity(r.Context(), id)
	if errors.Is(err, tracker.ErrEntryNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Entry not found"})
		return
	}
	if err != nil {
		h.log.WithError(err).WithField("entry_id", id).Error("Failed to delete entry")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to delete entry"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Summary returns the total card
func (h *ActivityHandler) Summary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tracker.Summary())
}

// SubmissionStatus returns the caller's form state
func (h *ActivityHandler) SubmissionStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tracker.SubmissionStatus(middleware.DeviceID(r.Context())))
}

// CancelSubmission aborts the caller's in-flight estimate
func (h *ActivityHandler) CancelSubmission(w http.ResponseWriter, r *http.Request) {
	if !h.tracker.CancelSubmission(middleware.DeviceID(r.Context())) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "No submission in flight"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Modes lists the transport modes
func (h *ActivityHandler) Modes(w http.ResponseWriter, r *http.Request) {
	modes := make([]modeInfo, 0, len(models.AllModes()))
	for _, m := range models.AllModes() {
		modes = append(modes, modeInfo{Mode: m, Name: m.DisplayName(), ActivityID: m.ActivityID()})
	}
	writeJSON(w, http.StatusOK, modes)
}

// Colors lists the entry palette
func (h *ActivityHandler) Colors(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, colorList{Colors: models.Palette(), Default: models.DefaultColor})
}

// Health reports liveness
func Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// maxBodyBytes caps request bodies; every accepted body is a few small fields.
const maxBodyBytes = 64 << 10

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	return io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
}

func writeBodyError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
		return
	}
	http.Error(w, "Failed to read request body", http.StatusBadRequest)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
