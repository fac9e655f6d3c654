package tracker

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/carbon-tracker/internal/db"
	"github.com/ukydev/carbon-tracker/internal/display"
	"github.com/ukydev/carbon-tracker/internal/emissions"
	"github.com/ukydev/carbon-tracker/internal/events"
	"github.com/ukydev/carbon-tracker/internal/models"
	"github.com/ukydev/carbon-tracker/internal/store"
)

// Estimator turns a trip into a CO2e estimate.
type Estimator interface {
	Estimate(ctx context.Context, distanceKm float64, mode models.TransportMode) (models.EmissionEstimate, error)
}

// Options holds the collaborators of a Tracker. Mirror and Publisher are optional.
type Options struct {
	Store     *store.EntryStore
	Estimator Estimator
	Mirror    db.EntryCollection
	Publisher events.Publisher
	Logger    log.FieldLogger
}

// Tracker runs the add, edit and delete flows over the entry store.
type Tracker struct {
	store     *store.EntryStore
	estimator Estimator
	mirror    db.EntryCollection
	publisher events.Publisher
	log       log.FieldLogger

	now   func() time.Time
	newID func() string

	mu          sync.Mutex
	submissions map[string]*Submission
}

// AddActivityInput is what the add-activity form submits.
type AddActivityInput struct {
	Title    string
	Distance string
	Mode     models.TransportMode
}

// Row is an entry with its display strings.
type Row struct {
	models.ActivityEntry
	ModeName        string `json:"mode_name"`
	DistanceDisplay string `json:"distance_display"`
	EmissionDisplay string `json:"emission_display"`
}

// Summary is the total card.
type Summary struct {
	TotalKg      float64 `json:"total_kg"`
	TotalDisplay string  `json:"total_display"`
	Count        int     `json:"count"`
}

// New creates a tracker
func New(opts Options) *Tracker {
	if opts.Store == nil {
		opts.Store = store.New()
	}
	if opts.Publisher == nil {
		opts.Publisher = events.NoopPublisher{}
	}
	if opts.Logger == nil {
		opts.Logger = log.StandardLogger()
	}
	return &Tracker{
		store:       opts.Store,
		estimator:   opts.Estimator,
		mirror:      opts.Mirror,
		publisher:   opts.Publisher,
		log:         opts.Logger,
		now:         time.Now,
		newID:       uuid.NewString,
		submissions: make(map[string]*Submission),
	}
}

// ParseDistance parses the distance field. Only finite positive numbers pass.
func ParseDistance(text string) (float64, error) {
	d, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(d) || math.IsInf(d, 0) || d <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDistance, text)
	}
	return d, nil
}

// Restore seeds the store from the mirror, if there is one.
func (t *Tracker) Restore(ctx context.Context) error {
	if t.mirror == nil {
		return nil
	}
	entries, err := t.mirror.FindEntries(ctx)
	if err != nil {
		return fmt.Errorf("failed to load entries: %w", err)
	}
	t.store.Replace(entries)
	t.log.WithField("entries", len(entries)).Info("Restored entries")
	return nil
}

// AddActivity validates the form, estimates the trip and appends the entry.
// Input errors are reported without a network call. While one submission of
// owner is in flight a second one fails with ErrSubmissionInFlight.
func (t *Tracker) AddActivity(ctx context.Context, owner string, in AddActivityInput) (models.ActivityEntry, error) {
	sub := t.submission(owner)

	if !models.IsValidMode(in.Mode) {
		err := fmt.Errorf("%w: %q", ErrInvalidMode, in.Mode)
		sub.Reject(err)
		return models.ActivityEntry{}, err
	}
	distance, err := ParseDistance(in.Distance)
	if err != nil {
		sub.Reject(err)
		return models.ActivityEntry{}, err
	}

	runCtx, attempt, err := sub.Begin(ctx)
	if err != nil {
		return models.ActivityEntry{}, err
	}

	entry, err := t.createEntry(runCtx, in.Title, distance, in.Mode)
	if err := sub.Finish(attempt, err); err != nil {
		t.log.WithFields(log.Fields{
			"owner":       owner,
			"mode":        in.Mode,
			"distance_km": distance,
		}).WithError(err).Warn("Add activity failed")
		return models.ActivityEntry{}, err
	}

	t.store.Add(entry)
	if t.mirror != nil {
		if err := t.mirror.InsertEntry(ctx, entry); err != nil {
			t.log.WithError(err).WithField("entry_id", entry.ID).Error("Failed to persist entry")
		}
	}
	t.publish(ctx, events.ActivityCreated, entry.ID, &entry)

	t.log.WithFields(log.Fields{
		"entry_id":    entry.ID,
		"mode":        entry.Mode,
		"emission_kg": entry.EmissionKg,
	}).Info("Activity added")
	return entry, nil
}

func (t *Tracker) createEntry(ctx context.Context, title string, distance float64, mode models.TransportMode) (models.ActivityEntry, error) {
	est, err := t.estimator.Estimate(ctx, distance, mode)
	if err != nil {
		return models.ActivityEntry{}, err
	}
	kg, err := emissions.Kilograms(est)
	if errors.Is(err, emissions.ErrInvalidUnit) {
		t.log.WithFields(log.Fields{"co2e": est.CO2e, "unit": est.Unit}).Warn("Unknown emission unit, storing value as reported")
		kg, err = est.CO2e, nil
	}
	if err != nil {
		return models.ActivityEntry{}, fmt.Errorf("unusable estimate %v %q: %w", est.CO2e, est.Unit, err)
	}

	title = strings.TrimSpace(title)
	if title == "" {
		title = models.UntitledTrip
	}
	return models.ActivityEntry{
		ID:         t.newID(),
		Title:      title,
		Mode:       mode,
		DistanceKm: distance,
		EmissionKg: kg,
		Date:       t.now(),
		Color:      models.DefaultColor,
	}, nil
}

// CancelSubmission aborts owner's in-flight submission and discards its result.
func (t *Tracker) CancelSubmission(owner string) bool {
	cancelled := t.submission(owner).Cancel()
	if cancelled {
		t.log.WithField("owner", owner).Info("Submission cancelled")
	}
	return cancelled
}

// SubmissionStatus returns the state of owner's form.
func (t *Tracker) SubmissionStatus(owner string) SubmissionStatus {
	return t.submission(owner).Status()
}

// UpdateActivity changes the title and/or color of an entry.
func (t *Tracker) UpdateActivity(ctx context.Context, id string, patch models.EntryPatch) (models.ActivityEntry, error) {
	if patch.Color != nil && !models.IsValidColor(*patch.Color) {
		return models.ActivityEntry{}, fmt.Errorf("%w: %q", ErrInvalidColor, *patch.Color)
	}

	entry, ok := t.store.Update(id, patch)
	if !ok {
		return models.ActivityEntry{}, ErrEntryNotFound
	}
	if patch.IsEmpty() {
		return entry, nil
	}
	if t.mirror != nil {
		if err := t.mirror.UpdateEntry(ctx, id, patch); err != nil {
			t.log.WithError(err).WithField("entry_id", id).Error("Failed to persist entry update")
		}
	}
	t.publish(ctx, events.ActivityUpdated, id, &entry)
	return entry, nil
}

// DeleteActivity removes an entry.
func (t *Tracker) DeleteActivity(ctx context.Context, id string) error {
	if !t.store.Remove(id) {
		return ErrEntryNotFound
	}
	if t.mirror != nil {
		if err := t.mirror.DeleteEntry(ctx, id); err != nil {
			t.log.WithError(err).WithField("entry_id", id).Error("Failed to delete persisted entry")
		}
	}
	t.publish(ctx, events.ActivityDeleted, id, nil)
	return nil
}

// Activity returns one entry.
func (t *Tracker) Activity(id string) (models.ActivityEntry, bool) {
	return t.store.Get(id)
}

// Activities returns all entries in display order.
func (t *Tracker) Activities() []models.ActivityEntry {
	return t.store.List()
}

// Rows returns all entries with display strings.
func (t *Tracker) Rows() []Row {
	entries := t.store.List()
	rows := make([]Row, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, Row{
			ActivityEntry:   e,
			ModeName:        e.Mode.DisplayName(),
			DistanceDisplay: display.Distance(e.DistanceKm),
			EmissionDisplay: display.Emission(e.EmissionKg),
		})
	}
	return rows
}

// Total returns the sum of all entry emissions in kg.
func (t *Tracker) Total() float64 {
	return t.store.Total()
}

// Summary returns the total card.
func (t *Tracker) Summary() Summary {
	total := t.store.Total()
	return Summary{
		TotalKg:      total,
		TotalDisplay: display.TotalLabel(total),
		Count:        t.store.Len(),
	}
}

func (t *Tracker) submission(owner string) *Submission {
	t.mu.Lock()
	defer t.mu.Unlock()

	sub, ok := t.submissions[owner]
	if !ok {
		sub = NewSubmission()
		t.submissions[owner] = sub
	}
	return sub
}

func (t *Tracker) publish(ctx context.Context, typ events.EventType, id string, entry *models.ActivityEntry) {
	event := events.Event{
		Type:      typ,
		EntryID:   id,
		Entry:     entry,
		TotalKg:   t.store.Total(),
		Timestamp: t.now(),
	}
	if err := t.publisher.Publish(ctx, event); err != nil {
		t.log.WithError(err).WithFields(log.Fields{"event": typ, "entry_id": id}).Warn("Failed to publish event")
	}
}
