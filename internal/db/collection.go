package db

import (
	"context"

	"github.com/ukydev/carbon-tracker/internal/models"
)

// EntryCollection defines the interface for activity entry persistence.
type EntryCollection interface {
	InsertEntry(ctx context.Context, entry models.ActivityEntry) error
	FindEntries(ctx context.Context) ([]models.ActivityEntry, error)
	UpdateEntry(ctx context.Context, id string, patch models.EntryPatch) error
	DeleteEntry(ctx context.Context, id string) error
}
