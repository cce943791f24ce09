// Package storage defines the persistence interface for conversion history.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/kertas/internal/models"
)

// ErrNotFound is returned (wrapped) when a conversion record does not exist.
var ErrNotFound = errors.New("conversion not found")

// Storage defines conversion record persistence operations.
type Storage interface {
	CreateConversion(ctx context.Context, rec *models.ConversionRecord) error
	GetConversion(ctx context.Context, id string) (*models.ConversionRecord, error)
	UpdateConversion(ctx context.Context, rec *models.ConversionRecord) error
	DeleteConversion(ctx context.Context, id string) error
	ListConversions(ctx context.Context, offset, limit int) ([]*models.ConversionRecord, error)

	// FindReadyBySourceID returns the newest ready conversion of the given source identity.
	FindReadyBySourceID(ctx context.Context, sourceID string) (*models.ConversionRecord, error)

	// Stats
	CountConversions(ctx context.Context) (int64, error)
	CountByState(ctx context.Context) (map[models.ConversionState]int64, error)

	Close() error
}
