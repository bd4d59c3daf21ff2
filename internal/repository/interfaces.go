package repository

import (
	"context"
	"errors"

	"github.com/RMahshie/photoiso/pkg/models"
)

// ErrNotFound is returned when no record matches
var ErrNotFound = errors.New("record not found")

// CollectingAreaRepository stores default collecting areas keyed by
// photoreceptor name
type CollectingAreaRepository interface {
	Get(ctx context.Context, name string) (*models.CollectingArea, error)
	Upsert(ctx context.Context, name string, areaUM2 float64) (*models.CollectingArea, error)
	List(ctx context.Context) ([]*models.CollectingArea, error)
}
