package dashboard

import (
	"context"
	"time"

	"github.com/omnisense/raindash/pkg/models"
	"github.com/omnisense/raindash/pkg/timewindow"
)

//go:generate mockgen -destination=mock_fetcher.go -package=dashboard github.com/omnisense/raindash/pkg/dashboard Fetcher

// Fetcher is the slice of the backend API the sessions consume.
// *backend.Client satisfies it.
type Fetcher interface {
	Devices(ctx context.Context) ([]models.DeviceSummary, error)
	Readings(ctx context.Context, id models.DeviceID, r timewindow.Range, now time.Time) ([]models.Reading, error)
}
