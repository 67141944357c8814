package jobs

import (
	"context"
	"log/slog"

	"haventory/internal/metrics"
	"haventory/internal/models"

	"github.com/google/uuid"
)

const LowStockJobName = "low-stock-alerts"

// LowStockSource lists the items currently at or under their threshold.
type LowStockSource interface {
	LowStockItems(ctx context.Context) ([]*models.ItemView, error)
}

// AreaNamer resolves an area id to its display name.
type AreaNamer interface {
	ResolveName(ctx context.Context, areaID string) (*string, error)
}

type InventoryAlertService struct {
	source  LowStockSource
	areas   AreaNamer
	metrics *metrics.Metrics
	log     *slog.Logger
}

type InventoryAlert struct {
	ItemID       uuid.UUID `json:"item_id"`
	ItemName     string    `json:"item_name"`
	Location     string    `json:"location"`
	AreaName     string    `json:"area_name,omitempty"`
	CurrentStock int       `json:"current_stock"`
	Threshold    int       `json:"threshold"`
}

// NewInventoryAlertService builds the alert job. areas may be nil.
func NewInventoryAlertService(source LowStockSource, areas AreaNamer, m *metrics.Metrics, log *slog.Logger) *InventoryAlertService {
	return &InventoryAlertService{
		source:  source,
		areas:   areas,
		metrics: m,
		log:     log,
	}
}

func (a *InventoryAlertService) CheckLowStock(ctx context.Context) ([]InventoryAlert, error) {
	items, err := a.source.LowStockItems(ctx)
	if err != nil {
		a.log.Error("failed to list low stock items", "error", err)
		return nil, err
	}

	alerts := make([]InventoryAlert, 0, len(items))
	for _, item := range items {
		if item.LowStockThreshold == nil {
			continue
		}
		alert := InventoryAlert{
			ItemID:       item.ID,
			ItemName:     item.Name,
			Location:     item.LocationPath.DisplayPath,
			CurrentStock: item.Quantity,
			Threshold:    *item.LowStockThreshold,
		}
		if a.areas != nil && item.EffectiveAreaID != nil {
			name, err := a.areas.ResolveName(ctx, *item.EffectiveAreaID)
			if err != nil {
				// the alert is still useful without the area
				a.log.Warn("failed to resolve area for alert", "item_id", item.ID, "area_id", *item.EffectiveAreaID, "error", err)
			} else if name != nil {
				alert.AreaName = *name
			}
		}
		alerts = append(alerts, alert)
	}
	return alerts, nil
}

func (a *InventoryAlertService) LogLowStockAlerts(alerts []InventoryAlert) {
	if len(alerts) == 0 {
		a.log.Debug("no low stock alerts")
		return
	}

	a.log.Warn("low stock items", "count", len(alerts))
	for _, alert := range alerts {
		a.log.Warn("low stock",
			"item_id", alert.ItemID,
			"item", alert.ItemName,
			"location", alert.Location,
			"area", alert.AreaName,
			"quantity", alert.CurrentStock,
			"threshold", alert.Threshold,
		)
	}
}

// ScheduledLowStockCheck is the scheduler entry point.
func (a *InventoryAlertService) ScheduledLowStockCheck(ctx context.Context) error {
	alerts, err := a.CheckLowStock(ctx)
	a.metrics.ObserveJob(LowStockJobName, err)
	if err != nil {
		return err
	}
	a.LogLowStockAlerts(alerts)
	return nil
}
