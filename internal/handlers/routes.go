package handlers

import (
	"github.com/labstack/echo/v4"
)

// Handlers groups the endpoint sets mounted under /v1. Areas and Jobs are optional.
type Handlers struct {
	Health        *HealthHandlers
	Inventory     *InventoryHandlers
	Locations     *LocationHandlers
	Areas         *AreaHandlers
	Subscriptions *SubscriptionHandlers
	Jobs          *JobHandlers
}

func RegisterRoutes(v1 *echo.Group, h Handlers) {
	v1.GET("/ping", h.Health.Ping)
	v1.GET("/version", h.Health.Version)
	v1.GET("/stats", h.Inventory.Stats)
	v1.GET("/health", h.Health.HealthCheck)
	v1.GET("/health/live", h.Health.LivenessCheck)
	v1.GET("/health/ready", h.Health.ReadinessCheck)
	v1.GET("/metrics", h.Health.Metrics)

	items := v1.Group("/items")
	items.POST("", h.Inventory.CreateItem)
	items.GET("", h.Inventory.ListItems)
	items.POST("/bulk", h.Inventory.BulkItems)
	items.GET("/:id", h.Inventory.GetItem)
	items.PATCH("/:id", h.Inventory.UpdateItem)
	items.DELETE("/:id", h.Inventory.DeleteItem)
	items.POST("/:id/adjust-quantity", h.Inventory.AdjustQuantity)
	items.POST("/:id/set-quantity", h.Inventory.SetQuantity)
	items.POST("/:id/check-out", h.Inventory.CheckOut)
	items.POST("/:id/check-in", h.Inventory.CheckIn)
	items.POST("/:id/add-tags", h.Inventory.AddTags)
	items.POST("/:id/remove-tags", h.Inventory.RemoveTags)
	items.POST("/:id/custom-fields", h.Inventory.UpdateCustomFields)
	items.POST("/:id/low-stock-threshold", h.Inventory.SetLowStockThreshold)
	items.POST("/:id/move", h.Inventory.MoveItem)

	locations := v1.Group("/locations")
	locations.POST("", h.Locations.CreateLocation)
	locations.GET("", h.Locations.ListLocations)
	locations.GET("/tree", h.Locations.LocationTree)
	locations.GET("/:id", h.Locations.GetLocation)
	locations.PATCH("/:id", h.Locations.UpdateLocation)
	locations.DELETE("/:id", h.Locations.DeleteLocation)
	locations.POST("/:id/move-subtree", h.Locations.MoveSubtree)

	v1.GET("/subscribe", h.Subscriptions.Subscribe)

	if h.Areas != nil {
		v1.GET("/areas", h.Areas.ListAreas)
		v1.GET("/areas/resolve", h.Areas.ResolveArea)
	}

	if h.Jobs != nil {
		jobs := v1.Group("/jobs")
		jobs.POST("/backup", h.Jobs.TriggerBackup)
		jobs.GET("/backup/latest", h.Jobs.LatestBackup)
		jobs.POST("/backup/restore", h.Jobs.RestoreBackup)
		jobs.GET("/alerts", h.Jobs.GetInventoryAlerts)
		jobs.GET("/status", h.Jobs.JobStatus)
	}
}
