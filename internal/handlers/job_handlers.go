package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"haventory/internal/common"
	"haventory/internal/jobs"
	"haventory/internal/models"

	"github.com/labstack/echo/v4"
)

// BackupRunner is implemented by *jobs.SnapshotBackupService.
type BackupRunner interface {
	Run(ctx context.Context) (string, error)
	Latest(ctx context.Context) (*models.SnapshotObject, error)
	RestoreLatest(ctx context.Context) (*models.SnapshotObject, error)
}

// AlertChecker is implemented by *jobs.InventoryAlertService.
type AlertChecker interface {
	CheckLowStock(ctx context.Context) ([]jobs.InventoryAlert, error)
}

// JobStatusReporter is implemented by *background.JobScheduler.
type JobStatusReporter interface {
	GetJobStatus() map[string]any
}

var errBackupsDisabled = models.NewStorageError("backup", errors.New("object storage is not configured"))

type JobHandlers struct {
	backup    BackupRunner
	alerts    AlertChecker
	scheduler JobStatusReporter
	log       *slog.Logger
}

// NewJobHandlers wires the job endpoints. backup and scheduler may be nil when the features are disabled.
func NewJobHandlers(backup BackupRunner, alerts AlertChecker, scheduler JobStatusReporter, log *slog.Logger) *JobHandlers {
	return &JobHandlers{
		backup:    backup,
		alerts:    alerts,
		scheduler: scheduler,
		log:       log,
	}
}

// TriggerBackup handles POST /jobs/backup
func (h *JobHandlers) TriggerBackup(c echo.Context) error {
	if h.backup == nil {
		return common.SendError(c, h.log, "job.backup", errBackupsDisabled)
	}
	key, err := h.backup.Run(c.Request().Context())
	if err != nil {
		return common.SendError(c, h.log, "job.backup", err)
	}
	return c.JSON(http.StatusCreated, map[string]string{"key": key})
}

// LatestBackup handles GET /jobs/backup/latest
func (h *JobHandlers) LatestBackup(c echo.Context) error {
	if h.backup == nil {
		return common.SendError(c, h.log, "job.backup_latest", errBackupsDisabled)
	}
	latest, err := h.backup.Latest(c.Request().Context())
	if err != nil {
		return common.SendError(c, h.log, "job.backup_latest", err)
	}
	if latest == nil {
		return common.SendError(c, h.log, "job.backup_latest", &models.NotFoundError{Resource: "backup"})
	}
	return c.JSON(http.StatusOK, latest)
}

// RestoreBackup handles POST /jobs/backup/restore
func (h *JobHandlers) RestoreBackup(c echo.Context) error {
	if h.backup == nil {
		return common.SendError(c, h.log, "job.backup_restore", errBackupsDisabled)
	}
	restored, err := h.backup.RestoreLatest(c.Request().Context())
	if err != nil {
		return common.SendError(c, h.log, "job.backup_restore", err)
	}
	if restored == nil {
		return common.SendError(c, h.log, "job.backup_restore", &models.NotFoundError{Resource: "backup"})
	}
	return c.JSON(http.StatusOK, map[string]any{"restored": restored})
}

// GetInventoryAlerts handles GET /jobs/alerts
func (h *JobHandlers) GetInventoryAlerts(c echo.Context) error {
	alerts, err := h.alerts.CheckLowStock(c.Request().Context())
	if err != nil {
		return common.SendError(c, h.log, "job.alerts", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"alerts": alerts})
}

// JobStatus handles GET /jobs/status
func (h *JobHandlers) JobStatus(c echo.Context) error {
	if h.scheduler == nil {
		return c.JSON(http.StatusOK, map[string]any{"total_jobs": 0, "jobs": map[string]any{}})
	}
	return c.JSON(http.StatusOK, h.scheduler.GetJobStatus())
}
