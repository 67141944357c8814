package jobs

import (
	"context"
	"log/slog"
	"time"

	"haventory/internal/metrics"
	"haventory/internal/models"
	"haventory/internal/services"
)

const BackupJobName = "snapshot-backup"

// SnapshotSource exports and replaces the whole inventory.
type SnapshotSource interface {
	Snapshot(ctx context.Context) *models.Document
	Restore(ctx context.Context, doc *models.Document) error
}

// SnapshotBackupService copies inventory snapshots to object storage and restores them.
type SnapshotBackupService struct {
	source        SnapshotSource
	storage       services.MinioService
	presignExpiry time.Duration
	metrics       *metrics.Metrics
	log           *slog.Logger
}

func NewSnapshotBackupService(source SnapshotSource, storage services.MinioService, presignExpiry time.Duration, m *metrics.Metrics, log *slog.Logger) *SnapshotBackupService {
	if presignExpiry <= 0 {
		presignExpiry = 15 * time.Minute
	}
	return &SnapshotBackupService{
		source:        source,
		storage:       storage,
		presignExpiry: presignExpiry,
		metrics:       m,
		log:           log,
	}
}

// Run uploads the current state and returns the object key.
func (b *SnapshotBackupService) Run(ctx context.Context) (string, error) {
	doc := b.source.Snapshot(ctx)
	key, err := b.storage.UploadSnapshot(ctx, doc)
	b.metrics.ObserveJob(BackupJobName, err)
	if err != nil {
		b.log.Error("snapshot backup failed", "error", err)
		return "", err
	}
	b.log.Info("snapshot backed up", "key", key, "items", len(doc.Items), "locations", len(doc.Locations))
	return key, nil
}

// ScheduledBackup is the scheduler entry point.
func (b *SnapshotBackupService) ScheduledBackup(ctx context.Context) error {
	_, err := b.Run(ctx)
	return err
}

// Latest describes the newest backup with a presigned download URL, or returns nil when there is none.
func (b *SnapshotBackupService) Latest(ctx context.Context) (*models.SnapshotObject, error) {
	latest, err := b.storage.LatestSnapshot(ctx)
	if err != nil || latest == nil {
		return nil, err
	}
	url, err := b.storage.PresignedURL(ctx, latest.Key, b.presignExpiry)
	if err != nil {
		return nil, err
	}
	latest.URL = url
	return latest, nil
}

// RestoreLatest replaces the inventory with the newest backup. It returns nil, nil when there is
// nothing to restore.
func (b *SnapshotBackupService) RestoreLatest(ctx context.Context) (*models.SnapshotObject, error) {
	latest, err := b.storage.LatestSnapshot(ctx)
	if err != nil || latest == nil {
		return nil, err
	}
	doc, err := b.storage.DownloadSnapshot(ctx, latest.Key)
	if err != nil {
		return nil, err
	}
	if err := b.source.Restore(ctx, doc); err != nil {
		return nil, err
	}
	b.log.Info("snapshot restored", "key", latest.Key)
	return latest, nil
}
