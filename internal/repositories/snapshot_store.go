package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"haventory/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of pgxpool.Pool used by the SQL-backed repositories.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// SnapshotStore persists the whole repository as one schema-versioned document.
type SnapshotStore interface {
	EnsureSchema(ctx context.Context) error
	Load(ctx context.Context) (*models.Document, error)
	Save(ctx context.Context, doc *models.Document) error
}

const DefaultSnapshotKey = "haventory"

type snapshotRepo struct {
	db  DBTX
	key string
}

func NewSnapshotRepo(db DBTX, key string) SnapshotStore {
	if key == "" {
		key = DefaultSnapshotKey
	}
	return &snapshotRepo{db: db, key: key}
}

func (r *snapshotRepo) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS haventory_snapshots (
			key            TEXT PRIMARY KEY,
			schema_version INTEGER NOT NULL,
			payload        JSONB NOT NULL,
			updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	if _, err := r.db.Exec(ctx, query); err != nil {
		return models.NewStorageError("ensure snapshot schema", err)
	}
	return nil
}

// Load returns the stored document migrated to CurrentSchemaVersion, or an empty document when
// nothing has been saved yet.
func (r *snapshotRepo) Load(ctx context.Context) (*models.Document, error) {
	query := `SELECT schema_version, payload FROM haventory_snapshots WHERE key = $1`

	var version int
	var payload []byte
	err := r.db.QueryRow(ctx, query, r.key).Scan(&version, &payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return emptyDocument(), nil
	}
	if err != nil {
		return nil, models.NewStorageError("load snapshot", err)
	}

	doc, err := DecodeDocument(payload, &version)
	if err != nil {
		return nil, models.NewStorageError("load snapshot", err)
	}
	return doc, nil
}

func (r *snapshotRepo) Save(ctx context.Context, doc *models.Document) (err error) {
	if doc == nil {
		doc = emptyDocument()
	}
	doc.SchemaVersion = CurrentSchemaVersion
	payload, err := json.Marshal(doc)
	if err != nil {
		return models.NewStorageError("encode snapshot", err)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return models.NewStorageError("begin snapshot save", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	query := `
		INSERT INTO haventory_snapshots (key, schema_version, payload, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (key) DO UPDATE
		SET schema_version = EXCLUDED.schema_version, payload = EXCLUDED.payload, updated_at = NOW()
	`
	if _, err = tx.Exec(ctx, query, r.key, CurrentSchemaVersion, payload); err != nil {
		return models.NewStorageError("save snapshot", err)
	}
	if err = tx.Commit(ctx); err != nil {
		return models.NewStorageError("commit snapshot", fmt.Errorf("key %s: %w", r.key, err))
	}
	return nil
}
