package repositories

import (
	"context"
	"errors"
	"strings"

	"haventory/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// AreaRepository is a read-only view of the area registry.
type AreaRepository interface {
	List(ctx context.Context) ([]models.Area, error)
	GetByID(ctx context.Context, id string) (*models.Area, error)
	FindByName(ctx context.Context, name string) (*models.Area, error)
}

type areaRepo struct {
	db DBTX
}

func NewAreaRepo(db DBTX) AreaRepository {
	return &areaRepo{db: db}
}

func selectAreas() squirrel.SelectBuilder {
	return psql.Select("id", "name").From("areas")
}

func (r *areaRepo) List(ctx context.Context) ([]models.Area, error) {
	query, args, err := selectAreas().OrderBy("name", "id").ToSql()
	if err != nil {
		return nil, models.NewStorageError("build area query", err)
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, models.NewStorageError("list areas", err)
	}
	defer rows.Close()

	var areas []models.Area
	for rows.Next() {
		var a models.Area
		if err := rows.Scan(&a.ID, &a.Name); err != nil {
			return nil, models.NewStorageError("scan area", err)
		}
		areas = append(areas, a)
	}
	if err := rows.Err(); err != nil {
		return nil, models.NewStorageError("list areas", err)
	}
	return areas, nil
}

// GetByID returns nil without error when the area does not exist.
func (r *areaRepo) GetByID(ctx context.Context, id string) (*models.Area, error) {
	return r.scanOne(ctx, selectAreas().Where(squirrel.Eq{"id": id}))
}

// FindByName matches case-insensitively; nil without error when nothing matches.
func (r *areaRepo) FindByName(ctx context.Context, name string) (*models.Area, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	return r.scanOne(ctx, selectAreas().Where(squirrel.Expr("LOWER(name) = ?", key)).OrderBy("id").Limit(1))
}

func (r *areaRepo) scanOne(ctx context.Context, builder squirrel.SelectBuilder) (*models.Area, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, models.NewStorageError("build area query", err)
	}
	var a models.Area
	err = r.db.QueryRow(ctx, query, args...).Scan(&a.ID, &a.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, models.NewStorageError("get area", err)
	}
	return &a, nil
}
