package videos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/clipshare/internal/common"
	"github.com/dmitrijs2005/clipshare/internal/dbx"
	"github.com/dmitrijs2005/clipshare/internal/server/models"
)

const videoColumns = `id, owner_id, title, description, media_url, media_ref, content_type, size_bytes, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanVideo(s scanner, v *models.Video) error {
	return s.Scan(&v.ID, &v.OwnerID, &v.Title, &v.Description, &v.MediaURL,
		&v.MediaRef, &v.ContentType, &v.SizeBytes, &v.CreatedAt)
}

func (r *PostgresRepository) Create(ctx context.Context, v *models.Video) (*models.Video, error) {
	query :=
		`INSERT INTO videos (owner_id, title, description, media_url, media_ref, content_type, size_bytes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		v.OwnerID, v.Title, v.Description, v.MediaURL, v.MediaRef, v.ContentType, v.SizeBytes).
		Scan(&v.ID, &v.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return v, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Video, error) {
	query :=
		`SELECT ` + videoColumns + ` FROM videos
		 WHERE id = $1
		 `

	v := &models.Video{}
	if err := scanVideo(r.db.QueryRowContext(ctx, query, id), v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return v, nil
}

func (r *PostgresRepository) ListAll(ctx context.Context, limit, offset int) ([]models.Video, error) {
	query :=
		`SELECT ` + videoColumns + ` FROM videos
		 ORDER BY created_at DESC, id DESC
		 LIMIT $1 OFFSET $2
		 `

	return r.list(ctx, query, limit, offset)
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]models.Video, error) {
	query :=
		`SELECT ` + videoColumns + ` FROM videos
		 WHERE owner_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2 OFFSET $3
		 `

	return r.list(ctx, query, ownerID, limit, offset)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]models.Video, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.Video, 0)
	for rows.Next() {
		var v models.Video
		if err := scanVideo(rows, &v); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}
