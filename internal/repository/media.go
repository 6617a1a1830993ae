package repository

import (
	"context"
	"fmt"

	"kata/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = fmt.Errorf("not found")

type MediaRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.MediaItem, error)
	GetByID(ctx context.Context, userID, id string) (*models.MediaItem, error)
	Create(ctx context.Context, item *models.MediaItem) error
	Update(ctx context.Context, item *models.MediaItem) error
	Delete(ctx context.Context, userID, id string) error
}

type mediaRepository struct {
	db *pgxpool.Pool
}

func NewMediaRepository(db *pgxpool.Pool) MediaRepository {
	return &mediaRepository{db: db}
}

const mediaColumns = `id, user_id, type, title, cover_url, status, rating,
	author, platform, release_year, genres, review, created_at, updated_at`

func (r *mediaRepository) ListByUser(ctx context.Context, userID string) ([]models.MediaItem, error) {
	query := `SELECT ` + mediaColumns + ` FROM media_items WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query media items: %w", err)
	}
	defer rows.Close()

	var items []models.MediaItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over rows: %w", err)
	}
	return items, nil
}

func (r *mediaRepository) GetByID(ctx context.Context, userID, id string) (*models.MediaItem, error) {
	query := `SELECT ` + mediaColumns + ` FROM media_items WHERE user_id = $1 AND id = $2`

	rows, err := r.db.Query(ctx, query, userID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query media item: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to get media item: %w", err)
		}
		return nil, ErrNotFound
	}
	return scanItem(rows)
}

func (r *mediaRepository) Create(ctx context.Context, item *models.MediaItem) error {
	row := item.Row()
	query := `
	INSERT INTO media_items (id, user_id, type, title, cover_url, status, rating,
		author, platform, release_year, genres, review, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := r.db.Exec(ctx, query,
		row.ID, row.UserID, row.Type, row.Title, row.CoverURL, row.Status, row.Rating,
		row.Author, row.Platform, row.ReleaseYear, row.Genres, row.Review,
		row.CreatedAt, row.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create media item: %w", err)
	}
	return nil
}

func (r *mediaRepository) Update(ctx context.Context, item *models.MediaItem) error {
	row := item.Row()
	query := `
	UPDATE media_items
	SET title = $3, cover_url = $4, status = $5, rating = $6, author = $7,
		platform = $8, release_year = $9, genres = $10, review = $11, updated_at = $12
	WHERE user_id = $1 AND id = $2
	`
	tag, err := r.db.Exec(ctx, query,
		row.UserID, row.ID, row.Title, row.CoverURL, row.Status, row.Rating,
		row.Author, row.Platform, row.ReleaseYear, row.Genres, row.Review, row.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update media item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mediaRepository) Delete(ctx context.Context, userID, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM media_items WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete media item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanItem(rows pgx.Rows) (*models.MediaItem, error) {
	var row models.MediaItemRow
	err := rows.Scan(
		&row.ID, &row.UserID, &row.Type, &row.Title, &row.CoverURL, &row.Status,
		&row.Rating, &row.Author, &row.Platform, &row.ReleaseYear, &row.Genres,
		&row.Review, &row.CreatedAt, &row.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan media item: %w", err)
	}
	return models.ItemFromRow(row), nil
}
