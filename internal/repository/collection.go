package repository

import (
	"context"
	"fmt"
	"time"

	"kata/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CollectionRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.Collection, error)
	GetByID(ctx context.Context, userID, id string) (*models.Collection, error)
	Create(ctx context.Context, collection *models.Collection) error
	Update(ctx context.Context, collection *models.Collection) error
	Delete(ctx context.Context, userID, id string) error
	AddItem(ctx context.Context, userID, collectionID, itemID string) error
	RemoveItem(ctx context.Context, userID, collectionID, itemID string) error
	ItemIDs(ctx context.Context, userID, collectionID string) ([]string, error)
}

type collectionRepository struct {
	db *pgxpool.Pool
}

func NewCollectionRepository(db *pgxpool.Pool) CollectionRepository {
	return &collectionRepository{db: db}
}

const collectionColumns = `id, user_id, name, description, color, icon, created_at, updated_at`

func (r *collectionRepository) ListByUser(ctx context.Context, userID string) ([]models.Collection, error) {
	query := `SELECT ` + collectionColumns + ` FROM collections WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query collections: %w", err)
	}
	defer rows.Close()

	var collections []models.Collection
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, err
		}
		collections = append(collections, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over rows: %w", err)
	}
	return collections, nil
}

func (r *collectionRepository) GetByID(ctx context.Context, userID, id string) (*models.Collection, error) {
	query := `SELECT ` + collectionColumns + ` FROM collections WHERE user_id = $1 AND id = $2`

	rows, err := r.db.Query(ctx, query, userID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to get collection: %w", err)
		}
		return nil, ErrNotFound
	}
	return scanCollection(rows)
}

func (r *collectionRepository) Create(ctx context.Context, collection *models.Collection) error {
	query := `
	INSERT INTO collections (id, user_id, name, description, color, icon, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query,
		collection.ID, collection.UserID, collection.Name, nullable(collection.Description),
		nullable(collection.Color), nullable(collection.Icon), collection.CreatedAt, collection.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

func (r *collectionRepository) Update(ctx context.Context, collection *models.Collection) error {
	query := `
	UPDATE collections
	SET name = $3, description = $4, color = $5, icon = $6, updated_at = $7
	WHERE user_id = $1 AND id = $2
	`
	tag, err := r.db.Exec(ctx, query,
		collection.UserID, collection.ID, collection.Name, nullable(collection.Description),
		nullable(collection.Color), nullable(collection.Icon), collection.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update collection: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the collection; membership rows cascade at the schema
// level, the items themselves stay.
func (r *collectionRepository) Delete(ctx context.Context, userID, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM collections WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *collectionRepository) AddItem(ctx context.Context, userID, collectionID, itemID string) error {
	if _, err := r.GetByID(ctx, userID, collectionID); err != nil {
		return err
	}
	query := `
	INSERT INTO collection_items (collection_id, item_id, added_at)
	VALUES ($1, $2, $3)
	ON CONFLICT DO NOTHING
	`
	if _, err := r.db.Exec(ctx, query, collectionID, itemID, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to add item to collection: %w", err)
	}
	return nil
}

func (r *collectionRepository) RemoveItem(ctx context.Context, userID, collectionID, itemID string) error {
	if _, err := r.GetByID(ctx, userID, collectionID); err != nil {
		return err
	}
	query := `DELETE FROM collection_items WHERE collection_id = $1 AND item_id = $2`
	if _, err := r.db.Exec(ctx, query, collectionID, itemID); err != nil {
		return fmt.Errorf("failed to remove item from collection: %w", err)
	}
	return nil
}

func (r *collectionRepository) ItemIDs(ctx context.Context, userID, collectionID string) ([]string, error) {
	if _, err := r.GetByID(ctx, userID, collectionID); err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx,
		`SELECT item_id FROM collection_items WHERE collection_id = $1 ORDER BY added_at`, collectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection items: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan item id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over rows: %w", err)
	}
	return ids, nil
}

func scanCollection(rows pgx.Rows) (*models.Collection, error) {
	var c models.Collection
	var description, color, icon *string
	err := rows.Scan(&c.ID, &c.UserID, &c.Name, &description, &color, &icon, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan collection: %w", err)
	}
	if description != nil {
		c.Description = *description
	}
	if color != nil {
		c.Color = *color
	}
	if icon != nil {
		c.Icon = *icon
	}
	return &c, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
