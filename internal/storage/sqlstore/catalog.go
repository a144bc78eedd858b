package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/julianstephens/dcalt/internal/models"
	"github.com/julianstephens/dcalt/internal/storage"
)

type categoryRow struct {
	ID        string `db:"id"`
	ArchiveID string `db:"archive_id"`
	Name      string `db:"name"`
	UserOrder int    `db:"user_order"`
	CreatedAt string `db:"created_at"`
}

func (r categoryRow) model() (models.Category, error) {
	createdAt, err := time.Parse(time.RFC3339, r.CreatedAt)
	if err != nil {
		return models.Category{}, fmt.Errorf("failed to parse created_at for category %s: %w", r.ID, err)
	}
	return models.Category{
		ID:        r.ID,
		ArchiveID: r.ArchiveID,
		Name:      r.Name,
		UserOrder: r.UserOrder,
		CreatedAt: createdAt,
	}, nil
}

type servingRow struct {
	ID           string `db:"id"`
	ArchiveID    string `db:"archive_id"`
	CategoryID   string `db:"category_id"`
	CategoryName string `db:"category_name"`
	Name         string `db:"name"`
	Calories     int    `db:"calories"`
	CreatedAt    string `db:"created_at"`
}

func (r servingRow) model() (models.Serving, error) {
	createdAt, err := time.Parse(time.RFC3339, r.CreatedAt)
	if err != nil {
		return models.Serving{}, fmt.Errorf("failed to parse created_at for serving %s: %w", r.ID, err)
	}
	return models.Serving{
		ID:           r.ID,
		ArchiveID:    r.ArchiveID,
		CategoryID:   r.CategoryID,
		CategoryName: r.CategoryName,
		Name:         r.Name,
		Calories:     r.Calories,
		CreatedAt:    createdAt,
	}, nil
}

func fillIdentity(id, archiveID *string, createdAt *time.Time) {
	if *id == "" {
		*id = uuid.New().String()
	}
	if *archiveID == "" {
		*archiveID = uuid.New().String()
	}
	if createdAt.IsZero() {
		*createdAt = time.Now()
	}
}

func (s *Store) AddCategory(ctx context.Context, category models.Category) error {
	if strings.TrimSpace(category.Name) == "" {
		return fmt.Errorf("category name cannot be empty")
	}
	fillIdentity(&category.ID, &category.ArchiveID, &category.CreatedAt)

	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO categories (id, archive_id, name, user_order, created_at)
		VALUES (?, ?, ?, ?, ?)`),
		category.ID, category.ArchiveID, category.Name, category.UserOrder,
		category.CreatedAt.UTC().Format(time.RFC3339))
	return storage.Persistence("add category", err)
}

func (s *Store) GetCategory(ctx context.Context, idOrName string) (models.Category, error) {
	var row categoryRow
	err := sqlx.GetContext(ctx, s.db, &row, s.db.Rebind(`
		SELECT id, archive_id, name, user_order, created_at FROM categories
		WHERE id = ? OR archive_id = ? OR name = ?
		ORDER BY user_order LIMIT 1`), idOrName, idOrName, idOrName)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Category{}, fmt.Errorf("category %q: %w", idOrName, storage.ErrNotFound)
	}
	if err != nil {
		return models.Category{}, storage.Persistence("get category", err)
	}
	return row.model()
}

func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	var rows []categoryRow
	if err := sqlx.SelectContext(ctx, s.db, &rows,
		"SELECT id, archive_id, name, user_order, created_at FROM categories ORDER BY user_order, name"); err != nil {
		return nil, storage.Persistence("list categories", err)
	}

	categories := make([]models.Category, 0, len(rows))
	for _, row := range rows {
		c, err := row.model()
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, nil
}

func (s *Store) AddServing(ctx context.Context, serving models.Serving) error {
	if strings.TrimSpace(serving.Name) == "" {
		return fmt.Errorf("serving name cannot be empty")
	}
	if serving.Calories < 0 {
		return fmt.Errorf("calories must be non-negative, got %d", serving.Calories)
	}
	if serving.CategoryID == "" {
		return fmt.Errorf("serving %q has no category", serving.Name)
	}
	fillIdentity(&serving.ID, &serving.ArchiveID, &serving.CreatedAt)

	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO servings (id, archive_id, category_id, name, calories, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`),
		serving.ID, serving.ArchiveID, serving.CategoryID, serving.Name, serving.Calories,
		serving.CreatedAt.UTC().Format(time.RFC3339))
	return storage.Persistence("add serving", err)
}

const servingSelect = `
	SELECT s.id, s.archive_id, s.category_id, c.name AS category_name, s.name, s.calories, s.created_at
	FROM servings s JOIN categories c ON c.id = s.category_id`

func (s *Store) GetServing(ctx context.Context, idOrName string) (models.Serving, error) {
	var row servingRow
	err := sqlx.GetContext(ctx, s.db, &row, s.db.Rebind(servingSelect+`
		WHERE s.id = ? OR s.archive_id = ? OR s.name = ?
		ORDER BY s.created_at LIMIT 1`), idOrName, idOrName, idOrName)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Serving{}, fmt.Errorf("serving %q: %w", idOrName, storage.ErrNotFound)
	}
	if err != nil {
		return models.Serving{}, storage.Persistence("get serving", err)
	}
	return row.model()
}

func (s *Store) ListServings(ctx context.Context) ([]models.Serving, error) {
	var rows []servingRow
	if err := sqlx.SelectContext(ctx, s.db, &rows, servingSelect+" ORDER BY c.user_order, c.name, s.name"); err != nil {
		return nil, storage.Persistence("list servings", err)
	}

	servings := make([]models.Serving, 0, len(rows))
	for _, row := range rows {
		sv, err := row.model()
		if err != nil {
			return nil, err
		}
		servings = append(servings, sv)
	}
	return servings, nil
}
