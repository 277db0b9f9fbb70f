package sqlite

import (
	"context"

	"github.com/google/uuid"

	"github.com/rajivgeraev/flippy-exchange/internal/models"
)

// CreateCategory сохраняет новую категорию
func (s *Store) CreateCategory(ctx context.Context, c models.Category) (models.Category, error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO categories (id, title, description) VALUES (?, ?, ?)
    `, c.ID, c.Title, c.Description)
	if err != nil {
		return models.Category{}, translate(err)
	}
	return c, nil
}

// GetCategory возвращает категорию по ID
func (s *Store) GetCategory(ctx context.Context, id uuid.UUID) (models.Category, error) {
	var c models.Category
	err := s.db.GetContext(ctx, &c, `SELECT id, title, description FROM categories WHERE id = ?`, id)
	if err != nil {
		return models.Category{}, translate(err)
	}
	return c, nil
}

// GetCategoryByTitle возвращает категорию по названию
func (s *Store) GetCategoryByTitle(ctx context.Context, title string) (models.Category, error) {
	var c models.Category
	err := s.db.GetContext(ctx, &c, `SELECT id, title, description FROM categories WHERE title = ?`, title)
	if err != nil {
		return models.Category{}, translate(err)
	}
	return c, nil
}

// ListCategories возвращает все категории по алфавиту
func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	err := s.db.SelectContext(ctx, &categories, `SELECT id, title, description FROM categories ORDER BY title`)
	if err != nil {
		return nil, err
	}
	return categories, nil
}
