package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/rajivgeraev/flippy-exchange/internal/models"
)

// CreateCategory сохраняет новую категорию
func (s *Store) CreateCategory(ctx context.Context, c models.Category) (models.Category, error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	_, err := s.pool.Exec(ctx, `
        INSERT INTO categories (id, title, description) VALUES ($1, $2, $3)
    `, c.ID, c.Title, c.Description)
	if err != nil {
		return models.Category{}, translate(err)
	}
	return c, nil
}

// GetCategory возвращает категорию по ID
func (s *Store) GetCategory(ctx context.Context, id uuid.UUID) (models.Category, error) {
	var c models.Category
	err := s.pool.QueryRow(ctx, `
        SELECT id, title, description FROM categories WHERE id = $1
    `, id).Scan(&c.ID, &c.Title, &c.Description)
	if err != nil {
		return models.Category{}, translate(err)
	}
	return c, nil
}

// GetCategoryByTitle возвращает категорию по названию
func (s *Store) GetCategoryByTitle(ctx context.Context, title string) (models.Category, error) {
	var c models.Category
	err := s.pool.QueryRow(ctx, `
        SELECT id, title, description FROM categories WHERE title = $1
    `, title).Scan(&c.ID, &c.Title, &c.Description)
	if err != nil {
		return models.Category{}, translate(err)
	}
	return c, nil
}

// ListCategories возвращает все категории по алфавиту
func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, title, description FROM categories ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса категорий: %w", err)
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Title, &c.Description); err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}
