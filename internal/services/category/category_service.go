package category

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/rajivgeraev/flippy-exchange/internal/models"
	"github.com/rajivgeraev/flippy-exchange/internal/storage"
)

// ErrNotFound возвращается, когда категория не найдена
var ErrNotFound = errors.New("категория не найдена")

// CategoryService отдает справочник категорий
type CategoryService struct {
	store storage.CategoryStore
}

// NewCategoryService создает новый экземпляр CategoryService
func NewCategoryService(store storage.CategoryStore) *CategoryService {
	return &CategoryService{store: store}
}

// List возвращает все категории
func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении категорий: %w", err)
	}
	return categories, nil
}

// Get возвращает категорию по ID
func (s *CategoryService) Get(ctx context.Context, id uuid.UUID) (models.Category, error) {
	c, err := s.store.GetCategory(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return models.Category{}, ErrNotFound
	}
	if err != nil {
		return models.Category{}, fmt.Errorf("ошибка при получении категории: %w", err)
	}
	return c, nil
}

// EnsureCategories создает недостающие категории по названиям.
// Существующие категории не изменяются. Возвращает число созданных.
func (s *CategoryService) EnsureCategories(ctx context.Context, titles []string) (int, error) {
	created := 0
	for _, title := range titles {
		title = strings.TrimSpace(title)
		if title == "" {
			continue
		}

		_, err := s.store.GetCategoryByTitle(ctx, title)
		if err == nil {
			continue
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return created, fmt.Errorf("ошибка при поиске категории %q: %w", title, err)
		}

		_, err = s.store.CreateCategory(ctx, models.Category{Title: title})
		if errors.Is(err, storage.ErrDuplicateTitle) {
			// создана параллельно
			continue
		}
		if err != nil {
			return created, fmt.Errorf("ошибка при создании категории %q: %w", title, err)
		}
		log.Printf("✅ Категория %q создана", title)
		created++
	}
	return created, nil
}
