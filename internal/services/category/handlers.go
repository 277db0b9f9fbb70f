package category

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/rajivgeraev/flippy-exchange/internal/db"
)

// GetCategories возвращает список категорий
func (s *CategoryService) GetCategories(c fiber.Ctx) error {
	ctx, cancel := db.GetContext()
	defer cancel()

	categories, err := s.List(ctx)
	if err != nil {
		log.Printf("Ошибка получения категорий: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Внутренняя ошибка сервера", "code": "internal"})
	}

	return c.JSON(fiber.Map{
		"categories": categories,
		"count":      len(categories),
	})
}

// GetCategory возвращает одну категорию
func (s *CategoryService) GetCategory(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID категории", "code": "invalid_input"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	category, err := s.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error(), "code": "not_found"})
	}
	if err != nil {
		log.Printf("Ошибка получения категории: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Внутренняя ошибка сервера", "code": "internal"})
	}
	return c.JSON(category)
}
