package category

import "github.com/gofiber/fiber/v3"

// SetupRoutes настраивает публичные маршруты справочника категорий
func (s *CategoryService) SetupRoutes(app *fiber.App) {
	api := app.Group("/api/categories")
	api.Get("/", s.GetCategories)
	api.Get("/:id", s.GetCategory)
}
