package ad

import (
	"github.com/gofiber/fiber/v3"

	"github.com/rajivgeraev/flippy-exchange/internal/middleware"
)

// SetupRoutes настраивает маршруты для API объявлений
func (s *AdService) SetupRoutes(app *fiber.App) {
	api := app.Group("/api/ads")

	// Публичные маршруты
	api.Get("/", s.GetAds)
	api.Get("/:id", s.GetAd)

	// Защищенные маршруты (требуют авторизации)
	auth := middleware.AuthMiddleware(s.jwtService)
	api.Post("/", auth, s.CreateAd)
	api.Patch("/:id", auth, s.UpdateAd)
	api.Delete("/:id", auth, s.DeleteAd)
}
