package proposal

import (
	"github.com/gofiber/fiber/v3"

	"github.com/rajivgeraev/flippy-exchange/internal/middleware"
)

// SetupRoutes настраивает маршруты для API предложений обмена
func (s *ProposalService) SetupRoutes(app *fiber.App) {
	// Группа для API предложений обмена
	api := app.Group("/api/proposals")

	// Все маршруты требуют авторизации
	api.Use(middleware.AuthMiddleware(s.jwtService))

	api.Post("/", s.CreateProposal)
	api.Get("/", s.GetProposals)
	api.Get("/:id", s.GetProposal)
	api.Patch("/:id", s.UpdateProposalStatus)
	api.Delete("/:id", s.DeleteProposal)
}
