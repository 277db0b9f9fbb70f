package proposal

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/rajivgeraev/flippy-exchange/internal/db"
	applog "github.com/rajivgeraev/flippy-exchange/internal/log"
	"github.com/rajivgeraev/flippy-exchange/internal/middleware"
	"github.com/rajivgeraev/flippy-exchange/internal/models"
)

// errorResponse сопоставляет ошибку контроллера с HTTP статусом и кодом
func errorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound, "not_found"
	case errors.Is(err, ErrAdNotFound):
		return fiber.StatusNotFound, "ad_not_found"
	case errors.Is(err, ErrNotOwner):
		return fiber.StatusForbidden, "not_owner"
	case errors.Is(err, ErrNotReceiver):
		return fiber.StatusForbidden, "not_receiver"
	case errors.Is(err, ErrNotSender):
		return fiber.StatusForbidden, "not_sender"
	case errors.Is(err, ErrSelfTarget):
		return fiber.StatusBadRequest, "self_target"
	case errors.Is(err, ErrInvalidStatus):
		return fiber.StatusBadRequest, "invalid_status"
	case errors.Is(err, ErrInvalidFilter):
		return fiber.StatusBadRequest, "invalid_filter"
	case errors.Is(err, ErrAlreadyProposed):
		return fiber.StatusConflict, "already_proposed"
	case errors.Is(err, ErrAlreadyResolved):
		return fiber.StatusConflict, "already_resolved"
	}
	return fiber.StatusInternalServerError, "internal"
}

func respondError(c fiber.Ctx, action string, err error) error {
	status, code := errorResponse(err)
	c.Status(status)

	message := err.Error()
	switch status {
	case fiber.StatusInternalServerError:
		log.Printf("Ошибка %s: %v", action, err)
		applog.Error(c, action, err, nil)
		message = "Внутренняя ошибка сервера"
	case fiber.StatusForbidden:
		applog.Security(c, action+".denied", map[string]any{"reason": code})
	}

	return c.JSON(fiber.Map{"error": message, "code": code})
}

func badRequest(c fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": message, "code": "invalid_input"})
}

// CreateProposal создает новое предложение обмена
func (s *ProposalService) CreateProposal(c fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	var requestData struct {
		SenderAdID   string  `json:"sender_ad_id"`
		ReceiverAdID string  `json:"receiver_ad_id"`
		Comment      *string `json:"comment"`
	}
	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Ошибка декодирования тела запроса: %v", err)
		return badRequest(c, "Неверный формат данных")
	}

	if requestData.SenderAdID == "" || requestData.ReceiverAdID == "" {
		return badRequest(c, "Необходимо указать ID объявлений для обмена")
	}
	senderAdID, err := uuid.Parse(requestData.SenderAdID)
	if err != nil {
		return badRequest(c, "Неверный формат ID объявления отправителя")
	}
	receiverAdID, err := uuid.Parse(requestData.ReceiverAdID)
	if err != nil {
		return badRequest(c, "Неверный формат ID объявления получателя")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	p, err := s.Create(ctx, userID, senderAdID, receiverAdID, requestData.Comment)
	if err != nil {
		return respondError(c, "proposal.create", err)
	}

	c.Status(fiber.StatusCreated)
	applog.Audit(c, "proposal.create", map[string]any{"proposal_id": p.ID.String()})
	return c.JSON(p)
}

// GetProposals возвращает входящие и исходящие предложения пользователя
func (s *ProposalService) GetProposals(c fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	// type: all, incoming, outgoing; status: all, pending, approved, rejected
	direction := models.Direction(c.Query("type", "all"))
	status := c.Query("status", "all")
	if status == "all" {
		status = ""
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	seq, err := s.List(ctx, userID, direction, models.ProposalStatus(status))
	if err != nil {
		return respondError(c, "proposal.list", err)
	}

	proposals := []models.ExchangeProposal{}
	for p, err := range seq {
		if err != nil {
			return respondError(c, "proposal.list", err)
		}
		proposals = append(proposals, p)
	}

	return c.JSON(fiber.Map{
		"proposals": proposals,
		"count":     len(proposals),
	})
}

// GetProposal возвращает одно предложение
func (s *ProposalService) GetProposal(c fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Неверный формат ID предложения обмена")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	p, err := s.Get(ctx, userID, id)
	if err != nil {
		return respondError(c, "proposal.get", err)
	}
	return c.JSON(p)
}

// UpdateProposalStatus одобряет или отклоняет предложение
func (s *ProposalService) UpdateProposalStatus(c fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Неверный формат ID предложения обмена")
	}

	var requestData struct {
		Status string `json:"status"` // approved, rejected
	}
	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Ошибка декодирования тела запроса: %v", err)
		return badRequest(c, "Неверный формат данных")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	p, err := s.UpdateStatus(ctx, userID, id, models.ProposalStatus(requestData.Status))
	if err != nil {
		return respondError(c, "proposal.update_status", err)
	}

	applog.Audit(c, "proposal.update_status", map[string]any{
		"proposal_id": p.ID.String(),
		"status":      string(p.Status),
	})
	return c.JSON(p)
}

// DeleteProposal удаляет предложение
func (s *ProposalService) DeleteProposal(c fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Неверный формат ID предложения обмена")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	if err := s.Delete(ctx, userID, id); err != nil {
		return respondError(c, "proposal.delete", err)
	}

	c.Status(fiber.StatusNoContent)
	applog.Audit(c, "proposal.delete", map[string]any{"proposal_id": id.String()})
	return nil
}
