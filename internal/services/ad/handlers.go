package ad

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

func errorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound, "not_found"
	case errors.Is(err, ErrCategoryNotFound):
		return fiber.StatusBadRequest, "category_not_found"
	case errors.Is(err, ErrForbidden):
		return fiber.StatusForbidden, "not_owner"
	case errors.Is(err, ErrInvalidCondition):
		return fiber.StatusBadRequest, "invalid_condition"
	case errors.Is(err, ErrInvalidInput):
		return fiber.StatusBadRequest, "invalid_input"
	case errors.Is(err, ErrDuplicateTitle):
		return fiber.StatusConflict, "duplicate_title"
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
		applog.Security(c, action+".denied", map[string]any{"ad_id": c.Params("id")})
	}
	return c.JSON(fiber.Map{"error": message, "code": code})
}

func badRequest(c fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": message, "code": "invalid_input"})
}

func parseOptionalUUID(value string) (*uuid.UUID, error) {
	if value == "" {
		return nil, nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// CreateAd обрабатывает создание нового объявления
func (s *AdService) CreateAd(c fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	var requestData struct {
		Title         string `json:"title"`
		Description   string `json:"description"`
		CategoryID    string `json:"category_id"`
		Condition     string `json:"condition"`
		ImageURL      string `json:"image_url"`
		ImagePublicID string `json:"image_public_id"`
	}
	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Ошибка декодирования тела запроса: %v", err)
		return badRequest(c, "Неверный формат данных")
	}

	categoryID, err := uuid.Parse(requestData.CategoryID)
	if err != nil {
		return badRequest(c, "Неверный формат ID категории")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	ad, err := s.Create(ctx, userID, models.Ad{
		CategoryID:    categoryID,
		Title:         requestData.Title,
		Description:   requestData.Description,
		Condition:     models.Condition(requestData.Condition),
		ImageURL:      requestData.ImageURL,
		ImagePublicID: requestData.ImagePublicID,
	})
	if err != nil {
		return respondError(c, "ad.create", err)
	}

	c.Status(fiber.StatusCreated)
	applog.Audit(c, "ad.create", map[string]any{"ad_id": ad.ID.String()})
	return c.JSON(ad)
}

// GetAds возвращает публичный список объявлений
func (s *AdService) GetAds(c fiber.Ctx) error {
	categoryID, err := parseOptionalUUID(c.Query("category_id"))
	if err != nil {
		return badRequest(c, "Неверный формат ID категории")
	}
	ownerID, err := parseOptionalUUID(c.Query("owner_id"))
	if err != nil {
		return badRequest(c, "Неверный формат ID владельца")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	ads, err := s.List(ctx, models.AdFilter{
		CategoryID: categoryID,
		OwnerID:    ownerID,
		Condition:  models.Condition(c.Query("condition")),
	})
	if err != nil {
		return respondError(c, "ad.list", err)
	}

	return c.JSON(fiber.Map{
		"ads":   ads,
		"count": len(ads),
	})
}

// GetAd возвращает одно объявление
func (s *AdService) GetAd(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Неверный формат ID объявления")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	ad, err := s.Get(ctx, id)
	if err != nil {
		return respondError(c, "ad.get", err)
	}
	return c.JSON(ad)
}

// UpdateAd частично обновляет объявление владельца
func (s *AdService) UpdateAd(c fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Неверный формат ID объявления")
	}

	var requestData struct {
		Title         *string `json:"title"`
		Description   *string `json:"description"`
		CategoryID    *string `json:"category_id"`
		Condition     *string `json:"condition"`
		ImageURL      *string `json:"image_url"`
		ImagePublicID *string `json:"image_public_id"`
	}
	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Ошибка декодирования тела запроса: %v", err)
		return badRequest(c, "Неверный формат данных")
	}

	patch := AdPatch{
		Title:         requestData.Title,
		Description:   requestData.Description,
		ImageURL:      requestData.ImageURL,
		ImagePublicID: requestData.ImagePublicID,
	}
	if requestData.CategoryID != nil {
		categoryID, err := uuid.Parse(*requestData.CategoryID)
		if err != nil {
			return badRequest(c, "Неверный формат ID категории")
		}
		patch.CategoryID = &categoryID
	}
	if requestData.Condition != nil {
		condition := models.Condition(*requestData.Condition)
		patch.Condition = &condition
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	ad, err := s.Update(ctx, userID, id, patch)
	if err != nil {
		return respondError(c, "ad.update", err)
	}

	applog.Audit(c, "ad.update", map[string]any{"ad_id": ad.ID.String()})
	return c.JSON(ad)
}

// DeleteAd удаляет объявление владельца
func (s *AdService) DeleteAd(c fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Неверный формат ID объявления")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	if err := s.Delete(ctx, userID, id); err != nil {
		return respondError(c, "ad.delete", err)
	}

	c.Status(fiber.StatusNoContent)
	applog.Audit(c, "ad.delete", map[string]any{"ad_id": id.String()})
	return nil
}
