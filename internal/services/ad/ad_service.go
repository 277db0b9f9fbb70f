package ad

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/rajivgeraev/flippy-exchange/internal/models"
	"github.com/rajivgeraev/flippy-exchange/internal/storage"
	"github.com/rajivgeraev/flippy-exchange/internal/utils"
)

const maxTitleLength = 255

var (
	ErrNotFound         = errors.New("объявление не найдено")
	ErrForbidden        = errors.New("объявление принадлежит другому пользователю")
	ErrCategoryNotFound = errors.New("категория не найдена")
	ErrInvalidCondition = errors.New("недопустимое состояние товара")
	ErrInvalidInput     = errors.New("некорректные данные объявления")
	ErrDuplicateTitle   = errors.New("объявление с таким названием уже существует")
)

// ImageReleaser удаляет изображение из внешнего хранилища
type ImageReleaser interface {
	Release(ctx context.Context, publicID string) error
}

// NoOpReleaser ничего не удаляет. Используется, когда Cloudinary не настроен.
type NoOpReleaser struct{}

func (NoOpReleaser) Release(context.Context, string) error { return nil }

// ChangeHook вызывается после изменения объявления.
// При удалении next равен nil.
type ChangeHook func(ctx context.Context, prev, next *models.Ad)

// AdPatch частичное обновление объявления: nil поля не меняются
type AdPatch struct {
	Title         *string
	Description   *string
	CategoryID    *uuid.UUID
	Condition     *models.Condition
	ImageURL      *string
	ImagePublicID *string
}

// AdService представляет сервис для работы с объявлениями
type AdService struct {
	store      storage.AdStore
	categories storage.CategoryStore
	releaser   ImageReleaser
	hooks      []ChangeHook
	jwtService *utils.JWTService
}

// NewAdService создает новый экземпляр AdService
func NewAdService(store storage.AdStore, categories storage.CategoryStore, releaser ImageReleaser, jwtService *utils.JWTService) *AdService {
	if releaser == nil {
		releaser = NoOpReleaser{}
	}
	s := &AdService{
		store:      store,
		categories: categories,
		releaser:   releaser,
		jwtService: jwtService,
	}
	s.OnChange(s.releaseReplacedImage)
	return s
}

// OnChange регистрирует обработчик изменений. Обработчики вызываются
// синхронно в порядке регистрации.
func (s *AdService) OnChange(hook ChangeHook) {
	s.hooks = append(s.hooks, hook)
}

func (s *AdService) changed(ctx context.Context, prev, next *models.Ad) {
	for _, hook := range s.hooks {
		hook(ctx, prev, next)
	}
}

// releaseReplacedImage удаляет старое изображение, если оно заменено или объявление удалено
func (s *AdService) releaseReplacedImage(ctx context.Context, prev, next *models.Ad) {
	if prev == nil || prev.ImagePublicID == "" {
		return
	}
	if next != nil && next.ImagePublicID == prev.ImagePublicID {
		return
	}
	s.release(ctx, prev.ImagePublicID)
}

func (s *AdService) release(ctx context.Context, publicID string) {
	if publicID == "" {
		return
	}
	if err := s.releaser.Release(ctx, publicID); err != nil {
		log.Printf("Ошибка при удалении изображения %s: %v", publicID, err)
	}
}

func (s *AdService) validate(ctx context.Context, ad *models.Ad) error {
	ad.Title = strings.TrimSpace(ad.Title)
	if ad.Title == "" || utf8.RuneCountInString(ad.Title) > maxTitleLength {
		return fmt.Errorf("%w: название должно быть от 1 до %d символов", ErrInvalidInput, maxTitleLength)
	}
	if !ad.Condition.Valid() {
		return ErrInvalidCondition
	}

	_, err := s.categories.GetCategory(ctx, ad.CategoryID)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrCategoryNotFound
	}
	if err != nil {
		return fmt.Errorf("ошибка при получении категории: %w", err)
	}
	return nil
}

// Create создает объявление, владельцем становится actor
func (s *AdService) Create(ctx context.Context, actor uuid.UUID, ad models.Ad) (models.Ad, error) {
	ad.ID = uuid.Nil
	ad.OwnerID = actor
	if ad.Condition == "" {
		ad.Condition = models.ConditionNew
	}
	if err := s.validate(ctx, &ad); err != nil {
		return models.Ad{}, err
	}

	created, err := s.store.CreateAd(ctx, ad)
	switch {
	case errors.Is(err, storage.ErrDuplicateTitle):
		return models.Ad{}, ErrDuplicateTitle
	case errors.Is(err, storage.ErrNotFound):
		return models.Ad{}, ErrCategoryNotFound
	case err != nil:
		return models.Ad{}, fmt.Errorf("ошибка при создании объявления: %w", err)
	}
	return created, nil
}

// Get возвращает объявление по ID
func (s *AdService) Get(ctx context.Context, id uuid.UUID) (models.Ad, error) {
	ad, err := s.store.GetAd(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return models.Ad{}, ErrNotFound
	}
	if err != nil {
		return models.Ad{}, fmt.Errorf("ошибка при получении объявления: %w", err)
	}
	return ad, nil
}

// List возвращает объявления по фильтру, новые первыми
func (s *AdService) List(ctx context.Context, filter models.AdFilter) ([]models.Ad, error) {
	if filter.Condition != "" && !filter.Condition.Valid() {
		return nil, ErrInvalidCondition
	}
	ads, err := s.store.ListAds(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении списка объявлений: %w", err)
	}
	return ads, nil
}

func (s *AdService) owned(ctx context.Context, actor, id uuid.UUID) (models.Ad, error) {
	ad, err := s.Get(ctx, id)
	if err != nil {
		return models.Ad{}, err
	}
	if ad.OwnerID != actor {
		return models.Ad{}, ErrForbidden
	}
	return ad, nil
}

// Update частично обновляет объявление. Доступно только владельцу.
// Если запись не удалась, новое изображение удаляется, старое остается.
func (s *AdService) Update(ctx context.Context, actor, id uuid.UUID, patch AdPatch) (models.Ad, error) {
	current, err := s.owned(ctx, actor, id)
	if err != nil {
		return models.Ad{}, err
	}

	next := current
	if patch.Title != nil {
		next.Title = *patch.Title
	}
	if patch.Description != nil {
		next.Description = *patch.Description
	}
	if patch.CategoryID != nil {
		next.CategoryID = *patch.CategoryID
	}
	if patch.Condition != nil {
		next.Condition = *patch.Condition
	}
	if patch.ImageURL != nil {
		next.ImageURL = *patch.ImageURL
	}
	if patch.ImagePublicID != nil {
		next.ImagePublicID = *patch.ImagePublicID
	}

	if err := s.validate(ctx, &next); err != nil {
		return models.Ad{}, err
	}

	prev, err := s.store.UpdateAd(ctx, next)
	if err != nil {
		if next.ImagePublicID != current.ImagePublicID {
			s.release(ctx, next.ImagePublicID)
		}
		switch {
		case errors.Is(err, storage.ErrDuplicateTitle):
			return models.Ad{}, ErrDuplicateTitle
		case errors.Is(err, storage.ErrNotFound):
			return models.Ad{}, ErrNotFound
		}
		return models.Ad{}, fmt.Errorf("ошибка при обновлении объявления: %w", err)
	}

	s.changed(ctx, &prev, &next)
	return next, nil
}

// Delete удаляет объявление вместе с его предложениями обмена. Доступно только владельцу.
func (s *AdService) Delete(ctx context.Context, actor, id uuid.UUID) error {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return err
	}

	deleted, err := s.store.DeleteAd(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("ошибка при удалении объявления: %w", err)
	}

	s.changed(ctx, &deleted, nil)
	return nil
}
