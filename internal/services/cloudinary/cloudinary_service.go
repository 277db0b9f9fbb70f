package cloudinary

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/gofiber/fiber/v3"

	"github.com/rajivgeraev/flippy-exchange/internal/config"
)

// CloudinaryService предоставляет методы для работы с Cloudinary:
// подпись прямой загрузки с клиента и удаление изображений объявлений
type CloudinaryService struct {
	cld    *cloudinary.Cloudinary
	cfg    config.CloudinaryConfig
	now    func() time.Time
	folder string
}

// NewCloudinaryService создает новый экземпляр CloudinaryService
func NewCloudinaryService(cfg config.CloudinaryConfig) (*CloudinaryService, error) {
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("ошибка при создании клиента Cloudinary: %w", err)
	}
	return &CloudinaryService{
		cld:    cld,
		cfg:    cfg,
		now:    time.Now,
		folder: cfg.UploadFolder,
	}, nil
}

// UploadParams параметры подписанной загрузки
type UploadParams struct {
	Timestamp string `json:"timestamp"`
	Signature string `json:"signature"`
	APIKey    string `json:"api_key"`
	CloudName string `json:"cloud_name"`
	Folder    string `json:"folder"`
}

// SignUpload подписывает параметры загрузки секретом аккаунта
func (s *CloudinaryService) SignUpload() (UploadParams, error) {
	timestamp := strconv.FormatInt(s.now().Unix(), 10)

	params := url.Values{}
	params.Set("timestamp", timestamp)
	params.Set("folder", s.folder)

	signature, err := api.SignParameters(params, s.cfg.APISecret)
	if err != nil {
		return UploadParams{}, fmt.Errorf("ошибка подписи параметров загрузки: %w", err)
	}

	return UploadParams{
		Timestamp: timestamp,
		Signature: signature,
		APIKey:    s.cfg.APIKey,
		CloudName: s.cfg.CloudName,
		Folder:    s.folder,
	}, nil
}

// GenerateUploadParams возвращает клиенту параметры для загрузки изображения
func (s *CloudinaryService) GenerateUploadParams(c fiber.Ctx) error {
	params, err := s.SignUpload()
	if err != nil {
		log.Printf("Ошибка генерации параметров загрузки: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Не удалось подготовить загрузку"})
	}
	return c.JSON(params)
}

// Release удаляет изображение из Cloudinary. Уже удаленное изображение
// не считается ошибкой.
func (s *CloudinaryService) Release(ctx context.Context, publicID string) error {
	if publicID == "" {
		return nil
	}

	res, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("ошибка удаления изображения %s: %w", publicID, err)
	}
	if res.Error.Message != "" {
		return fmt.Errorf("ошибка удаления изображения %s: %s", publicID, res.Error.Message)
	}
	if res.Result != "ok" && res.Result != "not found" {
		log.Printf("Неожиданный ответ Cloudinary при удалении %s: %s", publicID, res.Result)
	}
	return nil
}
