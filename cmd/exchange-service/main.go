package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"

	"github.com/rajivgeraev/flippy-exchange/internal/config"
	"github.com/rajivgeraev/flippy-exchange/internal/db"
	"github.com/rajivgeraev/flippy-exchange/internal/events"
	"github.com/rajivgeraev/flippy-exchange/internal/middleware"
	"github.com/rajivgeraev/flippy-exchange/internal/models"
	"github.com/rajivgeraev/flippy-exchange/internal/services/ad"
	"github.com/rajivgeraev/flippy-exchange/internal/services/category"
	"github.com/rajivgeraev/flippy-exchange/internal/services/cloudinary"
	"github.com/rajivgeraev/flippy-exchange/internal/services/proposal"
	"github.com/rajivgeraev/flippy-exchange/internal/storage"
	"github.com/rajivgeraev/flippy-exchange/internal/storage/cache"
	"github.com/rajivgeraev/flippy-exchange/internal/storage/postgres"
	"github.com/rajivgeraev/flippy-exchange/internal/storage/sqlite"
	"github.com/rajivgeraev/flippy-exchange/internal/utils"
)

func main() {
	var port string
	var categories []string
	var seedOnly bool

	flagSet := pflag.NewFlagSet("exchange-service", pflag.ContinueOnError)
	flagSet.StringVar(&port, "port", "", "порт HTTP сервера (по умолчанию PORT из окружения)")
	flagSet.StringSliceVar(&categories, "category", nil, "создать категории с указанными названиями")
	flagSet.BoolVar(&seedOnly, "seed-only", false, "создать категории и завершить работу")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatalf("❌ Ошибка разбора флагов: %v", err)
	}

	// Загружаем конфигурацию
	cfg := config.LoadConfig()
	if port != "" {
		cfg.Port = port
	}

	store, err := openStorage(cfg)
	if err != nil {
		log.Fatalf("❌ Ошибка при инициализации базы данных: %v", err)
	}
	defer store.Close()

	categoryService := category.NewCategoryService(store)
	if len(categories) > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		created, err := categoryService.EnsureCategories(ctx, categories)
		cancel()
		if err != nil {
			log.Fatalf("❌ Ошибка при создании категорий: %v", err)
		}
		log.Printf("✅ Создано категорий: %d", created)
	}
	if seedOnly {
		return
	}

	jwtService := utils.NewJWTService(cfg.JWTSecret)

	// Redis нужен для кэша объявлений и уведомлений участникам обмена
	var registry storage.AdRegistry = store
	var publisher events.Publisher = events.NoOpPublisher{}
	var adCache *cache.AdCache
	if cfg.RedisConfig.Enabled() {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisConfig.Addr,
			Password: cfg.RedisConfig.Password,
			DB:       cfg.RedisConfig.DB,
		})
		defer client.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := client.Ping(ctx).Err()
		cancel()
		if err != nil {
			log.Fatalf("❌ Ошибка подключения к Redis: %v", err)
		}
		log.Println("✅ Успешное подключение к Redis")

		adCache = cache.NewAdCache(store, client, cfg.RedisConfig.AdCacheTTL)
		registry = adCache
		publisher = events.NewRedisPublisher(client)
	}

	var cloudinaryService *cloudinary.CloudinaryService
	var releaser ad.ImageReleaser
	if cfg.CloudinaryConfig.Enabled() {
		cloudinaryService, err = cloudinary.NewCloudinaryService(cfg.CloudinaryConfig)
		if err != nil {
			log.Fatalf("❌ %v", err)
		}
		releaser = cloudinaryService
	} else {
		log.Println("⚠️ Cloudinary не настроен, изображения объявлений не удаляются")
	}

	// Создаём сервисы
	adService := ad.NewAdService(store, store, releaser, jwtService)
	if adCache != nil {
		adService.OnChange(func(ctx context.Context, prev, _ *models.Ad) {
			if err := adCache.Invalidate(ctx, prev.ID); err != nil {
				log.Printf("Ошибка сброса кэша объявления %s: %v", prev.ID, err)
			}
		})
	}
	proposalService := proposal.NewProposalService(registry, store, publisher, jwtService)

	// Создаём экземпляр Fiber
	app := fiber.New(fiber.Config{
		AppName:      "Flippy Exchange API",
		ErrorHandler: errorHandler,
	})

	// Добавляем middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowCredentials: false,
	}))

	app.Get("/healthz", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Регистрируем маршруты
	categoryService.SetupRoutes(app)
	adService.SetupRoutes(app)
	proposalService.SetupRoutes(app)
	if cloudinaryService != nil {
		cloudinaryService.SetupRoutes(app, middleware.AuthMiddleware(jwtService))
	}

	// Запускаем сервер
	log.Printf("✅ Flippy Exchange API запущен на порту %s", cfg.Port)
	log.Fatal(app.Listen(":" + cfg.Port))
}

// openStorage открывает хранилище согласно DB_DRIVER
func openStorage(cfg *config.Config) (storage.Storage, error) {
	switch cfg.DatabaseConfig.Driver {
	case "sqlite":
		conn, err := db.OpenSQLite(cfg.DatabaseConfig.SQLiteDSN)
		if err != nil {
			return nil, err
		}
		store, err := sqlite.New(conn)
		if err != nil {
			conn.Close()
			return nil, err
		}
		log.Printf("✅ Открыта база SQLite %s", cfg.DatabaseConfig.SQLiteDSN)
		return store, nil
	case "postgres":
		if err := db.InitDB(cfg); err != nil {
			return nil, err
		}
		store := postgres.New(db.Pool)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			return nil, err
		}
		return store, nil
	}
	return nil, fmt.Errorf("неизвестный DB_DRIVER %q", cfg.DatabaseConfig.Driver)
}

// errorHandler обрабатывает ошибки Fiber
func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	// Проверяем, является ли ошибка из Fiber
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}

	// Отправляем ошибку в JSON
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
