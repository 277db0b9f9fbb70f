package category

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rajivgeraev/flippy-exchange/internal/db"
	"github.com/rajivgeraev/flippy-exchange/internal/models"
	"github.com/rajivgeraev/flippy-exchange/internal/storage"
	"github.com/rajivgeraev/flippy-exchange/internal/storage/mocks"
	"github.com/rajivgeraev/flippy-exchange/internal/storage/sqlite"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	conn, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	store, err := sqlite.New(conn)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestEnsureCategories(t *testing.T) {
	ctx := context.Background()

	t.Run("CreatesMissingOnce", func(t *testing.T) {
		svc := NewCategoryService(newStore(t))

		created, err := svc.EnsureCategories(ctx, []string{"Книги", " Игры ", "", "Книги"})
		require.NoError(t, err)
		assert.Equal(t, 2, created)

		created, err = svc.EnsureCategories(ctx, []string{"Книги", "Игры", "Одежда"})
		require.NoError(t, err)
		assert.Equal(t, 1, created)

		categories, err := svc.List(ctx)
		require.NoError(t, err)
		assert.Len(t, categories, 3)
	})

	t.Run("ConcurrentCreateIsSkipped", func(t *testing.T) {
		store := new(mocks.CategoryStore)
		store.On("GetCategoryByTitle", mock.Anything, "Книги").Return(models.Category{}, storage.ErrNotFound)
		store.On("CreateCategory", mock.Anything, models.Category{Title: "Книги"}).Return(models.Category{}, storage.ErrDuplicateTitle)

		created, err := NewCategoryService(store).EnsureCategories(ctx, []string{"Книги"})
		require.NoError(t, err)
		assert.Zero(t, created)
		store.AssertExpectations(t)
	})

	t.Run("LookupFailure", func(t *testing.T) {
		store := new(mocks.CategoryStore)
		store.On("GetCategoryByTitle", mock.Anything, "Книги").Return(models.Category{}, errors.New("db down"))

		_, err := NewCategoryService(store).EnsureCategories(ctx, []string{"Книги"})
		assert.Error(t, err)
		store.AssertNotCalled(t, "CreateCategory", mock.Anything, mock.Anything)
	})
}

func TestGetCategory(t *testing.T) {
	ctx := context.Background()
	svc := NewCategoryService(newStore(t))
	_, err := svc.EnsureCategories(ctx, []string{"Книги"})
	require.NoError(t, err)

	categories, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 1)

	got, err := svc.Get(ctx, categories[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Книги", got.Title)

	_, err = svc.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCategoryRoutes(t *testing.T) {
	svc := NewCategoryService(newStore(t))
	_, err := svc.EnsureCategories(context.Background(), []string{"Книги", "Игры"})
	require.NoError(t, err)

	app := fiber.New()
	svc.SetupRoutes(app)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/categories", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Categories []models.Category `json:"categories"`
		Count      int               `json:"count"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, "Игры", body.Categories[0].Title)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/categories/"+uuid.NewString(), nil))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/categories/bad", nil))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
