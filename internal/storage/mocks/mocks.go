// Package mocks содержит testify-моки интерфейсов storage.
package mocks

import (
	"context"
	"iter"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/rajivgeraev/flippy-exchange/internal/models"
	"github.com/rajivgeraev/flippy-exchange/internal/storage"
)

// AdRegistry мок storage.AdRegistry
type AdRegistry struct {
	mock.Mock
}

var _ storage.AdRegistry = (*AdRegistry)(nil)

// GetAd provides a mock function with given fields: ctx, id
func (_m *AdRegistry) GetAd(ctx context.Context, id uuid.UUID) (models.Ad, error) {
	ret := _m.Called(ctx, id)
	return ret.Get(0).(models.Ad), ret.Error(1)
}

// ProposalStore мок storage.ProposalStore
type ProposalStore struct {
	mock.Mock
}

var _ storage.ProposalStore = (*ProposalStore)(nil)

// CreateProposal provides a mock function with given fields: ctx, senderAdID, receiverAdID, comment
func (_m *ProposalStore) CreateProposal(ctx context.Context, senderAdID, receiverAdID uuid.UUID, comment *string) (models.ExchangeProposal, error) {
	ret := _m.Called(ctx, senderAdID, receiverAdID, comment)
	return ret.Get(0).(models.ExchangeProposal), ret.Error(1)
}

// GetProposal provides a mock function with given fields: ctx, id
func (_m *ProposalStore) GetProposal(ctx context.Context, id uuid.UUID) (models.ExchangeProposal, error) {
	ret := _m.Called(ctx, id)
	return ret.Get(0).(models.ExchangeProposal), ret.Error(1)
}

// ListProposals provides a mock function with given fields: ctx, filter.
// Возвращаемые значения: []models.ExchangeProposal и error; ошибка
// выдается последним элементом последовательности.
func (_m *ProposalStore) ListProposals(ctx context.Context, filter models.ProposalFilter) iter.Seq2[models.ExchangeProposal, error] {
	ret := _m.Called(ctx, filter)
	items, _ := ret.Get(0).([]models.ExchangeProposal)
	err := ret.Error(1)
	return func(yield func(models.ExchangeProposal, error) bool) {
		for _, p := range items {
			if !yield(p, nil) {
				return
			}
		}
		if err != nil {
			yield(models.ExchangeProposal{}, err)
		}
	}
}

// UpdateProposalStatus provides a mock function with given fields: ctx, id, status
func (_m *ProposalStore) UpdateProposalStatus(ctx context.Context, id uuid.UUID, status models.ProposalStatus) (models.ExchangeProposal, error) {
	ret := _m.Called(ctx, id, status)
	return ret.Get(0).(models.ExchangeProposal), ret.Error(1)
}

// DeleteProposal provides a mock function with given fields: ctx, id
func (_m *ProposalStore) DeleteProposal(ctx context.Context, id uuid.UUID) error {
	ret := _m.Called(ctx, id)
	return ret.Error(0)
}

// CategoryStore мок storage.CategoryStore
type CategoryStore struct {
	mock.Mock
}

var _ storage.CategoryStore = (*CategoryStore)(nil)

// CreateCategory provides a mock function with given fields: ctx, c
func (_m *CategoryStore) CreateCategory(ctx context.Context, c models.Category) (models.Category, error) {
	ret := _m.Called(ctx, c)
	return ret.Get(0).(models.Category), ret.Error(1)
}

// GetCategory provides a mock function with given fields: ctx, id
func (_m *CategoryStore) GetCategory(ctx context.Context, id uuid.UUID) (models.Category, error) {
	ret := _m.Called(ctx, id)
	return ret.Get(0).(models.Category), ret.Error(1)
}

// GetCategoryByTitle provides a mock function with given fields: ctx, title
func (_m *CategoryStore) GetCategoryByTitle(ctx context.Context, title string) (models.Category, error) {
	ret := _m.Called(ctx, title)
	return ret.Get(0).(models.Category), ret.Error(1)
}

// ListCategories provides a mock function with given fields: ctx
func (_m *CategoryStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	ret := _m.Called(ctx)
	categories, _ := ret.Get(0).([]models.Category)
	return categories, ret.Error(1)
}
