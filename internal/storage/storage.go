package storage

import (
	"context"
	"iter"

	"github.com/google/uuid"

	"github.com/rajivgeraev/flippy-exchange/internal/models"
)

// Storage объединяет все операции слоя данных. Компоненты должны
// зависеть от более узких интерфейсов.
type Storage interface {
	AdStore
	CategoryStore
	ProposalStore
	Close() error
}

// AdRegistry отвечает на вопросы о существовании и владельце объявления.
type AdRegistry interface {
	GetAd(ctx context.Context, id uuid.UUID) (models.Ad, error)
}

// AdStore хранит объявления.
type AdStore interface {
	AdRegistry
	CreateAd(ctx context.Context, ad models.Ad) (models.Ad, error)
	// UpdateAd сохраняет новую версию и возвращает предыдущую.
	UpdateAd(ctx context.Context, ad models.Ad) (models.Ad, error)
	// DeleteAd удаляет объявление вместе с его предложениями и возвращает удаленную запись.
	DeleteAd(ctx context.Context, id uuid.UUID) (models.Ad, error)
	ListAds(ctx context.Context, filter models.AdFilter) ([]models.Ad, error)
}

// CategoryStore хранит категории.
type CategoryStore interface {
	CreateCategory(ctx context.Context, c models.Category) (models.Category, error)
	GetCategory(ctx context.Context, id uuid.UUID) (models.Category, error)
	GetCategoryByTitle(ctx context.Context, title string) (models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
}

// ProposalReader читает предложения обмена.
type ProposalReader interface {
	GetProposal(ctx context.Context, id uuid.UUID) (models.ExchangeProposal, error)
	// ListProposals лениво перебирает предложения участника в порядке created_at, id.
	// Пока перебор не закончен, соединение занято: SQLite работает с одним соединением,
	// поэтому другие вызовы хранилища внутри цикла блокируются. Сначала соберите результат.
	ListProposals(ctx context.Context, filter models.ProposalFilter) iter.Seq2[models.ExchangeProposal, error]
}

// ProposalStore хранит предложения обмена. Уникальность пары
// (sender_ad_id, receiver_ad_id) обеспечивается самим хранилищем.
type ProposalStore interface {
	ProposalReader
	CreateProposal(ctx context.Context, senderAdID, receiverAdID uuid.UUID, comment *string) (models.ExchangeProposal, error)
	// UpdateProposalStatus меняет статус только из pending, иначе ErrAlreadyResolved.
	UpdateProposalStatus(ctx context.Context, id uuid.UUID, status models.ProposalStatus) (models.ExchangeProposal, error)
	DeleteProposal(ctx context.Context, id uuid.UUID) error
}
