package proposal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rajivgeraev/flippy-exchange/internal/authz"
	"github.com/rajivgeraev/flippy-exchange/internal/events"
	applog "github.com/rajivgeraev/flippy-exchange/internal/log"
	"github.com/rajivgeraev/flippy-exchange/internal/models"
	"github.com/rajivgeraev/flippy-exchange/internal/storage"
	"github.com/rajivgeraev/flippy-exchange/internal/utils"
)

var (
	ErrNotFound        = errors.New("предложение обмена не найдено")
	ErrAdNotFound      = errors.New("объявление не найдено")
	ErrAlreadyProposed = errors.New("такое предложение обмена уже существует")
	ErrInvalidStatus   = errors.New("недопустимый статус предложения обмена")
	ErrAlreadyResolved = errors.New("предложение обмена уже рассмотрено")
	ErrInvalidFilter   = errors.New("недопустимый фильтр предложений")

	ErrNotOwner    = authz.ErrNotOwner
	ErrSelfTarget  = authz.ErrSelfTarget
	ErrNotReceiver = authz.ErrNotReceiver
	ErrNotSender   = authz.ErrNotSender
)

// ProposalService управляет жизненным циклом предложений обмена
type ProposalService struct {
	ads        storage.AdRegistry
	store      storage.ProposalStore
	publisher  events.Publisher
	jwtService *utils.JWTService
}

// NewProposalService создает новый экземпляр ProposalService
func NewProposalService(ads storage.AdRegistry, store storage.ProposalStore, publisher events.Publisher, jwtService *utils.JWTService) *ProposalService {
	if publisher == nil {
		publisher = events.NoOpPublisher{}
	}
	return &ProposalService{
		ads:        ads,
		store:      store,
		publisher:  publisher,
		jwtService: jwtService,
	}
}

func parties(p models.ExchangeProposal) authz.Parties {
	return authz.Parties{SenderOwner: p.SenderOwnerID, ReceiverOwner: p.ReceiverOwnerID}
}

func (s *ProposalService) resolveAd(ctx context.Context, id uuid.UUID) (models.Ad, error) {
	ad, err := s.ads.GetAd(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return models.Ad{}, ErrAdNotFound
	}
	if err != nil {
		return models.Ad{}, fmt.Errorf("ошибка при получении объявления %s: %w", id, err)
	}
	return ad, nil
}

// Create создает предложение обмена объявления senderAdID на receiverAdID
func (s *ProposalService) Create(ctx context.Context, actor, senderAdID, receiverAdID uuid.UUID, comment *string) (models.ExchangeProposal, error) {
	senderAd, err := s.resolveAd(ctx, senderAdID)
	if err != nil {
		return models.ExchangeProposal{}, err
	}
	receiverAd, err := s.resolveAd(ctx, receiverAdID)
	if err != nil {
		return models.ExchangeProposal{}, err
	}

	res := authz.Check(actor, authz.ActionCreate, authz.Parties{
		SenderOwner:   senderAd.OwnerID,
		ReceiverOwner: receiverAd.OwnerID,
	})
	if !res.Allowed() {
		return models.ExchangeProposal{}, res.Err()
	}

	if comment != nil && strings.TrimSpace(*comment) == "" {
		comment = nil
	}

	p, err := s.store.CreateProposal(ctx, senderAdID, receiverAdID, comment)
	switch {
	case errors.Is(err, storage.ErrDuplicatePair):
		return models.ExchangeProposal{}, ErrAlreadyProposed
	case errors.Is(err, storage.ErrNotFound):
		// объявление удалено между проверкой и вставкой
		return models.ExchangeProposal{}, ErrAdNotFound
	case err != nil:
		return models.ExchangeProposal{}, fmt.Errorf("ошибка при создании предложения обмена: %w", err)
	}

	s.notify(ctx, events.EventProposalCreated, p.ReceiverOwnerID, p)
	return p, nil
}

// Get возвращает предложение, если actor в нем участвует.
// Посторонний получает ErrNotFound, чтобы не раскрывать существование записи.
func (s *ProposalService) Get(ctx context.Context, actor, id uuid.UUID) (models.ExchangeProposal, error) {
	p, err := s.store.GetProposal(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return models.ExchangeProposal{}, ErrNotFound
	}
	if err != nil {
		return models.ExchangeProposal{}, fmt.Errorf("ошибка при получении предложения обмена: %w", err)
	}

	if !authz.CanRead(actor, parties(p)).Allowed() {
		return models.ExchangeProposal{}, ErrNotFound
	}
	return p, nil
}

// List возвращает последовательность предложений, где actor отправитель или получатель
func (s *ProposalService) List(ctx context.Context, actor uuid.UUID, direction models.Direction, status models.ProposalStatus) (iter.Seq2[models.ExchangeProposal, error], error) {
	switch direction {
	case "":
		direction = models.DirectionAll
	case models.DirectionAll, models.DirectionIncoming, models.DirectionOutgoing:
	default:
		return nil, ErrInvalidFilter
	}
	if status != "" && !status.Valid() {
		return nil, ErrInvalidStatus
	}

	return s.store.ListProposals(ctx, models.ProposalFilter{
		Participant: actor,
		Direction:   direction,
		Status:      status,
	}), nil
}

// UpdateStatus одобряет или отклоняет предложение. Доступно только владельцу
// объявления получателя и только пока предложение в статусе pending.
func (s *ProposalService) UpdateStatus(ctx context.Context, actor, id uuid.UUID, status models.ProposalStatus) (models.ExchangeProposal, error) {
	p, err := s.Get(ctx, actor, id)
	if err != nil {
		return models.ExchangeProposal{}, err
	}

	if res := authz.Check(actor, authz.ActionUpdateStatus, parties(p)); !res.Allowed() {
		return models.ExchangeProposal{}, res.Err()
	}
	if !status.Terminal() {
		return models.ExchangeProposal{}, ErrInvalidStatus
	}
	if p.Status.Terminal() {
		return models.ExchangeProposal{}, ErrAlreadyResolved
	}

	// хранилище меняет статус только из pending, параллельный запрос получит ErrAlreadyResolved
	updated, err := s.store.UpdateProposalStatus(ctx, id, status)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return models.ExchangeProposal{}, ErrNotFound
	case errors.Is(err, storage.ErrAlreadyResolved):
		return models.ExchangeProposal{}, ErrAlreadyResolved
	case err != nil:
		return models.ExchangeProposal{}, fmt.Errorf("ошибка при обновлении статуса предложения: %w", err)
	}

	s.notify(ctx, events.EventProposalStatusChanged, updated.SenderOwnerID, updated)
	return updated, nil
}

// Delete удаляет предложение. Доступно только владельцу объявления отправителя.
func (s *ProposalService) Delete(ctx context.Context, actor, id uuid.UUID) error {
	p, err := s.Get(ctx, actor, id)
	if err != nil {
		return err
	}

	if res := authz.Check(actor, authz.ActionDelete, parties(p)); !res.Allowed() {
		return res.Err()
	}

	err = s.store.DeleteProposal(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("ошибка при удалении предложения обмена: %w", err)
	}

	s.notify(ctx, events.EventProposalDeleted, p.ReceiverOwnerID, p)
	return nil
}

// notify уведомляет второго участника. Ошибка доставки только логируется.
func (s *ProposalService) notify(ctx context.Context, eventType events.EventType, recipient uuid.UUID, p models.ExchangeProposal) {
	payload, err := json.Marshal(p)
	if err != nil {
		applog.Error(nil, string(eventType), err, nil)
		return
	}

	err = s.publisher.Publish(ctx, events.Event{
		Type:       eventType,
		UserID:     recipient.String(),
		ProposalID: p.ID.String(),
		Timestamp:  time.Now(),
		Payload:    payload,
	})
	if err != nil {
		applog.Error(nil, string(eventType), err, map[string]any{"proposal_id": p.ID.String()})
	}
}
