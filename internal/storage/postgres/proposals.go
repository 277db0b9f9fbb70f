package postgres

import (
	"context"
	"fmt"
	"iter"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rajivgeraev/flippy-exchange/internal/models"
	"github.com/rajivgeraev/flippy-exchange/internal/storage"
)

const proposalSelect = `
    SELECT p.id, p.sender_ad_id, p.receiver_ad_id, p.comment, p.status, p.created_at,
           s.owner_id, r.owner_id
    FROM exchange_proposals p
    JOIN ads s ON s.id = p.sender_ad_id
    JOIN ads r ON r.id = p.receiver_ad_id`

func scanProposal(row pgx.Row) (models.ExchangeProposal, error) {
	var p models.ExchangeProposal
	err := row.Scan(
		&p.ID,
		&p.SenderAdID,
		&p.ReceiverAdID,
		&p.Comment,
		&p.Status,
		&p.CreatedAt,
		&p.SenderOwnerID,
		&p.ReceiverOwnerID,
	)
	if err != nil {
		return models.ExchangeProposal{}, translate(err)
	}
	return p, nil
}

func getProposal(ctx context.Context, q querier, id uuid.UUID) (models.ExchangeProposal, error) {
	return scanProposal(q.QueryRow(ctx, proposalSelect+` WHERE p.id = $1`, id))
}

// CreateProposal сохраняет предложение в статусе pending. Повторная пара
// отклоняется ограничением exchange_proposals_pair_key.
func (s *Store) CreateProposal(ctx context.Context, senderAdID, receiverAdID uuid.UUID, comment *string) (models.ExchangeProposal, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return models.ExchangeProposal{}, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	id := uuid.New()
	_, err = tx.Exec(ctx, `
        INSERT INTO exchange_proposals (id, sender_ad_id, receiver_ad_id, comment, status)
        VALUES ($1, $2, $3, $4, $5)
    `, id, senderAdID, receiverAdID, comment, string(models.StatusPending))
	if err != nil {
		return models.ExchangeProposal{}, translate(err)
	}

	p, err := getProposal(ctx, tx, id)
	if err != nil {
		return models.ExchangeProposal{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return models.ExchangeProposal{}, fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return p, nil
}

// GetProposal возвращает предложение по ID
func (s *Store) GetProposal(ctx context.Context, id uuid.UUID) (models.ExchangeProposal, error) {
	return getProposal(ctx, s.pool, id)
}

// ListProposals лениво перебирает предложения участника
func (s *Store) ListProposals(ctx context.Context, filter models.ProposalFilter) iter.Seq2[models.ExchangeProposal, error] {
	return func(yield func(models.ExchangeProposal, error) bool) {
		query := proposalSelect
		args := []interface{}{filter.Participant}

		switch filter.Direction {
		case models.DirectionIncoming:
			query += ` WHERE r.owner_id = $1`
		case models.DirectionOutgoing:
			query += ` WHERE s.owner_id = $1`
		default:
			query += ` WHERE (s.owner_id = $1 OR r.owner_id = $1)`
		}
		if filter.Status != "" {
			query += ` AND p.status = $2`
			args = append(args, string(filter.Status))
		}
		query += ` ORDER BY p.created_at, p.id`

		rows, err := s.pool.Query(ctx, query, args...)
		if err != nil {
			yield(models.ExchangeProposal{}, fmt.Errorf("ошибка запроса предложений обмена: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			p, err := scanProposal(rows)
			if !yield(p, err) || err != nil {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(models.ExchangeProposal{}, err)
		}
	}
}

// UpdateProposalStatus переводит предложение из pending в новый статус.
// Уже рассмотренное предложение не меняется: возвращается ErrAlreadyResolved.
func (s *Store) UpdateProposalStatus(ctx context.Context, id uuid.UUID, status models.ProposalStatus) (models.ExchangeProposal, error) {
	tag, err := s.pool.Exec(ctx, `
        UPDATE exchange_proposals SET status = $1
        WHERE id = $2 AND status = $3
    `, string(status), id, string(models.StatusPending))
	if err != nil {
		return models.ExchangeProposal{}, translate(err)
	}
	if tag.RowsAffected() == 0 {
		// строки нет или статус уже не pending
		if _, err := s.GetProposal(ctx, id); err != nil {
			return models.ExchangeProposal{}, err
		}
		return models.ExchangeProposal{}, storage.ErrAlreadyResolved
	}
	return s.GetProposal(ctx, id)
}

// DeleteProposal удаляет предложение
func (s *Store) DeleteProposal(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM exchange_proposals WHERE id = $1`, id)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

var _ storage.ProposalStore = (*Store)(nil)
