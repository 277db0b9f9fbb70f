package sqlite

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/rajivgeraev/flippy-exchange/internal/models"
	"github.com/rajivgeraev/flippy-exchange/internal/storage"
)

type proposalRow struct {
	ID              uuid.UUID `db:"id"`
	SenderAdID      uuid.UUID `db:"sender_ad_id"`
	ReceiverAdID    uuid.UUID `db:"receiver_ad_id"`
	Comment         *string   `db:"comment"`
	Status          string    `db:"status"`
	CreatedAt       string    `db:"created_at"`
	SenderOwnerID   uuid.UUID `db:"sender_owner_id"`
	ReceiverOwnerID uuid.UUID `db:"receiver_owner_id"`
}

func (r proposalRow) toModel() (models.ExchangeProposal, error) {
	createdAt, err := parseTime(r.CreatedAt)
	if err != nil {
		return models.ExchangeProposal{}, err
	}
	return models.ExchangeProposal{
		ID:              r.ID,
		SenderAdID:      r.SenderAdID,
		ReceiverAdID:    r.ReceiverAdID,
		Comment:         r.Comment,
		Status:          models.ProposalStatus(r.Status),
		CreatedAt:       createdAt,
		SenderOwnerID:   r.SenderOwnerID,
		ReceiverOwnerID: r.ReceiverOwnerID,
	}, nil
}

const proposalSelect = `
    SELECT p.id, p.sender_ad_id, p.receiver_ad_id, p.comment, p.status, p.created_at,
           s.owner_id AS sender_owner_id, r.owner_id AS receiver_owner_id
    FROM exchange_proposals p
    JOIN ads s ON s.id = p.sender_ad_id
    JOIN ads r ON r.id = p.receiver_ad_id`

func getProposal(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID) (models.ExchangeProposal, error) {
	var row proposalRow
	if err := sqlx.GetContext(ctx, q, &row, proposalSelect+` WHERE p.id = ?`, id); err != nil {
		return models.ExchangeProposal{}, translate(err)
	}
	return row.toModel()
}

// CreateProposal сохраняет предложение в статусе pending. Повторная пара
// отклоняется ограничением UNIQUE и возвращается как storage.ErrDuplicatePair.
func (s *Store) CreateProposal(ctx context.Context, senderAdID, receiverAdID uuid.UUID, comment *string) (models.ExchangeProposal, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.ExchangeProposal{}, err
	}
	defer tx.Rollback()

	id := uuid.New()
	_, err = tx.ExecContext(ctx, `
        INSERT INTO exchange_proposals (id, sender_ad_id, receiver_ad_id, comment, status, created_at)
        VALUES (?, ?, ?, ?, ?, ?)
    `, id, senderAdID, receiverAdID, comment, string(models.StatusPending), formatTime(time.Now()))
	if err != nil {
		return models.ExchangeProposal{}, translate(err)
	}

	p, err := getProposal(ctx, tx, id)
	if err != nil {
		return models.ExchangeProposal{}, err
	}

	if err = tx.Commit(); err != nil {
		return models.ExchangeProposal{}, err
	}
	return p, nil
}

// GetProposal возвращает предложение по ID
func (s *Store) GetProposal(ctx context.Context, id uuid.UUID) (models.ExchangeProposal, error) {
	return getProposal(ctx, s.db, id)
}

// ListProposals лениво перебирает предложения участника
func (s *Store) ListProposals(ctx context.Context, filter models.ProposalFilter) iter.Seq2[models.ExchangeProposal, error] {
	return func(yield func(models.ExchangeProposal, error) bool) {
		query := proposalSelect
		var args []interface{}

		switch filter.Direction {
		case models.DirectionIncoming:
			query += ` WHERE r.owner_id = ?`
			args = append(args, filter.Participant)
		case models.DirectionOutgoing:
			query += ` WHERE s.owner_id = ?`
			args = append(args, filter.Participant)
		default:
			query += ` WHERE (s.owner_id = ? OR r.owner_id = ?)`
			args = append(args, filter.Participant, filter.Participant)
		}
		if filter.Status != "" {
			query += ` AND p.status = ?`
			args = append(args, string(filter.Status))
		}
		query += ` ORDER BY p.created_at, p.id`

		rows, err := s.db.QueryxContext(ctx, query, args...)
		if err != nil {
			yield(models.ExchangeProposal{}, fmt.Errorf("ошибка запроса предложений обмена: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var row proposalRow
			if err := rows.StructScan(&row); err != nil {
				yield(models.ExchangeProposal{}, fmt.Errorf("ошибка сканирования строки: %w", err))
				return
			}
			p, err := row.toModel()
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
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.ExchangeProposal{}, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
        UPDATE exchange_proposals SET status = ?
        WHERE id = ? AND status = ?
    `, string(status), id, string(models.StatusPending))
	if err != nil {
		return models.ExchangeProposal{}, translate(err)
	}
	if err = rowsAffected(res); err != nil {
		// строки нет или статус уже не pending
		if _, getErr := getProposal(ctx, tx, id); getErr != nil {
			return models.ExchangeProposal{}, getErr
		}
		return models.ExchangeProposal{}, storage.ErrAlreadyResolved
	}

	p, err := getProposal(ctx, tx, id)
	if err != nil {
		return models.ExchangeProposal{}, err
	}
	if err = tx.Commit(); err != nil {
		return models.ExchangeProposal{}, err
	}
	return p, nil
}

// DeleteProposal удаляет предложение
func (s *Store) DeleteProposal(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM exchange_proposals WHERE id = ?`, id)
	if err != nil {
		return translate(err)
	}
	return rowsAffected(res)
}

var _ storage.ProposalStore = (*Store)(nil)
