package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rajivgeraev/flippy-exchange/internal/models"
	"github.com/rajivgeraev/flippy-exchange/internal/storage"
)

const adColumns = `id, owner_id, category_id, title, description, image_url, image_public_id, condition, created_at`

func scanAd(row pgx.Row) (models.Ad, error) {
	var ad models.Ad
	err := row.Scan(
		&ad.ID,
		&ad.OwnerID,
		&ad.CategoryID,
		&ad.Title,
		&ad.Description,
		&ad.ImageURL,
		&ad.ImagePublicID,
		&ad.Condition,
		&ad.CreatedAt,
	)
	if err != nil {
		return models.Ad{}, translate(err)
	}
	return ad, nil
}

// GetAd возвращает объявление по ID
func (s *Store) GetAd(ctx context.Context, id uuid.UUID) (models.Ad, error) {
	return scanAd(s.pool.QueryRow(ctx, `SELECT `+adColumns+` FROM ads WHERE id = $1`, id))
}

// CreateAd сохраняет новое объявление
func (s *Store) CreateAd(ctx context.Context, ad models.Ad) (models.Ad, error) {
	if ad.ID == uuid.Nil {
		ad.ID = uuid.New()
	}
	if ad.Condition == "" {
		ad.Condition = models.ConditionNew
	}

	return scanAd(s.pool.QueryRow(ctx, `
        INSERT INTO ads (id, owner_id, category_id, title, description, image_url, image_public_id, condition)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING `+adColumns,
		ad.ID, ad.OwnerID, ad.CategoryID, ad.Title, ad.Description, ad.ImageURL, ad.ImagePublicID, string(ad.Condition)))
}

// UpdateAd сохраняет изменяемые поля объявления и возвращает предыдущую версию
func (s *Store) UpdateAd(ctx context.Context, ad models.Ad) (models.Ad, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return models.Ad{}, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	prev, err := scanAd(tx.QueryRow(ctx, `SELECT `+adColumns+` FROM ads WHERE id = $1 FOR UPDATE`, ad.ID))
	if err != nil {
		return models.Ad{}, err
	}

	_, err = tx.Exec(ctx, `
        UPDATE ads
        SET category_id = $1, title = $2, description = $3, image_url = $4, image_public_id = $5, condition = $6
        WHERE id = $7
    `, ad.CategoryID, ad.Title, ad.Description, ad.ImageURL, ad.ImagePublicID, string(ad.Condition), ad.ID)
	if err != nil {
		return models.Ad{}, translate(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return models.Ad{}, fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return prev, nil
}

// DeleteAd удаляет объявление и все предложения, в которых оно участвует
func (s *Store) DeleteAd(ctx context.Context, id uuid.UUID) (models.Ad, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return models.Ad{}, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	ad, err := scanAd(tx.QueryRow(ctx, `SELECT `+adColumns+` FROM ads WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return models.Ad{}, err
	}

	if _, err = tx.Exec(ctx, `
        DELETE FROM exchange_proposals WHERE sender_ad_id = $1 OR receiver_ad_id = $1
    `, id); err != nil {
		return models.Ad{}, fmt.Errorf("ошибка удаления предложений объявления: %w", err)
	}
	if _, err = tx.Exec(ctx, `DELETE FROM ads WHERE id = $1`, id); err != nil {
		return models.Ad{}, translate(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return models.Ad{}, fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return ad, nil
}

// ListAds возвращает объявления, новые первыми
func (s *Store) ListAds(ctx context.Context, filter models.AdFilter) ([]models.Ad, error) {
	var where []string
	var args []interface{}
	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		where = append(where, fmt.Sprintf("category_id = $%d", len(args)))
	}
	if filter.OwnerID != nil {
		args = append(args, *filter.OwnerID)
		where = append(where, fmt.Sprintf("owner_id = $%d", len(args)))
	}
	if filter.Condition != "" {
		args = append(args, string(filter.Condition))
		where = append(where, fmt.Sprintf("condition = $%d", len(args)))
	}

	query := `SELECT ` + adColumns + ` FROM ads`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса объявлений: %w", err)
	}
	defer rows.Close()

	ads := []models.Ad{}
	for rows.Next() {
		ad, err := scanAd(rows)
		if err != nil {
			return nil, err
		}
		ads = append(ads, ad)
	}
	return ads, rows.Err()
}

var _ storage.AdStore = (*Store)(nil)
