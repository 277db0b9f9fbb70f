package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/rajivgeraev/flippy-exchange/internal/models"
	"github.com/rajivgeraev/flippy-exchange/internal/storage"
)

type adRow struct {
	ID            uuid.UUID `db:"id"`
	OwnerID       uuid.UUID `db:"owner_id"`
	CategoryID    uuid.UUID `db:"category_id"`
	Title         string    `db:"title"`
	Description   string    `db:"description"`
	ImageURL      string    `db:"image_url"`
	ImagePublicID string    `db:"image_public_id"`
	Condition     string    `db:"condition"`
	CreatedAt     string    `db:"created_at"`
}

func (r adRow) toModel() (models.Ad, error) {
	createdAt, err := parseTime(r.CreatedAt)
	if err != nil {
		return models.Ad{}, err
	}
	return models.Ad{
		ID:            r.ID,
		OwnerID:       r.OwnerID,
		CategoryID:    r.CategoryID,
		Title:         r.Title,
		Description:   r.Description,
		ImageURL:      r.ImageURL,
		ImagePublicID: r.ImagePublicID,
		Condition:     models.Condition(r.Condition),
		CreatedAt:     createdAt,
	}, nil
}

const adColumns = `id, owner_id, category_id, title, description, image_url, image_public_id, condition, created_at`

// GetAd возвращает объявление по ID
func (s *Store) GetAd(ctx context.Context, id uuid.UUID) (models.Ad, error) {
	return getAd(ctx, s.db, id)
}

func getAd(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID) (models.Ad, error) {
	var row adRow
	err := sqlx.GetContext(ctx, q, &row, `SELECT `+adColumns+` FROM ads WHERE id = ?`, id)
	if err != nil {
		return models.Ad{}, translate(err)
	}
	return row.toModel()
}

// CreateAd сохраняет новое объявление
func (s *Store) CreateAd(ctx context.Context, ad models.Ad) (models.Ad, error) {
	if ad.ID == uuid.Nil {
		ad.ID = uuid.New()
	}
	if ad.Condition == "" {
		ad.Condition = models.ConditionNew
	}
	ad.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)

	_, err := s.db.ExecContext(ctx, `
        INSERT INTO ads (`+adColumns+`)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
    `, ad.ID, ad.OwnerID, ad.CategoryID, ad.Title, ad.Description, ad.ImageURL, ad.ImagePublicID,
		string(ad.Condition), formatTime(ad.CreatedAt))
	if err != nil {
		return models.Ad{}, translate(err)
	}
	return ad, nil
}

// UpdateAd сохраняет изменяемые поля объявления и возвращает предыдущую версию
func (s *Store) UpdateAd(ctx context.Context, ad models.Ad) (models.Ad, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Ad{}, err
	}
	defer tx.Rollback()

	prev, err := getAd(ctx, tx, ad.ID)
	if err != nil {
		return models.Ad{}, err
	}

	_, err = tx.ExecContext(ctx, `
        UPDATE ads
        SET category_id = ?, title = ?, description = ?, image_url = ?, image_public_id = ?, condition = ?
        WHERE id = ?
    `, ad.CategoryID, ad.Title, ad.Description, ad.ImageURL, ad.ImagePublicID, string(ad.Condition), ad.ID)
	if err != nil {
		return models.Ad{}, translate(err)
	}

	if err = tx.Commit(); err != nil {
		return models.Ad{}, err
	}
	return prev, nil
}

// DeleteAd удаляет объявление и все предложения, в которых оно участвует
func (s *Store) DeleteAd(ctx context.Context, id uuid.UUID) (models.Ad, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Ad{}, err
	}
	defer tx.Rollback()

	ad, err := getAd(ctx, tx, id)
	if err != nil {
		return models.Ad{}, err
	}

	if _, err = tx.ExecContext(ctx, `
        DELETE FROM exchange_proposals WHERE sender_ad_id = ? OR receiver_ad_id = ?
    `, id, id); err != nil {
		return models.Ad{}, fmt.Errorf("ошибка удаления предложений объявления: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM ads WHERE id = ?`, id); err != nil {
		return models.Ad{}, translate(err)
	}

	if err = tx.Commit(); err != nil {
		return models.Ad{}, err
	}
	return ad, nil
}

// ListAds возвращает объявления, новые первыми
func (s *Store) ListAds(ctx context.Context, filter models.AdFilter) ([]models.Ad, error) {
	var where []string
	var args []interface{}
	if filter.CategoryID != nil {
		where = append(where, "category_id = ?")
		args = append(args, *filter.CategoryID)
	}
	if filter.OwnerID != nil {
		where = append(where, "owner_id = ?")
		args = append(args, *filter.OwnerID)
	}
	if filter.Condition != "" {
		where = append(where, "condition = ?")
		args = append(args, string(filter.Condition))
	}

	query := `SELECT ` + adColumns + ` FROM ads`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id`

	var rows []adRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	ads := make([]models.Ad, 0, len(rows))
	for _, row := range rows {
		ad, err := row.toModel()
		if err != nil {
			return nil, err
		}
		ads = append(ads, ad)
	}
	return ads, nil
}

var _ storage.AdStore = (*Store)(nil)
