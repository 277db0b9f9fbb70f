package models

import (
	"time"

	"github.com/google/uuid"
)

// Condition описывает состояние товара в объявлении
type Condition string

const (
	ConditionNew  Condition = "new"
	ConditionUsed Condition = "used"
)

// Valid проверяет, что значение состояния допустимо
func (c Condition) Valid() bool {
	return c == ConditionNew || c == ConditionUsed
}

// Ad представляет объявление в системе
type Ad struct {
	ID            uuid.UUID `json:"id" db:"id"`
	OwnerID       uuid.UUID `json:"owner_id" db:"owner_id"`
	CategoryID    uuid.UUID `json:"category_id" db:"category_id"`
	Title         string    `json:"title" db:"title"`
	Description   string    `json:"description" db:"description"`
	ImageURL      string    `json:"image_url,omitempty" db:"image_url"`
	ImagePublicID string    `json:"image_public_id,omitempty" db:"image_public_id"`
	Condition     Condition `json:"condition" db:"condition"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// AdFilter задает фильтры для списка объявлений
type AdFilter struct {
	CategoryID *uuid.UUID
	OwnerID    *uuid.UUID
	Condition  Condition
}
