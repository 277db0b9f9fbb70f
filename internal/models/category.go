package models

import "github.com/google/uuid"

// Category представляет категорию объявлений
type Category struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
}
