package models

import (
	"time"

	"github.com/google/uuid"
)

// ProposalStatus определяет статус предложения обмена
type ProposalStatus string

const (
	StatusPending  ProposalStatus = "pending"
	StatusApproved ProposalStatus = "approved"
	StatusRejected ProposalStatus = "rejected"
)

// Valid проверяет, что статус входит в допустимый набор
func (s ProposalStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Terminal сообщает, что предложение уже рассмотрено
func (s ProposalStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// ExchangeProposal представляет предложение обмена одного объявления на другое.
// SenderOwnerID и ReceiverOwnerID подтягиваются из объявлений при чтении.
type ExchangeProposal struct {
	ID              uuid.UUID      `json:"id"`
	SenderAdID      uuid.UUID      `json:"sender_ad_id"`
	ReceiverAdID    uuid.UUID      `json:"receiver_ad_id"`
	Comment         *string        `json:"comment,omitempty"`
	Status          ProposalStatus `json:"status"`
	CreatedAt       time.Time      `json:"created_at"`
	SenderOwnerID   uuid.UUID      `json:"sender_owner_id"`
	ReceiverOwnerID uuid.UUID      `json:"receiver_owner_id"`
}

// Direction задает направление предложений относительно участника
type Direction string

const (
	DirectionAll      Direction = "all"
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
)

// ProposalFilter задает фильтры для списка предложений.
// Participant обязателен: в выборку попадают только предложения,
// где он владеет объявлением отправителя или получателя.
type ProposalFilter struct {
	Participant uuid.UUID
	Direction   Direction
	Status      ProposalStatus
}
