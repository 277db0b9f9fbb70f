// Package authz решает, может ли пользователь выполнить действие над
// предложением обмена. Решения чистые: пакет не ходит в хранилище и
// получает владельцев объявлений от вызывающего кода.
package authz

import (
	"errors"

	"github.com/google/uuid"
)

// Action действие над предложением обмена
type Action int

const (
	ActionCreate Action = iota
	ActionRead
	ActionUpdateStatus
	ActionDelete
)

func (a Action) String() string {
	switch a {
	case ActionCreate:
		return "create"
	case ActionRead:
		return "read"
	case ActionUpdateStatus:
		return "update_status"
	case ActionDelete:
		return "delete"
	}
	return "unknown"
}

// Decision результат проверки
type Decision int

const (
	Deny Decision = iota
	Allow
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

// Reason причина отказа
type Reason int

const (
	ReasonNone Reason = iota
	// ReasonNotOwner пользователь не владеет объявлением отправителя
	ReasonNotOwner
	// ReasonSelfTarget пользователь владеет объявлением получателя
	ReasonSelfTarget
	// ReasonNotReceiver статус меняет только владелец объявления получателя
	ReasonNotReceiver
	// ReasonNotSender удаляет только владелец объявления отправителя
	ReasonNotSender
	// ReasonNotParticipant пользователь не участвует в предложении
	ReasonNotParticipant
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonNotOwner:
		return "not_owner"
	case ReasonSelfTarget:
		return "self_target"
	case ReasonNotReceiver:
		return "not_receiver"
	case ReasonNotSender:
		return "not_sender"
	case ReasonNotParticipant:
		return "not_participant"
	}
	return "unknown"
}

var (
	ErrNotOwner       = errors.New("объявление отправителя принадлежит другому пользователю")
	ErrSelfTarget     = errors.New("нельзя предложить обмен самому себе")
	ErrNotReceiver    = errors.New("только получатель может изменить статус предложения")
	ErrNotSender      = errors.New("только отправитель может удалить предложение")
	ErrNotParticipant = errors.New("пользователь не участвует в предложении")
)

// Result итог проверки. Reason заполнен только при Deny.
type Result struct {
	Decision Decision
	Reason   Reason
}

// Allowed сообщает, разрешено ли действие
func (r Result) Allowed() bool {
	return r.Decision == Allow
}

// Err возвращает ошибку, соответствующую причине отказа, или nil
func (r Result) Err() error {
	if r.Allowed() {
		return nil
	}
	switch r.Reason {
	case ReasonNotOwner:
		return ErrNotOwner
	case ReasonSelfTarget:
		return ErrSelfTarget
	case ReasonNotReceiver:
		return ErrNotReceiver
	case ReasonNotSender:
		return ErrNotSender
	}
	return ErrNotParticipant
}

// Parties владельцы объявлений, участвующих в предложении
type Parties struct {
	SenderOwner   uuid.UUID
	ReceiverOwner uuid.UUID
}

func allow() Result { return Result{Decision: Allow} }

func deny(r Reason) Result { return Result{Decision: Deny, Reason: r} }

// Check применяет правила для действия. Правила проверяются по порядку,
// решает первое подходящее.
func Check(actor uuid.UUID, action Action, p Parties) Result {
	switch action {
	case ActionCreate:
		if actor != p.SenderOwner {
			return deny(ReasonNotOwner)
		}
		if actor == p.ReceiverOwner {
			return deny(ReasonSelfTarget)
		}
		return allow()
	case ActionUpdateStatus:
		if actor != p.ReceiverOwner {
			return deny(ReasonNotReceiver)
		}
		return allow()
	case ActionDelete:
		if actor != p.SenderOwner {
			return deny(ReasonNotSender)
		}
		return allow()
	case ActionRead:
		return CanRead(actor, p)
	}
	return deny(ReasonNotParticipant)
}

// CanRead разрешает чтение обоим участникам
func CanRead(actor uuid.UUID, p Parties) Result {
	if actor == p.SenderOwner || actor == p.ReceiverOwner {
		return allow()
	}
	return deny(ReasonNotParticipant)
}
