// Package policy описывает, кто и какие действия может выполнять над сущностями магазина.
//
// Проверка идет в две фазы. Check работает только с таблицей и актором и
// выполняется до загрузки данных. Если уровень действия - OwnerOrAdmin,
// Check сообщает, что нужна вторая фаза, и сервис после загрузки строки
// вызывает CheckOwner.
package policy

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("permission denied")
)

// Level - уровень доступа к действию
type Level int

const (
	Anyone Level = iota
	Authenticated
	OwnerOrAdmin
	Admin
)

func (l Level) String() string {
	switch l {
	case Anyone:
		return "anyone"
	case Authenticated:
		return "authenticated"
	case OwnerOrAdmin:
		return "owner-or-admin"
	case Admin:
		return "admin"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

type Action string

const (
	ActionList     Action = "list"
	ActionRetrieve Action = "retrieve"
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionDestroy  Action = "destroy"
)

type Entity string

const (
	EntityProduct    Entity = "product"
	EntityCollection Entity = "collection"
	EntityOrder      Entity = "order"
	EntityReview     Entity = "review"
)

// Actor - тот, кто выполняет запрос. Нулевой ID означает анонима.
type Actor struct {
	ID      uuid.UUID
	IsAdmin bool
}

// Anonymous - актор без токена
var Anonymous = Actor{}

func (a Actor) IsAuthenticated() bool {
	return a.ID != uuid.Nil
}

// Rules - уровни одной сущности: явные по действиям и запасной для остальных
type Rules struct {
	Actions  map[Action]Level
	Fallback Level
}

func (r Rules) level(action Action) Level {
	if lvl, ok := r.Actions[action]; ok {
		return lvl
	}
	return r.Fallback
}

// Policy - неизменяемая после создания таблица правил, безопасна для конкурентного чтения
type Policy struct {
	rules map[Entity]Rules
}

func New(rules map[Entity]Rules) *Policy {
	copied := make(map[Entity]Rules, len(rules))
	for entity, r := range rules {
		actions := make(map[Action]Level, len(r.Actions))
		for a, lvl := range r.Actions {
			actions[a] = lvl
		}
		copied[entity] = Rules{Actions: actions, Fallback: r.Fallback}
	}
	return &Policy{rules: copied}
}

// Default возвращает правила магазина
func Default() *Policy {
	return New(map[Entity]Rules{
		EntityProduct: {
			Actions: map[Action]Level{
				ActionList:     Anyone,
				ActionRetrieve: Anyone,
				ActionCreate:   Admin,
				ActionUpdate:   Admin,
				ActionDestroy:  Admin,
			},
			Fallback: Authenticated,
		},
		EntityCollection: {
			Actions: map[Action]Level{
				ActionList:     Anyone,
				ActionRetrieve: Anyone,
				ActionCreate:   Admin,
				ActionUpdate:   Admin,
				ActionDestroy:  Admin,
			},
			Fallback: Authenticated,
		},
		EntityOrder: {
			Actions: map[Action]Level{
				ActionList:     Authenticated,
				ActionRetrieve: OwnerOrAdmin,
				ActionCreate:   Authenticated,
				ActionUpdate:   Admin,
				ActionDestroy:  Admin,
			},
			Fallback: Authenticated,
		},
		EntityReview: {
			Actions: map[Action]Level{
				ActionList:     Authenticated,
				ActionRetrieve: Anyone,
				ActionCreate:   Authenticated,
				ActionUpdate:   OwnerOrAdmin,
				ActionDestroy:  OwnerOrAdmin,
			},
			Fallback: Authenticated,
		},
	})
}

// Level возвращает уровень действия. Для неизвестной сущности - Admin.
func (p *Policy) Level(entity Entity, action Action) Level {
	r, ok := p.rules[entity]
	if !ok {
		return Admin
	}
	return r.level(action)
}

// Check - статическая фаза. needsOwner = true, если разрешение зависит от
// владельца конкретной записи и нужно вызвать CheckOwner.
func (p *Policy) Check(entity Entity, action Action, actor Actor) (needsOwner bool, err error) {
	switch p.Level(entity, action) {
	case Anyone:
		return false, nil
	case Authenticated:
		if !actor.IsAuthenticated() {
			return false, ErrUnauthenticated
		}
		return false, nil
	case OwnerOrAdmin:
		if !actor.IsAuthenticated() {
			return false, ErrUnauthenticated
		}
		return !actor.IsAdmin, nil
	default:
		if !actor.IsAuthenticated() {
			return false, ErrUnauthenticated
		}
		if !actor.IsAdmin {
			return false, ErrForbidden
		}
		return false, nil
	}
}

// CheckOwner - фаза экземпляра: администратор или владелец записи
func (p *Policy) CheckOwner(actor Actor, ownerID uuid.UUID) error {
	if !actor.IsAuthenticated() {
		return ErrUnauthenticated
	}
	if actor.IsAdmin || actor.ID == ownerID {
		return nil
	}
	return ErrForbidden
}

// Authorize выполняет обе фазы сразу, когда владелец уже известен
func (p *Policy) Authorize(entity Entity, action Action, actor Actor, ownerID uuid.UUID) error {
	needsOwner, err := p.Check(entity, action, actor)
	if err != nil || !needsOwner {
		return err
	}
	return p.CheckOwner(actor, ownerID)
}
