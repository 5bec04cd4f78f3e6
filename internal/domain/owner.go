package domain

import (
	"fmt"
	"strings"
)

// OwnerKind различает режим владения корзиной.
type OwnerKind string

const (
	// OwnerKindAuthenticated — корзина принадлежит авторизованному пользователю
	// и хранится в durable-бэкенде.
	OwnerKindAuthenticated OwnerKind = "user"
	// OwnerKindAnonymous — корзина привязана к анонимной сессии
	// и живёт в ephemeral-бэкенде.
	OwnerKindAnonymous OwnerKind = "anon"
)

// OwnerKey идентифицирует владельца корзины: авторизованного пользователя
// или анонимную сессию. Выбор бэкенда хранения делается по Kind один раз
// на границе запроса.
type OwnerKey struct {
	Kind OwnerKind
	ID   string
}

// AuthenticatedOwner возвращает ключ владельца для авторизованного пользователя.
func AuthenticatedOwner(userID string) OwnerKey {
	return OwnerKey{Kind: OwnerKindAuthenticated, ID: userID}
}

// AnonymousOwner возвращает ключ владельца для анонимной сессии.
func AnonymousOwner(sessionToken string) OwnerKey {
	return OwnerKey{Kind: OwnerKindAnonymous, ID: sessionToken}
}

// String возвращает каноничную строковую форму ключа ("user:<id>" / "anon:<token>").
// Эта форма используется как storage key в обоих бэкендах.
func (k OwnerKey) String() string {
	return string(k.Kind) + ":" + k.ID
}

// IsAuthenticated сообщает, принадлежит ли ключ авторизованному пользователю.
func (k OwnerKey) IsAuthenticated() bool {
	return k.Kind == OwnerKindAuthenticated
}

// Validate проверяет, что ключ владельца хорошо сформирован.
func (k OwnerKey) Validate() error {
	switch k.Kind {
	case OwnerKindAuthenticated, OwnerKindAnonymous:
	default:
		return ErrOwnerKeyInvalid
	}
	if strings.TrimSpace(k.ID) == "" {
		return ErrOwnerKeyInvalid
	}
	return nil
}

// ParseOwnerKey разбирает строковую форму ключа обратно в OwnerKey.
func ParseOwnerKey(s string) (OwnerKey, error) {
	kind, id, ok := strings.Cut(s, ":")
	if !ok {
		return OwnerKey{}, fmt.Errorf("parse owner key %q: %w", s, ErrOwnerKeyInvalid)
	}
	key := OwnerKey{Kind: OwnerKind(kind), ID: id}
	if err := key.Validate(); err != nil {
		return OwnerKey{}, fmt.Errorf("parse owner key %q: %w", s, err)
	}
	return key, nil
}
