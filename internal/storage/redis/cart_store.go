package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const (
	opTimeout = 3 * time.Second
	// Анонимная корзина живёт неделю с момента последней мутации.
	defaultSessionTTL = 7 * 24 * time.Hour

	keyPrefix = "storefront:cart:"
)

// CartStore — ephemeral-бэкенд корзин для анонимных сессий. Корзина
// сериализуется в JSON целиком под одним ключом, перезаписывается при
// каждой мутации и исчезает по TTL либо при checkout/merge.
type CartStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCartStore создаёт Redis-бэкенд корзин с TTL по умолчанию.
func NewCartStore(client *redis.Client) *CartStore {
	return &CartStore{
		client: client,
		ttl:    defaultSessionTTL,
	}
}

// cartDTO — форма хранения корзины в Redis.
type cartDTO struct {
	OwnerKey  string        `json:"owner_key"`
	Lines     []cartLineDTO `json:"lines"`
	Total     float64       `json:"total"`
	Version   int64         `json:"version"`
	UpdatedAt time.Time     `json:"updated_at"`
}

type cartLineDTO struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	ImageRef  string  `json:"image_ref"`
	Category  string  `json:"category"`
	Quantity  int     `json:"quantity"`
}

func (s *CartStore) Load(owner domain.OwnerKey) (domain.Cart, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	data, err := s.client.Get(ctx, cacheKey(owner)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Cart{}, domain.ErrCartNotFound
	}
	if err != nil {
		return domain.Cart{}, fmt.Errorf("redis get cart: %w", err)
	}

	var dto cartDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return domain.Cart{}, fmt.Errorf("unmarshal cart: %w", err)
	}

	return fromDTO(dto)
}

// Save перезаписывает корзину целиком и продлевает TTL сессии.
// Версия проверяется по сохранённому значению; основная защита от
// гонок для анонимных корзин — per-owner сериализация в движке.
func (s *CartStore) Save(cart domain.Cart) error {
	if err := cart.OwnerKey.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	key := cacheKey(cart.OwnerKey)

	stored, err := s.client.Get(ctx, key).Bytes()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis get cart for save: %w", err)
	}
	if err == nil {
		var dto cartDTO
		if err := json.Unmarshal(stored, &dto); err == nil && dto.Version != cart.Version {
			return domain.ErrCartVersionConflict
		}
	} else if cart.Version != 0 {
		return domain.ErrCartVersionConflict
	}

	cart.Version++
	data, err := json.Marshal(toDTO(cart))
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}

	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set cart: %w", err)
	}
	return nil
}

// Clear удаляет сессионную корзину целиком; отсутствие ключа — no-op.
func (s *CartStore) Clear(owner domain.OwnerKey) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if err := s.client.Del(ctx, cacheKey(owner)).Err(); err != nil {
		return fmt.Errorf("redis delete cart: %w", err)
	}
	return nil
}

// Ping проверяет доступность Redis (для health-чеков).
func (s *CartStore) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return s.client.Ping(pingCtx).Err()
}

func cacheKey(owner domain.OwnerKey) string {
	return keyPrefix + owner.String()
}

func toDTO(cart domain.Cart) cartDTO {
	dto := cartDTO{
		OwnerKey:  cart.OwnerKey.String(),
		Lines:     make([]cartLineDTO, 0, len(cart.Lines)),
		Total:     cart.Total,
		Version:   cart.Version,
		UpdatedAt: cart.UpdatedAt,
	}
	for _, line := range cart.Lines {
		dto.Lines = append(dto.Lines, cartLineDTO(line))
	}
	return dto
}

func fromDTO(dto cartDTO) (domain.Cart, error) {
	owner, err := domain.ParseOwnerKey(dto.OwnerKey)
	if err != nil {
		return domain.Cart{}, err
	}

	cart := domain.Cart{
		OwnerKey:  owner,
		Lines:     make([]domain.CartLine, 0, len(dto.Lines)),
		Total:     dto.Total,
		Version:   dto.Version,
		UpdatedAt: dto.UpdatedAt,
	}
	for _, line := range dto.Lines {
		cart.Lines = append(cart.Lines, domain.CartLine(line))
	}
	return cart, nil
}

var _ domain.CartRepository = (*CartStore)(nil)
