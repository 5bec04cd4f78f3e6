package memory

import (
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

func testOrder(id string, owner domain.OwnerKey, placedAt time.Time) domain.Order {
	return domain.Order{
		ID:       id,
		OwnerKey: owner,
		Lines: []domain.CartLine{
			{ProductID: "p1", Name: "Product", UnitPrice: 10, Quantity: 1},
		},
		Total:    10,
		Status:   domain.OrderStatusCompleted,
		PlacedAt: placedAt,
	}
}

func TestOrderRepository_CreateAndGet(t *testing.T) {
	repo := NewOrderRepository()
	owner := domain.AuthenticatedOwner("u1")

	order := testOrder("o1", owner, time.Now().UTC())
	if err := repo.Create(order); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.Get("o1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != "o1" || got.Total != 10 {
		t.Fatalf("unexpected order: %+v", got)
	}

	if _, err := repo.Get("missing"); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestOrderRepository_CreateDuplicate(t *testing.T) {
	repo := NewOrderRepository()
	owner := domain.AuthenticatedOwner("u1")

	order := testOrder("o1", owner, time.Now().UTC())
	if err := repo.Create(order); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Create(order); !errors.Is(err, domain.ErrOrderAlreadyExists) {
		t.Fatalf("expected ErrOrderAlreadyExists, got %v", err)
	}
}

func TestOrderRepository_ListByOwnerNewestFirst(t *testing.T) {
	repo := NewOrderRepository()
	owner := domain.AuthenticatedOwner("u1")
	other := domain.AuthenticatedOwner("u2")

	base := time.Now().UTC()
	for i, id := range []string{"o1", "o2", "o3"} {
		if err := repo.Create(testOrder(id, owner, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}
	if err := repo.Create(testOrder("other", other, base)); err != nil {
		t.Fatalf("create other: %v", err)
	}

	orders, err := repo.ListByOwner(owner, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(orders) != 3 {
		t.Fatalf("expected 3 orders, got %d", len(orders))
	}
	want := []string{"o3", "o2", "o1"}
	for i, id := range want {
		if orders[i].ID != id {
			t.Fatalf("expected order %d to be %s, got %s", i, id, orders[i].ID)
		}
	}

	limited, err := repo.ListByOwner(owner, 2)
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 2 || limited[0].ID != "o3" {
		t.Fatalf("unexpected limited result: %+v", limited)
	}
}
