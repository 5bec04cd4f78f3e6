package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

func TestMergeOnSignIn_CombinesCarts(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	anon := domain.AnonymousOwner("sess-1")
	user := domain.AuthenticatedOwner("u1")

	if _, err := engine.AddItem(ctx, anon, "prod-headphones", 1); err != nil {
		t.Fatalf("anon add: %v", err)
	}
	if _, err := engine.AddItem(ctx, anon, "prod-coffee-mug", 2); err != nil {
		t.Fatalf("anon add: %v", err)
	}
	if _, err := engine.AddItem(ctx, user, "prod-coffee-mug", 1); err != nil {
		t.Fatalf("user add: %v", err)
	}

	merged, err := engine.MergeOnSignIn(ctx, "sess-1", "u1")
	if err != nil {
		t.Fatalf("merge: %v", err)
	}

	if len(merged.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(merged.Lines))
	}
	mug, ok := merged.FindLine("prod-coffee-mug")
	if !ok {
		t.Fatal("expected coffee mug line")
	}
	if mug.Quantity != 3 {
		t.Fatalf("expected merged quantity 3, got %d", mug.Quantity)
	}
	if _, ok := merged.FindLine("prod-headphones"); !ok {
		t.Fatal("expected headphones line")
	}
	if want := 99.99 + 19.99*3; merged.Total != want {
		t.Fatalf("expected total %v, got %v", want, merged.Total)
	}

	// Анонимная корзина очищена: повторный merge ничего не добавляет.
	again, err := engine.MergeOnSignIn(ctx, "sess-1", "u1")
	if err != nil {
		t.Fatalf("second merge: %v", err)
	}
	line, _ := again.FindLine("prod-coffee-mug")
	if line.Quantity != 3 {
		t.Fatalf("double merge duplicated quantities: %d", line.Quantity)
	}
}

func TestMergeOnSignIn_UserSnapshotWins(t *testing.T) {
	catalog := memory.NewProductCatalog()
	catalog.Put(domain.Product{ID: "p1", Name: "Original", Price: 10.00})
	engine := NewEngineWithoutMetrics(memory.NewCartRepository(), memory.NewCartRepository(), catalog, nil)
	ctx := context.Background()

	user := domain.AuthenticatedOwner("u1")
	anon := domain.AnonymousOwner("sess-1")

	if _, err := engine.AddItem(ctx, user, "p1", 1); err != nil {
		t.Fatalf("user add: %v", err)
	}

	// Цена в каталоге меняется, анонимная корзина получает новый снапшот.
	catalog.Put(domain.Product{ID: "p1", Name: "Renamed", Price: 25.00})
	if _, err := engine.AddItem(ctx, anon, "p1", 1); err != nil {
		t.Fatalf("anon add: %v", err)
	}

	merged, err := engine.MergeOnSignIn(ctx, "sess-1", "u1")
	if err != nil {
		t.Fatalf("merge: %v", err)
	}

	line, ok := merged.FindLine("p1")
	if !ok {
		t.Fatal("expected merged line")
	}
	if line.Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", line.Quantity)
	}
	// Снапшот durable-корзины побеждает.
	if line.UnitPrice != 10.00 || line.Name != "Original" {
		t.Fatalf("expected durable snapshot to win, got %+v", line)
	}
	if merged.Total != 20.00 {
		t.Fatalf("expected total 20.00, got %v", merged.Total)
	}
}

func TestMergeOnSignIn_EmptyAnonymousCartIsNoop(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	user := domain.AuthenticatedOwner("u1")
	if _, err := engine.AddItem(ctx, user, "prod-headphones", 1); err != nil {
		t.Fatalf("user add: %v", err)
	}
	before, _ := engine.GetCart(ctx, user)

	// Сессии не существует вовсе.
	merged, err := engine.MergeOnSignIn(ctx, "ghost-session", "u1")
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if merged.Version != before.Version {
		t.Fatalf("merge of missing session must not bump version: %d != %d", merged.Version, before.Version)
	}
	if len(merged.Lines) != 1 {
		t.Fatalf("expected untouched cart, got %+v", merged.Lines)
	}
}

func TestMergeOnSignIn_Validation(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	if _, err := engine.MergeOnSignIn(ctx, "", "u1"); !errors.Is(err, domain.ErrOwnerKeyInvalid) {
		t.Fatalf("expected ErrOwnerKeyInvalid for empty session, got %v", err)
	}
	if _, err := engine.MergeOnSignIn(ctx, "sess-1", ""); !errors.Is(err, domain.ErrOwnerKeyInvalid) {
		t.Fatalf("expected ErrOwnerKeyInvalid for empty user, got %v", err)
	}
}
