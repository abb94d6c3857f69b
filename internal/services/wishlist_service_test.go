package services

import (
	"context"
	"errors"
	"testing"

	"github.com/qfd-delivery/api/internal/repositories/memory"
)

func newTestWishlistService(t *testing.T) WishlistService {
	t.Helper()
	svc, err := NewWishlistService(WishlistServiceDeps{
		Repository: memory.NewWishlistRepository(),
		Catalog:    memory.NewCatalogRepository(),
	})
	if err != nil {
		t.Fatalf("NewWishlistService: %v", err)
	}
	return svc
}

func TestWishlistToggleRoundTrip(t *testing.T) {
	svc := newTestWishlistService(t)
	ctx := context.Background()

	result, err := svc.Toggle(ctx, ToggleWishlistCommand{UserID: "user-1", ProductID: "3"})
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if !result.Wishlisted {
		t.Fatal("first toggle should add")
	}

	products, err := svc.List(ctx, "user-1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(products) != 1 || products[0].Name != "Fresh Apples 1kg" {
		t.Fatalf("unexpected wishlist: %+v", products)
	}

	result, err = svc.Toggle(ctx, ToggleWishlistCommand{UserID: "user-1", ProductID: "3"})
	if err != nil {
		t.Fatalf("Toggle back: %v", err)
	}
	if result.Wishlisted {
		t.Fatal("second toggle should remove")
	}

	products, err = svc.List(ctx, "user-1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(products) != 0 {
		t.Fatalf("expected empty wishlist, got %+v", products)
	}
}

func TestWishlistToggleUnknownProduct(t *testing.T) {
	svc := newTestWishlistService(t)

	_, err := svc.Toggle(context.Background(), ToggleWishlistCommand{UserID: "user-1", ProductID: "999"})
	if !errors.Is(err, ErrWishlistUnknownProduct) {
		t.Fatalf("expected ErrWishlistUnknownProduct, got %v", err)
	}
}

func TestWishlistPreservesInsertionOrder(t *testing.T) {
	svc := newTestWishlistService(t)
	ctx := context.Background()

	for _, id := range []string{"6", "2", "4"} {
		if _, err := svc.Toggle(ctx, ToggleWishlistCommand{UserID: "user-1", ProductID: id}); err != nil {
			t.Fatalf("Toggle %s: %v", id, err)
		}
	}

	products, err := svc.List(ctx, "user-1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"6", "2", "4"}
	if len(products) != len(want) {
		t.Fatalf("expected %d products, got %d", len(want), len(products))
	}
	for i, id := range want {
		if products[i].ID != id {
			t.Fatalf("position %d = %s, want %s", i, products[i].ID, id)
		}
	}
}
