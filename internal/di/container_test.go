package di

import (
	"context"
	"testing"
	"time"

	"github.com/qfd-delivery/api/internal/services"
)

func TestNewContainerBuildsCoreServices(t *testing.T) {
	container, err := NewContainer(ContainerDeps{})
	if err != nil {
		t.Fatalf("NewContainer: %v", err)
	}

	svc := container.Services
	if svc.Catalog == nil || svc.Carts == nil || svc.Wishlist == nil {
		t.Fatalf("expected storefront services to be wired")
	}
	if svc.Pricing == nil || svc.Checkout == nil || svc.Orders == nil {
		t.Fatalf("expected checkout services to be wired")
	}
	if svc.Assistant == nil {
		t.Fatalf("expected assistant service to be wired")
	}
	if svc.Identity != nil {
		t.Fatalf("expected identity to stay nil without a directory client")
	}
	if container.LiveDialer() != nil {
		t.Fatalf("expected nil live dialer without a model client")
	}
}

func TestNewContainerSeededCartFlow(t *testing.T) {
	clock := func() time.Time { return time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC) }
	container, err := NewContainer(ContainerDeps{Clock: clock})
	if err != nil {
		t.Fatalf("NewContainer: %v", err)
	}

	ctx := context.Background()
	cart, err := container.Services.Carts.AddItem(ctx, services.AddCartItemCommand{
		UserID:    "user-1",
		ProductID: "1",
	})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if len(cart.Items) != 1 || cart.Items[0].Name != "Burgir Supreme" {
		t.Fatalf("unexpected cart %#v", cart)
	}
	if !cart.UpdatedAt.Equal(clock()) {
		t.Fatalf("expected injected clock on cart update, got %v", cart.UpdatedAt)
	}
}

func TestNewContainerAssistantResolvesToolCalls(t *testing.T) {
	container, err := NewContainer(ContainerDeps{})
	if err != nil {
		t.Fatalf("NewContainer: %v", err)
	}

	ctx := context.Background()
	result, err := container.Services.Assistant.ResolveToolCall(ctx, services.AssistantToolCallCommand{
		UserID:   "user-1",
		CallID:   "call-1",
		Name:     services.AddItemToCartTool,
		ItemName: "burgir",
	})
	if err != nil {
		t.Fatalf("ResolveToolCall: %v", err)
	}
	if !result.Added {
		t.Fatalf("expected item to be added, got %#v", result)
	}

	cart, err := container.Services.Carts.GetCart(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetCart: %v", err)
	}
	if len(cart.Items) != 1 || cart.Items[0].ProductID != "1" {
		t.Fatalf("expected seeded burgir in cart, got %#v", cart.Items)
	}
}
