package services

import (
	"context"
	"errors"
	"testing"
	"time"
)

func clockAt(hour int) func() time.Time {
	return func() time.Time {
		return time.Date(2025, time.June, 1, hour, 15, 0, 0, time.UTC)
	}
}

func TestPricingEngineQuoteDistanceRules(t *testing.T) {
	engine, err := NewPricingEngine(PricingEngineDeps{Clock: clockAt(12)})
	if err != nil {
		t.Fatalf("NewPricingEngine: %v", err)
	}
	ctx := context.Background()

	cases := []struct {
		name      string
		distance  int64
		wantFee   int64
		wantTotal int64
	}{
		{name: "free radius boundary", distance: 6, wantFee: 0, wantTotal: 100},
		{name: "just beyond", distance: 7, wantFee: 5, wantTotal: 105},
		{name: "service edge", distance: 10, wantFee: 20, wantTotal: 120},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			quote, err := engine.Quote(ctx, PriceQuoteCommand{Subtotal: 100, DistanceKm: tc.distance})
			if err != nil {
				t.Fatalf("Quote: %v", err)
			}
			if quote.DeliveryFee != tc.wantFee {
				t.Fatalf("fee = %d, want %d", quote.DeliveryFee, tc.wantFee)
			}
			if quote.Total != tc.wantTotal {
				t.Fatalf("total = %d, want %d", quote.Total, tc.wantTotal)
			}
		})
	}
}

func TestPricingEngineNightSurcharge(t *testing.T) {
	ctx := context.Background()

	day, err := NewPricingEngine(PricingEngineDeps{Clock: clockAt(18)})
	if err != nil {
		t.Fatalf("NewPricingEngine: %v", err)
	}
	quote, err := day.Quote(ctx, PriceQuoteCommand{Subtotal: 100, DistanceKm: 5})
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if quote.NightSurcharge != 0 {
		t.Fatalf("no surcharge expected at 18:00, got %d", quote.NightSurcharge)
	}

	night, err := NewPricingEngine(PricingEngineDeps{Clock: clockAt(19)})
	if err != nil {
		t.Fatalf("NewPricingEngine: %v", err)
	}
	quote, err = night.Quote(ctx, PriceQuoteCommand{Subtotal: 100, DistanceKm: 5})
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if quote.NightSurcharge != 5 {
		t.Fatalf("surcharge expected at 19:00, got %d", quote.NightSurcharge)
	}

	// Zero distance means no delivery, so no surcharge either.
	quote, err = night.Quote(ctx, PriceQuoteCommand{Subtotal: 100, DistanceKm: 0})
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if quote.NightSurcharge != 0 {
		t.Fatalf("surcharge must need a distance, got %d", quote.NightSurcharge)
	}
}

func TestPricingEngineExplicitTimestampWins(t *testing.T) {
	engine, err := NewPricingEngine(PricingEngineDeps{Clock: clockAt(12)})
	if err != nil {
		t.Fatalf("NewPricingEngine: %v", err)
	}

	at := time.Date(2025, time.June, 1, 22, 0, 0, 0, time.UTC)
	quote, err := engine.Quote(context.Background(), PriceQuoteCommand{Subtotal: 100, DistanceKm: 3, At: at})
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if quote.NightSurcharge != 5 {
		t.Fatalf("explicit timestamp should drive the surcharge, got %d", quote.NightSurcharge)
	}
}

func TestPricingEngineRejectsNegativeInputs(t *testing.T) {
	engine, err := NewPricingEngine(PricingEngineDeps{Clock: clockAt(12)})
	if err != nil {
		t.Fatalf("NewPricingEngine: %v", err)
	}

	if _, err := engine.Quote(context.Background(), PriceQuoteCommand{Subtotal: -1}); !errors.Is(err, ErrPricingInvalidInput) {
		t.Fatalf("expected ErrPricingInvalidInput, got %v", err)
	}
	if _, err := engine.Quote(context.Background(), PriceQuoteCommand{DistanceKm: -1}); !errors.Is(err, ErrPricingInvalidInput) {
		t.Fatalf("expected ErrPricingInvalidInput, got %v", err)
	}
}
