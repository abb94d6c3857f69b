package services

import (
	"context"
	"errors"
	"time"

	domain "github.com/qfd-delivery/api/internal/domain"
)

var errPricingClockRequired = errors.New("pricing engine: clock is required")

// ErrPricingInvalidInput indicates the quote inputs are out of range.
var ErrPricingInvalidInput = errors.New("pricing engine: invalid input")

// PricingEngineDeps wires the clock for time-of-day rules.
type PricingEngineDeps struct {
	Clock  func() time.Time
	Logger func(context.Context, string, map[string]any)
}

type pricingEngine struct {
	now    func() time.Time
	logger func(context.Context, string, map[string]any)
}

// NewPricingEngine constructs a PricingEngine enforcing dependency validation.
func NewPricingEngine(deps PricingEngineDeps) (PricingEngine, error) {
	if deps.Clock == nil {
		return nil, errPricingClockRequired
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &pricingEngine{
		now:    deps.Clock,
		logger: logger,
	}, nil
}

// Quote applies the distance and time-of-day rules to the command inputs.
// Surcharge evaluation uses local wall-clock hours, so the injected clock's
// location is preserved rather than normalised to UTC.
func (e *pricingEngine) Quote(ctx context.Context, cmd PriceQuoteCommand) (PriceQuote, error) {
	if e == nil || e.now == nil {
		return PriceQuote{}, ErrPricingInvalidInput
	}
	if cmd.Subtotal < 0 || cmd.DistanceKm < 0 {
		return PriceQuote{}, ErrPricingInvalidInput
	}

	at := cmd.At
	if at.IsZero() {
		at = e.now()
	}

	quote := domain.QuoteDelivery(cmd.Subtotal, cmd.DistanceKm, at)
	e.logger(ctx, "pricing.quote", map[string]any{
		"subtotal":   quote.Subtotal,
		"deliveryKm": cmd.DistanceKm,
		"fee":        quote.DeliveryFee,
		"surcharge":  quote.NightSurcharge,
		"total":      quote.Total,
	})
	return quote, nil
}
