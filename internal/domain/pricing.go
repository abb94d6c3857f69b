package domain

import "time"

const (
	// FreeDeliveryRadiusKm is the distance up to which delivery is free.
	FreeDeliveryRadiusKm int64 = 6
	// DeliveryFeePerKm is charged per kilometre beyond the free radius.
	DeliveryFeePerKm int64 = 5
	// NightSurchargeHour is the local hour from which the night surcharge applies.
	NightSurchargeHour = 19
	// NightSurchargeAmount is the flat night surcharge.
	NightSurchargeAmount int64 = 5
)

// DeliveryFee charges per kilometre beyond the free radius.
func DeliveryFee(distanceKm int64) int64 {
	if distanceKm <= FreeDeliveryRadiusKm {
		return 0
	}
	return (distanceKm - FreeDeliveryRadiusKm) * DeliveryFeePerKm
}

// NightSurcharge applies only to actual deliveries (distance > 0) at or after
// the surcharge hour.
func NightSurcharge(distanceKm int64, at time.Time) int64 {
	if distanceKm <= 0 {
		return 0
	}
	if at.Hour() < NightSurchargeHour {
		return 0
	}
	return NightSurchargeAmount
}

// QuoteDelivery combines the pricing rules into a full breakdown.
func QuoteDelivery(subtotal, distanceKm int64, at time.Time) PriceQuote {
	fee := DeliveryFee(distanceKm)
	surcharge := NightSurcharge(distanceKm, at)
	return PriceQuote{
		Subtotal:       subtotal,
		DeliveryFee:    fee,
		NightSurcharge: surcharge,
		Total:          subtotal + fee + surcharge,
	}
}
