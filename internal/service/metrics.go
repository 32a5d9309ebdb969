package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rentalsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "roomledger_rentals_total",
		Help: "Rental attempts, labeled by outcome",
	}, []string{"outcome"})

	settlementFallbackTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "roomledger_settlement_fallback_total",
		Help: "Payments redirected to the default settlement address",
	})

	oversoldTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "roomledger_oversold_total",
		Help: "Settled rentals recorded after the room's last token was gone",
	})
)

const (
	outcomeActive          = "active"
	outcomeReplayed        = "replayed"
	outcomeMismatch        = "idempotency_mismatch"
	outcomeOversold        = "oversold"
	outcomeSelfRental      = "self_rental"
	outcomeSoldOut         = "sold_out"
	outcomeInvalidDuration = "invalid_duration"
	outcomePaymentFailed   = "payment_failed"
	outcomeIndeterminate   = "indeterminate"
	outcomeUnauthenticated = "unauthenticated"
)
