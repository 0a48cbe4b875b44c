package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	resolutionsTotal = promauto.NewCounterVec( //nolint:gochecknoglobals
		prometheus.CounterOpts{
			Name: "identity_resolutions_total",
			Help: "Number of identity resolutions, differentiated by outcome.",
		},
		[]string{"action"},
	)

	suggestionsExpiredTotal = promauto.NewCounter( //nolint:gochecknoglobals
		prometheus.CounterOpts{
			Name: "identity_suggestions_expired_total",
			Help: "Number of link suggestions transitioned to expired by the sweep.",
		},
	)
)
