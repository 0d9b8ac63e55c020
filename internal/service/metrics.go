package service

import "github.com/prometheus/client_golang/prometheus"

var (
	payoutsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "memelord",
		Name:      "payouts_total",
		Help:      "Payout attempts segmented by reason and outcome.",
	}, []string{"reason", "outcome"})
	payoutSats = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "memelord",
		Name:      "payout_sats_total",
		Help:      "Sats successfully paid out, by reason.",
	}, []string{"reason"})
	payoutLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "memelord",
		Name:      "payout_latency_seconds",
		Help:      "Latency of address resolution plus payment submission.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"reason"})
	reactionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "memelord",
		Name:      "reactions_total",
		Help:      "Reaction events by outcome.",
	}, []string{"outcome"})
	submissionsExpired = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "memelord",
		Name:      "submissions_expired_total",
		Help:      "Pending submissions removed by the expiry sweeper.",
	})
	badgesAwarded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "memelord",
		Name:      "badges_awarded_total",
		Help:      "Badges awarded by name.",
	}, []string{"badge"})
	emojiAssets = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "memelord",
		Name:      "emoji_assets_total",
		Help:      "Emoji assets processed during approval, by outcome.",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(
		payoutsTotal,
		payoutSats,
		payoutLatency,
		reactionsTotal,
		submissionsExpired,
		badgesAwarded,
		emojiAssets,
	)
}
