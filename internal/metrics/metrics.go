// Package metrics holds the service's prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Chat outcomes.
const (
	OutcomeOK            = "ok"
	OutcomeRateLimited   = "rate_limited"
	OutcomeQuotaExceeded = "quota_exceeded"
	OutcomeNoKey         = "no_key"
	OutcomeUpstream429   = "upstream_rate_limited"
	OutcomeModelNotFound = "model_not_found"
	OutcomeUpstreamError = "upstream_error"
	OutcomeTransport     = "transport_error"
)

type Metrics struct {
	ChatRequests   *prometheus.CounterVec
	TokensRecorded prometheus.Counter
	RateLimited    prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ChatRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edulearn_chat_requests_total",
			Help: "Chat proxy requests by outcome.",
		}, []string{"outcome"}),
		TokensRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "edulearn_tokens_recorded_total",
			Help: "Provider tokens written to the usage ledger.",
		}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "edulearn_rate_limited_total",
			Help: "Requests refused by the per-IP limiter.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.ChatRequests, m.TokensRecorded, m.RateLimited)
	}
	return m
}

func (m *Metrics) Chat(outcome string) {
	if m == nil {
		return
	}
	m.ChatRequests.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Tokens(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.TokensRecorded.Add(float64(n))
}

func (m *Metrics) Limited() {
	if m == nil {
		return
	}
	m.RateLimited.Inc()
}
