// Package metrics 定义 Prometheus 指标
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	SearchTerms       *prometheus.CounterVec   // result: ok, invalid
	ReviewTransitions *prometheus.CounterVec   // transition, outcome
	QueryDuration     *prometheus.HistogramVec // entity
}

// New 在给定 registerer 上注册指标，测试中传入独立的 registry
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SearchTerms: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "opinions_search_terms_total",
				Help: "Search criteria resolved from list requests",
			},
			[]string{"result"},
		),
		ReviewTransitions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "opinions_review_transitions_total",
				Help: "Review workflow transitions by outcome",
			},
			[]string{"transition", "outcome"},
		),
		QueryDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "opinions_query_duration_seconds",
				Help:    "Duration of content list queries",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"entity"},
		),
	}
}

// ObserveSearch 记录一次解析的有效/无效条件数
func (m *Metrics) ObserveSearch(ok, invalid int) {
	if m == nil {
		return
	}
	m.SearchTerms.WithLabelValues("ok").Add(float64(ok))
	m.SearchTerms.WithLabelValues("invalid").Add(float64(invalid))
}

// ObserveTransition outcome 为 ok 或错误码
func (m *Metrics) ObserveTransition(transition, outcome string) {
	if m == nil {
		return
	}
	m.ReviewTransitions.WithLabelValues(transition, outcome).Inc()
}

func (m *Metrics) ObserveQuery(entity string, started time.Time) {
	if m == nil {
		return
	}
	m.QueryDuration.WithLabelValues(entity).Observe(time.Since(started).Seconds())
}
