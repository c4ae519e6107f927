package metrics

import (
	"go_ads_bot/ads"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	created  *prometheus.CounterVec
	rejected *prometheus.CounterVec
	matured  *prometheus.CounterVec
}

// New регистрирует метрики бота. pending отдаёт число ожидающих отложенных
// действий; при nil gauge не создаётся.
func New(reg prometheus.Registerer, pending func() int) *Metrics {
	m := &Metrics{
		created: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "adsbot",
			Name:      "records_created_total",
			Help:      "Ad records persisted, by ad type.",
		}, []string{"ad_type"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "adsbot",
			Name:      "submissions_rejected_total",
			Help:      "Ad submissions rejected by validation, by reason.",
		}, []string{"reason"}),
		matured: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "adsbot",
			Name:      "maturity_actions_total",
			Help:      "Deferred maturity actions fired, by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.created, m.rejected, m.matured)

	if pending != nil {
		reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "adsbot",
			Name:      "maturity_actions_pending",
			Help:      "Deferred maturity actions waiting to fire.",
		}, func() float64 { return float64(pending()) }))
	}
	return m
}

func (m *Metrics) RecordCreated(t ads.AdType) {
	m.created.WithLabelValues(string(t)).Inc()
}

func (m *Metrics) RecordMatured(outcome string) {
	m.matured.WithLabelValues(outcome).Inc()
}

// RecordRejected считает отклонённую заявку с меткой ads.Reason(err).
func (m *Metrics) RecordRejected(err error) {
	m.rejected.WithLabelValues(ads.Reason(err)).Inc()
}
