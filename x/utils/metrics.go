package utils

import (
	"strconv"
	"time"

	"github.com/keyward/keyward"
	"github.com/keyward/keyward/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is a decorator that counts processed transactions and measures how
// long their processing takes. Collected values are labeled with the message
// path, the processing phase (check or deliver) and the result code.
type Metrics struct {
	total    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

var _ keyward.Decorator = (*Metrics)(nil)

// NewMetrics returns a Metrics decorator with all collectors registered with
// the given registerer.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		total: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "keyward",
			Name:      "tx_total",
			Help:      "Number of processed transactions.",
		}, []string{"phase", "path", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "keyward",
			Name:      "tx_duration_seconds",
			Help:      "Transaction processing time.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"phase", "path"}),
	}
	for _, c := range []prometheus.Collector{m.total, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(errors.ErrHuman, err.Error())
		}
	}
	return m, nil
}

func (m *Metrics) Check(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx, next keyward.Checker) (*keyward.CheckResult, error) {
	start := time.Now()
	res, err := next.Check(ctx, db, tx)
	m.observe("check", tx, start, err)
	return res, err
}

func (m *Metrics) Deliver(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx, next keyward.Deliverer) (*keyward.DeliverResult, error) {
	start := time.Now()
	res, err := next.Deliver(ctx, db, tx)
	m.observe("deliver", tx, start, err)
	return res, err
}

func (m *Metrics) observe(phase string, tx keyward.Tx, start time.Time, err error) {
	path := msgPath(tx)
	code, _ := errors.ABCIInfo(err, false)
	m.total.WithLabelValues(phase, path, codeLabel(code)).Inc()
	m.duration.WithLabelValues(phase, path).Observe(time.Since(start).Seconds())
}

func codeLabel(code uint32) string {
	if code == 0 {
		return "ok"
	}
	return strconv.FormatUint(uint64(code), 10)
}
