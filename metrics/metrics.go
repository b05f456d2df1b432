// Package metrics exports process reports as prometheus series.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rony4d/go-ario/process"
)

const namespace = "ario"

// Collector is a process.Observer feeding a prometheus registry.
type Collector struct {
	messages *prometheus.CounterVec
	notices  prometheus.Counter
	epochs   prometheus.Counter
	supply   *prometheus.GaugeVec
}

// New creates the series and registers them with reg.
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Messages handled, by action and outcome.",
		}, []string{"action", "outcome"}),
		notices: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notices_total",
			Help:      "Outbound notices emitted.",
		}),
		epochs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticked_epochs_total",
			Help:      "Epochs created or distributed by ticks.",
		}),
		supply: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "supply_marios",
			Help:      "Committed supply breakdown in mARIO.",
		}, []string{"kind"}),
	}
	for _, col := range []prometheus.Collector{c.messages, c.notices, c.epochs, c.supply} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Observe implements process.Observer.
func (c *Collector) Observe(r process.Report) {
	action := r.Action
	if r.Outcome == process.Defaulted {
		// every unknown action shares one label
		action = "default"
	}
	c.messages.WithLabelValues(action, string(r.Outcome)).Inc()
	c.notices.Add(float64(r.Notices))
	c.epochs.Add(float64(len(r.Ticked)))

	s := r.Supply
	for kind, v := range map[string]uint64{
		"total":       s.Total,
		"circulating": s.Circulating,
		"locked":      s.Locked,
		"staked":      s.Staked,
		"delegated":   s.Delegated,
		"withdrawn":   s.Withdrawn,
		"protocol":    s.ProtocolBalance,
	} {
		c.supply.WithLabelValues(kind).Set(float64(v))
	}
}

// WriteFile dumps every series of g in the text exposition format.
func WriteFile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
