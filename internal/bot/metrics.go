// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package bot

import (
	"time"

	"go.astrophena.name/vcbot/internal/session"

	"github.com/prometheus/client_golang/prometheus"
)

// Command results, used as metric labels.
const (
	resultOK     = "ok"
	resultUsage  = "usage"
	resultNoCall = "no_call"
	resultError  = "error"
)

// Metrics counts what the bot does. A nil *Metrics records nothing.
type Metrics struct {
	commands *prometheus.CounterVec
	acquire  *prometheus.HistogramVec
}

// NewMetrics creates bot metrics and registers them in reg, together with a
// gauge reporting the number of chats in sessions.
func NewMetrics(reg prometheus.Registerer, sessions *session.Table) *Metrics {
	m := &Metrics{
		commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vcbot_commands_total",
				Help: "Chat commands handled, by command and result.",
			},
			[]string{"command", "result"},
		),
		acquire: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vcbot_media_acquire_seconds",
				Help:    "Time spent preparing media for streaming.",
				Buckets: []float64{.1, .5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"result"},
		),
	}
	reg.MustRegister(
		m.commands,
		m.acquire,
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "vcbot_active_sessions",
				Help: "Chats with something playing.",
			},
			func() float64 { return float64(sessions.Len()) },
		),
	)
	return m
}

func (m *Metrics) observe(command, result string) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(command, result).Inc()
}

func (m *Metrics) observeAcquire(d time.Duration, err error) {
	if m == nil {
		return
	}
	result := resultOK
	if err != nil {
		result = resultError
	}
	m.acquire.WithLabelValues(result).Observe(d.Seconds())
}
