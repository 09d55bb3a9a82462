package parkes

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for resource routes.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewMetrics registers the collectors on reg. A nil reg uses the default
// registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		RequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "parkes",
				Name:      "requests_total",
				Help:      "Total number of requests served, by route and action",
			},
			[]string{"method", "route", "action", "status"},
		),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "parkes",
				Name:      "request_duration_seconds",
				Help:      "Request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "route"},
		),
	}
}

// Handler is a router-level handler observing every request. Requests that
// matched no route are labelled "unmatched".
func (m *Metrics) Handler() Handler {
	return func(c *Context, next Next) error {
		start := time.Now()
		err := next()

		route, action := "unmatched", ""
		if rd := c.Route(); rd != nil {
			route, action = rd.Path, rd.Action.String()
		}
		status := strconv.Itoa(c.ResponseStatus(err))
		m.RequestsTotal.WithLabelValues(c.R.Method, route, action, status).Inc()
		m.RequestDuration.WithLabelValues(c.R.Method, route).Observe(time.Since(start).Seconds())
		return err
	}
}
