// Package metrics collects and exposes Prometheus counters for broker
// operations. Internal failures that the API contract reports as ordinary
// negative outcomes are still visible here.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the interface the service layer records against.
type Recorder interface {
	RecordSignup(outcome string)
	RecordLogin(outcome string)
	RecordRevocation(alreadyRevoked bool)
	RecordIntrospection(active bool)
	RecordInternalError(op string)
}

// Collector is the Prometheus-backed Recorder implementation.
type Collector struct {
	registry       *prometheus.Registry
	signups        *prometheus.CounterVec
	logins         *prometheus.CounterVec
	revocations    *prometheus.CounterVec
	introspections *prometheus.CounterVec
	internalErrors *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics on a fresh
// registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		signups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authbroker_signups_total",
			Help: "Signup attempts by outcome.",
		}, []string{"outcome"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authbroker_logins_total",
			Help: "Login attempts by outcome.",
		}, []string{"outcome"}),
		revocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authbroker_revocations_total",
			Help: "Session revocations, split by idempotent repeats.",
		}, []string{"already_revoked"}),
		introspections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authbroker_introspections_total",
			Help: "Introspection checks by result.",
		}, []string{"active"}),
		internalErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authbroker_internal_errors_total",
			Help: "Internal failures reported to callers as negative outcomes.",
		}, []string{"op"}),
	}

	c.registry.MustRegister(c.signups, c.logins, c.revocations, c.introspections, c.internalErrors)
	return c
}

func (c *Collector) RecordSignup(outcome string) {
	c.signups.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordLogin(outcome string) {
	c.logins.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordRevocation(alreadyRevoked bool) {
	c.revocations.WithLabelValues(strconv.FormatBool(alreadyRevoked)).Inc()
}

func (c *Collector) RecordIntrospection(active bool) {
	c.introspections.WithLabelValues(strconv.FormatBool(active)).Inc()
}

func (c *Collector) RecordInternalError(op string) {
	c.internalErrors.WithLabelValues(op).Inc()
}

// Handler returns the exposition endpoint for this collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
