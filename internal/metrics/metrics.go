// Package metrics collects and exposes Prometheus metrics for the
// authentication service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the interface the service layer records metrics through.
type Recorder interface {
	RecordLogin(result string)
	RecordRegistration()
	RecordRefreshRotation()
	RecordResetRequested()
	RecordResetCompleted()
	RecordRevocation(count int)
	RecordHousekeepingSweep()
}

// Login result label values.
const (
	LoginSuccess  = "success"
	LoginFailure  = "failure"
	LoginDisabled = "disabled"
)

// Collector implements Recorder on top of a Prometheus registry.
type Collector struct {
	logins            *prometheus.CounterVec
	registrations     prometheus.Counter
	refreshRotations  prometheus.Counter
	resetRequested    prometheus.Counter
	resetCompleted    prometheus.Counter
	revocations       prometheus.Counter
	housekeepingSweep prometheus.Counter
}

// NewCollector registers the service metrics against reg and returns
// the collector.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authd_logins_total",
			Help: "Login attempts by result.",
		}, []string{"result"}),
		registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "authd_registrations_total",
			Help: "Successful user registrations.",
		}),
		refreshRotations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "authd_refresh_rotations_total",
			Help: "Refresh token rotations performed.",
		}),
		resetRequested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "authd_password_reset_requests_total",
			Help: "Password reset tokens issued.",
		}),
		resetCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "authd_password_reset_completions_total",
			Help: "Password resets completed.",
		}),
		revocations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "authd_refresh_revocations_total",
			Help: "Refresh tokens revoked.",
		}),
		housekeepingSweep: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "authd_housekeeping_sweeps_total",
			Help: "Completed housekeeping sweeps.",
		}),
	}

	reg.MustRegister(
		c.logins,
		c.registrations,
		c.refreshRotations,
		c.resetRequested,
		c.resetCompleted,
		c.revocations,
		c.housekeepingSweep,
	)

	return c
}

func (c *Collector) RecordLogin(result string) { c.logins.WithLabelValues(result).Inc() }

func (c *Collector) RecordRegistration() { c.registrations.Inc() }

func (c *Collector) RecordRefreshRotation() { c.refreshRotations.Inc() }

func (c *Collector) RecordResetRequested() { c.resetRequested.Inc() }

func (c *Collector) RecordResetCompleted() { c.resetCompleted.Inc() }

func (c *Collector) RecordRevocation(count int) {
	if count > 0 {
		c.revocations.Add(float64(count))
	}
}

func (c *Collector) RecordHousekeepingSweep() { c.housekeepingSweep.Inc() }

// Handler returns the Prometheus scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop is a Recorder that records nothing. Useful in tests and in
// callers that do not wire a registry.
type Nop struct{}

func (Nop) RecordLogin(string)       {}
func (Nop) RecordRegistration()      {}
func (Nop) RecordRefreshRotation()   {}
func (Nop) RecordResetRequested()    {}
func (Nop) RecordResetCompleted()    {}
func (Nop) RecordRevocation(int)     {}
func (Nop) RecordHousekeepingSweep() {}
