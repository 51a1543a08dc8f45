package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, reg *prometheus.Registry, name, label string) float64 {
	t.Helper()

	families, err := reg.Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if label == "" {
				return m.GetCounter().GetValue()
			}
			for _, l := range m.GetLabel() {
				if l.GetValue() == label {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestCollectorCountsLoginsByResult(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordLogin(LoginSuccess)
	c.RecordLogin(LoginSuccess)
	c.RecordLogin(LoginFailure)

	require.Equal(t, 2.0, counterValue(t, reg, "authd_logins_total", LoginSuccess))
	require.Equal(t, 1.0, counterValue(t, reg, "authd_logins_total", LoginFailure))
}

func TestCollectorCountsRevocationsByAmount(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRevocation(3)
	c.RecordRevocation(0)
	c.RecordRevocation(2)

	require.Equal(t, 5.0, counterValue(t, reg, "authd_refresh_revocations_total", ""))
}

func TestHandlerServesPrometheusFormat(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRegistration()
	c.RecordRefreshRotation()
	c.RecordResetRequested()
	c.RecordResetCompleted()
	c.RecordHousekeepingSweep()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, req)

	resp := rec.Result()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	for _, name := range []string{
		"authd_registrations_total",
		"authd_refresh_rotations_total",
		"authd_password_reset_requests_total",
		"authd_password_reset_completions_total",
		"authd_housekeeping_sweeps_total",
	} {
		require.Contains(t, string(body), name)
	}
}

func TestRecorderImplementations(t *testing.T) {
	var _ Recorder = NewCollector(prometheus.NewRegistry())
	var _ Recorder = Nop{}
}
