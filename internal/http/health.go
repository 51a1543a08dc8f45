package http

import (
	"net/http"
	"time"

	"github.com/adlume/authd/internal/store"
	"github.com/adlume/authd/pkg/authapi"
	"github.com/adlume/authd/pkg/httpx"
)

// LivezHandler godoc
//
//	@Summary		Liveness probe
//	@Description	Always returns ok while the process is serving.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authapi.HealthResponse
//	@Router			/healthz [get]
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, authapi.HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}

// ReadyzHandler godoc
//
//	@Summary		Readiness probe
//	@Description	Verifies the database connection before reporting ready.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authapi.HealthResponse
//	@Failure		503	{object}	authapi.HealthResponse	"database unreachable"
//	@Router			/readyz [get]
func ReadyzHandler(startTime time.Time, version string, st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		code := http.StatusOK
		if err := st.Ping(r.Context()); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, code, authapi.HealthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}
