// Package http wires the authentication service's JSON API.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/adlume/authd/internal/metrics"
	"github.com/adlume/authd/internal/service"
	"github.com/adlume/authd/internal/store"
	"github.com/adlume/authd/pkg/httpx"
	"github.com/adlume/authd/pkg/jwtx"
	"github.com/adlume/authd/pkg/slogx"
	"github.com/prometheus/client_golang/prometheus"

	_ "github.com/adlume/authd/api" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for the HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	codec        *jwtx.Codec
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store        store.Store
	AuthService  *service.AuthService
	ResetService *service.PasswordResetService

	// Gatherer backs /metrics. Optional; the endpoint is skipped when nil.
	Gatherer prometheus.Gatherer

	// CookieSecure marks the refresh cookie Secure. Enabled outside dev.
	CookieSecure bool
}

func NewRouter(
	codec *jwtx.Codec,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		codec:        codec,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerPasswordReset()
	r.registerUserInfo()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler and applies the global middleware chain.
//
//	@title			Authentication Service API
//	@version		0.1.0
//	@description	Credential verification and token lifecycle management:
//	@description	JWT access tokens, rotating opaque refresh tokens, and
//	@description	single-use password reset tokens.
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	register := &RegisterHandler{AuthService: r.AuthService}
	login := &LoginHandler{Router: r}
	refresh := &RefreshHandler{Router: r}
	logout := &LogoutHandler{Router: r}

	// Credential endpoints get the strict profile keyed on IP to slow
	// brute force and enumeration.
	r.Mux.Handle("POST /v1/auth/register",
		httpx.Chain(register, httpx.RateLimitByIP(httpx.StrictLimit)))
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(login, httpx.RateLimitByIP(httpx.StrictLimit)))

	r.Mux.Handle("POST /v1/auth/refresh",
		httpx.Chain(refresh, httpx.RateLimitByIP(httpx.ModerateLimit)))
	r.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(logout, httpx.RateLimitByIP(httpx.ModerateLimit)))
}

func (r *Router) registerPasswordReset() {
	request := &ResetRequestHandler{ResetService: r.ResetService}
	validate := &ResetValidateHandler{ResetService: r.ResetService}
	confirm := &ResetConfirmHandler{ResetService: r.ResetService}

	r.Mux.Handle("POST /v1/auth/password-reset/request",
		httpx.Chain(request, httpx.RateLimitByIP(httpx.StrictLimit)))
	r.Mux.Handle("GET /v1/auth/password-reset/validate",
		httpx.Chain(validate, httpx.RateLimitByIP(httpx.ModerateLimit)))
	r.Mux.Handle("POST /v1/auth/password-reset/confirm",
		httpx.Chain(confirm, httpx.RateLimitByIP(httpx.ModerateLimit)))
}

func (r *Router) registerUserInfo() {
	r.Mux.Handle("GET /v1/userinfo",
		httpx.Chain(&UserInfoHandler{},
			httpx.AuthnMiddleware(r.codec),
			httpx.RateLimitByUser(httpx.LenientLimit),
		))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /healthz",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.PublicLimit)))
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.PublicLimit)))

	if r.Gatherer != nil {
		r.Mux.Handle("GET /metrics",
			httpx.Chain(metrics.Handler(r.Gatherer),
				httpx.RateLimitByIP(httpx.PublicLimit)))
	}
}
