package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/lanternauth/qrlink/internal/qrlink/service"
	"github.com/lanternauth/qrlink/internal/qrlink/store"
	"github.com/lanternauth/qrlink/pkg/httpx"
	"github.com/lanternauth/qrlink/pkg/slogx"

	_ "github.com/lanternauth/qrlink/api/qrlink" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store            store.Store
	HandshakeService *service.HandshakeService
}

func NewRouter(buildVersion string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerHandshakes()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			qrlink QR Login Handshake API
//	@version		0.1.0
//	@description	QR login handshake service: desktops create short-lived handshakes rendered as QR codes,
//	@description	mobile devices scan and confirm or reject them, and a one-time login token is minted on success.
//
//	@contact.name	LanternAuth Team
//	@contact.url	https://github.com/lanternauth/qrlink
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:8080
//	@BasePath		/
//
//	@schemes		http https
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerHandshakes() {
	h := &HandshakeHandler{HandshakeService: r.HandshakeService}

	// POST /v1/handshakes - strict rate limit (abuse magnet: each call
	// persists a row and a banned origin probing for a gap retries here)
	r.Mux.Handle("POST /v1/handshakes",
		httpx.Chain(http.HandlerFunc(h.HandleCreate),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// GET /v1/handshakes/{id} - lenient rate limit (desktops poll at ~1/s
	// for up to five minutes)
	r.Mux.Handle("GET /v1/handshakes/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleStatus),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	// POST /scan - moderate rate limit
	r.Mux.Handle("POST /v1/handshakes/{id}/scan",
		httpx.Chain(http.HandlerFunc(h.HandleScan),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// POST /confirm - strict rate limit (login-granting action)
	r.Mux.Handle("POST /v1/handshakes/{id}/confirm",
		httpx.Chain(http.HandlerFunc(h.HandleConfirm),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /reject - moderate rate limit
	r.Mux.Handle("POST /v1/handshakes/{id}/reject",
		httpx.Chain(http.HandlerFunc(h.HandleReject),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
