package internal

import (
	"context"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/ichen27/openclaw-dashboard/internal/agentstream"
	"github.com/ichen27/openclaw-dashboard/internal/auction"
	"github.com/ichen27/openclaw-dashboard/internal/config"
	"github.com/ichen27/openclaw-dashboard/internal/dependency"
	"github.com/ichen27/openclaw-dashboard/internal/events"
	"github.com/ichen27/openclaw-dashboard/internal/pushnotification"
	"github.com/ichen27/openclaw-dashboard/pkg/cerr"
	"github.com/ichen27/openclaw-dashboard/pkg/clog"
)

type Server struct {
	server                 *http.Server
	env                    *config.Env
	auctionServer          *auction.Server
	dependencyServer       *dependency.Server
	agentStreamServer      *agentstream.Server
	eventsServer           *events.Server
	pushNotificationServer *pushnotification.Server
}

func NewServer(
	env *config.Env,
	auctionServer *auction.Server,
	dependencyServer *dependency.Server,
	agentStreamServer *agentstream.Server,
	eventsServer *events.Server,
	pushNotificationServer *pushnotification.Server,
) *Server {
	return &Server{
		env:                    env,
		auctionServer:          auctionServer,
		dependencyServer:       dependencyServer,
		agentStreamServer:      agentStreamServer,
		eventsServer:           eventsServer,
		pushNotificationServer: pushNotificationServer,
	}
}

// Routes builds the full router. Exposed separately so tests can drive the
// handlers through the same middleware stack as production traffic.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(
		clog.SlogChiMiddleware(clog.WithChiFilter(func(r *http.Request) bool {
			return r.URL.Path != "/health"
		})),
		cerr.NewJSONResponseChiMiddleware(),
	)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		cerr.SetNewJSONError(r.Context(), cerr.NotFound, "not found", nil)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Get("/auction", s.auctionServer.HandleGet)
	r.Post("/auction", s.auctionServer.HandleAssign)

	r.Route("/tasks/{taskID}/dependencies", func(r chi.Router) {
		r.Get("/", s.dependencyServer.HandleQuery)
		r.Post("/", s.dependencyServer.HandleAdd)
		r.Delete("/", s.dependencyServer.HandleRemove)
	})

	r.Get("/agents/stream", s.agentStreamServer.HandleStream)
	r.Get("/events/stream", s.eventsServer.HandleStream)

	r.Route("/push", func(r chi.Router) {
		r.Get("/vapid-public-key", s.pushNotificationServer.HandleVAPIDPublicKey)
		r.Post("/subscriptions", s.pushNotificationServer.HandleRegister)
		r.Delete("/subscriptions/{subscriptionID}", s.pushNotificationServer.HandleUnregister)
		r.Post("/test", s.pushNotificationServer.HandleSendTest)
	})

	return r
}

// ListenAndServe starts the HTTP server. The provided context is the base
// context for all incoming requests, so cancelling it (on a shutdown signal)
// also ends every open SSE stream instead of waiting them out.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := net.JoinHostPort(s.env.HTTPHost, s.env.HTTPPort)
	slog.Info("starting server", "addr", addr)

	s.server = &http.Server{
		Addr: addr,
		Handler: h2c.NewHandler(cors.New(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: true,
		}).Handler(s.Routes()), &http2.Server{}),
		BaseContext: func(_ net.Listener) context.Context { return ctx },
	}

	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
