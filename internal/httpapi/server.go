package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/BrandonDHaskell/foodstation/internal/foodstation/imagestore"
	"github.com/BrandonDHaskell/foodstation/internal/foodstation/service"
	"github.com/BrandonDHaskell/foodstation/internal/foodstation/session"
	"github.com/BrandonDHaskell/foodstation/internal/foodstation/store"
)

type Dependencies struct {
	Logger zerolog.Logger
	Addr   string

	Sessions  *session.Manager
	Identity  *service.IdentityResolver
	Users     *service.UserService
	Stations  *service.StationRegistry
	Telemetry *service.TelemetryService
	Notifier  *service.Notifier
	Activity  store.ActivityStore
	Images    *imagestore.Disk
}

type Server struct {
	httpServer *http.Server
	logger     zerolog.Logger
	router     chi.Router

	sessions  *session.Manager
	identity  *service.IdentityResolver
	users     *service.UserService
	stations  *service.StationRegistry
	telemetry *service.TelemetryService
	notifier  *service.Notifier
	activity  store.ActivityStore
	images    *imagestore.Disk
}

func NewServer(d Dependencies) *Server {
	r := chi.NewRouter()

	s := &Server{
		logger:    d.Logger,
		router:    r,
		sessions:  d.Sessions,
		identity:  d.Identity,
		users:     d.Users,
		stations:  d.Stations,
		telemetry: d.Telemetry,
		notifier:  d.Notifier,
		activity:  d.Activity,
		images:    d.Images,
	}

	r.Use(chiMiddleware.RequestID)
	r.Use(recoverer(d.Logger))
	r.Use(requestLogger(d.Logger))
	r.Use(metricsMiddleware)

	r.Handle("/metrics", promhttp.Handler())
	if d.Images != nil {
		r.Handle("/images/*", http.StripPrefix("/images/", http.FileServer(http.Dir(d.Images.Dir()))))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/stations", s.handleListStations)
		r.Get("/stations/{stationID}", s.handleGetStation)
		r.Post("/stations/{stationID}/sessions", s.handleStartSession)
		r.Post("/stations/{stationID}/telemetry", s.handleTelemetry)
		r.Get("/stations/{stationID}/door", s.handleDoorCommand)

		r.Get("/sessions/{sessionID}", s.handleGetSession)
		r.Post("/sessions/{sessionID}/scan", s.handleScan)
		r.Post("/sessions/{sessionID}/deposit", s.handleSelectDeposit)
		r.Post("/sessions/{sessionID}/retrieve", s.handleSelectRetrieve)
		r.Post("/sessions/{sessionID}/descriptor", s.handleSubmitDescriptor)
		r.Post("/sessions/{sessionID}/open", s.handleOpenForRetrieval)
		r.Post("/sessions/{sessionID}/confirm", s.handleConfirm)
		r.Post("/sessions/{sessionID}/cancel", s.handleCancel)

		r.Post("/images", s.handleUploadImage)
		r.Get("/activity", s.handleListActivity)
		r.Get("/users/{userID}/notifications", s.handleListNotifications)

		r.Route("/admin", func(r chi.Router) {
			r.Use(requireAdmin(d.Identity, d.Logger))
			r.Post("/users", s.handleAddUser)
			r.Post("/stations", s.handleAddStation)
		})
	})

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
