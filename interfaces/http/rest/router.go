package rest

import (
	"net/http"
	"time"

	"maxnotes/application/ports"
	"maxnotes/application/services"
	"maxnotes/domain/config"
	"maxnotes/interfaces/http/rest/handlers"
	"maxnotes/interfaces/http/rest/middleware"
	ws "maxnotes/interfaces/websocket"
	"maxnotes/pkg/auth"
	pkgerrors "maxnotes/pkg/errors"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Router wires the HTTP surface
type Router struct {
	session     *services.SessionController
	feed        *services.NoteFeed
	authService ports.AuthService
	attachments ports.AttachmentStore
	processor   ports.AttachmentProcessor
	location    ports.LocationResolver
	tokens      *auth.TokenService
	domainCfg   *config.DomainConfig
	enableCORS  bool
	logger      *zap.Logger
}

// NewRouter creates a router instance
func NewRouter(
	session *services.SessionController,
	feed *services.NoteFeed,
	authService ports.AuthService,
	attachments ports.AttachmentStore,
	processor ports.AttachmentProcessor,
	location ports.LocationResolver,
	tokens *auth.TokenService,
	domainCfg *config.DomainConfig,
	enableCORS bool,
	logger *zap.Logger,
) *Router {
	return &Router{
		session:     session,
		feed:        feed,
		authService: authService,
		attachments: attachments,
		processor:   processor,
		location:    location,
		tokens:      tokens,
		domainCfg:   domainCfg,
		enableCORS:  enableCORS,
		logger:      logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	if rt.enableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:3000"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	errorHandler := pkgerrors.NewErrorHandler(rt.logger)
	loginLimiter := auth.NewLoginLimiter(10, time.Minute)

	authHandler := handlers.NewAuthHandler(rt.authService, rt.tokens, loginLimiter, errorHandler, rt.logger)
	noteHandler := handlers.NewNoteHandler(
		rt.session, rt.feed, rt.attachments, rt.processor, rt.location,
		rt.domainCfg, errorHandler, rt.logger,
	)
	wsHandler := ws.NewHandler(rt.session, rt.feed, rt.tokens, rt.logger)

	router.Get("/health", rt.healthCheck)

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", authHandler.SignUp)
			r.Post("/login", authHandler.Login)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Authenticate(rt.tokens, rt.session, rt.logger))
				r.Post("/logout", authHandler.Logout)
			})
		})

		r.Route("/notes", func(r chi.Router) {
			r.Use(middleware.Authenticate(rt.tokens, rt.session, rt.logger))
			r.Get("/", noteHandler.ListNotes)
			r.Post("/", noteHandler.CreateNote)
			r.Get("/{noteID}", noteHandler.GetNote)
			r.Put("/{noteID}", noteHandler.UpdateNote)
			r.Delete("/{noteID}", noteHandler.DeleteNote)
			r.Put("/{noteID}/attachment", noteHandler.UploadAttachment)
			r.Get("/{noteID}/attachment", noteHandler.FetchAttachment)
			r.Delete("/{noteID}/attachment", noteHandler.RemoveAttachment)
		})
	})

	// Token auth happens inside the handler; the upgrade request carries
	// the token as a query parameter.
	router.Get("/ws/notes", wsHandler.ServeHTTP)

	return router
}

func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`)) //nolint:errcheck
}
