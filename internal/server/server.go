package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/yukikurage/company-task-api/internal/config"
	"github.com/yukikurage/company-task-api/internal/handlers"
	"github.com/yukikurage/company-task-api/internal/logger"
	"github.com/yukikurage/company-task-api/internal/metrics"
	"github.com/yukikurage/company-task-api/internal/middleware"
	"github.com/yukikurage/company-task-api/internal/services"
	"go.uber.org/zap"
)

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	Tokens      middleware.TokenVerifier
	AuthService *services.AuthService
	UserService *services.UserService
	TaskService *services.TaskService
	Metrics     *metrics.Metrics
	Logger      *zap.Logger
}

// NewRouter registers every route on a fresh gin engine.
func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(deps.Logger))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware())
		r.GET("/metrics", deps.Metrics.Handler())
	}

	authHandler := handlers.NewAuthHandler(deps.AuthService)
	userHandler := handlers.NewUserHandler(deps.UserService)
	taskHandler := handlers.NewTaskHandler(deps.TaskService)
	requireAuth := middleware.RequireAuth(deps.Tokens)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Company Task API is running",
		})
	})

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.GET("/me", requireAuth, authHandler.GetCurrentUser)
		}

		tasks := api.Group("/tasks")
		tasks.Use(requireAuth)
		{
			tasks.GET("", taskHandler.ListTasks)
			tasks.POST("", taskHandler.CreateTask)
			tasks.PATCH("/status", taskHandler.UpdateTaskStatus)
			tasks.GET("/history", taskHandler.ListHistory)
			tasks.GET("/deleted", taskHandler.ListDeleted)
			tasks.POST("/generate", taskHandler.GenerateTasks)
			tasks.PATCH("/:id", middleware.RequireTaskID(), taskHandler.UpdateTask)
		}

		users := api.Group("/users")
		users.Use(requireAuth)
		{
			users.GET("/profile", userHandler.GetProfile)
			users.PATCH("/profile", userHandler.UpdateProfile)

			company := users.Group("", middleware.RequireCompany())
			company.POST("/create-employee", userHandler.CreateEmployee)
			company.PATCH("/toggle-status", userHandler.ToggleStatus)
			company.GET("/employees", userHandler.ListEmployees)
			company.PATCH("/employee", userHandler.EditEmployee)
		}
	}

	return r
}

// Server wraps the router in an http.Server with CORS applied.
type Server struct {
	cfg    *config.Config
	log    *zap.Logger
	server *http.Server
}

// New creates a Server listening on cfg.Port.
func New(cfg *config.Config, router http.Handler, log *zap.Logger) *Server {
	handler := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions,
		},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
	}).Handler(router)

	return &Server{
		cfg: cfg,
		log: log,
		server: &http.Server{
			Addr:              net.JoinHostPort("", cfg.Port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// ListenAndServe serves until Shutdown is called. ctx becomes the base
// context of every request.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.server.BaseContext = func(_ net.Listener) context.Context { return ctx }
	s.log.Info("Server starting", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
