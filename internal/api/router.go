package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinic-client/internal/api/handler"
	"github.com/clinicdesk/clinic-client/internal/api/middleware"
	"github.com/clinicdesk/clinic-client/internal/core/ports"
	"github.com/clinicdesk/clinic-client/internal/core/service"
	"github.com/clinicdesk/clinic-client/internal/infrastructure/db/memory"
)

// Deps are the collaborators of the stub clinic server.
type Deps struct {
	Auth      ports.AuthService
	Patients  ports.PatientService
	Assistant ports.Assistant
	JWTSecret string
	Log       zerolog.Logger
	// Registry receives the HTTP metrics and backs /metrics. A nil
	// Registry uses the prometheus default registerer and gatherer.
	Registry     *prometheus.Registry
	AllowOrigins []string
}

// NewDeps wires the services over the given repositories.
func NewDeps(users ports.UserRepository, patients ports.PatientRepository, jwtSecret string, tokenTTL time.Duration, log zerolog.Logger) Deps {
	return Deps{
		Auth:      service.NewAuthService(users, jwtSecret, tokenTTL),
		Patients:  service.NewPatientService(patients),
		Assistant: service.NewCannedAssistant(),
		JWTSecret: jwtSecret,
		Log:       log,
	}
}

// NewInMemoryDeps wires the services over fresh in-memory repositories.
func NewInMemoryDeps(jwtSecret string, tokenTTL time.Duration, log zerolog.Logger) Deps {
	return NewDeps(memory.NewUserRepository(), memory.NewPatientRepository(), jwtSecret, tokenTTL, log)
}

// NewRouter builds and returns the Echo instance with all routes registered
// under /api, plus /health and /metrics at the root.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if deps.Registry != nil {
		registerer, gatherer = deps.Registry, deps.Registry
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	if len(deps.AllowOrigins) > 0 {
		e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
			AllowOrigins:     deps.AllowOrigins,
			AllowCredentials: true,
		}))
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "clinic_stub",
		Registerer: registerer,
	}))

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	patientHandler := handler.NewPatientHandler(deps.Patients)
	chatHandler := handler.NewChatHandler(deps.Assistant)
	authMiddleware := middleware.Auth(deps.JWTSecret)

	// --- Probes (no auth required) ---
	e.GET("/health", handler.NewHealthHandler().Liveness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))

	api := e.Group("/api")

	// --- Auth routes ---
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.GET("/auth/me", authHandler.Me, authMiddleware)
	api.POST("/auth/change-password", authHandler.ChangePassword, authMiddleware)

	// --- Patients ---
	patients := api.Group("/patients", authMiddleware)
	patients.GET("", patientHandler.List)
	patients.POST("", patientHandler.Create)
	patients.GET("/:id", patientHandler.Get)
	patients.PUT("/:id", patientHandler.Update)
	patients.DELETE("/:id", patientHandler.Delete)

	// --- Assistant ---
	api.POST("/chat", chatHandler.Chat, authMiddleware)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("path", v.URI).
				Int("status", v.Status).
				Str("request_id", v.RequestID).
				Dur("duration", v.Latency).
				Msg("request")
			return nil
		},
	})
}
