package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/lenslegacy/class-booking/internal/api/handler"
	"github.com/lenslegacy/class-booking/internal/api/middleware"
	"github.com/lenslegacy/class-booking/internal/core/domain"
	"github.com/lenslegacy/class-booking/internal/core/ports"
)

// Services are the core use cases the router dispatches to.
type Services struct {
	Identity   ports.IdentityService
	Classes    ports.ClassService
	Enrollment ports.EnrollmentService
}

// RouterConfig carries the transport settings of the router.
type RouterConfig struct {
	JWTSecret        string
	CORSAllowOrigins []string
	HealthChecks     map[string]handler.HealthCheck

	// Registerer and Gatherer default to the Prometheus default registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(cfg RouterConfig, svc Services, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	if cfg.Registerer == nil {
		cfg.Registerer = prometheus.DefaultRegisterer
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(log))
	if len(cfg.CORSAllowOrigins) > 0 {
		e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
			AllowOrigins: cfg.CORSAllowOrigins,
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		}))
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "http",
		Registerer: cfg.Registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	// --- Handlers ---
	identity := handler.NewIdentityHandler(svc.Identity)
	classes := handler.NewClassHandler(svc.Classes)
	enrollment := handler.NewEnrollmentHandler(svc.Enrollment)
	health := handler.NewHealthHandler(cfg.HealthChecks)

	authenticated := middleware.Auth(cfg.JWTSecret)
	admin := middleware.RequireRole(svc.Identity, domain.RoleAdmin)
	instructor := middleware.RequireRole(svc.Identity, domain.RoleInstructor)

	// --- Identities ---
	e.POST("/identities", identity.Register)
	e.POST("/credentials", identity.IssueCredential)
	e.GET("/identities", identity.ListUsers, authenticated, admin)
	e.PATCH("/identities/:email/role", identity.SetRole, authenticated, admin)
	e.GET("/identities/:email/role/admin", identity.IsAdmin, authenticated)
	e.GET("/identities/:email/role/instructor", identity.IsInstructor, authenticated)
	e.GET("/instructors", identity.ListInstructors)
	e.GET("/instructors/:email/classes", classes.ListByInstructor, authenticated, instructor)

	// --- Classes ---
	e.GET("/classes", classes.List)
	e.GET("/classes/popular", classes.Popular)
	e.GET("/classes/:id", classes.Get)
	e.POST("/classes", classes.Create, authenticated, instructor)
	e.PUT("/classes/:id", classes.Update, authenticated, instructor)
	e.GET("/admin/classes", classes.ListAll, authenticated, admin)
	e.PATCH("/classes/:id/status", classes.SetStatus, authenticated, admin)
	e.PUT("/classes/:id/feedback", classes.SetFeedback, authenticated, admin)

	// --- Enrollment ---
	self := e.Group("/identities/:email", authenticated)
	self.POST("/selection", enrollment.Select)
	self.DELETE("/selection", enrollment.Deselect)
	self.GET("/selection", enrollment.ListSelected)
	self.GET("/enrollment", enrollment.ListEnrolled)
	self.GET("/payments", enrollment.PaymentHistory)

	e.POST("/payment-intents", enrollment.CreatePaymentIntent, authenticated)
	e.POST("/payments", enrollment.ConfirmPayment, authenticated)

	// --- Operations (no auth required) ---
	e.GET("/", health.Root)
	e.GET("/health", health.Liveness)
	e.GET("/health/ready", health.Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: cfg.Gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// requestLogger writes one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			event := log.Info()
			if v.Status >= 500 {
				event = log.Warn()
			}
			event.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
