// Package sandbox is a local stand-in for the admin API. It implements the
// moderation endpoints with real approval gating on top of gorm so the
// console can be developed and tested without the production backend.
package sandbox

import (
	"context"
	"net/http"
	"time"

	"admingate/internal/capability"
	"admingate/internal/models"
	"admingate/internal/observability"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

const serviceName = "admingate-sandbox"

// Options configures a sandbox Server.
type Options struct {
	JWTSecret string
	Policy    *capability.Policy
	// Registry receives the HTTP metrics. A fresh registry is used when nil.
	Registry *prometheus.Registry
	Now      func() time.Time
}

// Server serves the sandbox admin API.
type Server struct {
	db        *gorm.DB
	dbMetrics *observability.DatabaseMetrics
	secret    []byte
	policy    *capability.Policy
	now       func() time.Time
	registry  *prometheus.Registry
	prom      *fiberprometheus.FiberPrometheus
	executors map[models.ApprovalActionType]executor
	app       *fiber.App
}

// New builds a Server on an already migrated database.
func New(db *gorm.DB, opts Options) *Server {
	if opts.Policy == nil {
		opts.Policy = capability.NewPolicy("")
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Server{
		db:        db,
		dbMetrics: observability.NewDatabaseMetrics(db),
		secret:    []byte(opts.JWTSecret),
		policy:    opts.Policy,
		now:       func() time.Time { return opts.Now().UTC() },
		registry:  opts.Registry,
		prom:      fiberprometheus.NewWithRegistry(opts.Registry, serviceName, "sandbox", "http", nil),
	}
	s.executors = s.actionExecutors()

	app := fiber.New(fiber.Config{
		AppName: serviceName,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			observability.GlobalLogger.ErrorContext(c.UserContext(), "sandbox request failed", "error", err)
			return respondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		},
	})
	s.setupMiddleware(app)
	s.setupRoutes(app)
	s.app = app
	return s
}

// App returns the fiber application.
func (s *Server) App() *fiber.App {
	return s.app
}

// Handler exposes the application as a net/http handler.
func (s *Server) Handler() http.Handler {
	return adaptor.FiberApp(s.app)
}

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	observability.GlobalLogger.Info("sandbox listening", "addr", addr)
	return s.app.Listen(addr)
}

// Shutdown stops the HTTP server and closes the database.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.app.ShutdownWithContext(ctx); err != nil {
		observability.GlobalLogger.Error("error shutting down sandbox", "error", err)
	}
	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			observability.GlobalLogger.Error("error closing sandbox database", "error", cerr)
		}
	}
	return nil
}

func (s *Server) setupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(func(c *fiber.Ctx) error {
		id := c.Get("X-Correlation-ID")
		if id == "" {
			id = observability.GenerateCorrelationID()
		}
		c.SetUserContext(observability.WithCorrelationID(c.UserContext(), id))
		c.Set("X-Correlation-ID", id)
		return c.Next()
	})
	app.Use(s.prom.Middleware)
}

func (s *Server) setupRoutes(app *fiber.App) {
	app.Get("/health/live", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "up", "time": s.now()})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	admin := app.Group("/admin", s.authRequired())
	admin.Get("/me", s.GetMe)

	users := admin.Group("/users")
	users.Get("/", s.ListUsers)
	users.Patch("/:id/status", s.UpdateUserStatus)
	users.Post("/:id/restrictions", s.UpsertRestriction)
	users.Post("/:id/ban", s.BanUser)
	users.Patch("/:id/admin-actions/resolve", s.ResolveUserAccess)
	users.Get("/:id", s.GetUserDetail)

	admin.Get("/customers", s.ListCustomers)
	admin.Get("/branches", s.ListBranches)

	products := admin.Group("/products")
	products.Get("/", s.ListProducts)
	products.Post("/", s.CreateProduct)
	products.Patch("/:id/visibility", s.SetProductVisibility)
	products.Patch("/:id", s.UpdateProduct)
	products.Delete("/:id", s.DeleteProduct)

	admin.Get("/audit-logs", s.ListAuditLogs)
	admin.Delete("/audit-logs/:id", s.DeleteAuditLog)

	admin.Get("/inventory-requests", s.ListInventoryRequests)
	admin.Patch("/inventory-requests/:id/decision", s.DecideInventoryRequest)

	admin.Patch("/staff-rules/:role", s.UpdateStaffRule)

	approvals := admin.Group("/approval-requests")
	approvals.Get("/", s.ListApprovalRequests)
	approvals.Post("/:id/cancel", s.CancelApprovalRequest)
	approvals.Patch("/:id/decision", s.DecideApprovalRequest)
	approvals.Get("/:id", s.GetApprovalRequest)
}

// respondWithError writes the standard error body.
func respondWithError(c *fiber.Ctx, status int, err error) error {
	var response models.ErrorResponse
	if appErr, ok := err.(*models.AppError); ok {
		response = models.ErrorResponse{Error: appErr.Message, Code: appErr.Code}
		if appErr.Err != nil {
			response.Details = appErr.Err.Error()
		}
	} else {
		response = models.ErrorResponse{Error: err.Error()}
	}
	return c.Status(status).JSON(response)
}

func respondWithCode(c *fiber.Ctx, status int, code, reason, message string) error {
	return c.Status(status).JSON(models.ErrorResponse{Error: message, Code: code, Reason: reason})
}

func (s *Server) actor(c *fiber.Ctx) *User {
	return c.Locals("actor").(*User)
}

func pagination(c *fiber.Ctx) (page, limit int) {
	page = c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit = c.QueryInt("limit", 20)
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}
