package httpapi

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/i474232898/tide-gauge/internal/clock"
	"github.com/i474232898/tide-gauge/internal/metrics"
	"github.com/i474232898/tide-gauge/internal/store"
	"github.com/i474232898/tide-gauge/internal/tide"
	"github.com/i474232898/tide-gauge/internal/weather"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// SnapshotReader returns copies of both state records.
type SnapshotReader interface {
	Snapshot() store.Snapshot
}

// CodeReader reports the last code written to the needle.
type CodeReader interface {
	Code() uint8
}

// Breaker reports the state of one upstream's circuit breaker.
type Breaker interface {
	Name() string
	State() string
}

// Resetter runs the configured reset hook.
type Resetter interface {
	Reset(ctx context.Context) error
}

// Deps is everything the status server reads from.
type Deps struct {
	Store    SnapshotReader
	Needle   CodeReader
	Clock    clock.Clock
	Breakers []Breaker
	Metrics  *metrics.Collector
	Resetter Resetter

	// Shutdown is called after a successful reset response has been sent.
	Shutdown   func()
	ResetGrace time.Duration

	Station    tide.Station
	Location   weather.Location
	DisplayLoc *time.Location

	Log *zap.SugaredLogger
}

// NewServer builds the fiber app with all routes registered.
func NewServer(deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "tide-gauge",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(logger.New())
	app.Use(recover.New())

	RegisterRoutes(app, deps)
	return app
}

// RegisterRoutes wires the HTTP handlers into the Fiber app. Unknown paths
// get a plain 404.
func RegisterRoutes(app *fiber.App, deps Deps) {
	h := &handlers{deps: deps}
	if h.deps.DisplayLoc == nil {
		h.deps.DisplayLoc = time.UTC
	}

	app.Get("/", h.statusPage)
	app.Get("/health", h.health)
	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics.Handler()))
	}
	app.Get("/reset", h.reset)
	app.Post("/reset", h.reset)

	v1 := app.Group("/api/v1")
	v1.Get("/status", h.status)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).SendString("Not found")
	})
}

type handlers struct {
	deps Deps
}

func (h *handlers) view() statusView {
	return newStatusView(
		h.deps.Store.Snapshot(),
		h.deps.Station,
		h.deps.Location,
		h.deps.Needle.Code(),
		h.deps.Clock.Synced(),
		h.deps.Clock.Now(),
	)
}

func (h *handlers) statusPage(c *fiber.Ctx) error {
	return render(c, fiber.StatusOK, "status.html", newPageData(h.view(), h.deps.DisplayLoc))
}

func (h *handlers) status(c *fiber.Ctx) error {
	return c.JSON(h.view())
}

func (h *handlers) health(c *fiber.Ctx) error {
	snap := h.deps.Store.Snapshot()
	synced := h.deps.Clock.Synced()

	status := "ok"
	if !synced {
		status = "degraded"
	}
	breakers := make(map[string]string, len(h.deps.Breakers))
	for _, b := range h.deps.Breakers {
		state := b.State()
		breakers[b.Name()] = state
		if state != "closed" {
			status = "degraded"
		}
	}

	return c.JSON(fiber.Map{
		"status":       status,
		"service":      "tide-gauge",
		"clockSynced":  synced,
		"tideValid":    snap.Tide.Valid,
		"weatherValid": snap.Weather.Valid,
		"breakers":     breakers,
	})
}

func (h *handlers) reset(c *fiber.Ctx) error {
	if h.deps.Resetter == nil {
		return fiber.NewError(fiber.StatusNotImplemented, "reset is not configured")
	}

	h.deps.Log.Warnw("reset requested", "remote", c.IP())
	if err := h.deps.Resetter.Reset(c.UserContext()); err != nil {
		h.deps.Log.Errorw("reset hook failed", "error", err)
		return render(c, fiber.StatusInternalServerError, "reset.html", fiber.Map{"Err": err.Error()})
	}

	if err := render(c, fiber.StatusOK, "reset.html", fiber.Map{"Err": ""}); err != nil {
		return err
	}
	if h.deps.Shutdown != nil {
		// Let the confirmation page reach the client first.
		time.AfterFunc(h.deps.ResetGrace, h.deps.Shutdown)
	}
	return nil
}

func render(c *fiber.Ctx, status int, name string, data interface{}) error {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "render "+name+": "+err.Error())
	}
	c.Type("html", "utf-8")
	return c.Status(status).Send(buf.Bytes())
}
