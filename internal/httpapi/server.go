// Package httpapi exposes the application over HTTP for the mobile client.
package httpapi

import (
	"errors"
	"math"
	"regexp"
	"strconv"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/ramble-labs/trailscout/app"
	"github.com/ramble-labs/trailscout/internal/metrics"
	"github.com/ramble-labs/trailscout/pkg/enrich"
	"github.com/ramble-labs/trailscout/pkg/geo"
	"github.com/rs/zerolog"
)

// ErrorResponse is the JSON body returned for failed requests. Retryable
// tells the client a retry may reach a recovered provider.
type ErrorResponse struct {
	Error     string `json:"error"`
	Retryable bool   `json:"retryable,omitempty"`
}

// browseCategoryPattern bounds browse categories to provider slug form.
// Internal cache namespaces carry a colon, which this pattern excludes, so
// no request can read or overwrite them.
var browseCategoryPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Server wires the application orchestrator into a Fiber HTTP server.
type Server struct {
	app    *app.App
	router *fiber.App
	logger zerolog.Logger
}

// NewServer creates the HTTP server with all routes registered.
func NewServer(application *app.App, logger zerolog.Logger) *Server {
	s := &Server{
		app:    application,
		logger: logger.With().Str("component", "httpapi").Logger(),
	}

	router := fiber.New(fiber.Config{
		AppName:      "trailscout",
		ErrorHandler: s.errorHandler,
	})
	router.Use(recover.New())
	router.Use(requestMetrics())

	router.Get("/healthz", s.handleHealth)
	router.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	v1 := router.Group("/api/v1")
	v1.Get("/trails", s.handleDiscover)
	v1.Get("/browse/:category", s.handleBrowse)
	v1.Post("/retry", s.handleRetry)

	s.router = router
	return s
}

// Listen serves HTTP on addr until Shutdown is called.
func (s *Server) Listen(addr string) error {
	s.logger.Info().Str("addr", addr).Msg("HTTP API listening")
	return s.router.Listen(addr)
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown() error {
	return s.router.Shutdown()
}

// Router exposes the underlying Fiber app, chiefly for tests.
func (s *Server) Router() *fiber.App {
	return s.router
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "healthy"})
}

func (s *Server) handleDiscover(c *fiber.Ctx) error {
	origin, err := parseOrigin(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	req := enrich.Request{Origin: origin, Filter: c.Query("q")}
	results, err := s.app.DiscoverTrailsSettled(c.UserContext(), req)
	if err != nil {
		return s.providerError(c, err)
	}
	return c.JSON(fiber.Map{"results": results})
}

func (s *Server) handleBrowse(c *fiber.Ctx) error {
	category := c.Params("category")
	if !browseCategoryPattern.MatchString(category) {
		return fiber.NewError(fiber.StatusBadRequest, "category must contain only letters, digits, hyphens and underscores")
	}
	origin, err := parseOrigin(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	page, err := s.app.BrowseCategory(c.UserContext(), category, c.Query("keyword"), origin, c.Query("token"))
	if err != nil {
		return s.providerError(c, err)
	}
	return c.JSON(page)
}

func (s *Server) handleRetry(c *fiber.Ctx) error {
	s.app.RetryAfterFailure(c.UserContext())
	return c.SendStatus(fiber.StatusAccepted)
}

// providerError maps upstream outages to 502 so the client can offer a
// retry; everything else falls through to the error handler.
func (s *Server) providerError(c *fiber.Ctx, err error) error {
	if errors.Is(err, enrich.ErrProviderUnavailable) {
		s.logger.Warn().Err(err).Str("path", c.Path()).Msg("Upstream provider unavailable")
		return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{
			Error:     "upstream provider unavailable",
			Retryable: true,
		})
	}
	return err
}

func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "internal server error"

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
		message = fiberErr.Message
	}
	if code >= fiber.StatusInternalServerError {
		s.logger.Error().Err(err).Str("path", c.Path()).Msg("Request failed")
	}
	return c.Status(code).JSON(ErrorResponse{Error: message})
}

func parseOrigin(c *fiber.Ctx) (geo.Point, error) {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		return geo.Point{}, errors.New("query parameter lat must be a number")
	}
	lng, err := strconv.ParseFloat(c.Query("lng"), 64)
	if err != nil {
		return geo.Point{}, errors.New("query parameter lng must be a number")
	}
	// ParseFloat accepts "NaN", which every range comparison lets through.
	if math.IsNaN(lat) || math.IsNaN(lng) || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return geo.Point{}, errors.New("coordinates out of range")
	}
	return geo.Point{Lat: lat, Lng: lng}, nil
}
