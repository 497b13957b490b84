package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/i474232898/weather-lookup/internal/display"
	"github.com/i474232898/weather-lookup/internal/location"
	"github.com/i474232898/weather-lookup/internal/session"
	"github.com/i474232898/weather-lookup/internal/store"
	"github.com/i474232898/weather-lookup/internal/weather"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("zip5", validZip5); err != nil {
		panic(err)
	}
	return v
}

func validZip5(fl validator.FieldLevel) bool {
	return weather.IsValidPostalCode(fl.Field().String())
}

// Options carry what the routes need besides the service and the session store.
type Options struct {
	// Device answers server-side device-location requests; denied when nil.
	Device        weather.LocationSource
	Timezone      *time.Location
	LookupTimeout time.Duration
	// NewID generates session ids; uuid.NewString when nil.
	NewID func() string
}

type handler struct {
	service  *weather.Service
	sessions *store.MemoryStore
	opts     Options
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.Service, sessions *store.MemoryStore, opts Options) {
	if opts.Device == nil {
		opts.Device = location.Denied()
	}
	if opts.Timezone == nil {
		opts.Timezone = time.UTC
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	h := &handler{service: service, sessions: sessions, opts: opts}

	v1 := app.Group("/api/v1")

	v1.Get("/geocode/zip/:zip", h.geocodeZip)
	v1.Get("/weather/zip/:zip", h.weatherByZip)
	v1.Get("/weather/coords", h.weatherByCoords)

	v1.Post("/sessions", h.createSession)
	v1.Get("/sessions/:id", h.getSession)
	v1.Post("/sessions/:id/lookup", h.lookup)
	v1.Post("/sessions/:id/location", h.reportLocation)
	v1.Post("/sessions/:id/device", h.deviceLocation)
	v1.Post("/sessions/:id/reset", h.reset)
	v1.Delete("/sessions/:id", h.deleteSession)
}

// ErrorHandler renders every error as {"error": true, "message": ...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

// zipQuery holds the path parameter of the stateless zip lookup.
type zipQuery struct {
	Zip string `validate:"zip5"`
}

func (h *handler) geocodeZip(c *fiber.Ctx) error {
	q := zipQuery{Zip: c.Params("zip")}
	if err := validate.Struct(q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, weather.MsgInvalidZip)
	}

	ctx, cancel := h.lookupContext(c)
	defer cancel()

	res, err := h.service.GeocodePostalCode(ctx, q.Zip)
	if err != nil {
		return lookupError(err)
	}
	return c.JSON(fiber.Map{
		"zip":     q.Zip,
		"country": h.service.Country(),
		"lat":     res.Latitude,
		"lon":     res.Longitude,
	})
}

func (h *handler) weatherByZip(c *fiber.Ctx) error {
	q := zipQuery{Zip: c.Params("zip")}
	if err := validate.Struct(q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, weather.MsgInvalidZip)
	}

	ctx, cancel := h.lookupContext(c)
	defer cancel()

	snap, err := h.service.ResolveByPostalCode(ctx, q.Zip)
	if err != nil {
		return lookupError(err)
	}
	return c.JSON(h.weatherResponse(snap))
}

// coordsQuery holds query parameters for the stateless coordinate lookup.
type coordsQuery struct {
	Lat float64 `validate:"gte=-90,lte=90"`
	Lon float64 `validate:"gte=-180,lte=180"`
}

func (h *handler) weatherByCoords(c *fiber.Ctx) error {
	latStr, lonStr := c.Query("lat"), c.Query("lon")
	if latStr == "" || lonStr == "" {
		return fiber.NewError(fiber.StatusBadRequest, "lat and lon query parameters are required")
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid lat")
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid lon")
	}

	q := coordsQuery{Lat: lat, Lon: lon}
	if err := validate.Struct(q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	ctx, cancel := h.lookupContext(c)
	defer cancel()

	snap, err := h.service.ResolveByCoordinates(ctx, q.Lat, q.Lon)
	if err != nil {
		return lookupError(err)
	}
	return c.JSON(h.weatherResponse(snap))
}

type createSessionRequest struct {
	AutoLocate bool `json:"autoLocate"`
}

func (h *handler) createSession(c *fiber.Ctx) error {
	var req createSessionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
	}

	s := session.New(h.opts.NewID(), h.service, session.Options{
		Timezone:      h.opts.Timezone,
		LookupTimeout: h.opts.LookupTimeout,
	})
	h.sessions.Save(s)

	if req.AutoLocate {
		// Location on open is best effort; failures are only logged.
		s.LocateAsync(h.opts.Device, true)
	}

	return c.Status(fiber.StatusCreated).JSON(s.View())
}

func (h *handler) getSession(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	return c.JSON(s.View())
}

type lookupRequest struct {
	Name string `json:"name"`
	Zip  string `json:"zip"`
}

func (h *handler) lookup(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	var req lookupRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	return c.JSON(s.Submit(c.UserContext(), req.Name, req.Zip))
}

// locationRequest is the client platform's answer to a location permission prompt.
type locationRequest struct {
	Name   string   `json:"name"`
	Lat    *float64 `json:"lat" validate:"omitempty,gte=-90,lte=90"`
	Lon    *float64 `json:"lon" validate:"omitempty,gte=-180,lte=180"`
	Denied bool     `json:"denied"`
	Error  string   `json:"error"`
}

func (h *handler) reportLocation(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	var req locationRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	src := location.Reported{
		Latitude:  req.Lat,
		Longitude: req.Lon,
		Denied:    req.Denied,
		Error:     req.Error,
	}
	return c.JSON(s.UseLocation(c.UserContext(), req.Name, src))
}

func (h *handler) deviceLocation(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	s.LocateAsync(h.opts.Device, false)
	return c.Status(fiber.StatusAccepted).JSON(s.View())
}

func (h *handler) reset(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	return c.JSON(s.Reset())
}

func (h *handler) deleteSession(c *fiber.Ctx) error {
	if err := h.sessions.Delete(c.Params("id")); err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *handler) session(c *fiber.Ctx) (*session.Session, error) {
	s, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	return s, nil
}

func (h *handler) lookupContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	timeout := h.opts.LookupTimeout
	if timeout <= 0 {
		timeout = session.DefaultLookupTimeout
	}
	return context.WithTimeout(c.UserContext(), timeout)
}

func (h *handler) weatherResponse(snap weather.WeatherSnapshot) fiber.Map {
	return fiber.Map{
		"snapshot": snap,
		"weather":  display.NewCard("", snap, h.opts.Timezone),
	}
}

// lookupError maps the lookup taxonomy onto HTTP statuses.
func lookupError(err error) error {
	msg := weather.UserMessage(err)
	switch {
	case errors.Is(err, weather.ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, msg)
	case errors.Is(err, weather.ErrConfig):
		return fiber.NewError(fiber.StatusServiceUnavailable, msg)
	case errors.Is(err, weather.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, msg)
	case errors.Is(err, weather.ErrPermissionDenied):
		return fiber.NewError(fiber.StatusForbidden, msg)
	case errors.Is(err, weather.ErrLocationUnavailable):
		return fiber.NewError(fiber.StatusServiceUnavailable, msg)
	case errors.Is(err, weather.ErrParse), errors.Is(err, weather.ErrAPI):
		return fiber.NewError(fiber.StatusBadGateway, msg)
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.NewError(fiber.StatusGatewayTimeout, msg)
	default:
		return fiber.NewError(http.StatusInternalServerError, msg)
	}
}
