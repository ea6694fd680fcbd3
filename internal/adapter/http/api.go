package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/couchcryptid/snowline-etl-service/internal/cache"
	"github.com/couchcryptid/snowline-etl-service/internal/domain"
	"github.com/couchcryptid/snowline-etl-service/internal/query"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-playground/validator/v10"
)

const msgInternal = "internal server error"

// ForecastQuerier serves the forecast endpoint.
type ForecastQuerier interface {
	Forecast(ctx context.Context, resortID int64) (query.Forecast, error)
}

// ConditionsQuerier serves the conditions endpoint.
type ConditionsQuerier interface {
	Conditions(ctx context.Context, resortID int64) (domain.ResortConditions, error)
}

// SnowpackQuerier serves the snowpack endpoint.
type SnowpackQuerier interface {
	Snowpack(ctx context.Context, resortID int64) ([]domain.SnowpackReading, error)
}

// DriveTimeQuerier serves the drive-times endpoint.
type DriveTimeQuerier interface {
	Near(ctx context.Context, lat, lng float64) (query.DriveTimes, error)
	ForPlace(ctx context.Context, place string) (query.DriveTimes, error)
}

// Refresher triggers a pipeline run outside its schedule.
type Refresher interface {
	RunNow(name string) error
}

// API wires the read-path services into the server.
type API struct {
	Forecasts  ForecastQuerier
	Conditions ConditionsQuerier
	Snowpack   SnowpackQuerier
	DriveTimes DriveTimeQuerier
	// Refresher, when set, enables POST /api/pipelines/{name}/run.
	Refresher Refresher
	// Token, when set, is required as a bearer credential on /api routes.
	Token string
}

type resortParams struct {
	ID int64 `query:"id" validate:"gt=0"`
}

type driveTimeParams struct {
	Lat   *float64 `query:"lat" validate:"required_without=Place,omitempty,gte=-90,lte=90"`
	Lng   *float64 `query:"lng" validate:"required_with=Lat,omitempty,gte=-180,lte=180"`
	Place string   `query:"q" validate:"omitempty,max=200"`
}

type handlers struct {
	api      API
	logger   *slog.Logger
	validate *validator.Validate
}

func newHandlers(api API, logger *slog.Logger) *handlers {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("query")
	})
	return &handlers{api: api, logger: logger, validate: v}
}

func (h *handlers) forecast(w http.ResponseWriter, r *http.Request) {
	p, ok := h.resortParams(w, r)
	if !ok {
		return
	}
	f, err := h.api.Forecasts.Forecast(r.Context(), p.ID)
	if err != nil {
		h.fail(w, r, err, "resort not found")
		return
	}
	writeCached(w, f, int(cache.TTLForecast.Seconds()))
}

func (h *handlers) conditions(w http.ResponseWriter, r *http.Request) {
	p, ok := h.resortParams(w, r)
	if !ok {
		return
	}
	c, err := h.api.Conditions.Conditions(r.Context(), p.ID)
	if err != nil {
		h.fail(w, r, err, "conditions not available")
		return
	}
	writeCached(w, c, int(cache.TTLConditions.Seconds()))
}

func (h *handlers) snowpack(w http.ResponseWriter, r *http.Request) {
	p, ok := h.resortParams(w, r)
	if !ok {
		return
	}
	readings, err := h.api.Snowpack.Snowpack(r.Context(), p.ID)
	if err != nil {
		h.fail(w, r, err, "resort not found")
		return
	}
	writeCached(w, map[string]any{"resortId": p.ID, "readings": readings}, int(cache.TTLSnowpack.Seconds()))
}

func (h *handlers) driveTimes(w http.ResponseWriter, r *http.Request) {
	var p driveTimeParams
	q := r.URL.Query()
	for _, f := range []struct {
		name string
		dst  **float64
	}{{"lat", &p.Lat}, {"lng", &p.Lng}} {
		raw := q.Get(f.name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, f.name+" must be a number")
			return
		}
		*f.dst = &v
	}
	p.Place = strings.TrimSpace(q.Get("q"))
	if !h.valid(w, p) {
		return
	}

	var (
		out query.DriveTimes
		err error
	)
	if p.Lat != nil {
		out, err = h.api.DriveTimes.Near(r.Context(), *p.Lat, *p.Lng)
	} else {
		out, err = h.api.DriveTimes.ForPlace(r.Context(), p.Place)
	}
	if err != nil {
		h.fail(w, r, err, "location not found")
		return
	}
	writeCached(w, out, int(cache.TTLDriveTimes.Seconds()))
}

func (h *handlers) resortParams(w http.ResponseWriter, r *http.Request) (resortParams, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "id must be an integer")
		return resortParams{}, false
	}
	p := resortParams{ID: id}
	return p, h.valid(w, p)
}

// valid writes a 400 naming the first offending parameter.
func (h *handlers) valid(w http.ResponseWriter, v any) bool {
	err := h.validate.Struct(v)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		writeError(w, http.StatusBadRequest, describe(verrs[0]))
		return false
	}
	writeError(w, http.StatusBadRequest, "invalid request")
	return false
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required_without":
		return "lat and lng, or q, are required"
	case "required_with":
		return fmt.Sprintf("%s is required", fe.Field())
	case "gte", "lte":
		return fmt.Sprintf("%s is out of range", fe.Field())
	case "gt":
		return fmt.Sprintf("%s must be positive", fe.Field())
	case "max":
		return fmt.Sprintf("%s is too long", fe.Field())
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}

func (h *handlers) runPipeline(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := h.api.Refresher.RunNow(name); err != nil {
		h.fail(w, r, err, "pipeline not found")
		return
	}
	sharedobs.WriteJSON(w, http.StatusAccepted, map[string]string{"pipeline": name, "status": "triggered"})
}

// fail maps a service error to a status. Unexpected errors are logged and
// surfaced as a generic 500.
func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, notFound)
	case errors.Is(err, query.ErrGeocodingDisabled):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
	}
}

func writeCached(w http.ResponseWriter, v any, maxAge int) {
	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", maxAge))
	sharedobs.WriteJSON(w, http.StatusOK, v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	sharedobs.WriteJSON(w, status, map[string]string{"error": msg})
}
