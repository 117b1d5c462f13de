package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/veradanicode/Country-Currency-and-Exchange-Api/internal/db"
	"github.com/veradanicode/Country-Currency-and-Exchange-Api/internal/logger"
	"github.com/veradanicode/Country-Currency-and-Exchange-Api/models"
	"github.com/veradanicode/Country-Currency-and-Exchange-Api/services/refresh"
)

type errorResponse struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

func errorJSON(c echo.Context, status int, msg string, details interface{}) error {
	return c.JSON(status, errorResponse{Error: msg, Details: details})
}

// writeError maps domain errors to HTTP responses. Anything unrecognised is
// logged and reported as a bare internal error.
func writeError(c echo.Context, err error) error {
	var fieldErr *models.FieldError

	switch {
	case errors.Is(err, refresh.ErrNotConfigured):
		return errorJSON(c, http.StatusInternalServerError, "Server misconfigured: external API URLs missing", nil)
	case errors.Is(err, refresh.ErrUpstreamUnavailable):
		return errorJSON(c, http.StatusServiceUnavailable, "External data source unavailable",
			"Could not fetch data from Countries API or Exchange Rates API")
	case errors.Is(err, refresh.ErrInvalidPayload):
		return errorJSON(c, http.StatusBadGateway, "Invalid data from external source", nil)
	case errors.Is(err, refresh.ErrNoValidCountries):
		return errorJSON(c, http.StatusInternalServerError, "No valid countries to store", nil)
	case errors.Is(err, refresh.ErrRefreshInProgress):
		return errorJSON(c, http.StatusConflict, "Refresh already in progress", nil)
	case errors.Is(err, db.ErrNotFound):
		return errorJSON(c, http.StatusNotFound, "Country not found", nil)
	case errors.Is(err, db.ErrEmptyUpdate):
		return errorJSON(c, http.StatusBadRequest, "No update fields provided", nil)
	case errors.Is(err, db.ErrDuplicateName):
		return errorJSON(c, http.StatusConflict, "Country name already exists", nil)
	case errors.As(err, &fieldErr):
		return errorJSON(c, http.StatusBadRequest, "Validation failed", map[string]string{fieldErr.Field: fieldErr.Reason})
	}

	logger.WithFields(map[string]interface{}{
		"method": c.Request().Method,
		"path":   c.Path(),
	}).Errorf("unhandled error: %v", err)
	return errorJSON(c, http.StatusInternalServerError, "Internal server error", nil)
}

// httpErrorHandler renders errors that escape handlers, such as unknown
// routes and recovered panics, in the same JSON shape.
func httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok && m != "" {
			msg = m
		}
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(he.Code)
			return
		}
		_ = errorJSON(c, he.Code, msg, nil)
		return
	}

	_ = writeError(c, err)
}
