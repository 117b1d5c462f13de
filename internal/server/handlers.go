package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/veradanicode/Country-Currency-and-Exchange-Api/internal/db"
	"github.com/veradanicode/Country-Currency-and-Exchange-Api/models"
)

// maxBodyBytes caps update bodies.
const maxBodyBytes = 1 << 20

type handlers struct {
	deps Deps
}

type refreshResponse struct {
	Message         string    `json:"message"`
	TotalCountries  int64     `json:"total_countries"`
	LastRefreshedAt time.Time `json:"last_refreshed_at"`
}

type listResponse struct {
	Total     int              `json:"total"`
	Countries []models.Country `json:"countries"`
}

type updateResponse struct {
	Message string          `json:"message"`
	Country *models.Country `json:"country"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type statusResponse struct {
	TotalCountries  int64      `json:"total_countries"`
	LastRefreshedAt *time.Time `json:"last_refreshed_at"`
}

func (h *handlers) refresh(c echo.Context) error {
	// a refresh runs to completion even if the caller goes away
	ctx := context.WithoutCancel(c.Request().Context())

	res, err := h.deps.Refresher.Refresh(ctx)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, refreshResponse{
		Message:         "Refresh complete",
		TotalCountries:  res.TotalCountries,
		LastRefreshedAt: res.LastRefreshedAt,
	})
}

func (h *handlers) list(c echo.Context) error {
	filter, err := parseFilter(c)
	if err != nil {
		return writeError(c, err)
	}

	countries, err := h.deps.Countries.List(c.Request().Context(), filter)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, listResponse{Total: len(countries), Countries: countries})
}

func (h *handlers) get(c echo.Context) error {
	name, ok := nameParam(c)
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "Country name is required", nil)
	}

	country, err := h.deps.Countries.FindByName(c.Request().Context(), name)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, country)
}

// replaceRequired are the fields a PUT body must carry.
var replaceRequired = []string{"name", "population", "currency_code"}

func (h *handlers) replace(c echo.Context) error {
	return h.update(c, replaceRequired)
}

func (h *handlers) patch(c echo.Context) error {
	return h.update(c, nil)
}

func (h *handlers) update(c echo.Context, required []string) error {
	name, ok := nameParam(c)
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "Country name is required", nil)
	}

	raw, err := decodeObject(c.Request().Body)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid JSON body", err.Error())
	}
	if len(raw) == 0 {
		return writeError(c, db.ErrEmptyUpdate)
	}

	missing := map[string]string{}
	for _, field := range required {
		if v, ok := raw[field]; !ok || v == nil || v == "" {
			missing[field] = "is required"
		}
	}
	if len(missing) > 0 {
		return errorJSON(c, http.StatusBadRequest, "Validation failed", missing)
	}

	fields, err := models.NormalizeUpdate(raw)
	if err != nil {
		return writeError(c, err)
	}

	country, err := h.deps.Countries.Update(c.Request().Context(), name, fields)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, updateResponse{Message: "Country updated successfully", Country: country})
}

func (h *handlers) delete(c echo.Context) error {
	name, ok := nameParam(c)
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "Country name is required", nil)
	}

	if err := h.deps.Countries.Delete(c.Request().Context(), name); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Country deleted"})
}

func (h *handlers) image(c echo.Context) error {
	info, err := os.Stat(h.deps.ImagePath)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && info.IsDir()) {
		return errorJSON(c, http.StatusNotFound, "Summary image not found", nil)
	}
	if err != nil {
		return writeError(c, err)
	}

	c.Response().Header().Set(echo.HeaderCacheControl, "no-cache")
	return c.File(h.deps.ImagePath)
}

func (h *handlers) status(c echo.Context) error {
	ctx := c.Request().Context()

	total, err := h.deps.Countries.Count(ctx)
	if err != nil {
		return writeError(c, err)
	}
	st, err := h.deps.Status.Get(ctx)
	if err != nil {
		return writeError(c, err)
	}

	resp := statusResponse{TotalCountries: total}
	if st != nil {
		at := st.LastRefreshedAt.UTC()
		resp.LastRefreshedAt = &at
	}
	return c.JSON(http.StatusOK, resp)
}

// nameParam returns the unescaped :name path segment.
func nameParam(c echo.Context) (string, bool) {
	raw := c.Param("name")
	name, err := url.PathUnescape(raw)
	if err != nil {
		name = raw
	}
	name = strings.TrimSpace(name)
	return name, name != ""
}

// decodeObject reads a JSON object body. Numbers decode as float64.
func decodeObject(body io.Reader) (map[string]interface{}, error) {
	dec := json.NewDecoder(io.LimitReader(body, maxBodyBytes))
	var raw map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("unexpected data after JSON object")
	}
	return raw, nil
}

// parseFilter reads the list query. sortBy/order take precedence over the
// shorthand sort parameter (name, population, gdp_desc, population_desc...).
func parseFilter(c echo.Context) (models.CountryFilter, error) {
	filter := models.CountryFilter{
		Region:   strings.TrimSpace(c.QueryParam("region")),
		Currency: strings.TrimSpace(c.QueryParam("currency")),
	}
	if filter.Currency == "" {
		filter.Currency = strings.TrimSpace(c.QueryParam("currency_code"))
	}

	if sortBy := c.QueryParam("sortBy"); sortBy != "" {
		if !models.IsSortable(sortBy) {
			return filter, &models.FieldError{Field: "sortBy", Reason: "is not a sortable field"}
		}
		filter.SortField = sortBy
		switch strings.ToLower(c.QueryParam("order")) {
		case "", "asc":
		case "desc":
			filter.Descending = true
		default:
			return filter, &models.FieldError{Field: "order", Reason: "must be asc or desc"}
		}
		return filter, nil
	}

	sort := strings.ToLower(strings.TrimSpace(c.QueryParam("sort")))
	if sort == "" {
		filter.SortField = models.SortName
		return filter, nil
	}

	field, desc := sort, false
	switch {
	case strings.HasSuffix(sort, "_desc"):
		field, desc = strings.TrimSuffix(sort, "_desc"), true
	case strings.HasSuffix(sort, "_asc"):
		field = strings.TrimSuffix(sort, "_asc")
	}
	if field == "gdp" {
		field = models.SortEstimatedGDP
	}
	if !models.IsSortable(field) {
		return filter, &models.FieldError{Field: "sort", Reason: "is not a sortable field"}
	}
	filter.SortField, filter.Descending = field, desc
	return filter, nil
}
