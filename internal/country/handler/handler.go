package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/countrydata/country-service/internal/country"
	"github.com/countrydata/country-service/internal/country/repository"
	"github.com/countrydata/country-service/internal/country/service"
	"github.com/countrydata/country-service/internal/gateway"
	"github.com/countrydata/country-service/internal/report"
)

// Handler exposes the country API: the refresh trigger, the filtered
// listing, single lookups, the dataset status and the summary image.
type Handler struct {
	svc       *service.Service
	artifacts report.ArtifactStore
}

func New(svc *service.Service, artifacts report.ArtifactStore) *Handler {
	return &Handler{svc: svc, artifacts: artifacts}
}

func (h *Handler) Register(r *gin.Engine) {
	r.POST("/countries/refresh", h.Refresh)
	r.GET("/countries", h.List)
	r.GET("/countries/image", h.SummaryImage)
	r.GET("/countries/:name", h.Get)
	r.DELETE("/countries/:name", h.Delete)
	r.GET("/status", h.Status)
}

func (h *Handler) Refresh(c *gin.Context) {
	res, err := h.svc.Refresh(c.Request.Context())
	if err != nil {
		switch {
		case errors.Is(err, gateway.ErrSourceUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error":   "External data source unavailable",
				"details": err.Error(),
			})
		case errors.Is(err, service.ErrBatchInvalid):
			details := []string{}
			if res != nil {
				details = res.Errors
			}
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Validation failed",
				"details": details,
			})
		case errors.Is(err, service.ErrRefreshInProgress):
			c.JSON(http.StatusConflict, gin.H{"error": "Refresh already in progress"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	errs := res.Errors
	if errs == nil {
		errs = []string{}
	}
	c.JSON(http.StatusOK, gin.H{
		"message":           "Refresh successful",
		"last_refreshed_at": res.LastRefreshedAt.Format(time.RFC3339),
		"valid_count":       res.ValidCount,
		"errors":            errs,
	})
}

func (h *Handler) List(c *gin.Context) {
	filters := map[string]string{}
	for key, values := range c.Request.URL.Query() {
		if key == "sort" {
			continue
		}
		v := ""
		if len(values) > 0 {
			v = values[0]
		}
		filters[key] = v
	}

	out, err := h.svc.Query(c.Request.Context(), filters, c.Query("sort"))
	if err != nil {
		var verr *country.ValidationError
		switch {
		case errors.As(err, &verr):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": verr.Details})
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "No countries match the given filters"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}
	c.JSON(http.StatusOK, country.WithDisplayIDs(out))
}

func (h *Handler) Get(c *gin.Context) {
	rec, err := h.svc.Get(c.Request.Context(), c.Param("name"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Country not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, country.Display{ID: 1, Country: rec})
}

func (h *Handler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("name")); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Country not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) Status(c *gin.Context) {
	st, err := h.svc.Status(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) SummaryImage(c *gin.Context) {
	data, err := h.artifacts.Load(c.Request.Context())
	if err != nil {
		if errors.Is(err, report.ErrNoArtifact) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Summary image not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.Data(http.StatusOK, "image/png", data)
}
