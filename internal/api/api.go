// Package api serves the dashboard pages, exports, JSON API and health probes.
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/celerix-dev/guardup-admin/internal/domain"
	"github.com/celerix-dev/guardup-admin/internal/entries"
	"github.com/celerix-dev/guardup-admin/internal/query"
	"github.com/celerix-dev/guardup-admin/internal/reports"
	"github.com/celerix-dev/guardup-admin/internal/session"
	"github.com/celerix-dev/guardup-admin/internal/users"
	"github.com/celerix-dev/guardup-admin/pkg/docstore"
)

// Handler holds the services and session plumbing behind every route.
type Handler struct {
	Users    *users.Service
	Reports  *reports.Service
	Entries  *entries.Service
	Sessions *session.Registry
	Codec    *session.Codec
	Store    docstore.Pinger
	Location *time.Location
	Version  string
	Logger   *slog.Logger
}

// --- JSON API ---

// ListUsers returns every registered user.
func (h *Handler) ListUsers(c *gin.Context) {
	list, err := h.Users.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, list)
}

// ListReports returns every health report.
func (h *Handler) ListReports(c *gin.Context) {
	list, err := h.Reports.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, list)
}

// ListEntries derives and runs the entry query for the request's filters.
// It keeps no state between calls.
func (h *Handler) ListEntries(c *gin.Context) {
	var raw query.RawFilters
	if err := c.ShouldBindQuery(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	f, err := query.ParseFilters(raw)
	if err != nil {
		respondValidation(c, err)
		return
	}

	list, err := h.Entries.Fetch(c.Request.Context(), f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, list)
}

func respondValidation(c *gin.Context, err error) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "fields": ve.Errors})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// --- Session ---

// currentSession returns the operator's session, starting a new one when the
// cookie is missing, unreadable or expired.
func (h *Handler) currentSession(c *gin.Context) *session.Session {
	if value, err := c.Cookie(session.CookieName); err == nil {
		if id, err := h.Codec.Decode(value); err == nil {
			if s, ok := h.Sessions.Get(id); ok {
				return s
			}
		}
	}

	s := h.Sessions.Create()
	value, err := h.Codec.Encode(s.ID)
	if err != nil {
		h.Logger.Error("seal session cookie", "error", err)
		return s
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(session.CookieName, value, 0, "/", "", c.Request.TLS != nil, true)
	return s
}
