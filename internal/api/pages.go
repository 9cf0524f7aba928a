package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/celerix-dev/guardup-admin/internal/domain"
	"github.com/celerix-dev/guardup-admin/internal/entries"
	"github.com/celerix-dev/guardup-admin/internal/export"
	"github.com/celerix-dev/guardup-admin/internal/query"
	"github.com/celerix-dev/guardup-admin/internal/users"
	"github.com/celerix-dev/guardup-admin/pkg/docstore"
	"github.com/celerix-dev/guardup-admin/pkg/schema"
)

// --- Users ---

// UsersPage lists every user. A failed read renders an empty table; the
// error is logged only.
func (h *Handler) UsersPage(c *gin.Context) {
	s := h.currentSession(c)

	list, err := h.Users.List(c.Request.Context())
	if err != nil {
		h.Logger.Error("users page", "error", err)
		list = nil
	}

	c.HTML(http.StatusOK, "users.html", gin.H{
		"Title":  "Users",
		"Active": "users",
		"Flash":  s.TakeFlash(),
		"Users":  list,
	})
}

// NotifyPrompt opens the confirmation step for one user.
func (h *Handler) NotifyPrompt(c *gin.Context) {
	s := h.currentSession(c)

	u, err := h.Users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			c.String(http.StatusNotFound, "user not found")
			return
		}
		h.Logger.Error("notify prompt", "user_id", c.Param("id"), "error", err)
		c.String(http.StatusInternalServerError, "could not load user")
		return
	}

	s.Notify.Request(u)

	c.HTML(http.StatusOK, "confirm.html", gin.H{
		"Title":   "Send Alert",
		"Active":  "users",
		"Target":  u,
		"Message": h.Users.Message(),
	})
}

// NotifyConfirm commits the pending confirmation and writes the notification.
func (h *Handler) NotifyConfirm(c *gin.Context) {
	s := h.currentSession(c)

	target, ok := s.Notify.Target()
	if !ok || target.ID != c.Param("id") {
		s.SetFlash("No alert is awaiting confirmation.")
		c.Redirect(http.StatusSeeOther, "/users")
		return
	}

	conf, err := s.Notify.Confirm()
	if err != nil {
		s.SetFlash("No alert is awaiting confirmation.")
		c.Redirect(http.StatusSeeOther, "/users")
		return
	}

	if _, err := h.Users.Send(c.Request.Context(), conf); err != nil {
		s.SetFlash(fmt.Sprintf("Failed to send the alert to %s.", displayName(target)))
	} else {
		s.SetFlash(fmt.Sprintf("Alert sent to %s.", displayName(target)))
	}
	c.Redirect(http.StatusSeeOther, "/users")
}

// NotifyCancel abandons the pending confirmation without writing.
func (h *Handler) NotifyCancel(c *gin.Context) {
	s := h.currentSession(c)
	if err := s.Notify.Cancel(); err != nil && !errors.Is(err, users.ErrNoPendingConfirmation) {
		h.Logger.Error("cancel notification", "error", err)
	}
	c.Redirect(http.StatusSeeOther, "/users")
}

func displayName(u schema.User) string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// --- Entries ---

// EntriesPage renders the Entries view. A request without a query string is
// a fresh mount with no filters; a request with one is a filter change.
func (h *Handler) EntriesPage(c *gin.Context) {
	s := h.currentSession(c)
	ctx := c.Request.Context()

	status := http.StatusOK
	var invalid []domain.FieldError

	if c.Request.URL.RawQuery == "" {
		// Fetch errors are logged by the view; prior results stay on display.
		_ = s.Entries.Mount(ctx, query.Filters{})
	} else {
		f, err := h.bindFilters(c)
		if err != nil {
			status = http.StatusBadRequest
			invalid = fieldErrors(err)
		} else {
			_ = s.Entries.Update(ctx, f)
		}
	}

	h.renderEntries(c, status, s.Entries.Snapshot(), s.Entries.BuildingCodes(), invalid)
}

// EntriesApply refetches with the submitted filters even when unchanged.
func (h *Handler) EntriesApply(c *gin.Context) {
	s := h.currentSession(c)

	f, err := h.bindFilters(c)
	if err != nil {
		h.renderEntries(c, http.StatusBadRequest, s.Entries.Snapshot(), s.Entries.BuildingCodes(), fieldErrors(err))
		return
	}

	_ = s.Entries.Submit(c.Request.Context(), f)
	c.Redirect(http.StatusSeeOther, "/entries?"+encodeFilters(f))
}

func (h *Handler) renderEntries(c *gin.Context, status int, snap entries.Snapshot, codes []string, invalid []domain.FieldError) {
	c.HTML(status, "entries.html", gin.H{
		"Title":         "Entries",
		"Active":        "entries",
		"Filters":       snap.Filters.Raw(),
		"Entries":       snap.Entries,
		"BuildingCodes": codes,
		"Invalid":       invalid,
	})
}

// ExportPDF renders the rows currently on display. It does not fetch.
func (h *Handler) ExportPDF(c *gin.Context) {
	s := h.currentSession(c)

	var buf bytes.Buffer
	if err := export.WritePDF(&buf, s.Entries.Snapshot().Entries, h.Location); err != nil {
		h.Logger.Error("export pdf", "error", err)
		c.String(http.StatusInternalServerError, "could not render PDF")
		return
	}
	attachment(c, export.PDFFilename, "application/pdf", buf.Bytes())
}

// ExportXLSX renders the rows currently on display. It does not fetch.
func (h *Handler) ExportXLSX(c *gin.Context) {
	s := h.currentSession(c)

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, s.Entries.Snapshot().Entries, h.Location); err != nil {
		h.Logger.Error("export xlsx", "error", err)
		c.String(http.StatusInternalServerError, "could not render workbook")
		return
	}
	attachment(c, export.XLSXFilename,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

func attachment(c *gin.Context, filename, contentType string, body []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, body)
}

// --- Reports ---

// ReportsPage lists every report. A failed read renders an empty table.
func (h *Handler) ReportsPage(c *gin.Context) {
	list, err := h.Reports.List(c.Request.Context())
	if err != nil {
		h.Logger.Error("reports page", "error", err)
		list = nil
	}

	c.HTML(http.StatusOK, "reports.html", gin.H{
		"Title":   "Reports",
		"Active":  "reports",
		"Reports": list,
	})
}

// --- Helpers ---

func (h *Handler) bindFilters(c *gin.Context) (query.Filters, error) {
	var raw query.RawFilters
	if err := c.ShouldBind(&raw); err != nil {
		return query.Filters{}, domain.NewValidationError("filters", err.Error())
	}
	return query.ParseFilters(raw)
}

func fieldErrors(err error) []domain.FieldError {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return ve.Errors
	}
	return []domain.FieldError{{Field: "filters", Message: err.Error()}}
}

func encodeFilters(f query.Filters) string {
	raw := f.Raw()
	v := url.Values{}
	v.Set("buildingCode", raw.BuildingCode)
	v.Set("startDate", raw.StartDate)
	v.Set("endDate", raw.EndDate)
	v.Set("userEmail", raw.UserEmail)
	return v.Encode()
}
