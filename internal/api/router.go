package api

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/celerix-dev/guardup-admin/internal/export"
	"github.com/celerix-dev/guardup-admin/internal/metrics"
	"github.com/celerix-dev/guardup-admin/internal/reports"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

// RouterOptions configures optional parts of the router.
type RouterOptions struct {
	// Metrics enables request instrumentation and the scrape endpoint when set.
	Metrics     *metrics.Metrics
	MetricsPath string
}

// NewRouter wires middleware, pages, exports, the JSON API and probes.
func NewRouter(h *Handler, opts RouterOptions) (*gin.Engine, error) {
	tmpl, err := parseTemplates(h.Location)
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(RequestID(), AccessLog(h.Logger), Recovery(h.Logger))
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware())
		r.GET(opts.MetricsPath, gin.WrapH(opts.Metrics.Handler()))
	}
	r.SetHTMLTemplate(tmpl)

	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("static assets: %w", err)
	}
	r.StaticFS("/static", http.FS(static))

	r.GET("/healthz", h.Live)
	r.GET("/readyz", h.Ready)

	r.GET("/", func(c *gin.Context) { c.Redirect(http.StatusFound, "/users") })

	r.GET("/users", h.UsersPage)
	r.GET("/users/:id/notify", h.NotifyPrompt)
	r.POST("/users/:id/notify/confirm", h.NotifyConfirm)
	r.POST("/users/:id/notify/cancel", h.NotifyCancel)

	r.GET("/entries", h.EntriesPage)
	r.POST("/entries/apply", h.EntriesApply)
	r.GET("/entries/export.pdf", h.ExportPDF)
	r.GET("/entries/export.xlsx", h.ExportXLSX)

	r.GET("/reports", h.ReportsPage)

	apiGroup := r.Group("/api", CORS())
	{
		apiGroup.GET("/users", h.ListUsers)
		apiGroup.GET("/reports", h.ListReports)
		apiGroup.GET("/entries", h.ListEntries)
	}

	r.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(http.StatusNotFound, gin.H{"error": "API route not found"})
			return
		}
		c.String(http.StatusNotFound, "page not found")
	})

	return r, nil
}

func parseTemplates(loc *time.Location) (*template.Template, error) {
	funcs := template.FuncMap{
		"formatTime": func(t time.Time) string { return export.FormatTimestamp(t, loc) },
		"yesNo":      reports.YesNo,
	}
	tmpl, err := template.New("").Funcs(funcs).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return tmpl, nil
}
