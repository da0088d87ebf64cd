// Package web provides the HTTP server and web interface for go-salas
package web

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-while/go-salas/internal/config"
	"github.com/go-while/go-salas/internal/metrics"
	"github.com/go-while/go-salas/internal/routes"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

const contentTypeHTML = "text/html; charset=utf-8"

// TemplateData represents common template data.
// Pages get layout data only; nothing here is computed per page.
type TemplateData struct {
	Title       string
	RenderedAt  time.Time
	AppVersion  string
	Lang        string
	RouteName   string
	Template    string
	Canonical   string
	Nav         []routes.Route
}

// ErrorPageData represents data for the error page
type ErrorPageData struct {
	TemplateData
	Error      string
	StatusCode int
}

// Spanish first: it is the fallback when nothing matches.
var supportedLangs = []language.Tag{language.Spanish, language.English}

var langMatcher = language.NewMatcher(supportedLangs)

// negotiateLanguage picks the page language from an Accept-Language header
func negotiateLanguage(acceptLanguage string) string {
	tags, _, _ := language.ParseAcceptLanguage(acceptLanguage)
	_, idx, _ := langMatcher.Match(tags...)
	return supportedLangs[idx].String()
}

// getBaseTemplateData creates a TemplateData struct with common information
func (s *WebServer) getBaseTemplateData(c *gin.Context, title string) TemplateData {
	return TemplateData{
		Title:       title,
		RenderedAt:  time.Now(),
		AppVersion:  config.AppVersion,
		Lang:        negotiateLanguage(c.GetHeader("Accept-Language")),
		Nav:         routes.All(),
	}
}

// canonicalURL builds the absolute URL of p as seen by the client
func canonicalURL(c *gin.Context, p string) string {
	scheme := "http"
	if c.Request.TLS != nil || c.Request.URL.Scheme == "https" {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host + p
}

// renderPage renders the template bound to the named route
func (s *WebServer) renderPage(c *gin.Context, name string) {
	route, ok := routes.ByName(name)
	if !ok {
		s.renderError(c, http.StatusInternalServerError, "Route error", "no route named "+name)
		return
	}

	start := time.Now()
	data := s.getBaseTemplateData(c, route.Title)
	data.RouteName = route.Name
	data.Template = route.Template
	data.Canonical = canonicalURL(c, route.Path)

	if !s.renderTemplate(c, http.StatusOK, route.Template, data) {
		return
	}
	metrics.PagesRendered.WithLabelValues(route.Name).Inc()
	metrics.RenderLatency.WithLabelValues(route.Name).Observe(time.Since(start).Seconds())
}

// renderTemplate renders a template with base template data.
// Output is buffered so a failing template never leaves a half-written page.
func (s *WebServer) renderTemplate(c *gin.Context, status int, templateName string, data any) bool {
	body, err := s.templates.Execute(templateName, data)
	if err != nil {
		metrics.RenderErrors.WithLabelValues(templateName).Inc()
		s.renderError(c, http.StatusInternalServerError, "Template error", err.Error())
		return false
	}
	c.Data(status, contentTypeHTML, body)
	return true
}

// renderError renders an error page
func (s *WebServer) renderError(c *gin.Context, statusCode int, message string, errstring string) {
	errorData := ErrorPageData{
		TemplateData: s.getBaseTemplateData(c, "Error"),
		Error:        message,
		StatusCode:   statusCode,
	}
	if statusCode >= http.StatusInternalServerError {
		s.Logger.Error("Request failed",
			zap.Int("status", statusCode),
			zap.String("path", c.Request.URL.Path),
			zap.String("message", message),
			zap.String("error", errstring))
	}

	body, err := s.templates.Execute(errorTemplate, errorData)
	if err != nil {
		s.Logger.Error("Error rendering error template", zap.Error(err))
		c.String(statusCode, "Error: %s", message)
		return
	}
	c.Data(statusCode, contentTypeHTML, body)
}

// notFoundPage answers every request that matched no route
func (s *WebServer) notFoundPage(c *gin.Context) {
	metrics.NotFound.Inc()
	s.renderError(c, http.StatusNotFound, "Page Not Found", c.Request.URL.Path)
}
