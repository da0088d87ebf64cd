package web

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/go-while/go-salas/internal/routes"
)

func (s *WebServer) homePage(c *gin.Context)     { s.renderPage(c, routes.Home) }
func (s *WebServer) profilePage(c *gin.Context)  { s.renderPage(c, routes.Profile) }
func (s *WebServer) roomsPage(c *gin.Context)    { s.renderPage(c, routes.Rooms) }
func (s *WebServer) roomPage(c *gin.Context)     { s.renderPage(c, routes.Room) }
func (s *WebServer) feedbackPage(c *gin.Context) { s.renderPage(c, routes.Feedback) }
func (s *WebServer) progressPage(c *gin.Context) { s.renderPage(c, routes.Progress) }

// pageHandlers maps route names to their handlers
func (s *WebServer) pageHandlers() map[string]gin.HandlerFunc {
	return map[string]gin.HandlerFunc{
		routes.Home:     s.homePage,
		routes.Profile:  s.profilePage,
		routes.Rooms:    s.roomsPage,
		routes.Room:     s.roomPage,
		routes.Feedback: s.feedbackPage,
		routes.Progress: s.progressPage,
	}
}

// bindPages registers every route in the table for all methods, dispatching on path alone.
// A route without a handler, or a handler without a route, is an error.
func (s *WebServer) bindPages() error {
	handlers := s.pageHandlers()
	for _, r := range routes.All() {
		h, ok := handlers[r.Name]
		if !ok {
			return fmt.Errorf("no handler for route %q", r.Name)
		}
		if !s.templates.Has(r.Template) {
			return fmt.Errorf("route %q: template %s not loaded", r.Name, r.Template)
		}
		s.Router.Any(r.Path, h)
		delete(handlers, r.Name)
	}
	for name := range handlers {
		return fmt.Errorf("handler %q has no route", name)
	}
	return nil
}
