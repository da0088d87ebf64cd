package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-while/go-salas/internal/metrics"
	"github.com/go-while/go-salas/internal/roles"
	"github.com/go-while/go-salas/internal/routes"
)

// listRoles returns the practice role catalog
func (s *WebServer) listRoles(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"roles": roles.All()})
}

// randomRole assigns one role at random
func (s *WebServer) randomRole(c *gin.Context) {
	role := roles.Pick(nil)
	metrics.RolesAssigned.WithLabelValues(role.Name).Inc()
	c.JSON(http.StatusOK, role)
}

// listRoutes returns the page table
func (s *WebServer) listRoutes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"routes": routes.All()})
}
