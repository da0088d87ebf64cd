// Package web provides the HTTP server and web interface for go-salas
package web

/*

	### **Core Files:**
	1. **`webserver_core_routes.go`** - Server setup, middleware and route configuration
	2. **`web_templates.go`** - Template set parsed once at startup, template funcs
	3. **`web_utils.go`** - Base template data, page/error rendering helpers

	### **Page Handler Files:**
	4. **`web_pages.go`** - The six page handlers and their binding to the route table

	### **API File:**
	5. **`web_apiHandlers.go`** - JSON endpoints (roles, route table)

	### **Assets:**
	6. **`embedded_static.go`** - Embedded static files under /static/

*/
