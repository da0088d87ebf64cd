package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/netip"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/secure"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/go-while/go-salas/internal/config"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

// WebServer serves the page table, the JSON API and embedded assets
type WebServer struct {
	Router    *gin.Engine
	Config    *config.MainConfig
	Logger    *zap.Logger
	StartTime time.Time // Track server start time for uptime calculations

	templates  *TemplateSet
	httpServer *http.Server
	proxies    []netip.Prefix
}

// NewServer creates a new web server instance with templates parsed and routes bound
func NewServer(cfg *config.MainConfig, logger *zap.Logger) (*WebServer, error) {
	if cfg == nil {
		return nil, errors.New("web server config is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	if cfg.Web.Debug {
		gin.SetMode(gin.DebugMode)
	} else if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	templates, err := LoadTemplates(cfg.Web.TemplateDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	proxies, err := parseTrustedProxies(cfg.Web.TrustedProxies)
	if err != nil {
		return nil, err
	}
	router := gin.New()
	if err := router.SetTrustedProxies(cfg.Web.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}

	s := &WebServer{
		Router:    router,
		Config:    cfg,
		Logger:    logger,
		StartTime: time.Now(),
		templates: templates,
		proxies:   proxies,
	}
	s.httpServer = &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Web.ListenPort),
		Handler:           router,
		ReadTimeout:       cfg.Web.ReadTimeout,
		ReadHeaderTimeout: cfg.Web.ReadTimeout,
		WriteTimeout:      cfg.Web.WriteTimeout,
	}

	s.setupMiddleware()
	if err := s.setupRoutes(); err != nil {
		return nil, fmt.Errorf("failed to setup routes: %w", err)
	}
	return s, nil
}

func (s *WebServer) setupMiddleware() {
	s.Router.Use(s.RequestIDMiddleware())
	if s.Config.Web.AccessLog == config.AccessLogApache {
		s.Router.Use(s.ApacheLogFormat())
	} else {
		s.Router.Use(ginzap.Ginzap(s.Logger, time.RFC3339, true))
	}
	s.Router.Use(ginzap.RecoveryWithZap(s.Logger, true))
	s.Router.Use(otelgin.Middleware(s.Config.Telemetry.ServiceName))

	// Configure security headers based on SSL setup
	secureConfig := secure.Config{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'self'; img-src 'self' data: blob:; media-src 'self' blob:",
		IsDevelopment:         s.Config.Web.Debug,
	}
	// Only add SSL-specific headers if SSL is enabled on the application itself
	// (not when running behind a reverse proxy like nginx with SSL)
	if s.Config.Web.SSL {
		secureConfig.SSLRedirect = true
		secureConfig.STSSeconds = 31536000
		secureConfig.STSIncludeSubdomains = true
	}
	s.Router.Use(secure.New(secureConfig))

	s.Router.Use(s.ReverseProxyMiddleware())
	if s.Config.Web.BlockBots {
		s.Router.Use(s.BotDetectionMiddleware())
	}
}

// setupRoutes configures all HTTP routes
func (s *WebServer) setupRoutes() error {
	s.Router.GET("/static/*filepath", EmbeddedStaticHandler("/static"))
	s.Router.HEAD("/static/*filepath", EmbeddedStaticHandler("/static"))
	s.Router.GET("/favicon.svg", EmbeddedFileHandler("static/favicon.svg"))
	s.Router.GET("/robots.txt", func(c *gin.Context) {
		c.String(http.StatusOK, "User-agent: *\nDisallow:\n")
	})
	s.Router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	s.Router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.Router.Group("/api/v1")
	if mw := s.corsMiddleware(); mw != nil {
		api.Use(mw)
	}
	{
		api.GET("/roles", s.listRoles)
		api.GET("/roles/random", s.randomRole)
		api.GET("/routes", s.listRoutes)
	}

	if err := s.bindPages(); err != nil {
		return err
	}

	s.Router.NoRoute(s.notFoundPage)
	return nil
}

// Handler exposes the router for http.Server and tests
func (s *WebServer) Handler() http.Handler {
	return s.Router
}

// Start starts the web server with SSL support if configured.
// It blocks until the server stops; a graceful Shutdown returns nil.
func (s *WebServer) Start() error {
	addr := s.httpServer.Addr

	var err error
	if s.Config.Web.SSL {
		if s.Config.Web.CertFile == "" || s.Config.Web.KeyFile == "" {
			return errors.New("SSL enabled but cert_file or key_file not specified in config")
		}
		s.Logger.Info("Starting HTTPS server", zap.String("addr", addr))
		err = s.httpServer.ListenAndServeTLS(s.Config.Web.CertFile, s.Config.Web.KeyFile)
	} else {
		s.Logger.Info("Starting HTTP server", zap.String("addr", addr))
		err = s.httpServer.ListenAndServe()
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting connections and waits for in-flight requests
func (s *WebServer) Shutdown(ctx context.Context) error {
	s.Logger.Info("Shutting down web server", zap.Duration("uptime", time.Since(s.StartTime)))
	return s.httpServer.Shutdown(ctx)
}

// RequestIDMiddleware propagates a valid X-Request-ID or issues a new one
func (s *WebServer) RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// BotDetectionMiddleware rejects known scrapers by user agent
func (s *WebServer) BotDetectionMiddleware() gin.HandlerFunc {
	badBots := []string{"acunetix", "ahref", "census", "chatgpt", "crawler",
		"httrack", "mj12", "paloalto", "python", "semrush", "wget"}
	return func(c *gin.Context) {
		userAgent := strings.ToLower(c.GetHeader("User-Agent"))
		for _, pattern := range badBots {
			if strings.Contains(userAgent, pattern) {
				s.Logger.Info("Bot blocked",
					zap.String("user_agent", c.GetHeader("User-Agent")),
					zap.String("client_ip", c.ClientIP()))
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
		}
		c.Next()
	}
}

// ReverseProxyMiddleware handles X-Forwarded headers when running behind a reverse proxy.
// The headers are only honoured when the peer is one of web.trusted_proxies.
func (s *WebServer) ReverseProxyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.isTrustedProxy(c.RemoteIP()) {
			c.Next()
			return
		}

		// Handle X-Forwarded-Proto to detect if the original request was HTTPS
		if proto := c.GetHeader("X-Forwarded-Proto"); proto == "https" {
			c.Request.URL.Scheme = "https"
		}

		// Handle X-Forwarded-Host to get the original host
		if host := c.GetHeader("X-Forwarded-Host"); host != "" {
			c.Request.Host = host
		}

		c.Next()
	}
}

func (s *WebServer) isTrustedProxy(remoteIP string) bool {
	addr, err := netip.ParseAddr(remoteIP)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range s.proxies {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// parseTrustedProxies accepts single addresses and CIDR prefixes
func parseTrustedProxies(entries []string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(entries))
	for _, e := range entries {
		if strings.Contains(e, "/") {
			p, err := netip.ParsePrefix(e)
			if err != nil {
				return nil, fmt.Errorf("invalid trusted proxy %q: %w", e, err)
			}
			prefixes = append(prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(e)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", e, err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

func (s *WebServer) ApacheLogFormat() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf(`%s - - [%s] "%s %s %s" %d %d "%s" "%s"`+"\n",
			param.ClientIP,
			param.TimeStamp.Format("02/Jan/2006:15:04:05 -0700"),
			param.Method,
			param.Path,
			param.Request.Proto,
			param.StatusCode,
			param.BodySize,
			param.Request.Referer(),
			param.Request.UserAgent(),
		)
	})
}

// corsMiddleware returns nil when no origins are allowed
func (s *WebServer) corsMiddleware() gin.HandlerFunc {
	origins := s.Config.Web.AllowOrigins
	if len(origins) == 0 {
		return nil
	}
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	if slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
