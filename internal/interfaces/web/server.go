package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/example/badstu-booker/internal/application/usecases"
	"github.com/example/badstu-booker/internal/auth"
	"github.com/example/badstu-booker/internal/domain/booking"
	"github.com/example/badstu-booker/internal/log"
)

// OrderStarter starts order attempts.
type OrderStarter interface {
	Start(ctx context.Context, req booking.OrderRequest) *usecases.Attempt
}

// ServerConfig is the configuration of the web server.
type ServerConfig struct {
	Orders  OrderStarter
	Secret  booking.SecretChecker
	Cookies *auth.PersonCookie
	// BaseURL prefixes share links.
	BaseURL  string
	Location *time.Location
	Now      func() time.Time
	Logger   log.Logger
	Debug    bool
}

func (c *ServerConfig) defaults() error {
	if c.Orders == nil {
		return fmt.Errorf("orders is required")
	}
	if c.Secret == nil {
		return fmt.Errorf("secret checker is required")
	}
	if c.Cookies == nil {
		return fmt.Errorf("person cookie is required")
	}
	if c.Location == nil {
		c.Location = time.Local
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "web.Server"})
	return nil
}

type Server struct {
	cfg    ServerConfig
	engine *gin.Engine
}

func NewServer(cfg ServerConfig) (*Server, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	tmpl, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("could not parse templates: %w", err)
	}

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), logging(cfg.Logger))
	r.SetHTMLTemplate(tmpl)

	s := &Server{cfg: cfg, engine: r}

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok\n")
	})
	r.GET("/login", s.handleLoginPage)
	r.POST("/login", s.handleLogin)

	pages := r.Group("/", s.RequireSecret())
	pages.GET("/", s.handleIndex)
	pages.GET("/order", s.handleOrderPage)

	// A wrong secret is reported in the event stream, so the API is not redirect gated.
	r.GET("/api/order", s.handleOrderStream)

	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// logging never logs the query string, it carries the shared secret.
func logging(logger log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Infof("%s %s %d %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

// RequireSecret redirects to the login page unless the password query parameter is correct.
func (s *Server) RequireSecret() gin.HandlerFunc {
	return func(c *gin.Context) {
		password := c.Query(passwordKey)
		if password == "" {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		if !s.cfg.Secret.Check(password) {
			c.Redirect(http.StatusFound, "/login?cause=invalid-password")
			c.Abort()
			return
		}
		c.Next()
	}
}
