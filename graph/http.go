package graph

import (
	"net/http"
	"time"

	graphql "github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/relay"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/goliatone/go-todos/logging"
)

// Routes served by Register.
const (
	GraphQLPath = "/graphql"
	HealthPath  = "/healthz"
)

// Register mounts the GraphQL endpoint and the health check on e.
func Register(e *echo.Echo, schema *graphql.Schema) {
	e.POST(GraphQLPath, echo.WrapHandler(&relay.Handler{Schema: schema}))
	e.GET(HealthPath, func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
}

// NewServer returns an echo instance with recovery, request logging and the
// todo routes registered.
func NewServer(schema *graphql.Schema, logger logging.Logger) *echo.Echo {
	if logger == nil {
		logger = logging.Nop()
	}
	httpLogger := logger.Named("HTTP")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			httpLogger.Debug("Request served", logging.Fields{
				"method":  v.Method,
				"uri":     v.URI,
				"status":  v.Status,
				"latency": v.Latency.Round(time.Microsecond).String(),
			})
			return nil
		},
	}))

	Register(e, schema)
	return e
}
