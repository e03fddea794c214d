package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"omnicore-pos/internal/apperr"
	"omnicore-pos/internal/dto"
	"omnicore-pos/internal/handler"
)

type Server struct {
	echo           *echo.Echo
	orderHandler   *handler.OrderHandler
	productHandler *handler.ProductHandler
}

func NewServer(orderHandler *handler.OrderHandler, productHandler *handler.ProductHandler, apiToken string) *Server {
	e := echo.New()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.HTTPErrorHandler = errorHandler(e)

	s := &Server{
		echo:           e,
		orderHandler:   orderHandler,
		productHandler: productHandler,
	}

	s.setupRoutes(apiToken)
	return s
}

func (s *Server) setupRoutes(apiToken string) {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	protected := api.Group("", bearerAuth(apiToken))
	protected.GET("/products", s.productHandler.List)
	protected.POST("/products/sync", s.productHandler.Sync)
	protected.POST("/orders", s.orderHandler.Create)
}

// bearerAuth checks a static token on every call. An empty configured token
// disables the check entirely.
func bearerAuth(apiToken string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if apiToken == "" {
				return next(c)
			}
			if c.Request().Header.Get("Authorization") != "Bearer "+apiToken {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid api token")
			}
			return next(c)
		}
	}
}

// errorHandler maps the error taxonomy onto HTTP statuses: validation
// failures answer 422 with field detail, gateway failures 502, missing
// configuration 500. Everything else falls through to Echo's default.
func errorHandler(e *echo.Echo) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		var (
			valErr *apperr.ValidationError
			cfgErr *apperr.ConfigurationError
			gwErr  *apperr.GatewayError
		)

		switch {
		case errors.As(err, &valErr):
			_ = c.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{
				Message: "The given data was invalid.",
				Errors:  valErr.Fields,
			})
		case errors.As(err, &cfgErr):
			_ = c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: cfgErr.Error()})
		case errors.As(err, &gwErr):
			_ = c.JSON(http.StatusBadGateway, dto.ErrorResponse{Message: "upstream gateway error"})
		default:
			e.DefaultHTTPErrorHandler(err, c)
		}
	}
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

// Handler exposes the routing tree for httptest-based tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Shutdown() error {
	return s.echo.Close()
}
