package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/storefront/shop-api/docs"
	"github.com/storefront/shop-api/internal/api/handler"
	"github.com/storefront/shop-api/internal/api/middleware"
	"github.com/storefront/shop-api/internal/core/domain"
	"github.com/storefront/shop-api/internal/core/ports"
	"github.com/storefront/shop-api/pkg/logger"
)

// Services are the use cases exposed over HTTP.
type Services struct {
	Auth     ports.AuthService
	Users    ports.UserService
	Products ports.ProductService
	Carts    ports.CartService
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(svc Services, checks map[string]handler.Check, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestContextLogger(log))
	e.Use(requestLogger(log))
	e.Use(echoprometheus.NewMiddleware("shop"))

	authHandler := handler.NewAuthHandler(svc.Auth)
	userHandler := handler.NewUserHandler(svc.Users)
	productHandler := handler.NewProductHandler(svc.Products)
	cartHandler := handler.NewCartHandler(svc.Carts)
	healthHandler := handler.NewHealthHandler(checks)

	authn := middleware.Auth(svc.Auth)
	adminOnly := middleware.RequireRole(domain.RoleAdmin)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/logout", authHandler.Logout, authn)

	// --- Cart routes (owner comes from the token) ---
	cart := e.Group("/cart", authn)
	cart.GET("", cartHandler.Get)
	cart.POST("", cartHandler.AddItem)
	cart.DELETE("", cartHandler.Clear)
	cart.PUT("/:productId", cartHandler.SetQuantity)
	cart.DELETE("/:productId", cartHandler.RemoveItem)

	// --- Product routes ---
	e.GET("/products", productHandler.List)
	e.GET("/products/:id", productHandler.Get)
	e.POST("/products", productHandler.Create, authn, adminOnly)
	e.PUT("/products/:id", productHandler.Update, authn, adminOnly)
	e.DELETE("/products/:id", productHandler.Delete, authn, adminOnly)

	// --- User routes ---
	e.PUT("/users/me/password", userHandler.ChangePassword, authn)
	e.DELETE("/users/:id", userHandler.Delete, authn, adminOnly)

	// --- Ops ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// requestContextLogger stores a logger tagged with the request id in the
// request context so services can correlate their entries.
func requestContextLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Response().Header().Get(echo.HeaderXRequestID)
			ctx := logger.WithRequestID(c.Request().Context(), log, id)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// requestLogger emits one structured entry per request through zerolog.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Status >= 500 {
				evt = log.Error().Err(v.Error)
			}
			evt.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
