// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"telepass/internal/delivery/http/middleware"
	"telepass/internal/delivery/http/router/handler"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	AuthHandler     *handler.AuthHandler
	UserHandler     *handler.UserHandler
	ReferralHandler *handler.ReferralHandler
	AuthMiddleware  *middleware.AuthMiddleware
}

// router holds all the handlers that need to be registered.
type router struct {
	authHandler     *handler.AuthHandler
	userHandler     *handler.UserHandler
	referralHandler *handler.ReferralHandler
	authMiddleware  *middleware.AuthMiddleware
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		authHandler:     params.AuthHandler,
		userHandler:     params.UserHandler,
		referralHandler: params.ReferralHandler,
		authMiddleware:  params.AuthMiddleware,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	// Auth routes
	authGroup := e.Group("/auth")
	{
		authGroup.POST("/verify", r.authHandler.Verify)
		authGroup.POST("/renew", r.authHandler.Renew)
	}

	// User routes that require a valid session
	userGroup := e.Group("/user")
	userGroup.Use(r.authMiddleware.Authenticate)
	{
		userGroup.GET("/me", r.userHandler.Me)
	}

	// Referral routes that require a valid session
	referralGroup := e.Group("/referral")
	referralGroup.Use(r.authMiddleware.Authenticate)
	{
		referralGroup.POST("/link", r.referralHandler.Link)
		referralGroup.GET("/link", r.referralHandler.GetLink)
		referralGroup.GET("/qrcode", r.referralHandler.QRCode)
	}
}
