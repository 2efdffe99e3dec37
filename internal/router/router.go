// Package router wires HTTP routes to their handlers and attaches
// the authentication, role, cache and rate-limit middleware each
// group needs.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/land-rent-service/internal/handler"
	"github.com/iliyamo/land-rent-service/internal/middleware"
	"github.com/iliyamo/land-rent-service/internal/model"
)

// Handlers bundles every handler the router mounts so callers pass
// one value instead of a long parameter list.
type Handlers struct {
	Auth    *handler.AuthHandler
	Users   *handler.UserHandler
	Lands   *handler.LandHandler
	Images  *handler.ImageHandler
	Rentals *handler.RentalHandler
	Chats   *handler.ChatHandler
}

// Middleware bundles the cross-cutting middleware built in main.
// Cache and RateLimit may be pass-through no-ops when Redis is not
// configured.
type Middleware struct {
	Auth      echo.MiddlewareFunc
	Cache     echo.MiddlewareFunc
	RateLimit echo.MiddlewareFunc
}

// Register mounts every route on e.
//
// Layout:
//
//	/healthz                 public liveness probe
//	/v1/auth/*               register + token exchange, no JWT
//	/v1/*                    everything else, JWT required
func Register(e *echo.Echo, h Handlers, mw Middleware) {
	e.GET("/healthz", handler.Health)

	// Unauthenticated: account creation and token exchange. The
	// rate limiter sits here too so credential stuffing is throttled.
	auth := e.Group("/v1/auth")
	if mw.RateLimit != nil {
		auth.Use(mw.RateLimit)
	}
	auth.POST("/register", h.Auth.Register)
	auth.POST("/token", h.Auth.Token)

	// Everything below requires a valid access token resolving to an
	// active account.
	v1 := e.Group("/v1")
	v1.Use(mw.Auth)
	if mw.RateLimit != nil {
		v1.Use(mw.RateLimit)
	}

	adminOnly := middleware.RequireRole(model.RoleAdmin)
	anyRole := middleware.RequireRole(model.RoleAdmin, model.RoleNormalUser, model.RoleSecurity, model.RoleStaff)
	borrowers := middleware.RequireRole(model.RoleNormalUser)

	v1.GET("/me", h.Auth.Me, anyRole)

	// Users. Self-service operations take no id; admin operations do.
	v1.GET("/users", h.Users.List, adminOnly)
	v1.GET("/users/:id", h.Users.Get, anyRole)
	v1.PATCH("/users", h.Users.UpdateSelf, anyRole)
	v1.PUT("/users/:id", h.Users.UpdateAdmin, adminOnly)
	v1.DELETE("/users", h.Users.DeleteSelf, anyRole)
	v1.DELETE("/users/:id", h.Users.DeleteByID, adminOnly)

	// Lands. Search results are cacheable; mutations are admin-only.
	if mw.Cache != nil {
		v1.GET("/lands", h.Lands.Search, anyRole, mw.Cache)
	} else {
		v1.GET("/lands", h.Lands.Search, anyRole)
	}
	v1.GET("/lands/:id", h.Lands.Get, anyRole)
	v1.POST("/lands", h.Lands.Create, adminOnly)
	v1.PATCH("/lands/:id", h.Lands.Update, adminOnly)
	v1.DELETE("/lands/:id", h.Lands.Delete, adminOnly)

	// Land images, always scoped under their land.
	v1.POST("/lands/:id/images", h.Images.Upload, adminOnly)
	v1.PATCH("/lands/:id/images/:image_id", h.Images.UpdateLabel, adminOnly)
	v1.DELETE("/lands/:id/images/:image_id", h.Images.Delete, adminOnly)

	// Rentals. Only normal users borrow and return; admins can end
	// any rental.
	v1.POST("/lands/:id/borrow", h.Rentals.Borrow, borrowers)
	v1.DELETE("/lands/:id/borrow", h.Rentals.Return, borrowers)
	v1.DELETE("/lands/:id/borrow/:user_id", h.Rentals.ForceReturn, adminOnly)
	v1.GET("/rentals", h.Rentals.ListMine, anyRole)

	// Chat.
	v1.POST("/chats", h.Chats.Send, anyRole)
	v1.POST("/chats/broadcast", h.Chats.Broadcast, adminOnly)
	v1.GET("/chats", h.Chats.List, anyRole)
	v1.PATCH("/chats/:id", h.Chats.Update, anyRole)
	v1.DELETE("/chats/:id", h.Chats.Delete, anyRole)
}
