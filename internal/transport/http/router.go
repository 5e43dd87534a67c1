package httpserver

import (
	"log/slog"

	"github.com/labstack/echo/v4"

	"github.com/sholdev/music_school/internal/handlers"
	"github.com/sholdev/music_school/internal/logging"
	authmw "github.com/sholdev/music_school/internal/middleware/auth"
	"github.com/sholdev/music_school/internal/roles"
)

type Deps struct {
	Logger            *slog.Logger
	AccessSecret      []byte
	Roles             roles.Table
	AuthHandler       *handlers.AuthHandler
	UsersHandler      *handlers.UsersHandler
	ProfileHandler    *handlers.ProfileHandler
	DepartmentHandler *handlers.DepartmentHandler
	InstrumentHandler *handlers.InstrumentHandler
	NoteHandler       *handlers.NoteHandler
}

// requestLogger puts a request-scoped logger into the request context
// so the service layer's logging.FromContext picks it up. The request
// id header is set by the RequestID middleware upstream.
func requestLogger(base *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			l := base
			if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
				l = l.With("request_id", id)
			}
			ctx := logging.IntoContext(c.Request().Context(), l)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

func Register(e *echo.Echo, d *Deps) {
	if d.Logger != nil {
		e.Use(requestLogger(d.Logger))
	}

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	requireLogin := authmw.RequireLogin(d.AccessSecret)
	grant := func(action, resource string) echo.MiddlewareFunc {
		return authmw.GrantAccess(d.Roles, action, resource)
	}

	api := e.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/refresh_token", d.AuthHandler.Refresh)
	auth.DELETE("/logout", d.AuthHandler.Logout)
	auth.GET("/me", d.AuthHandler.Me, requireLogin)
	auth.POST("/forgot_password", d.AuthHandler.ForgotPassword)
	auth.POST("/reset_password", d.AuthHandler.ResetPassword)

	api.GET("/users", d.UsersHandler.List, requireLogin)

	profile := api.Group("/profile", requireLogin)
	profile.GET("/:id", d.ProfileHandler.Get, grant("read", "profile"))
	profile.PUT("/:id", d.ProfileHandler.Update, grant("update", "profile"))
	profile.POST("/:id/avatar", d.ProfileHandler.UploadAvatar, grant("update", "profile"))

	departments := api.Group("/departments")
	departments.GET("", d.DepartmentHandler.List)
	departments.GET("/:id", d.DepartmentHandler.Get)
	departments.POST("", d.DepartmentHandler.Create, requireLogin, grant("create", "department"))
	departments.PUT("/:id", d.DepartmentHandler.Update, requireLogin, grant("update", "department"))
	departments.DELETE("/:id", d.DepartmentHandler.Delete, requireLogin, grant("delete", "department"))

	instruments := api.Group("/instruments")
	instruments.GET("", d.InstrumentHandler.List)
	instruments.GET("/:id", d.InstrumentHandler.Get)
	instruments.POST("", d.InstrumentHandler.Create, requireLogin, grant("create", "instrument"))
	instruments.PUT("/:id", d.InstrumentHandler.Update, requireLogin, grant("update", "instrument"))
	instruments.DELETE("/:id", d.InstrumentHandler.Delete, requireLogin, grant("delete", "instrument"))

	library := api.Group("/library")
	library.GET("", d.NoteHandler.List)
	library.GET("/search", d.NoteHandler.Search)
	library.GET("/:id", d.NoteHandler.Get)
	library.POST("", d.NoteHandler.Create, requireLogin, grant("create", "note"))
	library.PUT("/:id", d.NoteHandler.Update, requireLogin, grant("update", "note"))
	library.DELETE("/:id", d.NoteHandler.Delete, requireLogin, grant("delete", "note"))
}
