package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/Pilar-d/pendientes/api/handler"
)

type Handlers struct {
	Auth   *apiHandler.AuthHandler
	Task   *apiHandler.TaskHandler
	Admin  *apiHandler.AdminHandler
	Health *apiHandler.HealthHandler
}

type Middleware func(fasthttp.RequestHandler) fasthttp.RequestHandler

// New builds the route table. requireSession guards every task route.
func New(handlers Handlers, requireSession Middleware) *router.Router {
	r := router.New()
	r.RedirectTrailingSlash = true

	r.GET("/health", handlers.Health.Check)

	// Account routes
	r.GET("/login", handlers.Auth.LoginForm)
	r.POST("/login", handlers.Auth.Login)
	for _, path := range []string{"/register", "/registro"} {
		r.GET(path, handlers.Auth.RegisterForm)
		r.POST(path, handlers.Auth.Register)
	}
	r.GET("/logout", handlers.Auth.Logout)

	// Protected routes
	r.GET("/", requireSession(handlers.Task.Index))
	r.POST("/crear", requireSession(handlers.Task.Create))
	r.GET("/editar/{id}", requireSession(handlers.Task.EditForm))
	r.POST("/editar/{id}", requireSession(handlers.Task.Edit))
	r.POST("/toggle/{id}", requireSession(handlers.Task.Toggle))
	r.POST("/eliminar/{id}", requireSession(handlers.Task.Delete))
	r.GET("/actualizar-db", requireSession(handlers.Admin.UpgradeSchema))

	return r
}

// Chain wraps h with middlewares, the first being outermost.
func Chain(h fasthttp.RequestHandler, middlewares ...Middleware) fasthttp.RequestHandler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
