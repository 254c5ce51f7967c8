package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/opentally/tasklist/internal/tasklist/service"
	"github.com/opentally/tasklist/internal/tasklist/store"
	"github.com/opentally/tasklist/pkg/httpx"
	"github.com/opentally/tasklist/pkg/slogx"
)

// Router holds shared dependencies for the HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	AuthService *service.AuthService
	TaskService *service.TaskService
}

func NewRouter(buildVersion string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		store:        st,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

// ServeHTTP implements http.Handler and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) ApplyRoutes() {
	r.registerUsers()
	r.registerTasks()
	r.registerSystem()
}

func (r *Router) registerUsers() {
	users := &UsersHandler{AuthService: r.AuthService}
	sessions := &SessionsHandler{AuthService: r.AuthService}

	r.Mux.Handle("POST /v1/users", http.HandlerFunc(users.HandleSignup))
	r.Mux.Handle("POST /v1/users/login", http.HandlerFunc(sessions.HandleLogin))

	authn := AuthnMiddleware(r.AuthService)
	r.Mux.Handle("GET /v1/users/me",
		httpx.Chain(http.HandlerFunc(users.HandleMe), authn))
	r.Mux.Handle("DELETE /v1/users/me/token",
		httpx.Chain(http.HandlerFunc(sessions.HandleLogout), authn))
}

func (r *Router) registerTasks() {
	h := &TasksHandler{TaskService: r.TaskService}
	authn := AuthnMiddleware(r.AuthService)

	r.Mux.Handle("POST /v1/tasks", httpx.Chain(http.HandlerFunc(h.HandleCreate), authn))
	r.Mux.Handle("GET /v1/tasks", httpx.Chain(http.HandlerFunc(h.HandleList), authn))
	r.Mux.Handle("GET /v1/tasks/{id}", httpx.Chain(http.HandlerFunc(h.HandleGet), authn))
	r.Mux.Handle("PATCH /v1/tasks/{id}", httpx.Chain(http.HandlerFunc(h.HandleUpdate), authn))
	r.Mux.Handle("DELETE /v1/tasks/{id}", httpx.Chain(http.HandlerFunc(h.HandleDelete), authn))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store))
}
