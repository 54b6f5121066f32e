package api

import (
	"context"
	"net/http"

	"github.com/lostfound/lostfound/internal/service"
)

// Deps are the services the router dispatches to.
type Deps struct {
	Items *service.Items
	Auth  *service.Auth

	// Files serves uploaded images under FilesPrefix.
	Files       http.Handler
	FilesPrefix string

	// Limiter throttles register and login. Nil disables throttling.
	Limiter Limiter

	// Ping reports whether the database is reachable.
	Ping func(ctx context.Context) error
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	itemsHandler := &ItemsHandler{Items: d.Items}
	authHandler := &AuthHandler{Auth: d.Auth}
	usersHandler := &UsersHandler{Auth: d.Auth}

	authMW := AuthMiddleware(d.Auth)
	limitAuth := RateLimitMiddleware(d.Limiter, "auth")

	// Public.
	mux.HandleFunc("GET /health", health(d.Ping))
	mux.HandleFunc("GET /item", itemsHandler.List)
	mux.Handle("POST /api/auth/register", limitAuth(http.HandlerFunc(authHandler.Register)))
	mux.Handle("POST /api/auth/login", limitAuth(http.HandlerFunc(authHandler.Login)))
	if d.Files != nil && d.FilesPrefix != "" {
		mux.Handle("GET "+d.FilesPrefix, d.Files)
	}

	// Authenticated.
	mux.Handle("POST /item", authMW(http.HandlerFunc(itemsHandler.Create)))
	mux.Handle("GET /item/{id}", authMW(http.HandlerFunc(itemsHandler.Get)))
	mux.Handle("DELETE /item/{id}", authMW(http.HandlerFunc(itemsHandler.Delete)))
	mux.Handle("POST /item/{id}/loser", authMW(http.HandlerFunc(itemsHandler.AttachLoser)))
	mux.Handle("GET /api/auth/me", authMW(http.HandlerFunc(usersHandler.Me)))
	mux.Handle("PUT /api/auth/me", authMW(http.HandlerFunc(usersHandler.Update)))

	registerLegacy(mux, itemsHandler, authMW)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		jsonError(w, http.StatusNotFound, "Not Found")
	})

	return mux
}

func health(ping func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ping != nil {
			if err := ping(r.Context()); err != nil {
				jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
