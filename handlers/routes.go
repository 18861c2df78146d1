package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/yroh0840/manga-relay/permissions"
)

// Route binds a handler to a method and pattern, gated by a capability
type Route struct {
	Method     string
	Pattern    string
	Handler    http.HandlerFunc
	Capability string
}

// Server groups the handlers the router dispatches to
type Server struct {
	Comic    *ComicHandler
	Admin    *AdminHandler
	Feedback *FeedbackHandler
	Assets   http.HandlerFunc // nil when images live on a remote store
}

// Routes is the full route table
func (s *Server) Routes() []Route {
	routes := []Route{
		{http.MethodGet, "/", s.Comic.Index, permissions.ComicView},
		{http.MethodPost, "/post", s.Comic.Post, permissions.ComicPost},
		{http.MethodGet, "/comic/{comic_id}", s.Comic.Detail, permissions.ComicView},
		{http.MethodPost, "/dm", s.Feedback.DirectMessage, permissions.FeedbackDM},
		{http.MethodPost, "/footer-comment", s.Feedback.FooterComment, permissions.FeedbackPub},

		{http.MethodGet, "/admin/list", s.Admin.List, permissions.AdminComicList},
		{http.MethodGet, "/admin/comic/{comic_id}", s.Admin.ComicDetail, permissions.AdminComicView},
		{http.MethodPost, "/admin/delete/comic/{comic_id}", s.Admin.DeleteComic, permissions.AdminComicDelete},
		{http.MethodPost, "/admin/delete/koma/{koma_id}", s.Admin.DeleteKoma, permissions.AdminKomaDelete},
		{http.MethodPost, "/admin/restore/comic/{comic_id}", s.Admin.RestoreComic, permissions.AdminComicRestore},
		{http.MethodPost, "/admin/restore/koma/{koma_id}", s.Admin.RestoreKoma, permissions.AdminKomaRestore},

		{http.MethodGet, "/healthz", Health, permissions.HealthView},
	}
	if s.Assets != nil {
		routes = append(routes, Route{http.MethodGet, UploadsRoute + "*", s.Assets, permissions.AssetView})
	}
	return routes
}

// Health answers liveness probes
func Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// NewRouter builds the chi router for a route table. routes whose
// capability is admin scoped are wrapped with auth. it panics on a route
// whose capability is not defined in permissions.
func NewRouter(routes []Route, auth *AdminAuth, allowedOrigins []string, log zerolog.Logger) chi.Router {
	r := chi.NewRouter()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	})

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(corsHandler.Handler)

	for _, route := range routes {
		if !permissions.IsValidPermissionKey(route.Capability) {
			panic(fmt.Sprintf("handlers: route %s %s has unknown capability %q", route.Method, route.Pattern, route.Capability))
		}
		var h http.Handler = route.Handler
		if permissions.RequiresAdmin(route.Capability) {
			h = auth.Middleware(h)
		}
		r.Method(route.Method, route.Pattern, h)
	}
	return r
}

// requestLogger writes one access log line per request, at warn for 4xx
// and error for 5xx
func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			event := log.Info()
			if status >= 400 {
				event = log.Warn()
			}
			if status >= 500 {
				event = log.Error()
			}
			event.
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("client_ip", r.RemoteAddr).
				Msg("request completed")
		})
	}
}
