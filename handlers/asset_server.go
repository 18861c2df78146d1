package handlers

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// AssetResolver maps a stored image reference to a file on disk
type AssetResolver interface {
	GetFullPath(relativePath string) (string, error)
}

// AssetServer serves locally stored koma images and thumbnails. it expects
// the request path to be routePrefix followed by the stored reference, e.g.
//
//	r.Get("/uploads/*", AssetServer(store, "/uploads/", log))
func AssetServer(resolver AssetResolver, routePrefix string, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		relativePath := strings.TrimPrefix(r.URL.Path, routePrefix)
		if relativePath == "" || strings.Contains(relativePath, "..") {
			WriteAPIError(w, http.StatusBadRequest, CodeInvalidPath, "Invalid asset path")
			return
		}

		fullPath, err := resolver.GetFullPath(relativePath)
		if err != nil {
			log.Warn().Str("request", r.URL.Path).Err(err).Msg("handlers: asset access outside upload directory")
			WriteAPIError(w, http.StatusForbidden, CodeForbidden, "Forbidden")
			return
		}

		info, err := os.Stat(fullPath)
		if os.IsNotExist(err) || (err == nil && info.IsDir()) {
			http.NotFound(w, r)
			return
		} else if err != nil {
			log.Error().Err(err).Str("path", fullPath).Msg("handlers: failed to stat asset")
			WriteAPIError(w, http.StatusInternalServerError, CodeInternal, "Internal Server Error")
			return
		}

		// uploads are write-once under unique names
		cacheDuration := 24 * time.Hour
		w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(cacheDuration.Seconds())))
		w.Header().Set("Expires", time.Now().Add(cacheDuration).Format(http.TimeFormat))

		http.ServeFile(w, r, fullPath)
	}
}
