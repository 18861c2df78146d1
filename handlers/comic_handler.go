package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yroh0840/manga-relay/models"
	"github.com/yroh0840/manga-relay/services"
)

// ComicReader serves the public views
type ComicReader interface {
	List(ctx context.Context) (*services.IndexView, error)
	Detail(ctx context.Context, comicID uint) (*services.DetailView, error)
}

// KomaPoster accepts uploads
type KomaPoster interface {
	Post(ctx context.Context, req services.PostRequest) (*services.PostResult, error)
}

type ComicHandler struct {
	Comics         ComicReader
	Posting        KomaPoster
	MaxUploadBytes int64
	Log            zerolog.Logger
}

// Index lists the visible comics, newest first
func (h *ComicHandler) Index(w http.ResponseWriter, r *http.Request) {
	view, err := h.Comics.List(r.Context())
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	if view.PublicComments == nil {
		view.PublicComments = []models.PublicComment{}
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *ComicHandler) Detail(w http.ResponseWriter, r *http.Request) {
	comicID, ok := idParam(w, r, "comic_id")
	if !ok {
		return
	}

	view, err := h.Comics.Detail(r.Context(), comicID)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, newDetailResponse(view))
}

// Post handles the multipart upload form: file, comic_id, title, max_koma
func (h *ComicHandler) Post(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.MaxUploadBytes); err != nil {
		// a form without a file part is treated like an empty file field
		if errors.Is(err, http.ErrNotMultipart) {
			redirectBack(w, r, "/")
			return
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large") {
			WriteAPIError(w, http.StatusBadRequest, CodeFileTooLarge, fmt.Sprintf("ファイルサイズが大きすぎます (上限 %d bytes)", h.MaxUploadBytes))
			return
		}
		WriteAPIError(w, http.StatusBadRequest, CodeInvalidForm, "フォームを読み込めませんでした")
		return
	}

	req := services.PostRequest{
		ComicID: r.FormValue("comic_id"),
		Title:   r.FormValue("title"),
	}
	// a missing or malformed max_koma falls back to the default
	if maxKoma, err := strconv.Atoi(r.FormValue("max_koma")); err == nil {
		req.MaxKoma = maxKoma
	}

	file, header, err := r.FormFile("file")
	if err != nil && !errors.Is(err, http.ErrMissingFile) {
		WriteAPIError(w, http.StatusBadRequest, CodeInvalidForm, "ファイルを読み込めませんでした")
		return
	}
	if file != nil {
		defer file.Close()
		req.Filename = header.Filename
		if req.Filename != "" {
			req.Data, err = io.ReadAll(file)
			if err != nil {
				h.Log.Error().Err(err).Msg("handlers: failed to read upload")
				WriteAPIError(w, http.StatusInternalServerError, CodeInternal, "サーバーエラー")
				return
			}
		}
	}

	result, err := h.Posting.Post(r.Context(), req)
	if err != nil {
		if errors.Is(err, services.ErrNoFile) {
			redirectBack(w, r, "/")
			return
		}
		writeServiceError(w, h.Log, err)
		return
	}

	if refersToComic(r.Referer(), result.ComicID) {
		http.Redirect(w, r, fmt.Sprintf("/comic/%d", result.ComicID), http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// refersToComic reports whether the referer points at /comic/<id>.
// /comic/1 does not match a referer of /comic/12.
func refersToComic(referer string, comicID uint) bool {
	if referer == "" {
		return false
	}
	path := referer
	if u, err := url.Parse(referer); err == nil {
		path = u.Path
	}

	needle := fmt.Sprintf("/comic/%d", comicID)
	for idx := strings.Index(path, needle); idx >= 0; {
		end := idx + len(needle)
		if end == len(path) || path[end] < '0' || path[end] > '9' {
			return true
		}
		next := strings.Index(path[end:], needle)
		if next < 0 {
			break
		}
		idx = end + next
	}
	return false
}
