package handlers

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/yroh0840/manga-relay/services"
)

// ComicModerator is the operator side of the comic service
type ComicModerator interface {
	AdminList(ctx context.Context) ([]services.AdminComicSummary, error)
	AdminDetail(ctx context.Context, comicID uint) (*services.AdminDetailView, error)
	SoftDeleteComic(ctx context.Context, comicID uint) error
	SoftDeleteKoma(ctx context.Context, komaID uint) error
	RestoreComic(ctx context.Context, comicID uint) error
	RestoreKoma(ctx context.Context, komaID uint) error
}

// AdminListRoute is where moderation actions land afterwards
const AdminListRoute = "/admin/list"

type AdminHandler struct {
	Comics ComicModerator
	Log    zerolog.Logger
}

func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	comics, err := h.Comics.AdminList(r.Context())
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	if comics == nil {
		comics = []services.AdminComicSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"comics": comics})
}

func (h *AdminHandler) ComicDetail(w http.ResponseWriter, r *http.Request) {
	comicID, ok := idParam(w, r, "comic_id")
	if !ok {
		return
	}
	view, err := h.Comics.AdminDetail(r.Context(), comicID)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, adminDetailResponse{Comic: view.Comic, Komas: komaViews(view.Komas)})
}

func (h *AdminHandler) DeleteComic(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, "comic_id", h.Comics.SoftDeleteComic)
}

func (h *AdminHandler) DeleteKoma(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, "koma_id", h.Comics.SoftDeleteKoma)
}

func (h *AdminHandler) RestoreComic(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, "comic_id", h.Comics.RestoreComic)
}

func (h *AdminHandler) RestoreKoma(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, "koma_id", h.Comics.RestoreKoma)
}

func (h *AdminHandler) moderate(w http.ResponseWriter, r *http.Request, param string, action func(context.Context, uint) error) {
	id, ok := idParam(w, r, param)
	if !ok {
		return
	}
	if err := action(r.Context(), id); err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	http.Redirect(w, r, AdminListRoute, http.StatusSeeOther)
}
