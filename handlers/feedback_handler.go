package handlers

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/yroh0840/manga-relay/models"
)

// FeedbackSubmitter stores visitor messages
type FeedbackSubmitter interface {
	SubmitAdminMessage(ctx context.Context, category, message string, wantsReply bool) (*models.AdminMessage, error)
	SubmitPublicComment(ctx context.Context, message string, isPublic bool) (*models.PublicComment, error)
}

type FeedbackHandler struct {
	Feedback FeedbackSubmitter
	Log      zerolog.Logger
}

// checkbox fields count as set when they carry any value
func formFlag(r *http.Request, name string) bool {
	return r.FormValue(name) != ""
}

// DirectMessage stores a message for the operator and returns to /dm
func (h *FeedbackHandler) DirectMessage(w http.ResponseWriter, r *http.Request) {
	_, err := h.Feedback.SubmitAdminMessage(r.Context(), r.FormValue("category"), r.FormValue("message"), formFlag(r, "wants_reply"))
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	http.Redirect(w, r, "/dm", http.StatusSeeOther)
}

func (h *FeedbackHandler) FooterComment(w http.ResponseWriter, r *http.Request) {
	_, err := h.Feedback.SubmitPublicComment(r.Context(), r.FormValue("message"), formFlag(r, "is_public"))
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	redirectBack(w, r, "/")
}
