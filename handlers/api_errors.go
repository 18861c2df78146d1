package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/yroh0840/manga-relay/services"
)

// ErrorCode is the machine readable code of an error response
type ErrorCode string

const (
	CodeDisallowedExtension ErrorCode = "disallowed_extension"
	CodeInvalidImage        ErrorCode = "invalid_image"
	CodeInvalidComicID      ErrorCode = "invalid_comic_id"
	CodeEmptyMessage        ErrorCode = "empty_message"
	CodeFileTooLarge        ErrorCode = "file_too_large"
	CodeInvalidForm         ErrorCode = "invalid_form"
	CodeInvalidPath         ErrorCode = "invalid_path"
	CodeUnauthorized        ErrorCode = "unauthorized"
	CodeForbidden           ErrorCode = "forbidden"
	CodeNotFound            ErrorCode = "not_found"
	CodeComicNotFound       ErrorCode = "comic_not_found"
	CodeKomaNotFound        ErrorCode = "koma_not_found"
	CodeComicDeleted        ErrorCode = "comic_deleted"
	CodeInternal            ErrorCode = "internal_error"
)

// APIErrorDetail is one entry of an error response body
type APIErrorDetail struct {
	Code   ErrorCode `json:"code"`
	Status string    `json:"status"`
	Detail string    `json:"detail"`
}

// APIErrorResponse is the body of every non-redirect error
type APIErrorResponse struct {
	Errors []APIErrorDetail `json:"errors"`
}

// WriteAPIError writes a single error with the given HTTP status, code, and detail.
func WriteAPIError(w http.ResponseWriter, httpStatus int, code ErrorCode, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)

	_ = json.NewEncoder(w).Encode(APIErrorResponse{
		Errors: []APIErrorDetail{{
			Code:   code,
			Status: strconv.Itoa(httpStatus),
			Detail: detail,
		}},
	})
}

// serviceError maps a service sentinel to its response. an empty detail
// means the wrapped error text is shown.
type serviceError struct {
	target error
	status int
	code   ErrorCode
	detail string
}

var serviceErrors = []serviceError{
	{services.ErrDisallowedExtension, http.StatusBadRequest, CodeDisallowedExtension, "許可されていないファイル形式です"},
	{services.ErrInvalidImage, http.StatusBadRequest, CodeInvalidImage, "画像として読み込めないファイルです"},
	{services.ErrInvalidComicID, http.StatusBadRequest, CodeInvalidComicID, "漫画IDが不正です"},
	{services.ErrEmptyMessage, http.StatusBadRequest, CodeEmptyMessage, "内容を入力してください"},
	{services.ErrComicNotFound, http.StatusNotFound, CodeComicNotFound, "存在しない漫画IDです"},
	{services.ErrKomaNotFound, http.StatusNotFound, CodeKomaNotFound, "存在しないコマIDです"},
	{services.ErrComicDeleted, http.StatusConflict, CodeComicDeleted, ""},
}

// writeServiceError answers err with its mapped response. anything
// unexpected is logged and answered with a generic 500.
func writeServiceError(w http.ResponseWriter, log zerolog.Logger, err error) {
	for _, se := range serviceErrors {
		if !errors.Is(err, se.target) {
			continue
		}
		detail := se.detail
		if detail == "" {
			detail = err.Error()
		}
		WriteAPIError(w, se.status, se.code, detail)
		return
	}

	log.Error().Err(err).Msg("handlers: unexpected error")
	WriteAPIError(w, http.StatusInternalServerError, CodeInternal, "サーバーエラー")
}
