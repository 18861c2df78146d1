package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yroh0840/manga-relay/services"
)

func TestWriteServiceError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   ErrorCode
	}{
		{"wrapped extension", fmt.Errorf("%w: a.gif", services.ErrDisallowedExtension), http.StatusBadRequest, CodeDisallowedExtension},
		{"invalid image", services.ErrInvalidImage, http.StatusBadRequest, CodeInvalidImage},
		{"invalid comic id", services.ErrInvalidComicID, http.StatusBadRequest, CodeInvalidComicID},
		{"empty message", services.ErrEmptyMessage, http.StatusBadRequest, CodeEmptyMessage},
		{"comic not found", services.ErrComicNotFound, http.StatusNotFound, CodeComicNotFound},
		{"koma not found", services.ErrKomaNotFound, http.StatusNotFound, CodeKomaNotFound},
		{"comic deleted", services.ErrComicDeleted, http.StatusConflict, CodeComicDeleted},
		{"unexpected", errors.New("disk on fire"), http.StatusInternalServerError, CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeServiceError(rec, zerolog.Nop(), tt.err)

			assert.Equal(t, tt.status, rec.Code)
			var body APIErrorResponse
			decodeJSON(t, rec, &body)
			require.Len(t, body.Errors, 1)
			assert.Equal(t, tt.code, body.Errors[0].Code)
			assert.NotEmpty(t, body.Errors[0].Detail)
		})
	}
}

func TestWriteServiceError_InternalDetailHidden(t *testing.T) {
	rec := httptest.NewRecorder()
	writeServiceError(rec, zerolog.Nop(), errors.New("secret table name"))

	assert.NotContains(t, rec.Body.String(), "secret table name")
}
