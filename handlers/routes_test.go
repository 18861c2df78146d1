package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yroh0840/manga-relay/permissions"
)

func okHandler(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

func TestNewRouter_UnknownCapabilityPanics(t *testing.T) {
	routes := []Route{{http.MethodGet, "/x", okHandler, "comic.teleport"}}
	assert.Panics(t, func() {
		NewRouter(routes, NewAdminAuth("", "", zerolog.Nop()), nil, zerolog.Nop())
	})
}

func TestServerRoutes_CapabilitiesAreDefined(t *testing.T) {
	server := &Server{Comic: &ComicHandler{}, Admin: &AdminHandler{}, Feedback: &FeedbackHandler{}, Assets: okHandler}
	for _, route := range server.Routes() {
		assert.True(t, permissions.IsValidPermissionKey(route.Capability), "%s %s", route.Method, route.Pattern)
	}
}

func TestRequestLogger_WritesAccessLine(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)
	routes := []Route{
		{http.MethodGet, "/healthz", Health, permissions.HealthView},
		{http.MethodGet, "/admin/list", okHandler, permissions.AdminComicList},
	}
	router := NewRouter(routes, NewAdminAuth("", "", zerolog.Nop()), []string{"*"}, log)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "GET", line["method"])
	assert.Equal(t, "/healthz", line["path"])
	assert.Equal(t, float64(http.StatusOK), line["status"])
	assert.NotEmpty(t, line["request_id"])

	buf.Reset()
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/admin/list", nil))
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "warn", line["level"])
	assert.Equal(t, float64(http.StatusUnauthorized), line["status"])
}
