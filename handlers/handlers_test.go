package handlers

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/yroh0840/manga-relay/database"
	"github.com/yroh0840/manga-relay/media"
	"github.com/yroh0840/manga-relay/services"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	testAdminUser = "admin"
	testAdminPass = "s3cret"
)

type testApp struct {
	db     *gorm.DB
	store  *media.LocalStorage
	router chi.Router
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	log := zerolog.Nop()

	db, err := database.InitGormDB(filepath.Join(t.TempDir(), "comic_relay.sqlite"), log)
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrateModels(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	store, err := media.NewLocalStorage(t.TempDir(), "thumbs", log)
	require.NoError(t, err)

	hash, err := bcrypt.GenerateFromPassword([]byte(testAdminPass), bcrypt.MinCost)
	require.NoError(t, err)

	comics := services.NewComicService(db, log)
	posting := services.NewPostingService(db, store, media.NewProcessor(store, 64, log), nil, "http://localhost:8080", log)
	server := &Server{
		Comic:    &ComicHandler{Comics: comics, Posting: posting, MaxUploadBytes: 1 << 20, Log: log},
		Admin:    &AdminHandler{Comics: comics, Log: log},
		Feedback: &FeedbackHandler{Feedback: services.NewFeedbackService(db, log), Log: log},
		Assets:   AssetServer(store, UploadsRoute, log),
	}

	return &testApp{
		db:     db,
		store:  store,
		router: NewRouter(server.Routes(), NewAdminAuth(testAdminUser, string(hash), log), []string{"*"}, log),
	}
}

func (a *testApp) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) admin(method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	req.SetBasicAuth(testAdminUser, testAdminPass)
	return a.do(req)
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for i := 0; i < 8; i++ {
		img.Set(i, i, color.Black)
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// uploadRequest builds a /post multipart request. an empty filename omits the file part.
func uploadRequest(t *testing.T, fields map[string]string, filename string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/post", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func formRequest(target string, values map[string]string) *http.Request {
	form := url.Values{}
	for k, v := range values {
		form.Set(k, v)
	}
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}
