package services

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/yroh0840/manga-relay/database"
	"github.com/yroh0840/manga-relay/media"
	"github.com/yroh0840/manga-relay/workers"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.InitGormDB(filepath.Join(t.TempDir(), "comic_relay.sqlite"), zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrateModels(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{B: 255, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type recordingQueue struct {
	mu   sync.Mutex
	jobs []workers.NotificationJob
}

func (q *recordingQueue) Enqueue(job workers.NotificationJob) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return true
}

func (q *recordingQueue) all() []workers.NotificationJob {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]workers.NotificationJob(nil), q.jobs...)
}

// fixedRefStore always hands back the same reference, so a second koma
// collides with the unique image_filename column
type fixedRefStore struct {
	mu      sync.Mutex
	ref     string
	deleted []string
}

func (s *fixedRefStore) Save(_ context.Context, _ uint, _ string, data io.Reader) (string, error) {
	_, err := io.Copy(io.Discard, data)
	return s.ref, err
}

func (s *fixedRefStore) Delete(_ context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, ref)
	return nil
}

var _ media.Store = (*fixedRefStore)(nil)

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
