package maintenance

import (
	"bytes"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yroh0840/manga-relay/database"
	"github.com/yroh0840/manga-relay/models"
)

var fixedNow = time.Date(2024, 6, 1, 9, 30, 15, 0, time.UTC)

type fixture struct {
	dir     string
	dbPath  string
	uploads string
	out     *bytes.Buffer
	runner  *Runner
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{
		dir:     dir,
		dbPath:  filepath.Join(dir, "comic_relay.sqlite"),
		uploads: filepath.Join(dir, "uploads"),
		out:     &bytes.Buffer{},
	}
	require.NoError(t, os.MkdirAll(filepath.Join(f.uploads, "thumbs"), 0755))
	f.runner = &Runner{Out: f.out, Log: zerolog.Nop(), Now: func() time.Time { return fixedNow }}
	return f
}

// seed creates the server schema: comic 1 "Test" with panels A (frame 1) and B (frame 2)
func (f *fixture) seed(t *testing.T) {
	t.Helper()
	db, err := database.InitGormDB(f.dbPath, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrateModels(db))

	thumb := "thumbs/a.jpg"
	comic := models.Comic{Title: "Test", StartedAt: fixedNow}
	require.NoError(t, db.Create(&comic).Error)
	require.NoError(t, db.Create(&models.Koma{ComicID: comic.ID, FrameNumber: 1, ImageFilename: "a.png", ThumbnailFilename: &thumb, PostedAt: fixedNow}).Error)
	require.NoError(t, db.Create(&models.Koma{ComicID: comic.ID, FrameNumber: 2, ImageFilename: "b.png", PostedAt: fixedNow}).Error)

	other := models.Comic{Title: "Other", StartedAt: fixedNow}
	require.NoError(t, db.Create(&other).Error)
	require.NoError(t, db.Create(&models.Koma{ComicID: other.ID, FrameNumber: 1, ImageFilename: "https://res.cloudinary.com/demo/image/upload/v1/x.png", PostedAt: fixedNow}).Error)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	for _, name := range []string{"a.png", "b.png", "thumbs/a.jpg"} {
		require.NoError(t, os.WriteFile(filepath.Join(f.uploads, filepath.FromSlash(name)), []byte(name), 0644))
	}
}

func (f *fixture) query(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", f.dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func (f *fixture) backupPath() string {
	return f.dbPath + ".bak." + fixedNow.Format(BackupTimeFormat)
}

func (f *fixture) opts(mutate func(*Options)) Options {
	o := Options{DBPath: f.dbPath, UploadsDir: f.uploads}
	mutate(&o)
	return o
}

func frames(t *testing.T, db *sql.DB, comicID int) map[string]int {
	t.Helper()
	rows, err := db.Query("SELECT image_filename, frame_number FROM koma WHERE comic_id = ?", comicID)
	require.NoError(t, err)
	defer rows.Close()
	result := map[string]int{}
	for rows.Next() {
		var name string
		var frame int
		require.NoError(t, rows.Scan(&name, &frame))
		result[name] = frame
	}
	require.NoError(t, rows.Err())
	return result
}

func TestRun_HardDeleteKomaResequences(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	err := f.runner.Run(f.opts(func(o *Options) {
		o.KomaID = 1
		o.Hard = true
		o.WithImages = true
		o.Yes = true
	}))
	require.NoError(t, err)

	db := f.query(t)
	assert.Equal(t, map[string]int{"b.png": 1}, frames(t, db, 1))

	assert.NoFileExists(t, filepath.Join(f.uploads, "a.png"))
	assert.NoFileExists(t, filepath.Join(f.uploads, "thumbs", "a.jpg"))
	assert.FileExists(t, filepath.Join(f.uploads, "b.png"))
	assert.FileExists(t, f.backupPath())

	out := f.out.String()
	assert.Contains(t, out, "[backup] copied")
	assert.Contains(t, out, "[hard] deleted koma 1 from DB (comic 1)")
	assert.Contains(t, out, "[file] removed image")
	assert.Contains(t, out, "[resequence] done (1 komas)")
	assert.Contains(t, out, "[vacuum] done")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "[done] operation completed successfully"))
}

func TestRun_HardWithoutYesChangesNothing(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	before, err := os.ReadFile(f.dbPath)
	require.NoError(t, err)

	err = f.runner.Run(f.opts(func(o *Options) {
		o.KomaID = 1
		o.Hard = true
		o.WithImages = true
	}))
	require.NoError(t, err)

	assert.Equal(t, AbortMessage+"\n", f.out.String())
	assert.NoFileExists(t, f.backupPath())
	assert.FileExists(t, filepath.Join(f.uploads, "a.png"))

	after, err := os.ReadFile(f.dbPath)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRun_SoftDeleteKomaKeepsFrames(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	require.NoError(t, f.runner.Run(f.opts(func(o *Options) { o.KomaID = 1; o.NoVacuum = true })))

	db := f.query(t)
	var deleted int
	require.NoError(t, db.QueryRow("SELECT is_deleted FROM koma WHERE id = 1").Scan(&deleted))
	assert.Equal(t, 1, deleted)
	assert.Equal(t, map[string]int{"a.png": 1, "b.png": 2}, frames(t, db, 1))
	var untouched int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM koma WHERE id <> 1 AND is_deleted = 0").Scan(&untouched))
	var total int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM koma WHERE id <> 1").Scan(&total))
	assert.Equal(t, 2, total)
	assert.Equal(t, total, untouched, "sibling and other comics' komas stay live")
	var comicsDeleted int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM comic WHERE is_deleted = 1").Scan(&comicsDeleted))
	assert.Zero(t, comicsDeleted)
	assert.FileExists(t, filepath.Join(f.uploads, "a.png"))
	assert.FileExists(t, f.backupPath(), "soft deletes are backed up too")
	assert.NotContains(t, f.out.String(), "[vacuum]")
	assert.Contains(t, f.out.String(), "[soft] koma 1 marked is_deleted=1 (comic 1)")
}

func TestRun_SoftDeleteComicFlagsComicAndKomas(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	require.NoError(t, f.runner.Run(f.opts(func(o *Options) { o.ComicID = 1 })))

	db := f.query(t)
	var comicDeleted, liveKomas int
	require.NoError(t, db.QueryRow("SELECT is_deleted FROM comic WHERE id = 1").Scan(&comicDeleted))
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM koma WHERE comic_id = 1 AND is_deleted = 0").Scan(&liveKomas))
	assert.Equal(t, 1, comicDeleted)
	assert.Zero(t, liveKomas)

	var otherLive int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM koma WHERE comic_id = 2 AND is_deleted = 0").Scan(&otherLive))
	assert.Equal(t, 1, otherLive)
}

func TestRun_HardDeleteComicRemovesRowsAndFiles(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	require.NoError(t, f.runner.Run(f.opts(func(o *Options) {
		o.ComicID = 2
		o.Hard = true
		o.WithImages = true
		o.Yes = true
	})))

	db := f.query(t)
	var comics, komas int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM comic WHERE id = 2").Scan(&comics))
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM koma WHERE comic_id = 2").Scan(&komas))
	assert.Zero(t, comics)
	assert.Zero(t, komas)
	assert.Contains(t, f.out.String(), "[file] skipped remote image https://res.cloudinary.com/demo/image/upload/v1/x.png")
	assert.Len(t, frames(t, db, 1), 2)
}

func TestRun_HardDeleteMissingComicIsReported(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	require.NoError(t, f.runner.Run(f.opts(func(o *Options) {
		o.ComicID = 99
		o.Hard = true
		o.Yes = true
		o.NoVacuum = true
	})))
	assert.Contains(t, f.out.String(), "No komas found for comic 99")
}

func TestRun_MissingImageIsReported(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	require.NoError(t, os.Remove(filepath.Join(f.uploads, "b.png")))

	require.NoError(t, f.runner.Run(f.opts(func(o *Options) {
		o.KomaID = 2
		o.Hard = true
		o.WithImages = true
		o.Yes = true
		o.NoVacuum = true
	})))
	assert.Contains(t, f.out.String(), "[file] image not found: "+filepath.Join(f.uploads, "b.png"))
}

func TestRun_Errors(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	err := f.runner.Run(f.opts(func(o *Options) { o.KomaID = 42 }))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "koma id 42 not found")
	assert.FileExists(t, f.backupPath(), "the backup taken before the failing step stays")

	err = f.runner.Run(f.opts(func(o *Options) { o.ComicID = 42 }))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "comic id 42 not found")

	err = f.runner.Run(f.opts(func(o *Options) { o.KomaID = 1; o.ComicID = 1 }))
	assert.Error(t, err)
	err = f.runner.Run(f.opts(func(o *Options) {}))
	assert.Error(t, err)

	err = f.runner.Run(Options{KomaID: 1, DBPath: filepath.Join(f.dir, "missing.sqlite")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB not found")
	assert.NoFileExists(t, filepath.Join(f.dir, "missing.sqlite"))
}

func TestRun_LegacySchemaGetsSoftDeleteColumns(t *testing.T) {
	f := newFixture(t)
	db, err := sql.Open("sqlite3", f.dbPath)
	require.NoError(t, err)
	_, err = db.Exec(`
		CREATE TABLE comic (id INTEGER PRIMARY KEY, title TEXT);
		CREATE TABLE koma (id INTEGER PRIMARY KEY, comic_id INTEGER NOT NULL, frame_number INTEGER NOT NULL, image_filename TEXT NOT NULL);
		INSERT INTO comic (id, title) VALUES (1, 'old');
		INSERT INTO koma (id, comic_id, frame_number, image_filename) VALUES (1, 1, 1, 'x.png'), (2, 1, 5, 'y.png'), (3, 1, 9, 'z.png');
	`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	require.NoError(t, f.runner.Run(f.opts(func(o *Options) {
		o.KomaID = 2
		o.Hard = true
		o.Yes = true
		o.NoVacuum = true
	})))

	out := f.out.String()
	assert.Contains(t, out, "[migrate] adding is_deleted column to koma (default 0)")
	assert.Contains(t, out, "[migrate] adding is_deleted column to comic (default 0)")
	assert.Equal(t, map[string]int{"x.png": 1, "z.png": 2}, frames(t, f.query(t), 1))

	// second run sees the columns already there
	f.out.Reset()
	require.NoError(t, f.runner.Run(f.opts(func(o *Options) { o.KomaID = 1; o.NoVacuum = true })))
	assert.Contains(t, f.out.String(), "[migrate] is_deleted column already exists on koma")
}
