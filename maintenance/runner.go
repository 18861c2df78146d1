// Package maintenance implements the offline admin_delete operations on the
// SQLite file the server writes.
package maintenance

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/yroh0840/manga-relay/database"
	"github.com/yroh0840/manga-relay/models"
	"github.com/yroh0840/manga-relay/utils"
)

// BackupTimeFormat is the suffix layout of <db>.bak.<timestamp>
const BackupTimeFormat = "20060102150405"

// AbortMessage is printed when --hard is given without --yes
const AbortMessage = "Hard delete requested -- must pass --yes to confirm. Aborting."

// Options mirrors the admin_delete flags. exactly one of KomaID and ComicID is set.
type Options struct {
	KomaID     int64
	ComicID    int64
	DBPath     string
	UploadsDir string
	Hard       bool
	WithImages bool
	NoVacuum   bool
	Yes        bool
}

func (o Options) validate() error {
	if (o.KomaID > 0) == (o.ComicID > 0) {
		return errors.New("exactly one of --koma or --comic must be given with a positive id")
	}
	if o.DBPath == "" {
		return errors.New("--db must not be empty")
	}
	return nil
}

// Runner executes one maintenance run, reporting progress lines to Out
type Runner struct {
	Out io.Writer
	Log zerolog.Logger
	Now func() time.Time
}

func NewRunner(out io.Writer, log zerolog.Logger) *Runner {
	return &Runner{Out: out, Log: log, Now: time.Now}
}

func (r *Runner) printf(format string, args ...interface{}) {
	fmt.Fprintf(r.Out, format+"\n", args...)
}

// Run performs guard, backup, the requested operation and vacuum in order.
// steps already committed when a later one fails are not undone.
func (r *Runner) Run(opts Options) error {
	if err := opts.validate(); err != nil {
		return err
	}
	if opts.Hard && !opts.Yes {
		r.printf("%s", AbortMessage)
		return nil
	}

	db, err := database.OpenSQLite(opts.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := r.ensureSchema(db); err != nil {
		return err
	}

	if _, err := r.backup(db, opts.DBPath); err != nil {
		return err
	}

	switch {
	case opts.KomaID > 0 && opts.Hard:
		err = r.hardDeleteKoma(db, opts)
	case opts.KomaID > 0:
		err = r.softDeleteKoma(db, opts.KomaID)
	case opts.Hard:
		err = r.hardDeleteComic(db, opts)
	default:
		err = r.softDeleteComic(db, opts.ComicID)
	}
	if err != nil {
		return err
	}

	if !opts.NoVacuum {
		r.printf("[vacuum] running VACUUM")
		if err := database.Vacuum(db); err != nil {
			return err
		}
		r.printf("[vacuum] done")
	}

	r.printf("[done] operation completed successfully")
	return nil
}

func (r *Runner) ensureSchema(db *sql.DB) error {
	for _, table := range []string{database.TableKoma, database.TableComic} {
		added, err := database.EnsureSoftDeleteColumn(db, table)
		if err != nil {
			return err
		}
		if added {
			r.printf("[migrate] adding is_deleted column to %s (default 0)", table)
		} else {
			r.printf("[migrate] is_deleted column already exists on %s", table)
		}
	}
	return nil
}

// backup checkpoints the WAL so the copy holds every committed write
func (r *Runner) backup(db *sql.DB, dbPath string) (string, error) {
	if err := database.CheckpointWAL(db); err != nil {
		return "", err
	}
	bak := fmt.Sprintf("%s.bak.%s", dbPath, r.Now().Format(BackupTimeFormat))
	if err := utils.CopyFilePreserving(dbPath, bak); err != nil {
		return "", fmt.Errorf("failed to back up database: %w", err)
	}
	r.printf("[backup] copied %s -> %s", dbPath, bak)
	return bak, nil
}

func (r *Runner) softDeleteKoma(db *sql.DB, komaID int64) error {
	koma, err := database.GetKoma(db, komaID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("koma id %d not found", komaID)
		}
		return err
	}
	if err := database.SoftDeleteKoma(db, komaID); err != nil {
		return err
	}
	r.printf("[soft] koma %d marked is_deleted=1 (comic %d)", komaID, koma.ComicID)
	return nil
}

func (r *Runner) softDeleteComic(db *sql.DB, comicID int64) error {
	flagged, err := database.SoftDeleteComic(db, comicID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("comic id %d not found", comicID)
		}
		return err
	}
	r.printf("[soft] comic %d and its %d komas marked is_deleted=1", comicID, flagged)
	return nil
}

func (r *Runner) hardDeleteKoma(db *sql.DB, opts Options) error {
	koma, err := database.GetKoma(db, opts.KomaID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("koma id %d not found", opts.KomaID)
		}
		return err
	}

	if err := database.HardDeleteKoma(db, koma.ID); err != nil {
		return err
	}
	r.printf("[hard] deleted koma %d from DB (comic %d)", koma.ID, koma.ComicID)

	if opts.WithImages {
		r.removeImages(opts.UploadsDir, koma)
	}

	return r.resequence(db, koma.ComicID)
}

func (r *Runner) hardDeleteComic(db *sql.DB, opts Options) error {
	komas, err := database.ListComicKomas(db, opts.ComicID)
	if err != nil {
		return err
	}
	if len(komas) == 0 {
		r.printf("[hard] No komas found for comic %d (still deleting comic row if exists)", opts.ComicID)
	}

	if _, err := database.HardDeleteComic(db, opts.ComicID); err != nil {
		return err
	}
	r.printf("[hard] deleted all koma and comic %d from DB", opts.ComicID)

	if opts.WithImages {
		for _, k := range komas {
			r.removeImages(opts.UploadsDir, k)
		}
	}
	return nil
}

func (r *Runner) resequence(db *sql.DB, comicID int64) error {
	r.printf("[resequence] resequencing frame_number for comic %d", comicID)
	n, err := database.ResequenceComic(db, comicID)
	if err != nil {
		return err
	}
	r.printf("[resequence] done (%d komas)", n)
	return nil
}

// removeImages deletes the koma's image and thumbnail files. problems are
// reported and never fail the run: the rows are already gone.
func (r *Runner) removeImages(uploadsDir string, koma database.KomaRow) {
	refs := []string{koma.ImageFilename}
	if koma.ThumbnailFilename != nil {
		refs = append(refs, *koma.ThumbnailFilename)
	}

	for _, ref := range refs {
		if ref == "" {
			continue
		}
		if models.IsRemoteImage(ref) {
			r.printf("[file] skipped remote image %s", ref)
			continue
		}
		path, err := utils.ResolveWithin(uploadsDir, ref)
		if err != nil {
			r.printf("[file] skipped %s: %v", ref, err)
			continue
		}
		removed, err := utils.RemoveFile(path)
		switch {
		case err != nil:
			r.printf("[file] failed to remove %s: %v", path, err)
			r.Log.Warn().Err(err).Str("path", path).Msg("maintenance: failed to remove image")
		case removed:
			r.printf("[file] removed image %s", path)
		default:
			r.printf("[file] image not found: %s", path)
		}
	}
}
