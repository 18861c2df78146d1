package database

import (
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

const (
	TableComic = "comic"
	TableKoma  = "koma"
)

// KomaRow is the subset of a koma row the maintenance tool works with
type KomaRow struct {
	ID                int64
	ComicID           int64
	FrameNumber       int64
	ImageFilename     string
	ThumbnailFilename *string
}

// TableColumns lists the column names of a table via PRAGMA table_info
func TableColumns(db *sql.DB, table string) ([]string, error) {
	if table != TableComic && table != TableKoma {
		return nil, fmt.Errorf("unsupported table %q", table)
	}

	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("failed to read table info for %s: %w", table, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var (
			cid     int
			name    string
			colType string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan table info for %s: %w", table, err)
		}
		columns = append(columns, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating table info for %s: %w", table, err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s does not exist", table)
	}
	return columns, nil
}

func hasColumn(db *sql.DB, table, column string) (bool, error) {
	columns, err := TableColumns(db, table)
	if err != nil {
		return false, err
	}
	for _, c := range columns {
		if c == column {
			return true, nil
		}
	}
	return false, nil
}

// EnsureSoftDeleteColumn adds is_deleted (default 0) to table when missing.
// returns true if the column had to be added.
func EnsureSoftDeleteColumn(db *sql.DB, table string) (bool, error) {
	exists, err := hasColumn(db, table, "is_deleted")
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	_, err = db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN is_deleted INTEGER NOT NULL DEFAULT 0", table))
	if err != nil {
		return false, fmt.Errorf("failed to add is_deleted column to %s: %w", table, err)
	}
	return true, nil
}

// komaColumns tolerates databases created before thumbnails existed
func komaColumns(db *sql.DB) ([]string, error) {
	hasThumb, err := hasColumn(db, TableKoma, "thumbnail_filename")
	if err != nil {
		return nil, err
	}
	thumbCol := "NULL AS thumbnail_filename"
	if hasThumb {
		thumbCol = "thumbnail_filename"
	}
	return []string{"id", "comic_id", "frame_number", "image_filename", thumbCol}, nil
}

func scanKoma(scanner interface{ Scan(...interface{}) error }) (KomaRow, error) {
	var k KomaRow
	var thumb sql.NullString
	if err := scanner.Scan(&k.ID, &k.ComicID, &k.FrameNumber, &k.ImageFilename, &thumb); err != nil {
		return KomaRow{}, err
	}
	if thumb.Valid && thumb.String != "" {
		k.ThumbnailFilename = &thumb.String
	}
	return k, nil
}

// GetKoma returns sql.ErrNoRows when the koma does not exist
func GetKoma(db *sql.DB, komaID int64) (KomaRow, error) {
	columns, err := komaColumns(db)
	if err != nil {
		return KomaRow{}, err
	}

	sqlStr, args, err := psql.Select(columns...).
		From(TableKoma).
		Where(sq.Eq{"id": komaID}).
		Limit(1).
		ToSql()
	if err != nil {
		return KomaRow{}, fmt.Errorf("failed to build SQL query for GetKoma: %w", err)
	}

	k, err := scanKoma(db.QueryRow(sqlStr, args...))
	if err != nil {
		if err == sql.ErrNoRows {
			return KomaRow{}, sql.ErrNoRows
		}
		return KomaRow{}, fmt.Errorf("failed to query koma %d: %w", komaID, err)
	}
	return k, nil
}

// ListComicKomas returns every koma row of a comic, deleted or not
func ListComicKomas(db *sql.DB, comicID int64) ([]KomaRow, error) {
	columns, err := komaColumns(db)
	if err != nil {
		return nil, err
	}

	sqlStr, args, err := psql.Select(columns...).
		From(TableKoma).
		Where(sq.Eq{"comic_id": comicID}).
		OrderBy("frame_number ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL query for ListComicKomas: %w", err)
	}

	rows, err := db.Query(sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list komas of comic %d: %w", comicID, err)
	}
	defer rows.Close()

	komas := []KomaRow{}
	for rows.Next() {
		k, err := scanKoma(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan koma row: %w", err)
		}
		komas = append(komas, k)
	}
	return komas, rows.Err()
}

// ComicExists checks the comic table for an id
func ComicExists(db *sql.DB, comicID int64) (bool, error) {
	sqlStr, args, err := psql.Select("COUNT(*)").
		From(TableComic).
		Where(sq.Eq{"id": comicID}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build SQL query for ComicExists: %w", err)
	}

	var count int64
	if err := db.QueryRow(sqlStr, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to count comic %d: %w", comicID, err)
	}
	return count > 0, nil
}

// SoftDeleteKoma flags one koma. frame numbers are left alone so the slot survives.
func SoftDeleteKoma(db *sql.DB, komaID int64) error {
	sqlStr, args, err := psql.Update(TableKoma).
		Set("is_deleted", 1).
		Where(sq.Eq{"id": komaID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build SQL for SoftDeleteKoma: %w", err)
	}

	res, err := db.Exec(sqlStr, args...)
	if err != nil {
		return fmt.Errorf("failed to soft delete koma %d: %w", komaID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SoftDeleteComic flags the comic and all of its komas in one transaction.
// returns the number of komas flagged.
func SoftDeleteComic(db *sql.DB, comicID int64) (int64, error) {
	komaSQL, komaArgs, err := psql.Update(TableKoma).
		Set("is_deleted", 1).
		Where(sq.Eq{"comic_id": comicID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build SQL for SoftDeleteComic komas: %w", err)
	}
	comicSQL, comicArgs, err := psql.Update(TableComic).
		Set("is_deleted", 1).
		Where(sq.Eq{"id": comicID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build SQL for SoftDeleteComic: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(komaSQL, komaArgs...)
	if err != nil {
		return 0, fmt.Errorf("failed to soft delete komas of comic %d: %w", comicID, err)
	}
	flagged, _ := res.RowsAffected()

	res, err = tx.Exec(comicSQL, comicArgs...)
	if err != nil {
		return 0, fmt.Errorf("failed to soft delete comic %d: %w", comicID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return 0, sql.ErrNoRows
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit soft delete of comic %d: %w", comicID, err)
	}
	return flagged, nil
}

// HardDeleteKoma removes a single koma row
func HardDeleteKoma(db *sql.DB, komaID int64) error {
	sqlStr, args, err := psql.Delete(TableKoma).Where(sq.Eq{"id": komaID}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build SQL for HardDeleteKoma: %w", err)
	}

	res, err := db.Exec(sqlStr, args...)
	if err != nil {
		return fmt.Errorf("failed to delete koma %d: %w", komaID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// HardDeleteComic removes all koma rows of a comic and then the comic row.
// a missing comic row is not an error. returns the number of komas removed.
func HardDeleteComic(db *sql.DB, comicID int64) (int64, error) {
	komaSQL, komaArgs, err := psql.Delete(TableKoma).Where(sq.Eq{"comic_id": comicID}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build SQL for HardDeleteComic komas: %w", err)
	}
	comicSQL, comicArgs, err := psql.Delete(TableComic).Where(sq.Eq{"id": comicID}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build SQL for HardDeleteComic: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(komaSQL, komaArgs...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete komas of comic %d: %w", comicID, err)
	}
	removed, _ := res.RowsAffected()

	if _, err := tx.Exec(comicSQL, comicArgs...); err != nil {
		return 0, fmt.Errorf("failed to delete comic %d: %w", comicID, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit hard delete of comic %d: %w", comicID, err)
	}
	return removed, nil
}

// ResequenceComic renumbers the remaining komas of a comic 1..N keeping
// their previous relative order. returns the number of rows renumbered.
func ResequenceComic(db *sql.DB, comicID int64) (int64, error) {
	sqlStr, args, err := psql.Update(TableKoma).
		Prefix("WITH sorted AS (SELECT id, ROW_NUMBER() OVER (ORDER BY frame_number, id) AS new_frame FROM koma WHERE comic_id = ?)", comicID).
		Set("frame_number", sq.Expr("(SELECT new_frame FROM sorted WHERE sorted.id = koma.id)")).
		Where(sq.Eq{"comic_id": comicID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build SQL for ResequenceComic: %w", err)
	}

	res, err := db.Exec(sqlStr, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to resequence comic %d: %w", comicID, err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// CheckpointWAL folds the write-ahead log into the main file so a plain
// file copy is a complete snapshot
func CheckpointWAL(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA wal_checkpoint(TRUNCATE);"); err != nil {
		return fmt.Errorf("failed to checkpoint WAL: %w", err)
	}
	return nil
}

// Vacuum rebuilds the database file to reclaim free pages
func Vacuum(db *sql.DB) error {
	if _, err := db.Exec("VACUUM;"); err != nil {
		return fmt.Errorf("failed to vacuum database: %w", err)
	}
	return nil
}
