// Package datasource reads translation progress out of the pipeline's
// SQLite database. The database is the authoritative counter source when
// present; progress.json is the fallback for pipelines that ran without
// the database step.
package datasource

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/FelixZhang1020/epub-translator-sub000/pkg/model"
)

// SQLiteReader provides read access to a pipeline translation database
type SQLiteReader struct {
	db   *sql.DB
	path string
}

// NewSQLiteReader opens a translation database for reading
func NewSQLiteReader(path string) (*SQLiteReader, error) {
	// Open in read-only mode with various pragmas for read performance
	dsn := fmt.Sprintf("file:%s?mode=ro&_busy_timeout=5000&_journal_mode=WAL", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	// Set pragmas for read performance
	pragmas := []string{
		"PRAGMA cache_size = -64000",   // 64MB cache
		"PRAGMA mmap_size = 268435456", // 256MB mmap
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			// Non-fatal, just log
		}
	}

	return &SQLiteReader{
		db:   db,
		path: path,
	}, nil
}

// Close closes the database connection
func (r *SQLiteReader) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// LoadProgress aggregates per-chapter counters from the segments table.
// A segment counts as completed once its status is 'translated' or
// 'reviewed'.
func (r *SQLiteReader) LoadProgress() (map[string]model.ChapterProgress, error) {
	query := `
		SELECT
			chapter_id,
			SUM(CASE WHEN status IN ('translated', 'reviewed') THEN 1 ELSE 0 END),
			COUNT(*)
		FROM segments
		GROUP BY chapter_id
	`

	rows, err := r.db.Query(query)
	if err != nil {
		// Try the precomputed counters table for databases written by
		// older pipeline versions without a segments table.
		return r.loadProgressSimple()
	}
	defer rows.Close()

	counters := make(map[string]model.ChapterProgress)
	for rows.Next() {
		var chapterID string
		var completed, total sql.NullInt64

		if err := rows.Scan(&chapterID, &completed, &total); err != nil {
			continue
		}
		if chapterID == "" {
			continue
		}

		counters[chapterID] = model.ChapterProgress{
			Completed: int(completed.Int64),
			Total:     int(total.Int64),
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating segments: %w", err)
	}

	return counters, nil
}

// loadProgressSimple is a fallback for databases that only carry the
// per-chapter summary table
func (r *SQLiteReader) loadProgressSimple() (map[string]model.ChapterProgress, error) {
	query := `SELECT chapter_id, completed_segments, total_segments FROM chapters`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	counters := make(map[string]model.ChapterProgress)
	for rows.Next() {
		var chapterID string
		var completed, total sql.NullInt64

		if err := rows.Scan(&chapterID, &completed, &total); err != nil {
			continue
		}
		if chapterID == "" {
			continue
		}

		counters[chapterID] = model.ChapterProgress{
			Completed: int(completed.Int64),
			Total:     int(total.Int64),
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chapters: %w", err)
	}

	return counters, nil
}

// ChapterText assembles the translated text of a chapter from its
// segments in document order. Untranslated segments fall back to the
// source text so the preview reads continuously.
func (r *SQLiteReader) ChapterText(chapterID string) (string, error) {
	query := `
		SELECT source_text, translated_text
		FROM segments
		WHERE chapter_id = ?
		ORDER BY seq
	`

	rows, err := r.db.Query(query, chapterID)
	if err != nil {
		return "", fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var b strings.Builder
	found := false
	for rows.Next() {
		var source, translated sql.NullString
		if err := rows.Scan(&source, &translated); err != nil {
			continue
		}
		found = true

		text := translated.String
		if !translated.Valid || strings.TrimSpace(text) == "" {
			text = source.String
		}
		if text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(text)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("error iterating segments: %w", err)
	}
	if !found {
		return "", fmt.Errorf("chapter not found: %s", chapterID)
	}

	return b.String(), nil
}

// CountSegments returns the total number of segments in the database
func (r *SQLiteReader) CountSegments() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM segments").Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// LastModified returns the most recent segment update time
func (r *SQLiteReader) LastModified() (time.Time, error) {
	var updatedAt sql.NullTime
	err := r.db.QueryRow("SELECT MAX(updated_at) FROM segments").Scan(&updatedAt)
	if err != nil {
		return time.Time{}, err
	}
	if !updatedAt.Valid {
		return time.Time{}, nil
	}
	return updatedAt.Time, nil
}
