package source

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/kanjidex/kanjidex/pkg/db"
)

// Source records a piece of reading material kanji were encountered in.
type Source struct {
	ID                   int64     `json:"id"`
	SourceType           string    `json:"sourceType"`
	Title                string    `json:"title"`
	Author               string    `json:"author"`
	Website              string    `json:"website"`
	URL                  string    `json:"url"`
	Meta                 string    `json:"meta,omitempty"`
	AddedAt              time.Time `json:"addedAt"`
	LastProcessedSegment int       `json:"lastProcessedSegment"`
}

// KanjiLink ties one kanji to one source with an occurrence count.
type KanjiLink struct {
	Character       string    `json:"character"`
	SourceID        int64     `json:"sourceId"`
	OccurrenceCount int       `json:"occurrenceCount"`
	FirstSeenAt     time.Time `json:"firstSeenAt"`
}

// CreateOrGet returns an existing source id or inserts a new source and
// returns its id. Identity is the (url, title, author) triple.
func CreateOrGet(ex db.DBExecutor, sourceType, title, author, website, url, meta string) (int64, error) {
	trimmedSourceType := strings.TrimSpace(sourceType)
	if trimmedSourceType == "" {
		return 0, fmt.Errorf("%w: sourceType must be non-empty", db.ErrInvalidArgument)
	}

	const maxRetries = 3

	var id int64
	for attempt := 0; attempt < maxRetries; attempt++ {
		// First, try to find an existing source.
		err := ex.QueryRow(
			`SELECT id FROM sources WHERE url = ? AND title = ? AND author = ?`,
			url, title, author,
		).Scan(&id)
		if err == nil {
			return id, nil
		}
		if err != sql.ErrNoRows {
			return 0, db.MapError(err, "source", title)
		}

		// No existing row; try to insert one.
		res, err := ex.Exec(
			`INSERT INTO sources (source_type, title, author, website, url, meta) VALUES (?, ?, ?, ?, ?, ?)`,
			trimmedSourceType, title, author, website, url, meta,
		)
		if err != nil {
			// If a concurrent transaction inserted the same source, retry the SELECT.
			if db.IsUniqueConstraintErr(err) {
				continue
			}
			return 0, db.MapError(err, "source", title)
		}

		return res.LastInsertId()
	}

	return 0, fmt.Errorf("%w: could not create or get source after %d retries", db.ErrPersistence, maxRetries)
}

// GetByID returns one source. A missing id is ErrNotFound.
func GetByID(ex db.DBExecutor, id int64) (*Source, error) {
	var s Source
	err := ex.QueryRow(
		`SELECT id, source_type, title, author, website, url, meta, added_at, last_processed_segment
		 FROM sources WHERE id = ?`, id,
	).Scan(&s.ID, &s.SourceType, &s.Title, &s.Author, &s.Website, &s.URL, &s.Meta, &s.AddedAt, &s.LastProcessedSegment)
	if err != nil {
		return nil, db.MapError(err, "source", id)
	}
	return &s, nil
}

// List returns all sources, oldest first.
func List(ex db.DBExecutor) ([]Source, error) {
	rows, err := ex.Query(
		`SELECT id, source_type, title, author, website, url, meta, added_at, last_processed_segment
		 FROM sources ORDER BY id`)
	if err != nil {
		return nil, db.MapError(err, "source", "list")
	}
	defer rows.Close()
	var out []Source
	for rows.Next() {
		var s Source
		if err := rows.Scan(&s.ID, &s.SourceType, &s.Title, &s.Author, &s.Website, &s.URL, &s.Meta, &s.AddedAt, &s.LastProcessedSegment); err != nil {
			return nil, db.MapError(err, "source", "list")
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, db.MapError(err, "source", "list")
	}
	return out, nil
}

// LinkKanji links ch to a source, adding occurrences to the pair's count
// atomically.
func LinkKanji(ex db.DBExecutor, ch string, sourceID int64, occurrences int) error {
	if ch == "" {
		return fmt.Errorf("%w: character must be non-empty", db.ErrInvalidArgument)
	}
	if sourceID <= 0 {
		return fmt.Errorf("%w: sourceID must be positive, got %d", db.ErrInvalidArgument, sourceID)
	}
	if occurrences < 1 {
		return fmt.Errorf("%w: occurrences must be positive, got %d", db.ErrInvalidArgument, occurrences)
	}

	var linked string
	err := ex.QueryRow(
		`INSERT INTO kanji_sources (character, source_id, occurrence_count, first_seen_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(character, source_id) DO UPDATE SET
		   occurrence_count = kanji_sources.occurrence_count + excluded.occurrence_count
		 RETURNING character`, ch, sourceID, occurrences, time.Now(),
	).Scan(&linked)
	if err != nil {
		return db.MapError(err, "kanji link", ch)
	}
	return nil
}

// KanjiForSource returns the kanji linked to a source, most frequent first.
func KanjiForSource(ex db.DBExecutor, sourceID int64) ([]KanjiLink, error) {
	rows, err := ex.Query(
		`SELECT character, source_id, occurrence_count, first_seen_at
		 FROM kanji_sources WHERE source_id = ?
		 ORDER BY occurrence_count DESC, character`, sourceID)
	if err != nil {
		return nil, db.MapError(err, "kanji link", sourceID)
	}
	defer rows.Close()
	var out []KanjiLink
	for rows.Next() {
		var l KanjiLink
		if err := rows.Scan(&l.Character, &l.SourceID, &l.OccurrenceCount, &l.FirstSeenAt); err != nil {
			return nil, db.MapError(err, "kanji link", sourceID)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, db.MapError(err, "kanji link", sourceID)
	}
	return out, nil
}

// SourcesForKanji returns the sources a kanji has been seen in.
func SourcesForKanji(ex db.DBExecutor, ch string) ([]Source, error) {
	rows, err := ex.Query(
		`SELECT s.id, s.source_type, s.title, s.author, s.website, s.url, s.meta, s.added_at, s.last_processed_segment
		 FROM sources s JOIN kanji_sources ks ON ks.source_id = s.id
		 WHERE ks.character = ? ORDER BY s.id`, ch)
	if err != nil {
		return nil, db.MapError(err, "source", ch)
	}
	defer rows.Close()
	var out []Source
	for rows.Next() {
		var s Source
		if err := rows.Scan(&s.ID, &s.SourceType, &s.Title, &s.Author, &s.Website, &s.URL, &s.Meta, &s.AddedAt, &s.LastProcessedSegment); err != nil {
			return nil, db.MapError(err, "source", ch)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, db.MapError(err, "source", ch)
	}
	return out, nil
}

// Progress returns the index of the last processed segment for a source,
// -1 when nothing has been processed yet.
func Progress(ex db.DBExecutor, sourceID int64) (int, error) {
	var index int
	err := ex.QueryRow(`SELECT last_processed_segment FROM sources WHERE id = ?`, sourceID).Scan(&index)
	if err != nil {
		return 0, db.MapError(err, "source", sourceID)
	}
	return index, nil
}

// SetProgress updates the last processed segment index.
func SetProgress(ex db.DBExecutor, sourceID int64, index int) error {
	_, err := ex.Exec(`UPDATE sources SET last_processed_segment = ? WHERE id = ?`, index, sourceID)
	if err != nil {
		return db.MapError(err, "source", sourceID)
	}
	return nil
}
