package catalog

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/Masterminds/squirrel"
	"github.com/rs/zerolog"

	"github.com/kanjidex/kanjidex/pkg/db"
)

// Store serves the kanji reference catalog. Records are immutable after
// seeding, so reads take no locks; only seeding is serialized.
type Store struct {
	db     *sql.DB
	log    zerolog.Logger
	seedMu sync.Mutex
}

// NewStore wraps an opened database. Pass zerolog.Nop() to silence logs.
func NewStore(dbConn *sql.DB, log zerolog.Logger) *Store {
	return &Store{db: dbConn, log: log}
}

var recordColumns = []string{
	"character", "meanings", "on_readings", "kun_readings", "stroke_count",
	"grade", "exam_level", "frequency_rank", "radicals", "mnemonic", "examples",
}

// Initialize seeds the catalog from ds when it is empty. Safe to call on
// every startup: a seeded catalog is left untouched, and overlapping calls
// cannot both seed.
func (s *Store) Initialize(ds *Dataset) error {
	s.seedMu.Lock()
	defer s.seedMu.Unlock()

	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM kanji`).Scan(&n); err != nil {
		return fmt.Errorf("%w: count catalog: %v", db.ErrInitialization, err)
	}
	if n > 0 {
		s.log.Debug().Int("records", n).Msg("catalog already seeded")
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: begin seed: %v", db.ErrInitialization, err)
	}
	defer tx.Rollback()
	if err := seedTx(tx, ds); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit seed: %v", db.ErrInitialization, err)
	}
	s.log.Info().Int("records", len(ds.Records)).Str("version", ds.Version).Msg("catalog seeded")
	return nil
}

// Reseed replaces the whole catalog with ds, atomically.
func (s *Store) Reseed(ds *Dataset) error {
	s.seedMu.Lock()
	defer s.seedMu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: begin reseed: %v", db.ErrInitialization, err)
	}
	defer tx.Rollback()
	if _, err := tx.Exec(`DELETE FROM kanji`); err != nil {
		return fmt.Errorf("%w: clear catalog: %v", db.ErrInitialization, err)
	}
	if err := seedTx(tx, ds); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit reseed: %v", db.ErrInitialization, err)
	}
	s.log.Info().Int("records", len(ds.Records)).Str("version", ds.Version).Msg("catalog reseeded")
	return nil
}

func seedTx(tx *sql.Tx, ds *Dataset) error {
	for _, rec := range ds.Records {
		if err := insertRecord(tx, rec); err != nil {
			return fmt.Errorf("%w: seed %s: %v", db.ErrInitialization, rec.Character, err)
		}
	}
	if _, err := tx.Exec(
		`INSERT INTO catalog_meta (key, value) VALUES ('version', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, ds.Version,
	); err != nil {
		return fmt.Errorf("%w: store version: %v", db.ErrInitialization, err)
	}
	return nil
}

// insertRecord writes one record, leaving any existing row for the same
// character untouched so double-seeding stays idempotent.
func insertRecord(ex db.DBExecutor, rec Record) error {
	lists := make([]string, 0, 5)
	for _, list := range [][]string{rec.Meanings, rec.OnReadings, rec.KunReadings, rec.Radicals, rec.Examples} {
		if list == nil {
			list = []string{}
		}
		b, err := json.Marshal(list)
		if err != nil {
			return err
		}
		lists = append(lists, string(b))
	}
	query, args, err := squirrel.Insert("kanji").
		Columns(recordColumns...).
		Values(rec.Character, lists[0], lists[1], lists[2], rec.StrokeCount,
			nullableArg(rec.Grade), nullableArg(rec.ExamLevel), nullableArg(rec.FrequencyRank),
			lists[3], rec.Mnemonic, lists[4]).
		Suffix("ON CONFLICT(character) DO NOTHING").
		ToSql()
	if err != nil {
		return err
	}
	_, err = ex.Exec(query, args...)
	return err
}

// GetByCharacter returns the record for ch, or nil when the catalog does
// not contain it. Absence is not an error.
func (s *Store) GetByCharacter(ch string) (*Record, error) {
	query, args, err := squirrel.Select(recordColumns...).From("kanji").
		Where(squirrel.Eq{"character": ch}).ToSql()
	if err != nil {
		return nil, db.MapError(err, "kanji", ch)
	}
	rec, err := scanRecord(s.db.QueryRow(query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, db.MapError(err, "kanji", ch)
	}
	return &rec, nil
}

// GetByCharacters returns records for the given characters, silently
// omitting any the catalog does not contain. Results are ordered by
// stroke count, then code point.
func (s *Store) GetByCharacters(chars []string) ([]Record, error) {
	if len(chars) == 0 {
		return nil, nil
	}
	builder := squirrel.Select(recordColumns...).From("kanji").
		Where(squirrel.Eq{"character": chars}).
		OrderBy("stroke_count ASC", "character ASC")
	return s.queryRecords(builder, "kanji batch")
}

// GetAll returns the full catalog ordered by stroke count, then code point.
func (s *Store) GetAll() ([]Record, error) {
	builder := squirrel.Select(recordColumns...).From("kanji").
		OrderBy("stroke_count ASC", "character ASC")
	return s.queryRecords(builder, "catalog")
}

// Search returns the page of records matching f plus the total match
// count before pagination.
func (s *Store) Search(f Filter) ([]Record, int, error) {
	if err := f.validate(); err != nil {
		return nil, 0, err
	}

	builder := squirrel.Select(recordColumns...).From("kanji").
		OrderBy("stroke_count ASC", "character ASC")
	if f.ExamLevel != nil {
		builder = builder.Where(squirrel.Eq{"exam_level": *f.ExamLevel})
	}
	if f.StrokeCount != nil {
		builder = builder.Where(squirrel.Eq{"stroke_count": *f.StrokeCount})
	}
	if f.FrequencyClass != "" {
		builder = builder.Where(frequencyClause(f.FrequencyClass))
	}

	records, err := s.queryRecords(builder, "search")
	if err != nil {
		return nil, 0, err
	}

	// The free-text clause folds scripts, which SQL LIKE cannot, so it
	// runs here after the categorical filters.
	if f.Query != "" {
		matched := make([]Record, 0, len(records))
		for _, rec := range records {
			if matchesQuery(rec, f.Query) {
				matched = append(matched, rec)
			}
		}
		records = matched
	}

	total := len(records)
	if f.Offset >= total {
		return nil, total, nil
	}
	end := f.Offset + f.Limit
	if end > total {
		end = total
	}
	return records[f.Offset:end], total, nil
}

func frequencyClause(class string) squirrel.Sqlizer {
	switch class {
	case FreqVeryCommon:
		return squirrel.And{squirrel.GtOrEq{"frequency_rank": 1}, squirrel.LtOrEq{"frequency_rank": veryCommonMax}}
	case FreqCommon:
		return squirrel.And{squirrel.Gt{"frequency_rank": veryCommonMax}, squirrel.LtOrEq{"frequency_rank": commonMax}}
	case FreqUncommon:
		return squirrel.And{squirrel.Gt{"frequency_rank": commonMax}, squirrel.LtOrEq{"frequency_rank": uncommonMax}}
	default:
		return squirrel.Or{squirrel.Eq{"frequency_rank": nil}, squirrel.Gt{"frequency_rank": uncommonMax}}
	}
}

// Count returns the number of catalog records.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM kanji`).Scan(&n); err != nil {
		return 0, db.MapError(err, "catalog", "count")
	}
	return n, nil
}

// Version returns the dataset version recorded at seed time, or "" when
// none was recorded.
func (s *Store) Version() (string, error) {
	var v string
	err := s.db.QueryRow(`SELECT value FROM catalog_meta WHERE key = 'version'`).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", db.MapError(err, "catalog", "version")
	}
	return v, nil
}

// TotalRadicals returns the number of distinct component radicals across
// the catalog.
func (s *Store) TotalRadicals() (int, error) {
	rows, err := s.db.Query(`SELECT radicals FROM kanji`)
	if err != nil {
		return 0, db.MapError(err, "catalog", "radicals")
	}
	defer rows.Close()
	distinct := make(map[string]bool)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return 0, db.MapError(err, "catalog", "radicals")
		}
		var rads []string
		if err := json.Unmarshal([]byte(raw), &rads); err != nil {
			return 0, fmt.Errorf("decode radicals: %w", err)
		}
		for _, rad := range rads {
			distinct[rad] = true
		}
	}
	if err := rows.Err(); err != nil {
		return 0, db.MapError(err, "catalog", "radicals")
	}
	return len(distinct), nil
}

// SizeBytes returns the size of the backing database file.
func (s *Store) SizeBytes() (int64, error) {
	var pageCount, pageSize int64
	if err := s.db.QueryRow(`PRAGMA page_count`).Scan(&pageCount); err != nil {
		return 0, db.MapError(err, "catalog", "size")
	}
	if err := s.db.QueryRow(`PRAGMA page_size`).Scan(&pageSize); err != nil {
		return 0, db.MapError(err, "catalog", "size")
	}
	return pageCount * pageSize, nil
}

func (s *Store) queryRecords(builder squirrel.SelectBuilder, entity string) ([]Record, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, db.MapError(err, entity, "build")
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, db.MapError(err, entity, "query")
	}
	defer rows.Close()
	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, db.MapError(err, entity, "scan")
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, db.MapError(err, entity, "rows")
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (Record, error) {
	var r Record
	var meanings, onReadings, kunReadings, radicals, examples string
	var grade, examLevel, freqRank sql.NullInt64
	if err := row.Scan(&r.Character, &meanings, &onReadings, &kunReadings, &r.StrokeCount,
		&grade, &examLevel, &freqRank, &radicals, &r.Mnemonic, &examples); err != nil {
		return Record{}, err
	}
	for _, f := range []struct {
		src string
		dst *[]string
	}{
		{meanings, &r.Meanings},
		{onReadings, &r.OnReadings},
		{kunReadings, &r.KunReadings},
		{radicals, &r.Radicals},
		{examples, &r.Examples},
	} {
		if err := json.Unmarshal([]byte(f.src), f.dst); err != nil {
			return Record{}, fmt.Errorf("decode record %s: %w", r.Character, err)
		}
	}
	r.Grade = nullableInt(grade)
	r.ExamLevel = nullableInt(examLevel)
	r.FrequencyRank = nullableInt(freqRank)
	return r, nil
}

func nullableInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func nullableArg(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
