package exposure

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/Masterminds/squirrel"
	"github.com/rs/zerolog"

	"github.com/kanjidex/kanjidex/pkg/db"
)

// Store tracks per-character exposure counters. Increments are atomic
// SQL upserts, and same-character calls additionally serialize through a
// keyed mutex, so overlapping calls each land exactly one increment.
type Store struct {
	db  *sql.DB
	log zerolog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore wraps an opened database. Pass zerolog.Nop() to silence logs.
func NewStore(dbConn *sql.DB, log zerolog.Logger) *Store {
	return &Store{db: dbConn, log: log, locks: make(map[string]*sync.Mutex)}
}

func (s *Store) charLock(ch string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[ch]
	if !ok {
		l = &sync.Mutex{}
		s.locks[ch] = l
	}
	return l
}

func validateChar(ch string) error {
	if ch == "" {
		return fmt.Errorf("%w: character must be non-empty", db.ErrInvalidArgument)
	}
	if utf8.RuneCountInString(ch) != 1 {
		return fmt.Errorf("%w: %q is not a single character", db.ErrInvalidArgument, ch)
	}
	return nil
}

// Get returns the exposure record for ch, or nil when the character has
// never been encountered. Absence is not an error and means zero sightings.
func (s *Store) Get(ch string) (*Record, error) {
	var r Record
	err := s.db.QueryRow(
		`SELECT character, times_seen, times_correct, times_incorrect, first_seen_at, last_seen_at
		 FROM exposures WHERE character = ?`, ch,
	).Scan(&r.Character, &r.TimesSeen, &r.TimesCorrect, &r.TimesIncorrect, &r.FirstSeenAt, &r.LastSeenAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, db.MapError(err, "exposure", ch)
	}
	return &r, nil
}

// GetBatch returns exposure records keyed by character. Characters never
// encountered are simply absent from the map.
func (s *Store) GetBatch(chars []string) (map[string]Record, error) {
	out := make(map[string]Record, len(chars))
	if len(chars) == 0 {
		return out, nil
	}
	query, args, err := squirrel.
		Select("character", "times_seen", "times_correct", "times_incorrect", "first_seen_at", "last_seen_at").
		From("exposures").
		Where(squirrel.Eq{"character": chars}).
		ToSql()
	if err != nil {
		return nil, db.MapError(err, "exposure", "batch")
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, db.MapError(err, "exposure", "batch")
	}
	defer rows.Close()
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.Character, &r.TimesSeen, &r.TimesCorrect, &r.TimesIncorrect, &r.FirstSeenAt, &r.LastSeenAt); err != nil {
			return nil, db.MapError(err, "exposure", "batch")
		}
		out[r.Character] = r
	}
	if err := rows.Err(); err != nil {
		return nil, db.MapError(err, "exposure", "batch")
	}
	return out, nil
}

// RecordEncounter adds exactly one sighting of ch, creating the record
// with times_seen=1 on first encounter. A failed call records nothing;
// whether to retry is the caller's decision, never done here.
func (s *Store) RecordEncounter(ch string) error {
	if err := validateChar(ch); err != nil {
		return err
	}
	l := s.charLock(ch)
	l.Lock()
	defer l.Unlock()
	return recordEncounter(s.db, ch, time.Now())
}

// RecordEncounterTx adds one sighting of ch through ex, for callers that
// batch several characters' updates inside one transaction. The upsert is
// atomic on its own, so the per-character locks are not taken here.
func RecordEncounterTx(ex db.DBExecutor, ch string, now time.Time) error {
	if err := validateChar(ch); err != nil {
		return err
	}
	return recordEncounter(ex, ch, now)
}

// recordEncounter runs the atomic increment upsert on ex, which may be a
// transaction.
func recordEncounter(ex db.DBExecutor, ch string, now time.Time) error {
	var seen int
	err := ex.QueryRow(
		`INSERT INTO exposures (character, times_seen, first_seen_at, last_seen_at)
		 VALUES (?, 1, ?, ?)
		 ON CONFLICT(character) DO UPDATE SET
		   times_seen = exposures.times_seen + 1,
		   last_seen_at = excluded.last_seen_at
		 RETURNING times_seen`, ch, now, now,
	).Scan(&seen)
	if err != nil {
		return db.MapError(err, "exposure", ch)
	}
	return nil
}

// RecordEncounters increments each distinct character in chars by exactly
// one, all inside a single transaction. Duplicates collapse to one
// increment; order across characters is unspecified. An empty set is a
// no-op.
func (s *Store) RecordEncounters(chars []string) error {
	distinct := make([]string, 0, len(chars))
	seen := make(map[string]bool, len(chars))
	for _, ch := range chars {
		if seen[ch] {
			continue
		}
		seen[ch] = true
		distinct = append(distinct, ch)
	}
	if len(distinct) == 0 {
		return nil
	}
	for _, ch := range distinct {
		if err := validateChar(ch); err != nil {
			return err
		}
	}

	// Locks are taken in sorted order so overlapping batches cannot
	// deadlock, and held until the transaction commits.
	sort.Strings(distinct)
	for _, ch := range distinct {
		l := s.charLock(ch)
		l.Lock()
		defer l.Unlock()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return db.MapError(err, "exposure", "batch")
	}
	defer tx.Rollback()
	now := time.Now()
	for _, ch := range distinct {
		if err := recordEncounter(tx, ch, now); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return db.MapError(err, "exposure", "batch")
	}
	s.log.Debug().Int("characters", len(distinct)).Msg("recorded encounters")
	return nil
}

// RecordAnswer adds one review attempt for ch. The exposure record is
// created if absent, with zero sightings: answering does not count as an
// encounter.
func (s *Store) RecordAnswer(ch string, correct bool) error {
	if err := validateChar(ch); err != nil {
		return err
	}
	l := s.charLock(ch)
	l.Lock()
	defer l.Unlock()

	correctDelta, incorrectDelta := 0, 0
	if correct {
		correctDelta = 1
	} else {
		incorrectDelta = 1
	}
	now := time.Now()
	var seen int
	err := s.db.QueryRow(
		`INSERT INTO exposures (character, times_seen, times_correct, times_incorrect, first_seen_at, last_seen_at)
		 VALUES (?, 0, ?, ?, ?, ?)
		 ON CONFLICT(character) DO UPDATE SET
		   times_correct = exposures.times_correct + excluded.times_correct,
		   times_incorrect = exposures.times_incorrect + excluded.times_incorrect,
		   last_seen_at = excluded.last_seen_at
		 RETURNING times_seen`, ch, correctDelta, incorrectDelta, now, now,
	).Scan(&seen)
	if err != nil {
		return db.MapError(err, "exposure", ch)
	}
	return nil
}

// TrackedCount returns how many characters have an exposure record.
func (s *Store) TrackedCount() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM exposures`).Scan(&n); err != nil {
		return 0, db.MapError(err, "exposure", "count")
	}
	return n, nil
}

// TotalEncounters returns the sum of all sighting counters.
func (s *Store) TotalEncounters() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COALESCE(SUM(times_seen), 0) FROM exposures`).Scan(&n); err != nil {
		return 0, db.MapError(err, "exposure", "total")
	}
	return n, nil
}
