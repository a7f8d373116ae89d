// Package history archives generated captions in a local SQLite database.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// DefaultRecent is how many entries Recent returns when limit is not positive.
const DefaultRecent = 20

// Entry is one generated caption and the description it came from.
type Entry struct {
	ID                 string
	CreatedAt          time.Time
	Transcription      string
	Caption            string
	MissingInformation []string
	FollowUpQuestions  []string
}

// Store is the caption archive.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS captions (
	id TEXT PRIMARY KEY,
	createdAt REAL NOT NULL,
	transcription TEXT NOT NULL,
	caption TEXT NOT NULL,
	missingInformation TEXT NOT NULL DEFAULT '[]',
	followUpQuestions TEXT NOT NULL DEFAULT '[]'
);
CREATE INDEX IF NOT EXISTS captions_created ON captions(createdAt DESC);
`

// Open opens (creating if needed) the archive at path.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping history database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate history database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores e. A missing ID or timestamp is filled in.
func (s *Store) Save(ctx context.Context, e Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	missing, err := encodeList(e.MissingInformation)
	if err != nil {
		return err
	}
	followUps, err := encodeList(e.FollowUpQuestions)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO captions (id, createdAt, transcription, caption, missingInformation, followUpQuestions)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			transcription = excluded.transcription,
			caption = excluded.caption,
			missingInformation = excluded.missingInformation,
			followUpQuestions = excluded.followUpQuestions
	`, e.ID, unixFromTime(e.CreatedAt), e.Transcription, e.Caption, missing, followUps)
	if err != nil {
		return fmt.Errorf("failed to save caption: %w", err)
	}

	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultRecent
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, createdAt, transcription, caption, missingInformation, followUpQuestions
		FROM captions
		ORDER BY createdAt DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query captions: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var createdAt float64
		var missing, followUps string
		if err := rows.Scan(&e.ID, &createdAt, &e.Transcription, &e.Caption, &missing, &followUps); err != nil {
			return nil, fmt.Errorf("failed to scan caption: %w", err)
		}

		e.CreatedAt = timeFromUnix(createdAt)
		if e.MissingInformation, err = decodeList(missing); err != nil {
			return nil, err
		}
		if e.FollowUpQuestions, err = decodeList(followUps); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Get returns one entry, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, createdAt, transcription, caption, missingInformation, followUpQuestions
		FROM captions WHERE id = ?
	`, id)

	var e Entry
	var createdAt float64
	var missing, followUps string
	if err := row.Scan(&e.ID, &createdAt, &e.Transcription, &e.Caption, &missing, &followUps); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan caption: %w", err)
	}

	var err error
	e.CreatedAt = timeFromUnix(createdAt)
	if e.MissingInformation, err = decodeList(missing); err != nil {
		return nil, err
	}
	if e.FollowUpQuestions, err = decodeList(followUps); err != nil {
		return nil, err
	}

	return &e, nil
}

// ErrNotFound is returned by Get for an unknown id.
var ErrNotFound = errors.New("caption not found")

func encodeList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}

	raw, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("failed to encode list: %w", err)
	}

	return string(raw), nil
}

func decodeList(raw string) ([]string, error) {
	items := []string{}
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("failed to decode list: %w", err)
	}

	return items, nil
}

func unixFromTime(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

func timeFromUnix(f float64) time.Time {
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(frac*float64(time.Second)))
}
