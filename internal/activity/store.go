package activity

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

type Store struct {
	db  *sql.DB
	now func() time.Time
}

type Option func(*Store)

// WithClock replaces the wall clock used for window cutoffs and observedAt defaults.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func NewStore(database *sql.DB, opts ...Option) *Store {
	s := &Store{
		db:  database,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Upsert appends or replaces records keyed by (id, actor) in one transaction.
func (s *Store) Upsert(ctx context.Context, records []Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	observed := s.now().UTC()
	normalized := make([]Record, 0, len(records))
	for _, r := range records {
		r = normalize(r, observed)
		if err := r.Validate(); err != nil {
			return 0, fmt.Errorf("invalid record: %w", err)
		}
		normalized = append(normalized, r)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO records
			(id, actor, content, ts_micros, kind, in_reply_to, engagement, observed_micros)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, r := range normalized {
		engagement, err := encodeEngagement(r.Engagement)
		if err != nil {
			return 0, fmt.Errorf("failed to encode engagement for %s: %w", r.ID, err)
		}
		if _, err := stmt.ExecContext(ctx,
			r.ID,
			r.Actor,
			r.Content,
			r.Timestamp.UnixMicro(),
			string(r.Kind),
			nullIfEmpty(r.InReplyTo),
			engagement,
			r.ObservedAt.UnixMicro(),
		); err != nil {
			return 0, fmt.Errorf("failed to store record %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit records: %w", err)
	}

	return len(normalized), nil
}

// GetRecords returns records for actorHandle with timestamps in
// (now - hoursBack, now], newest first.
func (s *Store) GetRecords(ctx context.Context, actorHandle string, hoursBack int) ([]Record, error) {
	now := s.now().UTC()
	cutoff := now.Add(-time.Duration(hoursBack) * time.Hour)

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, actor, COALESCE(content, ''), ts_micros, kind,
			COALESCE(in_reply_to, ''), COALESCE(engagement, ''), observed_micros
		FROM records
		WHERE actor = ?
		  AND ts_micros > ?
		  AND ts_micros <= ?
		ORDER BY ts_micros DESC, id ASC
	`, actorHandle, cutoff.UnixMicro(), now.UnixMicro())
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			r              Record
			kind           string
			engagement     string
			tsMicros       int64
			observedMicros int64
		)
		if err := rows.Scan(&r.ID, &r.Actor, &r.Content, &tsMicros, &kind, &r.InReplyTo, &engagement, &observedMicros); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		r.Kind = Kind(kind)
		r.Timestamp = time.UnixMicro(tsMicros).UTC()
		r.ObservedAt = time.UnixMicro(observedMicros).UTC()
		r.Engagement = decodeEngagement(engagement)
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return records, nil
}

type ImportResult struct {
	Imported int
	Skipped  int
}

// ImportJSONL reads newline-delimited JSON records through DuckDB and upserts
// them. Lines that cannot be turned into a valid record are skipped.
func (s *Store) ImportJSONL(ctx context.Context, path string) (ImportResult, error) {
	query := fmt.Sprintf(`
		SELECT
			COALESCE(CAST(id AS VARCHAR), '') AS id,
			COALESCE(CAST(actor AS VARCHAR), '') AS actor,
			COALESCE(CAST(content AS VARCHAR), '') AS content,
			COALESCE(CAST("timestamp" AS VARCHAR), '') AS ts,
			COALESCE(CAST(kind AS VARCHAR), '') AS kind,
			COALESCE(CAST("inReplyTo" AS VARCHAR), '') AS in_reply_to,
			COALESCE(CAST(engagement AS VARCHAR), '') AS engagement
		FROM read_json('%s',
			format = 'newline_delimited',
			ignore_errors = true,
			columns = {
				'id': 'VARCHAR',
				'actor': 'VARCHAR',
				'content': 'VARCHAR',
				'timestamp': 'VARCHAR',
				'kind': 'VARCHAR',
				'inReplyTo': 'VARCHAR',
				'engagement': 'JSON'
			}
		)
	`, strings.ReplaceAll(path, "'", "''"))

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var (
		result  ImportResult
		records []Record
	)
	for rows.Next() {
		var id, actor, content, ts, kind, inReplyTo, engagement string
		if err := rows.Scan(&id, &actor, &content, &ts, &kind, &inReplyTo, &engagement); err != nil {
			result.Skipped++
			continue
		}

		timestamp, err := ParseTimestamp(ts)
		if err != nil {
			result.Skipped++
			continue
		}

		r := Record{
			ID:         id,
			Actor:      actor,
			Content:    content,
			Timestamp:  timestamp,
			Kind:       Kind(kind),
			InReplyTo:  inReplyTo,
			Engagement: decodeEngagement(engagement),
		}
		if err := normalize(r, s.now().UTC()).Validate(); err != nil {
			result.Skipped++
			continue
		}
		records = append(records, r)
	}
	iterErr := rows.Err()
	rows.Close()
	if iterErr != nil {
		return result, fmt.Errorf("rows iteration error: %w", iterErr)
	}

	n, err := s.Upsert(ctx, records)
	if err != nil {
		return result, err
	}
	result.Imported = n

	return result, nil
}

// RecordSession stores a collection or ingestion session.
func (s *Store) RecordSession(ctx context.Context, session Session) error {
	accounts, err := json.Marshal(nonNil(session.AccountsChecked))
	if err != nil {
		return fmt.Errorf("failed to encode accounts: %w", err)
	}
	errs, err := json.Marshal(nonNil(session.Errors))
	if err != nil {
		return fmt.Errorf("failed to encode errors: %w", err)
	}

	var ended interface{}
	if session.EndedAt != nil {
		ended = session.EndedAt.UnixMicro()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO monitoring_sessions
			(session_id, started_micros, ended_micros, accounts_checked, records_found, errors)
		VALUES (?, ?, ?, ?, ?, ?)
	`, session.ID, session.StartedAt.UnixMicro(), ended, string(accounts), session.RecordsFound, string(errs))
	if err != nil {
		return fmt.Errorf("failed to record session: %w", err)
	}
	return nil
}

// LatestSession returns the most recently started session, or nil when none exist.
func (s *Store) LatestSession(ctx context.Context) (*Session, error) {
	var (
		session        Session
		startedMicros  int64
		endedMicros    sql.NullInt64
		accounts, errs sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT session_id, started_micros, ended_micros, accounts_checked, records_found, errors
		FROM monitoring_sessions
		ORDER BY started_micros DESC
		LIMIT 1
	`).Scan(&session.ID, &startedMicros, &endedMicros, &accounts, &session.RecordsFound, &errs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest session: %w", err)
	}

	session.StartedAt = time.UnixMicro(startedMicros).UTC()
	if endedMicros.Valid {
		ended := time.UnixMicro(endedMicros.Int64).UTC()
		session.EndedAt = &ended
	}
	session.AccountsChecked = decodeStrings(accounts.String)
	session.Errors = decodeStrings(errs.String)

	return &session, nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05-07",
	"2006-01-02 15:04:05.999999-07",
}

// ParseTimestamp accepts RFC 3339 and the DuckDB text forms. Values without an
// offset are taken as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func normalize(r Record, observed time.Time) Record {
	if r.Kind == "" {
		r.Kind = KindOriginal
	}
	if r.ObservedAt.IsZero() {
		r.ObservedAt = observed
	}
	r.Timestamp = r.Timestamp.UTC()
	r.ObservedAt = r.ObservedAt.UTC()
	return r
}

func encodeEngagement(e Engagement) (interface{}, error) {
	if len(e) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func decodeEngagement(s string) Engagement {
	if s == "" || s == "null" {
		return nil
	}
	var e Engagement
	if err := json.Unmarshal([]byte(s), &e); err != nil {
		return nil
	}
	if len(e) == 0 {
		return nil
	}
	return e
}

func decodeStrings(s string) []string {
	out := []string{}
	if s == "" {
		return out
	}
	_ = json.Unmarshal([]byte(s), &out)
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
