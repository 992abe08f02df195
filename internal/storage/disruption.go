// Package storage implements the postgres-backed stores for disruption
// records and subscriber rows. Table names come from configuration so one
// database can host several feeds.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/samber/lo"

	"github.com/jhrabal/linewatch/internal/model"
)

type DisruptionStorage struct {
	db    *sqlx.DB
	table string
}

func NewDisruptionStorage(db *sqlx.DB, table string) *DisruptionStorage {
	return &DisruptionStorage{db: db, table: pq.QuoteIdentifier(table)}
}

type dbDisruption struct {
	ID        string         `db:"id"`
	Active    bool           `db:"active"`
	StartTime sql.NullTime   `db:"start_time"`
	EndTime   sql.NullTime   `db:"end_time"`
	Lines     pq.StringArray `db:"lines"`
	Message   string         `db:"message"`
	URL       string         `db:"url"`
}

// All returns the full stored snapshot keyed by disruption id. History is
// never deleted, closed records come back with active=false.
func (s *DisruptionStorage) All(ctx context.Context) (map[string]model.Disruption, error) {
	var rows []dbDisruption
	query := fmt.Sprintf(
		`SELECT id, active, start_time, end_time, lines, message, url FROM %s`,
		s.table,
	)
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}

	return lo.SliceToMap(rows, func(row dbDisruption) (string, model.Disruption) {
		return row.ID, rowToDisruption(row)
	}), nil
}

// Upsert writes one record, inserting or overwriting by id. Each record's
// write is independent, there is no cross-record transaction.
func (s *DisruptionStorage) Upsert(ctx context.Context, d model.Disruption) error {
	query := fmt.Sprintf(
		`INSERT INTO %s (id, active, start_time, end_time, lines, message, url)
		 VALUES (:id, :active, :start_time, :end_time, :lines, :message, :url)
		 ON CONFLICT (id) DO UPDATE SET
			active = EXCLUDED.active,
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			lines = EXCLUDED.lines,
			message = EXCLUDED.message,
			url = EXCLUDED.url`,
		s.table,
	)
	if _, err := s.db.NamedExecContext(ctx, query, disruptionToRow(d)); err != nil {
		return err
	}
	return nil
}

func rowToDisruption(row dbDisruption) model.Disruption {
	return model.Disruption{
		ID:        row.ID,
		Active:    row.Active,
		StartTime: nullTimePtr(row.StartTime),
		EndTime:   nullTimePtr(row.EndTime),
		Lines:     row.Lines,
		Message:   row.Message,
		URL:       row.URL,
	}
}

func disruptionToRow(d model.Disruption) dbDisruption {
	return dbDisruption{
		ID:        d.ID,
		Active:    d.Active,
		StartTime: ptrNullTime(d.StartTime),
		EndTime:   ptrNullTime(d.EndTime),
		Lines:     d.Lines,
		Message:   d.Message,
		URL:       d.URL,
	}
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func ptrNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
