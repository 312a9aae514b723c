package services

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vvka-141/pgstage/pkg/pgstage"
)

type mockConnector struct {
	pool *pgxpool.Pool
	err  error
}

func (m *mockConnector) Connect(_ context.Context) (*pgxpool.Pool, error) {
	return m.pool, m.err
}

// factoryFor returns a ConnectorFactory that counts its calls.
func factoryFor(c pgstage.Connector, calls *int) pgstage.ConnectorFactory {
	return func(*pgstage.ConnectionConfig) (pgstage.Connector, error) {
		*calls++
		return c, nil
	}
}

// recordingSink remembers what the load pipeline sent it.
type recordingSink struct {
	replaced   int
	appended   int
	columns    []pgstage.Column
	rows       [][]any
	appendErr  error
	failAppend int
}

func (s *recordingSink) Replace(_ context.Context, columns []pgstage.Column, rows [][]any) error {
	if s.appended > 0 {
		return errors.New("replace after append")
	}
	s.replaced++
	s.columns = columns
	s.rows = append(s.rows[:0], rows...)
	return nil
}

func (s *recordingSink) Append(_ context.Context, rows [][]any) error {
	if s.replaced == 0 {
		return errors.New("append before replace")
	}
	if s.failAppend > 0 && s.appended+1 == s.failAppend {
		return s.appendErr
	}
	s.appended++
	s.rows = append(s.rows, rows...)
	return nil
}

// stubRow is a pgx.Row whose Scan copies a fixed value or fails.
type stubRow struct {
	value any
	err   error
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	switch d := dest[0].(type) {
	case *string:
		*d = r.value.(string)
	case *int64:
		*d = r.value.(int64)
	}
	return nil
}

// stubQuerier answers queries in order and records the SQL it saw.
type stubQuerier struct {
	rows    []stubRow
	queries []string
}

func (q *stubQuerier) QueryRow(_ context.Context, sql string, _ ...any) pgx.Row {
	q.queries = append(q.queries, sql)
	row := q.rows[0]
	q.rows = q.rows[1:]
	return row
}
