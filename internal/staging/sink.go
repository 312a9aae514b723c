package staging

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/vvka-141/pgstage/pkg/pgstage"
)

// Sink receives converted rows for one table.
type Sink interface {
	// Replace drops the table if it exists, creates it from columns and
	// writes rows, all in one transaction.
	Replace(ctx context.Context, columns []pgstage.Column, rows [][]any) error

	// Append writes rows into the table created by Replace.
	Append(ctx context.Context, rows [][]any) error
}

// TxBeginner starts transactions. *pgxpool.Pool and *pgx.Conn satisfy it.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// ErrNotReplaced is returned by Append when Replace has not succeeded yet.
var ErrNotReplaced = errors.New("append before replace")

type rowWriter func(ctx context.Context, tx pgx.Tx, table pgx.Identifier, columns []pgstage.Column, rows [][]any) error

// PostgresSink writes into Postgres using the writer selected by its LoadMode.
type PostgresSink struct {
	db      TxBeginner
	table   pgx.Identifier
	mode    pgstage.LoadMode
	write   rowWriter
	columns []pgstage.Column
}

// NewPostgresSink creates a sink for table using mode.
func NewPostgresSink(db TxBeginner, table string, mode pgstage.LoadMode) (*PostgresSink, error) {
	ident, err := ParseTableName(table)
	if err != nil {
		return nil, err
	}

	var write rowWriter
	switch mode {
	case pgstage.LoadModeInsert:
		write = insertRows
	case pgstage.LoadModeCopy:
		write = copyRows
	default:
		return nil, fmt.Errorf("unknown load mode %q: %w", mode, pgstage.ErrInvalidConfig)
	}

	return &PostgresSink{db: db, table: ident, mode: mode, write: write}, nil
}

func (s *PostgresSink) Replace(ctx context.Context, columns []pgstage.Column, rows [][]any) error {
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, DropTableSQL(s.table)); err != nil {
			return fmt.Errorf("drop %s: %w", s.table.Sanitize(), err)
		}
		if _, err := tx.Exec(ctx, CreateTableSQL(s.table, columns)); err != nil {
			return fmt.Errorf("create %s: %w", s.table.Sanitize(), err)
		}
		return s.write(ctx, tx, s.table, columns, rows)
	})
	if err != nil {
		return fmt.Errorf("replace table: %w: %w", pgstage.ErrExecutionFailed, err)
	}

	s.columns = columns
	return nil
}

func (s *PostgresSink) Append(ctx context.Context, rows [][]any) error {
	if s.columns == nil {
		return ErrNotReplaced
	}

	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		return s.write(ctx, tx, s.table, s.columns, rows)
	})
	if err != nil {
		return fmt.Errorf("append to table: %w: %w", pgstage.ErrExecutionFailed, err)
	}
	return nil
}

func insertRows(ctx context.Context, tx pgx.Tx, table pgx.Identifier, columns []pgstage.Column, rows [][]any) error {
	for _, stmt := range InsertStatements(table, columns, rows) {
		if _, err := tx.Exec(ctx, stmt.SQL, stmt.Args...); err != nil {
			return fmt.Errorf("insert into %s: %w", table.Sanitize(), err)
		}
	}
	return nil
}

func copyRows(ctx context.Context, tx pgx.Tx, table pgx.Identifier, columns []pgstage.Column, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	n, err := tx.CopyFrom(ctx, table, columnNames(columns), pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("copy into %s: %w", table.Sanitize(), err)
	}
	if n != int64(len(rows)) {
		return fmt.Errorf("copy into %s: wrote %d of %d rows", table.Sanitize(), n, len(rows))
	}
	return nil
}

var _ Sink = (*PostgresSink)(nil)
