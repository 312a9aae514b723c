package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vvka-141/pgstage/internal/staging"
	"github.com/vvka-141/pgstage/pkg/pgstage"
)

// rowQuerier is the slice of *pgxpool.Conn the diagnostics need.
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// VerifyService implements the Verifier interface.
type VerifyService struct {
	connectorFactory pgstage.ConnectorFactory
	logger           pgstage.Logger
}

// NewVerifyService creates a VerifyService. It panics on nil dependencies.
func NewVerifyService(connectorFactory pgstage.ConnectorFactory, logger pgstage.Logger) *VerifyService {
	if connectorFactory == nil {
		panic("connectorFactory cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}

	return &VerifyService{
		connectorFactory: connectorFactory,
		logger:           logger,
	}
}

// Verify runs SELECT version() and a row count of config.Table on one
// pooled connection.
//
// A failed count (missing table, missing schema, no privilege) is not an
// error: the report is marked TableMissing and carries a notice. A failed
// version query or a cancelled context returns the partially filled report
// together with the error.
func (s *VerifyService) Verify(ctx context.Context, config pgstage.VerifyConfig) (*pgstage.VerifyReport, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid verify configuration: %w", err)
	}

	table, err := staging.ParseTableName(config.Table)
	if err != nil {
		return nil, err
	}

	if config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.Timeout)
		defer cancel()
	}

	connector, err := s.connectorFactory(config.Connection)
	if err != nil {
		return nil, fmt.Errorf("failed to create connector: %w", err)
	}
	if closer, ok := connector.(io.Closer); ok {
		defer closer.Close()
	}

	pool, err := connector.Connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	defer pool.Close()

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w: %w", pgstage.ErrConnectionFailed, err)
	}
	defer conn.Release()

	return runDiagnostics(ctx, conn, config.Table, table, s.logger)
}

func runDiagnostics(ctx context.Context, q rowQuerier, name string, table pgx.Identifier, logger pgstage.Logger) (*pgstage.VerifyReport, error) {
	report := &pgstage.VerifyReport{Table: name}

	if err := q.QueryRow(ctx, queryServerVersion).Scan(&report.ServerVersion); err != nil {
		return report, fmt.Errorf("version query failed: %w: %w", pgstage.ErrExecutionFailed, err)
	}
	logger.Verbose("Server: %s", report.ServerVersion)

	err := q.QueryRow(ctx, fmt.Sprintf(queryRowCountFmt, table.Sanitize())).Scan(&report.RowCount)
	switch {
	case err == nil:
		logger.Verbose("%s has %d rows", name, report.RowCount)
	case ctx.Err() != nil:
		return report, fmt.Errorf("row count query interrupted: %w", ctx.Err())
	default:
		report.TableMissing = true
		report.Notice = fmt.Sprintf("could not read table %q (it may not exist): %v", name, err)
		if isMissingRelation(err) {
			logger.Verbose("Count failed with a missing relation: %v", err)
		} else {
			logger.Verbose("Count failed: %v", err)
		}
	}

	return report, nil
}

func isMissingRelation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == sqlStateUndefinedTable || pgErr.Code == sqlStateInvalidSchema
}

var _ pgstage.Verifier = (*VerifyService)(nil)
