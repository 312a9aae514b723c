package db

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vvka-141/pgstage/pkg/pgstage"
)

// Connection pool configuration constants
const (
	// DefaultMaxConns covers one writer plus one spare; loads are sequential.
	DefaultMaxConns = 2

	// DefaultMaxConnIdleTime keeps the connection alive between chunks of a long load.
	DefaultMaxConnIdleTime = 30 * time.Minute
)

func configurePool(poolConfig *pgxpool.Config) {
	poolConfig.MaxConns = DefaultMaxConns
	poolConfig.MinConns = 0
	poolConfig.MaxConnIdleTime = DefaultMaxConnIdleTime
}

// StandardConnector implements the Connector interface for standard
// username/password authentication.
type StandardConnector struct {
	config *pgstage.ConnectionConfig
}

// NewStandardConnector creates a new StandardConnector with the given configuration.
func NewStandardConnector(config *pgstage.ConnectionConfig) *StandardConnector {
	return &StandardConnector{config: config}
}

// Connect establishes a connection pool and pings the server once.
func (c *StandardConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	return openPool(ctx, c.config, BuildConnectionString(c.config))
}

func openPool(ctx context.Context, config *pgstage.ConnectionConfig, connStr string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection config: %w: %w", pgstage.ErrInvalidConfig, err)
	}

	configurePool(poolConfig)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, wrapConnectionError(err, config.Host, config.Port, config.Database)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, wrapConnectionError(err, config.Host, config.Port, config.Database)
	}

	return pool, nil
}

// NewConnector is a factory function that creates the appropriate Connector
// based on the ConnectionConfig's AuthMethod.
func NewConnector(config *pgstage.ConnectionConfig) (pgstage.Connector, error) {
	switch config.AuthMethod {
	case pgstage.AuthMethodStandard:
		return NewStandardConnector(config), nil
	case pgstage.AuthMethodAWSIAM:
		return newAWSConnector(config)
	case pgstage.AuthMethodGoogleIAM:
		return newGoogleConnector(config)
	case pgstage.AuthMethodAzureEntraID:
		return newAzureConnector(config)
	default:
		return nil, fmt.Errorf("unsupported auth method %v: %w", config.AuthMethod, pgstage.ErrUnsupportedAuthMethod)
	}
}

// SQLSTATE codes that get a dedicated hint.
const (
	sqlStateInvalidPassword      = "28P01"
	sqlStateInvalidAuthorization = "28000"
	sqlStateInvalidCatalogName   = "3D000"
	sqlStateTooManyConnections   = "53300"
)

// endpoint formats where a connection was attempted: host:port, a socket
// directory, or a Cloud SQL instance name (port 0).
func endpoint(host string, port int) string {
	if port == 0 || strings.HasPrefix(host, "/") {
		return host
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// connectionHint explains common connection failures in terms of the
// connection URL the user supplied. It returns "" when it has nothing to add.
func connectionHint(err error, host string, port int, database string) string {
	addr := endpoint(host, port)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case sqlStateInvalidPassword, sqlStateInvalidAuthorization:
			return fmt.Sprintf("%s rejected the login to database %q; check the user and password of --connection, $PGSTAGE_DATABASE_URL or $DATABASE_URL", addr, database)
		case sqlStateInvalidCatalogName:
			return fmt.Sprintf("database %q does not exist on %s; create it (createdb %s) or fix the path of the connection URL", database, addr, database)
		case sqlStateTooManyConnections:
			return fmt.Sprintf("%s has no free connection slots; a load needs %d", addr, DefaultMaxConns)
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "connection refused") || strings.Contains(msg, "actively refused"):
		return fmt.Sprintf("nothing accepts connections at %s; check that PostgreSQL is running (pg_isready -h %s -p %d) and the port of the connection URL", addr, host, port)
	case strings.Contains(msg, "no such host"):
		return fmt.Sprintf("host %q does not resolve; check the host of the connection URL", host)
	case errors.Is(err, context.DeadlineExceeded) || strings.Contains(msg, "timeout") || strings.Contains(msg, "timed out"):
		return fmt.Sprintf("no answer from %s in time; raise connect_timeout in the connection URL or check for a firewall dropping packets", addr)
	case strings.Contains(msg, "tls") || strings.Contains(msg, "ssl"):
		return "TLS negotiation failed; set sslmode in the connection URL or $PGSSLMODE (disable, require, verify-full)"
	}
	return ""
}

// wrapConnectionError adds a hint to raw pgx connection errors when one applies.
// The result always matches pgstage.ErrConnectionFailed and the original error.
func wrapConnectionError(err error, host string, port int, database string) error {
	if hint := connectionHint(err, host, port, database); hint != "" {
		return fmt.Errorf("%s: %w: %w", hint, pgstage.ErrConnectionFailed, err)
	}
	return fmt.Errorf("failed to connect to %s: %w: %w", endpoint(host, port), pgstage.ErrConnectionFailed, err)
}
