package pgstage

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LoadMode selects how chunks are written to the staging table.
type LoadMode string

const (
	// LoadModeInsert writes each chunk with multi-row parameterised INSERT statements.
	LoadModeInsert LoadMode = "insert"

	// LoadModeCopy writes each chunk with COPY FROM STDIN.
	LoadModeCopy LoadMode = "copy"
)

// loadModeAliases maps accepted spellings to their canonical mode.
// "pandas" is kept for scripts written against the earlier loader.
var loadModeAliases = map[string]LoadMode{
	"insert": LoadModeInsert,
	"multi":  LoadModeInsert,
	"pandas": LoadModeInsert,
	"copy":   LoadModeCopy,
}

// ParseLoadMode resolves a mode name (case-insensitive, aliases allowed).
func ParseLoadMode(s string) (LoadMode, error) {
	mode, ok := loadModeAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("unknown load mode %q (expected insert, copy or pandas): %w", s, ErrInvalidConfig)
	}
	return mode, nil
}

// LoadConfig contains all parameters needed for a load operation.
type LoadConfig struct {
	// CSVPath is the file to load.
	CSVPath string

	// Table is the target table, optionally schema-qualified ("raw.staging").
	Table string

	// Mode selects the write strategy.
	Mode LoadMode

	// ChunkSize is the number of data rows read and written per chunk.
	ChunkSize int

	// Delimiter is the CSV field separator.
	Delimiter rune

	// Encoding is the CSV text encoding name (WHATWG label, e.g. "utf-8", "latin1", "shift_jis").
	Encoding string

	// StrictQuotes rejects bare and unterminated quotes instead of keeping
	// them as text.
	StrictQuotes bool

	// Connection is the resolved database connection.
	Connection *ConnectionConfig

	// Timeout is the global timeout for the entire load.
	Timeout time.Duration

	// Verbose enables detailed logging
	Verbose bool
}

// Validate checks if the LoadConfig has all required fields and valid values.
// It returns a multi-error if multiple validation failures occur.
func (c *LoadConfig) Validate() error {
	var errs []error

	if c.CSVPath == "" {
		errs = append(errs, fmt.Errorf("CSVPath is required: %w", ErrInvalidConfig))
	}

	if strings.TrimSpace(c.Table) == "" {
		errs = append(errs, fmt.Errorf("Table is required: %w", ErrInvalidConfig))
	}

	if c.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("ChunkSize must be positive, got %d: %w", c.ChunkSize, ErrInvalidConfig))
	}

	if c.Mode != LoadModeInsert && c.Mode != LoadModeCopy {
		errs = append(errs, fmt.Errorf("unknown load mode %q: %w", c.Mode, ErrInvalidConfig))
	}

	if c.Connection == nil {
		errs = append(errs, fmt.Errorf("Connection is required: %w", ErrInvalidConfig))
	}

	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout cannot be negative: %w", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// VerifyConfig contains all parameters needed for a verification run.
type VerifyConfig struct {
	// Table is the table whose rows are counted.
	Table string

	// Connection is the resolved database connection.
	Connection *ConnectionConfig

	// Timeout bounds both queries.
	Timeout time.Duration

	// Verbose enables detailed logging
	Verbose bool
}

// Validate checks if the VerifyConfig has all required fields and valid values.
func (c *VerifyConfig) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Table) == "" {
		errs = append(errs, fmt.Errorf("Table is required: %w", ErrInvalidConfig))
	}

	if c.Connection == nil {
		errs = append(errs, fmt.Errorf("Connection is required: %w", ErrInvalidConfig))
	}

	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout cannot be negative: %w", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// ColumnType is the SQL type chosen for a CSV column.
type ColumnType string

const (
	ColumnBigInt  ColumnType = "BIGINT"
	ColumnDouble  ColumnType = "DOUBLE PRECISION"
	ColumnBoolean ColumnType = "BOOLEAN"
	ColumnText    ColumnType = "TEXT"
)

// Column is one column of the staging table.
type Column struct {
	Name string
	Type ColumnType
}

// LoadResult summarises a completed load.
type LoadResult struct {
	RunID   uuid.UUID
	CSVPath string
	Table   string
	Mode    LoadMode
	Columns []Column

	// Rows is the number of data rows written.
	Rows int64

	// Chunks is the number of chunks written, the replace chunk included.
	Chunks int

	// SourceSHA256 is the hex digest of the raw CSV bytes consumed.
	SourceSHA256 string
	SourceBytes  int64

	Elapsed time.Duration
}

// VerifyReport holds the outcome of the diagnostic queries.
type VerifyReport struct {
	ServerVersion string
	Table         string
	RowCount      int64

	// TableMissing is set when the count query failed, typically because the
	// table or its schema does not exist. Notice then carries the message.
	TableMissing bool
	Notice       string
}

// ConnectionConfig represents parsed connection parameters.
type ConnectionConfig struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string

	// AuthMethod indicates the authentication mechanism to use
	AuthMethod AuthMethod

	// Additional connection parameters
	AppName          string
	ConnectTimeout   time.Duration
	AdditionalParams map[string]string

	// AWS RDS IAM authentication (AuthMethodAWSIAM)
	AWSRegion string

	// Google Cloud SQL instance connection name, project:region:instance (AuthMethodGoogleIAM)
	GoogleInstance string

	// Azure Entra ID authentication parameters (used when AuthMethod is AuthMethodAzureEntraID)
	// If all three are provided, Service Principal authentication is used.
	// Otherwise the DefaultAzureCredential chain is used.
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string
}

// AuthMethod represents the type of authentication to use.
type AuthMethod int

const (
	AuthMethodStandard     AuthMethod = iota // Username/Password
	AuthMethodAWSIAM                         // AWS IAM Database Authentication
	AuthMethodGoogleIAM                      // Google Cloud SQL IAM
	AuthMethodAzureEntraID                   // Azure Active Directory (Entra ID)
)

// String returns a human-readable string representation of the AuthMethod.
func (a AuthMethod) String() string {
	switch a {
	case AuthMethodStandard:
		return "Standard"
	case AuthMethodAWSIAM:
		return "AWS IAM"
	case AuthMethodGoogleIAM:
		return "Google IAM"
	case AuthMethodAzureEntraID:
		return "Azure Entra ID"
	default:
		return fmt.Sprintf("Unknown(%d)", a)
	}
}

// IsValid returns true if the AuthMethod is a valid, defined value.
func (a AuthMethod) IsValid() bool {
	return a >= AuthMethodStandard && a <= AuthMethodAzureEntraID
}

// ParseAuthMethod resolves the --auth flag value.
func ParseAuthMethod(s string) (AuthMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "standard", "password":
		return AuthMethodStandard, nil
	case "aws", "aws-iam":
		return AuthMethodAWSIAM, nil
	case "google", "gcp", "google-iam":
		return AuthMethodGoogleIAM, nil
	case "azure", "entra":
		return AuthMethodAzureEntraID, nil
	default:
		return 0, fmt.Errorf("auth method %q: %w", s, ErrUnsupportedAuthMethod)
	}
}
