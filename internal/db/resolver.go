package db

import (
	"fmt"
	"os"

	"github.com/vvka-141/pgstage/pkg/pgstage"
)

// AuthFlags holds the cloud authentication CLI flags.
// Secrets are never accepted as flags; AZURE_CLIENT_SECRET comes from the environment.
type AuthFlags struct {
	Method         string
	AWSRegion      string // Overrides AWS_REGION
	GoogleInstance string
	AzureTenantID  string // Overrides AZURE_TENANT_ID
	AzureClientID  string // Overrides AZURE_CLIENT_ID
}

// EnvVars represents the environment variables consulted while resolving a connection.
type EnvVars struct {
	PGSSLMODE string

	AWS_REGION string

	AZURE_TENANT_ID     string
	AZURE_CLIENT_ID     string
	AZURE_CLIENT_SECRET string
}

// LoadFromEnvironment reads the connection-related environment variables.
func LoadFromEnvironment() *EnvVars {
	return &EnvVars{
		PGSSLMODE:           os.Getenv("PGSSLMODE"),
		AWS_REGION:          os.Getenv("AWS_REGION"),
		AZURE_TENANT_ID:     os.Getenv("AZURE_TENANT_ID"),
		AZURE_CLIENT_ID:     os.Getenv("AZURE_CLIENT_ID"),
		AZURE_CLIENT_SECRET: os.Getenv("AZURE_CLIENT_SECRET"),
	}
}

// ResolveConnection parses connStr and completes it with environment fallbacks
// and the requested authentication method.
//
// sslmode falls back to $PGSSLMODE, then "prefer". application_name defaults
// to "pgstage" unless the connection string sets one. For every auth method
// flags take precedence over environment variables.
func ResolveConnection(connStr string, flags *AuthFlags, env *EnvVars) (*pgstage.ConnectionConfig, error) {
	if flags == nil {
		flags = &AuthFlags{}
	}
	if env == nil {
		env = &EnvVars{}
	}

	if connStr == "" {
		return nil, fmt.Errorf("no database connection configured (set DATABASE_URL or use --connection): %w", pgstage.ErrInvalidConfig)
	}

	cfg, err := ParseConnectionString(connStr)
	if err != nil {
		return nil, fmt.Errorf("invalid connection string: %w: %w", pgstage.ErrInvalidConfig, err)
	}

	if cfg.SSLMode == "" {
		cfg.SSLMode = env.PGSSLMODE
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "prefer"
	}
	if cfg.AppName == "" {
		cfg.AppName = pgstage.DefaultApplicationName
	}

	method, err := pgstage.ParseAuthMethod(flags.Method)
	if err != nil {
		return nil, err
	}
	cfg.AuthMethod = method

	switch method {
	case pgstage.AuthMethodAWSIAM:
		cfg.AWSRegion = firstNonEmpty(flags.AWSRegion, env.AWS_REGION)
	case pgstage.AuthMethodGoogleIAM:
		cfg.GoogleInstance = flags.GoogleInstance
	case pgstage.AuthMethodAzureEntraID:
		cfg.AzureTenantID = firstNonEmpty(flags.AzureTenantID, env.AZURE_TENANT_ID)
		cfg.AzureClientID = firstNonEmpty(flags.AzureClientID, env.AZURE_CLIENT_ID)
		cfg.AzureClientSecret = env.AZURE_CLIENT_SECRET
	}

	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
