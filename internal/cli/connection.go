package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vvka-141/pgstage/internal/config"
	"github.com/vvka-141/pgstage/internal/db"
	"github.com/vvka-141/pgstage/pkg/pgstage"
)

// connFlagValues holds the flags shared by load and verify.
type connFlagValues struct {
	connection     string
	envFile        string
	configPath     string
	auth           string
	awsRegion      string
	googleInstance string
	azureTenantID  string
	azureClientID  string
}

func registerConnectionFlags(cmd *cobra.Command, f *connFlagValues) {
	cmd.Flags().StringVar(&f.connection, "connection", "",
		"PostgreSQL connection string (URI, libpq key=value or ADO.NET format).\n"+
			"Precedence: --connection > $PGSTAGE_DATABASE_URL > $DATABASE_URL > pgstage.yaml")
	cmd.Flags().StringVar(&f.envFile, "env-file", config.DefaultEnvFile,
		"File of KEY=VALUE pairs loaded into the environment (missing file is ignored).\n"+
			"Variables already set in the environment win")
	cmd.Flags().StringVar(&f.configPath, "config", "",
		"Path to pgstage.yaml (default: ./pgstage.yaml when present)")

	cmd.Flags().StringVar(&f.auth, "auth", "standard",
		"Authentication method: standard|aws|azure|google")
	cmd.Flags().StringVar(&f.awsRegion, "aws-region", "",
		"AWS region for RDS IAM authentication (overrides $AWS_REGION)")
	cmd.Flags().StringVar(&f.googleInstance, "google-instance", "",
		"Cloud SQL instance connection name (project:region:instance)")
	cmd.Flags().StringVar(&f.azureTenantID, "azure-tenant-id", "",
		"Azure AD tenant ID (overrides $AZURE_TENANT_ID)")
	cmd.Flags().StringVar(&f.azureClientID, "azure-client-id", "",
		"Azure AD client ID (overrides $AZURE_CLIENT_ID)")

	_ = cmd.RegisterFlagCompletionFunc("auth", completeFrom(authMethods))
}

// loadProjectConfig reads pgstage.yaml. A missing default file is not an
// error; a missing file named with --config is.
func loadProjectConfig(path string) (*config.ProjectConfig, error) {
	explicit := path != ""
	if !explicit {
		path = config.ConfigFileName
	}

	cfg, err := config.Load(path)
	if errors.Is(err, config.ErrConfigNotFound) && !explicit {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w: %w", path, pgstage.ErrInvalidConfig, err)
	}
	return cfg, nil
}

// connectionString picks the raw connection string by precedence:
// flag, then $PGSTAGE_DATABASE_URL, then $DATABASE_URL, then pgstage.yaml.
func connectionString(flag string, projectCfg *config.ProjectConfig) string {
	if s := config.NormalizeDatabaseURL(flag); s != "" {
		return s
	}
	if s := config.DatabaseURLFromEnv(); s != "" {
		return s
	}
	if projectCfg != nil {
		return config.NormalizeDatabaseURL(projectCfg.DatabaseURL)
	}
	return ""
}

// prepareEnvironment loads the env file and the project config, in that order.
func prepareEnvironment(f *connFlagValues) (*config.ProjectConfig, error) {
	if err := config.LoadEnvFile(f.envFile); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w: %w", f.envFile, pgstage.ErrInvalidConfig, err)
	}
	return loadProjectConfig(f.configPath)
}

// resolveConnection turns the connection flags into a ConnectionConfig.
func resolveConnection(f *connFlagValues, projectCfg *config.ProjectConfig) (*pgstage.ConnectionConfig, error) {
	authFlags := &db.AuthFlags{
		Method:         f.auth,
		AWSRegion:      f.awsRegion,
		GoogleInstance: f.googleInstance,
		AzureTenantID:  f.azureTenantID,
		AzureClientID:  f.azureClientID,
	}
	return db.ResolveConnection(connectionString(f.connection, projectCfg), authFlags, db.LoadFromEnvironment())
}
