package db

import (
	"errors"
	"testing"

	"github.com/vvka-141/pgstage/pkg/pgstage"
)

func TestResolveConnection_Defaults(t *testing.T) {
	cfg, err := ResolveConnection(`"postgresql://loader:pw@db:5432/warehouse"`, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Host != "db" || cfg.Database != "warehouse" || cfg.Username != "loader" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.SSLMode != "prefer" {
		t.Errorf("SSLMode = %q, want prefer", cfg.SSLMode)
	}
	if cfg.AppName != pgstage.DefaultApplicationName {
		t.Errorf("AppName = %q, want %q", cfg.AppName, pgstage.DefaultApplicationName)
	}
	if cfg.AuthMethod != pgstage.AuthMethodStandard {
		t.Errorf("AuthMethod = %v, want Standard", cfg.AuthMethod)
	}
}

func TestResolveConnection_SSLModePrecedence(t *testing.T) {
	tests := []struct {
		name    string
		connStr string
		env     *EnvVars
		want    string
	}{
		{"url wins", "postgresql://u@h/d?sslmode=require", &EnvVars{PGSSLMODE: "disable"}, "require"},
		{"env fallback", "postgresql://u@h/d", &EnvVars{PGSSLMODE: "disable"}, "disable"},
		{"default", "postgresql://u@h/d", &EnvVars{}, "prefer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ResolveConnection(tt.connStr, nil, tt.env)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.SSLMode != tt.want {
				t.Errorf("SSLMode = %q, want %q", cfg.SSLMode, tt.want)
			}
		})
	}
}

func TestResolveConnection_KeepsExplicitAppName(t *testing.T) {
	cfg, err := ResolveConnection("postgresql://u@h/d?application_name=nightly", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.AppName != "nightly" {
		t.Errorf("AppName = %q, want nightly", cfg.AppName)
	}
}

func TestResolveConnection_Errors(t *testing.T) {
	tests := []struct {
		name    string
		connStr string
		flags   *AuthFlags
		wantErr error
	}{
		{"empty", "", nil, pgstage.ErrInvalidConfig},
		{"garbage", "not a connection string", nil, pgstage.ErrInvalidConfig},
		{"unknown auth", "postgresql://u@h/d", &AuthFlags{Method: "kerberos"}, pgstage.ErrUnsupportedAuthMethod},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveConnection(tt.connStr, tt.flags, nil)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestResolveConnection_AWS(t *testing.T) {
	env := &EnvVars{AWS_REGION: "us-east-1"}

	cfg, err := ResolveConnection("postgresql://iam@db.rds.amazonaws.com/d", &AuthFlags{Method: "aws"}, env)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.AuthMethod != pgstage.AuthMethodAWSIAM || cfg.AWSRegion != "us-east-1" {
		t.Errorf("unexpected config: method=%v region=%q", cfg.AuthMethod, cfg.AWSRegion)
	}

	cfg, err = ResolveConnection("postgresql://iam@db.rds.amazonaws.com/d", &AuthFlags{Method: "aws", AWSRegion: "eu-central-1"}, env)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.AWSRegion != "eu-central-1" {
		t.Errorf("AWSRegion = %q, flag should win over env", cfg.AWSRegion)
	}
}

func TestResolveConnection_Azure(t *testing.T) {
	env := &EnvVars{
		AZURE_TENANT_ID:     "env-tenant",
		AZURE_CLIENT_ID:     "env-client",
		AZURE_CLIENT_SECRET: "env-secret",
	}

	cfg, err := ResolveConnection("postgresql://u@srv.postgres.database.azure.com/d",
		&AuthFlags{Method: "azure", AzureTenantID: "flag-tenant"}, env)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.AuthMethod != pgstage.AuthMethodAzureEntraID {
		t.Errorf("AuthMethod = %v, want Azure", cfg.AuthMethod)
	}
	if cfg.AzureTenantID != "flag-tenant" {
		t.Errorf("AzureTenantID = %q, flag should win", cfg.AzureTenantID)
	}
	if cfg.AzureClientID != "env-client" || cfg.AzureClientSecret != "env-secret" {
		t.Errorf("env values not applied: %+v", cfg)
	}
}

func TestResolveConnection_StandardIgnoresCloudEnv(t *testing.T) {
	env := &EnvVars{AZURE_TENANT_ID: "t", AZURE_CLIENT_ID: "c", AWS_REGION: "r"}

	cfg, err := ResolveConnection("postgresql://u@h/d", nil, env)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.AuthMethod != pgstage.AuthMethodStandard || cfg.AzureTenantID != "" || cfg.AWSRegion != "" {
		t.Errorf("standard auth picked up cloud settings: %+v", cfg)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PGSSLMODE", "verify-full")
	t.Setenv("AWS_REGION", "ap-south-1")
	t.Setenv("AZURE_CLIENT_SECRET", "s3cret")

	env := LoadFromEnvironment()
	if env.PGSSLMODE != "verify-full" || env.AWS_REGION != "ap-south-1" || env.AZURE_CLIENT_SECRET != "s3cret" {
		t.Errorf("unexpected env: %+v", env)
	}
}
