package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/vvka-141/pgstage/pkg/pgstage"
)

// tokenExpiryWarning is the remaining lifetime below which a fresh token is reported.
const tokenExpiryWarning = 5 * time.Minute

// TokenBasedConnector implements the Connector interface for cloud providers
// that authenticate via short-lived tokens (AWS IAM, Azure Entra ID).
// The token is acquired from a TokenProvider and used as the PostgreSQL password.
type TokenBasedConnector struct {
	config        *pgstage.ConnectionConfig
	tokenProvider TokenProvider
	providerName  string
}

// NewTokenBasedConnector creates a connector that uses a TokenProvider for authentication.
// providerName is used in error and warning messages (e.g., "AWS IAM", "Azure").
func NewTokenBasedConnector(config *pgstage.ConnectionConfig, tokenProvider TokenProvider, providerName string) *TokenBasedConnector {
	return &TokenBasedConnector{
		config:        config,
		tokenProvider: tokenProvider,
		providerName:  providerName,
	}
}

func (c *TokenBasedConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	token, expiresOn, err := c.tokenProvider.GetToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire %s token: %w: %w", c.providerName, pgstage.ErrConnectionFailed, err)
	}

	if remaining := time.Until(expiresOn); remaining < tokenExpiryWarning {
		log.Warn().
			Str("provider", c.tokenProvider.String()).
			Dur("expires_in", remaining.Round(time.Second)).
			Msg("database token expires soon")
	}

	configWithToken := *c.config
	configWithToken.Password = token

	return openPool(ctx, c.config, BuildConnectionString(&configWithToken))
}

func newAWSConnector(config *pgstage.ConnectionConfig) (pgstage.Connector, error) {
	endpoint := fmt.Sprintf("%s:%d", config.Host, config.Port)
	provider, err := NewAWSIAMTokenProvider(endpoint, config.AWSRegion, config.Username)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", pgstage.ErrInvalidConfig, err)
	}
	return NewTokenBasedConnector(config, provider, "AWS IAM"), nil
}

func newAzureConnector(config *pgstage.ConnectionConfig) (pgstage.Connector, error) {
	var (
		provider TokenProvider
		err      error
	)
	if config.AzureTenantID != "" && config.AzureClientID != "" && config.AzureClientSecret != "" {
		provider, err = NewAzureServicePrincipalProvider(config.AzureTenantID, config.AzureClientID, config.AzureClientSecret)
	} else {
		provider, err = NewAzureDefaultCredentialProvider()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", pgstage.ErrInvalidConfig, err)
	}
	return NewTokenBasedConnector(config, provider, "Azure"), nil
}
