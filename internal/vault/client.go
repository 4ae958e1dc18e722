// Package vault resolves the Bitget API credentials. When Vault is
// enabled the key material lives at a single KV v2 path; otherwise the
// environment provides it. The bot is single-tenant, one credential
// set per process.
package vault

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/vault/api"

	"bitget-trading-bot/internal/bitget"
)

// Config holds the Vault connection settings.
type Config struct {
	Enabled    bool   `json:"enabled"`
	Address    string `json:"address"`
	Token      string `json:"token"`
	SecretPath string `json:"secret_path"` // KV v2 data path, e.g. secret/data/bitget
	TLSEnabled bool   `json:"tls_enabled"`
	CACert     string `json:"ca_cert"`
}

// Client wraps the HashiCorp Vault client
type Client struct {
	client *api.Client
	config Config
}

// NewClient creates a new Vault client. With Vault disabled the client
// only reads the environment.
func NewClient(cfg Config) (*Client, error) {
	if !cfg.Enabled {
		return &Client{config: cfg}, nil
	}

	vaultConfig := api.DefaultConfig()
	vaultConfig.Address = cfg.Address

	if cfg.TLSEnabled && cfg.CACert != "" {
		tlsConfig := &api.TLSConfig{CACert: cfg.CACert}
		if err := vaultConfig.ConfigureTLS(tlsConfig); err != nil {
			return nil, fmt.Errorf("failed to configure TLS: %w", err)
		}
	}

	client, err := api.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	client.SetToken(cfg.Token)

	return &Client{client: client, config: cfg}, nil
}

// Credentials resolves the exchange credentials: Vault when enabled,
// environment otherwise. Missing fields come back empty; the caller
// decides whether that is fatal.
func (c *Client) Credentials(ctx context.Context) (bitget.Credentials, error) {
	if !c.config.Enabled {
		return credentialsFromEnv(), nil
	}

	secret, err := c.client.Logical().ReadWithContext(ctx, c.config.SecretPath)
	if err != nil {
		return bitget.Credentials{}, fmt.Errorf("failed to read credentials from vault: %w", err)
	}
	if secret == nil || secret.Data == nil {
		return bitget.Credentials{}, fmt.Errorf("no credentials at %s", c.config.SecretPath)
	}

	// KV v2 nests the payload under "data".
	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		data = secret.Data
	}

	creds := bitget.Credentials{
		APIKey:     stringField(data, "api_key"),
		SecretKey:  stringField(data, "secret_key"),
		Passphrase: stringField(data, "passphrase"),
	}
	if creds.APIKey == "" || creds.SecretKey == "" {
		return bitget.Credentials{}, fmt.Errorf("incomplete credentials at %s", c.config.SecretPath)
	}
	return creds, nil
}

func credentialsFromEnv() bitget.Credentials {
	return bitget.Credentials{
		APIKey:     os.Getenv("BITGET_API_KEY"),
		SecretKey:  os.Getenv("BITGET_SECRET_KEY"),
		Passphrase: os.Getenv("BITGET_PASSPHRASE"),
	}
}

func stringField(data map[string]interface{}, key string) string {
	if v, ok := data[key].(string); ok {
		return v
	}
	return ""
}
