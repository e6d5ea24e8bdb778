package global

import (
	"fmt"
	"os"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/hashicorp/go-multierror"
)

const (
	EnvTenantId      = "AZURE_TENANT_ID"
	EnvClientId      = "AZURE_CLIENT_ID"
	EnvClientSecret  = "AZURE_CLIENT_SECRET"
	EnvListenAddress = "LISTEN_ADDRESS"
	EnvRunTimeout    = "RUN_TIMEOUT"

	defaultListenAddress = "0.0.0.0:8080"
	defaultRunTimeout    = 2 * time.Minute
)

// Config is built once from the environment at startup and passed down
// explicitly; nothing else reads credentials from ambient state.
type Config struct {
	TenantId     string
	ClientId     string
	ClientSecret string

	// ListenAddress is the host:port the HTTP trigger binds to.
	ListenAddress string

	// RunTimeout bounds one whole reconciliation run, covering every
	// provider and directory call it makes.
	RunTimeout time.Duration
}

// ConfigFromEnv validates all required variables before returning so a
// misconfigured deployment reports every missing value at once.
func ConfigFromEnv() (*Config, error) {
	cfg := &Config{
		ListenAddress: defaultListenAddress,
		RunTimeout:    defaultRunTimeout,
	}

	var result *multierror.Error

	for _, v := range []struct {
		name   string
		target *string
	}{
		{EnvTenantId, &cfg.TenantId},
		{EnvClientId, &cfg.ClientId},
		{EnvClientSecret, &cfg.ClientSecret},
	} {
		value, ok := os.LookupEnv(v.name)
		if !ok || value == "" {
			result = multierror.Append(result, fmt.Errorf("environment variable %s is required", v.name))
			continue
		}

		*v.target = value
	}

	if addr := os.Getenv(EnvListenAddress); addr != "" {
		cfg.ListenAddress = addr
	}

	if raw := os.Getenv(EnvRunTimeout); raw != "" {
		timeout, err := time.ParseDuration(raw)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("invalid %s %q: %w", EnvRunTimeout, raw, err))
		} else {
			cfg.RunTimeout = timeout
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Credential builds the app-registration credential used for both ARM and
// Microsoft Graph calls.
func (c *Config) Credential() (azcore.TokenCredential, error) {
	cred, err := azidentity.NewClientSecretCredential(c.TenantId, c.ClientId, c.ClientSecret, nil)
	if err != nil {
		return nil, fmt.Errorf("could not create a credential from a secret: %w", err)
	}

	return cred, nil
}
