package config

import (
	"fmt"
	"net/url"

	cterrors "github.com/jrsteele09/campaign-tracker/internal/errors"
)

// Validate checks that the loaded values can build a working client.
func (c mainConfig) Validate() error {
	u, err := url.Parse(c.GetAPIURL())
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: api_url %q must be an absolute http(s) URL", cterrors.ErrInvalidConfig, c.GetAPIURL())
	}
	if c.GetRequestTimeout() < 0 || c.GetRefreshTimeout() < 0 || c.GetLogoutTimeout() < 0 {
		return fmt.Errorf("%w: timeouts must not be negative", cterrors.ErrInvalidConfig)
	}

	switch c.GetTokenStore() {
	case StoreMemory:
	case StoreFile:
		if c.GetTokenFile() == "" {
			return fmt.Errorf("%w: token_file is required for the file token store", cterrors.ErrInvalidConfig)
		}
	case StoreRedis:
		if c.GetRedisAddr() == "" {
			return fmt.Errorf("%w: redis.addr is required for the redis token store", cterrors.ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown token_store %q", cterrors.ErrInvalidConfig, c.GetTokenStore())
	}

	if c.GetProfile() == "" {
		return fmt.Errorf("%w: profile must not be empty", cterrors.ErrInvalidConfig)
	}
	return nil
}
