package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type ClientConfig interface {
	GetAPIURL() string
	GetRequestTimeout() time.Duration
	GetRefreshTimeout() time.Duration
	GetLogoutTimeout() time.Duration
}

type Client struct {
	v *viper.Viper
}

var _ ClientConfig = Client{}

// GetAPIURL returns the base URL of the remote API without a trailing slash.
func (c Client) GetAPIURL() string {
	return strings.TrimRight(c.v.GetString(apiURLKey), "/")
}

func (c Client) GetRequestTimeout() time.Duration {
	return c.v.GetDuration(requestTimeoutKey)
}

// GetRefreshTimeout bounds the shared token refresh call. Zero means unbounded.
func (c Client) GetRefreshTimeout() time.Duration {
	return c.v.GetDuration(refreshTimeoutKey)
}

func (c Client) GetLogoutTimeout() time.Duration {
	return c.v.GetDuration(logoutTimeoutKey)
}
