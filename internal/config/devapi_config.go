package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DevAPIConfig configures the local fake API server.
type DevAPIConfig interface {
	GetDevAPIAddr() string
	GetDevAPIAccessTokenTTL() time.Duration
	GetDevAPIUsers() map[string]string
	GetDevAPICookieOnly() bool
}

type DevAPI struct {
	v *viper.Viper
}

var _ DevAPIConfig = DevAPI{}

func (d DevAPI) GetDevAPIAddr() string {
	return d.v.GetString(devAPIAddrKey)
}

func (d DevAPI) GetDevAPIAccessTokenTTL() time.Duration {
	return d.v.GetDuration(devAPIAccessTTLKey)
}

// GetDevAPIUsers parses "name:password" pairs into a map.
func (d DevAPI) GetDevAPIUsers() map[string]string {
	users := make(map[string]string)
	for _, pair := range d.v.GetStringSlice(devAPIUsersKey) {
		name, password, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if ok && name != "" {
			users[name] = password
		}
	}
	return users
}

func (d DevAPI) GetDevAPICookieOnly() bool {
	return d.v.GetBool(devAPICookieOnlyKey)
}
