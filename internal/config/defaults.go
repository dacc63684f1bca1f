package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

const (
	appNameKey        = "app_name"
	envKey            = "env"
	logLevelKey       = "log_level"
	apiURLKey         = "api_url"
	requestTimeoutKey = "request_timeout"
	refreshTimeoutKey = "refresh_timeout"
	logoutTimeoutKey  = "logout_timeout"
	tokenStoreKey     = "token_store"
	tokenFileKey      = "token_file"
	profileKey        = "profile"
	redisAddrKey      = "redis.addr"
	redisPasswordKey  = "redis.password"
	redisDBKey        = "redis.db"
	redisPrefixKey    = "redis.key_prefix"
	redisTTLKey       = "redis.ttl"

	devAPIAddrKey       = "devapi.addr"
	devAPIAccessTTLKey  = "devapi.access_token_ttl"
	devAPIUsersKey      = "devapi.users"
	devAPICookieOnlyKey = "devapi.cookie_only"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault(appNameKey, "Campaign Tracker")
	v.SetDefault(envKey, "DEV")
	v.SetDefault(logLevelKey, "info")

	// Client
	v.SetDefault(apiURLKey, "http://localhost:8080")
	v.SetDefault(requestTimeoutKey, 15*time.Second)
	v.SetDefault(refreshTimeoutKey, 30*time.Second)
	v.SetDefault(logoutTimeoutKey, 5*time.Second)

	// Storage
	v.SetDefault(tokenStoreKey, StoreMemory)
	v.SetDefault(tokenFileKey, defaultTokenFile())
	v.SetDefault(profileKey, "default")
	v.SetDefault(redisAddrKey, "localhost:6379")
	v.SetDefault(redisPasswordKey, "")
	v.SetDefault(redisDBKey, 0)
	v.SetDefault(redisPrefixKey, "campaign")
	v.SetDefault(redisTTLKey, 7*24*time.Hour)

	// Dev API
	v.SetDefault(devAPIAddrKey, ":8080")
	v.SetDefault(devAPIAccessTTLKey, 15*time.Minute)
	v.SetDefault(devAPIUsersKey, []string{"dm:dragons"})
	v.SetDefault(devAPICookieOnlyKey, false)
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "credentials.json"
	}
	return filepath.Join(dir, "campaign", "credentials.json")
}
