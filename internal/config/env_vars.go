package config

import (
	"strings"

	"github.com/spf13/viper"
)

type EnvVars struct {
	v *viper.Viper
}

func (e EnvVars) GetAppName() string {
	return e.v.GetString(appNameKey)
}

// GetEnv returns the upper-cased environment name, "DEV" by default.
func (e EnvVars) GetEnv() string {
	env := strings.ToUpper(e.v.GetString(envKey))
	if env == "" {
		return "DEV"
	}
	return env
}

func (e EnvVars) GetLogLevel() string {
	return e.v.GetString(logLevelKey)
}
