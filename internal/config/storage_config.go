package config

import (
	"time"

	"github.com/spf13/viper"
)

// Token store kinds.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

type StorageConfig interface {
	GetTokenStore() string
	GetTokenFile() string
	GetProfile() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetRedisKeyPrefix() string
	GetRedisTTL() time.Duration
}

type Storage struct {
	v *viper.Viper
}

var _ StorageConfig = Storage{}

func (s Storage) GetTokenStore() string {
	return s.v.GetString(tokenStoreKey)
}

func (s Storage) GetTokenFile() string {
	return s.v.GetString(tokenFileKey)
}

func (s Storage) GetProfile() string {
	return s.v.GetString(profileKey)
}

func (s Storage) GetRedisAddr() string {
	return s.v.GetString(redisAddrKey)
}

func (s Storage) GetRedisPassword() string {
	return s.v.GetString(redisPasswordKey)
}

func (s Storage) GetRedisDB() int {
	return s.v.GetInt(redisDBKey)
}

func (s Storage) GetRedisKeyPrefix() string {
	return s.v.GetString(redisPrefixKey)
}

func (s Storage) GetRedisTTL() time.Duration {
	return s.v.GetDuration(redisTTLKey)
}
