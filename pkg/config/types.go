package config

import "time"

type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

type CacheConfig struct {
	Enabled bool
	// Seconds
	TTL   int
	Redis RedisConfig
}

func (c CacheConfig) Expiry() time.Duration {
	return time.Duration(c.TTL) * time.Second
}

type DatabaseConfig struct {
	Path   string
	Memory bool
}

type CatalogConfig struct {
	Seed bool
}

type StatsConfig struct {
	Weeks  int
	Window int
}

type LogConfig struct {
	Debug bool
}

type Config struct {
	Database DatabaseConfig
	Cache    CacheConfig
	Catalog  CatalogConfig
	Stats    StatsConfig
	Log      LogConfig
}
