package config

import (
	"time"
)

// Config is the root service configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Minio    MinioConfig    `yaml:"minio"`
	Backup   BackupConfig   `yaml:"backup"`
	Alerts   AlertsConfig   `yaml:"alerts"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"PORT"                    env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
	EventHeartbeat  time.Duration `yaml:"event_heartbeat"  env:"SERVER_EVENT_HEARTBEAT"  env-default:"15s"`
}

// DatabaseConfig holds PostgreSQL settings for the snapshot store and area registry.
type DatabaseConfig struct {
	URL             string        `yaml:"url"               env:"DATABASE_URL"               env-required:"true"`
	MaxConns        int32         `yaml:"max_conns"         env:"DATABASE_MAX_CONNS"         env-default:"10"`
	MinConns        int32         `yaml:"min_conns"         env:"DATABASE_MIN_CONNS"         env-default:"1"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime" env:"DATABASE_MAX_CONN_LIFETIME" env-default:"1h"`
	SnapshotKey     string        `yaml:"snapshot_key"      env:"DATABASE_SNAPSHOT_KEY"      env-default:"haventory"`
}

// RedisConfig holds cache and event fan-out settings.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"   env:"REDIS_ENABLED"   env-default:"true"`
	Addr     string        `yaml:"addr"      env:"REDIS_ADDR"      env-default:"localhost:6379"`
	Password string        `yaml:"password"  env:"REDIS_PASSWORD"`
	DB       int           `yaml:"db"        env:"REDIS_DB"        env-default:"0"`
	CacheTTL time.Duration `yaml:"cache_ttl" env:"REDIS_CACHE_TTL" env-default:"5m"`
}

// MinioConfig holds object storage settings used by snapshot backups.
type MinioConfig struct {
	Endpoint  string `yaml:"endpoint"   env:"MINIO_ENDPOINT"   env-default:"localhost:9000"`
	AccessKey string `yaml:"access_key" env:"MINIO_ACCESS_KEY" env-default:"minioadmin"`
	SecretKey string `yaml:"secret_key" env:"MINIO_SECRET_KEY" env-default:"minioadmin"`
	UseSSL    bool   `yaml:"use_ssl"    env:"MINIO_USE_SSL"    env-default:"false"`
	Bucket    string `yaml:"bucket"     env:"MINIO_BUCKET"     env-default:"haventory-backups"`
	Region    string `yaml:"region"     env:"MINIO_REGION"`
}

// BackupConfig schedules snapshot uploads to object storage.
type BackupConfig struct {
	Enabled       bool          `yaml:"enabled"        env:"BACKUP_ENABLED"        env-default:"false"`
	Interval      time.Duration `yaml:"interval"       env:"BACKUP_INTERVAL"       env-default:"1h"`
	Prefix        string        `yaml:"prefix"         env:"BACKUP_PREFIX"         env-default:"snapshots/"`
	PresignExpiry time.Duration `yaml:"presign_expiry" env:"BACKUP_PRESIGN_EXPIRY" env-default:"15m"` // lifetime of the latest-backup download URL
}

// AlertsConfig schedules the low-stock scan.
type AlertsConfig struct {
	Enabled  bool          `yaml:"enabled"  env:"ALERTS_ENABLED"  env-default:"true"`
	Interval time.Duration `yaml:"interval" env:"ALERTS_INTERVAL" env-default:"15m"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text"`
}
