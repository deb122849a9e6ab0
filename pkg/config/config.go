package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/docker/go-units"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Upstream UpstreamConfig
	Redis    RedisConfig
	Cache    CacheConfig
	Uploads  UploadConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
}

// UpstreamConfig locates the teachers backend and its endpoints.
type UpstreamConfig struct {
	BaseURL         string
	UsersPath       string
	FilesPath       string
	AuthPath        string
	DepartmentsPath string
	PositionsPath   string
	Timeout         time.Duration
	Token           string
	RateLimit       float64
	RateBurst       int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// CacheConfig tunes cached listing and lookup payloads.
type CacheConfig struct {
	TeachersTTL time.Duration
	LookupsTTL  time.Duration
}

// UploadConfig bounds staged attachments.
type UploadConfig struct {
	MaxSize      string
	MaxSizeBytes int64
}

type JWTConfig struct {
	Secret string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Upstream = UpstreamConfig{
		BaseURL:         strings.TrimRight(v.GetString("UPSTREAM_BASE_URL"), "/"),
		UsersPath:       v.GetString("UPSTREAM_USERS_PATH"),
		FilesPath:       v.GetString("UPSTREAM_FILES_PATH"),
		AuthPath:        v.GetString("UPSTREAM_AUTH_PATH"),
		DepartmentsPath: v.GetString("UPSTREAM_DEPARTMENTS_PATH"),
		PositionsPath:   v.GetString("UPSTREAM_POSITIONS_PATH"),
		Timeout:         parseDuration(v.GetString("UPSTREAM_TIMEOUT"), 15*time.Second),
		Token:           v.GetString("UPSTREAM_TOKEN"),
		RateLimit:       v.GetFloat64("UPSTREAM_RATE_LIMIT"),
		RateBurst:       v.GetInt("UPSTREAM_RATE_BURST"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("ENABLE_REDIS_CACHE"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Cache = CacheConfig{
		TeachersTTL: parseDuration(v.GetString("TEACHERS_CACHE_TTL"), time.Minute),
		LookupsTTL:  parseDuration(v.GetString("LOOKUPS_CACHE_TTL"), 10*time.Minute),
	}

	maxSize := v.GetString("UPLOAD_MAX_SIZE")
	cfg.Uploads = UploadConfig{
		MaxSize:      maxSize,
		MaxSizeBytes: parseSize(maxSize, 5*units.MiB),
	}

	cfg.JWT = JWTConfig{Secret: v.GetString("JWT_SECRET")}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("UPSTREAM_BASE_URL", "http://localhost:8081")
	v.SetDefault("UPSTREAM_USERS_PATH", "user/")
	v.SetDefault("UPSTREAM_FILES_PATH", "api/v1/files")
	v.SetDefault("UPSTREAM_AUTH_PATH", "auth")
	v.SetDefault("UPSTREAM_DEPARTMENTS_PATH", "department")
	v.SetDefault("UPSTREAM_POSITIONS_PATH", "lavozim")
	v.SetDefault("UPSTREAM_TIMEOUT", "15s")
	v.SetDefault("UPSTREAM_TOKEN", "")
	v.SetDefault("UPSTREAM_RATE_LIMIT", 20)
	v.SetDefault("UPSTREAM_RATE_BURST", 10)

	v.SetDefault("ENABLE_REDIS_CACHE", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("TEACHERS_CACHE_TTL", "1m")
	v.SetDefault("LOOKUPS_CACHE_TTL", "10m")
	v.SetDefault("UPLOAD_MAX_SIZE", "5MiB")

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

// parseSize reads sizes with binary multipliers, so "5MB" and "5MiB" are both 5*1024*1024.
func parseSize(raw string, fallback int64) int64 {
	if strings.TrimSpace(raw) == "" {
		return fallback
	}

	size, err := units.RAMInBytes(raw)
	if err != nil || size <= 0 {
		return fallback
	}

	return size
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
