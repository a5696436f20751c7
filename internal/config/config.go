package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// SupportedAlgorithms は署名アルゴリズムとして受け付ける値。
var SupportedAlgorithms = []string{"HS256", "HS384", "HS512"}

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL       string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	AutoMigrate       bool

	// Token
	JWTSecretKey       string
	JWTAlgorithm       string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration

	// Password hashing
	BcryptCost        int
	HashMaxConcurrent int

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string

	// Logging
	LogLevel string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定または不正な場合は、問題をすべて列挙したエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string
	var invalid []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.JWTSecretKey = os.Getenv("JWT_SECRET_KEY")
	if cfg.JWTSecretKey == "" {
		missing = append(missing, "JWT_SECRET_KEY")
	}

	cfg.JWTAlgorithm = os.Getenv("ALGORITHM")
	if cfg.JWTAlgorithm == "" {
		missing = append(missing, "ALGORITHM")
	} else if !isSupportedAlgorithm(cfg.JWTAlgorithm) {
		invalid = append(invalid, fmt.Sprintf("ALGORITHM=%q (supported: %s)",
			cfg.JWTAlgorithm, strings.Join(SupportedAlgorithms, ", ")))
	}

	accessMinutes, ok, err := getRequiredPositiveInt("ACCESS_TOKEN_EXPIRE_MINUTES")
	switch {
	case !ok:
		missing = append(missing, "ACCESS_TOKEN_EXPIRE_MINUTES")
	case err != nil:
		invalid = append(invalid, err.Error())
	default:
		cfg.AccessTokenExpiry = time.Duration(accessMinutes) * time.Minute
	}

	refreshDays, ok, err := getRequiredPositiveInt("REFRESH_TOKEN_EXPIRE_DAYS")
	switch {
	case !ok:
		missing = append(missing, "REFRESH_TOKEN_EXPIRE_DAYS")
	case err != nil:
		invalid = append(invalid, err.Error())
	default:
		cfg.RefreshTokenExpiry = time.Duration(refreshDays) * 24 * time.Hour
	}

	if len(missing) > 0 || len(invalid) > 0 {
		var parts []string
		if len(missing) > 0 {
			parts = append(parts, fmt.Sprintf("required environment variables are not set: %v", missing))
		}
		if len(invalid) > 0 {
			parts = append(parts, fmt.Sprintf("invalid environment variables: %v", invalid))
		}
		return nil, fmt.Errorf("%s", strings.Join(parts, "; "))
	}

	// Optional fields with defaults
	cfg.DBMaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 25)
	cfg.DBMaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", 5)
	cfg.DBConnMaxLifetime = getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	cfg.AutoMigrate = getEnvBool("AUTO_MIGRATE", false)
	cfg.BcryptCost = getEnvInt("BCRYPT_COST", 12)
	cfg.HashMaxConcurrent = getEnvInt("HASH_MAX_CONCURRENT", 4)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:5173")
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")

	return cfg, nil
}

func isSupportedAlgorithm(alg string) bool {
	for _, a := range SupportedAlgorithms {
		if a == alg {
			return true
		}
	}
	return false
}

// getRequiredPositiveInt は必須の正の整数環境変数を読み込む。
// 未設定の場合はok=false、数値でないか0以下の場合はerrを返す。
func getRequiredPositiveInt(key string) (int, bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil || i <= 0 {
		return 0, true, fmt.Errorf("%s=%q (must be a positive integer)", key, v)
	}
	return i, true, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
