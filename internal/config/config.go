package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiry         time.Duration
	RefreshExpiry     time.Duration

	// Verification code lifetimes per type.
	CaptchaCodeTTL time.Duration
	AuthCodeTTL    time.Duration

	// Fixed-window gates on the public endpoints.
	SendCodeWindowSeconds int
	SendCodeLimit         int
	RegisterLockSeconds   int
	RegisterLimit         int

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Accounts    string
	Teams       string
	TeamMembers string
	Sessions    string
	AuthCodes   string
	RateWindows string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Accounts:    getEnv("DYNAMO_TABLE_ACCOUNTS", "accounts"),
			Teams:       getEnv("DYNAMO_TABLE_TEAMS", "teams"),
			TeamMembers: getEnv("DYNAMO_TABLE_TEAM_MEMBERS", "team_members"),
			Sessions:    getEnv("DYNAMO_TABLE_SESSIONS", "sessions"),
			AuthCodes:   getEnv("DYNAMO_TABLE_AUTH_CODES", "auth_codes"),
			RateWindows: getEnv("DYNAMO_TABLE_RATE_WINDOWS", "rate_windows"),
		},

		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:         time.Duration(getEnvInt("JWT_EXPIRY_DAYS", 7)) * 24 * time.Hour,
		RefreshExpiry:     time.Duration(getEnvInt("REFRESH_TOKEN_EXPIRY_DAYS", 30)) * 24 * time.Hour,

		CaptchaCodeTTL: time.Duration(getEnvInt("CAPTCHA_CODE_TTL_SECONDS", 30)) * time.Second,
		AuthCodeTTL:    time.Duration(getEnvInt("AUTH_CODE_TTL_SECONDS", 300)) * time.Second,

		SendCodeWindowSeconds: getEnvInt("SEND_CODE_WINDOW_SECONDS", 60),
		SendCodeLimit:         getEnvInt("SEND_CODE_LIMIT", 5),
		RegisterLockSeconds:   getEnvInt("REGISTER_LOCK_SECONDS", 300),
		RegisterLimit:         getEnvInt("REGISTER_LIMIT", 5),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
